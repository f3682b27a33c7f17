package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)

	err := root.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

const directoryYAML = `
teams:
  - key: qualidade
    name: Qualidade
    links:
      - name: Genesys
        url: https://apps.mypurecloud.com/directory/#/analytics
      - name: Painel NPS
        url: "#"
`

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name  string
		stdin string
		args  []string
	}{
		{name: "argument", args: []string{"hash-password", "--cost", "4", "s3cret"}},
		{name: "stdin", stdin: "s3cret\n", args: []string{"hash-password", "--cost", "4"}},
		{name: "stdin without newline", stdin: "s3cret", args: []string{"hash-password", "--cost", "4"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.stdin, tt.args...)
			if err != nil {
				t.Fatalf("hash-password error = %v", err)
			}
			hash := strings.TrimSpace(out)
			if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")); err != nil {
				t.Errorf("printed hash %q does not match password: %v", hash, err)
			}
		})
	}
}

func TestHashPasswordEmpty(t *testing.T) {
	if _, err := execute(t, "\n", "hash-password"); err == nil {
		t.Error("hash-password with empty input should fail")
	}
}

func TestCheck(t *testing.T) {
	path := writeFile(t, "directory.yaml", directoryYAML)

	out, err := execute(t, "", "check", path)
	if err != nil {
		t.Fatalf("check error = %v", err)
	}
	if !strings.Contains(out, "1 teams, 2 links") || !strings.Contains(out, "qualidade") {
		t.Errorf("check output = %q", out)
	}
}

func TestCheckCredentials(t *testing.T) {
	dir := writeFile(t, "directory.yaml", directoryYAML)
	hash, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}

	good := writeFile(t, "good.yaml", "domain_default: \""+string(hash)+"\"\n")
	out, err := execute(t, "", "check", dir, "--credentials", good)
	if err != nil {
		t.Fatalf("check --credentials error = %v", err)
	}
	if !strings.Contains(out, "domain default set: true") {
		t.Errorf("check output = %q", out)
	}

	bad := writeFile(t, "bad.yaml", "users:\n  a@leroymerlin.com.br: plaintext\n")
	if _, err := execute(t, "", "check", dir, "--credentials", bad); err == nil {
		t.Error("check should reject plaintext credentials")
	}
}

func TestCheckInvalidDirectory(t *testing.T) {
	path := writeFile(t, "directory.yaml", "teams:\n  - name: No Key\n")
	if _, err := execute(t, "", "check", path); err == nil {
		t.Error("check should fail on a team without key")
	}
}

func TestFlagsDoNotLeakBetweenRuns(t *testing.T) {
	dir := writeFile(t, "directory.yaml", directoryYAML)
	bad := writeFile(t, "bad.yaml", "users:\n  a@leroymerlin.com.br: plaintext\n")

	if _, err := execute(t, "", "check", dir, "--credentials", bad); err == nil {
		t.Fatal("check should reject plaintext credentials")
	}
	if _, err := execute(t, "", "check", dir); err != nil {
		t.Errorf("check without --credentials error = %v, previous flag leaked", err)
	}

	out, err := execute(t, "", "hash-password", "--cost", "5", "s3cret")
	if err != nil {
		t.Fatalf("hash-password error = %v", err)
	}
	if cost, _ := bcrypt.Cost([]byte(strings.TrimSpace(out))); cost != 5 {
		t.Fatalf("cost = %d, want 5", cost)
	}

	out, err = execute(t, "", "hash-password", "s3cret")
	if err != nil {
		t.Fatalf("hash-password error = %v", err)
	}
	if cost, _ := bcrypt.Cost([]byte(strings.TrimSpace(out))); cost != bcrypt.DefaultCost {
		t.Errorf("cost = %d, want default %d", cost, bcrypt.DefaultCost)
	}
}
