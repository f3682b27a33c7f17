package domain

import "testing"

func TestAccessPolicyAllows(t *testing.T) {
	policy := NewAccessPolicy([]string{" Special@Gmail.com ", ""}, DefaultEmailDomain)

	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "corporate domain", input: "user@leroymerlin.com.br", want: true},
		{name: "corporate domain mixed case", input: "  User@LeroyMerlin.com.BR ", want: true},
		{name: "allow-listed", input: "special@gmail.com", want: true},
		{name: "random gmail", input: "random@gmail.com", want: false},
		{name: "suffix lookalike", input: "user@leroymerlin.com.br.evil.com", want: false},
		{name: "empty", input: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := policy.Allows(NormalizeEmail(tt.input))
			if got != tt.want {
				t.Errorf("Allows(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestAccessPolicyWithoutDomain(t *testing.T) {
	policy := NewAccessPolicy([]string{"only@example.com"}, "")

	if policy.Allows("someone@leroymerlin.com.br") {
		t.Error("empty suffix should disable domain access")
	}
	if !policy.Allows("only@example.com") || !policy.Listed("only@example.com") {
		t.Error("allow-listed email should be accepted")
	}
}
