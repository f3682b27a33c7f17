package portal

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

var templateVar = regexp.MustCompile(`\{\{[^}]+\}\}`)

// Loader reads the directory file
type Loader struct {
	filePath string
}

// NewLoader creates a new directory loader
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
	}
}

// Load reads and parses the directory file
func (l *Loader) Load() (DirectoryFile, error) {
	var file DirectoryFile

	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return file, fmt.Errorf("failed to read directory file: %w", err)
	}

	// Deploy templates may leave {{VAR}} placeholders behind
	data = stripTemplateVariables(data)

	if err := yaml.Unmarshal(data, &file); err != nil {
		return file, fmt.Errorf("failed to parse directory yaml: %w", err)
	}

	return file, nil
}

// LoadCredentials reads the password table. An empty path yields an empty
// table.
func LoadCredentials(filePath string) (CredentialsFile, error) {
	var creds CredentialsFile
	if filePath == "" {
		return creds, nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return creds, fmt.Errorf("failed to read credentials file: %w", err)
	}

	if err := yaml.Unmarshal(data, &creds); err != nil {
		return creds, fmt.Errorf("failed to parse credentials yaml: %w", err)
	}

	return creds, nil
}

// Validate checks that every entry is a bcrypt hash, so a plaintext
// password pasted by mistake is caught at startup.
func (c CredentialsFile) Validate() error {
	var errs []error
	if c.DomainDefault != "" {
		if _, err := bcrypt.Cost([]byte(c.DomainDefault)); err != nil {
			errs = append(errs, fmt.Errorf("domain_default: %w", err))
		}
	}

	emails := make([]string, 0, len(c.Users))
	for email := range c.Users {
		emails = append(emails, email)
	}
	sort.Strings(emails)
	for _, email := range emails {
		if _, err := bcrypt.Cost([]byte(c.Users[email])); err != nil {
			errs = append(errs, fmt.Errorf("user %s: %w", email, err))
		}
	}
	return errors.Join(errs...)
}

// stripTemplateVariables removes {{...}} placeholders. A placeholder that is
// a whole plain scalar becomes "" so the key keeps an empty string value;
// inside a quoted scalar or in the middle of plain text it just disappears.
//
//	url: {{PORTAL_VAR_GENESYS}}          -> url: ""
//	url: "https://x/{{PORTAL_VAR_ID}}"   -> url: "https://x/"
func stripTemplateVariables(data []byte) []byte {
	lines := bytes.Split(data, []byte("\n"))
	for i, line := range lines {
		lines[i] = stripLine(line)
	}
	return bytes.Join(lines, []byte("\n"))
}

func stripLine(line []byte) []byte {
	matches := templateVar.FindAllIndex(line, -1)
	if matches == nil {
		return line
	}

	out := make([]byte, 0, len(line))
	last := 0
	for _, m := range matches {
		out = append(out, line[last:m[0]]...)
		if !inQuotes(line[:m[0]]) && wholeScalar(line[:m[0]], line[m[1]:]) {
			out = append(out, `""`...)
		}
		last = m[1]
	}
	return append(out, line[last:]...)
}

// inQuotes reports whether prefix ends inside a quoted YAML scalar. Quotes
// only open at the start of a scalar, so apostrophes in plain text are not
// taken for one.
func inQuotes(prefix []byte) bool {
	var quote byte
	for i := 0; i < len(prefix); i++ {
		c := prefix[i]
		switch {
		case quote == 0 && (c == '"' || c == '\'') && (i == 0 || bytes.IndexByte([]byte(" \t[{,"), prefix[i-1]) >= 0):
			quote = c
		case quote == '"' && c == '\\':
			i++
		case quote == '\'' && c == '\'' && i+1 < len(prefix) && prefix[i+1] == '\'':
			i++
		case quote != 0 && c == quote:
			quote = 0
		}
	}
	return quote != 0
}

// wholeScalar reports whether the text around a placeholder leaves it as a
// complete value: after "key: ", "- ", "[" or "," and before the end of the
// line, a comment or a flow separator.
func wholeScalar(before, after []byte) bool {
	b := bytes.TrimRight(before, " \t")
	if len(b) > 0 {
		switch b[len(b)-1] {
		case '[', '{', ',':
		case ':', '-':
			if len(b) == len(before) {
				return false
			}
		default:
			return false
		}
	}

	a := bytes.TrimLeft(after, " \t")
	return len(a) == 0 || bytes.IndexByte([]byte("#,]}"), a[0]) >= 0
}
