package domain

import "strings"

// DefaultEmailDomain is the corporate suffix accepted without an allow-list entry.
const DefaultEmailDomain = "@leroymerlin.com.br"

// AccessPolicy decides which identities may enter the portal.
type AccessPolicy struct {
	allowed map[string]struct{}
	suffix  string
}

// NewAccessPolicy builds a policy from explicit emails and a domain suffix.
// Entries are normalized the same way as login input. An empty suffix
// disables domain-based access.
func NewAccessPolicy(allowedEmails []string, domainSuffix string) *AccessPolicy {
	p := &AccessPolicy{
		allowed: make(map[string]struct{}, len(allowedEmails)),
		suffix:  NormalizeEmail(domainSuffix),
	}
	for _, e := range allowedEmails {
		if n := NormalizeEmail(e); n != "" {
			p.allowed[n] = struct{}{}
		}
	}
	return p
}

// NormalizeEmail trims whitespace and lowercases.
func NormalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Allows reports whether the already-normalized email is on the allow-list
// or ends with the domain suffix.
func (p *AccessPolicy) Allows(email string) bool {
	if email == "" {
		return false
	}
	if _, ok := p.allowed[email]; ok {
		return true
	}
	return p.suffix != "" && strings.HasSuffix(email, p.suffix)
}

// Listed reports whether email is an explicit allow-list entry.
func (p *AccessPolicy) Listed(email string) bool {
	_, ok := p.allowed[email]
	return ok
}

// DomainSuffix returns the normalized corporate suffix.
func (p *AccessPolicy) DomainSuffix() string {
	return p.suffix
}
