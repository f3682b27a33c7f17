package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/MrSnakeDoc/portal/internal/domain"
	"github.com/MrSnakeDoc/portal/internal/logger"
	"github.com/MrSnakeDoc/portal/internal/store"
)

// DefaultTTL is how long an idle session record is kept.
const DefaultTTL = 30 * 24 * time.Hour

// AuthError is a login rejection carrying the message shown to the user.
// It matches domain.ErrNotAuthorized with errors.Is.
type AuthError struct {
	Msg string
}

func (e *AuthError) Error() string { return e.Msg }
func (e *AuthError) Unwrap() error { return domain.ErrNotAuthorized }

// Credentials is the illustrative password table used when the password
// gate is on. Values are bcrypt hashes.
type Credentials struct {
	Users         map[string]string // normalized email -> hash
	DomainDefault string            // hash for domain users without an entry
}

// Options configures a Gate.
type Options struct {
	PasswordGate bool
	Credentials  Credentials
	TTL          time.Duration // 0 -> DefaultTTL
}

// Gate validates logins and owns the persisted session records.
type Gate struct {
	policy   *domain.AccessPolicy
	kv       store.Store
	opts     Options
	validate *validator.Validate
	logger   logger.Logger
}

// NewGate creates a session gate.
func NewGate(policy *domain.AccessPolicy, kv store.Store, opts Options, log logger.Logger) *Gate {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	users := make(map[string]string, len(opts.Credentials.Users))
	for email, hash := range opts.Credentials.Users {
		users[domain.NormalizeEmail(email)] = hash
	}
	opts.Credentials.Users = users

	return &Gate{
		policy:   policy,
		kv:       kv,
		opts:     opts,
		validate: validator.New(),
		logger:   log,
	}
}

// NewID returns a fresh random session ID.
func NewID() string {
	return uuid.NewString()
}

// PasswordRequired reports whether logins need the second factor.
func (g *Gate) PasswordRequired() bool {
	return g.opts.PasswordGate
}

// Authenticate validates rawEmail (and password when the gate is on). On
// success the session gets the identity, moves to team selection and is
// persisted. On rejection the session is left untouched and the error is an
// *AuthError.
func (g *Gate) Authenticate(ctx context.Context, s *Session, rawEmail, password string) error {
	email := domain.NormalizeEmail(rawEmail)

	if email == "" {
		return &AuthError{Msg: "Please enter your email."}
	}
	if g.opts.PasswordGate && password == "" {
		return &AuthError{Msg: "Please enter your email and password."}
	}
	if err := g.validate.Var(email, "email"); err != nil {
		return &AuthError{Msg: "Please enter a valid email address."}
	}
	if !g.policy.Allows(email) {
		g.logger.Info("login rejected", logger.String("reason", "not_allowed"))
		return &AuthError{Msg: "Access restricted to company employees."}
	}
	if g.opts.PasswordGate && !g.checkPassword(email, password) {
		g.logger.Info("login rejected", logger.String("reason", "bad_password"))
		return &AuthError{Msg: "Email not authorized or wrong password."}
	}

	s.Identity = email
	s.Home()
	if s.ID == "" {
		s.ID = NewID()
	}

	if err := g.Save(ctx, s); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	return nil
}

func (g *Gate) checkPassword(email, password string) bool {
	hash, ok := g.opts.Credentials.Users[email]
	if !ok && !g.policy.Listed(email) {
		hash = g.opts.Credentials.DomainDefault
	}
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Restore returns the session stored under id. A stored identity is trusted
// as-is, without re-checking the allow-list. Missing or unreadable records
// give a logged-out session.
func (g *Gate) Restore(ctx context.Context, id string) *Session {
	s := New(id)
	if id == "" {
		return s
	}

	data, err := g.kv.Get(ctx, store.SessionKey(id))
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			g.logger.Warn("failed to read session, treating as logged out", logger.Error(err))
		}
		return s
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil || rec.Identity == "" {
		g.logger.Debug("discarding unreadable session record")
		return s
	}

	s.Identity = rec.Identity
	s.State = rec.State
	s.TeamKey = rec.TeamKey
	s.Query = rec.Query
	if s.State == LoggedOut {
		s.Home()
	}
	return s
}

// Save persists the session. Logged-out sessions are not stored.
func (g *Gate) Save(ctx context.Context, s *Session) error {
	if !s.Authenticated() || s.ID == "" {
		return nil
	}
	data, err := s.marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	return g.kv.Set(ctx, store.SessionKey(s.ID), data, g.opts.TTL)
}

// Logout deletes the stored record and clears identity and navigation.
func (g *Gate) Logout(ctx context.Context, s *Session) error {
	defer s.reset()
	if s.ID == "" {
		return nil
	}
	if err := g.kv.Delete(ctx, store.SessionKey(s.ID)); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
