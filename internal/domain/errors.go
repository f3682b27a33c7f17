package domain

import "errors"

var (
	// ErrNotAuthorized is returned when an email is malformed, not allowed,
	// or fails the password gate.
	ErrNotAuthorized = errors.New("not authorized")

	// ErrUnknownTeam is returned for team keys missing from the directory.
	ErrUnknownTeam = errors.New("team not configured")

	// ErrUnknownLink is returned for URLs missing from the directory.
	ErrUnknownLink = errors.New("link not configured")
)
