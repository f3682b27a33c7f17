// Package session authenticates portal users and persists their session.
package session

import (
	"encoding/json"
	"fmt"
)

// State is the navigation state of a session.
type State int

const (
	LoggedOut State = iota
	TeamSelection
	TeamLinks
)

var stateNames = map[State]string{
	LoggedOut:     "logged_out",
	TeamSelection: "team_selection",
	TeamLinks:     "team_links",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(b []byte) error {
	for st, name := range stateNames {
		if name == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown session state %q", b)
}

// Session is the explicit per-client state held by the controller.
type Session struct {
	// ID is the opaque client session identifier (cookie value).
	ID string

	// Identity is the authenticated email, empty when logged out.
	Identity string

	// State and TeamKey track navigation.
	State   State
	TeamKey string

	// Query is the search filter applied to the current view.
	Query string
}

// New returns a logged-out session with the given ID.
func New(id string) *Session {
	return &Session{ID: id, State: LoggedOut}
}

// Authenticated reports whether an identity is set.
func (s *Session) Authenticated() bool {
	return s != nil && s.Identity != ""
}

// Home moves back to the team list.
func (s *Session) Home() {
	s.State = TeamSelection
	s.TeamKey = ""
	s.Query = ""
}

// Enter moves into the link list of team key.
func (s *Session) Enter(key string) {
	s.State = TeamLinks
	s.TeamKey = key
	s.Query = ""
}

// reset clears identity and navigation.
func (s *Session) reset() {
	s.Identity = ""
	s.State = LoggedOut
	s.TeamKey = ""
	s.Query = ""
}

// record is the persisted form of a session.
type record struct {
	Identity string `json:"identity"`
	State    State  `json:"state"`
	TeamKey  string `json:"team,omitempty"`
	Query    string `json:"query,omitempty"`
}

func (s *Session) marshal() ([]byte, error) {
	return json.Marshal(record{Identity: s.Identity, State: s.State, TeamKey: s.TeamKey, Query: s.Query})
}
