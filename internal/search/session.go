package search

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SessionState tracks where a search session is in its lifecycle. States
// only move forward; a session is polled only after submission and stopped
// or deleted at most once.
type SessionState string

const (
	StateInit      SessionState = "init"
	StateSubmitted SessionState = "submitted"
	StatePolling   SessionState = "polling"
	StateCompleted SessionState = "completed"
	StateTimedOut  SessionState = "timed_out"
	StateStopped   SessionState = "stopped"
	StateCollected SessionState = "collected"
	StateCleanedUp SessionState = "cleaned_up"
)

// sessionTransitions whitelists the forward edges. Cleanup is reachable from
// every post-submit state because the server-side delete runs on all exit
// paths, including failures partway through.
var sessionTransitions = map[SessionState][]SessionState{
	StateInit:      {StateSubmitted},
	StateSubmitted: {StatePolling, StateCleanedUp},
	StatePolling:   {StateCompleted, StateTimedOut, StateCleanedUp},
	StateCompleted: {StateCollected, StateCleanedUp},
	StateTimedOut:  {StateStopped, StateCleanedUp},
	StateStopped:   {StateCollected, StateCleanedUp},
	StateCollected: {StateCleanedUp},
	StateCleanedUp: nil,
}

// Session is the client-side record of one server-side search. The token
// identifies the session in logs across its whole lifecycle; the search ID
// is assigned by the server at submission.
type Session struct {
	Token         string
	SearchID      string
	Query         string
	Tier          Tier
	SubmittedAt   time.Time
	FinishedAt    time.Time
	FileCount     int
	ResponseCount int

	state SessionState
}

// NewSession creates a session in the initial state.
func NewSession(query string, tier Tier) *Session {
	return &Session{
		Token: uuid.NewString(),
		Query: query,
		Tier:  tier,
		state: StateInit,
	}
}

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	return s.state
}

// Transition moves the session forward. Backward or undefined transitions
// are programming errors and are reported, never applied.
func (s *Session) Transition(next SessionState) error {
	for _, allowed := range sessionTransitions[s.state] {
		if allowed == next {
			s.state = next
			switch next {
			case StateSubmitted:
				s.SubmittedAt = time.Now()
			case StateCompleted, StateTimedOut:
				s.FinishedAt = time.Now()
			}
			return nil
		}
	}
	return fmt.Errorf("invalid session transition %s -> %s", s.state, next)
}

// Terminal reports whether the session has been fully cleaned up.
func (s *Session) Terminal() bool {
	return s.state == StateCleanedUp
}
