package rag

import (
	"slices"

	"github.com/google/uuid"
)

// Session is the ordered sequence of prior turns sharing conversational
// context. Session has value semantics: Append returns a new Session and
// never mutates its receiver, so a prior state stays readable while a new
// turn is being computed.
type Session struct {
	ID    string `json:"id"`
	Turns []Turn `json:"turns"`
}

// NewSession creates an empty session with a random ID.
func NewSession() Session {
	return Session{ID: uuid.New().String()}
}

// Append returns a new Session with the turn added. The receiver and its
// Turns slice are left untouched.
func (s Session) Append(t Turn) Session {
	turns := make([]Turn, len(s.Turns), len(s.Turns)+1)
	copy(turns, s.Turns)
	return Session{ID: s.ID, Turns: append(turns, t)}
}

// History returns a copy of the prior turns in order.
func (s Session) History() []Turn {
	return slices.Clone(s.Turns)
}

// Len returns the number of completed turns.
func (s Session) Len() int {
	return len(s.Turns)
}

// NextTurnID returns the monotonic ID for the next turn of this session.
func (s Session) NextTurnID() int {
	return len(s.Turns) + 1
}

// Clone returns a deep copy of the session.
func (s Session) Clone() Session {
	return Session{ID: s.ID, Turns: slices.Clone(s.Turns)}
}
