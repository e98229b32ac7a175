package state

import (
	"context"
	"errors"
)

// State identifies a conversation step, e.g. "task:photo".
type State string

// StateNone means no wizard is in progress.
const StateNone State = "none"

// ErrNilSession is returned by stores asked to save a nil session.
var ErrNilSession = errors.New("state: nil session")

// Session is the conversation state of one user.
type Session struct {
	State  State   `json:"state"`
	Fields *Fields `json:"fields"`
}

// NewSession returns an idle session with no fields.
func NewSession() *Session {
	return &Session{State: StateNone, Fields: NewFields()}
}

// Idle reports whether no wizard is in progress.
func (s *Session) Idle() bool {
	return s == nil || s.State == "" || s.State == StateNone
}

// Enter moves the session to st keeping collected fields.
func (s *Session) Enter(st State) {
	s.State = st
	if s.Fields == nil {
		s.Fields = NewFields()
	}
}

// Reset returns the session to StateNone and drops every field.
func (s *Session) Reset() {
	s.State = StateNone
	s.Fields = NewFields()
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	if s == nil {
		return NewSession()
	}
	return &Session{State: s.State, Fields: s.Fields.Clone()}
}

// Store persists sessions by user identity.
//
// Load never returns a nil session: unknown users get a fresh idle one.
type Store interface {
	Load(ctx context.Context, userID int64) (*Session, error)
	Save(ctx context.Context, userID int64, s *Session) error
	Clear(ctx context.Context, userID int64) error
}
