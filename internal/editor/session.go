package editor

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"socialsync/internal/model"
)

// State is the lifecycle state of the editor.
type State string

const (
	StateClosed    State = "closed"
	StateOpen      State = "open"
	StateEditing   State = "editing"
	StateSaved     State = "saved"
	StateDeleted   State = "deleted"
	StateCancelled State = "cancelled"
)

var ErrInvalidTransition = errors.New("invalid editor transition")

// Session drives one editor instance:
//
//	Closed -> Open -> Editing -> {Saved | Deleted | Cancelled} -> Closed
//
// Save, Delete and Cancel are allowed straight from Open. Nothing is saved
// until Save succeeds.
type Session struct {
	mu       sync.Mutex
	loc      *time.Location
	state    State
	original model.Event
	draft    Draft
	result   model.Event
}

func NewSession(loc *time.Location) *Session {
	if loc == nil {
		loc = time.UTC
	}
	return &Session{loc: loc, state: StateClosed}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Draft returns a copy of the current draft.
func (s *Session) Draft() Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.draft
	d.Platforms = append([]model.Platform{}, s.draft.Platforms...)
	return d
}

// Open seeds the editor with ev. Pass NewEvent(at) for a new event.
func (s *Session) Open(ev model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateClosed {
		return s.invalid("open")
	}
	s.original = ev.Clone()
	s.draft = FromEvent(ev, s.loc)
	s.result = model.Event{}
	s.state = StateOpen
	return nil
}

// Edit applies fn to the draft.
func (s *Session) Edit(fn func(*Draft)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active() {
		return s.invalid("edit")
	}
	fn(&s.draft)
	s.state = StateEditing
	return nil
}

// Save validates the draft and produces the merged event. On validation
// failure the editor stays where it was.
func (s *Session) Save() (model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active() {
		return model.Event{}, s.invalid("save")
	}
	ev, err := s.draft.Apply(s.original, s.loc)
	if err != nil {
		return model.Event{}, err
	}
	s.result = ev
	s.state = StateSaved
	return ev, nil
}

// Delete is only available for persisted events; it returns the id to delete.
func (s *Session) Delete() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active() || s.original.IsNew() {
		return "", s.invalid("delete")
	}
	s.state = StateDeleted
	return s.original.ID, nil
}

func (s *Session) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active() {
		return s.invalid("cancel")
	}
	s.state = StateCancelled
	return nil
}

// Close returns a finished editor to Closed.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateSaved, StateDeleted, StateCancelled:
		s.state = StateClosed
		s.draft = Draft{}
		s.original = model.Event{}
		return nil
	default:
		return s.invalid("close")
	}
}

func (s *Session) active() bool {
	return s.state == StateOpen || s.state == StateEditing
}

func (s *Session) invalid(action string) error {
	return fmt.Errorf("%w: cannot %s from %s", ErrInvalidTransition, action, s.state)
}
