package calendar

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"socialsync/internal/model"
)

// Session owns the single event list of a calendar together with its view.
// Every mutation replaces the list; Board always derives the grid from the
// current list, so mapping is never stored.
type Session struct {
	mu     sync.RWMutex
	events []model.Event
	view   View
	now    func() time.Time
}

// NewSession seeds a session with events. now defaults to time.Now.
func NewSession(events []model.Event, now func() time.Time) *Session {
	if now == nil {
		now = time.Now
	}
	list := make([]model.Event, len(events))
	for i, ev := range events {
		list[i] = ev.Clone()
	}
	return &Session{events: list, view: NewView(now()), now: now}
}

func (s *Session) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

// Show replaces the current view.
func (s *Session) Show(v View) View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = v
	return s.view
}

func (s *Session) Navigate(dir Direction) View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = s.view.Navigate(dir)
	return s.view
}

func (s *Session) Today() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = s.view.Today(s.now())
	return s.view
}

func (s *Session) SetMode(mode Mode) View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = s.view.SetMode(mode)
	return s.view
}

// Events returns a copy of the event list.
func (s *Session) Events() []model.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Event, len(s.events))
	for i, ev := range s.events {
		out[i] = ev.Clone()
	}
	return out
}

// Save inserts a new event (assigning an id) or replaces the event with the
// same id.
func (s *Session) Save(ev model.Event) (model.Event, error) {
	if len(ev.Platforms) == 0 {
		return model.Event{}, fmt.Errorf("%w: at least one platform is required", model.ErrValidation)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	ev = ev.Clone()
	now := s.now()
	ev.UpdatedAt = now
	if ev.IsNew() {
		ev.ID = uuid.NewString()
		ev.CreatedAt = now
		s.events = append(append([]model.Event(nil), s.events...), ev)
		return ev, nil
	}

	next := make([]model.Event, len(s.events))
	copy(next, s.events)
	for i := range next {
		if next[i].ID == ev.ID {
			ev.CreatedAt = next[i].CreatedAt
			next[i] = ev
			s.events = next
			return ev, nil
		}
	}
	return model.Event{}, fmt.Errorf("event %s: %w", ev.ID, model.ErrNotFound)
}

// Delete removes the event with the given id.
func (s *Session) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make([]model.Event, 0, len(s.events))
	found := false
	for _, ev := range s.events {
		if ev.ID == id {
			found = true
			continue
		}
		next = append(next, ev)
	}
	if !found {
		return fmt.Errorf("event %s: %w", id, model.ErrNotFound)
	}
	s.events = next
	return nil
}

// Drop reschedules the event with id onto target.
func (s *Session) Drop(id string, target Cell) (model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, moved, err := ApplyDrop(s.events, id, target)
	if err != nil {
		return model.Event{}, err
	}
	s.events = next
	return moved, nil
}

// Board expands recurring events over the visible range and maps the
// resulting occurrences onto the current view.
func (s *Session) Board(f Filter) (Board[model.Occurrence], []string, error) {
	s.mu.RLock()
	view := s.view
	events := f.Apply(s.events)
	s.mu.RUnlock()

	return BoardFor(view, events, s.now())
}

// BoardFor expands events over view's visible range and builds its board.
func BoardFor(view View, events []model.Event, now time.Time) (Board[model.Occurrence], []string, error) {
	start, end := Range(view.Dates())
	res, err := Expand(events, ExpandConfig{
		DisplayLocation: view.Anchor.Location(),
		RangeStart:      start,
		RangeEnd:        end,
	})
	if err != nil {
		return Board[model.Occurrence]{}, nil, err
	}
	return BuildBoard(view.Anchor, view.Mode, res.Occurrences, now.In(view.Anchor.Location())), res.TruncatedEvents, nil
}
