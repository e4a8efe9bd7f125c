package auth

import (
	"time"

	"socialsync/internal/model"
)

// EventKind names a session change.
type EventKind string

const (
	EventSignedIn       EventKind = "signed_in"
	EventSignedOut      EventKind = "signed_out"
	EventRestored       EventKind = "restored"
	EventProfileUpdated EventKind = "profile_updated"
)

// Event is a session change. User is nil for EventSignedOut.
type Event struct {
	Kind      EventKind
	Token     string
	User      *model.User
	ExpiresAt time.Time
}

// Bus is an in-process pub-sub backed by a buffered channel.
type Bus struct {
	ch chan Event
}

func NewBus(buffer int) *Bus {
	return &Bus{ch: make(chan Event, buffer)}
}

// Publish enqueues without blocking. It returns false if the buffer is full.
func (b *Bus) Publish(evt Event) bool {
	select {
	case b.ch <- evt:
		return true
	default:
		return false
	}
}

// Subscribe returns the read side for the single consumer.
func (b *Bus) Subscribe() <-chan Event {
	return b.ch
}
