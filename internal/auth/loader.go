package auth

import (
	"context"
	"errors"
	"fmt"

	appLog "socialsync/internal/log"
	"socialsync/internal/model"
	"socialsync/internal/store"
)

// ProfileLoader consumes session changes and loads the extended profile and
// active organization off the publisher's goroutine.
type ProfileLoader struct {
	store    store.Store
	sessions *Manager
	events   <-chan Event
}

func (l *ProfileLoader) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-l.events:
			if !ok {
				return
			}
			l.handle(ctx, evt)
		}
	}
}

func (l *ProfileLoader) handle(ctx context.Context, evt Event) {
	switch evt.Kind {
	case EventSignedOut:
		l.sessions.drop(evt.Token)
	case EventSignedIn, EventRestored, EventProfileUpdated:
		s, ok := l.sessions.live(ctx, evt)
		if !ok {
			return
		}
		s.beginLoad()
		p, o, err := loadProfile(ctx, l.store, s.user.ID)
		if err != nil {
			appLog.Error("profile load failed", err, "user_id", s.user.ID)
		}
		s.finishLoad(p, o, err)
	}
}

// loadProfile fetches the profile and, when it exists, the organization of
// the user's active membership. A user without an organization is not an
// error.
func loadProfile(ctx context.Context, s store.Store, userID string) (*model.Profile, *model.Organization, error) {
	p, err := s.Profiles().Get(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("load profile: %w", err)
	}
	o, err := s.Organizations().ForUser(ctx, userID)
	if errors.Is(err, model.ErrNotFound) {
		return p, nil, nil
	}
	if err != nil {
		return p, nil, fmt.Errorf("load organization: %w", err)
	}
	return p, o, nil
}
