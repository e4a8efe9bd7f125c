package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialsync/internal/model"
	"socialsync/internal/store"
	"socialsync/internal/store/storetest"
)

func TestMemoryStore_Compliance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return New(nil) })
}

func TestEventsAreCopied(t *testing.T) {
	s := New(func() time.Time { return time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC) })
	ctx := context.Background()

	e, err := s.Events().Create(ctx, &model.Event{
		Caption:       "hello",
		ScheduledDate: time.Date(2025, 10, 2, 9, 0, 0, 0, time.UTC),
		Platforms:     []model.Platform{model.PlatformTwitter},
		Type:          model.TypePost,
		Status:        model.StatusDraft,
	})
	require.NoError(t, err)
	e.Platforms[0] = model.PlatformFacebook

	got, err := s.Events().Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, []model.Platform{model.PlatformTwitter}, got.Platforms)
	assert.Equal(t, time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC), got.CreatedAt)
}
