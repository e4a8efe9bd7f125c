package demo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"socialsync/internal/model"
	"socialsync/internal/store"
)

var now = time.Date(2025, 10, 15, 12, 0, 0, 0, time.UTC)

func TestLoad(t *testing.T) {
	d, err := Load(now, time.UTC)
	require.NoError(t, err)

	require.Len(t, d.Events, 6)
	assert.Equal(t, time.Date(2025, 10, 15, 11, 0, 0, 0, time.UTC), d.Events[0].ScheduledDate)
	require.NotNil(t, d.Events[2].Recurrence)
	assert.Equal(t, model.FrequencyWeekly, d.Events[2].Recurrence.Frequency)
	require.NotNil(t, d.Events[2].Recurrence.EndDate)
	assert.Equal(t, 30, d.Events[5].Recurrence.Count)
	for _, e := range d.Events {
		assert.NotEmpty(t, e.Platforms, e.ID)
		assert.True(t, e.Status.Valid(), e.ID)
	}

	require.Len(t, d.Accounts, 4)
	assert.Equal(t, now.Add(-5*time.Minute), d.Accounts[0].LastSync)
	assert.Equal(t, model.Usage{Used: 45, Total: 200}, d.Accounts[0].RateLimit)
	assert.NotNil(t, d.Accounts[0].BrandVoice)
	assert.Nil(t, d.Accounts[1].BrandVoice)

	assert.Len(t, d.Analytics, 4*30)
	last := d.Analytics[29]
	assert.Equal(t, time.Date(2025, 10, 15, 0, 0, 0, 0, time.UTC), last.Date)
	assert.Equal(t, 4.8, last.EngagementRate)

	require.Len(t, d.AdAccounts, 4)
	assert.Equal(t, model.AdAccountDisconnected, d.AdAccounts[3].Status)
	require.Len(t, d.AdCampaigns, 4)
	assert.Equal(t, model.AdCampaignPaused, d.AdCampaigns[3].Status)
	require.Len(t, d.AdPerformance, 12)
	assert.Equal(t, time.Date(2025, 10, 13, 0, 0, 0, 0, time.UTC), d.AdPerformance[0].Date)
	assert.Equal(t, "demo-campaign-brand-20251015", d.AdPerformance[2].ID)

	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(d.User.PasswordHash), []byte(Password)))
}

func TestNewStoreIsSeeded(t *testing.T) {
	ctx := context.Background()
	s, err := NewStore(ctx, func() time.Time { return now }, time.UTC)
	require.NoError(t, err)

	org, err := s.Organizations().ForUser(ctx, UserID)
	require.NoError(t, err)
	assert.Equal(t, OrganizationID, org.ID)
	assert.Equal(t, model.RoleAdmin, org.UserRole)

	events, err := s.Events().List(ctx, store.EventFilter{OrganizationID: OrganizationID})
	require.NoError(t, err)
	assert.Len(t, events, 6)

	members, err := s.Members().List(ctx, OrganizationID)
	require.NoError(t, err)
	assert.Len(t, members, 4)

	rows, err := s.Ads().ListPerformance(ctx, OrganizationID, time.Time{})
	require.NoError(t, err)
	assert.Len(t, rows, 12)
}
