package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialsync/internal/bulk"
	"socialsync/internal/calendar"
	"socialsync/internal/demo"
	"socialsync/internal/editor"
	"socialsync/internal/ics"
	"socialsync/internal/model"
	"socialsync/internal/store"
	"socialsync/internal/store/memory"
)

var (
	oct15   = time.Date(2025, 10, 15, 9, 0, 0, 0, time.UTC)
	fixedAt = func() time.Time { return oct15 }
)

func demoStore(t *testing.T) *memory.Store {
	t.Helper()
	s, err := demo.NewStore(context.Background(), fixedAt, time.UTC)
	require.NoError(t, err)
	return s
}

// newDemo has no backend: reads and writes go to the demo workspace.
func newDemo(t *testing.T) *Services {
	t.Helper()
	return New(Options{Demo: demoStore(t), Location: time.UTC, Now: fixedAt})
}

// newLive uses a seeded memory store as the backend.
func newLive(t *testing.T, live store.Store) *Services {
	t.Helper()
	return New(Options{Live: live, Demo: demoStore(t), Location: time.UTC, Now: fixedAt})
}

var errBackendDown = errors.New("backend down")

type brokenAnalytics struct{}

func (brokenAnalytics) Put(context.Context, *model.AnalyticsSummary) (*model.AnalyticsSummary, error) {
	return nil, errBackendDown
}

func (brokenAnalytics) List(context.Context, string, time.Time) ([]*model.AnalyticsSummary, error) {
	return nil, errBackendDown
}

type brokenStore struct{ store.Store }

func (brokenStore) Analytics() store.Analytics { return brokenAnalytics{} }

func TestDataSourceTags(t *testing.T) {
	ctx := context.Background()
	ds, err := demo.Load(oct15, time.UTC)
	require.NoError(t, err)

	t.Run("no backend serves demo", func(t *testing.T) {
		res := newDemo(t).Analytics.Summaries(ctx, Scope{}, 30)
		assert.Equal(t, SourceDemo, res.Source)
		assert.Empty(t, res.Error)
		assert.Len(t, res.Data, len(ds.Analytics))
	})

	t.Run("backend success is live", func(t *testing.T) {
		svc := newLive(t, demoStore(t))
		res := svc.Analytics.Summaries(ctx, DemoScope(), 30)
		assert.Equal(t, SourceLive, res.Source)
		assert.Len(t, res.Data, len(ds.Analytics))
	})

	t.Run("backend failure falls back to demo", func(t *testing.T) {
		svc := newLive(t, brokenStore{memory.New(fixedAt)})
		res := svc.Analytics.Summaries(ctx, Scope{OrganizationID: "org-1", UserID: "u1"}, 30)
		assert.Equal(t, SourceError, res.Source)
		assert.Equal(t, "backend down", res.Error)
		assert.Len(t, res.Data, len(ds.Analytics))
	})

	t.Run("missing organization is an error", func(t *testing.T) {
		svc := newLive(t, memory.New(fixedAt))
		res := svc.Team.Members(ctx, Scope{})
		assert.Equal(t, SourceError, res.Source)
		assert.Contains(t, res.Error, "no active organization")
	})
}

func TestFormatNumber(t *testing.T) {
	for n, want := range map[int]string{
		0:         "0",
		999:       "999",
		1000:      "1.0K",
		1500:      "1.5K",
		79700:     "79.7K",
		2_400_000: "2.4M",
	} {
		assert.Equal(t, want, FormatNumber(n), "%d", n)
	}
}

func TestOverview(t *testing.T) {
	ctx := context.Background()
	svc := newDemo(t)

	res := svc.Analytics.Overview(ctx, Scope{})
	require.Equal(t, SourceDemo, res.Source)
	o := res.Data
	// Instagram and Facebook are connected; LinkedIn expired, Twitter errored.
	assert.Equal(t, 48200+31500, o.TotalFollowers)
	assert.Equal(t, (5300+4700+2700+2500)*21, o.TotalReach)
	assert.Equal(t, 4.8, o.AverageEngagement)
	assert.Equal(t, 0, o.PostsThisMonth)

	_, err := svc.Calendar.Save(ctx, Scope{}, editor.Draft{
		Caption: "Fresh post", Date: "2025-10-21", Time: "10:00",
		Platforms: []model.Platform{model.PlatformInstagram},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, svc.Analytics.Overview(ctx, Scope{}).Data.PostsThisMonth)

	cards := o.Metrics()
	require.Len(t, cards, 4)
	assert.Equal(t, "79.7K", cards[0].Value)
	assert.Equal(t, "4.8%", cards[1].Value)
}

func TestComparisonAndCSV(t *testing.T) {
	ctx := context.Background()
	svc := newDemo(t)

	cmp := svc.Analytics.Comparison(ctx, Scope{}, 7)
	require.Len(t, cmp.Data, 4)
	assert.Equal(t, model.PlatformInstagram, cmp.Data[0].Platform)
	assert.Equal(t, 4.8, cmp.Data[0].EngagementRate)

	var buf bytes.Buffer
	require.NoError(t, svc.Analytics.ExportCSV(ctx, Scope{}, 1, &buf))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, "2025-10-15", rows[1][0])

	times := BestTimes(model.PlatformLinkedIn)
	require.Len(t, times, 1)
	assert.Equal(t, []string{"09:00", "12:00", "17:00"}, times[0].Times)
	assert.Len(t, BestTimes(), 4)
}

func cellOn(t *testing.T, b calendar.Board[model.Occurrence], day string) calendar.MonthCell[model.Occurrence] {
	t.Helper()
	for _, c := range b.Cells {
		if c.Key() == day {
			return c
		}
	}
	t.Fatalf("no cell for %s", day)
	return calendar.MonthCell[model.Occurrence]{}
}

func TestCalendarBoardAndDrop(t *testing.T) {
	ctx := context.Background()
	svc := newDemo(t)
	view := calendar.ViewAt(oct15, calendar.ModeMonth)

	res := svc.Calendar.Board(ctx, Scope{}, view, calendar.Filter{})
	require.Equal(t, SourceDemo, res.Source)
	require.Len(t, res.Data.Board.Cells, calendar.MonthCellCount)
	cell := cellOn(t, res.Data.Board, "2025-10-15")
	require.Equal(t, 1, cell.Total)
	assert.Equal(t, "demo-event-1", cell.Events[0].SeriesID)

	// Weekly series from Oct 17 shows again a week later.
	assert.Equal(t, "demo-event-3", cellOn(t, res.Data.Board, "2025-10-24").Events[0].SeriesID)

	moved, err := svc.Calendar.Drop(ctx, Scope{}, "demo-event-1", calendar.DateCell(time.Date(2025, 10, 18, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 10, 18, 11, 0, 0, 0, time.UTC), moved.ScheduledDate.UTC())

	res = svc.Calendar.Board(ctx, Scope{}, view, calendar.Filter{})
	assert.Equal(t, 0, cellOn(t, res.Data.Board, "2025-10-15").Total)

	filtered := svc.Calendar.Board(ctx, Scope{}, view, calendar.Filter{Statuses: []model.EventStatus{model.StatusPending}})
	assert.Equal(t, 1, cellOn(t, filtered.Data.Board, "2025-10-16").Total)
	assert.Equal(t, 0, cellOn(t, filtered.Data.Board, "2025-10-18").Total)

	_, err = svc.Calendar.Drop(ctx, Scope{}, "missing", calendar.DateCell(oct15))
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestCalendarSaveAndDelete(t *testing.T) {
	ctx := context.Background()
	svc := newDemo(t)

	_, err := svc.Calendar.Save(ctx, Scope{}, editor.Draft{Caption: "No platforms", Date: "2025-10-21", Time: "10:00"})
	require.ErrorIs(t, err, model.ErrValidation)
	var fe editor.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe, "platforms")

	ev, err := svc.Calendar.Save(ctx, Scope{}, editor.Draft{
		Caption: "Launch", Date: "2025-10-21", Time: "10:00",
		Platforms: []model.Platform{model.PlatformTwitter},
	})
	require.NoError(t, err)
	assert.Equal(t, demo.OrganizationID, ev.OrganizationID)
	assert.Equal(t, model.TypePost, ev.Type)
	assert.Equal(t, model.StatusDraft, ev.Status)

	d := editor.FromEvent(*ev, time.UTC)
	d.Caption = "Launch day"
	d.Time = "12:30"
	updated, err := svc.Calendar.Save(ctx, Scope{}, d)
	require.NoError(t, err)
	assert.Equal(t, ev.ID, updated.ID)
	assert.Equal(t, "Launch day", updated.Caption)
	assert.Equal(t, 12, updated.ScheduledDate.Hour())

	acts := svc.Feed.Activities(ctx, Scope{}, 2)
	require.Len(t, acts.Data, 2)
	assert.Equal(t, "updated post", acts.Data[0].Action)
	assert.Equal(t, "created post", acts.Data[1].Action)

	require.NoError(t, svc.Calendar.Delete(ctx, Scope{}, ev.ID))
	_, err = svc.Calendar.Get(ctx, Scope{}, ev.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.ErrorIs(t, svc.Calendar.Delete(ctx, Scope{}, ev.ID), model.ErrNotFound)
}

func TestCalendarOtherOrganizationIsHidden(t *testing.T) {
	ctx := context.Background()
	svc := newLive(t, demoStore(t))
	other := Scope{OrganizationID: "org-2", UserID: "u2"}

	_, err := svc.Calendar.Get(ctx, other, "demo-event-1")
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.ErrorIs(t, svc.Calendar.Delete(ctx, other, "demo-event-1"), model.ErrNotFound)
}

func TestBulkStoresAssignments(t *testing.T) {
	ctx := context.Background()
	svc := newDemo(t)
	req := bulk.Request{
		Mode:      bulk.ModeCustom,
		Platforms: []model.Platform{model.PlatformInstagram},
		Slots:     []bulk.TimeSlot{{Time: "13:00", Enabled: true}, {Time: "09:00", Enabled: true}},
		StartDate: "2025-11-03",
		EndDate:   "2025-11-04",
		Items:     []bulk.Item{{Caption: "one"}, {Caption: "two"}, {Caption: "three"}},
	}

	dry, err := svc.Calendar.Bulk(ctx, Scope{}, req, true)
	require.NoError(t, err)
	assert.Len(t, dry.Plan.Assignments, 3)
	assert.Empty(t, dry.Created)

	res, err := svc.Calendar.Bulk(ctx, Scope{}, req, false)
	require.NoError(t, err)
	require.Len(t, res.Created, 3)
	want := []time.Time{
		time.Date(2025, 11, 3, 9, 0, 0, 0, time.UTC),
		time.Date(2025, 11, 3, 13, 0, 0, 0, time.UTC),
		time.Date(2025, 11, 4, 9, 0, 0, 0, time.UTC),
	}
	for i, ev := range res.Created {
		assert.Equal(t, want[i], ev.ScheduledDate.UTC())
		assert.Equal(t, model.StatusScheduled, ev.Status)
	}

	req.EndDate = "2025-11-01"
	_, err = svc.Calendar.Bulk(ctx, Scope{}, req, false)
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestBulkKeepsEventInvariants(t *testing.T) {
	ctx := context.Background()
	svc := newDemo(t)
	before := len(svc.Calendar.Events(ctx, Scope{}, time.Time{}, time.Time{}, calendar.Filter{}).Data)

	_, err := svc.Calendar.Bulk(ctx, DemoScope(), bulk.Request{
		Mode:      bulk.ModeCustom,
		Platforms: []model.Platform{"myspace"},
		StartDate: "2025-10-20",
		EndDate:   "2025-10-20",
		Items:     []bulk.Item{{Caption: "hello"}},
	}, false)
	assert.ErrorIs(t, err, model.ErrValidation)

	res, err := svc.Calendar.Bulk(ctx, DemoScope(), bulk.Request{
		Mode:      bulk.ModeCustom,
		Platforms: []model.Platform{model.PlatformLinkedIn},
		StartDate: "2025-10-20",
		EndDate:   "2025-10-20",
		Items:     []bulk.Item{{Caption: ""}, {Caption: "kept"}},
	}, false)
	require.NoError(t, err)
	require.Len(t, res.Created, 1)
	assert.Equal(t, "kept", res.Created[0].Caption)
	require.Len(t, res.Plan.Rejected, 1)

	after := svc.Calendar.Events(ctx, Scope{}, time.Time{}, time.Time{}, calendar.Filter{}).Data
	assert.Len(t, after, before+1)
	for _, ev := range after {
		assert.NotEmpty(t, ev.Platforms)
		assert.True(t, ev.Caption != "" || ev.Media != nil, ev.ID)
	}
}

func TestICSRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := newDemo(t)

	var buf bytes.Buffer
	require.NoError(t, svc.Calendar.ExportICS(ctx, Scope{}, &buf))
	body := buf.Bytes()
	assert.Contains(t, buf.String(), "demo-event-3@socialsync")
	assert.Contains(t, buf.String(), "FREQ=WEEKLY")

	// Re-importing our own feed updates the same events.
	before := svc.Calendar.Events(ctx, Scope{}, time.Time{}, time.Time{}, calendar.Filter{}).Data
	imported, err := svc.Calendar.ImportICS(ctx, Scope{}, body, ics.ImportOptions{Platforms: []model.Platform{model.PlatformInstagram}})
	require.NoError(t, err)
	assert.Len(t, imported, len(before))
	after := svc.Calendar.Events(ctx, Scope{}, time.Time{}, time.Time{}, calendar.Filter{}).Data
	assert.Len(t, after, len(before))

	for _, ev := range after {
		if ev.ID == "demo-event-6" {
			require.NotNil(t, ev.Recurrence)
			assert.Equal(t, model.FrequencyDaily, ev.Recurrence.Frequency)
			assert.Equal(t, 30, ev.Recurrence.Count)
		}
	}
}

func TestSubscribeRejectsInternalHosts(t *testing.T) {
	ctx := context.Background()
	svc := New(Options{Demo: demoStore(t), Fetcher: ics.NewFetcher(t.TempDir()), Location: time.UTC, Now: fixedAt})

	for _, u := range []string{"file:///etc/passwd", "http://localhost/feed.ics", "http://127.0.0.1:8080/feed.ics", "http://169.254.169.254/"} {
		_, err := svc.Calendar.Subscribe(ctx, Scope{}, u, ics.ImportOptions{})
		assert.ErrorIs(t, err, model.ErrValidation, u)
	}
}

func TestApprovals(t *testing.T) {
	ctx := context.Background()
	svc := newDemo(t)

	pending := svc.Team.PendingApprovals(ctx, Scope{})
	require.Len(t, pending.Data, 1)
	assert.Equal(t, "demo-event-2", pending.Data[0].ID)

	_, err := svc.Team.RequestChanges(ctx, Scope{}, "demo-event-2", "  ")
	assert.ErrorIs(t, err, model.ErrValidation)

	ev, err := svc.Team.RequestChanges(ctx, Scope{}, "demo-event-2", "Shorten the caption")
	require.NoError(t, err)
	assert.Equal(t, model.StatusDraft, ev.Status)
	assert.Equal(t, "Shorten the caption", ev.ReviewComment)

	_, err = svc.Team.Approve(ctx, Scope{}, "demo-event-2", "")
	assert.ErrorIs(t, err, model.ErrConflict)

	notes := svc.Feed.Notifications(ctx, Scope{}).Data
	require.NotEmpty(t, notes)
	assert.Equal(t, "Changes requested", notes[0].Title)

	acts := svc.Feed.Activities(ctx, Scope{}, 1).Data
	require.Len(t, acts, 1)
	assert.Equal(t, "requested changes to content: Shorten the caption", acts[0].Action)
}

func TestApproveSchedules(t *testing.T) {
	ctx := context.Background()
	svc := newDemo(t)
	ev, err := svc.Team.Approve(ctx, Scope{}, "demo-event-2", "Looks great")
	require.NoError(t, err)
	assert.Equal(t, model.StatusScheduled, ev.Status)
	assert.Empty(t, svc.Team.PendingApprovals(ctx, Scope{}).Data)
}

func TestTeamMembers(t *testing.T) {
	ctx := context.Background()
	svc := newDemo(t)

	_, err := svc.Team.Invite(ctx, Scope{}, "not-an-email", "")
	assert.ErrorIs(t, err, model.ErrValidation)
	_, err = svc.Team.Invite(ctx, Scope{}, "new@company.com", model.RoleOwner)
	assert.ErrorIs(t, err, model.ErrValidation)

	m, err := svc.Team.Invite(ctx, Scope{}, "Nia Lee <nia@company.com>", "")
	require.NoError(t, err)
	assert.Equal(t, model.MemberPending, m.Status)
	assert.Equal(t, model.RoleEditor, m.Role)
	assert.Equal(t, "Nia Lee", m.FullName)

	_, err = svc.Team.Invite(ctx, Scope{}, "nia@company.com", "")
	assert.ErrorIs(t, err, model.ErrConflict)

	m, err = svc.Team.UpdateRole(ctx, Scope{}, m.ID, model.RoleViewer)
	require.NoError(t, err)
	assert.Equal(t, model.RoleViewer, m.Role)
	_, err = svc.Team.UpdateRole(ctx, Scope{}, m.ID, model.RoleOwner)
	assert.ErrorIs(t, err, model.ErrValidation)

	require.NoError(t, svc.Team.Remove(ctx, Scope{}, m.ID))
	assert.Len(t, svc.Team.Members(ctx, Scope{}).Data, 4)
}

func TestAccounts(t *testing.T) {
	ctx := context.Background()
	svc := newDemo(t)

	list := svc.Accounts.List(ctx, Scope{}, AccountFilter{})
	assert.Equal(t, StatusCounts{All: 4, Connected: 2, Expired: 1, Error: 1}, list.Data.Counts)

	expired := svc.Accounts.List(ctx, Scope{}, AccountFilter{Status: "expired"})
	require.Len(t, expired.Data.Accounts, 1)
	assert.Equal(t, model.PlatformLinkedIn, expired.Data.Accounts[0].Platform)

	search := svc.Accounts.List(ctx, Scope{}, AccountFilter{Search: "TWIT"})
	require.Len(t, search.Data.Accounts, 1)

	a, err := svc.Accounts.Connect(ctx, Scope{}, model.PlatformInstagram)
	require.NoError(t, err)
	assert.Equal(t, "new_instagram_account", a.Username)
	assert.Equal(t, model.Usage{Total: 200}, a.RateLimit)
	assert.Equal(t, model.Usage{Total: 25}, a.DailyPosts)

	b, err := svc.Accounts.Connect(ctx, Scope{}, model.PlatformLinkedIn)
	require.NoError(t, err)
	assert.Equal(t, model.Usage{Total: 100}, b.RateLimit)
	assert.Equal(t, model.Usage{Total: 50}, b.DailyPosts)

	_, err = svc.Accounts.Connect(ctx, Scope{}, "myspace")
	assert.ErrorIs(t, err, model.ErrValidation)

	re, err := svc.Accounts.Reconnect(ctx, Scope{}, expired.Data.Accounts[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.AccountConnected, re.Status)
	assert.Equal(t, oct15, re.LastSync)

	bv := model.BrandVoice{Tone: "friendly", Style: "concise"}
	withVoice, err := svc.Accounts.SetBrandVoice(ctx, Scope{}, a.ID, bv)
	require.NoError(t, err)
	assert.Equal(t, &bv, withVoice.BrandVoice)

	done, err := svc.Accounts.BulkAction(ctx, Scope{}, BulkDisconnect, []string{a.ID, "missing", b.ID})
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.Equal(t, []string{a.ID, b.ID}, done)
	assert.Equal(t, 4, svc.Accounts.List(ctx, Scope{}, AccountFilter{}).Data.Counts.All)

	_, err = svc.Accounts.BulkAction(ctx, Scope{}, "configure", nil)
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestNotificationsMarkRead(t *testing.T) {
	ctx := context.Background()
	svc := newDemo(t)

	notes := svc.Feed.Notifications(ctx, Scope{}).Data
	require.NotEmpty(t, notes)
	require.NoError(t, svc.Feed.MarkRead(ctx, notes[0].ID))
	require.NoError(t, svc.Feed.MarkAllRead(ctx, Scope{}))
	for _, n := range svc.Feed.Notifications(ctx, Scope{}).Data {
		assert.True(t, n.Read)
	}
	assert.ErrorIs(t, svc.Feed.MarkRead(ctx, "missing"), model.ErrNotFound)
}

func TestPublisherRunOnce(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2025, 10, 16, 12, 0, 0, 0, time.UTC)
	now := func() time.Time { return clock }
	ds, err := demo.NewStore(ctx, now, time.UTC)
	require.NoError(t, err)
	svc := New(Options{Demo: ds, Location: time.UTC, Now: now})

	p, err := NewPublisher(svc.Sources, svc.Feed, "*/5 * * * *", time.UTC, now)
	require.NoError(t, err)

	// Only demo-event-1 (Oct 15, scheduled, one-off) is due; event 2 is
	// pending and the weekly series starts later.
	n, err := p.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	ev, err := ds.Events().Get(ctx, "demo-event-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPublished, ev.Status)

	n, err = p.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = NewPublisher(svc.Sources, svc.Feed, "every minute", time.UTC, now)
	assert.Error(t, err)
}

func TestAdsReport(t *testing.T) {
	ctx := context.Background()
	svc := newDemo(t)

	accts := svc.Ads.Accounts(ctx, Scope{})
	assert.Equal(t, SourceDemo, accts.Source)
	require.Len(t, accts.Data, 4)
	assert.Equal(t, "Facebook Ads", accts.Data[0].Network)
	assert.Equal(t, 137.75, accts.Data[0].SpendToday)
	assert.Equal(t, 2, accts.Data[0].Campaigns)
	assert.Equal(t, 165.65, accts.Data[1].SpendToday)
	assert.Equal(t, model.AdAccountDisconnected, accts.Data[2].Status)
	assert.Zero(t, accts.Data[2].Campaigns)

	rep := svc.Ads.Performance(ctx, Scope{}, 7).Data
	assert.Equal(t, 75200, rep.Totals.Impressions)
	assert.Equal(t, 2677, rep.Totals.Clicks)
	assert.Equal(t, 138, rep.Totals.Conversions)
	assert.InDelta(t, 887.90, rep.Totals.Spend, 0.001)
	assert.InDelta(t, 7481.0, rep.Totals.Revenue, 0.001)
	assert.InDelta(t, 3.56, rep.Totals.CTR, 0.001)
	assert.InDelta(t, 8.43, rep.Totals.ROAS, 0.001)
	assert.InDelta(t, 5.16, rep.Totals.ConversionRate, 0.001)
	require.Len(t, rep.Networks, 2)
	assert.Equal(t, NetworkSpend{Network: "Facebook Ads", Spend: 402.25}, rep.Networks[0])
	assert.Equal(t, NetworkSpend{Network: "Google Ads", Spend: 485.65}, rep.Networks[1])
	require.Len(t, rep.Days, 12)
	assert.Equal(t, "Brand Awareness", rep.Days[0].Campaign)
	assert.InDelta(t, 3.4, rep.Days[0].CTR, 0.001)

	today := svc.Ads.Performance(ctx, Scope{}, 1).Data
	assert.Len(t, today.Days, 4)
	assert.InDelta(t, 303.40, today.Totals.Spend, 0.001)

	camps := svc.Ads.Campaigns(ctx, Scope{}, 7).Data
	require.Len(t, camps, 4)
	assert.Equal(t, "Lead Generation", camps[0].Name)
	assert.Equal(t, "Google Ads", camps[0].Network)
	assert.InDelta(t, 387.25, camps[0].Spend, 0.001)
	assert.Equal(t, 53, camps[0].Conversions)
	assert.InDelta(t, 7.23, camps[0].ROAS, 0.001)
	assert.Equal(t, "Retargeting", camps[3].Name)
	assert.Equal(t, model.AdCampaignPaused, camps[3].Status)
}

func TestAdsPreviewWithoutAccounts(t *testing.T) {
	ctx := context.Background()
	sc := Scope{OrganizationID: "org-1", UserID: "u1"}

	empty := newLive(t, memory.New(fixedAt))
	res := empty.Ads.Accounts(ctx, sc)
	assert.Equal(t, SourceDemo, res.Source)
	assert.Len(t, res.Data, 4)

	live := memory.New(fixedAt)
	acct, err := live.Ads().PutAccount(ctx, &model.AdAccount{OrganizationID: "org-1", Network: "Google Ads", Name: "Search", Status: model.AdAccountConnected})
	require.NoError(t, err)
	_, err = live.Ads().PutPerformance(ctx, &model.AdPerformance{OrganizationID: "org-1", AccountID: acct.ID,
		Date: time.Date(2025, 10, 14, 0, 0, 0, 0, time.UTC), Impressions: 100, Clicks: 5, Spend: 10, Revenue: 25})
	require.NoError(t, err)
	got := newLive(t, live).Ads.Performance(ctx, sc, 7)
	assert.Equal(t, SourceLive, got.Source)
	assert.Equal(t, 2.5, got.Data.Totals.ROAS)
	assert.Equal(t, 5.0, got.Data.Totals.CTR)
	assert.Empty(t, got.Data.Days[0].Campaign)
}

func TestParseAdRange(t *testing.T) {
	for in, want := range map[string]int{"": 7, "7d": 7, "30d": 30, "90d": 90, "1y": 365} {
		got, err := ParseAdRange(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseAdRange("2w")
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestAdsExportCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, newDemo(t).Ads.ExportCSV(context.Background(), Scope{}, 7, &buf))
	recs, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 13)
	assert.Equal(t, "date", recs[0][0])
	assert.Equal(t, []string{"2025-10-13", "Facebook Ads", "Brand Awareness", "10800", "367", "12", "80.00", "640.00", "3.40", "8.00"}, recs[1])
}
