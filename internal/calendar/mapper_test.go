package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialsync/internal/model"
)

func ev(id string, at time.Time) model.Event {
	return model.Event{
		ID:            id,
		Caption:       "post " + id,
		ScheduledDate: at,
		Platforms:     []model.Platform{model.PlatformInstagram},
		Type:          model.TypePost,
		Status:        model.StatusScheduled,
	}
}

func TestEventsOnOrdersAndIsIdempotent(t *testing.T) {
	day := date(2025, 10, 15)
	events := []model.Event{
		ev("late", time.Date(2025, 10, 15, 18, 0, 0, 0, time.UTC)),
		ev("other-day", time.Date(2025, 10, 16, 9, 0, 0, 0, time.UTC)),
		ev("early", time.Date(2025, 10, 15, 8, 0, 0, 0, time.UTC)),
		ev("early-2", time.Date(2025, 10, 15, 8, 0, 0, 0, time.UTC)),
	}
	first := EventsOn(events, day)
	second := EventsOn(events, day)
	assert.Equal(t, first, second)

	ids := make([]string, 0, len(first))
	for _, e := range first {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"early", "early-2", "late"}, ids)
	assert.Equal(t, "late", events[0].ID, "input must not be reordered")
}

func TestGroupKeysEveryDate(t *testing.T) {
	dates := Dates(date(2025, 10, 15), ModeWeek)
	events := []model.Event{
		ev("a", time.Date(2025, 10, 13, 9, 0, 0, 0, time.UTC)),
		ev("outside", time.Date(2025, 11, 1, 9, 0, 0, 0, time.UTC)),
	}
	groups := Group(events, dates)
	assert.Len(t, groups, 7)
	require.Len(t, groups["2025-10-13"], 1)
	assert.Equal(t, "a", groups["2025-10-13"][0].ID)
	assert.Empty(t, groups["2025-10-14"])
}

func TestSameDayUsesTargetLocation(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	utcLate := time.Date(2025, 10, 16, 2, 0, 0, 0, time.UTC)
	assert.True(t, SameDay(utcLate, time.Date(2025, 10, 15, 0, 0, 0, 0, ny)))
	assert.False(t, SameDay(utcLate, date(2025, 10, 15)))
}

func TestTimelineOffset(t *testing.T) {
	at := time.Date(2025, 10, 15, 14, 30, 0, 0, time.UTC)
	assert.InDelta(t, 14*48+24, TimelineOffset(at, RowHeightWeek), 1e-9)
	assert.InDelta(t, 14*64+32, TimelineOffset(at, RowHeightDay), 1e-9)
}

func TestMonthCellsOverflow(t *testing.T) {
	var events []model.Event
	for h := 8; h < 13; h++ {
		events = append(events, ev(string(rune('a'+h-8)), time.Date(2025, 10, 15, h, 0, 0, 0, time.UTC)))
	}
	now := time.Date(2025, 10, 15, 12, 0, 0, 0, time.UTC)
	cells := MonthCells(date(2025, 10, 1), events, now)
	require.Len(t, cells, 42)

	var found bool
	for _, c := range cells {
		if c.Key() != "2025-10-15" {
			continue
		}
		found = true
		assert.Len(t, c.Events, MaxVisiblePerCell)
		assert.Equal(t, 5, c.Total)
		assert.Equal(t, 2, c.More)
		assert.True(t, c.IsToday)
		assert.True(t, c.InMonth)
	}
	assert.True(t, found)
	assert.False(t, cells[0].InMonth)
}

func TestBuildBoardWeekPlacements(t *testing.T) {
	events := []model.Event{ev("a", time.Date(2025, 10, 15, 14, 30, 0, 0, time.UTC))}
	b := BuildBoard(date(2025, 10, 15), ModeWeek, events, date(2025, 1, 1))
	assert.Equal(t, RowHeightWeek, b.RowHeight)
	require.Len(t, b.Columns, 7)
	col := b.Columns[3]
	assert.Equal(t, "2025-10-15", col.Key())
	require.Len(t, col.Placements, 1)
	assert.Equal(t, 14, col.Placements[0].Hour)
	assert.InDelta(t, 696.0, col.Placements[0].Top, 1e-9)
	assert.Empty(t, b.Cells)
}

func TestFilter(t *testing.T) {
	a := ev("a", date(2025, 10, 1))
	b := ev("b", date(2025, 10, 1))
	b.Platforms = []model.Platform{model.PlatformTwitter}
	b.Status = model.StatusPublished

	f := Filter{Platforms: []model.Platform{model.PlatformTwitter, model.PlatformLinkedIn}}
	assert.Equal(t, []model.Event{b}, f.Apply([]model.Event{a, b}))

	f = Filter{Statuses: []model.EventStatus{model.StatusScheduled}}
	assert.Equal(t, []model.Event{a}, f.Apply([]model.Event{a, b}))

	assert.Len(t, Filter{}.Apply([]model.Event{a, b}), 2)
}
