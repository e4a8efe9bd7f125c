package calendar

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialsync/internal/model"
)

func TestNavigateRoundTrip(t *testing.T) {
	anchors := []time.Time{
		date(2025, 1, 31),
		date(2025, 3, 31),
		date(2024, 2, 29),
		date(2025, 10, 15),
		date(2025, 12, 31),
	}
	for _, mode := range []Mode{ModeMonth, ModeWeek, ModeDay} {
		for _, a := range anchors {
			v := ViewAt(a, mode)
			assert.Equal(t, a, v.Navigate(Next).Navigate(Prev).Anchor, "%s next/prev from %s", mode, a)
			assert.Equal(t, a, v.Navigate(Prev).Navigate(Next).Anchor, "%s prev/next from %s", mode, a)
		}
	}
}

func TestNavigateMonthClampsDay(t *testing.T) {
	v := ViewAt(date(2025, 1, 31), ModeMonth)
	v = v.Navigate(Next)
	assert.Equal(t, date(2025, 2, 28), v.Anchor)
	v = v.Navigate(Next)
	assert.Equal(t, date(2025, 3, 31), v.Anchor)
}

func TestNavigateSteps(t *testing.T) {
	assert.Equal(t, date(2026, 1, 7), ViewAt(date(2025, 12, 31), ModeWeek).Navigate(Next).Anchor)
	assert.Equal(t, date(2025, 12, 31), ViewAt(date(2026, 1, 1), ModeDay).Navigate(Prev).Anchor)
	assert.Equal(t, date(2026, 1, 31), ViewAt(date(2025, 12, 31), ModeMonth).Navigate(Next).Anchor)
}

func TestTodayAndSetMode(t *testing.T) {
	now := time.Date(2025, 10, 15, 14, 30, 0, 0, time.UTC)
	v := NewView(now)
	assert.Equal(t, ModeMonth, v.Mode)
	assert.Equal(t, date(2025, 10, 15), v.Anchor)

	v = v.Navigate(Next).Navigate(Next).SetMode(ModeWeek)
	assert.Equal(t, ModeWeek, v.Mode)
	assert.Equal(t, date(2025, 12, 15), v.Anchor)

	v = v.Today(now)
	assert.Equal(t, date(2025, 10, 15), v.Anchor)
	assert.Equal(t, ModeWeek, v.Mode)
}

func TestParseDirection(t *testing.T) {
	d, err := ParseDirection("NEXT")
	require.NoError(t, err)
	assert.Equal(t, Next, d)
	_, err = ParseDirection("up")
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestWithDayRestoresRememberedDay(t *testing.T) {
	v := ViewAt(date(2025, 1, 31), ModeMonth).Navigate(Next)
	require.Equal(t, date(2025, 2, 28), v.Anchor)
	assert.Equal(t, 31, v.Day())

	// A fresh view at Feb 28 forgets Jan 31 unless the day is restored.
	assert.Equal(t, date(2025, 1, 28), ViewAt(v.Anchor, ModeMonth).Navigate(Prev).Anchor)
	assert.Equal(t, date(2025, 1, 31), ViewAt(v.Anchor, ModeMonth).WithDay(31).Navigate(Prev).Anchor)

	// Days that do not clamp to the anchor are ignored.
	assert.Equal(t, 15, ViewAt(date(2025, 2, 15), ModeMonth).WithDay(31).Day())
	assert.Equal(t, 28, ViewAt(date(2025, 2, 28), ModeMonth).WithDay(0).Day())
	assert.Equal(t, 28, ViewAt(date(2025, 2, 28), ModeWeek).WithDay(31).Day())
}

func TestViewJSONCarriesDay(t *testing.T) {
	b, err := json.Marshal(ViewAt(date(2025, 1, 31), ModeMonth).Navigate(Next))
	require.NoError(t, err)
	assert.JSONEq(t, `{"anchor":"2025-02-28T00:00:00Z","mode":"month","day":31}`, string(b))
}
