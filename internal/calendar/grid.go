package calendar

import (
	"fmt"
	"strings"
	"time"

	"socialsync/internal/model"
)

// Mode is the calendar view mode.
type Mode string

const (
	ModeMonth Mode = "month"
	ModeWeek  Mode = "week"
	ModeDay   Mode = "day"
)

// MonthCellCount is the fixed size of a month grid (six weeks).
const MonthCellCount = 42

const dayKeyLayout = "2006-01-02"

// ParseMode accepts month, week or day (case-insensitive).
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeMonth, ModeWeek, ModeDay:
		return m, nil
	case "":
		return ModeMonth, nil
	default:
		return "", fmt.Errorf("%w: unknown view mode %q", model.ErrValidation, s)
	}
}

// Cell is a drop/render target. Hour is -1 for date-only cells (month view)
// and 0-23 for hour slots of week/day timelines.
type Cell struct {
	Date    time.Time `json:"date"`
	Hour    int       `json:"hour"`
	InMonth bool      `json:"inMonth"`
	IsToday bool      `json:"isToday"`
}

// DateCell returns a date-only cell for t's calendar day.
func DateCell(t time.Time) Cell {
	return Cell{Date: StartOfDay(t), Hour: -1}
}

// SlotCell returns the hour slot cell of t's calendar day.
func SlotCell(t time.Time, hour int) Cell {
	return Cell{Date: StartOfDay(t), Hour: hour}
}

func (c Cell) IsSlot() bool { return c.Hour >= 0 }

// Key is the YYYY-MM-DD key of the cell's day.
func (c Cell) Key() string { return DayKey(c.Date) }

// StartOfDay returns local midnight of t's day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DayKey formats t's calendar day as YYYY-MM-DD.
func DayKey(t time.Time) string { return t.Format(dayKeyLayout) }

// Dates computes the visible dates for anchor under mode.
//
//   - month: the Sunday on or before the 1st of the anchor's month followed
//     by 42 consecutive days.
//   - week: the Sunday on or before anchor followed by 7 consecutive days.
//   - day: just the anchor's date.
//
// Day arithmetic goes through time.Date normalization, so month and year
// rollover are handled by the primitive.
func Dates(anchor time.Time, mode Mode) []time.Time {
	loc := anchor.Location()
	y, m, d := anchor.Date()

	switch mode {
	case ModeWeek:
		start := d - int(anchor.Weekday())
		out := make([]time.Time, 7)
		for i := range out {
			out[i] = time.Date(y, m, start+i, 0, 0, 0, 0, loc)
		}
		return out
	case ModeDay:
		return []time.Time{time.Date(y, m, d, 0, 0, 0, 0, loc)}
	default:
		first := time.Date(y, m, 1, 0, 0, 0, 0, loc)
		start := 1 - int(first.Weekday())
		out := make([]time.Time, MonthCellCount)
		for i := range out {
			out[i] = time.Date(y, m, start+i, 0, 0, 0, 0, loc)
		}
		return out
	}
}

// Range returns the half-open [start, end) interval covered by dates.
func Range(dates []time.Time) (time.Time, time.Time) {
	if len(dates) == 0 {
		return time.Time{}, time.Time{}
	}
	last := dates[len(dates)-1]
	y, m, d := last.Date()
	return dates[0], time.Date(y, m, d+1, 0, 0, 0, 0, last.Location())
}

// Slots returns the 24 hour slots of date for week and day timelines.
func Slots(date time.Time) []Cell {
	day := StartOfDay(date)
	out := make([]Cell, 24)
	for h := range out {
		out[h] = Cell{Date: day, Hour: h}
	}
	return out
}

// HourLabel renders an hour of the timeline gutter ("12 AM", "3 PM").
func HourLabel(hour int) string {
	switch {
	case hour == 0:
		return "12 AM"
	case hour < 12:
		return fmt.Sprintf("%d AM", hour)
	case hour == 12:
		return "12 PM"
	default:
		return fmt.Sprintf("%d PM", hour-12)
	}
}

// Title is the header label for a view: "October 2025" for month and week,
// "October 15, 2025" for day.
func Title(anchor time.Time, mode Mode) string {
	if mode == ModeDay {
		return anchor.Format("January 2, 2006")
	}
	return anchor.Format("January 2006")
}
