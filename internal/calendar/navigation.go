package calendar

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"socialsync/internal/model"
)

// Direction is a navigation step.
type Direction string

const (
	Prev Direction = "prev"
	Next Direction = "next"
)

func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case Prev, Next:
		return d, nil
	default:
		return "", fmt.Errorf("%w: unknown direction %q", model.ErrValidation, s)
	}
}

// View is the navigation state: an anchor date and a view mode.
//
// Month navigation remembers the day-of-month it started from and clamps it
// into the target month, so Jan 31 -> Feb 28 -> Mar 31 and next followed by
// prev always returns to the original anchor.
type View struct {
	Anchor time.Time `json:"anchor"`
	Mode   Mode      `json:"mode"`

	day int
}

// NewView starts at today's date in month mode.
func NewView(now time.Time) View {
	return View{Anchor: StartOfDay(now), Mode: ModeMonth, day: now.Day()}
}

// ViewAt builds a view for an explicit anchor and mode.
func ViewAt(anchor time.Time, mode Mode) View {
	return View{Anchor: StartOfDay(anchor), Mode: mode, day: anchor.Day()}
}

// Navigate moves one step: a month in month mode, seven days in week mode and
// one day in day mode.
func (v View) Navigate(dir Direction) View {
	step := 1
	if dir == Prev {
		step = -1
	}
	y, m, d := v.Anchor.Date()
	loc := v.Anchor.Location()

	switch v.Mode {
	case ModeMonth:
		want := v.day
		if want == 0 {
			want = d
		}
		first := time.Date(y, m+time.Month(step), 1, 0, 0, 0, 0, loc)
		day := min(want, daysIn(first))
		v.Anchor = time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, loc)
		v.day = want
	case ModeWeek:
		v.Anchor = time.Date(y, m, d+7*step, 0, 0, 0, 0, loc)
		v.day = v.Anchor.Day()
	default:
		v.Anchor = time.Date(y, m, d+step, 0, 0, 0, 0, loc)
		v.day = v.Anchor.Day()
	}
	return v
}

// Day is the remembered day-of-month month navigation clamps from.
func (v View) Day() int {
	if v.day == 0 {
		return v.Anchor.Day()
	}
	return v.day
}

// WithDay restores a remembered day-of-month, as carried in a URL. It is
// ignored unless day clamps to the anchor's day in month mode.
func (v View) WithDay(day int) View {
	if v.Mode != ModeMonth || day < 1 || day > 31 {
		return v
	}
	if min(day, daysIn(v.Anchor)) != v.Anchor.Day() {
		return v
	}
	v.day = day
	return v
}

func (v View) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Anchor time.Time `json:"anchor"`
		Mode   Mode      `json:"mode"`
		Day    int       `json:"day"`
	}{v.Anchor, v.Mode, v.Day()})
}

// Today resets the anchor to now's date, keeping the mode.
func (v View) Today(now time.Time) View {
	v.Anchor = StartOfDay(now)
	v.day = now.Day()
	return v
}

// SetMode switches the mode and keeps the anchor.
func (v View) SetMode(mode Mode) View {
	v.Mode = mode
	v.day = v.Anchor.Day()
	return v
}

// Dates is the visible date list of the view.
func (v View) Dates() []time.Time { return Dates(v.Anchor, v.Mode) }

// Title is the header label of the view.
func (v View) Title() string { return Title(v.Anchor, v.Mode) }

func daysIn(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}
