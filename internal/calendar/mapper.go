package calendar

import (
	"sort"
	"time"
)

// Timed is anything with a scheduled instant: events, occurrences, bulk
// assignments.
type Timed interface {
	When() time.Time
}

// Row heights of the hour timelines in pixels.
const (
	RowHeightWeek = 48.0
	RowHeightDay  = 64.0
)

// MaxVisiblePerCell bounds the events drawn in a month cell; the rest are
// summarized as "+N".
const MaxVisiblePerCell = 3

// SameDay reports whether a falls on b's calendar day, compared in b's
// location.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.In(b.Location()).Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// EventsOn returns the items scheduled on day, ordered by time and then by
// input order. It never mutates items.
func EventsOn[T Timed](items []T, day time.Time) []T {
	out := make([]T, 0)
	for _, it := range items {
		if SameDay(it.When(), day) {
			out = append(out, it)
		}
	}
	sortByTime(out)
	return out
}

// Group buckets items by the YYYY-MM-DD key of each visible date. Every date
// gets a key, possibly with an empty slice; items outside dates are dropped.
func Group[T Timed](items []T, dates []time.Time) map[string][]T {
	out := make(map[string][]T, len(dates))
	if len(dates) == 0 {
		return out
	}
	loc := dates[0].Location()
	for _, d := range dates {
		out[DayKey(d)] = []T{}
	}
	for _, it := range items {
		k := DayKey(it.When().In(loc))
		if bucket, ok := out[k]; ok {
			out[k] = append(bucket, it)
		}
	}
	for k := range out {
		sortByTime(out[k])
	}
	return out
}

// TimelineOffset is the vertical pixel offset of t within a day timeline.
func TimelineOffset(t time.Time, rowHeight float64) float64 {
	return float64(t.Hour())*rowHeight + float64(t.Minute())*rowHeight/60
}

func sortByTime[T Timed](items []T) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].When().Before(items[j].When())
	})
}

// MonthCell is one cell of the month grid.
type MonthCell[T Timed] struct {
	Cell
	Events []T `json:"events"`
	Total  int `json:"total"`
	More   int `json:"more"`
}

// MonthCells builds the 42 month cells for anchor, with at most
// MaxVisiblePerCell events per cell.
func MonthCells[T Timed](anchor time.Time, items []T, now time.Time) []MonthCell[T] {
	dates := Dates(anchor, ModeMonth)
	groups := Group(items, dates)
	out := make([]MonthCell[T], len(dates))
	for i, d := range dates {
		all := groups[DayKey(d)]
		visible := all
		more := 0
		if len(all) > MaxVisiblePerCell {
			visible = all[:MaxVisiblePerCell]
			more = len(all) - MaxVisiblePerCell
		}
		out[i] = MonthCell[T]{
			Cell: Cell{
				Date:    d,
				Hour:    -1,
				InMonth: d.Year() == anchor.Year() && d.Month() == anchor.Month(),
				IsToday: SameDay(now, d),
			},
			Events: visible,
			Total:  len(all),
			More:   more,
		}
	}
	return out
}

// Placement positions an item on an hour timeline.
type Placement[T Timed] struct {
	Item T       `json:"item"`
	Hour int     `json:"hour"`
	Top  float64 `json:"top"`
}

// Column is one day of a week or day timeline.
type Column[T Timed] struct {
	Cell
	Placements []Placement[T] `json:"placements"`
}

// Board is the complete render model of a view.
type Board[T Timed] struct {
	Mode      Mode           `json:"mode"`
	Anchor    time.Time      `json:"anchor"`
	Title     string         `json:"title"`
	Start     time.Time      `json:"start"`
	End       time.Time      `json:"end"`
	RowHeight float64        `json:"rowHeight,omitempty"`
	Cells     []MonthCell[T] `json:"cells,omitempty"`
	Columns   []Column[T]    `json:"columns,omitempty"`
}

// BuildBoard maps items onto the view described by anchor and mode.
func BuildBoard[T Timed](anchor time.Time, mode Mode, items []T, now time.Time) Board[T] {
	dates := Dates(anchor, mode)
	start, end := Range(dates)
	b := Board[T]{
		Mode:   mode,
		Anchor: anchor,
		Title:  Title(anchor, mode),
		Start:  start,
		End:    end,
	}
	if mode == ModeMonth {
		b.Cells = MonthCells(anchor, items, now)
		return b
	}

	b.RowHeight = RowHeightWeek
	if mode == ModeDay {
		b.RowHeight = RowHeightDay
	}
	groups := Group(items, dates)
	b.Columns = make([]Column[T], len(dates))
	for i, d := range dates {
		col := Column[T]{
			Cell:       Cell{Date: d, Hour: -1, InMonth: d.Month() == anchor.Month(), IsToday: SameDay(now, d)},
			Placements: []Placement[T]{},
		}
		for _, it := range groups[DayKey(d)] {
			at := it.When().In(d.Location())
			col.Placements = append(col.Placements, Placement[T]{
				Item: it,
				Hour: at.Hour(),
				Top:  TimelineOffset(at, b.RowHeight),
			})
		}
		b.Columns[i] = col
	}
	return b
}
