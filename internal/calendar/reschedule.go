package calendar

import (
	"fmt"
	"time"

	"socialsync/internal/model"
)

// MoveTo computes the instant a drop onto target produces for at.
//
// Date-only targets (month view) take the target's calendar date and keep
// the time-of-day. Hour slots (week and day timelines) also take the slot's
// hour, keeping minutes and seconds. The result is in the target's location.
func MoveTo(at time.Time, target Cell) time.Time {
	loc := target.Date.Location()
	local := at.In(loc)
	y, m, d := target.Date.Date()
	hour := local.Hour()
	if target.IsSlot() {
		hour = target.Hour
	}
	return time.Date(y, m, d, hour, local.Minute(), local.Second(), local.Nanosecond(), loc)
}

// Reschedule returns a copy of ev moved to target. Only ScheduledDate
// changes.
func Reschedule(ev model.Event, target Cell) model.Event {
	out := ev.Clone()
	out.ScheduledDate = MoveTo(ev.ScheduledDate, target)
	return out
}

// ApplyDrop returns a new list in which the event with the given id has been
// moved to target. The input list is not modified.
func ApplyDrop(events []model.Event, id string, target Cell) ([]model.Event, model.Event, error) {
	if id == "" {
		return nil, model.Event{}, fmt.Errorf("%w: drop requires a persisted event", model.ErrValidation)
	}
	if target.Hour > 23 {
		return nil, model.Event{}, fmt.Errorf("%w: hour %d out of range", model.ErrValidation, target.Hour)
	}
	out := make([]model.Event, len(events))
	copy(out, events)
	for i, ev := range out {
		if ev.ID == id {
			moved := Reschedule(ev, target)
			out[i] = moved
			return out, moved, nil
		}
	}
	return nil, model.Event{}, fmt.Errorf("event %s: %w", id, model.ErrNotFound)
}
