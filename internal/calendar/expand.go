package calendar

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	appLog "socialsync/internal/log"
	"socialsync/internal/model"
)

const defaultMaxOccurrencesPerEvent = 5000

// ExpandConfig controls how recurrence expansion is performed.
type ExpandConfig struct {
	// DisplayLocation is the timezone occurrences are converted into.
	// If nil, the location of RangeStart is used.
	DisplayLocation *time.Location

	// RangeStart is inclusive, RangeEnd exclusive.
	RangeStart time.Time
	RangeEnd   time.Time

	// MaxOccurrencesPerEvent caps a single series inside the range. If zero,
	// defaultMaxOccurrencesPerEvent is used.
	MaxOccurrencesPerEvent int
}

// ExpandResult wraps the expanded occurrences and the series that hit the cap.
type ExpandResult struct {
	Occurrences     []model.Occurrence `json:"occurrences"`
	TruncatedEvents []string           `json:"truncatedEvents,omitempty"`
}

// Expand turns events into concrete occurrences inside the configured range.
// Non-recurring events pass through when they fall inside the range;
// recurring events are expanded lazily, only across the visible range, so an
// unbounded series never materializes beyond what is displayed.
//
// The result is ordered by scheduled time, then by input order.
func Expand(events []model.Event, cfg ExpandConfig) (ExpandResult, error) {
	var result ExpandResult

	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return result, errors.New("expand: RangeEnd is before RangeStart")
	}
	if cfg.DisplayLocation == nil {
		cfg.DisplayLocation = cfg.RangeStart.Location()
	}
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}

	all := make([]model.Occurrence, 0, len(events))
	for _, ev := range events {
		if ev.Recurrence == nil {
			if inRange(ev.ScheduledDate, cfg) {
				all = append(all, makeOccurrence(ev, ev.ScheduledDate, 0, false, cfg.DisplayLocation))
			}
			continue
		}

		occ, hitCap, err := expandSeries(ev, cfg)
		if err != nil {
			appLog.Error("expand: invalid recurrence", err, "id", ev.ID)
			continue
		}
		all = append(all, occ...)
		if hitCap {
			result.TruncatedEvents = append(result.TruncatedEvents, ev.ID)
			appLog.Error("expand: truncated occurrences due to cap",
				errors.New("max occurrences reached"),
				"id", ev.ID,
				"cap", cfg.MaxOccurrencesPerEvent,
			)
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].ScheduledDate.Before(all[j].ScheduledDate)
	})
	result.Occurrences = all
	return result, nil
}

// RuleFor builds the rrule of a series starting at start. When both Count and
// EndDate are set, Count wins. EndDate is inclusive through the end of its
// calendar day in start's location. Monthly series anchored on a day a month
// lacks (e.g. the 31st) skip that month.
func RuleFor(start time.Time, rec model.Recurrence) (*rrule.RRule, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	opt := rrule.ROption{
		Dtstart:  start,
		Interval: rec.Interval,
	}
	switch rec.Frequency {
	case model.FrequencyDaily:
		opt.Freq = rrule.DAILY
	case model.FrequencyWeekly:
		opt.Freq = rrule.WEEKLY
	case model.FrequencyMonthly:
		opt.Freq = rrule.MONTHLY
	default:
		return nil, fmt.Errorf("%w: unknown frequency %q", model.ErrValidation, rec.Frequency)
	}
	switch {
	case rec.Count > 0:
		opt.Count = rec.Count
	case rec.EndDate != nil:
		end := rec.EndDate.In(start.Location())
		y, m, d := end.Date()
		opt.Until = time.Date(y, m, d, 23, 59, 59, 0, start.Location())
	}
	return rrule.NewRRule(opt)
}

func expandSeries(ev model.Event, cfg ExpandConfig) ([]model.Occurrence, bool, error) {
	r, err := RuleFor(ev.ScheduledDate, *ev.Recurrence)
	if err != nil {
		return nil, false, err
	}

	loc := ev.ScheduledDate.Location()
	times := r.Between(cfg.RangeStart.In(loc), cfg.RangeEnd.In(loc), true)

	out := make([]model.Occurrence, 0, len(times))
	hitCap := false
	for _, t := range times {
		if !inRange(t, cfg) {
			continue
		}
		if len(out) == cfg.MaxOccurrencesPerEvent {
			hitCap = true
			break
		}
		out = append(out, makeOccurrence(ev, t, len(out), true, cfg.DisplayLocation))
	}
	return out, hitCap, nil
}

func inRange(t time.Time, cfg ExpandConfig) bool {
	return !t.Before(cfg.RangeStart) && t.Before(cfg.RangeEnd)
}

// makeOccurrence copies ev onto a concrete start normalized into displayLoc.
func makeOccurrence(ev model.Event, start time.Time, index int, recurring bool, displayLoc *time.Location) model.Occurrence {
	inst := ev.Clone()
	inst.ScheduledDate = start.In(displayLoc)

	occ := model.Occurrence{
		Event:     inst,
		SeriesID:  ev.ID,
		Index:     index,
		Recurring: recurring,
	}
	occ.InstanceKey = ev.ID
	if recurring {
		occ.InstanceKey = ev.ID + "@" + inst.ScheduledDate.Format(time.RFC3339)
	}
	return occ
}
