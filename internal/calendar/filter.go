package calendar

import "socialsync/internal/model"

// Filter narrows the calendar by content type, platform and status. An empty
// list means no restriction on that dimension.
type Filter struct {
	Types     []model.EventType   `json:"types,omitempty"`
	Platforms []model.Platform    `json:"platforms,omitempty"`
	Statuses  []model.EventStatus `json:"statuses,omitempty"`
}

func (f Filter) IsZero() bool {
	return len(f.Types) == 0 && len(f.Platforms) == 0 && len(f.Statuses) == 0
}

// Match reports whether ev passes the filter. An event matches the platform
// dimension when any of its platforms is selected.
func (f Filter) Match(ev model.Event) bool {
	if len(f.Types) > 0 && !contains(f.Types, ev.Type) {
		return false
	}
	if len(f.Statuses) > 0 && !contains(f.Statuses, ev.Status) {
		return false
	}
	if len(f.Platforms) > 0 {
		for _, p := range ev.Platforms {
			if contains(f.Platforms, p) {
				return true
			}
		}
		return false
	}
	return true
}

// Apply returns the events that match, preserving order.
func (f Filter) Apply(events []model.Event) []model.Event {
	if f.IsZero() {
		return events
	}
	out := make([]model.Event, 0, len(events))
	for _, ev := range events {
		if f.Match(ev) {
			out = append(out, ev)
		}
	}
	return out
}

func contains[T comparable](list []T, v T) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
