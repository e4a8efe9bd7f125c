package bulk

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"socialsync/internal/model"
)

// Mode selects where time slots come from.
type Mode string

const (
	// ModeAuto uses the best posting times of the selected platforms.
	ModeAuto Mode = "auto"
	// ModeCustom uses the caller's enabled time slots.
	ModeCustom Mode = "custom"
	// ModeCSV schedules rows from an uploaded CSV; rows without a date and
	// time fall back to the custom slots.
	ModeCSV Mode = "csv"
)

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ModeAuto, nil
	case "custom":
		return ModeCustom, nil
	case "csv", "bulk":
		return ModeCSV, nil
	default:
		return "", fmt.Errorf("%w: unknown bulk mode %q", model.ErrValidation, s)
	}
}

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// TimeSlot is a time of day ("HH:MM") that can be toggled.
type TimeSlot struct {
	Time    string `json:"time"`
	Enabled bool   `json:"enabled"`
}

// DefaultSlots are the slots offered for custom scheduling.
func DefaultSlots() []TimeSlot {
	return []TimeSlot{
		{Time: "09:00", Enabled: true},
		{Time: "13:00", Enabled: true},
		{Time: "17:00", Enabled: true},
		{Time: "20:00", Enabled: false},
	}
}

var bestTimes = map[model.Platform][]string{
	model.PlatformInstagram: {"11:00", "14:00", "17:00"},
	model.PlatformFacebook:  {"13:00", "15:00", "19:00"},
	model.PlatformLinkedIn:  {"09:00", "12:00", "17:00"},
	model.PlatformTwitter:   {"08:00", "12:00", "15:00"},
}

// BestTimes returns the recommended posting times of p.
func BestTimes(p model.Platform) []string {
	return append([]string(nil), bestTimes[p]...)
}

// Item is one entry of the content queue.
type Item struct {
	ID        string           `json:"id,omitempty"`
	Caption   string           `json:"caption"`
	Media     *model.Media     `json:"media,omitempty"`
	Platforms []model.Platform `json:"platforms,omitempty"`
	Priority  string           `json:"priority,omitempty"`
	Type      model.EventType  `json:"type,omitempty"`

	// At is a fixed schedule carried by a CSV row.
	At *time.Time `json:"at,omitempty"`
}

// Request describes a bulk scheduling run. Dates are YYYY-MM-DD and the
// range is inclusive on both ends.
type Request struct {
	Mode      Mode             `json:"mode"`
	Platforms []model.Platform `json:"platforms"`
	Slots     []TimeSlot       `json:"slots,omitempty"`
	StartDate string           `json:"startDate"`
	EndDate   string           `json:"endDate"`
	Items     []Item           `json:"items"`
}

// Assignment is an item placed at a concrete instant.
type Assignment struct {
	Item      Item             `json:"item"`
	At        time.Time        `json:"at"`
	Platforms []model.Platform `json:"platforms"`
}

func (a Assignment) When() time.Time { return a.At }

// Rejection is an item that could not be scheduled at all.
type Rejection struct {
	Item   Item   `json:"item"`
	Reason string `json:"reason"`
}

// Plan is the outcome of Schedule.
type Plan struct {
	Assignments []Assignment `json:"assignments"`
	// Unassigned holds items beyond the capacity of the range.
	Unassigned []Item      `json:"unassigned"`
	Rejected   []Rejection `json:"rejected,omitempty"`
}

// Schedule assigns queue items to (day, slot) pairs.
//
// The policy is deterministic: days are walked in order from StartDate to
// EndDate, and within a day the enabled slots in ascending time order. Each
// item, in queue order, takes the next free pair. Items carrying their own
// schedule (CSV rows) keep it and do not consume a slot. Items left over once
// every pair is used are returned in Unassigned.
func Schedule(req Request, loc *time.Location) (Plan, error) {
	if loc == nil {
		loc = time.UTC
	}
	plan := Plan{Assignments: []Assignment{}, Unassigned: []Item{}}

	start, err := time.ParseInLocation(dateLayout, req.StartDate, loc)
	if err != nil {
		return plan, fmt.Errorf("%w: invalid start date %q", model.ErrValidation, req.StartDate)
	}
	end, err := time.ParseInLocation(dateLayout, req.EndDate, loc)
	if err != nil {
		return plan, fmt.Errorf("%w: invalid end date %q", model.ErrValidation, req.EndDate)
	}
	if end.Before(start) {
		return plan, fmt.Errorf("%w: end date is before start date", model.ErrValidation)
	}

	if err := checkPlatforms(req); err != nil {
		return plan, err
	}
	slots, err := slotsFor(req)
	if err != nil {
		return plan, err
	}

	day, slot := 0, 0
	days := daysBetween(start, end) + 1
	for _, it := range req.Items {
		platforms := selectPlatforms(it.Platforms, req.Platforms)
		if len(platforms) == 0 {
			plan.Rejected = append(plan.Rejected, Rejection{Item: it, Reason: "no selected platform applies"})
			continue
		}
		if reason := contentProblem(it, platforms); reason != "" {
			plan.Rejected = append(plan.Rejected, Rejection{Item: it, Reason: reason})
			continue
		}
		if it.At != nil {
			plan.Assignments = append(plan.Assignments, Assignment{Item: it, At: it.At.In(loc), Platforms: platforms})
			continue
		}
		if len(slots) == 0 || day >= days {
			plan.Unassigned = append(plan.Unassigned, it)
			continue
		}
		y, m, d := start.Date()
		at := time.Date(y, m, d+day, slots[slot].hour, slots[slot].minute, 0, 0, loc)
		plan.Assignments = append(plan.Assignments, Assignment{Item: it, At: at, Platforms: platforms})

		slot++
		if slot == len(slots) {
			slot = 0
			day++
		}
	}
	return plan, nil
}

// Capacity is the number of (day, slot) pairs a request offers.
func Capacity(req Request, loc *time.Location) (int, error) {
	if loc == nil {
		loc = time.UTC
	}
	start, err := time.ParseInLocation(dateLayout, req.StartDate, loc)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid start date %q", model.ErrValidation, req.StartDate)
	}
	end, err := time.ParseInLocation(dateLayout, req.EndDate, loc)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid end date %q", model.ErrValidation, req.EndDate)
	}
	if end.Before(start) {
		return 0, nil
	}
	slots, err := slotsFor(req)
	if err != nil {
		return 0, err
	}
	return (daysBetween(start, end) + 1) * len(slots), nil
}

// Events turns the assignments into scheduled events ready to persist.
func (p Plan) Events(orgID, authorID string) []model.Event {
	out := make([]model.Event, 0, len(p.Assignments))
	for _, a := range p.Assignments {
		typ := a.Item.Type
		if !typ.Valid() {
			typ = model.TypePost
		}
		ev := model.Event{
			OrganizationID: orgID,
			AuthorID:       authorID,
			Caption:        a.Item.Caption,
			ScheduledDate:  a.At,
			Platforms:      append([]model.Platform{}, a.Platforms...),
			Type:           typ,
			Status:         model.StatusScheduled,
		}
		if a.Item.Media != nil {
			m := *a.Item.Media
			ev.Media = &m
		}
		out = append(out, ev)
	}
	return out
}

type clock struct {
	hour, minute int
}

func slotsFor(req Request) ([]clock, error) {
	var raw []string
	switch req.Mode {
	case ModeAuto:
		if len(req.Platforms) == 0 {
			return nil, fmt.Errorf("%w: auto scheduling needs at least one platform", model.ErrValidation)
		}
		for _, p := range req.Platforms {
			raw = append(raw, bestTimes[p]...)
		}
	case ModeCustom, ModeCSV:
		slots := req.Slots
		if slots == nil {
			slots = DefaultSlots()
		}
		for _, s := range slots {
			if s.Enabled {
				raw = append(raw, s.Time)
			}
		}
		if req.Mode == ModeCustom && len(raw) == 0 {
			return nil, fmt.Errorf("%w: enable at least one time slot", model.ErrValidation)
		}
	default:
		return nil, fmt.Errorf("%w: unknown bulk mode %q", model.ErrValidation, req.Mode)
	}

	seen := make(map[clock]bool, len(raw))
	out := make([]clock, 0, len(raw))
	for _, s := range raw {
		t, err := time.Parse(timeLayout, strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("%w: invalid time slot %q", model.ErrValidation, s)
		}
		c := clock{t.Hour(), t.Minute()}
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].hour != out[j].hour {
			return out[i].hour < out[j].hour
		}
		return out[i].minute < out[j].minute
	})
	return out, nil
}

// checkPlatforms rejects requests naming a platform outside the fixed set.
func checkPlatforms(req Request) error {
	check := func(ps []model.Platform, where string) error {
		for _, p := range ps {
			if !model.IsValidPlatform(string(p)) {
				return fmt.Errorf("%w: %s: unknown platform %q", model.ErrValidation, where, p)
			}
		}
		return nil
	}
	if err := check(req.Platforms, "selection"); err != nil {
		return err
	}
	for i, it := range req.Items {
		if err := check(it.Platforms, fmt.Sprintf("item %d", i+1)); err != nil {
			return err
		}
	}
	return nil
}

// contentProblem applies the editor's content rules to a queue item: a
// caption or media is required, and the caption must fit every platform.
func contentProblem(it Item, platforms []model.Platform) string {
	caption := strings.TrimSpace(it.Caption)
	if caption == "" && it.Media == nil {
		return "caption or media is required"
	}
	n := len([]rune(it.Caption))
	for _, p := range platforms {
		if limit := p.CaptionLimit(); n > limit {
			return fmt.Sprintf("caption is %d characters; %s allows %d", n, p, limit)
		}
	}
	return ""
}

// selectPlatforms intersects the item's platforms with the selected set. An
// item without platforms takes the whole selection; an empty selection
// leaves the item's own platforms untouched.
func selectPlatforms(item, selected []model.Platform) []model.Platform {
	if len(selected) == 0 {
		return append([]model.Platform{}, item...)
	}
	if len(item) == 0 {
		return append([]model.Platform{}, selected...)
	}
	out := make([]model.Platform, 0, len(item))
	for _, p := range item {
		for _, s := range selected {
			if p == s {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

func daysBetween(start, end time.Time) int {
	n := 0
	for d := start; d.Before(end); n++ {
		d = time.Date(d.Year(), d.Month(), d.Day()+1, 0, 0, 0, 0, d.Location())
	}
	return n
}
