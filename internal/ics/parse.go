// Package ics converts calendar events to and from iCalendar and fetches
// subscribed feeds.
package ics

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/teambition/rrule-go"

	appLog "socialsync/internal/log"
	"socialsync/internal/model"
)

// uidSuffix marks UIDs of exported events; importing them keeps the id.
const uidSuffix = "@socialsync"

const (
	propType      = ical.ComponentProperty("X-SOCIALSYNC-TYPE")
	propStatus    = ical.ComponentProperty("X-SOCIALSYNC-STATUS")
	propMediaType = ical.ComponentProperty("X-SOCIALSYNC-MEDIA-TYPE")
)

var importNamespace = uuid.MustParse("6f1c1d52-3c55-4c77-9a0e-0d1f8a3c2b10")

// ImportOptions fills what a foreign feed does not carry.
type ImportOptions struct {
	// Location is used for floating and all-day times.
	Location *time.Location
	// Platforms applies to events without platform CATEGORIES.
	Platforms []model.Platform
	// Status defaults to draft.
	Status model.EventStatus
}

// Import parses an iCalendar body into events. Ids are derived from UIDs so
// importing the same feed twice yields the same ids. Events that cannot be
// mapped (no UID, no start, no platforms) are logged and skipped.
func Import(body []byte, opt ImportOptions) ([]model.Event, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("%w: empty calendar", model.ErrValidation)
	}
	if opt.Location == nil {
		opt.Location = time.UTC
	}
	if opt.Status == "" {
		opt.Status = model.StatusDraft
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: parse calendar: %v", model.ErrValidation, err)
	}

	out := make([]model.Event, 0, len(cal.Events()))
	for _, ve := range cal.Events() {
		ev, err := parseVEvent(ve, opt)
		if err != nil {
			appLog.Error("ics vevent skipped", err)
			continue
		}
		out = append(out, ev)
	}
	appLog.Info("ics import parsed", "event_count", len(out))
	return out, nil
}

func value(ve *ical.VEvent, p ical.ComponentProperty) string {
	if prop := ve.GetProperty(p); prop != nil {
		return strings.TrimSpace(prop.Value)
	}
	return ""
}

func parseVEvent(ve *ical.VEvent, opt ImportOptions) (model.Event, error) {
	var ev model.Event

	uid := value(ve, ical.ComponentPropertyUniqueId)
	if uid == "" {
		return ev, errors.New("missing UID")
	}
	ev.ID = importID(uid)

	ev.Caption = value(ve, ical.ComponentPropertyDescription)
	if ev.Caption == "" {
		ev.Caption = value(ve, ical.ComponentPropertySummary)
	}

	start, err := startOf(ve, opt.Location)
	if err != nil {
		return ev, fmt.Errorf("%s: %w", uid, err)
	}
	ev.ScheduledDate = start

	for _, prop := range ve.GetProperties(ical.ComponentPropertyCategories) {
		for _, c := range strings.Split(prop.Value, ",") {
			if p, err := model.ParsePlatform(c); err == nil && !ev.HasPlatform(p) {
				ev.Platforms = append(ev.Platforms, p)
			}
		}
	}
	if len(ev.Platforms) == 0 {
		ev.Platforms = append([]model.Platform{}, opt.Platforms...)
	}
	if len(ev.Platforms) == 0 {
		return ev, fmt.Errorf("%s: no platforms", uid)
	}

	ev.Type = model.EventType(strings.ToLower(value(ve, propType)))
	if !ev.Type.Valid() {
		ev.Type = model.TypePost
	}
	ev.Status = model.EventStatus(strings.ToLower(value(ve, propStatus)))
	if !ev.Status.Valid() {
		ev.Status = opt.Status
	}

	if attach := value(ve, ical.ComponentPropertyAttach); attach != "" {
		kind := value(ve, propMediaType)
		if kind == "" {
			kind = "image"
		}
		ev.Media = &model.Media{Thumbnail: attach, Kind: kind}
	}

	if raw := value(ve, ical.ComponentPropertyRrule); raw != "" {
		rec, err := recurrenceOf(raw, opt.Location)
		if err != nil {
			return ev, fmt.Errorf("%s: %w", uid, err)
		}
		ev.Recurrence = rec
	}
	return ev, nil
}

// importID keeps the id of events exported by this package and derives a
// stable one for foreign UIDs.
func importID(uid string) string {
	if id, ok := strings.CutSuffix(uid, uidSuffix); ok && id != "" {
		return id
	}
	return uuid.NewSHA1(importNamespace, []byte(uid)).String()
}

// startOf reads DTSTART. All-day and floating values are read in loc.
func startOf(ve *ical.VEvent, loc *time.Location) (time.Time, error) {
	prop := ve.GetProperty(ical.ComponentPropertyDtStart)
	if prop == nil || strings.TrimSpace(prop.Value) == "" {
		return time.Time{}, errors.New("missing DTSTART")
	}
	v := strings.TrimSpace(prop.Value)
	_, hasTZ := prop.ICalParameters["TZID"]
	switch {
	case !strings.Contains(v, "T"):
		return time.ParseInLocation("20060102", v, loc)
	case strings.HasSuffix(v, "Z"):
		t, err := time.Parse("20060102T150405Z", v)
		return t.In(loc), err
	case !hasTZ:
		return time.ParseInLocation("20060102T150405", v, loc)
	}
	t, err := ve.GetStartAt()
	if err != nil {
		return time.Time{}, err
	}
	return t.In(loc), nil
}

// recurrenceOf maps an RRULE onto the supported patterns. YEARLY becomes a
// twelve-month interval; finer frequencies are rejected.
func recurrenceOf(raw string, loc *time.Location) (*model.Recurrence, error) {
	o, err := rrule.StrToROptionInLocation(raw, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid RRULE %q: %w", raw, err)
	}
	rec := &model.Recurrence{Interval: max(o.Interval, 1), Count: o.Count}
	switch o.Freq {
	case rrule.DAILY:
		rec.Frequency = model.FrequencyDaily
	case rrule.WEEKLY:
		rec.Frequency = model.FrequencyWeekly
	case rrule.MONTHLY:
		rec.Frequency = model.FrequencyMonthly
	case rrule.YEARLY:
		rec.Frequency = model.FrequencyMonthly
		rec.Interval *= 12
	default:
		return nil, fmt.Errorf("unsupported RRULE frequency in %q", raw)
	}
	if !o.Until.IsZero() && rec.Count == 0 {
		y, m, d := o.Until.In(loc).Date()
		end := time.Date(y, m, d, 0, 0, 0, 0, loc)
		rec.EndDate = &end
	}
	return rec, nil
}
