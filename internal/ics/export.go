package ics

import (
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"socialsync/internal/calendar"
	appLog "socialsync/internal/log"
	"socialsync/internal/model"
)

const productID = "-//SocialSync//Content Calendar//EN"

// Export writes events as a VCALENDAR named name. Recurring events carry
// their RRULE; platforms are written as CATEGORIES.
func Export(w io.Writer, name string, events []model.Event) error {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	if name != "" {
		cal.SetXWRCalName(name)
	}

	for _, ev := range events {
		if ev.ID == "" {
			continue
		}
		ve := cal.AddEvent(ev.ID + uidSuffix)
		stamp := ev.UpdatedAt
		if stamp.IsZero() {
			stamp = time.Now()
		}
		ve.SetDtStampTime(stamp)
		if !ev.CreatedAt.IsZero() {
			ve.SetCreatedTime(ev.CreatedAt)
		}
		ve.SetStartAt(ev.ScheduledDate)
		ve.SetSummary(summaryOf(ev.Caption))
		ve.SetDescription(ev.Caption)
		for _, p := range ev.Platforms {
			ve.AddCategory(string(p))
		}
		ve.SetProperty(propType, string(ev.Type))
		ve.SetProperty(propStatus, string(ev.Status))
		if ev.Status == model.StatusDraft {
			ve.SetStatus(ical.ObjectStatusTentative)
		} else {
			ve.SetStatus(ical.ObjectStatusConfirmed)
		}
		if ev.Media != nil && ev.Media.Thumbnail != "" {
			ve.SetProperty(ical.ComponentPropertyAttach, ev.Media.Thumbnail)
			ve.SetProperty(propMediaType, ev.Media.Kind)
		}
		if ev.Recurrence != nil {
			r, err := calendar.RuleFor(ev.ScheduledDate, *ev.Recurrence)
			if err != nil {
				appLog.Error("ics export: recurrence dropped", err, "id", ev.ID)
				continue
			}
			ve.AddRrule(r.OrigOptions.RRuleString())
		}
	}

	if err := cal.SerializeTo(w); err != nil {
		return fmt.Errorf("ics export: %w", err)
	}
	return nil
}

// summaryOf is the first line of a caption.
func summaryOf(caption string) string {
	line, _, _ := strings.Cut(caption, "\n")
	return strings.TrimSpace(line)
}
