package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"socialsync/internal/bulk"
	"socialsync/internal/calendar"
	"socialsync/internal/editor"
	"socialsync/internal/ics"
	appLog "socialsync/internal/log"
	"socialsync/internal/model"
	"socialsync/internal/store"
)

// CalendarService reads and edits the content calendar.
type CalendarService struct {
	src     *Sources
	feed    *FeedService
	fetcher *ics.Fetcher
	loc     *time.Location
	now     func() time.Time
}

// NewCalendarService builds the calendar service. Calendar dates are read
// in loc. fetcher may be nil, which disables ICS subscriptions.
func NewCalendarService(src *Sources, feed *FeedService, fetcher *ics.Fetcher, loc *time.Location, now func() time.Time) *CalendarService {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &CalendarService{src: src, feed: feed, fetcher: fetcher, loc: loc, now: now}
}

// Location is the calendar's timezone.
func (c *CalendarService) Location() *time.Location { return c.loc }

// Now is the current time in the calendar's timezone.
func (c *CalendarService) Now() time.Time { return c.now().In(c.loc) }

// Events lists stored events scheduled in [from, to) plus recurring series
// that may recur into it. Zero bounds are open.
func (c *CalendarService) Events(ctx context.Context, sc Scope, from, to time.Time, f calendar.Filter) Result[[]model.Event] {
	return read(ctx, c.src, "events.list", sc, func(s store.Store, sc Scope) ([]model.Event, error) {
		return c.list(ctx, s, sc, from, to, f)
	})
}

func (c *CalendarService) list(ctx context.Context, s store.Store, sc Scope, from, to time.Time, f calendar.Filter) ([]model.Event, error) {
	rows, err := s.Events().List(ctx, store.EventFilter{
		OrganizationID: sc.OrganizationID,
		From:           from,
		To:             to,
		Statuses:       f.Statuses,
	})
	if err != nil {
		return nil, err
	}
	out := make([]model.Event, 0, len(rows))
	for _, e := range rows {
		out = append(out, *e)
	}
	return f.Apply(out), nil
}

// Occurrences expands the events of [from, to) into concrete instances.
func (c *CalendarService) Occurrences(ctx context.Context, sc Scope, from, to time.Time, f calendar.Filter) Result[calendar.ExpandResult] {
	return read(ctx, c.src, "events.occurrences", sc, func(s store.Store, sc Scope) (calendar.ExpandResult, error) {
		events, err := c.list(ctx, s, sc, time.Time{}, to, f)
		if err != nil {
			return calendar.ExpandResult{}, err
		}
		return calendar.Expand(events, calendar.ExpandConfig{DisplayLocation: c.loc, RangeStart: from, RangeEnd: to})
	})
}

// BoardData is a rendered calendar view.
type BoardData struct {
	View      calendar.View                     `json:"view"`
	Board     calendar.Board[model.Occurrence] `json:"board"`
	Truncated []string                         `json:"truncated,omitempty"`
}

// Board builds the grid of view with the matching events placed on it.
func (c *CalendarService) Board(ctx context.Context, sc Scope, view calendar.View, f calendar.Filter) Result[BoardData] {
	_, end := calendar.Range(view.Dates())
	return read(ctx, c.src, "events.board", sc, func(s store.Store, sc Scope) (BoardData, error) {
		events, err := c.list(ctx, s, sc, time.Time{}, end, f)
		if err != nil {
			return BoardData{}, err
		}
		sess := calendar.NewSession(events, c.now)
		sess.Show(view)
		b, truncated, err := sess.Board(calendar.Filter{})
		if err != nil {
			return BoardData{}, err
		}
		return BoardData{View: view, Board: b, Truncated: truncated}, nil
	})
}

// Get returns one event of the organization.
func (c *CalendarService) Get(ctx context.Context, sc Scope, id string) (*model.Event, error) {
	sc = c.src.Scope(sc)
	if err := sc.validate(); err != nil {
		return nil, err
	}
	return c.owned(ctx, sc, seriesID(id))
}

func (c *CalendarService) owned(ctx context.Context, sc Scope, id string) (*model.Event, error) {
	ev, err := c.src.Store().Events().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if ev.OrganizationID != sc.OrganizationID {
		return nil, fmt.Errorf("event %s: %w", id, model.ErrNotFound)
	}
	return ev, nil
}

// seriesID strips the instance suffix of an occurrence key.
func seriesID(id string) string {
	base, _, _ := strings.Cut(id, "@")
	return base
}

// Validate checks a draft without saving it.
func (c *CalendarService) Validate(d editor.Draft) editor.FieldErrors {
	return d.Validate(c.loc)
}

// Save creates the event when the draft has no id and updates it otherwise.
// The draft goes through the editor's validation rules.
func (c *CalendarService) Save(ctx context.Context, sc Scope, d editor.Draft) (*model.Event, error) {
	sc = c.src.Scope(sc)
	if err := sc.validate(); err != nil {
		return nil, err
	}
	events := c.src.Store().Events()

	if d.ID == "" {
		tmpl := editor.NewEvent(c.Now())
		if d.Type == "" {
			d.Type = tmpl.Type
		}
		if d.Status == "" {
			d.Status = tmpl.Status
		}
		ev, err := c.edit(tmpl, d)
		if err != nil {
			return nil, err
		}
		ev.OrganizationID = sc.OrganizationID
		ev.AuthorID = sc.UserID
		out, err := events.Create(ctx, &ev)
		if err != nil {
			return nil, err
		}
		c.feed.record(ctx, sc, "created "+string(out.Type), out.ID, excerpt(out.Caption))
		return out, nil
	}

	d.ID = seriesID(d.ID)
	orig, err := c.owned(ctx, sc, d.ID)
	if err != nil {
		return nil, err
	}
	if d.Type == "" {
		d.Type = orig.Type
	}
	if d.Status == "" {
		d.Status = orig.Status
	}
	ev, err := c.edit(*orig, d)
	if err != nil {
		return nil, err
	}
	out, err := events.Update(ctx, &ev)
	if err != nil {
		return nil, err
	}
	c.feed.record(ctx, sc, "updated "+string(out.Type), out.ID, excerpt(out.Caption))
	return out, nil
}

// edit runs d through an editor session opened on orig and returns the
// merged event.
func (c *CalendarService) edit(orig model.Event, d editor.Draft) (model.Event, error) {
	ed := editor.NewSession(c.loc)
	if err := ed.Open(orig); err != nil {
		return model.Event{}, err
	}
	if err := ed.Edit(func(dr *editor.Draft) { *dr = d }); err != nil {
		return model.Event{}, err
	}
	ev, err := ed.Save()
	if err != nil {
		_ = ed.Cancel()
		return model.Event{}, err
	}
	return ev, ed.Close()
}

// Delete removes an event. An occurrence key deletes the whole series.
func (c *CalendarService) Delete(ctx context.Context, sc Scope, id string) error {
	sc = c.src.Scope(sc)
	if err := sc.validate(); err != nil {
		return err
	}
	ev, err := c.owned(ctx, sc, seriesID(id))
	if err != nil {
		return err
	}
	ed := editor.NewSession(c.loc)
	if err := ed.Open(*ev); err != nil {
		return err
	}
	id, err = ed.Delete()
	if err != nil {
		return err
	}
	if err := c.src.Store().Events().Delete(ctx, id); err != nil {
		return err
	}
	c.feed.record(ctx, sc, "deleted "+string(ev.Type), ev.ID, excerpt(ev.Caption))
	return nil
}

// Drop moves an event onto target, keeping the time of day unless target is
// an hour slot. Dropping an occurrence moves its series start.
func (c *CalendarService) Drop(ctx context.Context, sc Scope, id string, target calendar.Cell) (*model.Event, error) {
	sc = c.src.Scope(sc)
	if err := sc.validate(); err != nil {
		return nil, err
	}
	ev, err := c.owned(ctx, sc, seriesID(id))
	if err != nil {
		return nil, err
	}
	target.Date = target.Date.In(c.loc)
	sess := calendar.NewSession([]model.Event{*ev}, c.now)
	moved, err := sess.Drop(ev.ID, target)
	if err != nil {
		return nil, err
	}
	out, err := c.src.Store().Events().Update(ctx, &moved)
	if err != nil {
		return nil, err
	}
	c.feed.record(ctx, sc, "rescheduled "+string(out.Type), out.ID, out.ScheduledDate.Format("Jan 2, 2006 15:04"))
	return out, nil
}

// BulkResult is the outcome of a bulk run. Created is empty on a dry run.
type BulkResult struct {
	Plan    bulk.Plan      `json:"plan"`
	Created []*model.Event `json:"created"`
}

// Bulk plans req and, unless dryRun, stores every assignment as a scheduled
// event.
func (c *CalendarService) Bulk(ctx context.Context, sc Scope, req bulk.Request, dryRun bool) (*BulkResult, error) {
	sc = c.src.Scope(sc)
	if err := sc.validate(); err != nil {
		return nil, err
	}
	plan, err := bulk.Schedule(req, c.loc)
	if err != nil {
		return nil, err
	}
	res := &BulkResult{Plan: plan, Created: []*model.Event{}}
	if dryRun {
		return res, nil
	}
	for _, ev := range plan.Events(sc.OrganizationID, sc.UserID) {
		out, err := c.src.Store().Events().Create(ctx, &ev)
		if err != nil {
			return res, fmt.Errorf("bulk: store event: %w", err)
		}
		res.Created = append(res.Created, out)
	}
	bulkAssignmentsTotal.Add(float64(len(res.Created)))
	appLog.Info("bulk schedule stored", "organization_id", sc.OrganizationID, "created", len(res.Created), "unassigned", len(plan.Unassigned))
	c.feed.record(ctx, sc, "bulk scheduled", fmt.Sprintf("%d posts", len(res.Created)), "")
	return res, nil
}

// ExportICS writes the organization's events as an iCalendar feed.
func (c *CalendarService) ExportICS(ctx context.Context, sc Scope, w io.Writer) error {
	res := c.Events(ctx, sc, time.Time{}, time.Time{}, calendar.Filter{})
	if res.Source == SourceError {
		return fmt.Errorf("export ics: %s", res.Error)
	}
	return ics.Export(w, "SocialSync", res.Data)
}

// ImportICS stores the events of an iCalendar body.
func (c *CalendarService) ImportICS(ctx context.Context, sc Scope, body []byte, opt ics.ImportOptions) ([]*model.Event, error) {
	sc = c.src.Scope(sc)
	if err := sc.validate(); err != nil {
		return nil, err
	}
	if opt.Location == nil {
		opt.Location = c.loc
	}
	parsed, err := ics.Import(body, opt)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Event, 0, len(parsed))
	for _, ev := range parsed {
		ev.OrganizationID = sc.OrganizationID
		ev.AuthorID = sc.UserID
		stored, err := c.upsert(ctx, sc, ev)
		if err != nil {
			return out, fmt.Errorf("import ics: %w", err)
		}
		out = append(out, stored)
	}
	c.feed.record(ctx, sc, "imported calendar", fmt.Sprintf("%d events", len(out)), "")
	return out, nil
}

// upsert creates ev or, when its id already exists in the organization,
// replaces it. Re-importing a feed therefore updates instead of duplicating.
func (c *CalendarService) upsert(ctx context.Context, sc Scope, ev model.Event) (*model.Event, error) {
	events := c.src.Store().Events()
	created, err := events.Create(ctx, &ev)
	if !errors.Is(err, model.ErrConflict) {
		return created, err
	}
	existing, err := c.owned(ctx, sc, ev.ID)
	if err != nil {
		return nil, err
	}
	ev.AuthorID = existing.AuthorID
	ev.ReviewComment = existing.ReviewComment
	return events.Update(ctx, &ev)
}

// Subscribe fetches a remote iCalendar feed and imports it.
func (c *CalendarService) Subscribe(ctx context.Context, sc Scope, url string, opt ics.ImportOptions) ([]*model.Event, error) {
	if c.fetcher == nil {
		return nil, fmt.Errorf("%w: calendar subscriptions are disabled", model.ErrValidation)
	}
	if err := c.fetcher.CheckURL(ctx, url); err != nil {
		return nil, err
	}
	fr, err := c.fetcher.FetchOne(ctx, ics.Source{ID: sc.OrganizationID, URL: url})
	if err != nil {
		return nil, err
	}
	return c.ImportICS(ctx, sc, fr.Body, opt)
}

func excerpt(s string) string {
	const limit = 60
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}
