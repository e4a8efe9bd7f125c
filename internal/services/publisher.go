package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	appLog "socialsync/internal/log"
	"socialsync/internal/model"
	"socialsync/internal/store"
)

// Publisher periodically marks due scheduled events as published. Posting to
// the networks is simulated. Recurring series stay scheduled.
type Publisher struct {
	src  *Sources
	feed *FeedService
	now  func() time.Time
	cron *cron.Cron
}

// NewPublisher schedules the publish job on spec, a standard five-field cron
// expression evaluated in loc.
func NewPublisher(src *Sources, feed *FeedService, spec string, loc *time.Location, now func() time.Time) (*Publisher, error) {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	p := &Publisher{
		src:  src,
		feed: feed,
		now:  now,
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger)),
		),
	}
	if _, err := p.cron.AddFunc(spec, func() {
		if _, err := p.RunOnce(context.Background()); err != nil {
			appLog.Error("publish run failed", err)
		}
	}); err != nil {
		return nil, fmt.Errorf("publisher: invalid schedule %q: %w", spec, err)
	}
	return p, nil
}

func (p *Publisher) Start() {
	p.cron.Start()
	appLog.Info("publisher started", "entries", len(p.cron.Entries()))
}

// Stop waits for a running job to finish or ctx to end.
func (p *Publisher) Stop(ctx context.Context) {
	done := p.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

// RunOnce publishes every non-recurring scheduled event that is due and
// returns how many it published.
func (p *Publisher) RunOnce(ctx context.Context) (int, error) {
	events := p.src.Store().Events()
	due, err := events.List(ctx, store.EventFilter{
		To:       p.now(),
		Statuses: []model.EventStatus{model.StatusScheduled},
	})
	if err != nil {
		return 0, fmt.Errorf("publisher: list due events: %w", err)
	}

	published := 0
	for _, ev := range due {
		if ev.Recurrence != nil {
			continue
		}
		ev.Status = model.StatusPublished
		out, err := events.Update(ctx, ev)
		if err != nil {
			publishFailuresTotal.Inc()
			appLog.Error("publish event failed", err, "id", ev.ID)
			continue
		}
		published++
		for _, pl := range out.Platforms {
			publishedTotal.WithLabelValues(string(pl)).Inc()
		}
		sc := Scope{OrganizationID: out.OrganizationID, UserID: out.AuthorID}
		p.feed.record(ctx, sc, "published "+string(out.Type), out.ID, excerpt(out.Caption))
		if out.AuthorID != "" {
			p.feed.notify(ctx, out.AuthorID, "Post published", fmt.Sprintf("%q went out on %d platform(s).", excerpt(out.Caption), len(out.Platforms)))
		}
	}
	if published > 0 {
		appLog.Info("publisher run completed", "published", published)
	}
	return published, nil
}
