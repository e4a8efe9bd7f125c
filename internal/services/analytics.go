package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"socialsync/internal/bulk"
	"socialsync/internal/model"
	"socialsync/internal/store"
)

// DefaultAnalyticsDays is the summary window when none is given.
const DefaultAnalyticsDays = 30

// AnalyticsService computes dashboard metrics.
type AnalyticsService struct {
	src *Sources
	loc *time.Location
	now func() time.Time
}

func NewAnalyticsService(src *Sources, loc *time.Location, now func() time.Time) *AnalyticsService {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &AnalyticsService{src: src, loc: loc, now: now}
}

// Overview is the headline metrics row of the dashboard.
type Overview struct {
	TotalFollowers    int     `json:"totalFollowers"`
	AverageEngagement float64 `json:"averageEngagement"`
	TotalReach        int     `json:"totalReach"`
	PostsThisMonth    int     `json:"postsThisMonth"`
}

// Metric is one formatted dashboard card.
type Metric struct {
	Title       string `json:"title"`
	Value       string `json:"value"`
	Description string `json:"description"`
}

// Metrics renders the overview as dashboard cards.
func (o Overview) Metrics() []Metric {
	return []Metric{
		{Title: "Total Followers", Value: FormatNumber(o.TotalFollowers), Description: "Across all platforms"},
		{Title: "Engagement Rate", Value: strconv.FormatFloat(o.AverageEngagement, 'f', -1, 64) + "%", Description: "Average engagement"},
		{Title: "Total Reach", Value: FormatNumber(o.TotalReach), Description: "This month"},
		{Title: "Posts Published", Value: strconv.Itoa(o.PostsThisMonth), Description: "This month"},
	}
}

// FormatNumber abbreviates n with one decimal: 1.5K, 2.4M.
func FormatNumber(n int) string {
	switch {
	case n == 0:
		return "0"
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return strconv.Itoa(n)
	}
}

// Overview sums the followers of connected accounts, takes reach and
// engagement from the most recent day of summaries and counts the posts
// created in the last 30 days.
func (a *AnalyticsService) Overview(ctx context.Context, sc Scope) Result[Overview] {
	return read(ctx, a.src, "analytics.overview", sc, func(s store.Store, sc Scope) (Overview, error) {
		var o Overview
		accounts, err := s.Accounts().List(ctx, sc.OrganizationID)
		if err != nil {
			return o, err
		}
		for _, acct := range accounts {
			if acct.Status == model.AccountConnected {
				o.TotalFollowers += acct.FollowerCount
			}
		}

		rows, err := s.Analytics().List(ctx, sc.OrganizationID, time.Time{})
		if err != nil {
			return o, err
		}
		if n := len(rows); n > 0 {
			latest := rows[n-1].Date
			var rate float64
			var days int
			for i := n - 1; i >= 0 && rows[i].Date.Equal(latest); i-- {
				o.TotalReach += rows[i].Reach
				rate += rows[i].EngagementRate
				days++
			}
			o.AverageEngagement = math.Round(rate/float64(days)*10) / 10
		}

		events, err := s.Events().List(ctx, store.EventFilter{OrganizationID: sc.OrganizationID})
		if err != nil {
			return o, err
		}
		cutoff := a.now().Add(-30 * 24 * time.Hour)
		for _, ev := range events {
			if !ev.CreatedAt.Before(cutoff) {
				o.PostsThisMonth++
			}
		}
		return o, nil
	})
}

func (a *AnalyticsService) since(days int) time.Time {
	if days <= 0 {
		days = DefaultAnalyticsDays
	}
	y, m, d := a.now().In(a.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, a.loc).AddDate(0, 0, -days+1)
}

// Summaries returns the daily rows of the last days days, oldest first.
func (a *AnalyticsService) Summaries(ctx context.Context, sc Scope, days int) Result[[]*model.AnalyticsSummary] {
	since := a.since(days)
	return read(ctx, a.src, "analytics.summaries", sc, func(s store.Store, sc Scope) ([]*model.AnalyticsSummary, error) {
		return s.Analytics().List(ctx, sc.OrganizationID, since)
	})
}

// PlatformTotal aggregates a platform's summaries over a window.
type PlatformTotal struct {
	Platform       model.Platform `json:"platform"`
	Reach          int            `json:"reach"`
	Impressions    int            `json:"impressions"`
	Engagements    int            `json:"engagements"`
	EngagementRate float64        `json:"engagementRate"`
}

// Comparison totals the last days days per platform in display order.
// Platforms without rows are omitted.
func (a *AnalyticsService) Comparison(ctx context.Context, sc Scope, days int) Result[[]PlatformTotal] {
	res := a.Summaries(ctx, sc, days)
	byPlatform := map[model.Platform]*PlatformTotal{}
	for _, r := range res.Data {
		t := byPlatform[r.Platform]
		if t == nil {
			t = &PlatformTotal{Platform: r.Platform}
			byPlatform[r.Platform] = t
		}
		t.Reach += r.Reach
		t.Impressions += r.Impressions
		t.Engagements += r.Engagements
	}
	out := make([]PlatformTotal, 0, len(byPlatform))
	for _, p := range model.AllPlatforms() {
		t, ok := byPlatform[p]
		if !ok {
			continue
		}
		if t.Reach > 0 {
			t.EngagementRate = math.Round(float64(t.Engagements)/float64(t.Reach)*1000) / 10
		}
		out = append(out, *t)
	}
	return Result[[]PlatformTotal]{Data: out, Source: res.Source, Error: res.Error}
}

// BestTime lists the recommended posting times of a platform.
type BestTime struct {
	Platform model.Platform `json:"platform"`
	Times    []string       `json:"times"`
}

// BestTimes returns the recommendations for platforms, or for every platform
// when none are given.
func BestTimes(platforms ...model.Platform) []BestTime {
	if len(platforms) == 0 {
		platforms = model.AllPlatforms()
	}
	out := make([]BestTime, 0, len(platforms))
	for _, p := range platforms {
		out = append(out, BestTime{Platform: p, Times: bulk.BestTimes(p)})
	}
	return out
}

var csvHeader = []string{"date", "platform", "reach", "impressions", "engagements", "engagement_rate", "followers"}

// ExportCSV writes the summaries of the last days days as CSV.
func (a *AnalyticsService) ExportCSV(ctx context.Context, sc Scope, days int, w io.Writer) error {
	res := a.Summaries(ctx, sc, days)
	if res.Source == SourceError {
		return fmt.Errorf("export analytics: %s", res.Error)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range res.Data {
		rec := []string{
			r.Date.In(a.loc).Format("2006-01-02"),
			string(r.Platform),
			strconv.Itoa(r.Reach),
			strconv.Itoa(r.Impressions),
			strconv.Itoa(r.Engagements),
			strconv.FormatFloat(r.EngagementRate, 'f', 1, 64),
			strconv.Itoa(r.Followers),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
