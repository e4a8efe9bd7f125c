package services

import (
	"time"

	"socialsync/internal/ics"
	"socialsync/internal/media"
	"socialsync/internal/store"
)

// Options wires the services. Live is nil when no backend is configured.
type Options struct {
	Live     store.Store
	Demo     store.Store
	Media    *media.Store
	Fetcher  *ics.Fetcher
	Location *time.Location
	Now      func() time.Time
}

// Services bundles every use case the HTTP layer and CLI call.
type Services struct {
	Sources   *Sources
	Feed      *FeedService
	Calendar  *CalendarService
	Analytics *AnalyticsService
	Ads       *AdsService
	Accounts  *AccountService
	Team      *TeamService
	Media     *media.Store
}

func New(o Options) *Services {
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	src := NewSources(o.Live, o.Demo)
	feed := NewFeedService(src)
	return &Services{
		Sources:   src,
		Feed:      feed,
		Calendar:  NewCalendarService(src, feed, o.Fetcher, o.Location, o.Now),
		Analytics: NewAnalyticsService(src, o.Location, o.Now),
		Ads:       NewAdsService(src, o.Location, o.Now),
		Accounts:  NewAccountService(src, feed, o.Now),
		Team:      NewTeamService(src, feed),
		Media:     o.Media,
	}
}
