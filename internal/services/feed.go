package services

import (
	"context"
	"fmt"

	appLog "socialsync/internal/log"
	"socialsync/internal/model"
	"socialsync/internal/store"
)

// DefaultActivityLimit caps the activity feed when no limit is given.
const DefaultActivityLimit = 50

// FeedService serves the team activity feed and user notifications.
type FeedService struct {
	src *Sources
}

func NewFeedService(src *Sources) *FeedService {
	return &FeedService{src: src}
}

// Activities returns the newest activities of the organization.
func (f *FeedService) Activities(ctx context.Context, sc Scope, limit int) Result[[]*model.Activity] {
	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	return read(ctx, f.src, "activities.list", sc, func(s store.Store, sc Scope) ([]*model.Activity, error) {
		return s.Activities().List(ctx, sc.OrganizationID, limit)
	})
}

// RecordActivity appends an entry to the organization's feed.
func (f *FeedService) RecordActivity(ctx context.Context, sc Scope, action, target, detail string) (*model.Activity, error) {
	sc = f.src.Scope(sc)
	if err := sc.validate(); err != nil {
		return nil, err
	}
	if action == "" {
		return nil, fmt.Errorf("%w: action is required", model.ErrValidation)
	}
	return f.src.Store().Activities().Create(ctx, &model.Activity{
		OrganizationID: sc.OrganizationID,
		UserID:         sc.UserID,
		Action:         action,
		Target:         target,
		Detail:         detail,
	})
}

// record is RecordActivity for side effects of other operations; failures
// are logged and swallowed.
func (f *FeedService) record(ctx context.Context, sc Scope, action, target, detail string) {
	if _, err := f.RecordActivity(ctx, sc, action, target, detail); err != nil {
		appLog.Error("record activity failed", err, "action", action, "target", target)
	}
}

// Notifications returns the user's notifications, newest first.
func (f *FeedService) Notifications(ctx context.Context, sc Scope) Result[[]*model.Notification] {
	return read(ctx, f.src, "notifications.list", sc, func(s store.Store, sc Scope) ([]*model.Notification, error) {
		return s.Notifications().List(ctx, sc.UserID)
	})
}

// Notify sends a notification to userID.
func (f *FeedService) Notify(ctx context.Context, userID, title, body string) (*model.Notification, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: recipient is required", model.ErrValidation)
	}
	return f.src.Store().Notifications().Create(ctx, &model.Notification{UserID: userID, Title: title, Body: body})
}

func (f *FeedService) notify(ctx context.Context, userID, title, body string) {
	if _, err := f.Notify(ctx, userID, title, body); err != nil {
		appLog.Error("notify failed", err, "user_id", userID, "title", title)
	}
}

func (f *FeedService) MarkRead(ctx context.Context, id string) error {
	return f.src.Store().Notifications().MarkRead(ctx, id)
}

func (f *FeedService) MarkAllRead(ctx context.Context, sc Scope) error {
	sc = f.src.Scope(sc)
	if sc.UserID == "" {
		return fmt.Errorf("%w: no user logged in", model.ErrUnauthenticated)
	}
	return f.src.Store().Notifications().MarkAllRead(ctx, sc.UserID)
}
