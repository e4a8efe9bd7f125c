package store

import (
	"context"
	"time"

	"socialsync/internal/model"
)

// Store exposes the row-store operations required by services.
// Implementations live under internal/store/<driver>/ (memory, sqlstore).
// Missing rows are reported as model.ErrNotFound, unique violations as
// model.ErrConflict.
type Store interface {
	Users() Users
	Profiles() Profiles
	Organizations() Organizations
	Members() Members
	Accounts() Accounts
	Events() Events
	Activities() Activities
	Notifications() Notifications
	Analytics() Analytics
	Ads() Ads

	Ping(ctx context.Context) error
	Close() error
}

type Users interface {
	Create(ctx context.Context, u *model.User) (*model.User, error)
	Get(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	UpdatePassword(ctx context.Context, id, hash string) error
}

type Profiles interface {
	// Put inserts or replaces a profile.
	Put(ctx context.Context, p *model.Profile) (*model.Profile, error)
	Get(ctx context.Context, id string) (*model.Profile, error)
	Update(ctx context.Context, id string, upd model.ProfileUpdate) (*model.Profile, error)
}

type Organizations interface {
	Create(ctx context.Context, o *model.Organization) (*model.Organization, error)
	Get(ctx context.Context, id string) (*model.Organization, error)
	// ForUser returns the organization of the user's active membership with
	// UserRole filled in.
	ForUser(ctx context.Context, userID string) (*model.Organization, error)
}

type Members interface {
	Add(ctx context.Context, m *model.TeamMember) (*model.TeamMember, error)
	Get(ctx context.Context, id string) (*model.TeamMember, error)
	List(ctx context.Context, orgID string) ([]*model.TeamMember, error)
	UpdateRole(ctx context.Context, id, role string) (*model.TeamMember, error)
	Remove(ctx context.Context, id string) error
}

type Accounts interface {
	Create(ctx context.Context, a *model.SocialAccount) (*model.SocialAccount, error)
	Get(ctx context.Context, id string) (*model.SocialAccount, error)
	List(ctx context.Context, orgID string) ([]*model.SocialAccount, error)
	Update(ctx context.Context, a *model.SocialAccount) (*model.SocialAccount, error)
	Delete(ctx context.Context, id string) error
}

// EventFilter narrows Events.List. Zero values mean "no restriction".
//
// From/To bound ScheduledDate as [From, To). Recurring events that start
// before From are still returned because they may recur into the range.
type EventFilter struct {
	OrganizationID string
	AuthorID       string
	From           time.Time
	To             time.Time
	Statuses       []model.EventStatus
}

type Events interface {
	Create(ctx context.Context, e *model.Event) (*model.Event, error)
	Get(ctx context.Context, id string) (*model.Event, error)
	Update(ctx context.Context, e *model.Event) (*model.Event, error)
	Delete(ctx context.Context, id string) error
	// List returns events ordered by scheduled date.
	List(ctx context.Context, f EventFilter) ([]*model.Event, error)
}

type Activities interface {
	Create(ctx context.Context, a *model.Activity) (*model.Activity, error)
	// List returns the newest activities first; limit <= 0 means all.
	List(ctx context.Context, orgID string, limit int) ([]*model.Activity, error)
}

type Notifications interface {
	Create(ctx context.Context, n *model.Notification) (*model.Notification, error)
	// List returns the user's notifications, newest first.
	List(ctx context.Context, userID string) ([]*model.Notification, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, userID string) error
}

type Analytics interface {
	// Put inserts or replaces a summary row.
	Put(ctx context.Context, s *model.AnalyticsSummary) (*model.AnalyticsSummary, error)
	// List returns rows with Date >= since, oldest first.
	List(ctx context.Context, orgID string, since time.Time) ([]*model.AnalyticsSummary, error)
}

// Ads holds advertising accounts, their campaigns and daily delivery rows.
// Put methods insert or replace.
type Ads interface {
	PutAccount(ctx context.Context, a *model.AdAccount) (*model.AdAccount, error)
	ListAccounts(ctx context.Context, orgID string) ([]*model.AdAccount, error)
	PutCampaign(ctx context.Context, c *model.AdCampaign) (*model.AdCampaign, error)
	ListCampaigns(ctx context.Context, orgID string) ([]*model.AdCampaign, error)
	PutPerformance(ctx context.Context, p *model.AdPerformance) (*model.AdPerformance, error)
	// ListPerformance returns rows with Date >= since, oldest first.
	ListPerformance(ctx context.Context, orgID string, since time.Time) ([]*model.AdPerformance, error)
}

// MatchEvent reports whether e passes f. Drivers that filter in memory use it
// so every driver applies the same rules.
func MatchEvent(e *model.Event, f EventFilter) bool {
	if f.OrganizationID != "" && e.OrganizationID != f.OrganizationID {
		return false
	}
	if f.AuthorID != "" && e.AuthorID != f.AuthorID {
		return false
	}
	if !f.From.IsZero() && e.ScheduledDate.Before(f.From) && e.Recurrence == nil {
		return false
	}
	if !f.To.IsZero() && !e.ScheduledDate.Before(f.To) {
		return false
	}
	if len(f.Statuses) > 0 {
		ok := false
		for _, s := range f.Statuses {
			if e.Status == s {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}
