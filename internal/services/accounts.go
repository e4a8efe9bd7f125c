package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"socialsync/internal/model"
	"socialsync/internal/store"
)

// AccountService manages the (simulated) social account connections.
type AccountService struct {
	src  *Sources
	feed *FeedService
	now  func() time.Time
}

func NewAccountService(src *Sources, feed *FeedService, now func() time.Time) *AccountService {
	if now == nil {
		now = time.Now
	}
	return &AccountService{src: src, feed: feed, now: now}
}

// StatusCounts tallies accounts by connection status.
type StatusCounts struct {
	All       int `json:"all"`
	Connected int `json:"connected"`
	Expired   int `json:"expired"`
	Error     int `json:"error"`
}

// AvailablePlatform reports whether a platform has any connected account.
type AvailablePlatform struct {
	Platform  model.Platform `json:"platform"`
	Connected bool           `json:"connected"`
}

// AccountList is the account management page. Counts cover every account;
// Accounts only those matching the filter.
type AccountList struct {
	Accounts  []*model.SocialAccount `json:"accounts"`
	Counts    StatusCounts           `json:"counts"`
	Platforms []AvailablePlatform    `json:"platforms"`
}

// AccountFilter narrows the account list. Status "" or "all" means any.
type AccountFilter struct {
	Status string
	Search string
}

func (f AccountFilter) match(a *model.SocialAccount) bool {
	if f.Status != "" && f.Status != "all" && string(a.Status) != f.Status {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Search))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(a.Username), q) || strings.Contains(string(a.Platform), q)
}

func (s *AccountService) List(ctx context.Context, sc Scope, f AccountFilter) Result[AccountList] {
	return read(ctx, s.src, "accounts.list", sc, func(st store.Store, sc Scope) (AccountList, error) {
		all, err := st.Accounts().List(ctx, sc.OrganizationID)
		if err != nil {
			return AccountList{}, err
		}
		out := AccountList{Accounts: []*model.SocialAccount{}}
		connected := map[model.Platform]bool{}
		for _, a := range all {
			out.Counts.All++
			switch a.Status {
			case model.AccountConnected:
				out.Counts.Connected++
			case model.AccountExpired:
				out.Counts.Expired++
			case model.AccountError:
				out.Counts.Error++
			}
			connected[a.Platform] = true
			if f.match(a) {
				out.Accounts = append(out.Accounts, a)
			}
		}
		for _, p := range model.AllPlatforms() {
			out.Platforms = append(out.Platforms, AvailablePlatform{Platform: p, Connected: connected[p]})
		}
		return out, nil
	})
}

// limitsFor returns the API quota of a newly connected account.
func limitsFor(p model.Platform) (rate, daily model.Usage) {
	if p == model.PlatformInstagram {
		return model.Usage{Total: 200}, model.Usage{Total: 25}
	}
	return model.Usage{Total: 100}, model.Usage{Total: 50}
}

// Connect simulates an OAuth connection and stores the new account.
func (s *AccountService) Connect(ctx context.Context, sc Scope, platform model.Platform) (*model.SocialAccount, error) {
	sc = s.src.Scope(sc)
	if err := sc.validate(); err != nil {
		return nil, err
	}
	if !model.IsValidPlatform(string(platform)) {
		return nil, fmt.Errorf("%w: unknown platform %q", model.ErrValidation, platform)
	}
	rate, daily := limitsFor(platform)
	a, err := s.src.Store().Accounts().Create(ctx, &model.SocialAccount{
		OrganizationID: sc.OrganizationID,
		Platform:       platform,
		Username:       fmt.Sprintf("new_%s_account", platform),
		Status:         model.AccountConnected,
		LastSync:       s.now(),
		RateLimit:      rate,
		DailyPosts:     daily,
	})
	if err != nil {
		return nil, err
	}
	s.feed.record(ctx, sc, "connected account", string(platform), a.Username)
	return a, nil
}

func (s *AccountService) owned(ctx context.Context, sc Scope, id string) (*model.SocialAccount, error) {
	a, err := s.src.Store().Accounts().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.OrganizationID != sc.OrganizationID {
		return nil, fmt.Errorf("account %s: %w", id, model.ErrNotFound)
	}
	return a, nil
}

func (s *AccountService) update(ctx context.Context, sc Scope, id string, fn func(*model.SocialAccount)) (*model.SocialAccount, error) {
	sc = s.src.Scope(sc)
	if err := sc.validate(); err != nil {
		return nil, err
	}
	a, err := s.owned(ctx, sc, id)
	if err != nil {
		return nil, err
	}
	fn(a)
	return s.src.Store().Accounts().Update(ctx, a)
}

// Reconnect marks the account connected and synced now.
func (s *AccountService) Reconnect(ctx context.Context, sc Scope, id string) (*model.SocialAccount, error) {
	return s.update(ctx, sc, id, func(a *model.SocialAccount) {
		a.Status = model.AccountConnected
		a.LastSync = s.now()
	})
}

// Sync refreshes the account's last sync time.
func (s *AccountService) Sync(ctx context.Context, sc Scope, id string) (*model.SocialAccount, error) {
	return s.update(ctx, sc, id, func(a *model.SocialAccount) {
		a.LastSync = s.now()
	})
}

// SetBrandVoice stores the caption generation settings of an account.
func (s *AccountService) SetBrandVoice(ctx context.Context, sc Scope, id string, bv model.BrandVoice) (*model.SocialAccount, error) {
	return s.update(ctx, sc, id, func(a *model.SocialAccount) {
		a.BrandVoice = &bv
	})
}

// Disconnect removes the account.
func (s *AccountService) Disconnect(ctx context.Context, sc Scope, id string) error {
	sc = s.src.Scope(sc)
	if err := sc.validate(); err != nil {
		return err
	}
	a, err := s.owned(ctx, sc, id)
	if err != nil {
		return err
	}
	if err := s.src.Store().Accounts().Delete(ctx, id); err != nil {
		return err
	}
	s.feed.record(ctx, sc, "disconnected account", string(a.Platform), a.Username)
	return nil
}

// Bulk actions.
const (
	BulkSync       = "sync"
	BulkDisconnect = "disconnect"
)

// BulkAction applies action to every id. It keeps going after a failure
// and returns the ids it applied to along with the joined errors.
func (s *AccountService) BulkAction(ctx context.Context, sc Scope, action string, ids []string) ([]string, error) {
	var apply func(string) error
	switch action {
	case BulkSync:
		apply = func(id string) error { _, err := s.Sync(ctx, sc, id); return err }
	case BulkDisconnect:
		apply = func(id string) error { return s.Disconnect(ctx, sc, id) }
	default:
		return nil, fmt.Errorf("%w: unknown bulk action %q", model.ErrValidation, action)
	}
	done := make([]string, 0, len(ids))
	var errs []error
	for _, id := range ids {
		if err := apply(id); err != nil {
			errs = append(errs, err)
			continue
		}
		done = append(done, id)
	}
	return done, errors.Join(errs...)
}
