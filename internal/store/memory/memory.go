package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"socialsync/internal/model"
	"socialsync/internal/store"
)

// Store is an in-process store.Store. It backs demo mode and tests.
type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	users         map[string]model.User
	profiles      map[string]model.Profile
	organizations map[string]model.Organization
	members       map[string]model.TeamMember
	accounts      map[string]model.SocialAccount
	events        map[string]model.Event
	activities    []model.Activity
	notifications []model.Notification
	analytics     map[string]model.AnalyticsSummary
	adAccounts    map[string]model.AdAccount
	adCampaigns   map[string]model.AdCampaign
	adRows        map[string]model.AdPerformance
}

// New returns an empty store. now defaults to time.Now.
func New(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		now:           now,
		users:         map[string]model.User{},
		profiles:      map[string]model.Profile{},
		organizations: map[string]model.Organization{},
		members:       map[string]model.TeamMember{},
		accounts:      map[string]model.SocialAccount{},
		events:        map[string]model.Event{},
		analytics:     map[string]model.AnalyticsSummary{},
		adAccounts:    map[string]model.AdAccount{},
		adCampaigns:   map[string]model.AdCampaign{},
		adRows:        map[string]model.AdPerformance{},
	}
}

var _ store.Store = (*Store)(nil)

func (s *Store) Users() store.Users                 { return users{s} }
func (s *Store) Profiles() store.Profiles           { return profiles{s} }
func (s *Store) Organizations() store.Organizations { return organizations{s} }
func (s *Store) Members() store.Members             { return members{s} }
func (s *Store) Accounts() store.Accounts           { return accounts{s} }
func (s *Store) Events() store.Events               { return events{s} }
func (s *Store) Activities() store.Activities       { return activities{s} }
func (s *Store) Notifications() store.Notifications { return notifications{s} }
func (s *Store) Analytics() store.Analytics         { return analytics{s} }
func (s *Store) Ads() store.Ads                     { return ads{s} }

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error               { return nil }

func newID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, model.ErrNotFound)
}

// --- Users ---
type users struct{ s *Store }

func (r users) Create(_ context.Context, u *model.User) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	email := strings.ToLower(strings.TrimSpace(u.Email))
	for _, existing := range r.s.users {
		if existing.Email == email {
			return nil, fmt.Errorf("user %s: %w", email, model.ErrConflict)
		}
	}
	out := *u
	out.ID = newID(u.ID)
	out.Email = email
	if out.CreatedAt.IsZero() {
		out.CreatedAt = r.s.now()
	}
	r.s.users[out.ID] = out
	return &out, nil
}

func (r users) Get(_ context.Context, id string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, notFound("user", id)
	}
	return &u, nil
}

func (r users) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, notFound("user", email)
}

func (r users) UpdatePassword(_ context.Context, id, hash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return notFound("user", id)
	}
	u.PasswordHash = hash
	r.s.users[id] = u
	return nil
}

// --- Profiles ---
type profiles struct{ s *Store }

func (r profiles) Put(_ context.Context, p *model.Profile) (*model.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := *p
	now := r.s.now()
	if prev, ok := r.s.profiles[p.ID]; ok {
		out.CreatedAt = prev.CreatedAt
	} else if out.CreatedAt.IsZero() {
		out.CreatedAt = now
	}
	out.UpdatedAt = now
	r.s.profiles[out.ID] = out
	return &out, nil
}

func (r profiles) Get(_ context.Context, id string) (*model.Profile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.profiles[id]
	if !ok {
		return nil, notFound("profile", id)
	}
	return &p, nil
}

func (r profiles) Update(_ context.Context, id string, upd model.ProfileUpdate) (*model.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.profiles[id]
	if !ok {
		return nil, notFound("profile", id)
	}
	if upd.FullName != nil {
		p.FullName = *upd.FullName
	}
	if upd.AvatarURL != nil {
		p.AvatarURL = *upd.AvatarURL
	}
	p.UpdatedAt = r.s.now()
	r.s.profiles[id] = p
	return &p, nil
}

// --- Organizations ---
type organizations struct{ s *Store }

func (r organizations) Create(_ context.Context, o *model.Organization) (*model.Organization, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := *o
	out.ID = newID(o.ID)
	out.UserRole = ""
	if out.SubscriptionPlan == "" {
		out.SubscriptionPlan = "free"
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = r.s.now()
	}
	r.s.organizations[out.ID] = out
	return &out, nil
}

func (r organizations) Get(_ context.Context, id string) (*model.Organization, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	o, ok := r.s.organizations[id]
	if !ok {
		return nil, notFound("organization", id)
	}
	return &o, nil
}

func (r organizations) ForUser(_ context.Context, userID string) (*model.Organization, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	ms := sortedMembers(r.s.members)
	for _, m := range ms {
		if m.UserID != userID || m.Status != model.MemberActive {
			continue
		}
		o, ok := r.s.organizations[m.OrganizationID]
		if !ok {
			continue
		}
		o.UserRole = m.Role
		return &o, nil
	}
	return nil, notFound("organization for user", userID)
}

// --- Members ---
type members struct{ s *Store }

func (r members) Add(_ context.Context, m *model.TeamMember) (*model.TeamMember, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	email := strings.ToLower(strings.TrimSpace(m.Email))
	for _, existing := range r.s.members {
		if existing.OrganizationID == m.OrganizationID && existing.Email == email {
			return nil, fmt.Errorf("member %s: %w", email, model.ErrConflict)
		}
	}
	out := *m
	out.ID = newID(m.ID)
	out.Email = email
	if out.JoinedAt.IsZero() {
		out.JoinedAt = r.s.now()
	}
	r.s.members[out.ID] = out
	return &out, nil
}

func (r members) Get(_ context.Context, id string) (*model.TeamMember, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	m, ok := r.s.members[id]
	if !ok {
		return nil, notFound("member", id)
	}
	return &m, nil
}

func (r members) List(_ context.Context, orgID string) ([]*model.TeamMember, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*model.TeamMember, 0)
	for _, m := range sortedMembers(r.s.members) {
		if m.OrganizationID == orgID {
			m := m
			out = append(out, &m)
		}
	}
	return out, nil
}

func (r members) UpdateRole(_ context.Context, id, role string) (*model.TeamMember, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.members[id]
	if !ok {
		return nil, notFound("member", id)
	}
	m.Role = role
	r.s.members[id] = m
	return &m, nil
}

func (r members) Remove(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.members[id]; !ok {
		return notFound("member", id)
	}
	delete(r.s.members, id)
	return nil
}

func sortedMembers(in map[string]model.TeamMember) []model.TeamMember {
	out := make([]model.TeamMember, 0, len(in))
	for _, m := range in {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].JoinedAt.Before(out[j].JoinedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// --- Accounts ---
type accounts struct{ s *Store }

func (r accounts) Create(_ context.Context, a *model.SocialAccount) (*model.SocialAccount, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := cloneAccount(*a)
	out.ID = newID(a.ID)
	if out.CreatedAt.IsZero() {
		out.CreatedAt = r.s.now()
	}
	r.s.accounts[out.ID] = out
	res := cloneAccount(out)
	return &res, nil
}

func (r accounts) Get(_ context.Context, id string) (*model.SocialAccount, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.accounts[id]
	if !ok {
		return nil, notFound("account", id)
	}
	out := cloneAccount(a)
	return &out, nil
}

func (r accounts) List(_ context.Context, orgID string) ([]*model.SocialAccount, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*model.SocialAccount, 0)
	for _, a := range r.s.accounts {
		if a.OrganizationID == orgID {
			c := cloneAccount(a)
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r accounts) Update(_ context.Context, a *model.SocialAccount) (*model.SocialAccount, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	prev, ok := r.s.accounts[a.ID]
	if !ok {
		return nil, notFound("account", a.ID)
	}
	out := cloneAccount(*a)
	out.CreatedAt = prev.CreatedAt
	r.s.accounts[a.ID] = out
	res := cloneAccount(out)
	return &res, nil
}

func (r accounts) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.accounts[id]; !ok {
		return notFound("account", id)
	}
	delete(r.s.accounts, id)
	return nil
}

func cloneAccount(a model.SocialAccount) model.SocialAccount {
	if a.BrandVoice != nil {
		bv := *a.BrandVoice
		a.BrandVoice = &bv
	}
	return a
}

// --- Events ---
type events struct{ s *Store }

func (r events) Create(_ context.Context, e *model.Event) (*model.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := e.Clone()
	out.ID = newID(e.ID)
	if _, exists := r.s.events[out.ID]; exists {
		return nil, fmt.Errorf("event %s: %w", out.ID, model.ErrConflict)
	}
	now := r.s.now()
	if out.CreatedAt.IsZero() {
		out.CreatedAt = now
	}
	out.UpdatedAt = now
	r.s.events[out.ID] = out
	res := out.Clone()
	return &res, nil
}

func (r events) Get(_ context.Context, id string) (*model.Event, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	e, ok := r.s.events[id]
	if !ok {
		return nil, notFound("event", id)
	}
	out := e.Clone()
	return &out, nil
}

func (r events) Update(_ context.Context, e *model.Event) (*model.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	prev, ok := r.s.events[e.ID]
	if !ok {
		return nil, notFound("event", e.ID)
	}
	out := e.Clone()
	out.CreatedAt = prev.CreatedAt
	out.UpdatedAt = r.s.now()
	r.s.events[e.ID] = out
	res := out.Clone()
	return &res, nil
}

func (r events) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.events[id]; !ok {
		return notFound("event", id)
	}
	delete(r.s.events, id)
	return nil
}

func (r events) List(_ context.Context, f store.EventFilter) ([]*model.Event, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*model.Event, 0)
	for _, e := range r.s.events {
		if store.MatchEvent(&e, f) {
			c := e.Clone()
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ScheduledDate.Equal(out[j].ScheduledDate) {
			return out[i].ScheduledDate.Before(out[j].ScheduledDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// --- Activities ---
type activities struct{ s *Store }

func (r activities) Create(_ context.Context, a *model.Activity) (*model.Activity, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := *a
	out.ID = newID(a.ID)
	if out.CreatedAt.IsZero() {
		out.CreatedAt = r.s.now()
	}
	r.s.activities = append(r.s.activities, out)
	return &out, nil
}

func (r activities) List(_ context.Context, orgID string, limit int) ([]*model.Activity, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*model.Activity, 0)
	for i := len(r.s.activities) - 1; i >= 0; i-- {
		a := r.s.activities[i]
		if a.OrganizationID == orgID {
			out = append(out, &a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --- Notifications ---
type notifications struct{ s *Store }

func (r notifications) Create(_ context.Context, n *model.Notification) (*model.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := *n
	out.ID = newID(n.ID)
	if out.CreatedAt.IsZero() {
		out.CreatedAt = r.s.now()
	}
	r.s.notifications = append(r.s.notifications, out)
	return &out, nil
}

func (r notifications) List(_ context.Context, userID string) ([]*model.Notification, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*model.Notification, 0)
	for i := len(r.s.notifications) - 1; i >= 0; i-- {
		n := r.s.notifications[i]
		if n.UserID == userID {
			out = append(out, &n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r notifications) MarkRead(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.notifications {
		if r.s.notifications[i].ID == id {
			r.s.notifications[i].Read = true
			return nil
		}
	}
	return notFound("notification", id)
}

func (r notifications) MarkAllRead(_ context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.notifications {
		if r.s.notifications[i].UserID == userID {
			r.s.notifications[i].Read = true
		}
	}
	return nil
}

// --- Analytics ---
type analytics struct{ s *Store }

func (r analytics) Put(_ context.Context, a *model.AnalyticsSummary) (*model.AnalyticsSummary, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := *a
	out.ID = newID(a.ID)
	r.s.analytics[out.ID] = out
	return &out, nil
}

func (r analytics) List(_ context.Context, orgID string, since time.Time) ([]*model.AnalyticsSummary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*model.AnalyticsSummary, 0)
	for _, a := range r.s.analytics {
		if a.OrganizationID != orgID || a.Date.Before(since) {
			continue
		}
		a := a
		out = append(out, &a)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// --- Ads ---
type ads struct{ s *Store }

func (r ads) PutAccount(_ context.Context, a *model.AdAccount) (*model.AdAccount, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := *a
	out.ID = newID(a.ID)
	if out.CreatedAt.IsZero() {
		out.CreatedAt = r.s.now()
	}
	r.s.adAccounts[out.ID] = out
	return &out, nil
}

func (r ads) ListAccounts(_ context.Context, orgID string) ([]*model.AdAccount, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*model.AdAccount, 0)
	for _, a := range r.s.adAccounts {
		if a.OrganizationID != orgID {
			continue
		}
		a := a
		out = append(out, &a)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r ads) PutCampaign(_ context.Context, c *model.AdCampaign) (*model.AdCampaign, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.adAccounts[c.AccountID]; !ok {
		return nil, notFound("ad account", c.AccountID)
	}
	out := *c
	out.ID = newID(c.ID)
	if out.CreatedAt.IsZero() {
		out.CreatedAt = r.s.now()
	}
	r.s.adCampaigns[out.ID] = out
	return &out, nil
}

func (r ads) ListCampaigns(_ context.Context, orgID string) ([]*model.AdCampaign, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*model.AdCampaign, 0)
	for _, c := range r.s.adCampaigns {
		if c.OrganizationID != orgID {
			continue
		}
		c := c
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r ads) PutPerformance(_ context.Context, p *model.AdPerformance) (*model.AdPerformance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := *p
	out.ID = newID(p.ID)
	r.s.adRows[out.ID] = out
	return &out, nil
}

func (r ads) ListPerformance(_ context.Context, orgID string, since time.Time) ([]*model.AdPerformance, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*model.AdPerformance, 0)
	for _, p := range r.s.adRows {
		if p.OrganizationID != orgID || p.Date.Before(since) {
			continue
		}
		p := p
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
