package auth

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	appLog "socialsync/internal/log"
	"socialsync/internal/model"
	"socialsync/internal/store"
)

// Session is the state of one signed-in user. It is created on sign-in (or
// when a token is first seen after a restart) and discarded on sign-out.
type Session struct {
	token     string
	user      model.User
	expiresAt time.Time

	mu             sync.RWMutex
	profile        *model.Profile
	organization   *model.Organization
	profileLoading bool
	loadErr        error
	ready          chan struct{}
	closed         bool
}

func newSession(token string, u model.User, expiresAt time.Time) *Session {
	return &Session{
		token:          token,
		user:           u,
		expiresAt:      expiresAt,
		profileLoading: true,
		ready:          make(chan struct{}),
	}
}

// State is a point-in-time view of a session.
type State struct {
	User           model.User          `json:"user"`
	Profile        *model.Profile      `json:"profile"`
	Organization   *model.Organization `json:"organization"`
	ProfileLoading bool                `json:"profileLoading"`
	ExpiresAt      time.Time           `json:"expiresAt"`
}

func (s *Session) Token() string    { return s.token }
func (s *Session) User() model.User { return s.user }

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := State{User: s.user, ProfileLoading: s.profileLoading, ExpiresAt: s.expiresAt}
	if s.profile != nil {
		p := *s.profile
		st.Profile = &p
	}
	if s.organization != nil {
		o := *s.organization
		st.Organization = &o
	}
	return st
}

// Organization returns the active organization, or nil while loading or when
// the user has none.
func (s *Session) Organization() *model.Organization {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.organization == nil {
		return nil
	}
	o := *s.organization
	return &o
}

// Ready is closed when the current profile load finishes.
func (s *Session) Ready() <-chan struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// WaitReady blocks until the profile is loaded or ctx is done.
func (s *Session) WaitReady(ctx context.Context) error {
	select {
	case <-s.Ready():
		s.mu.RLock()
		defer s.mu.RUnlock()
		return s.loadErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) beginLoad() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.profileLoading && !s.closed {
		s.profileLoading = true
		s.ready = make(chan struct{})
	}
}

func (s *Session) finishLoad(p *model.Profile, o *model.Organization, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if p != nil {
		s.profile = p
	}
	if o != nil {
		s.organization = o
	}
	s.loadErr = err
	if s.profileLoading {
		s.profileLoading = false
		close(s.ready)
	}
}

func (s *Session) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.profile = nil
	s.organization = nil
	if s.profileLoading {
		s.profileLoading = false
		close(s.ready)
	}
}

// Manager owns the live sessions and the profile loader.
type Manager struct {
	provider Provider
	store    store.Store
	bus      *Bus

	mu       sync.RWMutex
	sessions map[string]*Session

	inFlight atomic.Int32
}

func NewManager(p Provider, s store.Store, bus *Bus) *Manager {
	return &Manager{provider: p, store: s, bus: bus, sessions: map[string]*Session{}}
}

// Start runs the profile loader until ctx is done.
func (m *Manager) Start(ctx context.Context) {
	loader := &ProfileLoader{store: m.store, sessions: m, events: m.provider.Subscribe()}
	go loader.Run(ctx)
}

// Loading reports whether any sign-in, sign-up or sign-out call is running.
func (m *Manager) Loading() bool { return m.inFlight.Load() > 0 }

func (m *Manager) track() func() {
	m.inFlight.Add(1)
	return func() { m.inFlight.Add(-1) }
}

func (m *Manager) SignIn(ctx context.Context, email, password string) (*Session, error) {
	defer m.track()()
	g, err := m.provider.SignIn(ctx, email, password)
	if err != nil {
		return nil, Humanize(OpSignIn, err)
	}
	return m.signedIn(ctx, g), nil
}

func (m *Manager) SignUp(ctx context.Context, email, password string, p SignUpProfile) (*Session, error) {
	defer m.track()()
	g, err := m.provider.SignUp(ctx, email, password, p)
	if err != nil {
		return nil, Humanize(OpSignUp, err)
	}
	return m.signedIn(ctx, g), nil
}

// signedIn registers the session for a fresh grant. When the sign-in event
// never reached the loader the profile is loaded directly.
func (m *Manager) signedIn(ctx context.Context, g *Grant) *Session {
	s := m.ensure(g.Token, g.User, g.ExpiresAt)
	if !g.Queued {
		go m.loadNow(context.WithoutCancel(ctx), s)
	}
	return s
}

// SignOut ends the session. Errors are logged, not returned; the local
// session is always torn down.
func (m *Manager) SignOut(ctx context.Context, token string) {
	defer m.track()()
	if err := m.provider.SignOut(ctx, token); err != nil {
		appLog.Error("sign out failed", err)
	}
	m.drop(token)
}

func (m *Manager) ResetPassword(ctx context.Context, email string) error {
	return Humanize(OpResetPassword, m.provider.ResetPassword(ctx, email))
}

// Session resolves token to a live session. A valid token without a session
// (e.g. the session was dropped) is restored and its profile reloaded.
func (m *Manager) Session(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, model.ErrUnauthenticated
	}
	g, err := m.provider.Session(ctx, token)
	if err != nil {
		m.drop(token)
		return nil, err
	}
	m.mu.RLock()
	s, ok := m.sessions[token]
	m.mu.RUnlock()
	if ok {
		return s, nil
	}
	s = m.ensure(g.Token, g.User, g.ExpiresAt)
	if !m.bus.Publish(Event{Kind: EventRestored, Token: g.Token, User: &g.User, ExpiresAt: g.ExpiresAt}) {
		go m.loadNow(context.WithoutCancel(ctx), s)
	}
	return s, nil
}

// UpdateProfile writes the editable profile fields and reloads the profile.
func (m *Manager) UpdateProfile(ctx context.Context, token string, upd model.ProfileUpdate) error {
	s, err := m.Session(ctx, token)
	if err != nil {
		return fmt.Errorf("no user logged in: %w", model.ErrUnauthenticated)
	}
	if _, err := m.store.Profiles().Update(ctx, s.user.ID, upd); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	s.beginLoad()
	if !m.bus.Publish(Event{Kind: EventProfileUpdated, Token: token, User: &s.user, ExpiresAt: s.expiresAt}) {
		go m.loadNow(context.WithoutCancel(ctx), s)
	}
	return nil
}

func (m *Manager) loadNow(ctx context.Context, s *Session) {
	p, o, err := loadProfile(ctx, m.store, s.user.ID)
	s.finishLoad(p, o, err)
}

func (m *Manager) ensure(token string, u model.User, expiresAt time.Time) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[token]; ok {
		return s
	}
	s := newSession(token, u, expiresAt)
	m.sessions[token] = s
	return s
}

// live returns the session for an event's token, creating it if the
// provider still honours the token.
func (m *Manager) live(ctx context.Context, evt Event) (*Session, bool) {
	g, err := m.provider.Session(ctx, evt.Token)
	if err != nil {
		return nil, false
	}
	return m.ensure(g.Token, g.User, g.ExpiresAt), true
}

func (m *Manager) drop(token string) {
	m.mu.Lock()
	s, ok := m.sessions[token]
	delete(m.sessions, token)
	m.mu.Unlock()
	if ok {
		s.clear()
	}
}
