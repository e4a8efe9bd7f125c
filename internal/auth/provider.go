package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	appLog "socialsync/internal/log"
	"socialsync/internal/model"
	"socialsync/internal/store"
)

// Grant is an authenticated session issued by a Provider.
type Grant struct {
	Token     string     `json:"token"`
	User      model.User `json:"user"`
	ExpiresAt time.Time  `json:"expiresAt"`
	// Queued reports whether the sign-in event reached the session bus.
	Queued bool `json:"-"`
}

// SignUpProfile carries the profile fields collected at sign-up.
type SignUpProfile struct {
	FullName         string `json:"fullName"`
	Role             string `json:"role,omitempty"`
	OrganizationName string `json:"organizationName,omitempty"`
}

// Provider is the authentication backend.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (*Grant, error)
	SignUp(ctx context.Context, email, password string, p SignUpProfile) (*Grant, error)
	SignOut(ctx context.Context, token string) error
	ResetPassword(ctx context.Context, email string) error
	// Session returns the grant for token, or model.ErrUnauthenticated.
	Session(ctx context.Context, token string) (*Grant, error)
	// Subscribe returns the session-change stream.
	Subscribe() <-chan Event
}

const minPasswordLength = 6

// LocalProvider authenticates against the row store's users table. Tokens
// are opaque and live in memory, so a restart signs everyone out.
type LocalProvider struct {
	store store.Store
	bus   *Bus
	ttl   time.Duration
	now   func() time.Time

	// Cost is the bcrypt cost for new password hashes.
	Cost int

	mu     sync.Mutex
	grants map[string]Grant
	resets map[string]resetToken
}

type resetToken struct {
	userID    string
	expiresAt time.Time
}

var _ Provider = (*LocalProvider)(nil)

func NewLocalProvider(s store.Store, bus *Bus, ttl time.Duration) *LocalProvider {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &LocalProvider{
		store:  s,
		bus:    bus,
		ttl:    ttl,
		now:    time.Now,
		Cost:   bcrypt.DefaultCost,
		grants: map[string]Grant{},
		resets: map[string]resetToken{},
	}
}

// unavailable tags store failures the way a network client would.
func unavailable(err error) error {
	return fmt.Errorf("%s: %w", msgFailedToFetch, err)
}

func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*Grant, error) {
	u, err := p.store.Users().GetByEmail(ctx, email)
	if errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("%w: %w", errInvalidCredentials, model.ErrUnauthenticated)
	}
	if err != nil {
		return nil, unavailable(err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidCredentials, model.ErrUnauthenticated)
	}
	g := p.issue(*u)
	g.Queued = p.publish(Event{Kind: EventSignedIn, Token: g.Token, User: &g.User, ExpiresAt: g.ExpiresAt})
	return &g, nil
}

// SignUp creates the user, their profile and an organization they own, then
// signs them in.
func (p *LocalProvider) SignUp(ctx context.Context, email, password string, prof SignUpProfile) (*Grant, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: a valid email is required", model.ErrValidation)
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", model.ErrValidation, minPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.Cost)
	if err != nil {
		return nil, err
	}
	u, err := p.store.Users().Create(ctx, &model.User{Email: email, PasswordHash: string(hash)})
	if errors.Is(err, model.ErrConflict) {
		return nil, fmt.Errorf("%w: %w", errAlreadyRegistered, model.ErrConflict)
	}
	if err != nil {
		return nil, unavailable(err)
	}

	role := prof.Role
	if role == "" {
		role = model.RoleOwner
	}
	if _, err := p.store.Profiles().Put(ctx, &model.Profile{ID: u.ID, Email: u.Email, FullName: prof.FullName, Role: role}); err != nil {
		return nil, unavailable(err)
	}
	orgName := prof.OrganizationName
	if orgName == "" {
		orgName = workspaceName(prof.FullName, u.Email)
	}
	org, err := p.store.Organizations().Create(ctx, &model.Organization{Name: orgName, OwnerID: u.ID})
	if err != nil {
		return nil, unavailable(err)
	}
	if _, err := p.store.Members().Add(ctx, &model.TeamMember{
		OrganizationID: org.ID, UserID: u.ID, Email: u.Email, FullName: prof.FullName,
		Role: model.RoleOwner, Status: model.MemberActive,
	}); err != nil {
		return nil, unavailable(err)
	}

	appLog.Info("user signed up", "user_id", u.ID, "organization_id", org.ID)
	g := p.issue(*u)
	g.Queued = p.publish(Event{Kind: EventSignedIn, Token: g.Token, User: &g.User, ExpiresAt: g.ExpiresAt})
	return &g, nil
}

func workspaceName(fullName, email string) string {
	if fullName != "" {
		return fullName + "'s workspace"
	}
	local, _, _ := strings.Cut(email, "@")
	return local + "'s workspace"
}

func (p *LocalProvider) SignOut(_ context.Context, token string) error {
	p.mu.Lock()
	_, ok := p.grants[token]
	delete(p.grants, token)
	p.mu.Unlock()
	if ok {
		p.publish(Event{Kind: EventSignedOut, Token: token})
	}
	return nil
}

// ResetPassword issues a one-hour reset token. Delivery is out of band, so
// the token is only logged. Unknown emails succeed silently.
func (p *LocalProvider) ResetPassword(ctx context.Context, email string) error {
	u, err := p.store.Users().GetByEmail(ctx, email)
	if errors.Is(err, model.ErrNotFound) {
		return nil
	}
	if err != nil {
		return unavailable(err)
	}
	token := uuid.NewString()
	p.mu.Lock()
	p.resets[token] = resetToken{userID: u.ID, expiresAt: p.now().Add(time.Hour)}
	p.mu.Unlock()
	appLog.Info("password reset requested", "user_id", u.ID, "reset_token", token)
	return nil
}

// ConfirmReset sets a new password using a token from ResetPassword.
func (p *LocalProvider) ConfirmReset(ctx context.Context, token, password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", model.ErrValidation, minPasswordLength)
	}
	p.mu.Lock()
	rt, ok := p.resets[token]
	delete(p.resets, token)
	p.mu.Unlock()
	if !ok || p.now().After(rt.expiresAt) {
		return fmt.Errorf("%w: reset token is invalid or expired", model.ErrUnauthenticated)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.Cost)
	if err != nil {
		return err
	}
	if err := p.store.Users().UpdatePassword(ctx, rt.userID, string(hash)); err != nil {
		return unavailable(err)
	}
	return nil
}

func (p *LocalProvider) Session(_ context.Context, token string) (*Grant, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	g, ok := p.grants[token]
	if !ok {
		return nil, model.ErrUnauthenticated
	}
	if p.now().After(g.ExpiresAt) {
		delete(p.grants, token)
		return nil, fmt.Errorf("session expired: %w", model.ErrUnauthenticated)
	}
	return &g, nil
}

func (p *LocalProvider) Subscribe() <-chan Event { return p.bus.Subscribe() }

func (p *LocalProvider) issue(u model.User) Grant {
	u.PasswordHash = ""
	g := Grant{Token: uuid.NewString(), User: u, ExpiresAt: p.now().Add(p.ttl)}
	p.mu.Lock()
	p.grants[g.Token] = g
	p.mu.Unlock()
	return g
}

func (p *LocalProvider) publish(evt Event) bool {
	if !p.bus.Publish(evt) {
		appLog.Info("session event dropped", "kind", evt.Kind)
		return false
	}
	return true
}
