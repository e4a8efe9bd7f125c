package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"socialsync/internal/model"
	"socialsync/internal/store/memory"
)

func newManager(t *testing.T) (*Manager, *LocalProvider, *memory.Store) {
	t.Helper()
	s := memory.New(nil)
	bus := NewBus(16)
	p := NewLocalProvider(s, bus, time.Hour)
	p.Cost = bcrypt.MinCost
	m := NewManager(p, s, bus)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	m.Start(ctx)
	return m, p, s
}

func waitReady(t *testing.T, s *Session) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.WaitReady(ctx))
}

func TestHumanize(t *testing.T) {
	cases := []struct {
		op   Op
		in   string
		want string
	}{
		{OpSignIn, "Invalid login credentials", "Invalid email or password. Please check your credentials and try again."},
		{OpSignUp, "User already registered", "An account with this email already exists. Please sign in instead."},
		{OpSignIn, "TypeError: Failed to fetch", "Cannot connect to authentication service. The service may be unavailable or paused. Please try again later."},
		{OpResetPassword, "Failed to fetch", "Cannot connect to authentication service. Please check your internet connection."},
		{OpSignIn, "Email not confirmed", "Email not confirmed"},
	}
	for _, tc := range cases {
		got := Humanize(tc.op, errors.New(tc.in))
		assert.Equal(t, tc.want, got.Error(), "%s %q", tc.op, tc.in)
	}
	assert.NoError(t, Humanize(OpSignIn, nil))
}

func TestSignUpThenLoadProfile(t *testing.T) {
	m, _, _ := newManager(t)
	ctx := context.Background()

	sess, err := m.SignUp(ctx, "Ada@Example.com", "secret-pw", SignUpProfile{FullName: "Ada Lovelace"})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", sess.User().Email)
	assert.Empty(t, sess.User().PasswordHash)

	waitReady(t, sess)
	st := sess.State()
	assert.False(t, st.ProfileLoading)
	require.NotNil(t, st.Profile)
	assert.Equal(t, "Ada Lovelace", st.Profile.FullName)
	require.NotNil(t, st.Organization)
	assert.Equal(t, "Ada Lovelace's workspace", st.Organization.Name)
	assert.Equal(t, model.RoleOwner, st.Organization.UserRole)
	assert.False(t, m.Loading())
}

func TestSignUpDuplicateIsRewritten(t *testing.T) {
	m, _, _ := newManager(t)
	ctx := context.Background()

	_, err := m.SignUp(ctx, "ada@example.com", "secret-pw", SignUpProfile{})
	require.NoError(t, err)
	_, err = m.SignUp(ctx, "ada@example.com", "secret-pw", SignUpProfile{})
	require.Error(t, err)
	assert.Equal(t, "An account with this email already exists. Please sign in instead.", err.Error())
	assert.ErrorIs(t, err, model.ErrConflict)
}

func TestSignUpValidation(t *testing.T) {
	m, _, _ := newManager(t)
	_, err := m.SignUp(context.Background(), "ada@example.com", "123", SignUpProfile{})
	assert.ErrorIs(t, err, model.ErrValidation)
	_, err = m.SignUp(context.Background(), "nobody", "secret-pw", SignUpProfile{})
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestSignInWrongPassword(t *testing.T) {
	m, _, _ := newManager(t)
	ctx := context.Background()
	_, err := m.SignUp(ctx, "ada@example.com", "secret-pw", SignUpProfile{})
	require.NoError(t, err)

	_, err = m.SignIn(ctx, "ada@example.com", "wrong-pw")
	require.Error(t, err)
	assert.Equal(t, "Invalid email or password. Please check your credentials and try again.", err.Error())
	assert.ErrorIs(t, err, model.ErrUnauthenticated)

	_, err = m.SignIn(ctx, "ghost@example.com", "secret-pw")
	assert.ErrorIs(t, err, model.ErrUnauthenticated)
}

func TestSignOutClearsSession(t *testing.T) {
	m, _, _ := newManager(t)
	ctx := context.Background()
	_, err := m.SignUp(ctx, "ada@example.com", "secret-pw", SignUpProfile{FullName: "Ada"})
	require.NoError(t, err)

	sess, err := m.SignIn(ctx, "ada@example.com", "secret-pw")
	require.NoError(t, err)
	waitReady(t, sess)
	require.NotNil(t, sess.Organization())

	m.SignOut(ctx, sess.Token())
	st := sess.State()
	assert.Nil(t, st.Profile)
	assert.Nil(t, st.Organization)
	assert.False(t, st.ProfileLoading)

	_, err = m.Session(ctx, sess.Token())
	assert.ErrorIs(t, err, model.ErrUnauthenticated)
}

func TestUpdateProfileReloads(t *testing.T) {
	m, _, _ := newManager(t)
	ctx := context.Background()
	sess, err := m.SignUp(ctx, "ada@example.com", "secret-pw", SignUpProfile{FullName: "Ada"})
	require.NoError(t, err)
	waitReady(t, sess)

	name := "Countess Ada"
	require.NoError(t, m.UpdateProfile(ctx, sess.Token(), model.ProfileUpdate{FullName: &name}))
	waitReady(t, sess)
	assert.Equal(t, "Countess Ada", sess.State().Profile.FullName)

	err = m.UpdateProfile(ctx, "bogus", model.ProfileUpdate{FullName: &name})
	assert.ErrorIs(t, err, model.ErrUnauthenticated)
}

func TestSessionExpires(t *testing.T) {
	m, p, _ := newManager(t)
	ctx := context.Background()
	clock := time.Date(2025, 10, 15, 9, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return clock }

	sess, err := m.SignUp(ctx, "ada@example.com", "secret-pw", SignUpProfile{})
	require.NoError(t, err)
	got, err := m.Session(ctx, sess.Token())
	require.NoError(t, err)
	assert.Same(t, sess, got)
	waitReady(t, sess)

	clock = clock.Add(2 * time.Hour)
	_, err = m.Session(ctx, sess.Token())
	assert.ErrorIs(t, err, model.ErrUnauthenticated)
}

func TestResetPassword(t *testing.T) {
	m, p, s := newManager(t)
	ctx := context.Background()
	_, err := m.SignUp(ctx, "ada@example.com", "secret-pw", SignUpProfile{})
	require.NoError(t, err)

	require.NoError(t, m.ResetPassword(ctx, "ada@example.com"))
	require.NoError(t, m.ResetPassword(ctx, "nobody@example.com"))

	var token string
	p.mu.Lock()
	for k := range p.resets {
		token = k
	}
	p.mu.Unlock()
	require.NotEmpty(t, token)

	require.NoError(t, p.ConfirmReset(ctx, token, "new-secret"))
	assert.ErrorIs(t, p.ConfirmReset(ctx, token, "new-secret"), model.ErrUnauthenticated)

	_, err = m.SignIn(ctx, "ada@example.com", "new-secret")
	require.NoError(t, err)
	u, err := s.Users().GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("new-secret")))
}

func TestBusPublishNeverBlocks(t *testing.T) {
	b := NewBus(1)
	assert.True(t, b.Publish(Event{Kind: EventSignedIn}))
	assert.False(t, b.Publish(Event{Kind: EventSignedOut}))
	evt := <-b.Subscribe()
	assert.Equal(t, EventSignedIn, evt.Kind)
}

func TestSessionEventsAreOrderedBeforeProfile(t *testing.T) {
	s := memory.New(nil)
	bus := NewBus(4)
	p := NewLocalProvider(s, bus, time.Hour)
	p.Cost = bcrypt.MinCost
	m := NewManager(p, s, bus)

	// Without a running loader the sign-in returns at once and the profile
	// is still pending.
	sess, err := m.SignUp(context.Background(), "ada@example.com", "secret-pw", SignUpProfile{FullName: "Ada"})
	require.NoError(t, err)
	assert.True(t, sess.State().ProfileLoading)
	assert.Nil(t, sess.State().Profile)

	evt := <-bus.Subscribe()
	assert.Equal(t, EventSignedIn, evt.Kind)
	assert.Equal(t, sess.Token(), evt.Token)

	loader := &ProfileLoader{store: s, sessions: m, events: bus.Subscribe()}
	loader.handle(context.Background(), evt)
	assert.False(t, sess.State().ProfileLoading)
	assert.Equal(t, "Ada", sess.State().Profile.FullName)
}

func TestSignInLoadsProfileWhenBusIsFull(t *testing.T) {
	s := memory.New(nil)
	bus := NewBus(1)
	p := NewLocalProvider(s, bus, time.Hour)
	p.Cost = bcrypt.MinCost
	m := NewManager(p, s, bus)
	ctx := context.Background()

	first, err := m.SignUp(ctx, "ada@example.com", "secret-pw", SignUpProfile{FullName: "Ada"})
	require.NoError(t, err)
	second, err := m.SignUp(ctx, "grace@example.com", "secret-pw", SignUpProfile{FullName: "Grace"})
	require.NoError(t, err)

	loaderCtx, cancel := context.WithCancel(ctx)
	t.Cleanup(cancel)
	m.Start(loaderCtx)

	for _, want := range []*Session{first, second} {
		sess, err := m.Session(ctx, want.Token())
		require.NoError(t, err)
		wctx, done := context.WithTimeout(ctx, 500*time.Millisecond)
		require.NoError(t, sess.WaitReady(wctx), sess.User().Email)
		done()
		st := sess.State()
		assert.False(t, st.ProfileLoading)
		require.NotNil(t, st.Organization, sess.User().Email)
	}
}
