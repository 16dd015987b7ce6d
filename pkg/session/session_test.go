package session

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu sync.Mutex
	s  *Session
}

func (m *memStore) Load() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s, nil
}

func (m *memStore) Save(s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s = s
	return nil
}

func (m *memStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s = nil
	return nil
}

type fakeAuth struct {
	mu         sync.Mutex
	refreshes    int
	refreshErr   error
	refreshDelay time.Duration
	next       *Session
	admin      bool
	adminErr   error
	adminDelay time.Duration
	roleChecks int
}

func (f *fakeAuth) Refresh(_ context.Context, refreshToken string) (*Session, error) {
	f.mu.Lock()
	delay := f.refreshDelay
	f.mu.Unlock()
	time.Sleep(delay)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return f.next, nil
}

func (f *fakeAuth) IsAdmin(ctx context.Context, _ string) (bool, error) {
	f.mu.Lock()
	f.roleChecks++
	delay, admin, err := f.adminDelay, f.admin, f.adminErr
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
	return admin, err
}

var now = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

func sessionExpiringIn(d time.Duration) *Session {
	return &Session{UserID: 1, AccessToken: "access", RefreshToken: "refresh", ExpiresAt: now.Add(d)}
}

func TestStartUsesValidStoredSession(t *testing.T) {
	store := &memStore{s: sessionExpiringIn(time.Hour)}
	auth := &fakeAuth{}
	m := NewManager(store, auth, WithClock(clock))

	m.Start(context.Background())

	require.NotNil(t, m.Current())
	assert.Equal(t, "access", m.AccessToken())
	assert.Zero(t, auth.refreshes)
}

func TestStartRefreshesExpiredSession(t *testing.T) {
	store := &memStore{s: sessionExpiringIn(-time.Minute)}
	auth := &fakeAuth{next: &Session{UserID: 1, AccessToken: "fresh", ExpiresAt: now.Add(time.Hour)}}
	m := NewManager(store, auth, WithClock(clock))

	m.Start(context.Background())

	assert.Equal(t, "fresh", m.AccessToken())
	assert.Equal(t, 1, auth.refreshes)
	stored, _ := store.Load()
	assert.Equal(t, "fresh", stored.AccessToken)
}

func TestStartSignsOutWhenRefreshFails(t *testing.T) {
	store := &memStore{s: sessionExpiringIn(-time.Minute)}
	m := NewManager(store, &fakeAuth{refreshErr: errors.New("revoked")}, WithClock(clock))

	m.Start(context.Background())

	assert.Nil(t, m.Current())
	stored, _ := store.Load()
	assert.Nil(t, stored)
}

func TestStartWithoutStoredSession(t *testing.T) {
	m := NewManager(&memStore{}, &fakeAuth{}, WithClock(clock))
	m.Start(context.Background())
	assert.Nil(t, m.Current())
}

func TestFocusRefreshesOnlyUnderThreshold(t *testing.T) {
	store := &memStore{s: sessionExpiringIn(11 * time.Minute)}
	auth := &fakeAuth{next: &Session{UserID: 1, AccessToken: "fresh", ExpiresAt: now.Add(time.Hour)}}
	m := NewManager(store, auth, WithClock(clock))
	m.Start(context.Background())

	m.Focus(context.Background())
	assert.Zero(t, auth.refreshes)

	require.NoError(t, m.SignIn(context.Background(), sessionExpiringIn(9*time.Minute)))
	m.Focus(context.Background())
	assert.Equal(t, 1, auth.refreshes)
	assert.Equal(t, "fresh", m.AccessToken())
}

func TestRefreshFailureKeepsUnexpiredSession(t *testing.T) {
	store := &memStore{s: sessionExpiringIn(5 * time.Minute)}
	auth := &fakeAuth{refreshErr: errors.New("network")}
	m := NewManager(store, auth, WithClock(clock))

	m.Start(context.Background())

	assert.NotNil(t, m.Current())
	assert.Equal(t, 1, auth.refreshes)
}

func TestConcurrentChecksRefreshOnce(t *testing.T) {
	store := &memStore{s: sessionExpiringIn(time.Hour)}
	auth := &fakeAuth{next: &Session{UserID: 1, AccessToken: "fresh", RefreshToken: "refresh-2", ExpiresAt: now.Add(time.Hour)}}
	m := NewManager(store, auth, WithClock(clock))
	m.Start(context.Background())
	require.NoError(t, m.SignIn(context.Background(), sessionExpiringIn(5*time.Minute)))

	auth.mu.Lock()
	auth.refreshDelay = 20 * time.Millisecond
	auth.mu.Unlock()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Focus(context.Background())
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, auth.refreshes)
	assert.Equal(t, 1, auth.roleChecks)
	assert.Equal(t, "fresh", m.AccessToken())
}

func TestRunChecksPeriodically(t *testing.T) {
	store := &memStore{s: sessionExpiringIn(time.Hour)}
	auth := &fakeAuth{next: sessionExpiringIn(time.Hour)}
	m := NewManager(store, auth, WithClock(clock), WithCheckInterval(5*time.Millisecond), WithRefreshThreshold(2*time.Hour))
	m.Start(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		auth.mu.Lock()
		defer auth.mu.Unlock()
		return auth.refreshes >= 3
	}, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}

func TestAdminRoleResolvedOnUserChange(t *testing.T) {
	auth := &fakeAuth{admin: true}
	m := NewManager(&memStore{s: sessionExpiringIn(time.Hour)}, auth, WithClock(clock))
	m.Start(context.Background())
	assert.True(t, m.IsAdmin())
	assert.Equal(t, 1, auth.roleChecks)

	// Same user, new tokens: the role is not looked up again.
	require.NoError(t, m.SignIn(context.Background(), sessionExpiringIn(2*time.Hour)))
	assert.Equal(t, 1, auth.roleChecks)

	other := sessionExpiringIn(time.Hour)
	other.UserID = 2
	auth.admin = false
	require.NoError(t, m.SignIn(context.Background(), other))
	assert.False(t, m.IsAdmin())
	assert.Equal(t, 2, auth.roleChecks)
}

func TestAdminLookupFailsClosed(t *testing.T) {
	m := NewManager(&memStore{s: sessionExpiringIn(time.Hour)}, &fakeAuth{admin: true, adminErr: errors.New("db down")}, WithClock(clock))
	m.Start(context.Background())
	assert.False(t, m.IsAdmin())

	slow := NewManager(&memStore{s: sessionExpiringIn(time.Hour)}, &fakeAuth{admin: true, adminDelay: time.Second},
		WithClock(clock), WithRoleTimeout(10*time.Millisecond))
	slow.Start(context.Background())
	assert.False(t, slow.IsAdmin())
}

func TestAccessDecisions(t *testing.T) {
	ctx := context.Background()

	signedOut := NewManager(&memStore{}, &fakeAuth{}, WithClock(clock))
	signedOut.Start(ctx)
	d, err := signedOut.Access(ctx, "/notifications")
	require.NoError(t, err)
	assert.Equal(t, RedirectLogin, d)

	reader := NewManager(&memStore{s: sessionExpiringIn(time.Hour)}, &fakeAuth{}, WithClock(clock))
	reader.Start(ctx)
	d, _ = reader.Access(ctx, "/notifications")
	assert.Equal(t, Allow, d)
	d, _ = reader.Access(ctx, "/admin/articles")
	assert.Equal(t, RedirectHome, d)
	d, _ = reader.Access(ctx, "/administrators-guide")
	assert.Equal(t, Allow, d)

	admin := NewManager(&memStore{s: sessionExpiringIn(time.Hour)}, &fakeAuth{admin: true}, WithClock(clock))
	admin.Start(ctx)
	d, _ = admin.Access(ctx, "/admin")
	assert.Equal(t, Allow, d)
}

func TestAccessWaitsForStart(t *testing.T) {
	m := NewManager(&memStore{s: sessionExpiringIn(time.Hour)}, &fakeAuth{admin: true, adminDelay: 20 * time.Millisecond}, WithClock(clock))

	result := make(chan Decision, 1)
	go func() {
		d, _ := m.Access(context.Background(), "/admin")
		result <- d
	}()

	select {
	case <-result:
		t.Fatal("access decided before the session was resolved")
	case <-time.After(10 * time.Millisecond):
	}

	m.Start(context.Background())
	assert.Equal(t, Allow, <-result)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pending := NewManager(&memStore{}, &fakeAuth{})
	_, err := pending.Access(ctx, "/")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileStoreRoundTrip(t *testing.T) {
	store := FileStore{Path: filepath.Join(t.TempDir(), "nested", "session.json")}

	s, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, s)

	require.NoError(t, store.Save(sessionExpiringIn(time.Hour)))
	s, err = store.Load()
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "refresh", s.RefreshToken)

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())
}
