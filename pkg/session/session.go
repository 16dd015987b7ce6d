// Package session keeps a client's tokens fresh and answers route access
// questions once the signed-in user and their role are known.
package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/anonto42/inkwell/backend/internal/logger"
	"go.uber.org/zap"
)

const (
	DefaultCheckInterval    = 2 * time.Minute
	DefaultRefreshThreshold = 10 * time.Minute
	DefaultRoleTimeout      = 3 * time.Second
)

// Session is a signed-in token pair.
type Session struct {
	UserID       uint      `json:"user_id"`
	Email        string    `json:"email"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Store persists the session between runs. Load returns nil, nil when no
// session is stored.
type Store interface {
	Load() (*Session, error)
	Save(*Session) error
	Clear() error
}

// Authenticator talks to the API on the manager's behalf.
type Authenticator interface {
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
	IsAdmin(ctx context.Context, accessToken string) (bool, error)
}

// Decision is the outcome of an access check.
type Decision int

const (
	Allow Decision = iota
	RedirectLogin
	RedirectHome
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect_login"
	case RedirectHome:
		return "redirect_home"
	}
	return "unknown"
}

// Manager owns the current session.
type Manager struct {
	store       Store
	auth        Authenticator
	interval    time.Duration
	threshold   time.Duration
	roleTimeout time.Duration
	now         func() time.Time

	// transition serialises session changes. A refresh token is spent at
	// most once.
	transition sync.Mutex

	mu      sync.RWMutex
	current *Session
	isAdmin bool

	ready     chan struct{}
	readyOnce sync.Once
}

type Option func(*Manager)

func WithCheckInterval(d time.Duration) Option {
	return func(m *Manager) { m.interval = d }
}

func WithRefreshThreshold(d time.Duration) Option {
	return func(m *Manager) { m.threshold = d }
}

func WithRoleTimeout(d time.Duration) Option {
	return func(m *Manager) { m.roleTimeout = d }
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func NewManager(store Store, auth Authenticator, opts ...Option) *Manager {
	m := &Manager{
		store:       store,
		auth:        auth,
		interval:    DefaultCheckInterval,
		threshold:   DefaultRefreshThreshold,
		roleTimeout: DefaultRoleTimeout,
		now:         time.Now,
		ready:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start resolves the initial session: the stored one while it is still
// valid, otherwise a refresh, otherwise signed out. The role is resolved
// before Start returns.
func (m *Manager) Start(ctx context.Context) {
	defer m.markReady()
	m.transition.Lock()
	defer m.transition.Unlock()

	stored, err := m.store.Load()
	if err != nil {
		logger.WarnWithFields("failed to load stored session", err)
	}
	if stored == nil {
		m.set(ctx, nil)
		return
	}
	if m.now().Before(stored.ExpiresAt) {
		m.set(ctx, stored)
		m.checkLocked(ctx)
		return
	}
	m.refresh(ctx, stored)
}

// Run checks the session every interval until ctx is done.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.check(ctx)
		}
	}
}

// Focus runs the periodic check immediately, for when the client becomes
// active again.
func (m *Manager) Focus(ctx context.Context) {
	m.check(ctx)
}

// SignIn installs a session obtained from a sign-in call.
func (m *Manager) SignIn(ctx context.Context, s *Session) error {
	m.transition.Lock()
	defer m.transition.Unlock()
	if err := m.store.Save(s); err != nil {
		return err
	}
	m.set(ctx, s)
	m.markReady()
	return nil
}

func (m *Manager) SignOut(ctx context.Context) error {
	m.transition.Lock()
	defer m.transition.Unlock()
	m.set(ctx, nil)
	return m.store.Clear()
}

// Current returns the session, or nil when signed out.
func (m *Manager) Current() *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return nil
	}
	s := *m.current
	return &s
}

func (m *Manager) IsAdmin() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.isAdmin
}

// AccessToken returns the current access token or "".
func (m *Manager) AccessToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return ""
	}
	return m.current.AccessToken
}

// Access waits until the session and role are resolved and decides whether
// path may be visited. Paths under /admin need the admin role.
func (m *Manager) Access(ctx context.Context, path string) (Decision, error) {
	select {
	case <-m.ready:
	case <-ctx.Done():
		return RedirectLogin, ctx.Err()
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	switch {
	case m.current == nil:
		return RedirectLogin, nil
	case isAdminPath(path) && !m.isAdmin:
		return RedirectHome, nil
	}
	return Allow, nil
}

func isAdminPath(path string) bool {
	return path == "/admin" || strings.HasPrefix(path, "/admin/")
}

func (m *Manager) check(ctx context.Context) {
	m.transition.Lock()
	defer m.transition.Unlock()
	m.checkLocked(ctx)
}

// checkLocked, refresh and set must be called with transition held.
func (m *Manager) checkLocked(ctx context.Context) {
	s := m.Current()
	if s == nil {
		return
	}
	if s.ExpiresAt.Sub(m.now()) >= m.threshold {
		return
	}
	m.refresh(ctx, s)
}

// refresh exchanges the refresh token. A failed refresh signs the user out
// once the access token has expired; before that the next check retries.
func (m *Manager) refresh(ctx context.Context, s *Session) {
	next, err := m.auth.Refresh(ctx, s.RefreshToken)
	if err != nil {
		logger.WarnWithFields("session refresh failed", err, zap.Uint("user_id", s.UserID))
		if !m.now().Before(s.ExpiresAt) {
			m.set(ctx, nil)
			if err := m.store.Clear(); err != nil {
				logger.WarnWithFields("failed to clear stored session", err)
			}
		}
		return
	}

	if err := m.store.Save(next); err != nil {
		logger.WarnWithFields("failed to store refreshed session", err)
	}
	m.set(ctx, next)
}

// set replaces the session and re-derives the admin flag when the user
// changed.
func (m *Manager) set(ctx context.Context, s *Session) {
	m.mu.RLock()
	prev := m.current
	m.mu.RUnlock()

	sameUser := prev != nil && s != nil && prev.UserID == s.UserID
	isAdmin := false
	if sameUser {
		isAdmin = m.IsAdmin()
	} else if s != nil {
		isAdmin = m.lookupAdmin(ctx, s.AccessToken)
	}

	m.mu.Lock()
	m.current = s
	m.isAdmin = isAdmin
	m.mu.Unlock()
}

func (m *Manager) lookupAdmin(ctx context.Context, accessToken string) bool {
	ctx, cancel := context.WithTimeout(ctx, m.roleTimeout)
	defer cancel()

	isAdmin, err := m.auth.IsAdmin(ctx, accessToken)
	if err != nil {
		logger.WarnWithFields("role lookup failed", err)
		return false
	}
	return isAdmin
}

func (m *Manager) markReady() {
	m.readyOnce.Do(func() { close(m.ready) })
}
