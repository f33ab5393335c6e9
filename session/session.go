// Package session owns the signed-in state: the bearer token, the user it
// belongs to, and the loading flag screens wait on at startup.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"datve-cli/access"
	"datve-cli/guard"
	"datve-cli/logger"
	"datve-cli/model"
	"datve-cli/service"
	"datve-cli/store"
)

var (
	ErrNotSignedIn = errors.New("not signed in")
	ErrNoUser      = errors.New("response carried no user")
)

// API is the part of the service client the session needs.
type API interface {
	Login(ctx context.Context, email, password string) (model.AuthResponse, error)
	Register(ctx context.Context, req model.RegisterRequest) (model.AuthResponse, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (*model.User, error)
	UpdateProfile(ctx context.Context, userID model.ID, update model.ProfileUpdate) (*model.User, error)
}

// Persistence stores the token and user as one record.
type Persistence interface {
	Load() (store.Session, error)
	Save(token string, user *model.User) error
	Clear() error
}

// Snapshot is a consistent read of the session.
type Snapshot struct {
	Token   string
	User    *model.User
	Loading bool
}

var _ service.Session = (*Manager)(nil)

type Manager struct {
	api     API
	persist Persistence
	nav     guard.Navigator
	log     *slog.Logger
	now     func() time.Time

	mu      sync.RWMutex
	token   string
	user    *model.User
	loading bool
}

func NewManager(api API, persist Persistence, nav guard.Navigator, log *slog.Logger) *Manager {
	if log == nil {
		log = logger.Discard()
	}
	if nav == nil {
		nav = guard.NavigatorFunc(func(guard.Redirect) {})
	}
	return &Manager{
		api:     api,
		persist: persist,
		nav:     nav,
		log:     log,
		now:     time.Now,
		loading: true,
	}
}

// SetNavigator swaps the navigation target, e.g. once the UI is running.
func (m *Manager) SetNavigator(nav guard.Navigator) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if nav != nil {
		m.nav = nav
	}
}

func (m *Manager) navigator() guard.Navigator {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.nav
}

// Initialize restores the persisted session. It always ends with loading
// cleared, whatever happened on the way.
func (m *Manager) Initialize(ctx context.Context) {
	defer func() {
		m.mu.Lock()
		m.loading = false
		m.mu.Unlock()
	}()

	saved, err := m.persist.Load()
	if err != nil {
		m.log.WarnContext(ctx, "discarding unreadable session", "error", err)
		m.clear(ctx)
		return
	}
	if saved.Empty() {
		return
	}
	if m.expired(saved.Token) {
		m.log.InfoContext(ctx, "persisted token expired")
		m.clear(ctx)
		return
	}

	m.mu.Lock()
	m.token = saved.Token
	m.user = saved.User
	m.mu.Unlock()

	if saved.User != nil {
		return
	}

	user, err := m.api.CurrentUser(ctx)
	if err != nil {
		if service.IsUnauthorized(err) {
			m.log.InfoContext(ctx, "persisted token rejected")
			m.clear(ctx)
			return
		}
		m.log.ErrorContext(ctx, "fetch current user", "error", err)
		return
	}
	m.set(ctx, saved.Token, user)
}

// expired peeks at the exp claim without verifying the signature. Tokens that
// are not JWTs never expire locally.
func (m *Manager) expired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !exp.After(m.now())
}

// Login signs in and moves to the role's landing route. Customers go to
// returnTo when one is given.
func (m *Manager) Login(ctx context.Context, email, password, returnTo string) (bool, error) {
	resp, err := m.api.Login(ctx, email, password)
	if err != nil {
		m.log.InfoContext(ctx, "login failed", "error", err)
		return false, err
	}
	if resp.User == nil {
		return false, ErrNoUser
	}
	if err := m.set(ctx, resp.Token, resp.User); err != nil {
		return false, err
	}
	m.log.InfoContext(logger.SetUserID(ctx, resp.User.Id.String()), "signed in", "role", resp.User.Role.String())

	target := guard.HomePath(resp.User.Role)
	if resp.User.Role == model.RoleCustomer && returnTo != "" {
		target = returnTo
	}
	m.navigator().Navigate(guard.Redirect{Path: target})
	return true, nil
}

func (m *Manager) Register(ctx context.Context, req model.RegisterRequest) (bool, error) {
	resp, err := m.api.Register(ctx, req)
	if err != nil {
		m.log.InfoContext(ctx, "register failed", "error", err)
		return false, err
	}
	user := resp.User
	if user == nil {
		user, err = m.fetchUser(ctx, resp.Token)
		if err != nil {
			return false, err
		}
	}
	if err := m.set(ctx, resp.Token, user); err != nil {
		return false, err
	}
	m.navigator().Navigate(guard.Redirect{Path: guard.HomePath(user.Role)})
	return true, nil
}

// fetchUser looks up the owner of token without touching the current
// session, so a failed lookup leaves whoever was signed in untouched.
func (m *Manager) fetchUser(ctx context.Context, token string) (*model.User, error) {
	user, err := m.api.CurrentUser(service.WithToken(ctx, token))
	if err != nil {
		return nil, fmt.Errorf("fetch registered user: %w", err)
	}
	if user == nil {
		return nil, ErrNoUser
	}
	return user, nil
}

// Logout tells the backend and then clears local state no matter what the
// backend said.
func (m *Manager) Logout(ctx context.Context) {
	if m.Token() != "" {
		if err := m.api.Logout(ctx); err != nil {
			m.log.WarnContext(ctx, "logout request failed", "error", err)
		}
	}
	m.clear(ctx)
}

func (m *Manager) UpdateProfile(ctx context.Context, update model.ProfileUpdate) (*model.User, error) {
	current := m.User()
	token := m.Token()
	if current == nil || token == "" {
		return nil, ErrNotSignedIn
	}
	updated, err := m.api.UpdateProfile(ctx, current.Id, update)
	if err != nil {
		return nil, err
	}
	if updated.Role == model.RoleNone {
		updated.Role = current.Role
	}
	if updated.TheaterId.IsZero() {
		updated.TheaterId = current.TheaterId
	}
	if err := m.set(ctx, token, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// HandleAuthFailure is the central recovery for rejected requests. A 401
// clears the session once per token; a 403 keeps it.
func (m *Manager) HandleAuthFailure(f service.AuthFailure) {
	ctx := context.Background()
	switch f.Status {
	case http.StatusUnauthorized:
		m.mu.Lock()
		if m.token == "" || (f.Token != "" && f.Token != m.token) {
			m.mu.Unlock()
			return
		}
		m.token = ""
		m.user = nil
		m.mu.Unlock()

		if err := m.persist.Clear(); err != nil {
			m.log.ErrorContext(ctx, "clear session", "error", err)
		}
		m.log.InfoContext(ctx, "session rejected", "endpoint", f.Endpoint)
		m.navigator().Navigate(guard.Redirect{Path: guard.PathLogin, ReturnTo: f.ReturnTo})
	case http.StatusForbidden:
		m.log.InfoContext(ctx, "request forbidden", "endpoint", f.Endpoint)
		m.navigator().Navigate(guard.Redirect{Path: guard.PathUnauthorized})
	}
}

func (m *Manager) set(ctx context.Context, token string, user *model.User) error {
	if strings.TrimSpace(token) == "" {
		return errors.New("empty token")
	}
	if err := m.persist.Save(token, user); err != nil {
		m.log.ErrorContext(ctx, "persist session", "error", err)
		return fmt.Errorf("persist session: %w", err)
	}
	m.mu.Lock()
	m.token = token
	m.user = user
	m.mu.Unlock()
	return nil
}

func (m *Manager) clear(ctx context.Context) {
	m.mu.Lock()
	m.token = ""
	m.user = nil
	m.mu.Unlock()
	if err := m.persist.Clear(); err != nil {
		m.log.ErrorContext(ctx, "clear session", "error", err)
	}
}

func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// User returns a copy of the signed-in user, or nil.
func (m *Manager) User() *model.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

func (m *Manager) Loading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loading
}

func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var user *model.User
	if m.user != nil {
		u := *m.user
		user = &u
	}
	return Snapshot{Token: m.token, User: user, Loading: m.loading}
}

func (m *Manager) HasRole(role model.Role) bool {
	return access.HasRole(m.User(), role)
}

func (m *Manager) HasPermission(perm access.Permission) bool {
	return access.HasPermission(m.User(), perm)
}

func (m *Manager) HasAnyPermission(perms ...access.Permission) bool {
	return access.HasAnyPermission(m.User(), perms...)
}

func (m *Manager) HasAllPermissions(perms ...access.Permission) bool {
	return access.HasAllPermissions(m.User(), perms...)
}
