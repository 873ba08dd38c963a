// Package session holds the signed-in user and token, persists the token,
// and keeps the realtime connection in step with authentication state.
package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/dmitrijs2005/notekeeper/internal/client/client"
	"github.com/dmitrijs2005/notekeeper/internal/client/models"
	"github.com/dmitrijs2005/notekeeper/internal/client/store"
	"github.com/dmitrijs2005/notekeeper/internal/client/ui"
	"github.com/dmitrijs2005/notekeeper/internal/client/validate"
	"github.com/dmitrijs2005/notekeeper/internal/common"
	"github.com/dmitrijs2005/notekeeper/internal/logging"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrTokenExpired     = errors.New("token expired or malformed")
)

// Realtime is the part of the realtime client the session drives.
type Realtime interface {
	Connect(token, userID string)
	Disconnect()
}

type Option func(*Session)

// WithClock overrides the time source used for token expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

type Session struct {
	api    client.Client
	tokens store.TokenStore
	rt     Realtime
	nav    ui.Navigator
	toast  ui.Toaster
	logger logging.Logger
	now    func() time.Time

	mu        sync.RWMutex
	token     string
	user      *models.User
	listeners []func(*models.User)
}

func New(api client.Client, tokens store.TokenStore, rt Realtime, nav ui.Navigator, toast ui.Toaster, logger logging.Logger, opts ...Option) *Session {
	s := &Session{
		api:    api,
		tokens: tokens,
		rt:     rt,
		nav:    nav,
		toast:  toast,
		logger: logger,
		now:    time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// OnChange registers fn to run after every sign-in and sign-out. fn gets
// nil on sign-out.
func (s *Session) OnChange(fn func(*models.User)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Session) notify(u *models.User) {
	s.mu.RLock()
	ls := slices.Clone(s.listeners)
	s.mu.RUnlock()
	for _, fn := range ls {
		fn(u)
	}
}

// User returns a copy of the signed-in user.
func (s *Session) User() (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return models.User{}, false
	}
	return *s.user, true
}

// UserID is "" when nobody is signed in.
func (s *Session) UserID() string {
	u, _ := s.User()
	return u.ID
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != "" && s.user != nil
}

// Login validates the credentials, signs in and opens the dashboard.
// Validation failures are returned as validate.Errors without a request.
func (s *Session) Login(ctx context.Context, email, password string) error {
	if err := validate.Login(email, password); err != nil {
		return err
	}

	resp, err := s.api.Login(ctx, models.LoginRequest{Email: email, Password: password})
	if err != nil {
		s.toast.Toast(ui.LevelError, client.UserMessage(err, "Login failed"))
		return fmt.Errorf("login: %w", err)
	}

	if err := s.establish(ctx, resp.Token); err != nil {
		return err
	}
	if u, ok := s.User(); ok {
		s.toast.Toast(ui.LevelSuccess, "Welcome back, "+u.DisplayName())
	}
	s.nav.Navigate(common.RouteDashboard)
	return nil
}

// Register creates the account. When the backend answers with a token the
// user is signed in directly, otherwise the login screen is shown.
func (s *Session) Register(ctx context.Context, username, email, password string) error {
	if err := validate.Register(username, email, password); err != nil {
		return err
	}

	resp, err := s.api.Register(ctx, models.RegisterRequest{Username: username, Email: email, Password: password})
	if err != nil {
		s.toast.Toast(ui.LevelError, client.UserMessage(err, "Registration failed"))
		return fmt.Errorf("register: %w", err)
	}

	if resp.Token == "" {
		s.toast.Toast(ui.LevelSuccess, "Registration successful, please log in")
		s.nav.Navigate(common.RouteLogin)
		return nil
	}

	if err := s.establish(ctx, resp.Token); err != nil {
		return err
	}
	s.toast.Toast(ui.LevelSuccess, "Account created")
	s.nav.Navigate(common.RouteDashboard)
	return nil
}

// establish persists token, loads the profile and connects realtime.
func (s *Session) establish(ctx context.Context, token string) error {
	if err := s.tokens.SetToken(ctx, token); err != nil {
		// the session still works for this run
		s.logger.Warn(ctx, "persist token failed", "error", err)
	}
	s.api.SetToken(token)

	u, err := s.api.Me(ctx)
	if err != nil {
		s.logger.Warn(ctx, "load profile failed", "error", err)
		s.clear(ctx)
		s.toast.Toast(ui.LevelError, client.UserMessage(err, "Could not load your profile"))
		return fmt.Errorf("load profile: %w", err)
	}

	s.signIn(token, u)
	return nil
}

func (s *Session) signIn(token string, u *models.User) {
	s.mu.Lock()
	s.token = token
	s.user = u
	s.mu.Unlock()

	s.rt.Connect(token, u.ID)
	s.notify(u)
}

// CheckAuth restores a session from the stored token. A missing, malformed
// or expired token is cleared and the login screen shown without asking the
// server; otherwise the server confirms the token with GET /auth/me.
func (s *Session) CheckAuth(ctx context.Context) error {
	token, err := s.tokens.Token(ctx)
	if err != nil {
		s.logger.Warn(ctx, "read stored token failed", "error", err)
	}
	if token == "" {
		s.nav.Navigate(common.RouteLogin)
		return ErrNotAuthenticated
	}

	if expired, err := s.expired(token); err != nil || expired {
		s.logger.Info(ctx, "stored token rejected", "expired", expired, "error", err)
		s.clear(ctx)
		s.nav.Navigate(common.RouteLogin)
		return ErrTokenExpired
	}

	s.api.SetToken(token)
	u, err := s.api.Me(ctx)
	switch {
	case err == nil:
	case errors.Is(err, client.ErrUnauthorized), errors.Is(err, client.ErrForbidden):
		s.clear(ctx)
		s.nav.Navigate(common.RouteLogin)
		return fmt.Errorf("%w: %v", ErrNotAuthenticated, err)
	default:
		// keep the token: the server may just be unreachable
		s.toast.Toast(ui.LevelError, client.UserMessage(err, "Could not verify your session"))
		return fmt.Errorf("confirm session: %w", err)
	}

	s.signIn(token, u)
	return nil
}

func (s *Session) expired(token string) (bool, error) {
	exp, ok, err := tokenExpiry(token)
	if err != nil {
		return false, err
	}
	return ok && !s.now().Before(exp), nil
}

// Logout signs out. The server call is best-effort.
func (s *Session) Logout(ctx context.Context) {
	if err := s.api.Logout(ctx); err != nil {
		s.logger.Debug(ctx, "logout request failed", "error", err)
	}
	s.clear(ctx)
	s.toast.Toast(ui.LevelInfo, "Logged out")
	s.nav.Navigate(common.RouteLogin)
}

// Expire forces a sign-out after the server rejected the token. Repeated
// calls for the same session toast once.
func (s *Session) Expire(ctx context.Context) {
	s.mu.RLock()
	active := s.token != ""
	s.mu.RUnlock()
	if !active {
		return
	}

	s.clear(ctx)
	s.toast.Toast(ui.LevelWarning, "Your session has expired, please log in again")
	s.nav.Navigate(common.RouteLogin)
}

func (s *Session) clear(ctx context.Context) {
	s.mu.Lock()
	wasSignedIn := s.user != nil
	s.token = ""
	s.user = nil
	s.mu.Unlock()

	// views still send their goodbyes over the open socket
	if wasSignedIn {
		s.notify(nil)
	}
	s.rt.Disconnect()

	s.api.SetToken("")
	if err := s.tokens.ClearToken(ctx); err != nil {
		s.logger.Warn(ctx, "clear stored token failed", "error", err)
	}
}
