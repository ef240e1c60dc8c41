// Package session owns the authenticated session: the bearer token, the user
// derived from it, and whether initialization from storage is still running.
//
// A Store is an explicit value handed to every consumer. State changes only
// through Login, Logout, UpdateProfile and Init, and every change is written
// through to storage immediately after it is applied in memory.
package session

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"sync"
	"time"

	"github.com/felixgeelhaar/retailctl/internal/backend"
	"github.com/felixgeelhaar/retailctl/internal/errors"
	"github.com/felixgeelhaar/retailctl/internal/log"
	"github.com/felixgeelhaar/retailctl/internal/rbac"
	"github.com/felixgeelhaar/retailctl/internal/storage"
	"github.com/felixgeelhaar/retailctl/internal/token"
)

// Backend is the part of the REST client the store needs.
type Backend interface {
	Login(ctx context.Context, req backend.LoginRequest) ([]byte, error)
	Register(ctx context.Context, req backend.RegisterRequest) ([]byte, error)
	UpdateUser(ctx context.Context, id string, fields map[string]any) ([]byte, error)
	ChangePassword(ctx context.Context, req backend.ChangePasswordRequest) error
	SetToken(token string)
	ClearToken()
}

// Credentials are the login form fields.
type Credentials struct {
	Username string
	Password string
}

// Registration are the sign-up form fields.
type Registration struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      string
}

// PasswordChange is a password change request.
type PasswordChange struct {
	Current string
	New     string
}

// State is a point-in-time copy of the session.
type State struct {
	Token   string
	User    *User
	Loading bool
}

// Authenticated reports whether a token is held.
func (s State) Authenticated() bool { return s.Token != "" }

// Store holds the session.
type Store struct {
	backend Backend
	storage storage.Storage
	nav     Navigator
	logger  *log.Logger
	now     func() time.Time

	mu      sync.RWMutex
	token   string
	user    *User
	loading bool
	// gen changes whenever Login or Logout commits; Init leaves the session
	// alone if it moved on while the stored token was being read.
	gen uint64
}

// Option configures a Store.
type Option func(*Store)

// WithNavigator sets the default navigation target.
func WithNavigator(nav Navigator) Option {
	return func(s *Store) { s.nav = nav }
}

// WithLogger sets the store logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithClock overrides the clock used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates a store in the loading state. Call Init before relying
// on State.
func NewStore(b Backend, st storage.Storage, opts ...Option) *Store {
	s := &Store{
		backend: b,
		storage: st,
		nav:     nopNavigator{},
		logger:  log.Discard(),
		now:     time.Now,
		loading: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns a snapshot of the session.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{Token: s.token, User: s.user.Clone(), Loading: s.loading}
}

// Init restores the session from storage. A token that cannot be decoded, or
// has already expired, is discarded silently. Loading is false once Init
// returns, whatever the outcome.
func (s *Store) Init(ctx context.Context) error {
	defer s.finishLoading()

	s.mu.RLock()
	gen := s.gen
	s.mu.RUnlock()

	raw, err := s.storage.Get(ctx, storage.KeyToken)
	if stderrors.Is(err, storage.ErrNotFound) {
		// A user record without a token is stale.
		return s.unlessChanged(ctx, gen, func() error {
			return s.storage.Delete(ctx, storage.KeyUser)
		})
	}
	if err != nil {
		return err
	}

	claims, ok := token.Decode(raw)
	if !ok || claims.Expired(s.now()) {
		s.logger.DebugContext(ctx, "discarding stored token", "decoded", ok)
		return s.unlessChanged(ctx, gen, func() error { return s.resetLocked(ctx) })
	}

	user := Project(claims, nil)
	if stored := s.loadUser(ctx); stored != nil && stored.ID == user.ID {
		user.Username = stored.Username
		user.Email = stored.Email
		user.FirstName = stored.FirstName
		user.LastName = stored.LastName
		if r, ok := rbac.ParseRole(string(stored.Role)); ok {
			user.setRole(r)
		}
	}

	return s.unlessChanged(ctx, gen, func() error {
		s.token = raw
		s.user = user
		s.backend.SetToken(raw)
		s.logger.DebugContext(ctx, "session restored", "user", user.Username, "role", user.Role)
		return s.persistUser(ctx, user)
	})
}

// unlessChanged runs fn with mu held if no login or logout committed since
// gen was read.
func (s *Store) unlessChanged(ctx context.Context, gen uint64, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		s.logger.DebugContext(ctx, "session changed during restore; keeping it")
		return nil
	}
	return fn()
}

func (s *Store) finishLoading() {
	s.mu.Lock()
	s.loading = false
	s.mu.Unlock()
}

func (s *Store) loadUser(ctx context.Context) *User {
	raw, err := s.storage.Get(ctx, storage.KeyUser)
	if err != nil {
		return nil
	}
	var u User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		s.logger.DebugContext(ctx, "ignoring unreadable stored user", "error", err)
		return nil
	}
	return &u
}

// Login authenticates with the backend and starts a session. On any failure
// the session is left untouched. A context canceled while the request was in
// flight aborts before anything is committed.
func (s *Store) Login(ctx context.Context, c Credentials) (*User, error) {
	body, err := s.backend.Login(ctx, backend.LoginRequest{Username: c.Username, Password: c.Password})
	if err != nil {
		return nil, err
	}

	raw, response, ok := ExtractToken(body)
	if !ok {
		return nil, errors.NewNoTokenError()
	}

	claims, ok := token.Decode(raw)
	if !ok {
		return nil, errors.NewInvalidTokenError()
	}

	user := Project(claims, response)

	if err := ctx.Err(); err != nil {
		return nil, errors.NewCanceledError(err)
	}

	s.mu.Lock()
	s.gen++
	s.token = raw
	s.user = user
	err = s.storage.Set(ctx, storage.KeyToken, raw)
	if err == nil {
		err = s.persistUser(ctx, user)
	}
	s.mu.Unlock()

	if err != nil {
		_ = s.reset(context.WithoutCancel(ctx))
		return nil, err
	}

	s.backend.SetToken(raw)
	s.logger.InfoContext(ctx, "logged in", "user", user.Username, "role", user.Role)
	s.navigate(ctx, ViewDashboard)
	return user.Clone(), nil
}

// Logout ends the session. Calling it without a session only signals
// navigation.
func (s *Store) Logout(ctx context.Context) error {
	err := s.reset(ctx)
	s.navigate(ctx, ViewLogin)
	return err
}

// reset clears memory, storage and the bearer token.
func (s *Store) reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resetLocked(ctx)
}

// resetLocked must be called with mu held.
func (s *Store) resetLocked(ctx context.Context) error {
	s.gen++
	s.token = ""
	s.user = nil
	s.backend.ClearToken()
	return s.storage.Delete(ctx, storage.KeyToken, storage.KeyUser)
}

// UpdateProfile sends patch to the backend for userID and, on success,
// merges it into the session user when userID is the session user. An empty
// userID means the current user.
func (s *Store) UpdateProfile(ctx context.Context, userID string, patch ProfilePatch) ([]byte, error) {
	current := s.State().User
	if current == nil {
		return nil, errors.NewNotLoggedInError()
	}
	if userID == "" {
		userID = current.ID
	}

	resp, err := s.backend.UpdateUser(ctx, userID, patch.Fields())
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.NewCanceledError(err)
	}

	if userID != current.ID {
		return resp, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// The session may have ended or changed hands while the request ran.
	if s.user == nil || s.user.ID != current.ID {
		return resp, nil
	}
	merged := s.user.Clone()
	patch.apply(merged)
	s.user = merged
	return resp, s.persistUser(ctx, merged)
}

// HasPermission reports whether the session user's role satisfies required.
func (s *Store) HasPermission(required rbac.Role) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return false
	}
	return rbac.HasPermission(s.user.Role, required)
}

// Register creates an account. The session is not changed.
func (s *Store) Register(ctx context.Context, r Registration) ([]byte, error) {
	return s.backend.Register(ctx, backend.RegisterRequest{
		Username:  r.Username,
		Email:     r.Email,
		Password:  r.Password,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Role:      r.Role,
	})
}

// ChangePassword changes the session user's password.
func (s *Store) ChangePassword(ctx context.Context, pc PasswordChange) error {
	if !s.State().Authenticated() {
		return errors.NewNotLoggedInError()
	}
	return s.backend.ChangePassword(ctx, backend.ChangePasswordRequest{
		CurrentPassword: pc.Current,
		NewPassword:     pc.New,
	})
}

// persistUser must be called with mu held.
func (s *Store) persistUser(ctx context.Context, u *User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return errors.Wrap(errors.ErrCodeMarshal, "failed to encode user", err)
	}
	return s.storage.Set(ctx, storage.KeyUser, string(data))
}

func (s *Store) navigate(ctx context.Context, v View) {
	if nav, ok := navigatorFromContext(ctx); ok {
		nav.Navigate(v)
		return
	}
	s.nav.Navigate(v)
}
