// Package session implements the session controller: the single owner of
// "who is logged in". It performs login, registration, logout and profile
// updates, reconciles stored credentials at startup, and publishes state
// changes to subscribers.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/dmitrijs2005/cinemaclub/internal/client/client"
	"github.com/dmitrijs2005/cinemaclub/internal/client/models"
	"github.com/dmitrijs2005/cinemaclub/internal/client/storage"
	"github.com/dmitrijs2005/cinemaclub/internal/logging"
	"github.com/dmitrijs2005/cinemaclub/internal/validation"
)

// Status is the controller's lifecycle state.
type Status int

const (
	Initializing Status = iota
	Anonymous
	Authenticated
)

func (s Status) String() string {
	switch s {
	case Initializing:
		return "initializing"
	case Anonymous:
		return "anonymous"
	case Authenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Session is a snapshot of the controller state.
type Session struct {
	User      *models.User
	Status    Status
	IsLoading bool
}

// IsAuthenticated reports whether a user is present.
func (s Session) IsAuthenticated() bool {
	return s.User != nil
}

// API is the part of the backend the controller talks to.
type API interface {
	Register(ctx context.Context, in models.RegisterRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, in models.LoginRequest) (*models.AuthResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	GetProfile(ctx context.Context) (*models.User, error)
	UpdateProfile(ctx context.Context, in models.UpdateProfileRequest) (*models.User, error)
}

// Controller owns the session state.
//
// Mutating operations are serialized by opMu. State reads and the pipeline's
// Terminate callback use only mu, so Terminate may run while an operation
// holds opMu.
type Controller struct {
	store  *storage.Store
	logger logging.Logger

	opMu sync.Mutex

	mu        sync.RWMutex
	api       API
	state     Session
	disposed  bool
	listeners map[int]func(Session)
	nextID    int
}

var _ client.SessionTerminator = (*Controller)(nil)

func NewController(store *storage.Store, logger logging.Logger) *Controller {
	return &Controller{
		store:     store,
		logger:    logger,
		state:     Session{Status: Initializing, IsLoading: true},
		listeners: make(map[int]func(Session)),
	}
}

// Session returns the current state.
func (c *Controller) Session() Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot()
}

func (c *Controller) snapshot() Session {
	s := c.state
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

// Subscribe registers fn for state changes. fn runs synchronously on the
// goroutine that changed the state and must not call back into mutating
// operations.
func (c *Controller) Subscribe(fn func(Session)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.nextID++
	c.listeners[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

// update applies fn to the state under mu and notifies subscribers when fn
// reports a change.
func (c *Controller) update(fn func(*Session) bool) {
	c.mu.Lock()
	if c.disposed || !fn(&c.state) {
		c.mu.Unlock()
		return
	}
	snap := c.snapshot()
	listeners := make([]func(Session), 0, len(c.listeners))
	for _, l := range c.listeners {
		listeners = append(listeners, l)
	}
	c.mu.Unlock()

	for _, l := range listeners {
		l(snap)
	}
}

func (c *Controller) setLoading(v bool) {
	c.update(func(s *Session) bool {
		s.IsLoading = v
		return true
	})
}

func (c *Controller) setAuthenticated(u *models.User, loading bool) {
	c.update(func(s *Session) bool {
		s.User = u
		s.Status = Authenticated
		s.IsLoading = loading
		return true
	})
}

func (c *Controller) setAnonymous() {
	c.update(func(s *Session) bool {
		s.User = nil
		s.Status = Anonymous
		s.IsLoading = false
		return true
	})
}

// ready returns the API once Init has run.
func (c *Controller) ready() (API, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.disposed {
		return nil, translate(ErrDisposed, "")
	}
	if c.api == nil {
		return nil, translate(ErrNotInitialized, "")
	}
	return c.api, nil
}

// Init attaches the API and reconciles stored credentials with the
// backend. It leaves the controller Authenticated or Anonymous.
//
// A cached profile is shown immediately and then validated with a profile
// fetch. A rejected token clears everything. When the backend cannot be
// reached the cached profile is kept; without one the session is dropped.
func (c *Controller) Init(ctx context.Context, api API) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return translate(ErrDisposed, "")
	}
	c.api = api
	c.mu.Unlock()

	pair, err := c.store.Tokens(ctx)
	if err != nil {
		c.logger.Error(ctx, "read stored credentials", "error", err)
		c.setAnonymous()
		return translate(err, MsgStorage)
	}
	if !pair.Valid() {
		// drops an orphaned half-pair or profile left by older versions
		if err := c.store.Clear(ctx); err != nil {
			c.logger.Warn(ctx, "clear stale credentials", "error", err)
		}
		c.setAnonymous()
		return nil
	}

	cached := c.cachedProfile(ctx)
	if cached != nil {
		c.setAuthenticated(cached, true)
	}

	user, err := api.GetProfile(ctx)
	switch {
	case err == nil:
		if err := c.saveProfile(ctx, user); err != nil {
			c.logger.Warn(ctx, "cache profile", "error", err)
		}
		c.setAuthenticated(user, false)
		c.logger.Info(ctx, "session restored", "user_id", user.UserID)

	case cached != nil && transient(err):
		c.logger.Warn(ctx, "profile check failed, using cached profile", "error", err)
		c.setAuthenticated(cached, false)

	default:
		c.logger.Info(ctx, "stored session rejected", "error", err)
		if err := c.store.Clear(ctx); err != nil {
			c.logger.Error(ctx, "clear credentials", "error", err)
		}
		c.setAnonymous()
	}
	return nil
}

// transient reports failures that say nothing about token validity.
func transient(err error) bool {
	if errors.Is(err, client.ErrNetwork) {
		return true
	}
	status := client.StatusOf(err)
	return status >= 500
}

func (c *Controller) cachedProfile(ctx context.Context) *models.User {
	data, err := c.store.GetProfile(ctx)
	if err != nil {
		c.logger.Warn(ctx, "read cached profile", "error", err)
		return nil
	}
	if data == nil {
		return nil
	}

	var u models.User
	if err := json.Unmarshal(data, &u); err != nil || u.Validate() != nil {
		c.logger.Warn(ctx, "cached profile is unreadable")
		return nil
	}
	return &u
}

func (c *Controller) saveProfile(ctx context.Context, u *models.User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return c.store.SetProfile(ctx, data)
}

// Dispose detaches all subscribers. Later operations fail with ErrDisposed
// and Terminate becomes a no-op.
func (c *Controller) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.disposed = true
	c.listeners = map[int]func(Session){}
}

// Login authenticates and stores the returned session. On failure the
// state is left as it was.
func (c *Controller) Login(ctx context.Context, email, password string) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	api, err := c.ready()
	if err != nil {
		return err
	}

	req := models.LoginRequest{Email: strings.TrimSpace(email), Password: password}
	if err := validation.Validate(req); err != nil {
		return translate(err, "")
	}

	c.setLoading(true)
	defer c.setLoading(false)

	resp, err := api.Login(ctx, req)
	if err != nil {
		c.logger.Info(ctx, "login failed", "error", err)
		return translate(err, "Login failed")
	}
	return c.establish(ctx, resp)
}

// Register validates in, creates the account and stores the returned
// session. Invalid input is rejected without a request.
func (c *Controller) Register(ctx context.Context, in models.RegisterRequest) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	api, err := c.ready()
	if err != nil {
		return err
	}

	in.Email = strings.TrimSpace(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	if err := validation.Validate(in); err != nil {
		return translate(err, "")
	}

	c.setLoading(true)
	defer c.setLoading(false)

	resp, err := api.Register(ctx, in)
	if err != nil {
		c.logger.Info(ctx, "registration failed", "error", err)
		return translate(err, "Registration failed")
	}
	return c.establish(ctx, resp)
}

func (c *Controller) establish(ctx context.Context, resp *models.AuthResponse) error {
	profile, err := json.Marshal(resp.User)
	if err != nil {
		return translate(err, MsgMalformed)
	}
	if err := c.store.SaveSession(ctx, resp.Tokens(), profile); err != nil {
		c.logger.Error(ctx, "store session", "error", err)
		return translate(err, MsgStorage)
	}

	c.setAuthenticated(resp.User, true)
	c.logger.Info(ctx, "logged in", "user_id", resp.User.UserID)
	return nil
}

// Logout revokes the refresh token on the backend when possible and always
// clears local credentials. It never fails.
func (c *Controller) Logout(ctx context.Context) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	api, err := c.ready()
	if errors.Is(err, ErrDisposed) {
		return
	}

	c.setLoading(true)

	pair, err := c.store.Tokens(ctx)
	if err != nil {
		c.logger.Warn(ctx, "read credentials for logout", "error", err)
	}
	if api != nil && pair.RefreshToken != "" {
		if err := api.Logout(ctx, pair.RefreshToken); err != nil {
			c.logger.Warn(ctx, "remote logout failed", "error", err)
		}
	}

	if err := c.store.Clear(context.WithoutCancel(ctx)); err != nil {
		c.logger.Error(ctx, "clear credentials on logout", "error", err)
	}
	c.setAnonymous()
	c.logger.Info(ctx, "logged out")
}

// UpdateUser changes profile fields and caches the server's record. Tokens
// are not touched.
func (c *Controller) UpdateUser(ctx context.Context, in models.UpdateProfileRequest) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	api, err := c.ready()
	if err != nil {
		return err
	}
	if !c.Session().IsAuthenticated() {
		return &Error{Kind: KindAuthentication, Message: MsgNotLoggedIn, Err: ErrNotLoggedIn}
	}
	if err := validation.Validate(in); err != nil {
		return translate(err, "")
	}

	user, err := api.UpdateProfile(ctx, in)
	if err != nil {
		return c.profileFailure(ctx, err, "Profile update failed")
	}
	if err := c.saveProfile(ctx, user); err != nil {
		return translate(err, MsgStorage)
	}

	c.setAuthenticated(user, false)
	return nil
}

// RefreshUser re-fetches the profile from the backend.
func (c *Controller) RefreshUser(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	api, err := c.ready()
	if err != nil {
		return err
	}
	if !c.Session().IsAuthenticated() {
		return &Error{Kind: KindAuthentication, Message: MsgNotLoggedIn, Err: ErrNotLoggedIn}
	}

	user, err := api.GetProfile(ctx)
	if err != nil {
		return c.profileFailure(ctx, err, "Could not load profile")
	}
	if err := c.saveProfile(ctx, user); err != nil {
		return translate(err, MsgStorage)
	}

	c.setAuthenticated(user, false)
	return nil
}

// profileFailure ends the session when the backend keeps rejecting a
// freshly refreshed token.
func (c *Controller) profileFailure(ctx context.Context, err error, fallback string) error {
	if errors.Is(err, client.ErrSessionExpired) {
		if cerr := c.store.Clear(ctx); cerr != nil {
			c.logger.Error(ctx, "clear credentials", "error", cerr)
		}
		c.setAnonymous()
	}
	return translate(err, fallback)
}

// Terminate drops the session after the pipeline failed to refresh it. It
// is a no-op when a valid pair is stored, which means a newer login won.
func (c *Controller) Terminate(ctx context.Context) {
	c.update(func(s *Session) bool {
		// read under mu so a concurrent login cannot be overwritten
		pair, err := c.store.Tokens(ctx)
		if err == nil && pair.Valid() {
			c.logger.Debug(ctx, "terminate ignored, session replaced")
			return false
		}
		if s.Status == Anonymous && s.User == nil {
			return false
		}
		s.User = nil
		s.Status = Anonymous
		c.logger.Info(ctx, "session terminated")
		return true
	})
}
