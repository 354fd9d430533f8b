package session_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/cinemaclub/internal/client/client"
	"github.com/dmitrijs2005/cinemaclub/internal/client/models"
	"github.com/dmitrijs2005/cinemaclub/internal/client/session"
	"github.com/dmitrijs2005/cinemaclub/internal/client/storage"
	"github.com/dmitrijs2005/cinemaclub/internal/devserver"
	"github.com/dmitrijs2005/cinemaclub/internal/devserver/config"
	"github.com/dmitrijs2005/cinemaclub/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type stack struct {
	dev    *devserver.Server
	url    string
	store  *storage.Store
	ctrl   *session.Controller
	api    *client.API
	events atomic.Int32
}

func newBackend(t *testing.T) (*devserver.Server, string) {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.BcryptCost = bcrypt.MinCost
	cfg.AuthRateLimit = 0

	dev := devserver.New(cfg, logging.Nop{})
	ts := httptest.NewServer(dev.Handler())
	t.Cleanup(ts.Close)
	return dev, ts.URL
}

// newStack wires a controller to the backend the way cmd/cli does.
func newStack(t *testing.T, dev *devserver.Server, url string, store *storage.Store) *stack {
	t.Helper()

	s := &stack{dev: dev, url: url, store: store}
	s.ctrl = session.NewController(store, logging.Nop{})

	bc := client.DefaultTransportConfig().Breaker
	bc.Name = t.Name()
	tr := client.NewTransportWithClient(&http.Client{Timeout: 5 * time.Second}, bc, client.NewMetrics(prometheus.NewRegistry()), logging.Nop{})

	pipe, err := client.NewPipeline(url, tr, store, s.ctrl, logging.Nop{})
	require.NoError(t, err)
	s.api = client.NewAPI(pipe)

	unsubscribe := s.ctrl.Subscribe(func(session.Session) { s.events.Add(1) })
	t.Cleanup(unsubscribe)
	return s
}

func registerA(t *testing.T, s *stack) {
	t.Helper()
	err := s.ctrl.Register(context.Background(), models.RegisterRequest{
		Email:                "a@b.com",
		Password:             "password1",
		PasswordConfirmation: "password1",
		Username:             "a",
	})
	require.NoError(t, err)
}

func TestScenarioA_Register(t *testing.T) {
	dev, url := newBackend(t)
	s := newStack(t, dev, url, storage.NewStore(storage.NewMemoryBackend()))
	ctx := context.Background()
	require.NoError(t, s.ctrl.Init(ctx, s.api))
	assert.Equal(t, session.Anonymous, s.ctrl.Session().Status)

	registerA(t, s)

	got := s.ctrl.Session()
	assert.Equal(t, session.Authenticated, got.Status)
	require.NotNil(t, got.User)
	assert.Equal(t, "a", got.User.Username)

	pair, err := s.store.Tokens(ctx)
	require.NoError(t, err)
	assert.True(t, pair.Valid())
	assert.Positive(t, s.events.Load())
}

func TestScenarioB_BadCredentials(t *testing.T) {
	dev, url := newBackend(t)
	s := newStack(t, dev, url, storage.NewStore(storage.NewMemoryBackend()))
	require.NoError(t, s.ctrl.Init(context.Background(), s.api))

	err := s.ctrl.Login(context.Background(), "bad@x.com", "wrong")
	require.Error(t, err)
	assert.Equal(t, "Invalid credentials", err.Error())
	assert.Equal(t, session.KindAuthentication, session.KindOf(err))
	assert.Equal(t, session.Anonymous, s.ctrl.Session().Status)
}

func TestScenarioC_StartupRefreshesExpiredAccessToken(t *testing.T) {
	dev, url := newBackend(t)
	store := storage.NewStore(storage.NewMemoryBackend())
	ctx := context.Background()

	first := newStack(t, dev, url, store)
	require.NoError(t, first.ctrl.Init(ctx, first.api))
	registerA(t, first)
	before, err := store.Tokens(ctx)
	require.NoError(t, err)

	// restart: a new controller over the same store, access token expired
	dev.ExpireAccessTokens()
	second := newStack(t, dev, url, store)
	require.NoError(t, second.ctrl.Init(ctx, second.api))

	got := second.ctrl.Session()
	assert.Equal(t, session.Authenticated, got.Status)
	assert.False(t, got.IsLoading)
	require.NotNil(t, got.User)
	assert.Equal(t, "a", got.User.Username)

	after, err := store.Tokens(ctx)
	require.NoError(t, err)
	assert.True(t, after.Valid())
	assert.NotEqual(t, before.RefreshToken, after.RefreshToken, "refresh token rotated")
	assert.NotEqual(t, before.AccessToken, after.AccessToken)
}

func TestRefreshFailureEndsSession(t *testing.T) {
	dev, url := newBackend(t)
	s := newStack(t, dev, url, storage.NewStore(storage.NewMemoryBackend()))
	ctx := context.Background()
	require.NoError(t, s.ctrl.Init(ctx, s.api))
	registerA(t, s)

	pair, err := s.store.Tokens(ctx)
	require.NoError(t, err)

	// revoke the refresh token behind the client's back
	body, _ := json.Marshal(models.RefreshRequest{RefreshToken: pair.RefreshToken})
	resp, err := http.Post(url+"/auth/logout", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	dev.ExpireAccessTokens()

	err = s.ctrl.RefreshUser(ctx)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, client.StatusOf(err))

	assert.Equal(t, session.Anonymous, s.ctrl.Session().Status)
	assert.Nil(t, s.ctrl.Session().User)

	left, err := s.store.Tokens(ctx)
	require.NoError(t, err)
	assert.True(t, left.IsZero())
	profile, err := s.store.GetProfile(ctx)
	require.NoError(t, err)
	assert.Nil(t, profile)
}

func TestUpdateAndLogoutAgainstBackend(t *testing.T) {
	dev, url := newBackend(t)
	s := newStack(t, dev, url, storage.NewStore(storage.NewMemoryBackend()))
	ctx := context.Background()
	require.NoError(t, s.ctrl.Init(ctx, s.api))
	registerA(t, s)

	before, err := s.store.Tokens(ctx)
	require.NoError(t, err)

	require.NoError(t, s.ctrl.UpdateUser(ctx, models.UpdateProfileRequest{Username: models.Ptr("x")}))
	assert.Equal(t, "x", s.ctrl.Session().User.Username)

	after, err := s.store.Tokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	s.ctrl.Logout(ctx)
	assert.Equal(t, session.Anonymous, s.ctrl.Session().Status)

	// the revoked refresh token is useless now
	_, err = s.api.Refresh(ctx, before.RefreshToken)
	assert.Equal(t, http.StatusUnauthorized, client.StatusOf(err))
}
