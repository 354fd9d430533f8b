package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/cinemaclub/internal/client/models"
	"github.com/dmitrijs2005/cinemaclub/internal/client/storage"
	"github.com/dmitrijs2005/cinemaclub/internal/common"
	"github.com/dmitrijs2005/cinemaclub/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

// fakeBackend issues rotating token pairs and guards /users/profile.
type fakeBackend struct {
	mu           sync.Mutex
	access       string
	refresh      string
	generation   int
	rejectAll    bool // every refresh fails
	unauthorized bool // profile always answers 401

	refreshCalls atomic.Int32
	logoutCalls  atomic.Int32
	lastAuth     atomic.Value
	lastReqID    atomic.Value

	// onRefresh runs inside the refresh handler before it answers.
	onRefresh func()
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{access: "access-0", refresh: "refresh-0"}
}

func (f *fakeBackend) pair() models.TokenPair {
	f.mu.Lock()
	defer f.mu.Unlock()
	return models.TokenPair{AccessToken: f.access, RefreshToken: f.refresh}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", common.ContentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (f *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		f.refreshCalls.Add(1)
		if f.onRefresh != nil {
			f.onRefresh()
		}

		var in models.RefreshRequest
		_ = json.NewDecoder(r.Body).Decode(&in)

		f.mu.Lock()
		defer f.mu.Unlock()

		if f.rejectAll || in.RefreshToken != f.refresh {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid refresh token"})
			return
		}
		f.generation++
		f.access = fmt.Sprintf("access-%d", f.generation)
		f.refresh = fmt.Sprintf("refresh-%d", f.generation)
		writeJSON(w, http.StatusOK, models.AuthResponse{AccessToken: f.access, RefreshToken: f.refresh})
	})

	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, r *http.Request) {
		f.logoutCalls.Add(1)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "token expired"})
	})

	mux.HandleFunc("GET /users/profile", func(w http.ResponseWriter, r *http.Request) {
		f.lastAuth.Store(r.Header.Get(common.AuthorizationHeader))
		f.lastReqID.Store(r.Header.Get(common.RequestIDHeader))

		f.mu.Lock()
		ok := !f.unauthorized && r.Header.Get(common.AuthorizationHeader) == common.BearerPrefix+f.access
		f.mu.Unlock()

		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "token expired"})
			return
		}
		writeJSON(w, http.StatusOK, models.ProfileResponse{User: &models.User{UserID: 1, Email: "a@b.c", Username: "ann"}})
	})

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		f.lastAuth.Store(r.Header.Get(common.AuthorizationHeader))
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("GET /boom", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "database is down"})
	})

	mux.HandleFunc("GET /teapot", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("not json"))
	})

	mux.HandleFunc("GET /garbage", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("{"))
	})

	return mux
}

type countingTerminator struct {
	calls atomic.Int32
}

func (c *countingTerminator) Terminate(context.Context) { c.calls.Add(1) }

type harness struct {
	backend *fakeBackend
	server  *httptest.Server
	store   *storage.Store
	term    *countingTerminator
	metrics *Metrics
	pipe    *Pipeline
	api     *API
}

func testBreaker(name string) BreakerConfig {
	return BreakerConfig{
		Name:         name,
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      time.Minute,
		FailureRatio: 0.5,
		MinRequests:  1000,
	}
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWithStorage(t, storage.NewMemoryBackend())
}

func newHarnessWithStorage(t *testing.T, b storage.Backend) *harness {
	t.Helper()

	h := &harness{
		backend: newFakeBackend(),
		store:   storage.NewStore(b),
		term:    &countingTerminator{},
		metrics: NewMetrics(prometheus.NewRegistry()),
	}
	h.server = httptest.NewServer(h.backend.handler())
	t.Cleanup(h.server.Close)

	tr := NewTransportWithClient(&http.Client{Timeout: 5 * time.Second}, testBreaker(t.Name()), h.metrics, logging.Nop{})
	pipe, err := NewPipeline(h.server.URL, tr, h.store, h.term, logging.Nop{})
	require.NoError(t, err)
	h.pipe = pipe
	h.api = NewAPI(pipe)
	return h
}

// login stores a pair the backend accepts for refresh but whose access
// token the backend no longer honors.
func (h *harness) loginWithExpiredAccess(t *testing.T) {
	t.Helper()
	require.NoError(t, h.store.SaveSession(context.Background(),
		models.TokenPair{AccessToken: "expired", RefreshToken: h.backend.pair().RefreshToken},
		[]byte(`{"user_id":1,"email":"a@b.c"}`)))
}

// gatedBackend pauses the first Get after arm until release is closed.
type gatedBackend struct {
	storage.Backend
	armed   atomic.Bool
	entered chan struct{}
	release chan struct{}
}

func newGatedBackend() *gatedBackend {
	return &gatedBackend{
		Backend: storage.NewMemoryBackend(),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (g *gatedBackend) Get(ctx context.Context, ns storage.Namespace, key string) ([]byte, error) {
	if g.armed.CompareAndSwap(true, false) {
		close(g.entered)
		<-g.release
	}
	return g.Backend.Get(ctx, ns, key)
}

func bearer(v any) string {
	s, _ := v.(string)
	return strings.TrimPrefix(s, common.BearerPrefix)
}
