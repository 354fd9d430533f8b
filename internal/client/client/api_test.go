package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/cinemaclub/internal/client/models"
	"github.com/dmitrijs2005/cinemaclub/internal/client/storage"
	"github.com/dmitrijs2005/cinemaclub/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	mu     sync.Mutex
	method string
	path   string
	query  string
	body   []byte
}

func (r *recorded) snapshot() recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	return recorded{method: r.method, path: r.path, query: r.query, body: r.body}
}

// newRecordingAPI answers every request with reply and records it.
func newRecordingAPI(t *testing.T, status int, reply any) (*API, *recorded) {
	t.Helper()

	rec := &recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		rec.mu.Lock()
		rec.method, rec.path, rec.query, rec.body = r.Method, r.URL.Path, r.URL.RawQuery, body
		rec.mu.Unlock()
		writeJSON(w, status, reply)
	}))
	t.Cleanup(srv.Close)

	tr := NewTransportWithClient(&http.Client{Timeout: 5 * time.Second}, testBreaker(t.Name()), NewMetrics(nil), logging.Nop{})
	pipe, err := NewPipeline(srv.URL+"/api", tr, storage.NewStore(storage.NewMemoryBackend()), nil, logging.Nop{})
	require.NoError(t, err)
	return NewAPI(pipe), rec
}

func authReply() models.AuthResponse {
	return models.AuthResponse{
		Message:      "ok",
		AccessToken:  "a",
		RefreshToken: "r",
		User:         &models.User{UserID: 3, Email: "x@y.z", Username: "x"},
	}
}

func TestAPI_RegisterSendsBodyWithoutConfirmation(t *testing.T) {
	api, rec := newRecordingAPI(t, http.StatusCreated, authReply())

	out, err := api.Register(context.Background(), models.RegisterRequest{
		Email:                "x@y.z",
		Password:             "password1",
		PasswordConfirmation: "password1",
		Username:             "x",
		Country:              models.Ptr("LV"),
	})
	require.NoError(t, err)
	assert.Equal(t, "a", out.AccessToken)

	got := rec.snapshot()
	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/api/auth/register", got.path)

	var sent map[string]any
	require.NoError(t, json.Unmarshal(got.body, &sent))
	assert.Equal(t, "LV", sent["country"])
	assert.NotContains(t, sent, "PasswordConfirmation")
	assert.NotContains(t, sent, "date_of_birth")
}

func TestAPI_LoginRejectsIncompletePayload(t *testing.T) {
	reply := authReply()
	reply.RefreshToken = ""
	api, _ := newRecordingAPI(t, http.StatusOK, reply)

	_, err := api.Login(context.Background(), models.LoginRequest{Email: "x@y.z", Password: "p"})
	require.ErrorIs(t, err, ErrMalformedResponse)
}

func TestAPI_LoginRejectsMissingUser(t *testing.T) {
	reply := authReply()
	reply.User = nil
	api, _ := newRecordingAPI(t, http.StatusOK, reply)

	_, err := api.Login(context.Background(), models.LoginRequest{Email: "x@y.z", Password: "p"})
	require.ErrorIs(t, err, ErrMalformedResponse)
}

func TestAPI_LoginBadCredentials(t *testing.T) {
	api, _ := newRecordingAPI(t, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})

	_, err := api.Login(context.Background(), models.LoginRequest{Email: "x@y.z", Password: "p"})
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.NotErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, "invalid credentials", MessageOf(err))
}

func TestAPI_UpdateProfile(t *testing.T) {
	api, rec := newRecordingAPI(t, http.StatusOK, models.ProfileResponse{
		User: &models.User{UserID: 3, Email: "x@y.z", Username: "renamed"},
	})

	u, err := api.UpdateProfile(context.Background(), models.UpdateProfileRequest{Username: models.Ptr("renamed")})
	require.NoError(t, err)
	assert.Equal(t, "renamed", u.Username)
	got := rec.snapshot()
	assert.Equal(t, http.MethodPut, got.method)
	assert.JSONEq(t, `{"username":"renamed"}`, string(got.body))
}

func TestAPI_GetProfileMissingUser(t *testing.T) {
	api, _ := newRecordingAPI(t, http.StatusOK, map[string]any{})

	_, err := api.GetProfile(context.Background())
	require.ErrorIs(t, err, ErrMalformedResponse)
}

func TestAPI_CatalogPaths(t *testing.T) {
	envelope := models.Envelope[[]models.Media]{Success: true, Data: []models.Media{{MediaID: "1", Title: "Heat"}}}

	tests := []struct {
		name  string
		call  func(*API) error
		path  string
		query string
	}{
		{"list", func(a *API) error {
			_, err := a.ListMedia(context.Background(), models.MediaFilters{Type: models.MediaMovie, Limit: 5})
			return err
		}, "/api/media", "limit=5&type=movie"},
		{"popular", func(a *API) error { _, err := a.PopularMedia(context.Background()); return err }, "/api/media/popular", ""},
		{"new", func(a *API) error { _, err := a.NewMedia(context.Background()); return err }, "/api/media/new", ""},
		{"coming soon", func(a *API) error { _, err := a.ComingSoon(context.Background(), 20); return err }, "/api/media/comingSoon", "limit=20"},
		{"genre", func(a *API) error { _, err := a.MediaByGenre(context.Background(), "sci fi", 3); return err }, "/api/media/genre/sci fi", "limit=3"},
		{"clubs", func(a *API) error { _, err := a.ListClubs(context.Background(), 20); return err }, "/api/cinema-clubs", "limit=20"},
		{"clubs by type", func(a *API) error {
			_, err := a.ClubsByType(context.Background(), models.ClubMood, 10)
			return err
		}, "/api/cinema-clubs", "limit=10&type=mood"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api, rec := newRecordingAPI(t, http.StatusOK, envelope)
			require.NoError(t, tt.call(api))
			got := rec.snapshot()
			assert.Equal(t, http.MethodGet, got.method)
			assert.Equal(t, tt.path, got.path)
			assert.Equal(t, tt.query, got.query)
		})
	}
}

func TestAPI_GetMediaAndClub(t *testing.T) {
	api, rec := newRecordingAPI(t, http.StatusOK, map[string]any{
		"success": true,
		"data":    map[string]any{"media_id": "42", "club_id": 7, "title": "T"},
	})

	m, err := api.GetMedia(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "42", m.Data.MediaID)
	assert.Equal(t, "/api/media/42", rec.snapshot().path)

	c, err := api.GetClub(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), c.Data.ClubID)
	assert.Equal(t, "/api/cinema-clubs/7", rec.snapshot().path)
}
