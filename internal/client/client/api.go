package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dmitrijs2005/cinemaclub/internal/client/models"
)

// API exposes the backend endpoints as typed methods.
type API struct {
	p *Pipeline
}

func NewAPI(p *Pipeline) *API {
	return &API{p: p}
}

func call[T any](ctx context.Context, p *Pipeline, req *Request) (*T, error) {
	resp, err := p.Do(ctx, req)
	if err != nil {
		return nil, err
	}

	var out T
	if err := decodeJSON(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func get[T any](ctx context.Context, p *Pipeline, path string, query url.Values) (*T, error) {
	req := &Request{Method: http.MethodGet, Path: path, Query: query, Header: http.Header{}}
	return call[T](ctx, p, req)
}

func malformed(err error) error {
	return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
}

func limitQuery(limit int) url.Values {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return q
}

// Register creates an account. The response must carry both tokens and the
// user.
func (a *API) Register(ctx context.Context, in models.RegisterRequest) (*models.AuthResponse, error) {
	return a.authenticate(ctx, "/auth/register", in)
}

// Login authenticates with email and password.
func (a *API) Login(ctx context.Context, in models.LoginRequest) (*models.AuthResponse, error) {
	return a.authenticate(ctx, "/auth/login", in)
}

func (a *API) authenticate(ctx context.Context, path string, body any) (*models.AuthResponse, error) {
	req, err := NewRequest(http.MethodPost, path, body)
	if err != nil {
		return nil, err
	}
	req.Public = true

	out, err := call[models.AuthResponse](ctx, a.p, req)
	if err != nil {
		return nil, err
	}
	if err := out.Validate(); err != nil {
		return nil, malformed(err)
	}
	return out, nil
}

// Refresh exchanges a refresh token for a new pair without touching the
// store.
func (a *API) Refresh(ctx context.Context, refreshToken string) (*models.AuthResponse, error) {
	return a.p.callRefresh(ctx, refreshToken)
}

// Logout revokes refreshToken on the backend. A 401 is not refreshed.
func (a *API) Logout(ctx context.Context, refreshToken string) error {
	req, err := NewRequest(http.MethodPost, "/auth/logout", models.RefreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return err
	}
	req.NoRefresh = true

	_, err = a.p.Do(ctx, req)
	return err
}

// GetProfile fetches the current user.
func (a *API) GetProfile(ctx context.Context) (*models.User, error) {
	out, err := get[models.ProfileResponse](ctx, a.p, "/users/profile", nil)
	if err != nil {
		return nil, err
	}
	if err := out.User.Validate(); err != nil {
		return nil, malformed(err)
	}
	return out.User, nil
}

// UpdateProfile changes the mutable profile fields and returns the updated
// user.
func (a *API) UpdateProfile(ctx context.Context, in models.UpdateProfileRequest) (*models.User, error) {
	req, err := NewRequest(http.MethodPut, "/users/profile", in)
	if err != nil {
		return nil, err
	}

	out, err := call[models.ProfileResponse](ctx, a.p, req)
	if err != nil {
		return nil, err
	}
	if err := out.User.Validate(); err != nil {
		return nil, malformed(err)
	}
	return out.User, nil
}

func (a *API) ListMedia(ctx context.Context, f models.MediaFilters) (*models.Envelope[[]models.Media], error) {
	return get[models.Envelope[[]models.Media]](ctx, a.p, "/media", f.Query())
}

func (a *API) GetMedia(ctx context.Context, id string) (*models.Envelope[models.Media], error) {
	return get[models.Envelope[models.Media]](ctx, a.p, "/media/"+url.PathEscape(id), nil)
}

func (a *API) PopularMedia(ctx context.Context) (*models.Envelope[[]models.Media], error) {
	return get[models.Envelope[[]models.Media]](ctx, a.p, "/media/popular", nil)
}

func (a *API) NewMedia(ctx context.Context) (*models.Envelope[[]models.Media], error) {
	return get[models.Envelope[[]models.Media]](ctx, a.p, "/media/new", nil)
}

func (a *API) ComingSoon(ctx context.Context, limit int) (*models.Envelope[[]models.Media], error) {
	return get[models.Envelope[[]models.Media]](ctx, a.p, "/media/comingSoon", limitQuery(limit))
}

func (a *API) MediaByGenre(ctx context.Context, genre string, limit int) (*models.Envelope[[]models.Media], error) {
	return get[models.Envelope[[]models.Media]](ctx, a.p, "/media/genre/"+url.PathEscape(genre), limitQuery(limit))
}

func (a *API) ListClubs(ctx context.Context, limit int) (*models.Envelope[[]models.CinemaClub], error) {
	return get[models.Envelope[[]models.CinemaClub]](ctx, a.p, "/cinema-clubs", limitQuery(limit))
}

func (a *API) ClubsByType(ctx context.Context, t models.ClubType, limit int) (*models.Envelope[[]models.CinemaClub], error) {
	q := limitQuery(limit)
	q.Set("type", string(t))
	return get[models.Envelope[[]models.CinemaClub]](ctx, a.p, "/cinema-clubs", q)
}

func (a *API) GetClub(ctx context.Context, id int64) (*models.Envelope[models.CinemaClub], error) {
	return get[models.Envelope[models.CinemaClub]](ctx, a.p, "/cinema-clubs/"+strconv.FormatInt(id, 10), nil)
}

// Ping checks that the backend is reachable.
func (a *API) Ping(ctx context.Context) error {
	req := &Request{Method: http.MethodGet, Path: "/health", Header: http.Header{}, Public: true}

	_, err := a.p.Do(ctx, req)
	return err
}
