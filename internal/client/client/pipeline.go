package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/dmitrijs2005/cinemaclub/internal/client/models"
	"github.com/dmitrijs2005/cinemaclub/internal/client/storage"
	"github.com/dmitrijs2005/cinemaclub/internal/logging"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

const refreshPath = "/auth/refresh"

// SessionTerminator is told when the stored session was discarded because
// the token pair could not be refreshed.
type SessionTerminator interface {
	Terminate(ctx context.Context)
}

// Pipeline sends requests with the stored access token and recovers from
// expired tokens by refreshing the pair once and replaying the request.
type Pipeline struct {
	baseURL    *url.URL
	transport  *Transport
	store      *storage.Store
	terminator SessionTerminator
	logger     logging.Logger
	metrics    *Metrics

	refreshes singleflight.Group
	// refreshMu serializes flights started for different failed tokens.
	refreshMu sync.Mutex
}

func NewPipeline(baseURL string, transport *Transport, store *storage.Store, terminator SessionTerminator, logger logging.Logger) (*Pipeline, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}

	return &Pipeline{
		baseURL:    u,
		transport:  transport,
		store:      store,
		terminator: terminator,
		logger:     logger,
		metrics:    transport.metrics,
	}, nil
}

// Do sends req and returns its 2xx response. Other statuses are returned as
// *APIError. A 401 on a request that has not been replayed yet triggers a
// token refresh; a 401 on the replay wraps ErrSessionExpired.
func (p *Pipeline) Do(ctx context.Context, req *Request) (*Response, error) {
	var token string
	if !req.Public {
		t, err := p.store.GetToken(ctx, storage.AccessToken)
		if err != nil {
			return nil, fmt.Errorf("read access token: %w", err)
		}
		token = t
	}
	return p.do(ctx, req, token)
}

func (p *Pipeline) do(ctx context.Context, req *Request, token string) (*Response, error) {
	resp, err := p.send(ctx, req, token)
	if err != nil {
		return nil, err
	}
	if resp.Status >= 200 && resp.Status < 300 {
		return resp, nil
	}

	apiErr := newAPIError(resp)
	if resp.Status != http.StatusUnauthorized || req.Public || req.NoRefresh {
		return nil, apiErr
	}
	if req.retried {
		return nil, fmt.Errorf("%w: %w", ErrSessionExpired, apiErr)
	}

	fresh, err := p.refresh(ctx, token)
	if err != nil {
		p.logger.Debug(ctx, "request not replayed", "path", req.Path, "error", err)
		return nil, apiErr
	}

	replay := req.clone()
	replay.retried = true
	return p.do(ctx, replay, fresh)
}

func (p *Pipeline) send(ctx context.Context, req *Request, token string) (*Response, error) {
	requestID := uuid.NewString()

	httpReq, err := req.build(ctx, p.baseURL, token, requestID)
	if err != nil {
		return nil, err
	}

	resp, err := p.transport.Do(httpReq)
	if err != nil {
		p.logger.Warn(ctx, "request failed", "method", req.Method, "path", req.Path, "request_id", requestID, "error", err)
		return nil, err
	}

	p.logger.Debug(ctx, "request done", "method", req.Method, "path", req.Path,
		"request_id", requestID, "status", resp.Status, "retried", req.retried)
	return resp, nil
}

// refresh returns an access token to replay with. Concurrent callers that
// were rejected with the same token share one refresh.
func (p *Pipeline) refresh(ctx context.Context, failedToken string) (string, error) {
	v, err, _ := p.refreshes.Do(failedToken, func() (any, error) {
		p.refreshMu.Lock()
		defer p.refreshMu.Unlock()
		// the shared flight must not die with the first caller's context
		return p.refreshOnce(context.WithoutCancel(ctx), failedToken)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (p *Pipeline) refreshOnce(ctx context.Context, failedToken string) (string, error) {
	current, err := p.store.Tokens(ctx)
	if err != nil {
		p.fail(ctx, "", err)
		return "", err
	}

	// another caller already rotated the pair
	if current.AccessToken != "" && current.AccessToken != failedToken {
		p.metrics.observeRefresh(refreshReused)
		return current.AccessToken, nil
	}
	if current.RefreshToken == "" {
		p.fail(ctx, "", ErrNoRefreshToken)
		return "", ErrNoRefreshToken
	}

	auth, err := p.callRefresh(ctx, current.RefreshToken)
	if err != nil {
		p.fail(ctx, current.RefreshToken, err)
		return "", err
	}

	swapped, err := p.store.ReplaceTokens(ctx, current.RefreshToken, auth.Tokens())
	if err != nil {
		p.fail(ctx, current.RefreshToken, err)
		return "", err
	}
	if !swapped {
		p.metrics.observeRefresh(refreshDiscarded)
		p.logger.Info(ctx, "refreshed tokens discarded, session changed meanwhile")
		return "", ErrRefreshDiscarded
	}

	p.metrics.observeRefresh(refreshSuccess)
	p.logger.Info(ctx, "token pair refreshed")
	return auth.AccessToken, nil
}

// fail clears the session the refresh was made for and notifies the
// terminator. A session replaced in the meantime is left alone.
func (p *Pipeline) fail(ctx context.Context, expectedRefresh string, cause error) {
	p.metrics.observeRefresh(refreshFailure)
	p.logger.Warn(ctx, "token refresh failed, ending session", "error", cause)

	cleared, err := p.store.ClearIf(ctx, expectedRefresh)
	if err != nil {
		p.logger.Error(ctx, "clear credentials", "error", err)
	}
	if !cleared && err == nil {
		return
	}
	if p.terminator != nil {
		p.terminator.Terminate(ctx)
	}
}

func (p *Pipeline) callRefresh(ctx context.Context, refreshToken string) (*models.AuthResponse, error) {
	req, err := NewRequest(http.MethodPost, refreshPath, models.RefreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return nil, err
	}
	req.Public = true

	resp, err := p.do(ctx, req, "")
	if err != nil {
		return nil, err
	}

	var out models.AuthResponse
	if err := decodeJSON(resp, &out); err != nil {
		return nil, err
	}
	if err := out.ValidateTokens(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return &out, nil
}
