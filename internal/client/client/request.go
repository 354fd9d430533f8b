package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/cinemaclub/internal/common"
)

const requestIDHeader = common.RequestIDHeader

// Request is an outbound call waiting to be sent through the Pipeline.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte

	// Public requests carry no bearer token and are never refreshed.
	Public bool
	// NoRefresh requests carry the bearer token but a 401 is returned as is.
	NoRefresh bool

	retried bool
}

// NewRequest builds a request with body encoded as JSON. A nil body sends
// no payload.
func NewRequest(method, path string, body any) (*Request, error) {
	r := &Request{Method: method, Path: path, Header: http.Header{}}
	if body == nil {
		return r, nil
	}

	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
	}
	r.Body = b
	return r, nil
}

func (r *Request) clone() *Request {
	c := *r
	c.Header = r.Header.Clone()
	c.Query = maps.Clone(r.Query)
	return &c
}

func (r *Request) build(ctx context.Context, base *url.URL, accessToken, requestID string) (*http.Request, error) {
	u := base.JoinPath(r.Path)
	if len(r.Query) > 0 {
		u.RawQuery = r.Query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, u.String(), bytes.NewReader(r.Body))
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", r.Method, r.Path, err)
	}
	for k, v := range r.Header {
		req.Header[k] = v
	}

	req.Header.Set("Accept", common.ContentTypeJSON)
	if r.Body != nil {
		req.Header.Set("Content-Type", common.ContentTypeJSON)
	}
	req.Header.Set(common.RequestIDHeader, requestID)
	if accessToken != "" && !r.Public {
		req.Header.Set(common.AuthorizationHeader, common.BearerPrefix+accessToken)
	}
	return req, nil
}

// decodeJSON unmarshals a response body, mapping failures to
// ErrMalformedResponse.
func decodeJSON(resp *Response, v any) error {
	if err := json.Unmarshal(resp.Body, v); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return nil
}
