package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrNetwork           = errors.New("network error")
	ErrSessionExpired    = errors.New("session expired")
	ErrMalformedResponse = errors.New("malformed response")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrRefreshDiscarded  = errors.New("refreshed tokens discarded: session changed")
	ErrNoRefreshToken    = errors.New("no refresh token stored")
)

// APIError is a non-2xx response from the backend. Message is the
// backend-supplied text and may be empty.
type APIError struct {
	Status    int
	Message   string
	RequestID string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, msg)
}

// Is makes every 401 match ErrUnauthorized.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

// errorBody covers both error shapes the backend produces.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func newAPIError(resp *Response) *APIError {
	e := &APIError{Status: resp.Status, RequestID: resp.Header.Get(requestIDHeader)}

	var body errorBody
	if json.Unmarshal(resp.Body, &body) == nil {
		e.Message = strings.TrimSpace(body.Message)
		if e.Message == "" {
			e.Message = strings.TrimSpace(body.Error)
		}
	}
	return e
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// MessageOf returns the backend-supplied message carried by err, or "".
func MessageOf(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}
