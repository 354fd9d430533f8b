// Package client contains the cinemaclub REST client.
//
// # Overview
//
// The package provides:
//  1. Transport: an *http.Client with pooled connections behind a circuit
//     breaker, exporting Prometheus metrics. It never retries on its own.
//  2. Pipeline: the authenticated request path. It attaches the stored
//     access token, and on a 401 refreshes the token pair once (shared by
//     all concurrent callers), persists it and replays the request a single
//     time. When the refresh itself fails the stored session is cleared and
//     the injected SessionTerminator is notified.
//  3. API: typed endpoint methods (auth, profile, catalog) over the pipeline.
//
// # Error Handling
//
// Failures are reported as *APIError for non-2xx responses and as sentinel
// errors matched with errors.Is: ErrNetwork, ErrSessionExpired,
// ErrMalformedResponse and ErrUnauthorized (any 401).
//
// Concurrency & Contexts
//
// Pipeline and API are safe for concurrent use. All operations accept
// context.Context and honor cancellation.
package client
