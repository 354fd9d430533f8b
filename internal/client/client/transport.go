package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/cinemaclub/internal/logging"
	"github.com/sony/gobreaker/v2"
)

// maxBodySize caps how much of a response body is read.
const maxBodySize = 4 << 20

// BreakerConfig configures the transport circuit breaker.
type BreakerConfig struct {
	Name string
	// MaxRequests allowed in the half-open state. 0 means 1.
	MaxRequests uint32
	// Interval clears the closed-state counts. 0 never clears them.
	Interval time.Duration
	// Timeout is how long the breaker stays open.
	Timeout time.Duration
	// FailureRatio of failed to total requests that trips the breaker.
	FailureRatio float64
	// MinRequests before FailureRatio is evaluated.
	MinRequests uint32
}

// TransportConfig configures Transport.
type TransportConfig struct {
	Timeout         time.Duration
	MaxConnsPerHost int
	Breaker         BreakerConfig
}

// DefaultTransportConfig returns sensible defaults.
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		Timeout:         10 * time.Second,
		MaxConnsPerHost: 16,
		Breaker: BreakerConfig{
			Name:         "cinemaclub-api",
			MaxRequests:  1,
			Interval:     60 * time.Second,
			Timeout:      30 * time.Second,
			FailureRatio: 0.5,
			MinRequests:  5,
		},
	}
}

// Response is a fully read backend response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// serverError carries a 5xx response through the breaker, which counts it
// as a failure.
type serverError struct {
	resp *Response
}

func (e *serverError) Error() string {
	return fmt.Sprintf("server error %d", e.resp.Status)
}

// Transport sends requests through a circuit breaker. It never retries.
type Transport struct {
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*Response]
	metrics    *Metrics
	logger     logging.Logger
}

func NewTransport(cfg TransportConfig, metrics *Metrics, logger logging.Logger) *Transport {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          64,
		MaxIdleConnsPerHost:   cfg.MaxConnsPerHost,
		MaxConnsPerHost:       cfg.MaxConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return NewTransportWithClient(&http.Client{Transport: transport, Timeout: cfg.Timeout}, cfg.Breaker, metrics, logger)
}

// NewTransportWithClient wraps an existing *http.Client.
func NewTransportWithClient(hc *http.Client, bc BreakerConfig, metrics *Metrics, logger logging.Logger) *Transport {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}

	settings := gobreaker.Settings{
		Name:        bc.Name,
		MaxRequests: bc.MaxRequests,
		Interval:    bc.Interval,
		Timeout:     bc.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < bc.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= bc.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn(context.Background(), "circuit breaker state change",
				"breaker", name, "from", from.String(), "to", to.String())
			metrics.setBreakerState(name, to)
		},
	}
	metrics.setBreakerState(bc.Name, gobreaker.StateClosed)

	return &Transport{
		httpClient: hc,
		breaker:    gobreaker.NewCircuitBreaker[*Response](settings),
		metrics:    metrics,
		logger:     logger,
	}
}

// Do sends req and reads the whole response. Connection failures and an
// open breaker are reported as ErrNetwork. 5xx responses are returned
// normally with a nil error.
func (t *Transport) Do(req *http.Request) (*Response, error) {
	resp, err := t.breaker.Execute(func() (*Response, error) {
		hr, err := t.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer hr.Body.Close()

		body, err := io.ReadAll(io.LimitReader(hr.Body, maxBodySize))
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}

		r := &Response{Status: hr.StatusCode, Header: hr.Header, Body: body}
		if r.Status >= 500 {
			return nil, &serverError{resp: r}
		}
		return r, nil
	})

	var se *serverError
	if errors.As(err, &se) {
		t.metrics.observeStatus(se.resp.Status)
		return se.resp, nil
	}
	if err != nil {
		t.metrics.observeStatus(0)
		return nil, fmt.Errorf("%w: %s %s: %w", ErrNetwork, req.Method, req.URL.Path, err)
	}

	t.metrics.observeStatus(resp.Status)
	return resp, nil
}

// State returns the breaker state.
func (t *Transport) State() gobreaker.State {
	return t.breaker.State()
}
