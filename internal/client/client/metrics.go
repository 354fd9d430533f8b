package client

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"
)

// Refresh outcomes recorded by Metrics.
const (
	refreshSuccess   = "success"
	refreshFailure   = "failure"
	refreshReused    = "reused"
	refreshDiscarded = "discarded"
)

// Metrics holds the client's Prometheus collectors.
type Metrics struct {
	requests     *prometheus.CounterVec
	refreshes    *prometheus.CounterVec
	breakerState *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cinemaclub",
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "HTTP requests sent to the backend by status class.",
		}, []string{"class"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cinemaclub",
			Subsystem: "client",
			Name:      "token_refresh_total",
			Help:      "Token refresh attempts by outcome.",
		}, []string{"outcome"}),
		breakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "cinemaclub",
			Subsystem: "client",
			Name:      "circuit_breaker_state",
			Help:      "Current state of the circuit breaker (0=closed, 1=half-open, 2=open).",
		}, []string{"name"}),
	}

	if reg != nil {
		reg.MustRegister(m.requests, m.refreshes, m.breakerState)
	}
	return m
}

func (m *Metrics) observeStatus(status int) {
	class := "network"
	if status > 0 {
		class = strconv.Itoa(status/100) + "xx"
	}
	m.requests.WithLabelValues(class).Inc()
}

func (m *Metrics) observeRefresh(outcome string) {
	m.refreshes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) setBreakerState(name string, state gobreaker.State) {
	m.breakerState.WithLabelValues(name).Set(stateToFloat(state))
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
