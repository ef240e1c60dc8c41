// Package metrics exposes Prometheus instrumentation for the console.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/felixgeelhaar/retailctl/internal/errors"
)

// Metrics holds all Prometheus metrics for retailctl.
type Metrics struct {
	// HTTP metrics, labelled by chi route pattern rather than raw path.
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Session operations: login, logout, register, profile, password.
	SessionOps *prometheus.CounterVec

	// Guard outcomes per gated view.
	GuardDecisions *prometheus.CounterVec

	// Errors by structured error code.
	Errors *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		Requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "retailctl_http_requests_total",
				Help: "Total number of console HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "retailctl_http_request_duration_seconds",
				Help:    "Console HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		SessionOps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "retailctl_session_operations_total",
				Help: "Total number of session operations by result",
			},
			[]string{"operation", "result"},
		),
		GuardDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "retailctl_guard_decisions_total",
				Help: "Total number of route guard decisions",
			},
			[]string{"view", "decision"},
		),
		Errors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "retailctl_errors_total",
				Help: "Total number of errors by error code",
			},
			[]string{"code", "category"},
		),
	}
}

// RecordRequest records one served request.
func (m *Metrics) RecordRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.Requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordSessionOp records the result of a session operation and, on
// failure, its error code.
func (m *Metrics) RecordSessionOp(op string, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
		m.RecordError(err)
	}
	m.SessionOps.WithLabelValues(op, result).Inc()
}

// RecordDecision records a guard outcome for view.
func (m *Metrics) RecordDecision(view, decision string) {
	if m == nil {
		return
	}
	m.GuardDecisions.WithLabelValues(view, decision).Inc()
}

// RecordError counts err under its structured code. Plain errors count as
// "unknown".
func (m *Metrics) RecordError(err error) {
	if m == nil || err == nil {
		return
	}
	code, category := "unknown", "unknown"
	if ce, ok := errors.As(err); ok {
		code = string(ce.Code)
		category = string(ce.Code.Category())
	}
	m.Errors.WithLabelValues(code, category).Inc()
}
