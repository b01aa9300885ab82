package metrics

import (
	"errors"
	"net/http"
	"time"

	"loanshare/internal/domain/bundle"
	"loanshare/internal/domain/loan"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors. It satisfies runner.Recorder.
type Metrics struct {
	OpsTotal        *prometheus.CounterVec
	OpDuration      *prometheus.HistogramVec
	EventsPublished prometheus.Counter
	RequestCount    *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		OpsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loanshare_operations_total",
				Help: "Total state-changing operations by outcome.",
			},
			[]string{"op", "status"},
		),
		OpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "loanshare_operation_duration_seconds",
				Help:    "Operation duration in seconds, lock wait included.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		EventsPublished: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "loanshare_events_published_total",
				Help: "Total events delivered to the sink.",
			},
		),
		RequestCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
	}
	if registry != nil {
		registry.MustRegister(m.OpsTotal, m.OpDuration, m.EventsPublished, m.RequestCount, m.RequestDuration)
	}
	return m
}

func (m *Metrics) ObserveOp(op string, err error, elapsed time.Duration) {
	m.OpsTotal.WithLabelValues(op, status(err)).Inc()
	m.OpDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveEvents(n int) { m.EventsPublished.Add(float64(n)) }

// status buckets errors so label cardinality stays fixed.
func status(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, loan.ErrNotFound), errors.Is(err, bundle.ErrNotFound):
		return "not_found"
	case errors.Is(err, loan.ErrInvalidTransition),
		errors.Is(err, loan.ErrAlreadyFunded), errors.Is(err, loan.ErrUnfunded),
		errors.Is(err, loan.ErrAlreadyInitiated), errors.Is(err, loan.ErrNotInitiated),
		errors.Is(err, loan.ErrAlreadyRepaid), errors.Is(err, loan.ErrNotEnded),
		errors.Is(err, loan.ErrAlreadyPaid), errors.Is(err, loan.ErrAlreadyAuctioning),
		errors.Is(err, loan.ErrAuctionNotStarted), errors.Is(err, loan.ErrAuctionEnded):
		return "rejected"
	default:
		return "error"
	}
}

func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
