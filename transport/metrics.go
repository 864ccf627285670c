package transport

import (
	"context"
	"errors"
	"time"

	"github.com/chinmay1088/mempool/api"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeSuccess   = "success"
	outcomeStatus    = "status_error"
	outcomeCancelled = "cancelled"
	outcomeError     = "error"
)

type transportMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

func initTransportMetrics(reg prometheus.Registerer) *transportMetrics {
	factory := promauto.With(reg)
	return &transportMetrics{
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mempool_client_requests_total",
				Help: "requests sent to the mempool API by method and outcome",
			},
			[]string{"method", "outcome"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mempool_client_request_duration_seconds",
				Help:    "time spent waiting for the mempool API",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
	}
}

// Metrics wraps another transport and records request counts and latency
type Metrics struct {
	next    api.Transport
	metrics *transportMetrics
}

var _ api.Transport = (*Metrics)(nil)

// NewMetrics returns a transport that records metrics for every request
// sent through next. A nil registerer leaves the collectors unregistered.
func NewMetrics(next api.Transport, reg prometheus.Registerer) *Metrics {
	return &Metrics{
		next:    next,
		metrics: initTransportMetrics(reg),
	}
}

// Send implements api.Transport
func (m *Metrics) Send(ctx context.Context, method api.Method, url string, body []byte) ([]byte, error) {
	start := time.Now()
	data, err := m.next.Send(ctx, method, url, body)
	m.metrics.requestDuration.WithLabelValues(method.String()).Observe(time.Since(start).Seconds())
	m.metrics.requestsTotal.WithLabelValues(method.String(), outcome(err)).Inc()
	return data, err
}

func outcome(err error) string {
	var statusErr *StatusError
	switch {
	case err == nil:
		return outcomeSuccess
	case errors.As(err, &statusErr):
		return outcomeStatus
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return outcomeCancelled
	default:
		return outcomeError
	}
}
