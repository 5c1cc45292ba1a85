package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// WebMetrics observes the web API layer.
type WebMetrics interface {
	// RecordRequest records a completed API request with its route, status
	// code and duration.
	RecordRequest(route string, status int, duration time.Duration)
}

// NewWebMetrics returns a Prometheus-backed WebMetrics, or a no-op when
// metrics are disabled.
func NewWebMetrics() WebMetrics {
	reg := GetRegistry()
	if reg == nil {
		return noopWebMetrics{}
	}

	factory := promauto.With(reg)
	return &webMetrics{
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lansend_web_requests_total",
			Help: "Total web API requests by route and status",
		}, []string{"route", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lansend_web_request_duration_seconds",
			Help:    "Web API request duration by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

type webMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

func (m *webMetrics) RecordRequest(route string, status int, duration time.Duration) {
	m.requestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

type noopWebMetrics struct{}

func (noopWebMetrics) RecordRequest(string, int, time.Duration) {}
