package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// TransferMetrics observes the fast transfer server: connection lifecycle,
// transfer outcomes, and bytes pushed through each streaming path.
//
// The interface is optional everywhere it is accepted: pass the value from
// NewTransferMetrics(), which degrades to a no-op when the registry was
// never initialized.
type TransferMetrics interface {
	// RecordConnectionAccepted increments the accepted-connections counter.
	RecordConnectionAccepted()

	// RecordConnectionClosed increments the closed-connections counter.
	RecordConnectionClosed()

	// SetActiveConnections updates the live connection gauge.
	SetActiveConnections(count int32)

	// RecordTransferStart increments the started-transfers counter.
	RecordTransferStart()

	// RecordTransferComplete records a finished transfer with its duration.
	RecordTransferComplete(duration time.Duration)

	// RecordTransferAborted increments the aborted-transfers counter
	// (peer reset, cancel, or stream exhaustion before the full range).
	RecordTransferAborted()

	// RecordBytesSent records payload bytes pushed to a peer. path is
	// "sendfile" or "buffered".
	RecordBytesSent(path string, bytes int64)
}

// NewTransferMetrics returns a Prometheus-backed TransferMetrics, or a no-op
// implementation when metrics are disabled.
func NewTransferMetrics() TransferMetrics {
	reg := GetRegistry()
	if reg == nil {
		return noopTransferMetrics{}
	}

	factory := promauto.With(reg)
	return &transferMetrics{
		connectionsAccepted: factory.NewCounter(prometheus.CounterOpts{
			Name: "lansend_fast_connections_accepted_total",
			Help: "Total TCP connections accepted by the fast transfer server",
		}),
		connectionsClosed: factory.NewCounter(prometheus.CounterOpts{
			Name: "lansend_fast_connections_closed_total",
			Help: "Total TCP connections closed by the fast transfer server",
		}),
		activeConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "lansend_fast_active_connections",
			Help: "Currently open fast transfer connections",
		}),
		transfersStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "lansend_transfers_started_total",
			Help: "Total streaming transfers started",
		}),
		transfersCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "lansend_transfers_completed_total",
			Help: "Total streaming transfers completed",
		}),
		transfersAborted: factory.NewCounter(prometheus.CounterOpts{
			Name: "lansend_transfers_aborted_total",
			Help: "Total streaming transfers aborted before completion",
		}),
		transferDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "lansend_transfer_duration_seconds",
			Help:    "Duration of completed streaming transfers",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
		}),
		bytesSent: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lansend_bytes_sent_total",
			Help: "Payload bytes sent to peers by streaming path",
		}, []string{"path"}),
	}
}

type transferMetrics struct {
	connectionsAccepted prometheus.Counter
	connectionsClosed   prometheus.Counter
	activeConnections   prometheus.Gauge
	transfersStarted    prometheus.Counter
	transfersCompleted  prometheus.Counter
	transfersAborted    prometheus.Counter
	transferDuration    prometheus.Histogram
	bytesSent           *prometheus.CounterVec
}

func (m *transferMetrics) RecordConnectionAccepted() { m.connectionsAccepted.Inc() }
func (m *transferMetrics) RecordConnectionClosed()   { m.connectionsClosed.Inc() }

func (m *transferMetrics) SetActiveConnections(count int32) {
	m.activeConnections.Set(float64(count))
}

func (m *transferMetrics) RecordTransferStart() { m.transfersStarted.Inc() }

func (m *transferMetrics) RecordTransferComplete(duration time.Duration) {
	m.transfersCompleted.Inc()
	m.transferDuration.Observe(duration.Seconds())
}

func (m *transferMetrics) RecordTransferAborted() { m.transfersAborted.Inc() }

func (m *transferMetrics) RecordBytesSent(path string, bytes int64) {
	m.bytesSent.WithLabelValues(path).Add(float64(bytes))
}

// noopTransferMetrics is used when metrics are disabled.
type noopTransferMetrics struct{}

func (noopTransferMetrics) RecordConnectionAccepted()            {}
func (noopTransferMetrics) RecordConnectionClosed()              {}
func (noopTransferMetrics) SetActiveConnections(int32)           {}
func (noopTransferMetrics) RecordTransferStart()                 {}
func (noopTransferMetrics) RecordTransferComplete(time.Duration) {}
func (noopTransferMetrics) RecordTransferAborted()               {}
func (noopTransferMetrics) RecordBytesSent(string, int64)        {}
