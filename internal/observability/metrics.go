package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Rejection reason labels. Kept to a fixed set so the metric stays
// low-cardinality.
const (
	ReasonCooldown  = "cooldown"
	ReasonBounds    = "out_of_bounds"
	ReasonColor     = "invalid_color"
	ReasonMalformed = "malformed"
)

// Save status labels.
const (
	SaveOK     = "ok"
	SaveFailed = "failed"
)

type metrics struct {
	pixelsPlaced   prometheus.Counter
	rejections     *prometheus.CounterVec
	activeSessions prometheus.Gauge
	broadcastBytes prometheus.Counter
	snapshotSaves  *prometheus.CounterVec
	wsErrors       *prometheus.CounterVec
}

var (
	globalMetrics *metrics
	globalMu      sync.Mutex
)

// Init registers the canvas metrics with the provided registerer. Passing
// nil uses the default registry. Init is idempotent; subsequent calls keep
// the first registration.
func Init(registry prometheus.Registerer) {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalMetrics != nil {
		return
	}
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)
	globalMetrics = &metrics{
		pixelsPlaced: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "openplace",
			Name:      "pixels_placed_total",
			Help:      "Total accepted pixel writes, including recolors",
		}),
		rejections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "openplace",
			Name:      "pixel_rejections_total",
			Help:      "Rejected pixel writes by reason",
		}, []string{"reason"}),
		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "openplace",
			Name:      "active_sessions",
			Help:      "Number of connected WebSocket clients",
		}),
		broadcastBytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "openplace",
			Name:      "broadcast_bytes_total",
			Help:      "Total bytes fanned out to subscribers",
		}),
		snapshotSaves: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "openplace",
			Name:      "snapshot_saves_total",
			Help:      "Persistence save attempts by status",
		}, []string{"status"}),
		wsErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "openplace",
			Name:      "websocket_errors_total",
			Help:      "WebSocket errors by type",
		}, []string{"type"}),
	}
}

// RecordPixelPlaced increments the accepted-write counter.
func RecordPixelPlaced() {
	if globalMetrics != nil {
		globalMetrics.pixelsPlaced.Inc()
	}
}

// RecordRejection increments the rejection counter for a reason.
func RecordRejection(reason string) {
	if globalMetrics != nil {
		globalMetrics.rejections.WithLabelValues(reason).Inc()
	}
}

// RecordSessionOpen increments the active session gauge.
func RecordSessionOpen() {
	if globalMetrics != nil {
		globalMetrics.activeSessions.Inc()
	}
}

// RecordSessionClose decrements the active session gauge.
func RecordSessionClose() {
	if globalMetrics != nil {
		globalMetrics.activeSessions.Dec()
	}
}

// RecordBroadcast adds the payload size times recipient count.
func RecordBroadcast(bytes int) {
	if globalMetrics != nil && bytes > 0 {
		globalMetrics.broadcastBytes.Add(float64(bytes))
	}
}

// RecordSnapshotSave counts a persistence save attempt.
func RecordSnapshotSave(status string) {
	if globalMetrics != nil {
		globalMetrics.snapshotSaves.WithLabelValues(status).Inc()
	}
}

// RecordWebSocketError counts a transport error by type.
func RecordWebSocketError(errorType string) {
	if globalMetrics != nil {
		globalMetrics.wsErrors.WithLabelValues(errorType).Inc()
	}
}
