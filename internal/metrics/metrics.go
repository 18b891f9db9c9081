// Package metrics exposes Prometheus instruments for the media service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "media"

// Result labels.
const (
	ResultOK       = "ok"
	ResultNotFound = "not_found"
	ResultError    = "error"
)

// Metrics holds every instrument the service records. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	uploads           *prometheus.CounterVec   // result
	fetches           *prometheus.CounterVec   // variant, result
	deletes           *prometheus.CounterVec   // result
	thumbnailOrphans  prometheus.Counter       // thumbnail removals that failed after the original was gone
	storageDuration   *prometheus.HistogramVec // operation, result
	httpRequests      *prometheus.CounterVec   // method, route, status
	thumbnailDuration prometheus.Histogram
}

// New creates the instruments and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Image uploads by result.",
		}, []string{"result"}),

		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetches_total",
			Help:      "Image fetches by variant and result.",
		}, []string{"variant", "result"}),

		deletes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deletes_total",
			Help:      "Image deletions by result.",
		}, []string{"result"}),

		thumbnailOrphans: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "thumbnail_remove_failures_total",
			Help:      "Thumbnail removals that failed after the original was deleted.",
		}),

		storageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "operation_duration_seconds",
			Help:      "Object storage operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "result"}),

		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route pattern and status class.",
		}, []string{"method", "route", "status"}),

		thumbnailDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "thumbnail",
			Name:      "generate_duration_seconds",
			Help:      "Time spent resizing and encoding thumbnails.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}),
	}

	reg.MustRegister(
		m.uploads,
		m.fetches,
		m.deletes,
		m.thumbnailOrphans,
		m.storageDuration,
		m.httpRequests,
		m.thumbnailDuration,
	)
	return m
}

// Upload counts a finished upload.
func (m *Metrics) Upload(result string) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(result).Inc()
}

// Fetch counts a finished fetch of the given variant.
func (m *Metrics) Fetch(variant, result string) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(variant, result).Inc()
}

// Delete counts a finished deletion.
func (m *Metrics) Delete(result string) {
	if m == nil {
		return
	}
	m.deletes.WithLabelValues(result).Inc()
}

// ThumbnailRemoveFailed counts a swallowed thumbnail removal error.
func (m *Metrics) ThumbnailRemoveFailed() {
	if m == nil {
		return
	}
	m.thumbnailOrphans.Inc()
}

// ObserveStorage records the latency of one storage call.
func (m *Metrics) ObserveStorage(operation, result string, d time.Duration) {
	if m == nil {
		return
	}
	m.storageDuration.WithLabelValues(operation, result).Observe(d.Seconds())
}

// ObserveThumbnail records the latency of one thumbnail generation.
func (m *Metrics) ObserveThumbnail(d time.Duration) {
	if m == nil {
		return
	}
	m.thumbnailDuration.Observe(d.Seconds())
}

// HTTPRequest counts a served request.
func (m *Metrics) HTTPRequest(method, route string, status int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, statusClass(status)).Inc()
}

func statusClass(code int) string {
	switch {
	case code >= 100 && code < 200:
		return "1xx"
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500 && code < 600:
		return "5xx"
	default:
		return "0"
	}
}
