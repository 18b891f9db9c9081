package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Upload(ResultOK)
	m.Upload(ResultOK)
	m.Upload(ResultError)
	m.Fetch("thumbnail", ResultNotFound)
	m.Delete(ResultOK)
	m.ThumbnailRemoveFailed()
	m.HTTPRequest("GET", "/media/{imageId}", 404)
	m.HTTPRequest("GET", "/media/{imageId}", 200)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.uploads.WithLabelValues(ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.uploads.WithLabelValues(ResultError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fetches.WithLabelValues("thumbnail", ResultNotFound)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.deletes.WithLabelValues(ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.thumbnailOrphans))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/media/{imageId}", "4xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/media/{imageId}", "2xx")))
}

func TestHistograms(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveStorage("put_object", ResultOK, 20*time.Millisecond)
	m.ObserveThumbnail(5 * time.Millisecond)

	count, err := testutil.GatherAndCount(reg,
		"media_storage_operation_duration_seconds",
		"media_thumbnail_generate_duration_seconds",
	)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Upload(ResultOK)
		m.Fetch("original", ResultOK)
		m.Delete(ResultNotFound)
		m.ThumbnailRemoveFailed()
		m.ObserveStorage("stat_object", ResultOK, time.Millisecond)
		m.ObserveThumbnail(time.Millisecond)
		m.HTTPRequest("DELETE", "/media/{imageId}", 200)
	})
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "1xx", statusClass(101))
	assert.Equal(t, "2xx", statusClass(201))
	assert.Equal(t, "3xx", statusClass(304))
	assert.Equal(t, "4xx", statusClass(400))
	assert.Equal(t, "5xx", statusClass(503))
	assert.Equal(t, "0", statusClass(0))
}
