package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crawl-dashboard/internal/cache"
	"crawl-dashboard/internal/source"
)

var _ cache.Observer = (*Metrics)(nil)

func TestMetrics_Counters(t *testing.T) {
	m := New()
	m.Hit()
	m.Hit()
	m.Miss()
	m.Computed(10*time.Millisecond, nil)
	m.Computed(time.Millisecond, errors.New("x"))
	m.Fallback(source.KindSQLite, errors.New("locked"))
	m.ObserveRequest("/api/data/hot", 200, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheHits))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheMisses))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SourceFallbacks.WithLabelValues("sqlite")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/api/data/hot", "200")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.ComputeDuration))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.Miss()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), "crawl_dashboard_cache_misses_total 1")
	assert.Contains(t, string(body), "go_goroutines")
}
