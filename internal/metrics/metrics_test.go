package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersAndHandler(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.CacheResult("critic_sets", "hit")
	m.CacheResult("critic_sets", "hit")
	m.CacheResult("critic_sets", "miss")
	m.Render("ok")
	m.ObserveQuery("get_items", 3*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheOps.WithLabelValues("critic_sets", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.renders.WithLabelValues("ok")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "zippicks_cache_operations_total"))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.CacheResult("g", "hit")
	m.Render("ok")
	m.ObserveQuery("op", time.Second)
	assert.NotNil(t, m.Handler())
}
