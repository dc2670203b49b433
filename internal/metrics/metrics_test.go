package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.CacheLookup(true)
	m.CacheLookup(false)
	m.CacheLookup(false)
	m.Fetch("web", "ok")
	m.ModelAttempt("gemini-2.0-flash", "success")
	m.Record("oncokb", "not_found")

	body := scrape(t, m)
	assert.Contains(t, body, `varsig_cache_lookups_total{result="hit"} 1`)
	assert.Contains(t, body, `varsig_cache_lookups_total{result="miss"} 2`)
	assert.Contains(t, body, `varsig_fetches_total{outcome="ok",source="web"} 1`)
	assert.Contains(t, body, `varsig_model_attempts_total{model="gemini-2.0-flash",outcome="success"} 1`)
	assert.Contains(t, body, `varsig_records_total{source="oncokb",status="not_found"} 1`)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.CacheLookup(true)
		m.Fetch("web", "ok")
		m.ModelAttempt("a", "error")
		m.Record("web", "ok")
		m.ObservePhase("fetch", time.Second)
	})
	assert.Nil(t, m.Registry())
}

func TestMetrics_Exposition(t *testing.T) {
	m := New()
	m.ObservePhase("fetch", 120*time.Millisecond)
	m.Fetch("oncokb", "error")

	body := scrape(t, m)
	assert.True(t, strings.Contains(body, `varsig_fetches_total{outcome="error",source="oncokb"} 1`), body)
	assert.Contains(t, body, `varsig_phase_duration_seconds_count{phase="fetch"} 1`)
}

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{}).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	return rec.Body.String()
}
