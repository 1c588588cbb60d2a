package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsExposition(t *testing.T) {
	m := New()
	m.ReportGenerated("category", 20*time.Millisecond)
	m.ReportFailed("region", "empty_series")
	m.RecordsFetched(42)
	m.CacheHit()
	m.CacheMiss()

	h := m.WrapHandler("/chart/{id}", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/chart/x", nil))

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	body, _ := io.ReadAll(rr.Body)
	text := string(body)

	for _, want := range []string{
		`report_generation_duration_seconds_count{report="category"} 1`,
		`report_errors_total{kind="empty_series",report="region"} 1`,
		`sales_records_fetched 42`,
		`record_cache_hits_total 1`,
		`http_requests_total{route="/chart/{id}",status="404"} 1`,
	} {
		assert.True(t, strings.Contains(text, want), "missing %q", want)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ReportGenerated("x", time.Second)
	m.ReportFailed("x", "y")
	m.RecordsFetched(1)
	m.CacheHit()
	m.CacheMiss()

	called := false
	m.WrapHandler("r", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })).
		ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, called)
}
