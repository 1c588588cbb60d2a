// Package metrics exposes Prometheus metrics for HTTP traffic, report
// rendering and the record cache.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	reportDuration    *prometheus.HistogramVec
	reportErrors      *prometheus.CounterVec
	recordsFetched    prometheus.Gauge
	cacheHits         prometheus.Counter
	cacheMisses       prometheus.Counter
}

// New creates the collectors on a private registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		reportDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "report_generation_duration_seconds",
			Help:    "Time spent aggregating and rendering a report.",
			Buckets: prometheus.DefBuckets,
		}, []string{"report"}),
		reportErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "report_errors_total",
			Help: "Report generation failures by report and error kind.",
		}, []string{"report", "kind"}),
		recordsFetched: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sales_records_fetched",
			Help: "Number of sale records returned by the last fetch.",
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "record_cache_hits_total",
			Help: "Total record cache hits observed.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "record_cache_misses_total",
			Help: "Total record cache misses observed.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpDuration,
		m.reportDuration,
		m.reportErrors,
		m.recordsFetched,
		m.cacheHits,
		m.cacheMisses,
	)

	return m
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// WrapHandler records request count and latency under route.
func (m *Metrics) WrapHandler(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		if m != nil {
			m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
			m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		}
	})
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ReportGenerated(report string, duration time.Duration) {
	if m == nil {
		return
	}
	m.reportDuration.WithLabelValues(report).Observe(duration.Seconds())
}

func (m *Metrics) ReportFailed(report, kind string) {
	if m == nil {
		return
	}
	m.reportErrors.WithLabelValues(report, kind).Inc()
}

func (m *Metrics) RecordsFetched(n int) {
	if m == nil {
		return
	}
	m.recordsFetched.Set(float64(n))
}

func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}

func (m *Metrics) CacheMiss() {
	if m == nil {
		return
	}
	m.cacheMisses.Inc()
}
