// Package http serves the sales dashboard, chart images and the JSON API.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	applog "salesdash/internal/log"
	"salesdash/internal/metrics"
	"salesdash/internal/middleware/ratelimit"
	"salesdash/internal/middleware/security"
	"salesdash/internal/middleware/trace"
	"salesdash/internal/report"
	"salesdash/internal/sales"
	appweb "salesdash/web"
)

const readinessTimeout = 3 * time.Second

// Option configures a Server.
type Option func(*Server)

// WithMetrics instruments routes and serves /metrics from m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithRateLimit caps chart renders per client and minute.
func WithRateLimit(perMinute int) Option {
	return func(s *Server) { s.chartsPerMinute = perMinute }
}

// WithReadinessCheck makes /readyz ping p.
func WithReadinessCheck(p sales.Pinger) Option {
	return func(s *Server) { s.pinger = p }
}

// WithLogger sets the base request logger.
func WithLogger(l *applog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

type Server struct {
	http.Server
	reports   *report.Service
	templates *template.Template
	metrics   *metrics.Metrics
	pinger    sales.Pinger
	logger    *applog.Logger
	limiter   *ratelimit.Limiter
	detector  *security.Detector

	chartsPerMinute int
	shutdownOnce    sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(addr string, reports *report.Service, opts ...Option) *Server {
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
		},
		reports:  reports,
		detector: security.NewDetector(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentHTTP)
	}
	s.limiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: s.chartsPerMinute})

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	s.Handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, r, http.StatusNotFound, applog.ErrorTypeNotFound, "not found")
	})

	route := func(path string, h http.HandlerFunc) *mux.Route {
		return r.Handle(path, s.metrics.WrapHandler(path, h)).Methods(http.MethodGet, http.MethodHead)
	}

	route("/", s.handleIndex)
	route("/api/summary", s.handleSummary)
	route("/api/reports", s.handleReports)
	route("/healthz", handleHealth)
	route("/readyz", s.handleReady)

	chart := s.limiter.Middleware(security.ClientIP, s.handleRateLimited)(http.HandlerFunc(s.handleChart))
	r.Handle("/chart/{id}", s.metrics.WrapHandler("/chart/{id}", chart)).Methods(http.MethodGet, http.MethodHead)

	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		r.PathPrefix("/static/").Handler(security.StaticAssetMiddleware(3600)(static))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	var h http.Handler = r
	h = s.detector.Middleware(h)
	h = security.Headers(security.DefaultHeadersConfig())(h)
	h = trace.NewMiddleware(security.ClientIP).Middleware(h)
	h = applog.Middleware(s.logger)(h)
	h = s.detector.ProxyHeaders(h)
	h = handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{}),
		handlers.PrintRecoveryStack(true),
	)(h)
	return h
}

// recoveryLogger sends gorilla's panic reports to slog.
type recoveryLogger struct{}

func (recoveryLogger) Println(v ...interface{}) {
	slog.Error("Recovered from panic", "component", applog.ComponentHTTP, "panic", v)
}

// Shutdown stops the rate limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
