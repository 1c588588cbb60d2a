package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	applog "salesdash/internal/log"
	"salesdash/internal/middleware/trace"
	"salesdash/internal/report"
)

type indexData struct {
	Reports      []report.Descriptor
	Summary      report.SummaryResponse
	SummaryError string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	logger := applog.FromContext(r.Context())
	if s.templates == nil {
		logger.ErrorContext(r.Context(), "Templates not loaded", "path", r.URL.Path)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}

	data := indexData{Reports: s.reports.Catalog().Descriptors()}
	summary, err := s.reports.Summary(r.Context())
	if err != nil {
		// The page still renders; charts report their own errors.
		logger.WarnContext(r.Context(), "Summary unavailable for dashboard", "error", err)
		data.SummaryError = publicMessage(err)
	} else {
		data.Summary = summary
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "index.html", data); err != nil {
		logger.ErrorContext(r.Context(), "Index template execution failed", "error", err, "template", "index.html")
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	png, _, err := s.reports.Chart(r.Context(), id)
	if err != nil {
		s.writeReportError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(png)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.reports.Summary(r.Context())
	if err != nil {
		s.writeReportError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.reports.Catalog().Descriptors())
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()
		if err := s.pinger.Ping(ctx); err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", "error", err)
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WithComponent(applog.ComponentRateLimit).
		WarnContext(r.Context(), "Rate limit exceeded", "path", r.URL.Path)
	writeJSONError(w, r, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded, try again later")
}

// statusFor maps report errors onto HTTP statuses.
func statusFor(kind string) int {
	switch kind {
	case applog.ErrorTypeNotFound:
		return http.StatusNotFound
	case applog.ErrorTypeEmptySeries, applog.ErrorTypeValidation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeReportError(w http.ResponseWriter, r *http.Request, err error) {
	kind := report.ErrorKind(err)
	status := statusFor(kind)

	fields := applog.NewFields().WithError(err)
	fields[applog.FieldErrorType] = kind
	logger := applog.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Report request failed", fields.ToSlice()...)
	} else {
		logger.WarnContext(r.Context(), "Report request rejected", fields.ToSlice()...)
	}

	msg := err.Error()
	if status >= http.StatusInternalServerError {
		msg = publicMessage(err)
	}
	writeJSONError(w, r, status, kind, msg)
}

// publicMessage hides internal error detail from clients.
func publicMessage(err error) string {
	if statusFor(report.ErrorKind(err)) >= http.StatusInternalServerError {
		return "internal error"
	}
	return err.Error()
}

type errorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSONError(w http.ResponseWriter, r *http.Request, status int, kind, msg string) {
	writeJSON(w, status, errorResponse{
		Error:     msg,
		Kind:      kind,
		RequestID: trace.GetRequestID(r.Context()),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
