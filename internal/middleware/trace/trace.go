// Package trace assigns request ids and logs request completion.
package trace

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	applog "salesdash/internal/log"
)

// HeaderRequestID carries the request id on requests and responses.
const HeaderRequestID = "X-Request-ID"

type contextKey struct{}

// Middleware tags each request with an id, exposes it to handlers through
// the context logger and logs the outcome.
type Middleware struct {
	extractIP func(*http.Request) string
}

func NewMiddleware(extractIP func(*http.Request) string) *Middleware {
	return &Middleware{extractIP: extractIP}
}

func (m *Middleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := ""
		if m.extractIP != nil {
			clientIP = m.extractIP(r)
		}

		requestID := requestIDFrom(r)
		w.Header().Set(HeaderRequestID, requestID)

		ctx := context.WithValue(r.Context(), contextKey{}, requestID)
		logger := applog.FromContext(ctx).With(applog.FieldRequestID, requestID)
		ctx = applog.NewContext(ctx, logger)
		r = r.WithContext(ctx)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		applog.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	})
}

// requestIDFrom keeps a well-formed incoming id and mints one otherwise.
func requestIDFrom(r *http.Request) string {
	if id := r.Header.Get(HeaderRequestID); id != "" {
		if _, err := uuid.Parse(id); err == nil {
			return id
		}
	}
	return uuid.NewString()
}

// GetRequestID extracts the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(contextKey{}).(string); ok {
		return id
	}
	return ""
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}
