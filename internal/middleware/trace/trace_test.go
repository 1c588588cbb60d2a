package trace

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	applog "salesdash/internal/log"
)

func TestMiddlewareAssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := applog.New(applog.Config{Level: slog.LevelInfo, Component: applog.ComponentHTTP, Output: &buf})

	var inside string
	h := NewMiddleware(func(*http.Request) string { return "192.0.2.1" }).Middleware(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			inside = GetRequestID(r.Context())
			w.WriteHeader(http.StatusNotFound)
		}))
	h = applog.Middleware(logger)(h)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/chart/nope", nil))

	id := rec.Header().Get(HeaderRequestID)
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("response id %q is not a uuid", id)
	}
	if inside != id {
		t.Fatalf("context id %q != header id %q", inside, id)
	}
	out := buf.String()
	for _, want := range []string{"request_id=" + id, "status_code=404", "client_ip=192.0.2.1", "level=WARN"} {
		if !strings.Contains(out, want) {
			t.Errorf("log %q missing %q", out, want)
		}
	}
}

func TestMiddlewareKeepsValidIncomingID(t *testing.T) {
	h := NewMiddleware(nil).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	incoming := uuid.NewString()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, incoming)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get(HeaderRequestID); got != incoming {
		t.Fatalf("id = %q, want %q", got, incoming)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "<script>")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get(HeaderRequestID); got == "<script>" {
		t.Fatal("malformed incoming id should be replaced")
	}
}
