package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/nhle/taskboard/internal/http/middleware"
	"github.com/nhle/taskboard/internal/logger"
	"github.com/nhle/taskboard/internal/service"
	"github.com/nhle/taskboard/tests/testutil"
)

type downStore struct{}

func (downStore) Ping(context.Context) error { return errors.New("connection refused") }

func newTestDeps(t *testing.T) Deps {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := testutil.NewTestStore(t)
	return Deps{
		Service: service.New(s, logger.Discard()),
		Store:   s,
		Log:     logger.Discard(),
		Version: "test",
	}
}

func TestHealthEndpoints(t *testing.T) {
	r := NewRouter(newTestDeps(t))

	for _, path := range []string{"/healthz", "/readyz"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("GET %s = %d, body %s", path, w.Code, w.Body.String())
		}
	}
}

func TestReadinessReportsStoreFailure(t *testing.T) {
	deps := newTestDeps(t)
	deps.Store = downStore{}
	r := NewRouter(deps)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("GET /readyz = %d, want 503", w.Code)
	}
}

func TestRequestIDAndMetrics(t *testing.T) {
	r := NewRouter(newTestDeps(t))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("GET /api/v1/tasks = %d", w.Code)
	}
	if w.Header().Get(middleware.RequestIDHeader) == "" {
		t.Fatal("expected a generated request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(middleware.RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get(middleware.RequestIDHeader); got != "abc-123" {
		t.Fatalf("request id = %q, want abc-123", got)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("GET /metrics = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "taskboard_http_requests_total") {
		t.Fatal("metrics output missing request counter")
	}
}
