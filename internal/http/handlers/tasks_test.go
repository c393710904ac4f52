package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nhle/taskboard/internal/logger"
	"github.com/nhle/taskboard/internal/service"
	"github.com/nhle/taskboard/tests/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	s := testutil.NewTestStore(t)
	svc := service.New(s, logger.Discard())
	h := NewTaskHandler(svc, logger.Discard())

	r := gin.New()
	r.GET("/tasks", h.List)
	r.POST("/tasks", h.Create)
	r.GET("/tasks/:id", h.Get)
	r.PUT("/tasks/:id", h.Update)
	r.DELETE("/tasks/:id", h.Delete)
	r.PATCH("/tasks/:id/complete", h.Complete)
	r.PATCH("/tasks/:id/pending", h.Reopen)
	return r
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decoding %q: %v", w.Body.String(), err)
	}
	return v
}

func TestCreateAndGetTask(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/tasks", map[string]any{
		"title":       "Buy milk",
		"description": "2 litres",
		"due_date":    "2030-01-02",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("POST status = %d, body %s", w.Code, w.Body.String())
	}
	created := decode[TaskResponse](t, w)
	if created.ID != 1 || created.Completed != 0 {
		t.Fatalf("created = %+v", created)
	}
	if created.DueDate == nil || *created.DueDate != "2030-01-02" {
		t.Fatalf("due_date = %v, want 2030-01-02", created.DueDate)
	}
	if created.CreatedAt == "" {
		t.Fatal("expected created_at")
	}

	w = do(t, r, http.MethodGet, "/tasks/1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET status = %d", w.Code)
	}
	got := decode[TaskResponse](t, w)
	if got.Title != "Buy milk" || got.Description == nil || *got.Description != "2 litres" {
		t.Fatalf("got = %+v", got)
	}
}

func TestCreateValidation(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		name string
		body any
	}{
		{"missing title", map[string]any{"description": "x"}},
		{"blank title", map[string]any{"title": "   "}},
		{"bad due date", map[string]any{"title": "ok", "due_date": "02/01/2030"}},
		{"bad completed", map[string]any{"title": "ok", "completed": 5}},
		{"not json", "plain string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, r, http.MethodPost, "/tasks", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (body %s)", w.Code, w.Body.String())
			}
		})
	}

	w := do(t, r, http.MethodGet, "/tasks", nil)
	if list := decode[[]TaskResponse](t, w); len(list) != 0 {
		t.Fatalf("invalid requests stored tasks: %+v", list)
	}
}

func TestListByStatus(t *testing.T) {
	r := newTestRouter(t)

	for _, title := range []string{"one", "two", "three"} {
		if w := do(t, r, http.MethodPost, "/tasks", map[string]any{"title": title}); w.Code != http.StatusCreated {
			t.Fatalf("POST %s: %d", title, w.Code)
		}
	}
	if w := do(t, r, http.MethodPatch, "/tasks/2/complete", nil); w.Code != http.StatusOK {
		t.Fatalf("PATCH complete: %d", w.Code)
	}

	tests := []struct {
		query string
		want  int
	}{
		{"", 3},
		{"?status=all", 3},
		{"?status=pending", 2},
		{"?status=completed", 1},
	}
	for _, tt := range tests {
		w := do(t, r, http.MethodGet, "/tasks"+tt.query, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("GET /tasks%s: %d", tt.query, w.Code)
		}
		if list := decode[[]TaskResponse](t, w); len(list) != tt.want {
			t.Fatalf("GET /tasks%s: %d tasks, want %d", tt.query, len(list), tt.want)
		}
	}

	if w := do(t, r, http.MethodGet, "/tasks?status=archived", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("unknown status: %d, want 400", w.Code)
	}
}

func TestUpdateTask(t *testing.T) {
	r := newTestRouter(t)

	do(t, r, http.MethodPost, "/tasks", map[string]any{"title": "Draft"})

	w := do(t, r, http.MethodPut, "/tasks/1", map[string]any{"title": "Final", "completed": 1})
	if w.Code != http.StatusOK {
		t.Fatalf("PUT status = %d, body %s", w.Code, w.Body.String())
	}
	updated := decode[TaskResponse](t, w)
	if updated.Title != "Final" || updated.Completed != 1 {
		t.Fatalf("updated = %+v", updated)
	}

	if w := do(t, r, http.MethodPut, "/tasks/99", map[string]any{"title": "Ghost"}); w.Code != http.StatusNotFound {
		t.Fatalf("PUT missing: %d, want 404", w.Code)
	}
	if w := do(t, r, http.MethodPut, "/tasks/1", map[string]any{"title": ""}); w.Code != http.StatusBadRequest {
		t.Fatalf("PUT empty title: %d, want 400", w.Code)
	}
}

func TestDeleteTask(t *testing.T) {
	r := newTestRouter(t)

	do(t, r, http.MethodPost, "/tasks", map[string]any{"title": "Temp"})

	if w := do(t, r, http.MethodDelete, "/tasks/1", nil); w.Code != http.StatusNoContent {
		t.Fatalf("DELETE: %d, want 204", w.Code)
	}
	if w := do(t, r, http.MethodDelete, "/tasks/1", nil); w.Code != http.StatusNoContent {
		t.Fatalf("DELETE again: %d, want 204", w.Code)
	}
	if w := do(t, r, http.MethodGet, "/tasks/1", nil); w.Code != http.StatusNotFound {
		t.Fatalf("GET deleted: %d, want 404", w.Code)
	}
}

func TestMarkRoutes(t *testing.T) {
	r := newTestRouter(t)

	do(t, r, http.MethodPost, "/tasks", map[string]any{"title": "Flip"})

	w := do(t, r, http.MethodPatch, "/tasks/1/complete", nil)
	if got := decode[TaskResponse](t, w); got.Completed != 1 {
		t.Fatalf("after complete: %+v", got)
	}
	w = do(t, r, http.MethodPatch, "/tasks/1/pending", nil)
	if got := decode[TaskResponse](t, w); got.Completed != 0 {
		t.Fatalf("after pending: %+v", got)
	}

	if w := do(t, r, http.MethodPatch, "/tasks/42/complete", nil); w.Code != http.StatusNotFound {
		t.Fatalf("complete missing: %d, want 404", w.Code)
	}
	if w := do(t, r, http.MethodPatch, "/tasks/abc/complete", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("complete bad id: %d, want 400", w.Code)
	}
}

func TestOverdueFlag(t *testing.T) {
	orig := timeNow
	timeNow = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { timeNow = orig })

	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/tasks", map[string]any{"title": "Late", "due_date": "2024-05-31"})
	if got := decode[TaskResponse](t, w); !got.Overdue {
		t.Fatalf("expected overdue: %+v", got)
	}
	w = do(t, r, http.MethodPost, "/tasks", map[string]any{"title": "Today", "due_date": "2024-06-01"})
	if got := decode[TaskResponse](t, w); got.Overdue {
		t.Fatalf("due today is not overdue: %+v", got)
	}
}
