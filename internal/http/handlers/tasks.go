package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nhle/taskboard/internal/model"
)

// TaskService is the subset of the service layer the API consumes.
type TaskService interface {
	CreateTask(ctx context.Context, task model.Task) (model.Task, error)
	UpdateTask(ctx context.Context, task model.Task) (model.Task, error)
	DeleteTask(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*model.Task, error)
	FindAll(ctx context.Context) ([]model.Task, error)
	FindCompleted(ctx context.Context) ([]model.Task, error)
	FindPending(ctx context.Context) ([]model.Task, error)
	MarkCompleted(ctx context.Context, id int64) error
	MarkPending(ctx context.Context, id int64) error
}

// TaskHandler serves the /tasks resource.
type TaskHandler struct {
	svc TaskService
	log *slog.Logger
}

// NewTaskHandler creates a TaskHandler.
func NewTaskHandler(svc TaskService, log *slog.Logger) *TaskHandler {
	return &TaskHandler{svc: svc, log: log}
}

// TaskRequest is the body accepted by POST and PUT.
type TaskRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	DueDate     string  `json:"due_date"`
	Completed   *int    `json:"completed"`
}

// TaskResponse renders a task with its due date as YYYY-MM-DD.
type TaskResponse struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	DueDate     *string `json:"due_date"`
	Completed   int     `json:"completed"`
	Overdue     bool    `json:"overdue"`
	CreatedAt   string  `json:"created_at,omitempty"`
}

func toResponse(t model.Task) TaskResponse {
	resp := TaskResponse{
		ID:          t.GetID(),
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		Overdue:     t.IsOverdue(timeNow()),
	}
	if t.DueDate != nil {
		d := model.FormatDueDate(t.DueDate)
		resp.DueDate = &d
	}
	if t.CreatedAt != nil {
		resp.CreatedAt = t.CreatedAt.UTC().Format(timeLayout)
	}
	return resp
}

// List handles GET /tasks?status=all|pending|completed.
func (h *TaskHandler) List(c *gin.Context) {
	var (
		tasks []model.Task
		err   error
	)

	switch status := strings.ToLower(c.DefaultQuery("status", "all")); status {
	case "all", "":
		tasks, err = h.svc.FindAll(c.Request.Context())
	case "pending":
		tasks, err = h.svc.FindPending(c.Request.Context())
	case "completed":
		tasks, err = h.svc.FindCompleted(c.Request.Context())
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be one of all, pending, completed"})
		return
	}
	if err != nil {
		h.writeError(c, err)
		return
	}

	out := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, toResponse(t))
	}
	c.JSON(http.StatusOK, out)
}

// Get handles GET /tasks/:id.
func (h *TaskHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	task, err := h.svc.FindByID(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(*task))
}

// Create handles POST /tasks.
func (h *TaskHandler) Create(c *gin.Context) {
	task, ok := h.bindTask(c)
	if !ok {
		return
	}

	created, err := h.svc.CreateTask(c.Request.Context(), task)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toResponse(created))
}

// Update handles PUT /tasks/:id. The body replaces every mutable field.
func (h *TaskHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	task, ok := h.bindTask(c)
	if !ok {
		return
	}
	task.ID = &id

	updated, err := h.svc.UpdateTask(c.Request.Context(), task)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(updated))
}

// Delete handles DELETE /tasks/:id. Unknown ids still yield 204.
func (h *TaskHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.svc.DeleteTask(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Complete handles PATCH /tasks/:id/complete.
func (h *TaskHandler) Complete(c *gin.Context) {
	h.mark(c, h.svc.MarkCompleted)
}

// Reopen handles PATCH /tasks/:id/pending.
func (h *TaskHandler) Reopen(c *gin.Context) {
	h.mark(c, h.svc.MarkPending)
}

// mark applies fn and answers with the re-fetched task, so a missing id
// surfaces as 404 even though the service treats it as a no-op.
func (h *TaskHandler) mark(c *gin.Context, fn func(context.Context, int64) error) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := fn(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}

	task, err := h.svc.FindByID(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(*task))
}

// bindTask decodes the request body and applies the edge checks: a
// non-blank title and a well-formed due date.
func (h *TaskHandler) bindTask(c *gin.Context) (model.Task, bool) {
	var req TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return model.Task{}, false
	}

	if strings.TrimSpace(req.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return model.Task{}, false
	}

	due, err := model.ParseDueDate(req.DueDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return model.Task{}, false
	}

	task := model.Task{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     due,
		Completed:   model.Pending,
	}
	if task.Description != nil && *task.Description == "" {
		task.Description = nil
	}
	if req.Completed != nil {
		task.Completed = *req.Completed
	}
	return task, true
}

// writeError maps service errors onto status codes. Storage failures are
// logged and reported with a generic message.
func (h *TaskHandler) writeError(c *gin.Context, err error) {
	switch {
	case model.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, model.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
	default:
		_ = c.Error(err)
		h.log.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return 0, false
	}
	return id, true
}
