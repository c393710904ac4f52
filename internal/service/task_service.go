// Package service applies the task business rules on top of a store and
// defines the transaction boundary of every mutating operation.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/store"
)

// TaskService is stateless between calls; every method works only on its
// arguments and the store.
type TaskService struct {
	store store.Store
	log   *slog.Logger
	now   func() time.Time
}

// Option customizes a TaskService.
type Option func(*TaskService)

// WithClock replaces time.Now as the source of creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *TaskService) {
		s.now = now
	}
}

// New creates a TaskService over s.
func New(s store.Store, log *slog.Logger, opts ...Option) *TaskService {
	svc := &TaskService{
		store: s,
		log:   log.With("component", "task_service"),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// CreateTask validates task, stamps CreatedAt when it is unset and inserts
// it. The returned task carries the generated id.
func (s *TaskService) CreateTask(ctx context.Context, task model.Task) (model.Task, error) {
	if err := task.Validate(); err != nil {
		s.log.Debug("rejecting invalid task", "error", err)
		return model.Task{}, err
	}

	if task.CreatedAt == nil {
		now := s.now()
		task.CreatedAt = &now
	}

	var created model.Task
	err := s.store.InTx(ctx, func(r store.Repository) error {
		var err error
		created, err = r.Create(ctx, task)
		return err
	})
	if err != nil {
		s.log.Error("creating task failed", "title", task.Title, "error", err)
		return model.Task{}, err
	}

	s.log.Info("task created", "id", created.GetID(), "title", created.Title)
	return created, nil
}

// UpdateTask validates task and overwrites the stored row with the same id.
// It returns model.ErrNotFound when the id does not exist.
func (s *TaskService) UpdateTask(ctx context.Context, task model.Task) (model.Task, error) {
	if err := task.Validate(); err != nil {
		s.log.Debug("rejecting invalid task", "id", task.GetID(), "error", err)
		return model.Task{}, err
	}

	var updated model.Task
	err := s.store.InTx(ctx, func(r store.Repository) error {
		var err error
		updated, err = r.Update(ctx, task)
		return err
	})
	if err != nil {
		s.log.Error("updating task failed", "id", task.GetID(), "error", err)
		return model.Task{}, err
	}

	s.log.Info("task updated", "id", updated.GetID())
	return updated, nil
}

// DeleteTask removes the task with id. Deleting an unknown id is a no-op.
func (s *TaskService) DeleteTask(ctx context.Context, id int64) error {
	err := s.store.InTx(ctx, func(r store.Repository) error {
		return r.Delete(ctx, id)
	})
	if err != nil {
		s.log.Error("deleting task failed", "id", id, "error", err)
		return err
	}

	s.log.Info("task deleted", "id", id)
	return nil
}

// FindByID returns model.ErrNotFound when id does not exist.
func (s *TaskService) FindByID(ctx context.Context, id int64) (*model.Task, error) {
	return s.store.FindByID(ctx, id)
}

// FindAll returns every task, newest first.
func (s *TaskService) FindAll(ctx context.Context) ([]model.Task, error) {
	s.log.Debug("listing all tasks")
	return s.store.FindAll(ctx)
}

// FindCompleted returns completed tasks, newest first.
func (s *TaskService) FindCompleted(ctx context.Context) ([]model.Task, error) {
	s.log.Debug("listing completed tasks")
	return s.store.FindCompleted(ctx)
}

// FindPending returns open tasks by due date, then newest first.
func (s *TaskService) FindPending(ctx context.Context) ([]model.Task, error) {
	s.log.Debug("listing pending tasks")
	return s.store.FindPending(ctx)
}

// MarkCompleted sets the completion flag of task id. An unknown id is
// logged and ignored, so callers cannot tell it apart from success.
func (s *TaskService) MarkCompleted(ctx context.Context, id int64) error {
	return s.setCompletion(ctx, id, model.Completed)
}

// MarkPending clears the completion flag of task id. An unknown id is
// logged and ignored.
func (s *TaskService) MarkPending(ctx context.Context, id int64) error {
	return s.setCompletion(ctx, id, model.Pending)
}

func (s *TaskService) setCompletion(ctx context.Context, id int64, completed int) error {
	label := model.Task{Completed: completed}.StatusLabel()

	err := s.store.InTx(ctx, func(r store.Repository) error {
		task, err := r.FindByID(ctx, id)
		if err != nil {
			return err
		}
		task.Completed = completed
		_, err = r.Update(ctx, *task)
		return err
	})
	if errors.Is(err, model.ErrNotFound) {
		s.log.Warn("task not found, nothing to mark", "id", id, "status", label)
		return nil
	}
	if err != nil {
		s.log.Error("marking task failed", "id", id, "status", label, "error", err)
		return err
	}

	s.log.Info("task marked", "id", id, "status", label)
	return nil
}
