package app

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/ui/detail"
)

// taskCreatedResultMsg is sent after a task is persisted.
type taskCreatedResultMsg struct {
	task model.Task
	err  error
}

// taskUpdatedResultMsg is sent after a task is updated.
type taskUpdatedResultMsg struct {
	task model.Task
	err  error
}

// taskDeletedResultMsg is sent after a task is deleted.
type taskDeletedResultMsg struct {
	id  int64
	err error
}

// taskMarkedResultMsg is sent after the completion flag is flipped.
type taskMarkedResultMsg struct {
	id        int64
	completed bool
	err       error
}

// taskEditReadyMsg carries the freshly loaded task to be edited.
type taskEditReadyMsg struct {
	task model.Task
	err  error
}

// createTask persists a new task.
func (m *Model) createTask(task model.Task) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		created, err := svc.CreateTask(context.Background(), task)
		return taskCreatedResultMsg{task: created, err: err}
	}
}

// updateTask persists the edited task.
func (m *Model) updateTask(task model.Task) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		updated, err := svc.UpdateTask(context.Background(), task)
		return taskUpdatedResultMsg{task: updated, err: err}
	}
}

// deleteTask removes a task.
func (m *Model) deleteTask(id int64) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		err := svc.DeleteTask(context.Background(), id)
		return taskDeletedResultMsg{id: id, err: err}
	}
}

// toggleTask marks a pending task completed and a completed one pending.
func (m *Model) toggleTask(task model.Task) tea.Cmd {
	svc := m.svc
	id := task.GetID()
	complete := task.IsPending()
	return func() tea.Msg {
		var err error
		if complete {
			err = svc.MarkCompleted(context.Background(), id)
		} else {
			err = svc.MarkPending(context.Background(), id)
		}
		return taskMarkedResultMsg{id: id, completed: complete, err: err}
	}
}

// startEditTask re-reads the task so the form starts from stored values.
func (m *Model) startEditTask(id int64) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		task, err := svc.FindByID(context.Background(), id)
		if err != nil {
			return taskEditReadyMsg{err: err}
		}
		return taskEditReadyMsg{task: *task}
	}
}

// loadTaskDetail fetches a task by id for the detail view.
func (m *Model) loadTaskDetail(id int64) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		task, err := svc.FindByID(context.Background(), id)
		return detail.DetailLoadedMsg{Task: task, Err: err}
	}
}

// errorText turns a service error into status bar text.
func errorText(err error) string {
	switch {
	case model.IsValidation(err):
		return "Invalid task: " + err.Error()
	case errors.Is(err, model.ErrNotFound):
		return "Error: task no longer exists"
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}
