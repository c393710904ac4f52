package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/taskboard/internal/keys"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/ui"
	"github.com/nhle/taskboard/internal/ui/command"
	"github.com/nhle/taskboard/internal/ui/detail"
	helpview "github.com/nhle/taskboard/internal/ui/help"
	"github.com/nhle/taskboard/internal/ui/taskform"
	"github.com/nhle/taskboard/internal/ui/tasklist"
)

// TaskService is the set of task operations the terminal UI drives.
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

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewList ViewState = iota
	ViewDetail
	ViewHelp
	ViewCommand
	ViewTaskCreate
	ViewTaskEdit
)

// statusLine is the outcome of the last operation, shown in place of the
// key hints until the next key press.
type statusLine struct {
	text string
	kind ui.StatusKind
}

// Model is the root Bubble Tea model that manages view routing,
// layout, and access to the task service.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	svc          TaskService
	log          *slog.Logger
	keys         *keys.KeyMap
	taskList     tasklist.Model
	detail       detail.Model
	helpView     helpview.Model
	commandView  command.Model
	taskForm     taskform.Model
	status       statusLine
	ready        bool
}

// New creates a new root application model over svc.
func New(svc TaskService, log *slog.Logger) Model {
	k := keys.DefaultKeyMap()

	return Model{
		currentView: ViewList,
		svc:         svc,
		log:         log.With("component", "tui"),
		keys:        k,
		taskList:    tasklist.New(svc, k, 80, 24),
		detail:      detail.New(k, 80, 24),
		helpView:    helpview.New(k, command.Commands, 80, 24),
		commandView: command.New(80, 24),
		taskForm:    taskform.New(80, 24),
	}
}

// Init returns the initial command to load tasks.
func (m Model) Init() tea.Cmd {
	return m.taskList.Init()
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		m.taskList.SetSize(contentWidth, contentHeight)
		m.detail.SetSize(contentWidth, contentHeight)
		m.helpView.SetSize(contentWidth, contentHeight)
		m.commandView.SetSize(contentWidth, contentHeight)
		m.taskForm.SetSize(contentWidth, contentHeight)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case tasklist.TasksLoadedMsg:
		// Always routed to the list, whichever view is active.
		if msg.Err != nil {
			m.setError(msg.Err)
		}
		var cmd tea.Cmd
		m.taskList, cmd = m.taskList.Update(msg)
		return m, cmd

	case tasklist.SelectedTaskMsg:
		m.previousView = m.currentView
		m.currentView = ViewDetail
		m.detail.SetLoading(true)
		return m, m.loadTaskDetail(msg.TaskID)

	case detail.DetailLoadedMsg:
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		return m, cmd

	case detail.BackMsg:
		m.currentView = ViewList
		return m, nil

	case detail.ActionMsg:
		return m, m.runDetailAction(msg)

	case taskform.TaskCreatedMsg:
		m.currentView = ViewList
		return m, m.createTask(msg.Task)

	case taskform.TaskUpdatedMsg:
		m.currentView = ViewList
		return m, m.updateTask(msg.Task)

	case taskform.FormCancelMsg:
		m.currentView = ViewList
		return m, nil

	case taskEditReadyMsg:
		if msg.err != nil {
			m.currentView = ViewList
			m.setError(msg.err)
			return m, m.taskList.LoadTasks()
		}
		m.currentView = ViewTaskEdit
		return m, m.taskForm.StartEdit(msg.task)

	case taskCreatedResultMsg:
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.setSuccess("Task created")
		return m, m.taskList.LoadTasks()

	case taskUpdatedResultMsg:
		if msg.err != nil {
			m.setError(msg.err)
			return m, m.taskList.LoadTasks()
		}
		m.setSuccess("Task updated")
		return m, m.taskList.LoadTasks()

	case taskDeletedResultMsg:
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.setSuccess("Task deleted")
		return m, m.taskList.LoadTasks()

	case taskMarkedResultMsg:
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		if msg.completed {
			m.setSuccess("Task marked completed")
		} else {
			m.setSuccess("Task marked pending")
		}
		cmds := []tea.Cmd{m.taskList.LoadTasks()}
		if m.currentView == ViewDetail {
			cmds = append(cmds, m.loadTaskDetail(msg.id))
		}
		return m, tea.Batch(cmds...)

	case command.CommandMsg:
		m.currentView = m.previousView
		return m, m.executeCommand(string(msg))

	case command.CancelMsg:
		m.currentView = m.previousView
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		// Text entry views own every other key.
		if m.currentView == ViewCommand || m.currentView == ViewTaskCreate || m.currentView == ViewTaskEdit {
			break
		}
		m.status = statusLine{}
		if next, cmd, handled := m.handleGlobalKeys(msg); handled {
			return next, cmd
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// handleGlobalKeys processes shortcuts outside of text entry views.
func (m Model) handleGlobalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Help):
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return m, nil, true
		}
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return m, nil, true

	case key.Matches(msg, m.keys.Command):
		m.previousView = m.currentView
		m.currentView = ViewCommand
		return m, m.commandView.Focus(), true

	case key.Matches(msg, m.keys.Back):
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return m, nil, true
		}
	}

	if m.currentView != ViewList {
		return m, nil, false
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit, true

	case key.Matches(msg, m.keys.Refresh):
		return m, m.taskList.LoadTasks(), true

	case key.Matches(msg, m.keys.New):
		return m, m.startCreate(), true

	case key.Matches(msg, m.keys.Edit):
		if task, ok := m.taskList.SelectedTask(); ok {
			return m, m.startEditTask(task.GetID()), true
		}
		return m, nil, true

	case key.Matches(msg, m.keys.Toggle):
		if task, ok := m.taskList.SelectedTask(); ok {
			return m, m.toggleTask(task), true
		}
		return m, nil, true

	case key.Matches(msg, m.keys.Delete):
		if task, ok := m.taskList.SelectedTask(); ok {
			return m, m.deleteTask(task.GetID()), true
		}
		return m, nil, true
	}

	return m, nil, false
}

// runDetailAction executes an action requested from the detail view.
func (m *Model) runDetailAction(msg detail.ActionMsg) tea.Cmd {
	switch msg.Action {
	case detail.ActionEdit:
		return m.startEditTask(msg.Task.GetID())
	case detail.ActionToggle:
		return m.toggleTask(msg.Task)
	case detail.ActionDelete:
		m.currentView = ViewList
		return m.deleteTask(msg.Task.GetID())
	default:
		return nil
	}
}

func (m *Model) startCreate() tea.Cmd {
	m.previousView = m.currentView
	m.currentView = ViewTaskCreate
	return m.taskForm.StartCreate()
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewList:
		m.taskList, cmd = m.taskList.Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	case ViewTaskCreate, ViewTaskEdit:
		m.taskForm, cmd = m.taskForm.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader("Task Board", m.taskList.Filter().String(), m.taskList.Len())
	content := m.renderContent()

	var statusBar string
	if m.status.text != "" {
		statusBar = m.layout.RenderStatusBar(m.status.text, m.status.kind)
	} else {
		statusBar = m.layout.RenderStatusBar(m.keyHints(), ui.StatusHint)
	}

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewList:
		return m.taskList.View()
	case ViewDetail:
		return m.detail.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	case ViewTaskCreate, ViewTaskEdit:
		return m.taskForm.View()
	default:
		return ""
	}
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | tab complete | esc back"
	case ViewDetail:
		return "esc back | e edit | x toggle | d delete | j/k scroll"
	case ViewTaskCreate, ViewTaskEdit:
		return "enter submit | esc cancel"
	default:
		return "q quit | ? help | n new | e edit | x toggle | d delete | f filter | : command"
	}
}

// executeCommand handles a command string from the command palette.
func (m *Model) executeCommand(cmd string) tea.Cmd {
	if f, ok := tasklist.ParseFilter(cmd); ok {
		m.currentView = ViewList
		return m.taskList.SetFilter(f)
	}

	switch cmd {
	case "new":
		return m.startCreate()
	case "refresh":
		return m.taskList.LoadTasks()
	case "quit", "q":
		return tea.Quit
	default:
		m.status = statusLine{text: fmt.Sprintf("Unknown command: %s", cmd), kind: ui.StatusError}
		return nil
	}
}

func (m *Model) setSuccess(text string) {
	m.status = statusLine{text: text, kind: ui.StatusSuccess}
}

func (m *Model) setError(err error) {
	m.log.Warn("task operation failed", "error", err)
	m.status = statusLine{text: errorText(err), kind: ui.StatusError}
}
