package tasklist

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskboard/internal/keys"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/theme"
)

// Filter selects which canned listing query backs the list.
type Filter int

const (
	FilterAll Filter = iota
	FilterPending
	FilterCompleted
)

// String returns the command palette word for f.
func (f Filter) String() string {
	switch f {
	case FilterPending:
		return "pending"
	case FilterCompleted:
		return "completed"
	default:
		return "all"
	}
}

// Next cycles All -> Pending -> Completed -> All.
func (f Filter) Next() Filter {
	return (f + 1) % 3
}

// ParseFilter maps "all", "pending" or "completed" onto a Filter.
func ParseFilter(s string) (Filter, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "all":
		return FilterAll, true
	case "pending":
		return FilterPending, true
	case "completed":
		return FilterCompleted, true
	default:
		return FilterAll, false
	}
}

// Lister runs the three listing queries.
type Lister interface {
	FindAll(ctx context.Context) ([]model.Task, error)
	FindPending(ctx context.Context) ([]model.Task, error)
	FindCompleted(ctx context.Context) ([]model.Task, error)
}

// TasksLoadedMsg is sent when a listing query returns.
type TasksLoadedMsg struct {
	Filter Filter
	Tasks  []model.Task
	Err    error
}

// SelectedTaskMsg is sent when a user selects a task to view details.
type SelectedTaskMsg struct {
	TaskID int64
}

// Model is the main task list view component.
type Model struct {
	list   list.Model
	svc    Lister
	keys   *keys.KeyMap
	filter Filter
	width  int
	height int
}

// New creates a new task list model.
func New(svc Lister, k *keys.KeyMap, width, height int) Model {
	delegate := ItemDelegate{Now: time.Now}
	l := list.New([]list.Item{}, delegate, width, height-2)
	l.Title = "Tasks"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.SetStatusBarItemName("task", "tasks")
	l.Styles.Title = theme.HeaderStyle

	return Model{
		list:   l,
		svc:    svc,
		keys:   k,
		filter: FilterAll,
		width:  width,
		height: height,
	}
}

// Init returns a command that loads the initial set of tasks.
func (m Model) Init() tea.Cmd {
	return m.LoadTasks()
}

// Update handles messages for the task list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TasksLoadedMsg:
		// A reply for a filter the user already moved away from is stale.
		if msg.Filter != m.filter || msg.Err != nil {
			return m, nil
		}
		items := make([]list.Item, len(msg.Tasks))
		for i, task := range msg.Tasks {
			items[i] = TaskItem{Task: task}
		}
		cmd := m.list.SetItems(items)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		task, ok := m.SelectedTask()
		if !ok {
			return m, nil
		}
		id := task.GetID()
		return m, func() tea.Msg {
			return SelectedTaskMsg{TaskID: id}
		}

	case key.Matches(msg, m.keys.CycleFilter):
		return m, m.SetFilter(m.filter.Next())
	}

	// Delegate to the list for navigation keys (up/down/pgup/pgdn)
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// SelectedTask returns the task under the cursor.
func (m Model) SelectedTask() (model.Task, bool) {
	item, ok := m.list.SelectedItem().(TaskItem)
	if !ok {
		return model.Task{}, false
	}
	return item.Task, true
}

// Filter returns the active filter.
func (m Model) Filter() Filter {
	return m.filter
}

// Len returns the number of tasks currently shown.
func (m Model) Len() int {
	return len(m.list.Items())
}

// SetFilter switches the backing query and reloads.
func (m *Model) SetFilter(f Filter) tea.Cmd {
	m.filter = f
	m.list.Title = filterTitle(f)
	return m.LoadTasks()
}

func filterTitle(f Filter) string {
	switch f {
	case FilterPending:
		return "Pending Tasks"
	case FilterCompleted:
		return "Completed Tasks"
	default:
		return "Tasks"
	}
}

// View renders the task list view.
func (m Model) View() string {
	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}
	return m.list.View()
}

// renderEmptyState shows guidance text when no tasks are available.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	switch m.filter {
	case FilterPending:
		return style.Render("Nothing pending.\nPress f to see other tasks.")
	case FilterCompleted:
		return style.Render("No completed tasks yet.\nPress x on a task to complete it.")
	default:
		return style.Render("No tasks found.\n\nPress n to create one.")
	}
}

// LoadTasks returns a tea.Cmd that runs the query for the current filter.
func (m Model) LoadTasks() tea.Cmd {
	filter := m.filter
	svc := m.svc
	return func() tea.Msg {
		ctx := context.Background()

		var (
			tasks []model.Task
			err   error
		)
		switch filter {
		case FilterPending:
			tasks, err = svc.FindPending(ctx)
		case FilterCompleted:
			tasks, err = svc.FindCompleted(ctx)
		default:
			tasks, err = svc.FindAll(ctx)
		}
		return TasksLoadedMsg{Filter: filter, Tasks: tasks, Err: err}
	}
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}
