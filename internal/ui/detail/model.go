package detail

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskboard/internal/keys"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/theme"
)

// BackMsg signals the parent to navigate back to the list view.
type BackMsg struct{}

// DetailLoadedMsg carries the task fetched by id, or the lookup error.
type DetailLoadedMsg struct {
	Task *model.Task
	Err  error
}

// Action names carried by ActionMsg.
const (
	ActionEdit   = "edit"
	ActionToggle = "toggle"
	ActionDelete = "delete"
)

// ActionMsg signals the parent to run an action on the displayed task.
type ActionMsg struct {
	Action string
	Task   model.Task
}

// Model is the task detail view component.
type Model struct {
	task     *model.Task
	err      error
	viewport viewport.Model
	keys     *keys.KeyMap
	now      func() time.Time
	width    int
	height   int
	loading  bool
}

// New creates a new detail view model.
func New(keys *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     keys,
		now:      time.Now,
		width:    width,
		height:   height,
	}
}

// Init returns the initial command for the detail view.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case DetailLoadedMsg:
		m.SetTask(msg.Task, msg.Err)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg {
				return BackMsg{}
			}

		case key.Matches(msg, m.keys.Edit):
			return m, m.action(ActionEdit)

		case key.Matches(msg, m.keys.Toggle):
			return m, m.action(ActionToggle)

		case key.Matches(msg, m.keys.Delete):
			return m, m.action(ActionDelete)
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) action(name string) tea.Cmd {
	if m.task == nil {
		return nil
	}
	task := *m.task
	return func() tea.Msg {
		return ActionMsg{Action: name, Task: task}
	}
}

// View renders the detail view.
func (m Model) View() string {
	centered := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	switch {
	case m.loading:
		return centered.Render("Loading task details...")
	case errors.Is(m.err, model.ErrNotFound):
		return centered.Render("This task no longer exists.\nPress esc to go back.")
	case m.err != nil:
		return centered.Foreground(theme.ColorRed).Render("Error: " + m.err.Error())
	case m.task == nil:
		return centered.Render("No task selected")
	}

	return m.viewport.View()
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	if m.task == nil {
		return ""
	}

	task := m.task
	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, titleStyle.Render(task.Title))

	badges := []string{theme.StatusStyle(task.StatusLabel()).Render(task.StatusLabel())}
	if task.IsOverdue(m.now()) {
		badges = append(badges, "  ", theme.OverdueStyle.Render("OVERDUE"))
	}
	sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, badges...))
	sections = append(sections, "")

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)

	sections = append(sections, fmt.Sprintf(
		"%s        %s",
		metaStyle.Render("ID:"),
		valStyle.Render(fmt.Sprintf("%d", task.GetID())),
	))
	if task.DueDate != nil {
		sections = append(sections, fmt.Sprintf(
			"%s       %s",
			metaStyle.Render("Due:"),
			theme.DueDateStyle.Render(model.FormatDueDate(task.DueDate)),
		))
	}
	if task.CreatedAt != nil {
		sections = append(sections, fmt.Sprintf(
			"%s   %s",
			metaStyle.Render("Created:"),
			valStyle.Render(task.CreatedAt.Local().Format("2006-01-02 15:04")),
		))
	}

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", max(min(m.width-4, 80), 0)))
	sections = append(sections, "")
	sections = append(sections, separator)
	sections = append(sections, "")

	descHeaderStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	sections = append(sections, descHeaderStyle.Render("Description"))

	body := task.GetDescription()
	if body == "" {
		body = lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true).
			Render("No description")
	}
	sections = append(sections, body)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetTask updates the task being displayed and re-renders the content.
func (m *Model) SetTask(task *model.Task, err error) {
	m.task = task
	m.err = err
	m.loading = false
	m.viewport.SetContent(m.renderContent())
	m.viewport.GotoTop()
}

// Task returns the displayed task, if any.
func (m Model) Task() (model.Task, bool) {
	if m.task == nil {
		return model.Task{}, false
	}
	return *m.task, true
}

// SetLoading sets the loading state.
func (m *Model) SetLoading(loading bool) {
	m.loading = loading
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
}
