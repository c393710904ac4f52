package taskform

import (
	"fmt"
	"strings"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/theme"
)

// TaskCreatedMsg is dispatched when a new task is submitted via the form.
type TaskCreatedMsg struct {
	Task model.Task
}

// TaskUpdatedMsg is dispatched when an existing task is submitted via the form.
type TaskUpdatedMsg struct {
	Task model.Task
}

// FormCancelMsg is dispatched when the user cancels the form.
type FormCancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	title       string
	description string
	dueDate     string
	completed   int
}

// Model is the Bubble Tea model for the task create/edit form.
type Model struct {
	form     *huh.Form
	fb       *formBindings
	editMode bool
	original model.Task
	width    int
	height   int
}

// New creates a new task form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{completed: model.Pending},
		width:  width,
		height: height,
	}
}

// StartCreate initializes the form for creating a new task.
func (m *Model) StartCreate() tea.Cmd {
	m.editMode = false
	m.original = model.Task{}
	m.fb.title = ""
	m.fb.description = ""
	m.fb.dueDate = ""
	m.fb.completed = model.Pending
	m.form = m.buildForm()
	return m.form.Init()
}

// StartEdit initializes the form with the stored values of task.
func (m *Model) StartEdit(task model.Task) tea.Cmd {
	m.editMode = true
	m.original = task
	m.fb.title = task.Title
	m.fb.description = task.GetDescription()
	m.fb.dueDate = model.FormatDueDate(task.DueDate)
	m.fb.completed = task.Completed
	m.form = m.buildForm()
	return m.form.Init()
}

// Editing reports whether the form edits an existing task.
func (m Model) Editing() bool {
	return m.editMode
}

// Update handles messages for the task form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m, m.handleSubmit()
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return FormCancelMsg{} }
	}

	return m, cmd
}

// View renders the task form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleText := "New Task"
	if m.editMode {
		titleText = fmt.Sprintf("Edit Task #%d", m.original.GetID())
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render(titleText) + "\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	fields := []huh.Field{
		huh.NewInput().
			Title("Title").
			Placeholder("What needs to be done?").
			CharLimit(model.MaxTitleLength).
			Value(&m.fb.title).
			Validate(validateTitle),
		huh.NewText().
			Title("Description").
			Placeholder("Optional details...").
			CharLimit(model.MaxDescriptionLength).
			Value(&m.fb.description).
			Validate(validateMaxLength("Description", model.MaxDescriptionLength)),
		huh.NewInput().
			Title("Due Date").
			Placeholder("YYYY-MM-DD (optional)").
			Value(&m.fb.dueDate).
			Validate(validateOptionalDate),
	}

	if m.editMode {
		fields = append(fields,
			huh.NewSelect[int]().
				Title("Status").
				Options(
					huh.NewOption("Pending", model.Pending),
					huh.NewOption("Completed", model.Completed),
				).
				Value(&m.fb.completed),
		)
	}

	return huh.NewForm(
		huh.NewGroup(fields...),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

// handleSubmit turns the bound values into a task. In edit mode the id and
// creation time of the original task are carried over.
func (m Model) handleSubmit() tea.Cmd {
	task := m.taskFromBindings()

	if m.editMode {
		return func() tea.Msg { return TaskUpdatedMsg{Task: task} }
	}
	return func() tea.Msg { return TaskCreatedMsg{Task: task} }
}

func (m Model) taskFromBindings() model.Task {
	// Validators already rejected malformed dates.
	due, _ := model.ParseDueDate(m.fb.dueDate)
	task := model.NewTask(strings.TrimSpace(m.fb.title), strings.TrimSpace(m.fb.description), due)

	if m.editMode {
		task.ID = m.original.ID
		task.CreatedAt = m.original.CreatedAt
		task.Completed = m.fb.completed
	}
	return task
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 4
	if h < 10 {
		h = 10
	}
	return h
}

func validateTitle(s string) error {
	if err := validateRequired("Title")(s); err != nil {
		return err
	}
	return validateMaxLength("Title", model.MaxTitleLength)(s)
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateMaxLength(fieldName string, max int) func(string) error {
	return func(s string) error {
		if utf8.RuneCountInString(strings.TrimSpace(s)) > max {
			return fmt.Errorf("%s must be at most %d characters", fieldName, max)
		}
		return nil
	}
}

func validateOptionalDate(s string) error {
	if _, err := model.ParseDueDate(s); err != nil {
		return fmt.Errorf("invalid date format, use YYYY-MM-DD")
	}
	return nil
}
