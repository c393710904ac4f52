package help

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskboard/internal/keys"
	"github.com/nhle/taskboard/internal/theme"
)

// Model is the help overlay view.
type Model struct {
	keys     *keys.KeyMap
	help     help.Model
	commands []string
	width    int
	height   int
}

// New creates a help view listing the key bindings and the command
// palette words.
func New(keys *keys.KeyMap, commands []string, width, height int) Model {
	h := help.New()
	h.Width = width
	return Model{
		keys:     keys,
		help:     h,
		commands: commands,
		width:    width,
		height:   height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the help view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the help overlay.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	title := titleStyle.Render("Keyboard Shortcuts")

	m.help.Width = m.width - 4
	m.help.ShowAll = true
	helpText := m.help.View(m.keys)

	sections := []string{title, helpText}
	if len(m.commands) > 0 {
		sections = append(sections,
			"",
			titleStyle.Render("Commands"),
			theme.HelpStyle.Render(": "+strings.Join(m.commands, " | ")),
		)
	}
	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(content)
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}
