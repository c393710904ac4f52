package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskboard/internal/theme"
)

// Layout manages the multi-panel terminal layout dimensions.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	StatusBarHeight int
}

// NewLayout creates a Layout with the given terminal dimensions.
// HeaderHeight and StatusBarHeight default to 1.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		StatusBarHeight: 1,
	}
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the height available for the main content area,
// accounting for the header and status bar.
func (l Layout) ContentHeight() int {
	h := l.Height - l.HeaderHeight - l.StatusBarHeight
	if h < 0 {
		return 0
	}
	return h
}

// RenderHeader renders the top header bar with a title on the left and the
// active filter with its task count on the right.
func (l Layout) RenderHeader(title, filter string, count int) string {
	titleRendered := theme.HeaderStyle.Render(title)

	noun := "tasks"
	if count == 1 {
		noun = "task"
	}
	statusRendered := theme.FilterStyle(filter).
		Align(lipgloss.Right).
		Render(fmt.Sprintf("%s · %d %s", filter, count, noun))

	gap := l.Width -
		lipgloss.Width(titleRendered) -
		lipgloss.Width(statusRendered)
	if gap < 0 {
		gap = 0
	}

	filler := theme.HeaderStyle.Render(
		lipgloss.NewStyle().
			Width(gap).
			Background(theme.HeaderStyle.GetBackground()).
			Render(""),
	)

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		titleRendered,
		filler,
		statusRendered,
	)
}

// StatusKind selects the status bar styling.
type StatusKind int

const (
	StatusHint StatusKind = iota
	StatusSuccess
	StatusError
)

// RenderStatusBar renders the bottom status bar with either keyboard hints
// or the outcome of the last operation.
func (l Layout) RenderStatusBar(text string, kind StatusKind) string {
	style := theme.StatusBarStyle
	switch kind {
	case StatusSuccess:
		style = theme.StatusSuccessStyle
	case StatusError:
		style = theme.StatusErrorStyle
	}
	rendered := style.Render(text)

	gap := l.Width - lipgloss.Width(rendered)
	if gap < 0 {
		gap = 0
	}

	filler := theme.StatusBarStyle.Render(
		lipgloss.NewStyle().
			Width(gap).
			Background(theme.StatusBarStyle.GetBackground()).
			Render(""),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered, filler)
}

// RenderWithFrame composes a full terminal view by vertically joining
// the header, content area, and status bar.
func (l Layout) RenderWithFrame(
	header string,
	content string,
	statusBar string,
) string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		content,
		statusBar,
	)
}
