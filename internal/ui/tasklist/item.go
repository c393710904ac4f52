package tasklist

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/theme"
)

// TaskItem wraps a model.Task so it can be used in a bubbles/list.
type TaskItem struct {
	Task model.Task
}

// FilterValue returns the string used for fuzzy filtering.
func (i TaskItem) FilterValue() string { return i.Task.Title }

// Title returns the task title for the list.
func (i TaskItem) Title() string { return i.Task.Title }

// Description returns a short summary line for the list.
func (i TaskItem) Description() string {
	parts := []string{i.Task.StatusLabel()}
	if i.Task.DueDate != nil {
		parts = append(parts, "due "+model.FormatDueDate(i.Task.DueDate))
	}
	if i.Task.CreatedAt != nil {
		parts = append(parts, relativeTime(*i.Task.CreatedAt))
	}
	return strings.Join(parts, " | ")
}

// ItemDelegate implements list.ItemDelegate for rendering list items.
type ItemDelegate struct {
	// Now decides which pending tasks are overdue.
	Now func() time.Time
}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused for now).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single list item line.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ti, ok := item.(TaskItem)
	if !ok {
		return
	}
	fmt.Fprint(w, d.renderLine(ti.Task, index == m.Index()))
}

func (d ItemDelegate) renderLine(task model.Task, isSelected bool) string {
	now := time.Now
	if d.Now != nil {
		now = d.Now
	}

	// ✓ for completed, ○ for pending
	prefix := "○"
	if task.IsCompleted() {
		prefix = "✓"
	}

	statusBadge := theme.StatusStyle(task.StatusLabel()).Render(task.StatusLabel())

	dueDateStr := ""
	if task.DueDate != nil {
		dueDateStr = theme.DueDateStyle.Render(" " + task.DueDate.Format("Jan 02"))
	}

	overdueStr := ""
	if task.IsOverdue(now()) {
		overdueStr = theme.OverdueStyle.Render(" OVERDUE")
	}

	timeStr := ""
	if task.CreatedAt != nil {
		timeStr = "  " + lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Render(relativeTimeFrom(*task.CreatedAt, now()))
	}

	line := fmt.Sprintf(
		"%s %s %s%s%s%s",
		prefix, statusBadge, task.Title, dueDateStr, overdueStr, timeStr,
	)

	if task.IsCompleted() {
		line = theme.DimmedStyle.Render(line)
	}

	if isSelected {
		return theme.SelectedItemStyle.Render(line)
	}
	return theme.ListItemStyle.Render(line)
}

// relativeTime returns a human-friendly relative time string.
func relativeTime(t time.Time) string {
	return relativeTimeFrom(t, time.Now())
}

func relativeTimeFrom(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		mins := int(d.Minutes())
		if mins == 1 {
			return "1m ago"
		}
		return fmt.Sprintf("%dm ago", mins)
	case d < 24*time.Hour:
		hrs := int(d.Hours())
		if hrs == 1 {
			return "1h ago"
		}
		return fmt.Sprintf("%dh ago", hrs)
	case d < 7*24*time.Hour:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "1d ago"
		}
		return fmt.Sprintf("%dd ago", days)
	default:
		weeks := int(d.Hours() / 24 / 7)
		if weeks == 1 {
			return "1w ago"
		}
		return fmt.Sprintf("%dw ago", weeks)
	}
}
