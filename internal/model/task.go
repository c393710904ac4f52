package model

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Completion flag values stored in the completed column.
const (
	Pending   = 0
	Completed = 1
)

// Column length limits enforced by the tasks table.
const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 500
)

// DateLayout is the wire and form format for due dates.
const DateLayout = "2006-01-02"

// Task is a unit of work with a completion flag.
//
// ID and CreatedAt are nil until the task is first persisted.
type Task struct {
	ID          *int64     `json:"id" db:"id"`
	Title       string     `json:"title" db:"title"`
	Description *string    `json:"description,omitempty" db:"description"`
	DueDate     *time.Time `json:"due_date,omitempty" db:"due_date"`
	Completed   int        `json:"completed" db:"completed"`
	CreatedAt   *time.Time `json:"created_at,omitempty" db:"created_at"`
}

// NewTask returns an unsaved pending task. An empty description is stored
// as NULL and the due date is truncated to a calendar date.
func NewTask(title, description string, dueDate *time.Time) Task {
	t := Task{
		Title:     title,
		Completed: Pending,
	}
	if description != "" {
		t.Description = &description
	}
	if dueDate != nil {
		d := DateOnly(*dueDate)
		t.DueDate = &d
	}
	return t
}

// IsCompleted reports whether the completion flag is set.
func (t Task) IsCompleted() bool { return t.Completed == Completed }

// IsPending reports whether the task is still open.
func (t Task) IsPending() bool { return t.Completed == Pending }

// IsPersisted reports whether the task has been assigned an id.
func (t Task) IsPersisted() bool { return t.ID != nil }

// IsOverdue reports whether a pending task's due date lies before the
// calendar day of now.
func (t Task) IsOverdue(now time.Time) bool {
	if t.DueDate == nil || t.IsCompleted() {
		return false
	}
	return t.DueDate.Before(DateOnly(now))
}

// GetID returns the id, or 0 for an unsaved task.
func (t Task) GetID() int64 {
	if t.ID == nil {
		return 0
	}
	return *t.ID
}

// GetDescription returns the description or the empty string.
func (t Task) GetDescription() string {
	if t.Description == nil {
		return ""
	}
	return *t.Description
}

// StatusLabel returns "completed" or "pending".
func (t Task) StatusLabel() string {
	if t.IsCompleted() {
		return "completed"
	}
	return "pending"
}

// Validate checks the field constraints of the tasks table.
func (t Task) Validate() error {
	var errs ValidationErrors

	title := strings.TrimSpace(t.Title)
	switch {
	case title == "":
		errs = append(errs, &ValidationError{Field: "title", Reason: "is required"})
	case utf8.RuneCountInString(t.Title) > MaxTitleLength:
		errs = append(errs, &ValidationError{
			Field:  "title",
			Reason: fmt.Sprintf("must be at most %d characters", MaxTitleLength),
		})
	}

	if t.Description != nil && utf8.RuneCountInString(*t.Description) > MaxDescriptionLength {
		errs = append(errs, &ValidationError{
			Field:  "description",
			Reason: fmt.Sprintf("must be at most %d characters", MaxDescriptionLength),
		})
	}

	if t.Completed != Pending && t.Completed != Completed {
		errs = append(errs, &ValidationError{
			Field:  "completed",
			Reason: fmt.Sprintf("must be %d or %d, got %d", Pending, Completed, t.Completed),
		})
	}

	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	return errs
}

// DateOnly truncates t to midnight UTC of its calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDueDate parses a YYYY-MM-DD string. An empty or blank string yields nil.
func ParseDueDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil, &ValidationError{Field: "due_date", Reason: "must use the YYYY-MM-DD format"}
	}
	return &d, nil
}

// FormatDueDate renders a due date in DateLayout, or "" when unset.
func FormatDueDate(d *time.Time) string {
	if d == nil {
		return ""
	}
	return d.Format(DateLayout)
}
