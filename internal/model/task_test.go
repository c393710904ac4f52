package model

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNewTask(t *testing.T) {
	due := time.Date(2024, 4, 1, 17, 45, 0, 0, time.UTC)
	task := NewTask("Buy milk", "", &due)

	if task.ID != nil || task.CreatedAt != nil {
		t.Fatalf("new task should be unsaved: %+v", task)
	}
	if task.Description != nil {
		t.Fatalf("empty description should be nil, got %q", *task.Description)
	}
	if !task.IsPending() || task.IsCompleted() {
		t.Fatalf("Completed = %d, want pending", task.Completed)
	}
	if got := FormatDueDate(task.DueDate); got != "2024-04-01" {
		t.Fatalf("DueDate = %s", got)
	}
	if task.DueDate.Hour() != 0 {
		t.Fatalf("due date not truncated: %v", task.DueDate)
	}
	if task.IsPersisted() || task.GetID() != 0 {
		t.Fatal("unsaved task reports an id")
	}
}

func TestValidate(t *testing.T) {
	desc := strings.Repeat("d", MaxDescriptionLength)
	longDesc := desc + "d"

	tests := []struct {
		name   string
		task   Task
		fields []string
	}{
		{"valid", Task{Title: "ok"}, nil},
		{"max lengths", Task{Title: strings.Repeat("t", MaxTitleLength), Description: &desc}, nil},
		{"multibyte title at limit", Task{Title: strings.Repeat("é", MaxTitleLength)}, nil},
		{"empty title", Task{Title: ""}, []string{"title"}},
		{"whitespace title", Task{Title: " \t "}, []string{"title"}},
		{"long title", Task{Title: strings.Repeat("t", MaxTitleLength+1)}, []string{"title"}},
		{"long description", Task{Title: "ok", Description: &longDesc}, []string{"description"}},
		{"bad flag", Task{Title: "ok", Completed: -1}, []string{"completed"}},
		{"several", Task{Title: "", Description: &longDesc, Completed: 3}, []string{"title", "description", "completed"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.task.Validate()
			if len(tt.fields) == 0 {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if !IsValidation(err) {
				t.Fatalf("got %v, want validation error", err)
			}

			var got []string
			var multi ValidationErrors
			var single *ValidationError
			switch {
			case errors.As(err, &multi):
				for _, v := range multi {
					got = append(got, v.Field)
				}
			case errors.As(err, &single):
				got = []string{single.Field}
			}
			if strings.Join(got, ",") != strings.Join(tt.fields, ",") {
				t.Fatalf("fields = %v, want %v", got, tt.fields)
			}
		})
	}
}

func TestIsOverdue(t *testing.T) {
	now := time.Date(2024, 3, 15, 23, 59, 0, 0, time.UTC)
	yesterday := time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)
	today := DateOnly(now)

	tests := []struct {
		name string
		task Task
		want bool
	}{
		{"no due date", Task{Title: "a"}, false},
		{"due yesterday", Task{Title: "a", DueDate: &yesterday}, true},
		{"due today", Task{Title: "a", DueDate: &today}, false},
		{"completed late", Task{Title: "a", DueDate: &yesterday, Completed: Completed}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.task.IsOverdue(now); got != tt.want {
				t.Fatalf("IsOverdue = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseDueDate(t *testing.T) {
	got, err := ParseDueDate(" 2024-02-29 ")
	if err != nil {
		t.Fatalf("ParseDueDate: %v", err)
	}
	if FormatDueDate(got) != "2024-02-29" {
		t.Fatalf("got %v", got)
	}

	got, err = ParseDueDate("")
	if err != nil || got != nil {
		t.Fatalf("empty: got %v, %v", got, err)
	}

	for _, bad := range []string{"2024-13-01", "15/03/2024", "2023-02-29", "tomorrow"} {
		if _, err := ParseDueDate(bad); !IsValidation(err) {
			t.Fatalf("ParseDueDate(%q): got %v, want validation error", bad, err)
		}
	}
}

func TestStatusLabelAndDescription(t *testing.T) {
	d := "notes"
	task := Task{Title: "a", Description: &d, Completed: Completed}
	if task.StatusLabel() != "completed" || task.GetDescription() != "notes" {
		t.Fatalf("got %s %q", task.StatusLabel(), task.GetDescription())
	}
	if (Task{}).StatusLabel() != "pending" || (Task{}).GetDescription() != "" {
		t.Fatal("zero task should be pending with empty description")
	}
}

func TestPersistenceError(t *testing.T) {
	cause := errors.New("disk full")
	err := error(&PersistenceError{Op: "creating task", Err: cause})

	if !IsPersistence(err) || !errors.Is(err, cause) {
		t.Fatalf("unwrap chain broken: %v", err)
	}
	if err.Error() != "creating task: disk full" {
		t.Fatalf("Error() = %q", err.Error())
	}
	if IsValidation(err) {
		t.Fatal("persistence error reported as validation")
	}
}
