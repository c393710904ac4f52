package taskform

import (
	"strings"
	"testing"
	"time"

	"github.com/nhle/taskboard/internal/model"
)

func TestValidateTitle(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"Buy milk", false},
		{"", true},
		{"   ", true},
		{strings.Repeat("a", model.MaxTitleLength), false},
		{strings.Repeat("a", model.MaxTitleLength+1), true},
	}
	for _, tt := range tests {
		if err := validateTitle(tt.in); (err != nil) != tt.wantErr {
			t.Errorf("validateTitle(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
	}
}

func TestValidateOptionalDate(t *testing.T) {
	for _, ok := range []string{"", "  ", "2024-02-29"} {
		if err := validateOptionalDate(ok); err != nil {
			t.Errorf("validateOptionalDate(%q) = %v", ok, err)
		}
	}
	for _, bad := range []string{"2024-13-01", "tomorrow", "01/02/2024"} {
		if err := validateOptionalDate(bad); err == nil {
			t.Errorf("validateOptionalDate(%q) accepted", bad)
		}
	}
}

func TestCreateSubmitBuildsPendingTask(t *testing.T) {
	m := New(80, 24)
	m.StartCreate()
	m.fb.title = "  Buy milk  "
	m.fb.description = ""
	m.fb.dueDate = "2024-07-04"

	msg, ok := m.handleSubmit()().(TaskCreatedMsg)
	if !ok {
		t.Fatal("expected TaskCreatedMsg")
	}
	task := msg.Task
	if task.Title != "Buy milk" {
		t.Fatalf("Title = %q", task.Title)
	}
	if task.Description != nil {
		t.Fatalf("empty description should be nil, got %q", *task.Description)
	}
	if task.ID != nil || task.CreatedAt != nil || task.Completed != model.Pending {
		t.Fatalf("unexpected defaults: %+v", task)
	}
	want := time.Date(2024, 7, 4, 0, 0, 0, 0, time.UTC)
	if task.DueDate == nil || !task.DueDate.Equal(want) {
		t.Fatalf("DueDate = %v, want %v", task.DueDate, want)
	}
}

func TestEditSubmitKeepsIdentity(t *testing.T) {
	id := int64(12)
	created := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	desc := "old"
	original := model.Task{ID: &id, Title: "Old", Description: &desc, CreatedAt: &created}

	m := New(80, 24)
	m.StartEdit(original)
	if !m.Editing() {
		t.Fatal("expected edit mode")
	}
	if m.fb.title != "Old" || m.fb.description != "old" || m.fb.dueDate != "" {
		t.Fatalf("bindings not prefilled: %+v", *m.fb)
	}

	m.fb.title = "New"
	m.fb.completed = model.Completed

	msg, ok := m.handleSubmit()().(TaskUpdatedMsg)
	if !ok {
		t.Fatal("expected TaskUpdatedMsg")
	}
	if msg.Task.GetID() != 12 || !msg.Task.CreatedAt.Equal(created) {
		t.Fatalf("identity lost: %+v", msg.Task)
	}
	if msg.Task.Title != "New" || !msg.Task.IsCompleted() {
		t.Fatalf("edits not applied: %+v", msg.Task)
	}
}
