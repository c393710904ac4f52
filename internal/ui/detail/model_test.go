package detail

import (
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/taskboard/internal/keys"
	"github.com/nhle/taskboard/internal/model"
)

func TestRendersLoadedTask(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 24)
	m.now = func() time.Time { return time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC) }

	id := int64(3)
	due := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	desc := "semi-skimmed"
	task := &model.Task{ID: &id, Title: "Buy milk", Description: &desc, DueDate: &due}

	m.SetLoading(true)
	if !strings.Contains(m.View(), "Loading") {
		t.Fatal("expected loading view")
	}

	m, _ = m.Update(DetailLoadedMsg{Task: task})
	content := m.renderContent()
	for _, want := range []string{"Buy milk", "pending", "OVERDUE", "2024-06-01", "semi-skimmed", "3"} {
		if !strings.Contains(content, want) {
			t.Errorf("content missing %q", want)
		}
	}
}

func TestMissingTaskView(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 24)
	m, _ = m.Update(DetailLoadedMsg{Err: fmt.Errorf("getting task 9: %w", model.ErrNotFound)})

	if !strings.Contains(m.View(), "no longer exists") {
		t.Fatalf("view = %q", m.View())
	}
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")}); cmd != nil {
		t.Fatal("actions should be disabled without a task")
	}
}

func TestActionKeys(t *testing.T) {
	id := int64(5)
	m := New(keys.DefaultKeyMap(), 80, 24)
	m.SetTask(&model.Task{ID: &id, Title: "t"}, nil)

	tests := map[string]string{
		"e": ActionEdit,
		"x": ActionToggle,
		"d": ActionDelete,
	}
	for k, want := range tests {
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)})
		if cmd == nil {
			t.Fatalf("key %q: no command", k)
		}
		msg, ok := cmd().(ActionMsg)
		if !ok || msg.Action != want || msg.Task.GetID() != 5 {
			t.Fatalf("key %q: got %#v", k, msg)
		}
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if _, ok := cmd().(BackMsg); !ok {
		t.Fatal("esc should emit BackMsg")
	}
}
