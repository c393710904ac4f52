package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/store"
)

// NewTestStore creates an in-memory SQLiteStore with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// NewTestFileStore creates a SQLiteStore backed by a file in a per-test
// temporary directory, so the connection pool holds several connections.
func NewTestFileStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "tasks.db"))
	if err != nil {
		t.Fatalf("creating file test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing file test store: %v", err)
		}
	})

	return s
}

// Date returns midnight UTC of the given calendar day.
func Date(year int, month time.Month, day int) *time.Time {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &d
}

// SeedTask inserts a task created at createdAt and returns it with its id.
func SeedTask(t *testing.T, s store.Repository, title string, due *time.Time, completed int, createdAt time.Time) model.Task {
	t.Helper()

	task := model.Task{
		Title:     title,
		DueDate:   due,
		Completed: completed,
		CreatedAt: &createdAt,
	}
	created, err := s.Create(context.Background(), task)
	if err != nil {
		t.Fatalf("seeding task %q: %v", title, err)
	}
	return created
}
