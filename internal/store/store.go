package store

import (
	"context"

	"github.com/nhle/taskboard/internal/model"
)

// Repository maps task operations directly onto storage reads and writes.
// It holds no business rules.
type Repository interface {
	// Create inserts a new row and returns the task with its generated id.
	Create(ctx context.Context, task model.Task) (model.Task, error)

	// Update overwrites the mutable fields of the row identified by task.ID.
	// It returns model.ErrNotFound when no such row exists; it never inserts.
	Update(ctx context.Context, task model.Task) (model.Task, error)

	// Delete removes the row with the given id. A missing row is not an error.
	Delete(ctx context.Context, id int64) error

	// FindByID returns model.ErrNotFound when the id has no row.
	FindByID(ctx context.Context, id int64) (*model.Task, error)

	// FindAll returns every task, newest first.
	FindAll(ctx context.Context) ([]model.Task, error)

	// FindCompleted returns completed tasks, newest first.
	FindCompleted(ctx context.Context) ([]model.Task, error)

	// FindPending returns open tasks by due date (undated last), then
	// newest first.
	FindPending(ctx context.Context) ([]model.Task, error)
}

// Store is a Repository backed by a database that can scope several
// operations in one transaction.
type Store interface {
	Repository

	// InTx runs fn against a transaction-bound Repository. The transaction
	// commits when fn returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(Repository) error) error

	// Ping verifies the database is reachable.
	Ping(ctx context.Context) error

	// Close releases the underlying connections.
	Close() error
}

// Canned listing queries shared by both backends. Columns are listed
// explicitly so struct scanning does not depend on table column order.
const (
	selectTasks = `SELECT id, title, description, due_date, completed, created_at FROM tasks`

	orderNewestFirst = ` ORDER BY created_at DESC, id DESC`

	queryFindAll       = selectTasks + orderNewestFirst
	queryFindCompleted = selectTasks + ` WHERE completed = 1` + orderNewestFirst
	queryFindPending   = selectTasks + ` WHERE completed = 0 ORDER BY due_date ASC NULLS LAST, created_at DESC, id DESC`
)

func persistenceErr(op string, err error) error {
	return &model.PersistenceError{Op: op, Err: err}
}
