package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/taskboard/internal/model"
)

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
	*sqliteRepo
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", sqliteDSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Every pooled connection to ":memory:" would get its own empty database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to sqlite db: %w", err)
	}

	s := &SQLiteStore{db: db, sqliteRepo: &sqliteRepo{q: db}}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// sqliteDSN attaches the connection pragmas to path. The driver applies
// them to every pooled connection, not only the first one. Transactions
// begin IMMEDIATE so a read-then-write waits on busy_timeout instead of
// failing to upgrade its lock.
func sqliteDSN(path string) string {
	params := "_pragma=busy_timeout(5000)&_txlock=immediate"
	if path == ":memory:" {
		return path + "?" + params
	}
	return "file:" + path + "?" + params + "&_pragma=journal_mode(WAL)"
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping verifies the database file is still reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return persistenceErr("pinging sqlite", err)
	}
	return nil
}

// InTx runs fn inside a single SQLite transaction.
func (s *SQLiteStore) InTx(ctx context.Context, fn func(Repository) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return persistenceErr("beginning transaction", err)
	}
	defer tx.Rollback()

	if err := fn(&sqliteRepo{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return persistenceErr("committing transaction", err)
	}
	return nil
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	// Check if schema_version table exists.
	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range sqliteMigrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// sqliteRepo runs task queries against either the pool or a transaction.
type sqliteRepo struct {
	q sqlx.ExtContext
}

// Create inserts a new task and reads back its generated id.
func (r *sqliteRepo) Create(ctx context.Context, task model.Task) (model.Task, error) {
	task = prepareInsert(task)

	result, err := r.q.ExecContext(ctx, `
		INSERT INTO tasks (title, description, due_date, completed, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		task.Title, task.Description, task.DueDate, task.Completed, task.CreatedAt,
	)
	if err != nil {
		return model.Task{}, persistenceErr("creating task", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return model.Task{}, persistenceErr("reading generated task id", err)
	}
	task.ID = &id
	return task, nil
}

// Update overwrites title, description, due_date and completed by id.
func (r *sqliteRepo) Update(ctx context.Context, task model.Task) (model.Task, error) {
	if task.ID == nil {
		return model.Task{}, fmt.Errorf("updating unsaved task: %w", model.ErrNotFound)
	}
	task = prepareUpdate(task)

	result, err := r.q.ExecContext(ctx, `
		UPDATE tasks SET
			title = ?, description = ?, due_date = ?, completed = ?
		WHERE id = ?`,
		task.Title, task.Description, task.DueDate, task.Completed,
		*task.ID,
	)
	if err != nil {
		return model.Task{}, persistenceErr(fmt.Sprintf("updating task %d", *task.ID), err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return model.Task{}, persistenceErr(fmt.Sprintf("updating task %d", *task.ID), err)
	}
	if rows == 0 {
		return model.Task{}, fmt.Errorf("updating task %d: %w", *task.ID, model.ErrNotFound)
	}

	// created_at is immutable; return the stored value rather than the caller's.
	stored, err := r.FindByID(ctx, *task.ID)
	if err != nil {
		return model.Task{}, err
	}
	return *stored, nil
}

// Delete removes a task by id; a missing row is silently ignored.
func (r *sqliteRepo) Delete(ctx context.Context, id int64) error {
	if _, err := r.q.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id); err != nil {
		return persistenceErr(fmt.Sprintf("deleting task %d", id), err)
	}
	return nil
}

// FindByID retrieves a single task by id.
func (r *sqliteRepo) FindByID(ctx context.Context, id int64) (*model.Task, error) {
	var task model.Task
	err := sqlx.GetContext(ctx, r.q, &task, selectTasks+" WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("getting task %d: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, persistenceErr(fmt.Sprintf("getting task %d", id), err)
	}
	return normalize(task), nil
}

// FindAll returns every task ordered by created_at descending.
func (r *sqliteRepo) FindAll(ctx context.Context) ([]model.Task, error) {
	return r.list(ctx, "querying tasks", queryFindAll)
}

// FindCompleted returns completed tasks ordered by created_at descending.
func (r *sqliteRepo) FindCompleted(ctx context.Context) ([]model.Task, error) {
	return r.list(ctx, "querying completed tasks", queryFindCompleted)
}

// FindPending returns open tasks ordered by due date, then created_at descending.
func (r *sqliteRepo) FindPending(ctx context.Context) ([]model.Task, error) {
	return r.list(ctx, "querying pending tasks", queryFindPending)
}

func (r *sqliteRepo) list(ctx context.Context, op, query string) ([]model.Task, error) {
	tasks := []model.Task{}
	if err := sqlx.SelectContext(ctx, r.q, &tasks, query); err != nil {
		return nil, persistenceErr(op, err)
	}
	for i := range tasks {
		tasks[i] = *normalize(tasks[i])
	}
	return tasks, nil
}

// prepareInsert fills the creation timestamp when absent and normalizes
// time values to UTC so that lexical ordering in SQLite matches time order.
func prepareInsert(task model.Task) model.Task {
	if task.CreatedAt == nil {
		now := time.Now()
		task.CreatedAt = &now
	}
	created := task.CreatedAt.UTC()
	task.CreatedAt = &created
	return prepareUpdate(task)
}

func prepareUpdate(task model.Task) model.Task {
	if task.DueDate != nil {
		d := model.DateOnly(*task.DueDate)
		task.DueDate = &d
	}
	return task
}

// normalize converts scanned time values back to UTC.
func normalize(task model.Task) *model.Task {
	if task.CreatedAt != nil {
		c := task.CreatedAt.UTC()
		task.CreatedAt = &c
	}
	if task.DueDate != nil {
		d := model.DateOnly(task.DueDate.UTC())
		task.DueDate = &d
	}
	return &task
}
