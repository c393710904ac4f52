package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nhle/taskboard/internal/model"
)

// pgxQuerier is satisfied by both *pgxpool.Pool and pgx.Tx.
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements the Store interface on a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
	*pgRepo
}

// NewPostgresStore connects to dsn, verifies the connection and applies
// pending migrations.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	s := &PostgresStore{pool: pool, pgRepo: &pgRepo{q: pool}}
	if err := s.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close releases every pooled connection.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Ping verifies the server is reachable.
func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return persistenceErr("pinging postgres", err)
	}
	return nil
}

// InTx runs fn inside a single Postgres transaction.
func (s *PostgresStore) InTx(ctx context.Context, fn func(Repository) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return persistenceErr("beginning transaction", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&pgRepo{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return persistenceErr("committing transaction", err)
	}
	return nil
}

func (s *PostgresStore) runMigrations(ctx context.Context) error {
	currentVersion := 0

	var exists bool
	err := s.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = 'schema_version')",
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if exists {
		err = s.pool.QueryRow(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&currentVersion)
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range postgresMigrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.pool.Exec(ctx, m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}
	return nil
}

// pgRepo runs task queries against either the pool or a transaction.
type pgRepo struct {
	q pgxQuerier
}

// Create inserts a new task and returns it with the generated id.
func (r *pgRepo) Create(ctx context.Context, task model.Task) (model.Task, error) {
	task = prepareInsert(task)

	var id int64
	err := r.q.QueryRow(ctx, `
		INSERT INTO tasks (title, description, due_date, completed, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		task.Title, task.Description, task.DueDate, task.Completed, task.CreatedAt,
	).Scan(&id)
	if err != nil {
		return model.Task{}, persistenceErr("creating task", err)
	}
	task.ID = &id
	return task, nil
}

// Update overwrites the mutable columns and returns the stored row.
func (r *pgRepo) Update(ctx context.Context, task model.Task) (model.Task, error) {
	if task.ID == nil {
		return model.Task{}, fmt.Errorf("updating unsaved task: %w", model.ErrNotFound)
	}
	task = prepareUpdate(task)

	rows, err := r.q.Query(ctx, `
		UPDATE tasks SET
			title = $1, description = $2, due_date = $3, completed = $4
		WHERE id = $5
		RETURNING id, title, description, due_date, completed, created_at`,
		task.Title, task.Description, task.DueDate, task.Completed, *task.ID,
	)
	if err != nil {
		return model.Task{}, persistenceErr(fmt.Sprintf("updating task %d", *task.ID), err)
	}

	stored, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[model.Task])
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Task{}, fmt.Errorf("updating task %d: %w", *task.ID, model.ErrNotFound)
	}
	if err != nil {
		return model.Task{}, persistenceErr(fmt.Sprintf("updating task %d", *task.ID), err)
	}
	return *normalize(stored), nil
}

// Delete removes a task by id; a missing row is silently ignored.
func (r *pgRepo) Delete(ctx context.Context, id int64) error {
	if _, err := r.q.Exec(ctx, "DELETE FROM tasks WHERE id = $1", id); err != nil {
		return persistenceErr(fmt.Sprintf("deleting task %d", id), err)
	}
	return nil
}

// FindByID retrieves a single task by id.
func (r *pgRepo) FindByID(ctx context.Context, id int64) (*model.Task, error) {
	rows, err := r.q.Query(ctx, selectTasks+" WHERE id = $1", id)
	if err != nil {
		return nil, persistenceErr(fmt.Sprintf("getting task %d", id), err)
	}

	task, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[model.Task])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("getting task %d: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, persistenceErr(fmt.Sprintf("getting task %d", id), err)
	}
	return normalize(task), nil
}

// FindAll returns every task ordered by created_at descending.
func (r *pgRepo) FindAll(ctx context.Context) ([]model.Task, error) {
	return r.list(ctx, "querying tasks", queryFindAll)
}

// FindCompleted returns completed tasks ordered by created_at descending.
func (r *pgRepo) FindCompleted(ctx context.Context) ([]model.Task, error) {
	return r.list(ctx, "querying completed tasks", queryFindCompleted)
}

// FindPending returns open tasks ordered by due date, then created_at descending.
func (r *pgRepo) FindPending(ctx context.Context) ([]model.Task, error) {
	return r.list(ctx, "querying pending tasks", queryFindPending)
}

func (r *pgRepo) list(ctx context.Context, op, query string) ([]model.Task, error) {
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, persistenceErr(op, err)
	}

	tasks, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Task])
	if err != nil {
		return nil, persistenceErr(op, err)
	}
	for i := range tasks {
		tasks[i] = *normalize(tasks[i])
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	return tasks, nil
}
