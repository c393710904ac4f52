package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// sqliteMigrations is the ordered list of SQLite schema migrations.
// Each migration's version must be sequential starting from 1.
var sqliteMigrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS tasks (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	title       VARCHAR(100) NOT NULL
	            CHECK(length(trim(title)) > 0 AND length(title) <= 100),
	description VARCHAR(500) CHECK(description IS NULL OR length(description) <= 500),
	due_date    DATE,
	completed   INTEGER NOT NULL DEFAULT 0 CHECK(completed IN (0, 1)),
	created_at  TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tasks_created_at ON tasks(created_at);
CREATE INDEX IF NOT EXISTS idx_tasks_completed_due ON tasks(completed, due_date);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}

// postgresMigrations is the ordered list of Postgres schema migrations.
var postgresMigrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS tasks (
	id          BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
	title       VARCHAR(100) NOT NULL CHECK (length(btrim(title)) > 0),
	description VARCHAR(500),
	due_date    DATE,
	completed   INTEGER NOT NULL DEFAULT 0 CHECK (completed IN (0, 1)),
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_tasks_created_at ON tasks(created_at);
CREATE INDEX IF NOT EXISTS idx_tasks_completed_due ON tasks(completed, due_date);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
