package server

import (
	"fmt"
	"strings"

	"github.com/bainianlaoyao/potatolism/internal/logger"
)

// migrate creates the schema and, on SQLite, upgrades any legacy tasks
// table whose uniqueness key was id alone to the composite (id, token)
// key. Migration failure is logged and swallowed: the service keeps
// serving against whichever shape is present.
func (s *Store) migrate() error {
	var migrations []string
	switch s.dialect {
	case DialectPostgres:
		migrations = []string{migrationUsersPostgres, migrationTasksPostgres, migrationTaskIndex}
	default:
		migrations = []string{migrationUsersSQLite, migrationTasksSQLite, migrationTaskIndex}
	}

	for i, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	if s.dialect == DialectSQLite {
		if err := s.migrateLegacyTaskKey(); err != nil {
			logger.Error("Legacy task key migration failed, continuing with existing schema",
				logger.F("error", err))
		}
	}
	return nil
}

// migrateLegacyTaskKey rebuilds the tasks table when its DDL still
// shows the old single-column primary key. Runs at most once: after
// the rebuild the DDL carries the composite key and the probe no
// longer matches.
func (s *Store) migrateLegacyTaskKey() error {
	var ddl string
	err := s.db.QueryRow(
		`SELECT sql FROM sqlite_master WHERE type = 'table' AND name = 'tasks'`).Scan(&ddl)
	if err != nil {
		return fmt.Errorf("failed to inspect tasks schema: %w", err)
	}

	if !strings.Contains(ddl, "PRIMARY KEY") || strings.Contains(ddl, "(id, token)") {
		return nil
	}

	logger.Info("Migrating tasks table to composite (id, token) key")

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	steps := []string{
		`ALTER TABLE tasks RENAME TO tasks_old`,
		migrationTasksSQLite,
		`INSERT INTO tasks (id, token, name, estimated_time, long_cycle, cycle_list, progress,
			deadline, completed, time_up, urgent, important, description, timestamp)
		 SELECT id, token, name, estimated_time, long_cycle, cycle_list, progress,
			deadline, completed, time_up, urgent, important, description, timestamp
		 FROM tasks_old`,
		`DROP TABLE tasks_old`,
		migrationTaskIndex,
	}
	for _, step := range steps {
		if _, err := tx.Exec(step); err != nil {
			return fmt.Errorf("legacy key rebuild failed: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	logger.Info("Tasks table migration completed")
	return nil
}

const migrationUsersSQLite = `
CREATE TABLE IF NOT EXISTS users (
    token TEXT PRIMARY KEY,
    created_at INTEGER DEFAULT (strftime('%s', 'now')),
    last_sync_at INTEGER
);
`

const migrationTasksSQLite = `
CREATE TABLE IF NOT EXISTS tasks (
    id TEXT NOT NULL,
    token TEXT NOT NULL,
    name TEXT NOT NULL,
    estimated_time INTEGER,
    long_cycle INTEGER,
    cycle_list TEXT,
    progress REAL DEFAULT 0,
    deadline INTEGER,
    completed INTEGER DEFAULT 0,
    time_up INTEGER DEFAULT 0,
    urgent INTEGER DEFAULT 0,
    important INTEGER DEFAULT 0,
    description TEXT,
    timestamp INTEGER NOT NULL,
    PRIMARY KEY (id, token)
);
`

const migrationUsersPostgres = `
CREATE TABLE IF NOT EXISTS users (
    token TEXT PRIMARY KEY,
    created_at BIGINT,
    last_sync_at BIGINT
);
`

const migrationTasksPostgres = `
CREATE TABLE IF NOT EXISTS tasks (
    id TEXT NOT NULL,
    token TEXT NOT NULL,
    name TEXT NOT NULL,
    estimated_time INTEGER,
    long_cycle INTEGER,
    cycle_list TEXT,
    progress DOUBLE PRECISION DEFAULT 0,
    deadline BIGINT,
    completed INTEGER DEFAULT 0,
    time_up INTEGER DEFAULT 0,
    urgent INTEGER DEFAULT 0,
    important INTEGER DEFAULT 0,
    description TEXT,
    timestamp BIGINT NOT NULL,
    PRIMARY KEY (id, token)
);
`

const migrationTaskIndex = `
CREATE INDEX IF NOT EXISTS idx_tasks_token ON tasks(token);
`
