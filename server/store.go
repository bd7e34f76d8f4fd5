package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	gosync "sync"
	"time"

	"github.com/bainianlaoyao/potatolism/internal/logger"
	"github.com/bainianlaoyao/potatolism/internal/merge"
	"github.com/bainianlaoyao/potatolism/internal/model"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect selects the backing engine's SQL flavor.
type Dialect int

const (
	DialectSQLite Dialect = iota
	DialectPostgres
)

// Store is the server's persistent task store: one row per (id, owner
// token), plus an owner registry carrying the last-sync watermark.
type Store struct {
	db      *sql.DB
	dialect Dialect
	locks   ownerLocks
}

// OpenStore opens the store. A postgres:// DSN selects the Postgres
// driver; anything else is treated as a SQLite file path.
func OpenStore(dsn string) (*Store, error) {
	var (
		db      *sql.DB
		dialect Dialect
		err     error
	)
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		db, err = sql.Open("postgres", dsn)
		dialect = DialectPostgres
	} else {
		db, err = sql.Open("sqlite", dsn)
		dialect = DialectSQLite
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to store: %w", err)
	}

	s := &Store{db: db, dialect: dialect}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// rebind converts ?-style placeholders to the dialect's form.
func (s *Store) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Sync runs one reconciliation for an owner: ensure the owner record,
// load their persisted tasks, merge with the client collection,
// replace the persisted set with the merge result, and advance the
// watermark. The read-merge-write is serialized per owner and wrapped
// in a transaction, so concurrent syncs for the same owner cannot
// interleave and a mid-batch failure leaves the previous state intact.
func (s *Store) Sync(ctx context.Context, token string, clientTasks []model.Task) ([]model.Task, error) {
	unlock := s.locks.lock(token)
	defer unlock()

	now := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin sync transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx,
		s.rebind(`INSERT INTO users (token, created_at) VALUES (?, ?) ON CONFLICT (token) DO NOTHING`),
		token, now.Unix()); err != nil {
		return nil, fmt.Errorf("failed to ensure owner record: %w", err)
	}

	serverTasks, err := s.loadTasks(ctx, tx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch server tasks: %w", err)
	}

	merged := merge.Tasks(serverTasks, clientTasks)
	for i := range merged {
		merged[i].Normalize(now)
	}

	if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM tasks WHERE token = ?`), token); err != nil {
		return nil, fmt.Errorf("failed to clear old tasks: %w", err)
	}
	for _, t := range merged {
		if err := s.insertTask(ctx, tx, token, t); err != nil {
			return nil, fmt.Errorf("failed to save task %s: %w", t.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		s.rebind(`UPDATE users SET last_sync_at = ? WHERE token = ?`),
		now.Unix(), token); err != nil {
		return nil, fmt.Errorf("failed to update sync watermark: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit sync: %w", err)
	}

	logger.Info("Sync reconciled",
		logger.F("owner", token),
		logger.F("client", len(clientTasks)),
		logger.F("server", len(serverTasks)),
		logger.F("merged", len(merged)))

	return merged, nil
}

const taskColumns = `id, name, estimated_time, long_cycle, cycle_list, progress, deadline,
	completed, time_up, urgent, important, description, timestamp`

func (s *Store) loadTasks(ctx context.Context, tx *sql.Tx, token string) ([]model.Task, error) {
	rows, err := tx.QueryContext(ctx,
		s.rebind(`SELECT `+taskColumns+` FROM tasks WHERE token = ?`), token)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func scanTask(rows *sql.Rows) (model.Task, error) {
	var (
		t             model.Task
		estimatedTime sql.NullInt64
		longCycle     sql.NullInt64
		cycleList     sql.NullString
		progress      sql.NullFloat64
		deadline      sql.NullInt64
		completed     sql.NullInt64
		timeUp        sql.NullInt64
		urgent        sql.NullInt64
		important     sql.NullInt64
		description   sql.NullString
	)
	if err := rows.Scan(&t.ID, &t.Name, &estimatedTime, &longCycle, &cycleList, &progress,
		&deadline, &completed, &timeUp, &urgent, &important, &description, &t.Timestamp); err != nil {
		return model.Task{}, err
	}

	t.EstimatedTime = int(estimatedTime.Int64)
	t.LongCycle = longCycle.Int64 != 0
	t.Progress = progress.Float64
	t.Completed = completed.Int64 != 0
	t.TimeUp = timeUp.Int64 != 0
	t.Urgent = urgent.Int64 != 0
	t.Important = important.Int64 != 0
	t.Description = description.String
	if deadline.Valid {
		d := model.ToMillis(deadline.Int64)
		t.Deadline = &d
	}
	t.Timestamp = model.ToMillis(t.Timestamp)

	t.CycleList = []model.CycleItem{}
	if cycleList.Valid && cycleList.String != "" {
		// An unreadable stored schedule degrades to empty, same as a
		// missing one; the client regenerates it on the next edit.
		if err := json.Unmarshal([]byte(cycleList.String), &t.CycleList); err != nil {
			t.CycleList = []model.CycleItem{}
		}
	}
	return t, nil
}

func (s *Store) insertTask(ctx context.Context, tx *sql.Tx, token string, t model.Task) error {
	cycleList, err := json.Marshal(t.CycleList)
	if err != nil {
		return err
	}

	var deadline any
	if t.Deadline != nil {
		deadline = *t.Deadline
	}

	_, err = tx.ExecContext(ctx, s.rebind(`
INSERT INTO tasks (id, token, name, estimated_time, long_cycle, cycle_list, progress, deadline,
	completed, time_up, urgent, important, description, timestamp)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		t.ID, token, t.Name, t.EstimatedTime, boolToInt(t.LongCycle), string(cycleList),
		t.Progress, deadline, boolToInt(t.Completed), boolToInt(t.TimeUp),
		boolToInt(t.Urgent), boolToInt(t.Important), t.Description, t.Timestamp)
	return err
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

// LastSyncAt returns the owner's watermark in unix seconds, 0 if the
// owner is unknown or has never synced.
func (s *Store) LastSyncAt(ctx context.Context, token string) (int64, error) {
	var last sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT last_sync_at FROM users WHERE token = ?`), token).Scan(&last)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read sync watermark: %w", err)
	}
	return last.Int64, nil
}

// ownerLocks serializes syncs per owner token without blocking
// unrelated owners.
type ownerLocks struct {
	mu    gosync.Mutex
	locks map[string]*gosync.Mutex
}

func (l *ownerLocks) lock(owner string) (unlock func()) {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*gosync.Mutex)
	}
	m, ok := l.locks[owner]
	if !ok {
		m = &gosync.Mutex{}
		l.locks[owner] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
