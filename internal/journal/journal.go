// Package journal records run history in sqlite: one row per run plus an
// append-only activity log. The saves package owns resumable state; the
// journal is for asking what happened after the fact.
package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("not found")

// Run is one row of the runs table.
type Run struct {
	RunID      string `json:"run_id"`
	Scenario   string `json:"scenario"`
	Character  string `json:"character"`
	Status     string `json:"status"`
	Turns      int    `json:"turns"`
	MovesSpent int    `json:"moves_spent"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at,omitempty"`
}

// LogEntry is one row of the activity_log table.
type LogEntry struct {
	ID         int64  `json:"id"`
	RunID      string `json:"run_id"`
	Turn       int    `json:"turn"`
	Kind       string `json:"kind"`
	Event      string `json:"event"`
	Detail     string `json:"detail,omitempty"`
	RecordedAt string `json:"recorded_at"`
}

type Journal struct {
	db *sql.DB
}

// New wraps an existing database handle.
func New(db *sql.DB) *Journal {
	return &Journal{db: db}
}

// Open opens (creating if needed) the journal database at path and runs
// migrations.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}
	j := New(db)
	if err := j.Init(); err != nil {
		db.Close()
		return nil, err
	}
	return j, nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Init runs migrations using PRAGMA user_version.
func (j *Journal) Init() error {
	var ver int
	if err := j.db.QueryRow(`PRAGMA user_version`).Scan(&ver); err != nil {
		return err
	}
	if ver >= 1 {
		return nil
	}

	tx, err := j.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// v1 schema
	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS runs (
  run_id TEXT PRIMARY KEY,
  scenario TEXT NOT NULL,
  character TEXT NOT NULL,
  status TEXT NOT NULL,
  turns INTEGER NOT NULL DEFAULT 0,
  moves_spent INTEGER NOT NULL DEFAULT 0,
  started_at TEXT NOT NULL,
  finished_at TEXT
);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS activity_log (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  run_id TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
  turn INTEGER NOT NULL,
  kind TEXT NOT NULL,
  event TEXT NOT NULL,
  detail TEXT,
  recorded_at TEXT NOT NULL
);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`PRAGMA user_version = 1`); err != nil {
		return err
	}

	return tx.Commit()
}

// StartRun inserts a new run row with status "running".
func (j *Journal) StartRun(runID, scenario, who string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := j.db.Exec(
		`INSERT INTO runs (run_id, scenario, character, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		runID, scenario, who, "running", now,
	)
	return err
}

// FinishRun marks a run finished. Retries on SQLITE_BUSY so transient
// contention never leaves a run stuck in running state.
func (j *Journal) FinishRun(runID, status string, turns, movesSpent int) error {
	const maxRetries = 5
	now := time.Now().UTC().Format(time.RFC3339Nano)
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		_, err := j.db.Exec(
			`UPDATE runs SET status = ?, turns = ?, moves_spent = ?, finished_at = ? WHERE run_id = ?`,
			status, turns, movesSpent, now, runID,
		)
		if err == nil {
			return nil
		}
		lastErr = err
		if isSqliteBusy(err) {
			time.Sleep(time.Duration(10*(1<<i)) * time.Millisecond)
			continue
		}
		return err
	}
	return lastErr
}

// GetRun fetches a single run by ID.
func (j *Journal) GetRun(runID string) (*Run, error) {
	row := j.db.QueryRow(
		`SELECT run_id, scenario, character, status, turns, moves_spent, started_at, finished_at FROM runs WHERE run_id = ?`,
		runID,
	)
	return scanRun(row)
}

// ListRuns returns runs ordered newest first. If limit <= 0, return all.
func (j *Journal) ListRuns(limit int) ([]*Run, error) {
	q := `SELECT run_id, scenario, character, status, turns, moves_spent, started_at, finished_at FROM runs ORDER BY started_at DESC`
	var rows *sql.Rows
	var err error
	if limit > 0 {
		q = q + ` LIMIT ?`
		rows, err = j.db.Query(q, limit)
	} else {
		rows, err = j.db.Query(q)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LogActivity appends one activity event row. Retries on SQLITE_BUSY.
func (j *Journal) LogActivity(runID string, turn int, kind, event, detail string) error {
	const maxRetries = 5
	now := time.Now().UTC().Format(time.RFC3339Nano)
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		_, err := j.db.Exec(
			`INSERT INTO activity_log (run_id, turn, kind, event, detail, recorded_at) VALUES (?, ?, ?, ?, ?, ?)`,
			runID, turn, kind, event, detail, now,
		)
		if err == nil {
			return nil
		}
		lastErr = err
		if isSqliteBusy(err) {
			time.Sleep(time.Duration(10*(1<<i)) * time.Millisecond)
			continue
		}
		return err
	}
	return lastErr
}

// ActivityLog returns a run's activity events in insertion order.
func (j *Journal) ActivityLog(runID string) ([]*LogEntry, error) {
	rows, err := j.db.Query(
		`SELECT id, run_id, turn, kind, event, detail, recorded_at FROM activity_log WHERE run_id = ? ORDER BY id ASC`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*LogEntry
	for rows.Next() {
		var e LogEntry
		var detail sql.NullString
		if err := rows.Scan(&e.ID, &e.RunID, &e.Turn, &e.Kind, &e.Event, &detail, &e.RecordedAt); err != nil {
			return nil, err
		}
		e.Detail = detail.String
		out = append(out, &e)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var r Run
	var finished sql.NullString
	if err := row.Scan(&r.RunID, &r.Scenario, &r.Character, &r.Status, &r.Turns, &r.MovesSpent, &r.StartedAt, &finished); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	r.FinishedAt = finished.String
	return &r, nil
}

// isSqliteBusy reports whether err represents a busy/locked sqlite condition.
func isSqliteBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return msg == "database is locked" || msg == "database is busy" || strings.Contains(msg, "SQLITE_BUSY")
}
