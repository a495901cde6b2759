// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package history provides SQLite-backed storage for validated
// invocation outcomes.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Entry is one recorded invocation outcome. Only validated results are
// recorded; raw output never reaches the store.
type Entry struct {
	// ID is the invocation identifier.
	ID string

	// StartedAt is when the invocation began.
	StartedAt time.Time

	// Duration is how long the invocation took.
	Duration time.Duration

	// Model is the resolved model ID, when known.
	Model string

	// Success mirrors the validated result's discriminant.
	Success bool

	// ErrorCode is set on failures.
	ErrorCode string

	// ToolCalls is the number of tool calls the result carried.
	ToolCalls int

	// Output is the result's primary output, possibly truncated by the
	// caller.
	Output string
}

// Store records invocation history in SQLite.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS invocations (
	id          TEXT PRIMARY KEY,
	started_at  INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	model       TEXT NOT NULL DEFAULT '',
	success     INTEGER NOT NULL,
	error_code  TEXT NOT NULL DEFAULT '',
	tool_calls  INTEGER NOT NULL DEFAULT 0,
	output      TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_invocations_started_at ON invocations(started_at DESC);
`

// Open opens (and if necessary creates) the history database at the
// given path. ":memory:" creates an in-memory database.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("history: database path is required")
	}

	connStr := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("history: creating data directory: %w", err)
		}
		// WAL keeps concurrent readers cheap.
		connStr += "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("history: opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: applying schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts one invocation outcome.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.ID == "" {
		return fmt.Errorf("history: entry requires an id")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO invocations (id, started_at, duration_ms, model, success, error_code, tool_calls, output)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID,
		e.StartedAt.UnixMilli(),
		e.Duration.Milliseconds(),
		e.Model,
		boolToInt(e.Success),
		e.ErrorCode,
		e.ToolCalls,
		e.Output,
	)
	if err != nil {
		return fmt.Errorf("history: recording invocation %s: %w", e.ID, err)
	}
	return nil
}

// List returns the most recent entries, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, duration_ms, model, success, error_code, tool_calls, output
		FROM invocations
		ORDER BY started_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: listing invocations: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			startedMs  int64
			durationMs int64
			success    int
		)
		if err := rows.Scan(&e.ID, &startedMs, &durationMs, &e.Model, &success, &e.ErrorCode, &e.ToolCalls, &e.Output); err != nil {
			return nil, fmt.Errorf("history: scanning row: %w", err)
		}
		e.StartedAt = time.UnixMilli(startedMs)
		e.Duration = time.Duration(durationMs) * time.Millisecond
		e.Success = success != 0
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterating rows: %w", err)
	}
	return entries, nil
}

// Get returns one entry by invocation ID.
func (s *Store) Get(ctx context.Context, id string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, duration_ms, model, success, error_code, tool_calls, output
		FROM invocations WHERE id = ?`, id)

	var (
		e          Entry
		startedMs  int64
		durationMs int64
		success    int
	)
	if err := row.Scan(&e.ID, &startedMs, &durationMs, &e.Model, &success, &e.ErrorCode, &e.ToolCalls, &e.Output); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("history: invocation %s not found", id)
		}
		return nil, fmt.Errorf("history: loading invocation %s: %w", id, err)
	}
	e.StartedAt = time.UnixMilli(startedMs)
	e.Duration = time.Duration(durationMs) * time.Millisecond
	e.Success = success != 0
	return &e, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
