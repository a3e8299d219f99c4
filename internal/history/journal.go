// Package history keeps an append-only SQLite journal of every status
// transition a run has reported.
//
// The JSON state file only ever holds the latest snapshot; the journal is
// what lets "peptrack history" answer when a document moved.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"peptrack/internal/drift"

	_ "modernc.org/sqlite" // register "sqlite" driver
)

const schema = `
CREATE TABLE IF NOT EXISTS transitions (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id      TEXT    NOT NULL,
	document    TEXT    NOT NULL,
	old_status  TEXT    NOT NULL,
	new_status  TEXT    NOT NULL,
	detected_at INTEGER NOT NULL,
	since       INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_transitions_document ON transitions(document);
CREATE INDEX IF NOT EXISTS idx_transitions_detected ON transitions(detected_at);
`

var pragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA busy_timeout = 10000",
	"PRAGMA synchronous = NORMAL",
}

// Transition is one journaled status change.
type Transition struct {
	RunID      string    `json:"runId" yaml:"runId"`
	Document   string    `json:"document" yaml:"document"`
	Old        string    `json:"old" yaml:"old"`
	New        string    `json:"new" yaml:"new"`
	DetectedAt time.Time `json:"detectedAt" yaml:"detectedAt"`
	Since      time.Time `json:"since" yaml:"since"`
}

// Query filters List.
type Query struct {
	Document string // only this document, when set
	Limit    int    // newest first; 0 means no limit
}

// Journal is an open history database.
type Journal struct {
	db *sql.DB
}

// Open opens (creating if needed) the journal at path.
func Open(path string) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("history: mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("history: %s: %w", p, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: schema: %w", err)
	}
	return &Journal{db: db}, nil
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record appends every change in changes, detected at at, relative to the
// prior snapshot captured at since.
func (j *Journal) Record(ctx context.Context, runID string, at, since time.Time, changes drift.ChangeSet) error {
	if changes.Empty() {
		return nil
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("history: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO transitions (run_id, document, old_status, new_status, detected_at, since) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("history: prepare: %w", err)
	}
	defer stmt.Close()

	for _, id := range changes.IDs() {
		c := changes[id]
		if _, err := stmt.ExecContext(ctx, runID, id, c.Old.String(), c.New.String(), at.UnixNano(), since.UnixNano()); err != nil {
			return fmt.Errorf("history: insert %s: %w", id, err)
		}
	}
	return tx.Commit()
}

// List returns journaled transitions, newest first.
func (j *Journal) List(ctx context.Context, q Query) ([]Transition, error) {
	query := `SELECT run_id, document, old_status, new_status, detected_at, since FROM transitions`
	var args []any
	if q.Document != "" {
		query += ` WHERE document = ?`
		args = append(args, q.Document)
	}
	query += ` ORDER BY detected_at DESC, id DESC`
	if q.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, q.Limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("history: list: %w", err)
	}
	defer rows.Close()

	var out []Transition
	for rows.Next() {
		var t Transition
		var detected, since int64
		if err := rows.Scan(&t.RunID, &t.Document, &t.Old, &t.New, &detected, &since); err != nil {
			return nil, fmt.Errorf("history: scan: %w", err)
		}
		t.DetectedAt = time.Unix(0, detected).UTC()
		t.Since = time.Unix(0, since).UTC()
		out = append(out, t)
	}
	return out, rows.Err()
}
