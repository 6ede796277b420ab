// Package sqlite records journal events in a local SQLite database using the
// pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cory-johannsen/homestead/internal/journal"
)

// Journal is a journal.Recorder and journal.Reader backed by one SQLite file.
// Writes go through a single connection.
type Journal struct {
	db *sql.DB
}

// Open creates or opens the journal database at path, creating parent
// directories and the schema as needed.
//
// Precondition: path must be non-empty.
// Postcondition: Returns an open Journal or a non-nil error.
func Open(path string) (*Journal, error) {
	if path == "" {
		return nil, errors.New("sqlite.Open: empty db path")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite.Open: creating directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite.Open: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite.Open: pragmas: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite.Open: schema: %w", err)
	}
	return &Journal{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS plan_events (
			id TEXT PRIMARY KEY,
			agent TEXT NOT NULL,
			tick INTEGER NOT NULL,
			kind TEXT NOT NULL,
			goal TEXT NOT NULL DEFAULT '',
			plan_id TEXT NOT NULL DEFAULT '',
			actions TEXT NOT NULL DEFAULT '',
			cost REAL NOT NULL DEFAULT 0,
			recorded_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_plan_events_agent_tick ON plan_events(agent, tick);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Record implements journal.Recorder.
func (j *Journal) Record(ctx context.Context, e journal.Event) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("recording event: %w", err)
	}
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO plan_events (id, agent, tick, kind, goal, plan_id, actions, cost, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Agent, e.Tick, string(e.Kind), e.Goal, e.PlanID,
		strings.Join(e.Actions, ","), e.Cost, e.At.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting plan event: %w", err)
	}
	return nil
}

// ListByAgent implements journal.Reader.
func (j *Journal) ListByAgent(ctx context.Context, agent string) ([]journal.Event, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, agent, tick, kind, goal, plan_id, actions, cost, recorded_at
		FROM plan_events WHERE agent = ? ORDER BY tick ASC, rowid ASC`,
		agent,
	)
	if err != nil {
		return nil, fmt.Errorf("listing plan events: %w", err)
	}
	defer rows.Close()

	var out []journal.Event
	for rows.Next() {
		var (
			e                   journal.Event
			kind, actions, when string
		)
		if err := rows.Scan(&e.ID, &e.Agent, &e.Tick, &kind, &e.Goal, &e.PlanID, &actions, &e.Cost, &when); err != nil {
			return nil, fmt.Errorf("scanning plan event: %w", err)
		}
		e.Kind = journal.Kind(kind)
		if actions != "" {
			e.Actions = strings.Split(actions, ",")
		}
		if e.At, err = time.Parse(time.RFC3339Nano, when); err != nil {
			return nil, fmt.Errorf("parsing recorded_at %q: %w", when, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating plan events: %w", err)
	}
	return out, nil
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}
