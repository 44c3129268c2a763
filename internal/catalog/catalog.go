// Package catalog records every processed image of a run in a SQLite ledger.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Outcome of one image.
const (
	StatusOK      = "ok"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

const schema = `
CREATE TABLE IF NOT EXISTS results (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	stage TEXT NOT NULL,
	source TEXT NOT NULL,
	outputs TEXT,
	threshold INTEGER,
	width INTEGER,
	height INTEGER,
	status TEXT NOT NULL,
	error TEXT,
	duration_ms INTEGER,
	metrics TEXT,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_results_run ON results(run_id);
CREATE INDEX IF NOT EXISTS idx_results_source ON results(source);`

// Entry is one row of the ledger. Threshold is only set by the binarize stage.
type Entry struct {
	RunID     string
	Stage     string
	Source    string
	Outputs   []string
	Threshold *uint8
	Width     int
	Height    int
	Status    string
	Error     string
	Duration  time.Duration
	Metrics   map[string]float64
	CreatedAt time.Time
}

type Catalog struct {
	db     *sql.DB
	insert *sql.Stmt
	runID  string
	mu     sync.Mutex
}

// Open creates the ledger at path if needed and starts a new run.
func Open(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	// A single connection serializes writers on the same file.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create catalog schema: %w", err)
	}

	stmt, err := db.Prepare(`
		INSERT INTO results (
			run_id, stage, source, outputs, threshold, width, height, status, error, duration_ms, metrics, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("prepare catalog insert: %w", err)
	}

	id, err := uuid.NewV4()
	if err != nil {
		stmt.Close()
		db.Close()
		return nil, fmt.Errorf("generate run id: %w", err)
	}

	return &Catalog{db: db, insert: stmt, runID: id.String()}, nil
}

func (c *Catalog) RunID() string {
	return c.runID
}

// Record stores e under the current run. RunID and CreatedAt are filled in
// when empty.
func (c *Catalog) Record(ctx context.Context, e Entry) error {
	if e.RunID == "" {
		e.RunID = c.runID
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	var threshold sql.NullInt64
	if e.Threshold != nil {
		threshold = sql.NullInt64{Int64: int64(*e.Threshold), Valid: true}
	}

	var metrics sql.NullString
	if len(e.Metrics) > 0 {
		raw, err := json.Marshal(e.Metrics)
		if err != nil {
			return fmt.Errorf("encode metrics for %s: %w", e.Source, err)
		}
		metrics = sql.NullString{String: string(raw), Valid: true}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.insert.ExecContext(ctx,
		e.RunID,
		e.Stage,
		e.Source,
		strings.Join(e.Outputs, "\n"),
		threshold,
		e.Width,
		e.Height,
		e.Status,
		e.Error,
		e.Duration.Milliseconds(),
		metrics,
		e.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("cannot insert result for %s: %w", e.Source, err)
	}
	return nil
}

// Entries returns the rows of runID in insertion order.
func (c *Catalog) Entries(ctx context.Context, runID string) ([]Entry, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT run_id, stage, source, outputs, threshold, width, height, status, error, duration_ms, metrics, created_at
		FROM results WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run %s: %w", runID, err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e         Entry
			outputs   sql.NullString
			threshold sql.NullInt64
			errText   sql.NullString
			millis    int64
			metrics   sql.NullString
			created   string
		)
		if err := rows.Scan(&e.RunID, &e.Stage, &e.Source, &outputs, &threshold,
			&e.Width, &e.Height, &e.Status, &errText, &millis, &metrics, &created); err != nil {
			return nil, fmt.Errorf("scan run %s: %w", runID, err)
		}

		if outputs.String != "" {
			e.Outputs = strings.Split(outputs.String, "\n")
		}
		if threshold.Valid {
			t := uint8(threshold.Int64)
			e.Threshold = &t
		}
		e.Error = errText.String
		e.Duration = time.Duration(millis) * time.Millisecond
		if metrics.Valid {
			if err := json.Unmarshal([]byte(metrics.String), &e.Metrics); err != nil {
				return nil, fmt.Errorf("decode metrics for %s: %w", e.Source, err)
			}
		}
		if e.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("parse timestamp for %s: %w", e.Source, err)
		}

		out = append(out, e)
	}
	return out, rows.Err()
}

func (c *Catalog) Name() string {
	return "catalog"
}

func (c *Catalog) Shutdown() error {
	return c.Close()
}

func (c *Catalog) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db == nil {
		return nil
	}
	c.insert.Close()
	err := c.db.Close()
	c.db = nil
	return err
}
