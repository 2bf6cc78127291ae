// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package runstore records each pipeline run in a SQLite database for
// later inspection. It is an audit log: nothing in a run ever reads model
// output back from it.
package runstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/content-engine/pkg/types"
)

// Status is the outcome of a run.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusDegraded  Status = "degraded"
	StatusFailed    Status = "failed"
)

// ErrNotFound is returned by Get for an unknown run.
var ErrNotFound = errors.New("run not found")

// Run is one recorded run.
type Run struct {
	ID        string
	Command   string
	Product   string
	Model     string
	Templates []string
	Status    Status
	ErrorKind types.ErrorKind
	Stage     types.Stage
	Error     string
	StartedAt time.Time
	Duration  time.Duration

	// State and Pages are stored as JSON. They are nil for failed runs.
	State *types.EnrichedState
	Pages []types.PageOutput
}

// Outcome fills Status and the error fields from the run result.
func (r *Run) Outcome(degraded bool, err error) {
	switch {
	case err != nil:
		r.Status = StatusFailed
		r.ErrorKind = types.KindOf(err)
		r.Stage = types.StageOf(err)
		r.Error = err.Error()
	case degraded:
		r.Status = StatusDegraded
	default:
		r.Status = StatusSucceeded
	}
}

// Store is the run history database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			command TEXT NOT NULL,
			product TEXT,
			model TEXT,
			templates TEXT,
			status TEXT NOT NULL,
			error_kind TEXT,
			stage TEXT,
			error TEXT,
			started_at TEXT NOT NULL,
			duration_ms INTEGER,
			state TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS pages (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			template TEXT NOT NULL,
			degraded INTEGER NOT NULL,
			body TEXT NOT NULL,
			PRIMARY KEY (run_id, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record stores r and its pages in one transaction. A run without an ID
// gets a fresh one, which is returned.
func (s *Store) Record(ctx context.Context, r Run) (string, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now()
	}

	var stateJSON sql.NullString
	if r.State != nil {
		data, err := json.Marshal(r.State)
		if err != nil {
			return "", fmt.Errorf("encoding state: %w", err)
		}
		stateJSON = sql.NullString{String: string(data), Valid: true}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO runs
			(id, command, product, model, templates, status, error_kind, stage, error, started_at, duration_ms, state)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Command, r.Product, r.Model, strings.Join(r.Templates, ","),
		string(r.Status), string(r.ErrorKind), string(r.Stage), r.Error,
		r.StartedAt.UTC().Format(time.RFC3339Nano), r.Duration.Milliseconds(), stateJSON,
	); err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM pages WHERE run_id = ?`, r.ID); err != nil {
		return "", fmt.Errorf("clearing pages: %w", err)
	}
	for i, page := range r.Pages {
		body, err := json.Marshal(page)
		if err != nil {
			return "", fmt.Errorf("encoding page %s: %w", page.Template, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO pages (run_id, position, template, degraded, body) VALUES (?, ?, ?, ?, ?)`,
			r.ID, i, page.Template, page.Degraded, string(body),
		); err != nil {
			return "", fmt.Errorf("inserting page %s: %w", page.Template, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing run: %w", err)
	}
	return r.ID, nil
}

const runColumns = `id, command, product, model, templates, status, error_kind, stage, error, started_at, duration_ms`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner, extra ...any) (Run, error) {
	var (
		r                    Run
		product, model, tmpl sql.NullString
		kind, stage, errText sql.NullString
		status, started      string
		durationMS           sql.NullInt64
	)
	dest := append([]any{&r.ID, &r.Command, &product, &model, &tmpl, &status, &kind, &stage, &errText, &started, &durationMS}, extra...)
	if err := row.Scan(dest...); err != nil {
		return Run{}, err
	}
	r.Product = product.String
	r.Model = model.String
	if tmpl.String != "" {
		r.Templates = strings.Split(tmpl.String, ",")
	}
	r.Status = Status(status)
	r.ErrorKind = types.ErrorKind(kind.String)
	r.Stage = types.Stage(stage.String)
	r.Error = errText.String
	r.Duration = time.Duration(durationMS.Int64) * time.Millisecond
	t, err := time.Parse(time.RFC3339Nano, started)
	if err != nil {
		return Run{}, fmt.Errorf("parsing started_at %q: %w", started, err)
	}
	r.StartedAt = t
	return r, nil
}

// List returns up to limit runs, newest first, without state or pages.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Get returns one run with its state and pages.
func (s *Store) Get(ctx context.Context, id string) (Run, error) {
	var state sql.NullString
	r, err := scanRun(s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+`, state FROM runs WHERE id = ?`, id), &state)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Run{}, fmt.Errorf("querying run %s: %w", id, err)
	}
	if state.Valid {
		var st types.EnrichedState
		if err := json.Unmarshal([]byte(state.String), &st); err != nil {
			return Run{}, fmt.Errorf("decoding state of run %s: %w", id, err)
		}
		r.State = &st
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT body FROM pages WHERE run_id = ? ORDER BY position`, id)
	if err != nil {
		return Run{}, fmt.Errorf("querying pages: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return Run{}, fmt.Errorf("scanning page: %w", err)
		}
		var page types.PageOutput
		if err := json.Unmarshal([]byte(body), &page); err != nil {
			return Run{}, fmt.Errorf("decoding page: %w", err)
		}
		r.Pages = append(r.Pages, page)
	}
	return r, rows.Err()
}
