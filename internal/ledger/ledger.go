// Package ledger keeps a SQLite record of every experiment run: its
// parameters, outcome and fitted power law. Traces themselves are not stored.
package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/nvandessel/walkscale/internal/models"
	"github.com/nvandessel/walkscale/internal/pathutil"
	_ "modernc.org/sqlite" // SQLite driver
)

// Status is the outcome of a run.
type Status string

const (
	StatusFitted      Status = "fitted"
	StatusFitFailed   Status = "fit_failed"
	StatusTraceFailed Status = "trace_failed"
)

// Run is one ledger row.
type Run struct {
	ID         string                      `json:"id"`
	Batch      string                      `json:"batch,omitempty"`
	Params     models.WalkExperimentParams `json:"params"`
	Status     Status                      `json:"status"`
	Fit        *models.FitResult           `json:"fit,omitempty"`
	NumSamples int                         `json:"num_samples"`
	Error      string                      `json:"error,omitempty"`
	StartedAt  time.Time                   `json:"started_at"`
	FinishedAt time.Time                   `json:"finished_at"`
}

// timeLayout is fixed-width so that timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Ledger is a run ledger backed by one SQLite file.
type Ledger struct {
	db   *sql.DB
	path string
}

// Open opens or creates the ledger at path.
func Open(ctx context.Context, path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger %s: %w", pathutil.RedactPath(path), err)
	}
	db.SetMaxOpenConns(1)

	if err := InitSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize ledger schema in %s: %w", pathutil.RedactPath(path), err)
	}
	return &Ledger{db: db, path: path}, nil
}

// Path returns the database file path.
func (l *Ledger) Path() string { return l.path }

// Close closes the database.
func (l *Ledger) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

// Record inserts r, assigning a new ID if r.ID is empty.
func (l *Ledger) Record(ctx context.Context, r *Run) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	params, err := json.Marshal(r.Params)
	if err != nil {
		return fmt.Errorf("failed to encode params: %w", err)
	}

	var c0, c1, cov00, cov01, cov11, sumsq any
	if r.Fit != nil {
		c0, c1 = nullable(r.Fit.C0), nullable(r.Fit.C1)
		cov00, cov01, cov11 = nullable(r.Fit.Cov00), nullable(r.Fit.Cov01), nullable(r.Fit.Cov11)
		sumsq = nullable(r.Fit.SumSq)
	}

	_, err = l.db.ExecContext(ctx, `
		INSERT INTO runs (id, batch, trace_name, params, status,
			c0, c1, cov00, cov01, cov11, sumsq,
			num_samples, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Batch, r.Params.TraceName, string(params), string(r.Status),
		c0, c1, cov00, cov01, cov11, sumsq,
		r.NumSamples, r.Error,
		r.StartedAt.UTC().Format(timeLayout), r.FinishedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", r.ID, err)
	}
	return nil
}

// List returns up to limit runs, newest first. limit <= 0 returns all runs.
func (l *Ledger) List(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT id, batch, params, status, c0, c1, cov00, cov01, cov11, sumsq,
		num_samples, error, started_at, finished_at
		FROM runs ORDER BY started_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r                               Run
			params, status, started, finish string
			fit                             [6]sql.NullFloat64
		)
		if err := rows.Scan(&r.ID, &r.Batch, &params, &status,
			&fit[0], &fit[1], &fit[2], &fit[3], &fit[4], &fit[5],
			&r.NumSamples, &r.Error, &started, &finish); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if err := json.Unmarshal([]byte(params), &r.Params); err != nil {
			return nil, fmt.Errorf("failed to decode params of run %s: %w", r.ID, err)
		}
		r.Status = Status(status)
		if r.Status == StatusFitted {
			r.Fit = &models.FitResult{
				C0:    orNaN(fit[0]),
				C1:    orNaN(fit[1]),
				Cov00: orNaN(fit[2]),
				Cov01: orNaN(fit[3]),
				Cov11: orNaN(fit[4]),
				SumSq: orNaN(fit[5]),
			}
		}
		if r.StartedAt, err = time.Parse(timeLayout, started); err != nil {
			return nil, fmt.Errorf("failed to parse started_at of run %s: %w", r.ID, err)
		}
		if r.FinishedAt, err = time.Parse(timeLayout, finish); err != nil {
			return nil, fmt.Errorf("failed to parse finished_at of run %s: %w", r.ID, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// nullable maps NaN and infinities to NULL, which SQLite cannot store as REAL.
func nullable(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

// orNaN maps NULL back to NaN.
func orNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
