// Package history persists finished runs in a SQLite database.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"go.trai.ch/matrix/internal/core/domain"
	"go.trai.ch/matrix/internal/core/ports"
	"go.trai.ch/zerr"
	_ "modernc.org/sqlite" // Registers the "sqlite" driver.
)

var _ ports.HistoryStore = (*Store)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	workflow    TEXT NOT NULL,
	event       TEXT NOT NULL,
	started_at  INTEGER NOT NULL,
	duration_ns INTEGER NOT NULL,
	passed      INTEGER NOT NULL,
	failed      INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS jobs (
	run_id      TEXT NOT NULL REFERENCES runs(id),
	name        TEXT NOT NULL,
	runs_on     TEXT NOT NULL,
	matrix_json TEXT NOT NULL,
	status      TEXT NOT NULL,
	duration_ns INTEGER NOT NULL,
	error       TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS runs_started_at ON runs(started_at DESC);
`

// Store implements ports.HistoryStore with one database per workflow root.
type Store struct{}

// NewStore creates a new Store.
func NewStore() *Store {
	return &Store{}
}

func (s *Store) open(ctx context.Context, root string) (*sql.DB, error) {
	path := domain.DefaultHistoryPath(root)
	if err := os.MkdirAll(filepath.Dir(path), domain.DirPerm); err != nil {
		return nil, zerr.Wrap(err, domain.ErrHistoryOpenFailed.Error())
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrHistoryOpenFailed.Error()), "path", path)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, zerr.With(zerr.Wrap(err, domain.ErrHistoryOpenFailed.Error()), "path", path)
	}
	return db, nil
}

// Record appends the run and its job results.
func (s *Store) Record(ctx context.Context, root string, report *domain.RunReport) (err error) {
	db, err := s.open(ctx, root)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return zerr.Wrap(err, domain.ErrHistoryWriteFailed.Error())
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	passed, failed := report.Counts()
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, workflow, event, started_at, duration_ns, passed, failed) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		report.ID, report.Workflow, string(report.Event), report.Started.UnixNano(), int64(report.Duration), passed, failed,
	); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrHistoryWriteFailed.Error()), "run", report.ID)
	}

	for i := range report.Jobs {
		job := &report.Jobs[i]
		matrix, marshalErr := json.Marshal(job.Matrix)
		if marshalErr != nil {
			err = marshalErr
			return zerr.Wrap(err, domain.ErrHistoryWriteFailed.Error())
		}
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO jobs (run_id, name, runs_on, matrix_json, status, duration_ns, error) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			report.ID, job.Name, job.RunsOn, string(matrix), string(job.Status), int64(job.Duration), job.Error,
		); err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrHistoryWriteFailed.Error()), "job", job.Name)
		}
	}

	if err = tx.Commit(); err != nil {
		return zerr.Wrap(err, domain.ErrHistoryWriteFailed.Error())
	}
	return nil
}

// List returns the most recent runs, newest first. A non-positive limit
// returns every run.
func (s *Store) List(ctx context.Context, root string, limit int) ([]domain.RunSummary, error) {
	if _, err := os.Stat(domain.DefaultHistoryPath(root)); os.IsNotExist(err) {
		return nil, nil
	}

	db, err := s.open(ctx, root)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()

	if limit <= 0 {
		limit = -1
	}
	rows, err := db.QueryContext(ctx,
		`SELECT id, workflow, event, started_at, duration_ns, passed, failed FROM runs ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrHistoryReadFailed.Error())
	}
	defer func() { _ = rows.Close() }()

	var runs []domain.RunSummary
	for rows.Next() {
		var (
			run      domain.RunSummary
			event    string
			started  int64
			duration int64
		)
		if err := rows.Scan(&run.ID, &run.Workflow, &event, &started, &duration, &run.Passed, &run.Failed); err != nil {
			return nil, zerr.Wrap(err, domain.ErrHistoryReadFailed.Error())
		}
		run.Event = domain.EventKind(event)
		run.Started = time.Unix(0, started).UTC()
		run.Duration = time.Duration(duration)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, zerr.Wrap(err, domain.ErrHistoryReadFailed.Error())
	}
	return runs, nil
}
