package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
	id         TEXT PRIMARY KEY,
	status     TEXT NOT NULL,
	params     TEXT NOT NULL,
	outfile    TEXT NOT NULL,
	collected  INTEGER NOT NULL DEFAULT 0,
	persisted  INTEGER NOT NULL DEFAULT 0,
	start_time TEXT NOT NULL,
	end_time   TEXT,
	error      TEXT NOT NULL DEFAULT '',
	summary    TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_jobs_start ON jobs(start_time);
`

// Store keeps the job history in SQLite so it survives restarts
type Store struct {
	db *sql.DB
}

// OpenStore opens (and creates) the job database at path. ":memory:" gives
// a private in-memory database.
func OpenStore(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" {
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=10000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Insert records a new job
func (s *Store) Insert(ctx context.Context, j Job) error {
	params, err := json.Marshal(j.Params)
	if err != nil {
		return fmt.Errorf("failed to encode params: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, status, params, outfile, collected, persisted, start_time, end_time, error, summary)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.ID, string(j.Status), string(params), j.OutFile, j.Collected, j.Persisted,
		formatTime(j.StartTime), formatEndTime(j.EndTime), j.Error, j.Summary,
	)
	if err != nil {
		return fmt.Errorf("failed to insert job %s: %w", j.ID, err)
	}
	return nil
}

// Update writes the mutable fields of a job
func (s *Store) Update(ctx context.Context, j Job) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, collected = ?, persisted = ?, end_time = ?, error = ?, summary = ?
		 WHERE id = ?`,
		string(j.Status), j.Collected, j.Persisted, formatEndTime(j.EndTime), j.Error, j.Summary, j.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update job %s: %w", j.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Get returns one job
func (s *Store) Get(ctx context.Context, id string) (Job, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, status, params, outfile, collected, persisted, start_time, end_time, error, summary
		 FROM jobs WHERE id = ?`, id)
	j, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Job{}, ErrNotFound
	}
	return j, err
}

// List returns every job, newest first
func (s *Store) List(ctx context.Context) ([]Job, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, status, params, outfile, collected, persisted, start_time, end_time, error, summary
		 FROM jobs ORDER BY start_time DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	jobs := []Job{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// FailInterrupted marks jobs left queued or running by a previous process
// as failed and returns how many were changed
func (s *Store) FailInterrupted(ctx context.Context, at time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, end_time = ?, error = ?
		 WHERE status IN (?, ?)`,
		string(StatusFailed), formatTime(at), "interrupted by server restart",
		string(StatusQueued), string(StatusRunning),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to recover interrupted jobs: %w", err)
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(row scanner) (Job, error) {
	var (
		j      Job
		status string
		params string
		start  string
		end    sql.NullString
	)
	if err := row.Scan(&j.ID, &status, &params, &j.OutFile, &j.Collected, &j.Persisted, &start, &end, &j.Error, &j.Summary); err != nil {
		return Job{}, err
	}
	j.Status = Status(status)
	if err := json.Unmarshal([]byte(params), &j.Params); err != nil {
		return Job{}, fmt.Errorf("failed to decode params of job %s: %w", j.ID, err)
	}
	t, err := time.Parse(timeLayout, start)
	if err != nil {
		return Job{}, fmt.Errorf("failed to parse start time of job %s: %w", j.ID, err)
	}
	j.StartTime = t
	if end.Valid && end.String != "" {
		t, err := time.Parse(timeLayout, end.String)
		if err != nil {
			return Job{}, fmt.Errorf("failed to parse end time of job %s: %w", j.ID, err)
		}
		j.EndTime = &t
	}
	return j, nil
}

// timeLayout has fixed width so that stored times sort as text
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatEndTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}
