// Package db provides PostgreSQL access for crawl run bookkeeping and the
// ingredient table that receives imported nutrition rows.
package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// EnsureSchema creates the crawler tables if they do not exist.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// CreateRun records the start of a crawl job run.
func (db *DB) CreateRun(ctx context.Context, runID uuid.UUID, job, outputPath string) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO crawl_runs (id, job, output_path, status)
		 VALUES ($1, $2, $3, $4)`,
		runID, job, outputPath, RunStatusRunning,
	)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// CompleteRun marks a crawl run as finished with its counts.
func (db *DB) CompleteRun(ctx context.Context, runID uuid.UUID, status string, records, failed int) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE crawl_runs
		 SET status = $1, records = $2, failed_tasks = $3, completed_at = NOW()
		 WHERE id = $4`,
		status, records, failed, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to complete run: run %s not found", runID)
	}
	return nil
}

// GetRun retrieves a run by ID. It returns nil, nil when the run does not exist.
func (db *DB) GetRun(ctx context.Context, runID uuid.UUID) (*Run, error) {
	var r Run
	err := db.pool.QueryRow(ctx,
		`SELECT id, job, output_path, status, records, failed_tasks, created_at, completed_at
		 FROM crawl_runs WHERE id = $1`,
		runID,
	).Scan(&r.ID, &r.Job, &r.OutputPath, &r.Status, &r.Records, &r.FailedTasks, &r.CreatedAt, &r.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &r, nil
}

// ListRuns returns the most recent runs of a job, newest first. An empty job lists all jobs.
func (db *DB) ListRuns(ctx context.Context, job string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.pool.Query(ctx,
		`SELECT id, job, output_path, status, records, failed_tasks, created_at, completed_at
		 FROM crawl_runs
		 WHERE $1 = '' OR job = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		job, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Job, &r.OutputPath, &r.Status, &r.Records, &r.FailedTasks, &r.CreatedAt, &r.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
