package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/pixeldrift/resizer/internal/domain"
)

// Only job metadata is stored; image bytes never reach the database.
const jobSchemaSQL = `
CREATE TABLE IF NOT EXISTS resize_jobs (
	id TEXT PRIMARY KEY,
	status TEXT NOT NULL,
	desired_width INT NOT NULL,
	desired_height INT NOT NULL,
	webhook_url TEXT NOT NULL DEFAULT '',
	input_bytes BIGINT NOT NULL DEFAULT 0,
	output_bytes BIGINT NOT NULL DEFAULT 0,
	failure TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS usage_logs (
	id BIGSERIAL PRIMARY KEY,
	job_id TEXT NOT NULL,
	pixels_processed BIGINT NOT NULL,
	input_bytes BIGINT NOT NULL,
	output_bytes BIGINT NOT NULL,
	compute_time_ms BIGINT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
`

type PostgresJobStore struct {
	db *sql.DB
}

func NewPostgresJobStore(ctx context.Context, dsn string) (*PostgresJobStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	store := &PostgresJobStore{db: db}
	if err := store.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *PostgresJobStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, jobSchemaSQL); err != nil {
		return fmt.Errorf("ensure resize_jobs schema: %w", err)
	}
	return nil
}

func (s *PostgresJobStore) Close() error {
	return s.db.Close()
}

func (s *PostgresJobStore) Create(ctx context.Context, job domain.ResizeJob) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO resize_jobs (id, status, desired_width, desired_height, webhook_url, input_bytes, output_bytes, failure, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		job.ID,
		job.Status,
		job.DesiredWidth,
		job.DesiredHeight,
		job.WebhookURL,
		job.InputBytes,
		job.OutputBytes,
		job.Failure,
		job.CreatedAt,
		job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert resize job: %w", err)
	}

	return nil
}

func (s *PostgresJobStore) Get(ctx context.Context, id string) (domain.ResizeJob, bool, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, status, desired_width, desired_height, webhook_url, input_bytes, output_bytes, failure, created_at, updated_at
		 FROM resize_jobs
		 WHERE id = $1`,
		id,
	)

	var job domain.ResizeJob
	if err := row.Scan(
		&job.ID,
		&job.Status,
		&job.DesiredWidth,
		&job.DesiredHeight,
		&job.WebhookURL,
		&job.InputBytes,
		&job.OutputBytes,
		&job.Failure,
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return domain.ResizeJob{}, false, nil
		}
		return domain.ResizeJob{}, false, fmt.Errorf("query resize job: %w", err)
	}

	return job, true, nil
}

func (s *PostgresJobStore) UpdateStatus(ctx context.Context, id, status string) (domain.ResizeJob, error) {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE resize_jobs
		 SET status = $1, updated_at = $2
		 WHERE id = $3`,
		status,
		now,
		id,
	)
	if err != nil {
		return domain.ResizeJob{}, fmt.Errorf("update job status: %w", err)
	}

	return s.mustGet(ctx, id)
}

func (s *PostgresJobStore) Finish(ctx context.Context, id, status string, outputBytes int64, failure string) (domain.ResizeJob, error) {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE resize_jobs
		 SET status = $1, output_bytes = $2, failure = $3, updated_at = $4
		 WHERE id = $5`,
		status,
		outputBytes,
		failure,
		now,
		id,
	)
	if err != nil {
		return domain.ResizeJob{}, fmt.Errorf("finish resize job: %w", err)
	}

	return s.mustGet(ctx, id)
}

func (s *PostgresJobStore) CreateUsageLog(ctx context.Context, usage domain.UsageLog) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO usage_logs (job_id, pixels_processed, input_bytes, output_bytes, compute_time_ms, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		usage.JobID,
		usage.PixelsProcessed,
		usage.InputBytes,
		usage.OutputBytes,
		usage.ComputeTimeMS,
		usage.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert usage log: %w", err)
	}
	return nil
}

func (s *PostgresJobStore) mustGet(ctx context.Context, id string) (domain.ResizeJob, error) {
	job, ok, err := s.Get(ctx, id)
	if err != nil {
		return domain.ResizeJob{}, err
	}
	if !ok {
		return domain.ResizeJob{}, ErrJobNotFound
	}
	return job, nil
}
