package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// FailAfterAttempts is the attempt count at which a job stops retrying and
// parks as failed, awaiting manual intervention.
const FailAfterAttempts = 10

// AddOutboxJob enqueues under the idempotency key. A live duplicate is a
// no-op returning the stored row; a failed duplicate is reset to pending so
// operators can re-drive it by re-enqueueing.
func (s *Store) AddOutboxJob(ctx context.Context, jobType, idempotencyKey, payloadJSON string) (*OutboxJob, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin add outbox job: %w", err)
	}
	defer tx.Rollback()

	now := s.nowISO()
	if _, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO afip_outbox
		    (job_type, idempotency_key, payload_json, status, attempts, next_retry_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, 0, ?, ?, ?)`,
		jobType, idempotencyKey, payloadJSON, JobPending, now, now, now); err != nil {
		return nil, fmt.Errorf("insert outbox job: %w", err)
	}

	var job OutboxJob
	if err := tx.GetContext(ctx, &job,
		`SELECT * FROM afip_outbox WHERE idempotency_key=?`, idempotencyKey); err != nil {
		return nil, fmt.Errorf("select outbox job back: %w", err)
	}

	if job.Status == JobFailed {
		if _, err := tx.ExecContext(ctx, `
			UPDATE afip_outbox
			   SET status=?, attempts=0, next_retry_at=?, updated_at=?, last_error=NULL
			 WHERE id=?`,
			JobPending, now, now, job.ID); err != nil {
			return nil, fmt.Errorf("reset failed outbox job: %w", err)
		}
		if err := tx.GetContext(ctx, &job,
			`SELECT * FROM afip_outbox WHERE id=?`, job.ID); err != nil {
			return nil, fmt.Errorf("reselect outbox job: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit add outbox job: %w", err)
	}
	return &job, nil
}

// FetchDueOutboxJobs returns work that is ready now, oldest first.
func (s *Store) FetchDueOutboxJobs(ctx context.Context, limit int) ([]OutboxJob, error) {
	jobs := []OutboxJob{}
	err := s.db.SelectContext(ctx, &jobs, `
		SELECT * FROM afip_outbox
		 WHERE status IN (?, ?) AND next_retry_at <= ?
		 ORDER BY id ASC
		 LIMIT ?`,
		JobPending, JobRetrying, s.nowISO(), limit)
	if err != nil {
		return nil, fmt.Errorf("fetch due outbox jobs: %w", err)
	}
	return jobs, nil
}

func (s *Store) MarkOutboxProcessing(ctx context.Context, jobID int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE afip_outbox SET status=?, updated_at=? WHERE id=?`,
		JobProcessing, s.nowISO(), jobID)
	if err != nil {
		return fmt.Errorf("mark outbox processing: %w", err)
	}
	return nil
}

func (s *Store) MarkOutboxDone(ctx context.Context, jobID int64, responseJSON string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE afip_outbox
		   SET status=?, updated_at=?, last_error=NULL, last_response_json=?
		 WHERE id=?`,
		JobDone, s.nowISO(), responseJSON, jobID)
	if err != nil {
		return fmt.Errorf("mark outbox done: %w", err)
	}
	return nil
}

// MarkOutboxRetry records a failed attempt. The tenth failure parks the job
// as failed; until then it waits for nextRetryAt.
func (s *Store) MarkOutboxRetry(ctx context.Context, jobID int64, attempts int, nextRetryAt, lastError string) error {
	status := JobRetrying
	if attempts >= FailAfterAttempts {
		status = JobFailed
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE afip_outbox
		   SET status=?, attempts=?, next_retry_at=?, last_error=?, updated_at=?
		 WHERE id=?`,
		status, attempts, nextRetryAt, lastError, s.nowISO(), jobID)
	if err != nil {
		return fmt.Errorf("mark outbox retry: %w", err)
	}
	return nil
}

func (s *Store) ListOutbox(ctx context.Context, status string, limit int) ([]OutboxJob, error) {
	jobs := []OutboxJob{}
	var err error
	if status != "" {
		err = s.db.SelectContext(ctx, &jobs,
			`SELECT * FROM afip_outbox WHERE status=? ORDER BY id DESC LIMIT ?`, status, limit)
	} else {
		err = s.db.SelectContext(ctx, &jobs,
			`SELECT * FROM afip_outbox ORDER BY id DESC LIMIT ?`, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("list outbox: %w", err)
	}
	return jobs, nil
}

func (s *Store) GetOutboxJob(ctx context.Context, jobID int64) (*OutboxJob, error) {
	var job OutboxJob
	err := s.db.GetContext(ctx, &job, `SELECT * FROM afip_outbox WHERE id=?`, jobID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select outbox job: %w", err)
	}
	return &job, nil
}

// SweepStaleProcessing requeues rows stuck in processing, which happens when
// the process dies mid-job. They rejoin the retry pool with a marker so the
// incident stays visible.
func (s *Store) SweepStaleProcessing(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := formatISO(s.clock.Now().Add(-olderThan))
	res, err := s.db.ExecContext(ctx, `
		UPDATE afip_outbox
		   SET status=?, last_error='stale_processing_reset', updated_at=?
		 WHERE status=? AND updated_at <= ?`,
		JobRetrying, s.nowISO(), JobProcessing, cutoff)
	if err != nil {
		return 0, fmt.Errorf("sweep stale processing: %w", err)
	}
	return res.RowsAffected()
}
