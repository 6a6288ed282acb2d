package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/target/courtlist-publisher/internal/core"
	"github.com/target/courtlist-publisher/internal/data/pgxutil"
	"github.com/target/courtlist-publisher/internal/domain/model"
)

// Reaper sweeps share advisory lock namespace 1000; the second key picks the sweep.
const (
	reaperLockNamespace  = 1000
	reaperLockFailStale  = 1
	reaperLockDeleteDone = 2

	defaultDeleteBatchSize = 1000
)

const stalePendingError = "publish job timed out waiting for a worker"

const failStalePendingSQL = `
	UPDATE jobs
	SET status = 'failed',
		last_error = $4,
		completed_at = $1,
		updated_at = $1
	WHERE id IN (
		SELECT id FROM jobs
		WHERE status = 'pending'
		  AND created_at < $2
		ORDER BY created_at
		LIMIT $3
	)`

const deleteFinishedSQL = `
	DELETE FROM jobs
	WHERE id IN (
		SELECT id FROM jobs
		WHERE status = $1
		  AND COALESCE(completed_at, updated_at) < $2
		ORDER BY COALESCE(completed_at, updated_at)
		LIMIT $3
	)`

// FailStalePendingJobs marks pending jobs older than maxAge as failed, at most batchSize per call.
func (r *JobRepo) FailStalePendingJobs(ctx context.Context, maxAge time.Duration, batchSize int) (int64, error) {
	return r.sweep(ctx, reaperLockFailStale, func(tx *sql.Tx, now time.Time) (sql.Result, error) {
		return tx.ExecContext(ctx, failStalePendingSQL, now, now.Add(-maxAge), batchSize, stalePendingError)
	})
}

// DeleteOldJobs removes finished jobs of params.Status whose last change is older than params.MaxAge.
func (r *JobRepo) DeleteOldJobs(ctx context.Context, params core.DeleteOldJobsParams) (int64, error) {
	if !params.Status.Valid() {
		return 0, fmt.Errorf("invalid job status: %s", params.Status)
	}
	if params.Status == model.JobStatusRunning {
		return 0, fmt.Errorf("refusing to delete %s jobs", params.Status)
	}
	if params.BatchSize <= 0 {
		params.BatchSize = defaultDeleteBatchSize
	}

	return r.sweep(ctx, reaperLockDeleteDone, func(tx *sql.Tx, now time.Time) (sql.Result, error) {
		return tx.ExecContext(ctx, deleteFinishedSQL, params.Status, now.Add(-params.MaxAge), params.BatchSize)
	})
}

// sweep runs exec inside a transaction holding the reaper advisory lock for sweepKey.
// When another reaper already holds the lock the sweep is skipped and reports zero rows.
func (r *JobRepo) sweep(
	ctx context.Context,
	sweepKey int,
	exec func(tx *sql.Tx, now time.Time) (sql.Result, error),
) (int64, error) {
	var affected int64
	err := pgxutil.WithSQLTx(ctx, r.DB, pgxutil.SQLTxConfig{
		Fn: func(tx *sql.Tx) error {
			var locked bool
			err := tx.QueryRowContext(ctx, "SELECT pg_try_advisory_xact_lock($1, $2)", reaperLockNamespace, sweepKey).
				Scan(&locked)
			if err != nil {
				return fmt.Errorf("acquire reaper lock: %w", err)
			}
			if !locked {
				return nil
			}

			res, err := exec(tx, r.timeProvider.Now().UTC())
			if err != nil {
				return fmt.Errorf("reaper sweep %d: %w", sweepKey, err)
			}
			if affected, err = res.RowsAffected(); err != nil {
				return fmt.Errorf("rows affected: %w", err)
			}
			return nil
		},
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}
