package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/ledgerkeep/buxsync/internal/model"
)

// SaveSyncRun records the outcome of one synchronization run.
func (s *SQLiteStorage) SaveSyncRun(ctx context.Context, run *model.SyncRun) error {
	if run == nil {
		return fmt.Errorf("run cannot be nil")
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_runs (
			started_at, window_start, window_end, candidates, added,
			duplicates, updated, ignored_future, batch_size,
			successful_batches, failed_batches, duration_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.StartedAt, run.WindowStart, run.WindowEnd, run.Candidates,
		run.Added, run.Duplicates, run.Updated, run.IgnoredFuture,
		run.BatchSize, run.SuccessfulBatches, run.FailedBatches,
		run.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("failed to save sync run: %w", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		run.ID = id
	}

	return nil
}

// ListSyncRuns returns the most recent sync runs, newest first.
func (s *SQLiteStorage) ListSyncRuns(ctx context.Context, limit int) ([]model.SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, window_start, window_end, candidates, added,
			duplicates, updated, ignored_future, batch_size,
			successful_batches, failed_batches, duration_ms
		FROM sync_runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []model.SyncRun
	for rows.Next() {
		var run model.SyncRun
		var durationMs int64
		if err := rows.Scan(&run.ID, &run.StartedAt, &run.WindowStart,
			&run.WindowEnd, &run.Candidates, &run.Added, &run.Duplicates,
			&run.Updated, &run.IgnoredFuture, &run.BatchSize,
			&run.SuccessfulBatches, &run.FailedBatches, &durationMs); err != nil {
			return nil, fmt.Errorf("failed to scan sync run: %w", err)
		}
		run.Duration = time.Duration(durationMs) * time.Millisecond
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sync runs: %w", err)
	}

	return runs, nil
}
