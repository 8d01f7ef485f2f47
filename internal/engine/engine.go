// Package engine implements the core synchronization engine: it reconciles
// candidate transactions against the remote ledger and drives batched
// submission of the difference.
package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/ledgerkeep/buxsync/internal/common"
	"github.com/ledgerkeep/buxsync/internal/model"
	"github.com/ledgerkeep/buxsync/internal/reconcile"
	"github.com/ledgerkeep/buxsync/internal/service"
)

// SyncEngine orchestrates one synchronization run: window derivation,
// baseline read, reconciliation, and batched submission.
type SyncEngine struct {
	ledger         service.Ledger
	logger         *slog.Logger
	progressWriter io.Writer
	batchSize      int
	updateExisting bool
	ignoreFuture   bool
}

// Config holds configuration options for the sync engine.
type Config struct {
	// ProgressWriter, when set, receives a progress bar during submission.
	ProgressWriter io.Writer
	// BatchSize bounds concurrent writes per chunk.
	BatchSize int
	// UpdateExisting enables editing remote records whose status or
	// description diverged. Off by default: the caller must opt in to
	// remote mutation.
	UpdateExisting bool
	// IgnoreFuture defers candidates dated after now instead of
	// classifying them; the ledger cannot return them for deduplication.
	IgnoreFuture bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		BatchSize:    DefaultBatchSize,
		IgnoreFuture: true,
	}
}

// SyncResult summarizes one synchronization run.
type SyncResult struct {
	AddedIDs          []int64
	DuplicateIDs      []int64
	UpdatedIDs        []int64
	WindowStart       string
	WindowEnd         string
	Candidates        int
	IgnoredFuture     int
	BatchSize         int
	SuccessfulBatches int
	FailedBatches     int
}

// New creates a sync engine with the given ledger and configuration.
func New(ledger service.Ledger, cfg Config) *SyncEngine {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &SyncEngine{
		ledger:         ledger,
		batchSize:      batchSize,
		updateExisting: cfg.UpdateExisting,
		ignoreFuture:   cfg.IgnoreFuture,
		progressWriter: cfg.ProgressWriter,
		logger:         slog.Default().With("component", "engine"),
	}
}

// Sync reconciles candidates against the ledger and submits the difference.
//
// Auth and baseline-read failures are fatal and return no result. Write
// failures during submission are absorbed into the result's counters; the
// run always produces a best-effort summary once the baseline is in hand.
func (e *SyncEngine) Sync(ctx context.Context, candidates []model.Transaction) (*SyncResult, error) {
	startDate, endDate, err := reconcile.DateRange(candidates)
	if err != nil {
		return nil, err
	}

	e.logger.Info("Starting sync",
		"candidates", len(candidates),
		"window_start", startDate,
		"window_end", endDate)

	baseline, err := e.ledger.TransactionsInWindow(ctx, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrBaselineRead, err)
	}

	classification := reconcile.Reconcile(candidates, baseline, reconcile.Options{
		IgnoreFuture: e.ignoreFuture,
		Now:          time.Now(),
	})

	e.logger.Info("Reconciled candidates",
		"new", len(classification.New),
		"duplicate", len(classification.Duplicate),
		"update_required", len(classification.UpdateRequired),
		"future", len(classification.Future))

	submitter := newSubmitter(e.ledger, e.batchSize, e.progressWriter, e.logger)
	submitted := submitter.submitNew(ctx, classification.New)

	result := &SyncResult{
		WindowStart:       startDate,
		WindowEnd:         endDate,
		Candidates:        len(candidates),
		AddedIDs:          submitted.AddedIDs,
		DuplicateIDs:      transactionIDs(classification.Duplicate),
		IgnoredFuture:     len(classification.Future),
		BatchSize:         e.batchSize,
		SuccessfulBatches: submitted.SuccessfulBatches,
		FailedBatches:     submitted.FailedBatches,
	}

	if e.updateExisting {
		result.UpdatedIDs = submitter.submitUpdates(ctx, classification.UpdateRequired)
	} else {
		// With updates disabled the diverged records are already present
		// remotely, so they are reported as duplicates rather than
		// silently mutated.
		result.DuplicateIDs = append(result.DuplicateIDs, transactionIDs(classification.UpdateRequired)...)
	}

	e.logger.Info("Sync complete",
		"added", len(result.AddedIDs),
		"duplicates", len(result.DuplicateIDs),
		"updated", len(result.UpdatedIDs),
		"ignored_future", result.IgnoredFuture,
		"successful_batches", result.SuccessfulBatches,
		"failed_batches", result.FailedBatches)

	return result, nil
}

func transactionIDs(transactions []model.Transaction) []int64 {
	ids := make([]int64, 0, len(transactions))
	for _, tx := range transactions {
		ids = append(ids, tx.ID)
	}
	return ids
}
