package engine

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/ledgerkeep/buxsync/internal/model"
	"github.com/ledgerkeep/buxsync/internal/service"
	"github.com/schollz/progressbar/v3"
)

// DefaultBatchSize bounds concurrent writes per chunk. Chosen to stay
// within the remote API's practical rate tolerance.
const DefaultBatchSize = 20

// submitResult accumulates the outcome of a batched submission.
type submitResult struct {
	AddedIDs          []int64
	SuccessfulBatches int
	FailedBatches     int
}

// submitter drives bounded-concurrency creation of new transactions and
// sequential editing of existing ones.
type submitter struct {
	ledger         service.Ledger
	logger         *slog.Logger
	progressWriter io.Writer
	batchSize      int
}

func newSubmitter(ledger service.Ledger, batchSize int, progressWriter io.Writer, logger *slog.Logger) *submitter {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &submitter{
		ledger:         ledger,
		batchSize:      batchSize,
		progressWriter: progressWriter,
		logger:         logger,
	}
}

// submitNew creates transactions in consecutive chunks of batchSize. Each
// chunk's writes are dispatched concurrently and awaited as a unit before
// the next chunk starts, bounding peak concurrency. A chunk with any failed
// write counts as one failed batch and contributes no IDs; failure in one
// chunk never aborts the rest of the run.
func (s *submitter) submitNew(ctx context.Context, transactions []model.Transaction) submitResult {
	var result submitResult
	if len(transactions) == 0 {
		return result
	}

	bar := s.newProgressBar(len(transactions))

	batchIndex := 0
	for start := 0; start < len(transactions); start += s.batchSize {
		end := start + s.batchSize
		if end > len(transactions) {
			end = len(transactions)
		}
		chunk := transactions[start:end]

		created := make([]*model.Transaction, len(chunk))
		errs := make([]error, len(chunk))

		var wg sync.WaitGroup
		for i, tx := range chunk {
			wg.Add(1)
			go func(i int, tx model.Transaction) {
				defer wg.Done()
				created[i], errs[i] = s.ledger.AddTransaction(ctx, tx)
			}(i, tx)
		}
		wg.Wait()

		if batchErr := firstError(errs); batchErr != nil {
			result.FailedBatches++
			s.logger.Error("Batch submission failed",
				"batch", batchIndex,
				"size", len(chunk),
				"error", batchErr)
		} else {
			result.SuccessfulBatches++
			for _, tx := range created {
				result.AddedIDs = append(result.AddedIDs, tx.ID)
			}
			s.logger.Debug("Batch submitted",
				"batch", batchIndex,
				"size", len(chunk))
		}

		if bar != nil {
			_ = bar.Add(len(chunk))
		}
		batchIndex++
	}

	if bar != nil {
		_ = bar.Finish()
	}

	return result
}

// submitUpdates edits matched remote records one at a time, preserving
// input order in the returned ID list. Updates are rare and already carry a
// ledger ID, so sequential submission keeps failure attribution simple; a
// failed edit is logged and skipped without aborting the rest.
func (s *submitter) submitUpdates(ctx context.Context, transactions []model.Transaction) []int64 {
	updatedIDs := make([]int64, 0, len(transactions))

	for _, tx := range transactions {
		updated, err := s.ledger.EditTransaction(ctx, tx)
		if err != nil {
			s.logger.Error("Failed to update transaction",
				"id", tx.ID,
				"date", tx.Date,
				"error", err)
			continue
		}
		updatedIDs = append(updatedIDs, updated.ID)
	}

	return updatedIDs
}

func (s *submitter) newProgressBar(total int) *progressbar.ProgressBar {
	if s.progressWriter == nil {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(s.progressWriter),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Submitting transactions..."),
	)
}

func firstError(errs []error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
