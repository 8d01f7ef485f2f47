package reconcile

import (
	"log/slog"
	"time"

	"github.com/ledgerkeep/buxsync/internal/model"
)

// Options controls a reconciliation pass.
type Options struct {
	// Now anchors the future-dated test. The zero value means time.Now().
	Now time.Time
	// IgnoreFuture excludes candidates dated strictly after Now from
	// reconciliation: the ledger's read API cannot return not-yet-occurred
	// entries, so deduplicating them is impossible.
	IgnoreFuture bool
}

// Classification partitions a candidate set against a remote baseline.
// Every candidate with a parsable date lands in exactly one set.
type Classification struct {
	// New holds candidates with no matching remote record.
	New []model.Transaction
	// Duplicate holds the matched remote records for candidates that need
	// no action. Remote records carry the ledger-assigned ID.
	Duplicate []model.Transaction
	// UpdateRequired holds merged remote records whose status or
	// description diverged from the candidate. The remote ID is preserved
	// so the record can be edited in place.
	UpdateRequired []model.Transaction
	// Future holds candidates deferred because they are dated after Now.
	Future []model.Transaction
}

// Total returns the number of classified candidates.
func (c Classification) Total() int {
	return len(c.New) + len(c.Duplicate) + len(c.UpdateRequired) + len(c.Future)
}

// Reconcile classifies candidates against the remote baseline in input
// order. Candidates with unparsable dates are dropped with a warning; the
// write API would reject them anyway and one bad row must not abort a run.
// The first matching baseline record wins; the baseline is assumed free of
// internal duplicates per fingerprint except the two-leg transfer case,
// which the transfer rule handles.
func Reconcile(candidates, baseline []model.Transaction, opts Options) Classification {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	var result Classification

	for _, candidate := range candidates {
		date, err := candidate.ParseDate()
		if err != nil {
			slog.Warn("Dropping candidate with unparsable date",
				"date", candidate.Date,
				"description", candidate.Description)
			continue
		}

		if opts.IgnoreFuture && date.After(now) {
			result.Future = append(result.Future, candidate)
			continue
		}

		remote, found := findMatch(baseline, candidate)
		if !found {
			result.New = append(result.New, candidate)
			continue
		}

		if merged, needed := MergeUpdate(remote, candidate); needed {
			result.UpdateRequired = append(result.UpdateRequired, merged)
		} else {
			result.Duplicate = append(result.Duplicate, remote)
		}
	}

	return result
}

// findMatch scans the baseline for the first record denoting the same
// real-world event as the candidate. Linear scan: baselines are bounded by
// the 100-per-page read window.
func findMatch(baseline []model.Transaction, candidate model.Transaction) (model.Transaction, bool) {
	for _, remote := range baseline {
		if SameTransaction(remote, candidate) {
			return remote, true
		}
	}
	return model.Transaction{}, false
}
