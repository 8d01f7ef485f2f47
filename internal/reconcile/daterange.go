package reconcile

import (
	"github.com/ledgerkeep/buxsync/internal/common"
	"github.com/ledgerkeep/buxsync/internal/model"
)

// DateRange derives the inclusive query window spanned by a candidate set.
// ISO calendar days order lexically, so plain string comparison suffices.
// An empty candidate set is an error: no window is derivable and a sync
// must not proceed.
func DateRange(candidates []model.Transaction) (startDate, endDate string, err error) {
	if len(candidates) == 0 {
		return "", "", common.ErrNoCandidates
	}

	startDate = candidates[0].Date
	endDate = candidates[0].Date

	for _, t := range candidates[1:] {
		if t.Date < startDate {
			startDate = t.Date
		}
		if t.Date > endDate {
			endDate = t.Date
		}
	}

	return startDate, endDate, nil
}
