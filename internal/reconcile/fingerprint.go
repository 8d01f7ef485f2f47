// Package reconcile implements transaction identity matching and the
// classification of candidate transactions against the remote ledger's
// current state.
package reconcile

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ledgerkeep/buxsync/internal/model"
)

// Fingerprint computes the identity key for a transaction: calendar day,
// owning account, and absolute amount. The description is deliberately
// excluded so cosmetic re-scrapes do not break identity, and the amount sign
// is dropped because the ledger and the scraper disagree on direction
// encoding for the same real-world event.
func Fingerprint(t model.Transaction) string {
	parts := []string{
		strings.TrimSpace(t.Date),
		strconv.FormatInt(t.AccountID, 10),
		fmt.Sprintf("absoluteAmount:%s", formatAmount(math.Abs(t.Amount))),
	}
	return strings.Join(parts, "_")
}

// formatAmount renders an amount with no trailing zeros so 11.43, 11.430 and
// -11.43 all produce the same fingerprint component.
func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// NormalizedDescription strips the trailing annotation segment (everything
// from the first "|" onward) and removes whitespace. Annotation-only edits
// therefore compare equal.
func NormalizedDescription(t model.Transaction) string {
	desc, _, _ := strings.Cut(t.Description, "|")
	return strings.ReplaceAll(desc, " ", "")
}

// SameTransaction reports whether a remote ledger record and a candidate
// denote the same real-world event.
//
// Transfers get a special rule: the ledger stores one transfer as two rows,
// one per account leg, so a remote transfer row matches a candidate when the
// absolute amounts and dates agree and either leg's account is the
// candidate's account. Everything else matches on fingerprint equality.
func SameTransaction(remote, candidate model.Transaction) bool {
	if remote.IsTransfer() &&
		math.Abs(remote.Amount) == math.Abs(candidate.Amount) &&
		remote.Date == candidate.Date {
		return (remote.FromAccount != nil && remote.FromAccount.ID == candidate.AccountID) ||
			(remote.ToAccount != nil && remote.ToAccount.ID == candidate.AccountID)
	}
	return Fingerprint(remote) == Fingerprint(candidate)
}

// MergeUpdate decides whether a matched remote record needs updating from
// its candidate counterpart and returns the merged record. Status and
// description are the only fields a re-scrape can legitimately revise.
// Transfers are never updated; their leg-based identity match is already
// lossy.
//
// The input records are not modified; the merged copy preserves the remote
// record's ledger-assigned ID.
func MergeUpdate(remote, candidate model.Transaction) (model.Transaction, bool) {
	if remote.IsTransfer() {
		return remote, false
	}

	merged := remote
	needed := false

	if remote.Status != candidate.Status {
		merged.Status = candidate.Status
		needed = true
	}

	if NormalizedDescription(remote) != NormalizedDescription(candidate) {
		merged.Description = candidate.Description
		needed = true
	}

	return merged, needed
}
