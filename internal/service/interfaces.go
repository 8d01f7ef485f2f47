// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/ledgerkeep/buxsync/internal/model"
)

// TransactionQuery selects transactions from the remote ledger. Zero values
// are omitted from the request. The API returns at most 100 transactions per
// call; callers page via Page to retrieve a full window.
type TransactionQuery struct {
	StartDate string
	EndDate   string
	Month     string
	Status    model.TransactionStatus
	AccountID int64
	TagID     int64
	BudgetID  int64
	ContactID int64
	GroupID   int64
	Page      int
}

// TransactionPage is one page of a ledger read.
type TransactionPage struct {
	Transactions []model.Transaction
	Total        int
}

// Ledger is the remote-ledger surface the sync engine depends on. The
// concrete client owns session renewal and pagination; TransactionsInWindow
// pages to exhaustion for the inclusive date window.
type Ledger interface {
	TransactionsInWindow(ctx context.Context, startDate, endDate string) ([]model.Transaction, error)
	AddTransaction(ctx context.Context, tx model.Transaction) (*model.Transaction, error)
	EditTransaction(ctx context.Context, tx model.Transaction) (*model.Transaction, error)
}

// TransactionSource produces candidate transactions for synchronization
// (OFX files, Plaid, a JSON export from a scraper).
type TransactionSource interface {
	GetTransactions(ctx context.Context, startDate, endDate time.Time) ([]model.Transaction, error)
}

// Journal records the outcome of sync runs locally.
type Journal interface {
	SaveSyncRun(ctx context.Context, run *model.SyncRun) error
	ListSyncRuns(ctx context.Context, limit int) ([]model.SyncRun, error)
	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
