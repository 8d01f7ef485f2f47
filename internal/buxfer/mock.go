package buxfer

import (
	"context"
	"sync"

	"github.com/ledgerkeep/buxsync/internal/model"
	"github.com/ledgerkeep/buxsync/internal/service"
)

// MockLedger is a mock implementation of service.Ledger for testing.
type MockLedger struct {
	// Functions that can be set by tests to control behavior
	TransactionsInWindowFn func(ctx context.Context, startDate, endDate string) ([]model.Transaction, error)
	AddTransactionFn       func(ctx context.Context, tx model.Transaction) (*model.Transaction, error)
	EditTransactionFn      func(ctx context.Context, tx model.Transaction) (*model.Transaction, error)

	// Call tracking
	WindowCalls []WindowCall
	AddCalls    []model.Transaction
	EditCalls   []model.Transaction

	nextID int64
	mu     sync.Mutex
}

// WindowCall records the parameters of a TransactionsInWindow call.
type WindowCall struct {
	StartDate string
	EndDate   string
}

// NewMockLedger creates a new mock ledger.
func NewMockLedger() *MockLedger {
	return &MockLedger{nextID: 1000}
}

// TransactionsInWindow implements service.Ledger.
func (m *MockLedger) TransactionsInWindow(ctx context.Context, startDate, endDate string) ([]model.Transaction, error) {
	m.mu.Lock()
	m.WindowCalls = append(m.WindowCalls, WindowCall{StartDate: startDate, EndDate: endDate})
	m.mu.Unlock()

	if m.TransactionsInWindowFn != nil {
		return m.TransactionsInWindowFn(ctx, startDate, endDate)
	}
	return []model.Transaction{}, nil
}

// AddTransaction implements service.Ledger. The default behavior assigns
// sequential IDs, mimicking the ledger.
func (m *MockLedger) AddTransaction(ctx context.Context, tx model.Transaction) (*model.Transaction, error) {
	m.mu.Lock()
	m.AddCalls = append(m.AddCalls, tx)
	m.nextID++
	id := m.nextID
	m.mu.Unlock()

	if m.AddTransactionFn != nil {
		return m.AddTransactionFn(ctx, tx)
	}

	created := tx
	created.ID = id
	return &created, nil
}

// EditTransaction implements service.Ledger.
func (m *MockLedger) EditTransaction(ctx context.Context, tx model.Transaction) (*model.Transaction, error) {
	m.mu.Lock()
	m.EditCalls = append(m.EditCalls, tx)
	m.mu.Unlock()

	if m.EditTransactionFn != nil {
		return m.EditTransactionFn(ctx, tx)
	}

	updated := tx
	return &updated, nil
}

// Reset clears all call tracking.
func (m *MockLedger) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WindowCalls = nil
	m.AddCalls = nil
	m.EditCalls = nil
}

// Ensure MockLedger implements the Ledger interface.
var _ service.Ledger = (*MockLedger)(nil)
