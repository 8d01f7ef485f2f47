package reconcile

import (
	"testing"
	"time"

	"github.com/ledgerkeep/buxsync/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 4, 26, 12, 0, 0, 0, time.UTC)

func TestReconcile(t *testing.T) {
	remote := model.Transaction{
		ID:          207071073,
		Date:        "2024-04-26",
		AccountID:   123456,
		Amount:      11.43,
		Description: "mock expense | some memo here",
		Status:      model.StatusCleared,
		Type:        model.TypeExpense,
	}

	tests := []struct {
		name        string
		candidates  []model.Transaction
		baseline    []model.Transaction
		opts        Options
		wantNew     int
		wantDup     int
		wantUpdate  int
		wantFuture  int
	}{
		{
			name: "unmatched candidate is new",
			candidates: []model.Transaction{
				{Date: "2024-04-25", AccountID: 123456, Amount: -5.00, Description: "coffee"},
			},
			baseline: []model.Transaction{remote},
			opts:     Options{Now: testNow},
			wantNew:  1,
		},
		{
			name: "matched candidate with no divergence is a duplicate",
			candidates: []model.Transaction{
				{Date: "2024-04-26", AccountID: 123456, Amount: -11.43,
					Description: "mock expense | some memo here", Status: model.StatusCleared},
			},
			baseline: []model.Transaction{remote},
			opts:     Options{Now: testNow},
			wantDup:  1,
		},
		{
			name: "matched candidate with diverged status requires update",
			candidates: []model.Transaction{
				{Date: "2024-04-26", AccountID: 123456, Amount: -11.43,
					Description: "mock expense | some memo here", Status: model.StatusPending},
			},
			baseline:   []model.Transaction{remote},
			opts:       Options{Now: testNow},
			wantUpdate: 1,
		},
		{
			name: "future candidate is deferred when ignoring future",
			candidates: []model.Transaction{
				{Date: testNow.AddDate(0, 0, 7).Format(model.BuxferDateFormat),
					AccountID: 123456, Amount: -11.43, Description: "mock expense | some memo here"},
			},
			baseline:   nil,
			opts:       Options{Now: testNow, IgnoreFuture: true},
			wantFuture: 1,
		},
		{
			name: "future candidate is new when not ignoring future",
			candidates: []model.Transaction{
				{Date: testNow.AddDate(0, 0, 7).Format(model.BuxferDateFormat),
					AccountID: 123456, Amount: -11.43, Description: "mock expense | some memo here"},
			},
			baseline: nil,
			opts:     Options{Now: testNow},
			wantNew:  1,
		},
		{
			name: "today is not future",
			candidates: []model.Transaction{
				{Date: "2024-04-26", AccountID: 999, Amount: -1.00, Description: "today"},
			},
			baseline: nil,
			opts:     Options{Now: testNow, IgnoreFuture: true},
			wantNew:  1,
		},
		{
			name: "mixed candidate set partitions completely",
			candidates: []model.Transaction{
				{Date: "2024-04-25", AccountID: 123456, Amount: -5.00, Description: "coffee"},
				{Date: "2024-04-26", AccountID: 123456, Amount: -11.43,
					Description: "mock expense | some memo here", Status: model.StatusCleared},
				{Date: "2024-05-03", AccountID: 123456, Amount: -20.00, Description: "scheduled"},
			},
			baseline:   []model.Transaction{remote},
			opts:       Options{Now: testNow, IgnoreFuture: true},
			wantNew:    1,
			wantDup:    1,
			wantFuture: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reconcile(tt.candidates, tt.baseline, tt.opts)

			assert.Len(t, got.New, tt.wantNew, "new")
			assert.Len(t, got.Duplicate, tt.wantDup, "duplicate")
			assert.Len(t, got.UpdateRequired, tt.wantUpdate, "updateRequired")
			assert.Len(t, got.Future, tt.wantFuture, "future")
			assert.Equal(t, tt.wantNew+tt.wantDup+tt.wantUpdate+tt.wantFuture, got.Total())
		})
	}
}

func TestReconcile_DuplicateCarriesLedgerID(t *testing.T) {
	remote := model.Transaction{
		ID: 207071073, Date: "2024-04-26", AccountID: 123456, Amount: 11.43,
		Description: "mock expense | some memo here", Status: model.StatusCleared,
	}
	candidate := model.Transaction{
		Date: "2024-04-26", AccountID: 123456, Amount: -11.43,
		Description: "mock expense | some memo here", Status: model.StatusCleared,
	}

	got := Reconcile([]model.Transaction{candidate}, []model.Transaction{remote}, Options{Now: testNow})

	require.Len(t, got.Duplicate, 1)
	assert.Equal(t, int64(207071073), got.Duplicate[0].ID)
}

func TestReconcile_UpdateCarriesLedgerID(t *testing.T) {
	remote := model.Transaction{
		ID: 207071073, Date: "2024-04-26", AccountID: 123456, Amount: 11.43,
		Description: "mock expense | some memo here", Status: model.StatusPending,
	}
	candidate := model.Transaction{
		Date: "2024-04-26", AccountID: 123456, Amount: -11.43,
		Description: "mock expense | some memo here", Status: model.StatusCleared,
	}

	got := Reconcile([]model.Transaction{candidate}, []model.Transaction{remote}, Options{Now: testNow})

	require.Len(t, got.UpdateRequired, 1)
	assert.Equal(t, int64(207071073), got.UpdateRequired[0].ID)
	assert.Equal(t, model.StatusCleared, got.UpdateRequired[0].Status)
}

func TestReconcile_TransferNeverRequiresUpdate(t *testing.T) {
	remote := model.Transaction{
		ID: 888, Date: "2024-04-26", Amount: 200, Type: model.TypeTransfer,
		Status:      model.StatusCleared,
		FromAccount: &model.AccountRef{ID: 123456},
		ToAccount:   &model.AccountRef{ID: 654321},
	}
	candidate := model.Transaction{
		Date: "2024-04-26", AccountID: 123456, Amount: -200,
		Description: "transfer to savings", Status: model.StatusPending,
	}

	got := Reconcile([]model.Transaction{candidate}, []model.Transaction{remote}, Options{Now: testNow})

	assert.Empty(t, got.UpdateRequired)
	require.Len(t, got.Duplicate, 1)
	assert.Equal(t, int64(888), got.Duplicate[0].ID)
}

func TestReconcile_UnparsableDateDropped(t *testing.T) {
	candidates := []model.Transaction{
		{Date: "26/04/2024", AccountID: 123456, Amount: -11.43, Description: "bad date"},
		{Date: "2024-04-26", AccountID: 123456, Amount: -5.00, Description: "good"},
	}

	got := Reconcile(candidates, nil, Options{Now: testNow})

	assert.Equal(t, 1, got.Total())
	require.Len(t, got.New, 1)
	assert.Equal(t, "good", got.New[0].Description)
}

func TestReconcile_Idempotent(t *testing.T) {
	// A candidate classified as new becomes a duplicate once the ledger
	// reflects it, so a rerun submits nothing.
	candidate := model.Transaction{
		Date: "2024-04-26", AccountID: 123456, Amount: -11.43,
		Description: "mock expense | some memo here", Status: model.StatusCleared,
	}

	first := Reconcile([]model.Transaction{candidate}, nil, Options{Now: testNow})
	require.Len(t, first.New, 1)

	committed := first.New[0]
	committed.ID = 1001
	committed.Amount = 11.43

	second := Reconcile([]model.Transaction{candidate}, []model.Transaction{committed}, Options{Now: testNow})
	assert.Empty(t, second.New)
	assert.Len(t, second.Duplicate, 1)
}
