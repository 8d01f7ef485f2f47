package reconcile

import (
	"testing"

	"github.com/ledgerkeep/buxsync/internal/common"
	"github.com/ledgerkeep/buxsync/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateRange(t *testing.T) {
	tests := []struct {
		name      string
		dates     []string
		wantStart string
		wantEnd   string
	}{
		{
			name:      "single candidate collapses to one day",
			dates:     []string{"2024-04-26"},
			wantStart: "2024-04-26",
			wantEnd:   "2024-04-26",
		},
		{
			name:      "unordered candidates",
			dates:     []string{"2024-04-26", "2024-04-01", "2024-04-15"},
			wantStart: "2024-04-01",
			wantEnd:   "2024-04-26",
		},
		{
			name:      "window spans a year boundary",
			dates:     []string{"2024-01-02", "2023-12-28"},
			wantStart: "2023-12-28",
			wantEnd:   "2024-01-02",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candidates := make([]model.Transaction, len(tt.dates))
			for i, d := range tt.dates {
				candidates[i] = model.Transaction{Date: d}
			}

			start, end, err := DateRange(candidates)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
		})
	}
}

func TestDateRange_Empty(t *testing.T) {
	_, _, err := DateRange(nil)
	assert.ErrorIs(t, err, common.ErrNoCandidates)
}
