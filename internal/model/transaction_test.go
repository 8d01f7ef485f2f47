package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransaction_ParseDate(t *testing.T) {
	tx := Transaction{Date: "2024-04-26"}
	parsed, err := tx.ParseDate()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 4, 26, 0, 0, 0, 0, time.UTC), parsed)

	tx.Date = "26/04/2024"
	_, err = tx.ParseDate()
	assert.Error(t, err)
}

func TestTransaction_IsTransfer(t *testing.T) {
	transfer := Transaction{Type: TypeTransfer}
	expense := Transaction{Type: TypeExpense}
	var zero Transaction

	assert.True(t, transfer.IsTransfer())
	assert.False(t, expense.IsTransfer())
	assert.False(t, zero.IsTransfer())
}

func TestTransaction_TagList(t *testing.T) {
	tx := Transaction{Tags: []string{"groceries", "food"}}
	assert.Equal(t, "groceries,food", tx.TagList())

	empty := Transaction{}
	assert.Equal(t, "", empty.TagList())
}
