package ledger

import (
	"testing"

	"github.com/funduq/funduq/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSumCompleted(t *testing.T) {
	entries := []*Entry{
		{Amount: decimal.RequireFromString("100.50"), Status: types.BookingPaymentStatusCompleted},
		{Amount: decimal.RequireFromString("40"), Status: types.BookingPaymentStatusRefunded},
		{Amount: decimal.RequireFromString("25"), Status: types.BookingPaymentStatusFailed},
		{Amount: decimal.RequireFromString("9.50"), Status: types.BookingPaymentStatusCompleted},
	}

	assert.True(t, SumCompleted(entries).Equal(decimal.NewFromInt(110)))
	assert.True(t, SumCompleted(nil).IsZero())
}
