package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParseOperationType(t *testing.T) {
	assert.Equal(t, TransactionTypeContribution, ParseOperationType("Versement libre complémentaire"))
	assert.Equal(t, TransactionTypeWithdrawal, ParseOperationType("Désinvestissement"))
	assert.Equal(t, TransactionTypeOther, ParseOperationType("Arbitrage"))
	assert.Equal(t, TransactionTypeOther, ParseOperationType(""))
}

func TestCountsAsInvested(t *testing.T) {
	assert.True(t, Transaction{Type: TransactionTypeContribution}.CountsAsInvested())
	assert.True(t, Transaction{Type: TransactionTypeWithdrawal}.CountsAsInvested())
	assert.False(t, Transaction{Type: TransactionTypeOther}.CountsAsInvested())
}

func TestEarliestDates(t *testing.T) {
	txns := []Transaction{
		{Security: "ABC", ValueDate: Day(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC))},
		{Security: "ABC", ValueDate: Day(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))},
		{Security: "XYZ", ValueDate: Day(time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC))},
		{Security: "", ValueDate: Day(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)), NetAmount: decimal.NewFromInt(10)},
	}

	earliest := EarliestDates(txns)

	assert.Len(t, earliest, 2)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), earliest["ABC"])
	assert.Equal(t, time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC), earliest["XYZ"])
}

func TestDayNormalizesToMidnightUTC(t *testing.T) {
	paris := time.FixedZone("CET", 3600)
	stamp := time.Date(2024, 1, 2, 18, 30, 45, 0, paris)

	day := Day(stamp)

	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), day)
	assert.Equal(t, "2024-01-02", day.Format(DateFormat))
}
