package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies a ledger operation for invested-capital accounting
type TransactionType string

const (
	// TransactionTypeContribution is cash paid into a security position
	TransactionTypeContribution TransactionType = "CONTRIBUTION"
	// TransactionTypeWithdrawal is cash taken out of a security position
	TransactionTypeWithdrawal TransactionType = "WITHDRAWAL"
	// TransactionTypeOther covers operations that move units or metadata
	// without counting towards invested capital (fees, conversions, ...)
	TransactionTypeOther TransactionType = "OTHER"
)

// Ledger operation labels as they appear in the source file.
const (
	operationContribution = "Versement libre complémentaire"
	operationWithdrawal   = "Désinvestissement"
)

// ParseOperationType maps a raw ledger operation label to a TransactionType.
// Unknown labels are not an error: they become TransactionTypeOther and are
// excluded from invested-capital sums only.
func ParseOperationType(label string) TransactionType {
	switch label {
	case operationContribution:
		return TransactionTypeContribution
	case operationWithdrawal:
		return TransactionTypeWithdrawal
	default:
		return TransactionTypeOther
	}
}

// Transaction represents a single normalized ledger row.
// Immutable once loaded; re-read from the ledger file on every pipeline run.
type Transaction struct {
	Security  string
	ValueDate time.Time // calendar date, midnight UTC
	Type      TransactionType
	Units     decimal.NullDecimal // units delta, absent for cash-only rows
	NetAmount decimal.Decimal     // signed net cash amount in base currency
}

// CountsAsInvested reports whether the transaction's net amount contributes
// to cumulative cash invested.
func (t Transaction) CountsAsInvested() bool {
	return t.Type == TransactionTypeContribution || t.Type == TransactionTypeWithdrawal
}

// EarliestDates returns, per security, the minimum value date across all its
// transactions. Securities with an empty identifier are ignored.
func EarliestDates(txns []Transaction) map[string]time.Time {
	earliest := make(map[string]time.Time)
	for _, txn := range txns {
		if txn.Security == "" {
			continue
		}
		if first, ok := earliest[txn.Security]; !ok || txn.ValueDate.Before(first) {
			earliest[txn.Security] = txn.ValueDate
		}
	}
	return earliest
}
