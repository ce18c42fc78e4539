package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind classifies ledger records.
type TransactionKind string

const (
	KindDeposit     TransactionKind = "deposit"
	KindWithdrawal  TransactionKind = "withdrawal"
	KindTransferOut TransactionKind = "transfer-out"
	KindTransferIn  TransactionKind = "transfer-in"
)

// Valid reports whether k is one of the four known kinds.
func (k TransactionKind) Valid() bool {
	switch k {
	case KindDeposit, KindWithdrawal, KindTransferOut, KindTransferIn:
		return true
	}
	return false
}

// Transaction is an immutable record of a single balance-affecting event.
// Amount is always positive; the kind carries the direction.
type Transaction struct {
	ID             string
	Kind           TransactionKind
	Amount         decimal.Decimal
	Description    string
	CounterpartyID string // set only on transfer-out/transfer-in records
	Timestamp      time.Time
}

// Signed returns the amount with the sign the kind contributes to a balance:
// deposits and transfer-in add, withdrawals and transfer-out subtract.
func (t Transaction) Signed() decimal.Decimal {
	switch t.Kind {
	case KindWithdrawal, KindTransferOut:
		return t.Amount.Neg()
	default:
		return t.Amount
	}
}
