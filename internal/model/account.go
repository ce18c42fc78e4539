package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is one user's identity, balance, and transaction history.
type Account struct {
	ID           string
	Username     string // unique across all accounts, case-sensitive, immutable
	FullName     string
	PIN          string // compared by plain equality; this is a demo, not a security boundary
	Balance      decimal.Decimal
	Transactions []Transaction // newest first
	CreatedAt    time.Time
}

// Clone returns a deep copy, so callers can mutate it without touching
// the store's authoritative state.
func (a Account) Clone() Account {
	cp := a
	cp.Transactions = append([]Transaction(nil), a.Transactions...)
	return cp
}

// LedgerBalance sums the signed amounts of all transactions. For a
// consistent account it equals Balance.
func (a Account) LedgerBalance() decimal.Decimal {
	total := decimal.Zero
	for _, t := range a.Transactions {
		total = total.Add(t.Signed())
	}
	return total
}
