// Package persist implements storage adapters for the account set and the
// current session id. The ledger engine only sees the Adapter contract;
// the medium behind it (JSON snapshot file, postgres) is replaceable.
package persist

import "github.com/pocketbank-dev/pocketbank/internal/model"

// Adapter loads and saves the full account set plus the current session
// account id. SaveAll replaces persisted state wholesale; partial writes
// must never become visible to a later LoadAll.
type Adapter interface {
	LoadAll() ([]model.Account, error)
	SaveAll(accounts []model.Account) error

	// LoadSessionID returns the persisted current account id, or "" when
	// nobody is signed in.
	LoadSessionID() (string, error)
	// SaveSessionID persists the current account id; "" clears it.
	SaveSessionID(id string) error
}
