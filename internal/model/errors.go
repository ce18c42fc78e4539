package model

import "errors"

// Domain errors returned by the ledger engine and the account store.
// Callers classify failures with errors.Is; call sites wrap these with
// fmt.Errorf("%w: ...") to add context.
var (
	// ErrValidation covers malformed or non-positive input.
	ErrValidation = errors.New("validation failed")

	// ErrConflict covers uniqueness violations (duplicate username or id).
	ErrConflict = errors.New("conflict")

	// ErrAuthentication covers credential mismatches. It never says whether
	// the username or the PIN was wrong.
	ErrAuthentication = errors.New("invalid username or PIN")

	// ErrNotFound covers unresolvable account ids and usernames.
	ErrNotFound = errors.New("account not found")

	// ErrInsufficientFunds covers amounts exceeding the available balance.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrSelfTransfer covers transfers where sender and recipient are the
	// same account.
	ErrSelfTransfer = errors.New("cannot transfer to yourself")

	// ErrPersistence covers storage I/O failures. An operation that fails
	// with it has no in-memory effect.
	ErrPersistence = errors.New("persistence failed")
)
