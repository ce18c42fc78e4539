package ledger

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pocketbank-dev/pocketbank/internal/model"
	"github.com/pocketbank-dev/pocketbank/internal/store"
)

// memAdapter is an in-memory persistence adapter for tests.
type memAdapter struct {
	accounts []model.Account
	session  string
	failSave bool
	saves    int
}

func (m *memAdapter) LoadAll() ([]model.Account, error) { return m.accounts, nil }

func (m *memAdapter) SaveAll(accounts []model.Account) error {
	if m.failSave {
		return errors.New("disk full")
	}
	m.accounts = accounts
	m.saves++
	return nil
}

func (m *memAdapter) LoadSessionID() (string, error) { return m.session, nil }

func (m *memAdapter) SaveSessionID(id string) error {
	m.session = id
	return nil
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func testAccount(id, username, balance string) model.Account {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	a := model.Account{
		ID:        id,
		Username:  username,
		FullName:  "Test " + username,
		PIN:       "1234",
		Balance:   dec(balance),
		CreatedAt: created,
	}
	if !a.Balance.IsZero() {
		a.Transactions = []model.Transaction{{
			ID:          id + "-seed",
			Kind:        model.KindDeposit,
			Amount:      a.Balance,
			Description: "Initial deposit",
			Timestamp:   created,
		}}
	}
	return a
}

func newTestService(t *testing.T, accounts ...model.Account) (*Service, *memAdapter) {
	t.Helper()
	st, err := store.Load(accounts)
	require.NoError(t, err)

	ad := &memAdapter{accounts: accounts}
	n := 0
	svc := New(st, ad, slog.New(slog.NewTextHandler(io.Discard, nil)), Options{
		Now: func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) },
		NewID: func() string {
			n++
			return fmt.Sprintf("id-%03d", n)
		},
	})
	return svc, ad
}

// requireConsistent checks the core invariant: balance equals the signed
// sum of the transaction list, and never goes negative.
func requireConsistent(t *testing.T, svc *Service, accountID string) {
	t.Helper()
	acct, err := svc.Account(accountID)
	require.NoError(t, err)
	assert.True(t, acct.LedgerBalance().Equal(acct.Balance),
		"balance %s != ledger sum %s", acct.Balance, acct.LedgerBalance())
	assert.False(t, acct.Balance.IsNegative(), "balance went negative: %s", acct.Balance)
}

func TestRegister(t *testing.T) {
	svc, ad := newTestService(t)

	acct, err := svc.Register(RegisterParams{
		Username:   "alice",
		FullName:   "Alice A",
		PIN:        "1234",
		ConfirmPIN: "1234",
	})
	require.NoError(t, err)

	assert.True(t, acct.Balance.Equal(dec("100")))
	require.Len(t, acct.Transactions, 1)
	assert.Equal(t, model.KindDeposit, acct.Transactions[0].Kind)
	assert.True(t, acct.Transactions[0].Amount.Equal(dec("100")))
	assert.Equal(t, "Welcome bonus", acct.Transactions[0].Description)

	// Registering signs the account in and persists the store.
	assert.Equal(t, acct.ID, ad.session)
	require.Len(t, ad.accounts, 1)
	requireConsistent(t, svc, acct.ID)
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name   string
		params RegisterParams
	}{
		{"empty username", RegisterParams{FullName: "A", PIN: "1234", ConfirmPIN: "1234"}},
		{"empty full name", RegisterParams{Username: "a", PIN: "1234", ConfirmPIN: "1234"}},
		{"empty pin", RegisterParams{Username: "a", FullName: "A", ConfirmPIN: "1234"}},
		{"pin mismatch", RegisterParams{Username: "a", FullName: "A", PIN: "1234", ConfirmPIN: "4321"}},
		{"pin too short", RegisterParams{Username: "a", FullName: "A", PIN: "123", ConfirmPIN: "123"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, ad := newTestService(t)
			_, err := svc.Register(tt.params)
			assert.ErrorIs(t, err, model.ErrValidation)
			assert.Empty(t, ad.accounts, "nothing may be persisted")
			assert.Empty(t, ad.session)
		})
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Register(RegisterParams{Username: "alice", FullName: "Alice A", PIN: "1234", ConfirmPIN: "1234"})
	require.NoError(t, err)

	_, err = svc.Register(RegisterParams{Username: "alice", FullName: "Other Alice", PIN: "9999", ConfirmPIN: "9999"})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrConflict)

	// Exactly one alice in the store.
	acct, err := svc.Authenticate("alice", "1234")
	require.NoError(t, err)
	assert.Equal(t, "Alice A", acct.FullName)
}

func TestAuthenticate(t *testing.T) {
	svc, ad := newTestService(t, testAccount("a1", "alice", "100"))

	acct, err := svc.Authenticate("alice", "1234")
	require.NoError(t, err)
	assert.Equal(t, "a1", acct.ID)
	assert.Equal(t, "a1", ad.session)

	// Wrong PIN and unknown username fail the same way.
	_, errPin := svc.Authenticate("alice", "0000")
	_, errUser := svc.Authenticate("nobody", "1234")
	assert.ErrorIs(t, errPin, model.ErrAuthentication)
	assert.ErrorIs(t, errUser, model.ErrAuthentication)
	assert.Equal(t, errPin.Error(), errUser.Error(), "must not leak which check failed")
}

func TestAuthenticate_DoesNotMutate(t *testing.T) {
	svc, ad := newTestService(t, testAccount("a1", "alice", "100"))
	saves := ad.saves

	_, err := svc.Authenticate("alice", "1234")
	require.NoError(t, err)

	acct, err := svc.Account("a1")
	require.NoError(t, err)
	assert.True(t, acct.Balance.Equal(dec("100")))
	assert.Len(t, acct.Transactions, 1)
	assert.Equal(t, saves, ad.saves, "login must not rewrite the account snapshot")
}

func TestLogoutIdempotent(t *testing.T) {
	svc, ad := newTestService(t, testAccount("a1", "alice", "100"))

	_, err := svc.Authenticate("alice", "1234")
	require.NoError(t, err)
	require.Equal(t, "a1", ad.session)

	require.NoError(t, svc.Logout())
	assert.Empty(t, ad.session)

	// Logging out twice yields the same state as once.
	require.NoError(t, svc.Logout())
	assert.Empty(t, ad.session)
}

func TestCurrent(t *testing.T) {
	svc, ad := newTestService(t, testAccount("a1", "alice", "100"))

	_, err := svc.Current()
	assert.ErrorIs(t, err, model.ErrNotFound)

	ad.session = "a1"
	acct, err := svc.Current()
	require.NoError(t, err)
	assert.Equal(t, "alice", acct.Username)
}

func TestDeposit(t *testing.T) {
	svc, ad := newTestService(t, testAccount("a1", "alice", "100"))

	tx, err := svc.Deposit("a1", dec("50"), "")
	require.NoError(t, err)
	assert.Equal(t, model.KindDeposit, tx.Kind)
	assert.Equal(t, "Deposit", tx.Description)

	acct, err := svc.Account("a1")
	require.NoError(t, err)
	assert.True(t, acct.Balance.Equal(dec("150")))
	assert.Equal(t, tx.ID, acct.Transactions[0].ID, "newest transaction comes first")
	requireConsistent(t, svc, "a1")

	// The committed state was persisted.
	require.Len(t, ad.accounts, 1)
	assert.True(t, ad.accounts[0].Balance.Equal(dec("150")))
}

func TestDeposit_Failures(t *testing.T) {
	svc, _ := newTestService(t, testAccount("a1", "alice", "100"))

	_, err := svc.Deposit("a1", dec("0"), "")
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = svc.Deposit("a1", dec("-5"), "")
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = svc.Deposit("ghost", dec("5"), "")
	assert.ErrorIs(t, err, model.ErrNotFound)

	acct, err := svc.Account("a1")
	require.NoError(t, err)
	assert.True(t, acct.Balance.Equal(dec("100")))
	assert.Len(t, acct.Transactions, 1)
}

func TestWithdraw(t *testing.T) {
	svc, _ := newTestService(t, testAccount("a1", "alice", "150"))

	tx, err := svc.Withdraw("a1", dec("40"), "")
	require.NoError(t, err)
	assert.Equal(t, model.KindWithdrawal, tx.Kind)
	assert.Equal(t, "Withdrawal", tx.Description)
	assert.True(t, tx.Signed().Equal(dec("-40")))

	acct, err := svc.Account("a1")
	require.NoError(t, err)
	assert.True(t, acct.Balance.Equal(dec("110")))
	requireConsistent(t, svc, "a1")
}

func TestWithdraw_InsufficientFunds(t *testing.T) {
	svc, _ := newTestService(t, testAccount("a1", "alice", "150"))

	_, err := svc.Withdraw("a1", dec("500"), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInsufficientFunds)

	acct, err := svc.Account("a1")
	require.NoError(t, err)
	assert.True(t, acct.Balance.Equal(dec("150")), "balance must be unchanged")
	assert.Len(t, acct.Transactions, 1)
}

func TestWithdraw_ExactBalance(t *testing.T) {
	svc, _ := newTestService(t, testAccount("a1", "alice", "150"))

	_, err := svc.Withdraw("a1", dec("150"), "")
	require.NoError(t, err)

	acct, err := svc.Account("a1")
	require.NoError(t, err)
	assert.True(t, acct.Balance.IsZero())
	requireConsistent(t, svc, "a1")
}

func TestTransfer(t *testing.T) {
	svc, _ := newTestService(t,
		testAccount("a1", "alice", "150"),
		testAccount("b1", "bob", "0"),
	)

	out, in, err := svc.Transfer("a1", "bob", dec("100"))
	require.NoError(t, err)

	assert.Equal(t, model.KindTransferOut, out.Kind)
	assert.Equal(t, model.KindTransferIn, in.Kind)
	assert.Equal(t, "Transfer to bob", out.Description)
	assert.Equal(t, "Transfer from alice", in.Description)
	assert.Equal(t, "b1", out.CounterpartyID)
	assert.Equal(t, "a1", in.CounterpartyID)
	assert.NotEqual(t, out.ID, in.ID)
	assert.True(t, out.Timestamp.Equal(in.Timestamp), "both sides share one instant")

	alice, err := svc.Account("a1")
	require.NoError(t, err)
	bob, err := svc.Account("b1")
	require.NoError(t, err)
	assert.True(t, alice.Balance.Equal(dec("50")))
	assert.True(t, bob.Balance.Equal(dec("100")))
	assert.Equal(t, out.ID, alice.Transactions[0].ID)
	assert.Equal(t, in.ID, bob.Transactions[0].ID)

	// Money moved, none created or destroyed.
	total := alice.Balance.Add(bob.Balance)
	assert.True(t, total.Equal(dec("150")))
	requireConsistent(t, svc, "a1")
	requireConsistent(t, svc, "b1")
}

func TestTransfer_Failures(t *testing.T) {
	svc, _ := newTestService(t,
		testAccount("a1", "alice", "150"),
		testAccount("b1", "bob", "20"),
	)

	_, _, err := svc.Transfer("a1", "bob", dec("0"))
	assert.ErrorIs(t, err, model.ErrValidation)

	_, _, err = svc.Transfer("a1", "bob", dec("500"))
	assert.ErrorIs(t, err, model.ErrInsufficientFunds)

	_, _, err = svc.Transfer("a1", "alice", dec("10"))
	assert.ErrorIs(t, err, model.ErrSelfTransfer)

	_, _, err = svc.Transfer("a1", "nobody", dec("10"))
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, _, err = svc.Transfer("ghost", "bob", dec("10"))
	assert.ErrorIs(t, err, model.ErrNotFound)

	// No failure may have touched either side.
	alice, err := svc.Account("a1")
	require.NoError(t, err)
	bob, err := svc.Account("b1")
	require.NoError(t, err)
	assert.True(t, alice.Balance.Equal(dec("150")))
	assert.True(t, bob.Balance.Equal(dec("20")))
	assert.Len(t, alice.Transactions, 1)
	assert.Len(t, bob.Transactions, 1)
}

func TestPersistenceFailureRollsBack(t *testing.T) {
	svc, ad := newTestService(t,
		testAccount("a1", "alice", "150"),
		testAccount("b1", "bob", "0"),
	)
	ad.failSave = true

	_, err := svc.Deposit("a1", dec("50"), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrPersistence)

	_, _, err = svc.Transfer("a1", "bob", dec("100"))
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrPersistence)

	// The in-memory store never saw the failed operations.
	alice, err := svc.Account("a1")
	require.NoError(t, err)
	bob, err := svc.Account("b1")
	require.NoError(t, err)
	assert.True(t, alice.Balance.Equal(dec("150")))
	assert.True(t, bob.Balance.IsZero())
	assert.Len(t, alice.Transactions, 1)
	assert.Empty(t, bob.Transactions)
}

func TestHistory(t *testing.T) {
	svc, _ := newTestService(t,
		testAccount("a1", "alice", "150"),
		testAccount("b1", "bob", "0"),
	)

	_, err := svc.Deposit("a1", dec("10"), "")
	require.NoError(t, err)
	_, err = svc.Withdraw("a1", dec("5"), "")
	require.NoError(t, err)
	_, _, err = svc.Transfer("a1", "bob", dec("20"))
	require.NoError(t, err)

	all, err := svc.History("a1", "")
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, model.KindTransferOut, all[0].Kind, "newest first")

	deposits, err := svc.History("a1", model.KindDeposit)
	require.NoError(t, err)
	assert.Len(t, deposits, 2)

	_, err = svc.History("ghost", "")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestOpenSeedsDemoAccount(t *testing.T) {
	ad := &memAdapter{}
	svc, err := Open(ad, slog.New(slog.NewTextHandler(io.Discard, nil)), Options{})
	require.NoError(t, err)

	acct, err := svc.Authenticate("demo", "1234")
	require.NoError(t, err)
	assert.Equal(t, "demo1", acct.ID)
	assert.Equal(t, "Demo User", acct.FullName)
	assert.True(t, acct.Balance.Equal(dec("1000")))
	require.Len(t, acct.Transactions, 1)
	assert.Equal(t, "Initial deposit", acct.Transactions[0].Description)
	requireConsistent(t, svc, "demo1")

	// The seed was persisted on first run.
	require.Len(t, ad.accounts, 1)
}

func TestOpenDoesNotReseed(t *testing.T) {
	ad := &memAdapter{accounts: []model.Account{testAccount("a1", "alice", "42")}}
	svc, err := Open(ad, slog.New(slog.NewTextHandler(io.Discard, nil)), Options{})
	require.NoError(t, err)

	_, err = svc.Account("demo1")
	assert.ErrorIs(t, err, model.ErrNotFound)

	acct, err := svc.Account("a1")
	require.NoError(t, err)
	assert.True(t, acct.Balance.Equal(dec("42")))
}

func TestConcurrentWithdrawalsCannotOverdraw(t *testing.T) {
	svc, _ := newTestService(t, testAccount("a1", "alice", "100"))

	done := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := svc.Withdraw("a1", dec("60"), "")
			done <- err
		}()
	}

	var failures int
	for i := 0; i < 2; i++ {
		if err := <-done; err != nil {
			assert.ErrorIs(t, err, model.ErrInsufficientFunds)
			failures++
		}
	}

	assert.Equal(t, 1, failures, "exactly one withdrawal may pass the funds check")
	acct, err := svc.Account("a1")
	require.NoError(t, err)
	assert.True(t, acct.Balance.Equal(dec("40")))
	requireConsistent(t, svc, "a1")
}
