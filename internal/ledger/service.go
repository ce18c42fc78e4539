// Package ledger implements the account ledger operations: register,
// authenticate, deposit, withdraw and transfer. Every mutating operation
// either commits balance and transaction-list changes for all touched
// accounts together, or leaves the store untouched.
package ledger

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pocketbank-dev/pocketbank/internal/model"
	"github.com/pocketbank-dev/pocketbank/internal/persist"
	"github.com/pocketbank-dev/pocketbank/internal/store"
)

// DefaultMinPINLength is the shortest PIN Register accepts.
const DefaultMinPINLength = 4

// Service executes ledger operations against an account store and commits
// results through a persistence adapter. One mutex serializes mutating
// operations, so check-then-commit sequences (uniqueness, sufficient
// funds, two-sided transfers) are atomic against concurrent callers.
//
// The snapshot is saved before the in-memory commit: if the adapter
// fails, the operation fails whole and the store is untouched.
type Service struct {
	mu      sync.Mutex
	store   *store.Store
	adapter persist.Adapter
	log     *slog.Logger

	bonus  decimal.Decimal
	minPIN int
	now    func() time.Time
	newID  func() string
}

// Options tunes a Service. Zero values fall back to defaults.
type Options struct {
	WelcomeBonus decimal.Decimal // starting balance for new accounts, default 100
	MinPINLength int             // default DefaultMinPINLength
	Now          func() time.Time
	NewID        func() string
}

// New creates a Service over the given store and adapter.
func New(st *store.Store, adapter persist.Adapter, logger *slog.Logger, opts Options) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		store:   st,
		adapter: adapter,
		log:     logger,
		bonus:   opts.WelcomeBonus,
		minPIN:  opts.MinPINLength,
		now:     opts.Now,
		newID:   opts.NewID,
	}
	if s.bonus.IsZero() {
		s.bonus = decimal.NewFromInt(100)
	}
	if s.minPIN == 0 {
		s.minPIN = DefaultMinPINLength
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	return s
}

// Open loads the account set from the adapter, seeding the demo account on
// first run, and returns a ready Service.
func Open(adapter persist.Adapter, logger *slog.Logger, opts Options) (*Service, error) {
	accounts, err := adapter.LoadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: loading accounts: %v", model.ErrPersistence, err)
	}
	if len(accounts) == 0 {
		accounts = persist.Seed(time.Now())
		if err := adapter.SaveAll(accounts); err != nil {
			return nil, fmt.Errorf("%w: seeding accounts: %v", model.ErrPersistence, err)
		}
	}
	st, err := store.Load(accounts)
	if err != nil {
		return nil, err
	}
	return New(st, adapter, logger, opts), nil
}

// RegisterParams holds the inputs to Register.
type RegisterParams struct {
	Username   string
	FullName   string
	PIN        string
	ConfirmPIN string
}

// Register creates a new account with the welcome bonus as its starting
// balance and first transaction, and signs it in.
func (s *Service) Register(p RegisterParams) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.Username == "" || p.FullName == "" || p.PIN == "" {
		return model.Account{}, fmt.Errorf("%w: all fields are required", model.ErrValidation)
	}
	if p.PIN != p.ConfirmPIN {
		return model.Account{}, fmt.Errorf("%w: PINs do not match", model.ErrValidation)
	}
	if len(p.PIN) < s.minPIN {
		return model.Account{}, fmt.Errorf("%w: PIN must be at least %d digits", model.ErrValidation, s.minPIN)
	}
	if _, exists := s.store.FindByUsername(p.Username); exists {
		return model.Account{}, fmt.Errorf("%w: username %q already exists", model.ErrConflict, p.Username)
	}

	now := s.now()
	acct := model.Account{
		ID:       s.newID(),
		Username: p.Username,
		FullName: p.FullName,
		PIN:      p.PIN,
		Balance:  s.bonus,
		Transactions: []model.Transaction{
			{
				ID:          s.newID(),
				Kind:        model.KindDeposit,
				Amount:      s.bonus,
				Description: "Welcome bonus",
				Timestamp:   now,
			},
		},
		CreatedAt: now,
	}

	if err := s.saveSnapshot(acct); err != nil {
		return model.Account{}, err
	}
	if err := s.store.Insert(acct); err != nil {
		return model.Account{}, err
	}
	if err := s.adapter.SaveSessionID(acct.ID); err != nil {
		return model.Account{}, fmt.Errorf("%w: saving session: %v", model.ErrPersistence, err)
	}

	s.log.Info("account registered", "account", acct.ID, "username", acct.Username)
	return acct, nil
}

// Authenticate checks the username/PIN pair by plain equality and signs
// the matching account in. The credential check is deliberately not a
// security mechanism; the failure never says which of the two was wrong.
func (s *Service) Authenticate(username, pin string) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.store.FindByUsername(username)
	if !ok || acct.PIN != pin {
		return model.Account{}, model.ErrAuthentication
	}
	if err := s.adapter.SaveSessionID(acct.ID); err != nil {
		return model.Account{}, fmt.Errorf("%w: saving session: %v", model.ErrPersistence, err)
	}

	s.log.Info("signed in", "account", acct.ID, "username", acct.Username)
	return acct, nil
}

// Logout clears the current session. Idempotent: clearing an already
// empty session is not an error.
func (s *Service) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.adapter.SaveSessionID(""); err != nil {
		return fmt.Errorf("%w: clearing session: %v", model.ErrPersistence, err)
	}
	return nil
}

// Current resolves the persisted session to an account.
func (s *Service) Current() (model.Account, error) {
	id, err := s.adapter.LoadSessionID()
	if err != nil {
		return model.Account{}, fmt.Errorf("%w: loading session: %v", model.ErrPersistence, err)
	}
	if id == "" {
		return model.Account{}, fmt.Errorf("%w: nobody is signed in", model.ErrNotFound)
	}
	return s.Account(id)
}

// Account returns a copy of the account with the given id.
func (s *Service) Account(id string) (model.Account, error) {
	acct, ok := s.store.FindByID(id)
	if !ok {
		return model.Account{}, fmt.Errorf("%w: id %s", model.ErrNotFound, id)
	}
	return acct, nil
}

// Deposit increases the account balance by amount and records a deposit
// transaction. An empty description defaults to "Deposit".
func (s *Service) Deposit(accountID string, amount decimal.Decimal, description string) (model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := validateAmount(amount); err != nil {
		return model.Transaction{}, err
	}
	acct, ok := s.store.FindByID(accountID)
	if !ok {
		return model.Transaction{}, fmt.Errorf("%w: id %s", model.ErrNotFound, accountID)
	}
	if description == "" {
		description = "Deposit"
	}

	tx := model.Transaction{
		ID:          s.newID(),
		Kind:        model.KindDeposit,
		Amount:      amount,
		Description: description,
		Timestamp:   s.now(),
	}
	acct.Balance = acct.Balance.Add(amount)
	acct.Transactions = prepend(acct.Transactions, tx)

	if err := s.commit(acct); err != nil {
		return model.Transaction{}, err
	}

	s.log.Info("deposit committed", "account", acct.ID, "amount", amount.StringFixed(2), "transaction", tx.ID)
	return tx, nil
}

// Withdraw decreases the account balance by amount and records a
// withdrawal transaction. The balance never goes negative.
func (s *Service) Withdraw(accountID string, amount decimal.Decimal, description string) (model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := validateAmount(amount); err != nil {
		return model.Transaction{}, err
	}
	acct, ok := s.store.FindByID(accountID)
	if !ok {
		return model.Transaction{}, fmt.Errorf("%w: id %s", model.ErrNotFound, accountID)
	}
	if amount.GreaterThan(acct.Balance) {
		return model.Transaction{}, fmt.Errorf("%w: balance is %s", model.ErrInsufficientFunds, acct.Balance.StringFixed(2))
	}
	if description == "" {
		description = "Withdrawal"
	}

	tx := model.Transaction{
		ID:          s.newID(),
		Kind:        model.KindWithdrawal,
		Amount:      amount,
		Description: description,
		Timestamp:   s.now(),
	}
	acct.Balance = acct.Balance.Sub(amount)
	acct.Transactions = prepend(acct.Transactions, tx)

	if err := s.commit(acct); err != nil {
		return model.Transaction{}, err
	}

	s.log.Info("withdrawal committed", "account", acct.ID, "amount", amount.StringFixed(2), "transaction", tx.ID)
	return tx, nil
}

// Transfer moves amount from the sender to the account owning
// recipientUsername, recording a transfer-out on the sender and a
// transfer-in on the recipient. Both sides share one timestamp and commit
// as a single unit; no caller ever observes one side applied without the
// other.
func (s *Service) Transfer(senderID, recipientUsername string, amount decimal.Decimal) (out, in model.Transaction, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := validateAmount(amount); err != nil {
		return model.Transaction{}, model.Transaction{}, err
	}
	sender, ok := s.store.FindByID(senderID)
	if !ok {
		return model.Transaction{}, model.Transaction{}, fmt.Errorf("%w: id %s", model.ErrNotFound, senderID)
	}
	if amount.GreaterThan(sender.Balance) {
		return model.Transaction{}, model.Transaction{}, fmt.Errorf("%w: balance is %s", model.ErrInsufficientFunds, sender.Balance.StringFixed(2))
	}
	if recipientUsername == sender.Username {
		return model.Transaction{}, model.Transaction{}, model.ErrSelfTransfer
	}
	recipient, ok := s.store.FindByUsername(recipientUsername)
	if !ok {
		return model.Transaction{}, model.Transaction{}, fmt.Errorf("%w: recipient %q", model.ErrNotFound, recipientUsername)
	}

	now := s.now()
	out = model.Transaction{
		ID:             s.newID(),
		Kind:           model.KindTransferOut,
		Amount:         amount,
		Description:    "Transfer to " + recipient.Username,
		CounterpartyID: recipient.ID,
		Timestamp:      now,
	}
	in = model.Transaction{
		ID:             s.newID(),
		Kind:           model.KindTransferIn,
		Amount:         amount,
		Description:    "Transfer from " + sender.Username,
		CounterpartyID: sender.ID,
		Timestamp:      now,
	}

	sender.Balance = sender.Balance.Sub(amount)
	sender.Transactions = prepend(sender.Transactions, out)
	recipient.Balance = recipient.Balance.Add(amount)
	recipient.Transactions = prepend(recipient.Transactions, in)

	if err := s.commit(sender, recipient); err != nil {
		return model.Transaction{}, model.Transaction{}, err
	}

	s.log.Info("transfer committed",
		"sender", sender.ID,
		"recipient", recipient.ID,
		"amount", amount.StringFixed(2),
		"transaction_out", out.ID,
		"transaction_in", in.ID,
	)
	return out, in, nil
}

// History returns the account's transactions, newest first, optionally
// filtered by kind ("" means all).
func (s *Service) History(accountID string, kind model.TransactionKind) ([]model.Transaction, error) {
	acct, err := s.Account(accountID)
	if err != nil {
		return nil, err
	}
	if kind == "" {
		return acct.Transactions, nil
	}
	var out []model.Transaction
	for _, t := range acct.Transactions {
		if t.Kind == kind {
			out = append(out, t)
		}
	}
	return out, nil
}

// commit saves the projected snapshot first, then applies the updates to
// the store. A failed save leaves the in-memory state untouched, so the
// caller never sees a "maybe succeeded" result.
func (s *Service) commit(updated ...model.Account) error {
	if err := s.saveSnapshot(updated...); err != nil {
		return err
	}
	return s.store.ReplaceMany(updated)
}

// saveSnapshot writes the full account set with the given updates applied
// (replacements by id, additions appended).
func (s *Service) saveSnapshot(updated ...model.Account) error {
	pending := make(map[string]model.Account, len(updated))
	for _, a := range updated {
		pending[a.ID] = a
	}

	all := s.store.All()
	for i, a := range all {
		if u, ok := pending[a.ID]; ok {
			all[i] = u
			delete(pending, a.ID)
		}
	}
	for _, a := range updated {
		if _, isNew := pending[a.ID]; isNew {
			all = append(all, a)
		}
	}

	if err := s.adapter.SaveAll(all); err != nil {
		s.log.Error("snapshot save failed", "error", err)
		return fmt.Errorf("%w: %v", model.ErrPersistence, err)
	}
	return nil
}

func validateAmount(amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return fmt.Errorf("%w: amount must be greater than zero", model.ErrValidation)
	}
	return nil
}

func prepend(txs []model.Transaction, tx model.Transaction) []model.Transaction {
	return append([]model.Transaction{tx}, txs...)
}
