package persist

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pocketbank-dev/pocketbank/internal/model"
)

const (
	usersFile   = "users.json"
	sessionFile = "session.json"

	snapshotVersion = 1
)

// FileStore persists the account set and session id as two JSON files in a
// data directory. Writes go to a temp file first and land via rename, so a
// crash mid-write never corrupts the previous snapshot.
type FileStore struct {
	dir string
}

// NewFileStore creates a FileStore rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

type snapshotMeta struct {
	Storage string    `json:"storage"`
	Version int       `json:"version"`
	SavedAt time.Time `json:"saved_at"`
}

type transactionRecord struct {
	ID             string          `json:"id"`
	Kind           string          `json:"kind"`
	Amount         decimal.Decimal `json:"amount"`
	Description    string          `json:"description,omitempty"`
	CounterpartyID string          `json:"counterparty_id,omitempty"`
	Timestamp      time.Time       `json:"timestamp"`
}

type accountRecord struct {
	ID           string              `json:"id"`
	Username     string              `json:"username"`
	FullName     string              `json:"full_name"`
	PIN          string              `json:"pin"`
	Balance      decimal.Decimal     `json:"balance"`
	Transactions []transactionRecord `json:"transactions"`
	CreatedAt    time.Time           `json:"created_at"`
}

type usersSnapshot struct {
	Meta     snapshotMeta    `json:"_meta"`
	Accounts []accountRecord `json:"accounts"`
}

type sessionSnapshot struct {
	CurrentAccountID string `json:"current_account_id"`
}

// LoadAll reads the users snapshot. A missing file is an empty store, not
// an error: that is the first-run state.
func (f *FileStore) LoadAll() ([]model.Account, error) {
	var snap usersSnapshot
	ok, err := f.readJSON(usersFile, &snap)
	if err != nil || !ok {
		return nil, err
	}
	accounts := make([]model.Account, 0, len(snap.Accounts))
	for _, rec := range snap.Accounts {
		accounts = append(accounts, rec.toAccount())
	}
	return accounts, nil
}

// SaveAll replaces the users snapshot with the given full account set.
func (f *FileStore) SaveAll(accounts []model.Account) error {
	snap := usersSnapshot{
		Meta: snapshotMeta{
			Storage: "json_snapshot",
			Version: snapshotVersion,
			SavedAt: time.Now(),
		},
		Accounts: make([]accountRecord, 0, len(accounts)),
	}
	for _, a := range accounts {
		snap.Accounts = append(snap.Accounts, toRecord(a))
	}
	return f.writeJSON(usersFile, snap)
}

// LoadSessionID reads the persisted session id, "" when none.
func (f *FileStore) LoadSessionID() (string, error) {
	var snap sessionSnapshot
	ok, err := f.readJSON(sessionFile, &snap)
	if err != nil || !ok {
		return "", err
	}
	return snap.CurrentAccountID, nil
}

// SaveSessionID persists the session id; "" clears it.
func (f *FileStore) SaveSessionID(id string) error {
	return f.writeJSON(sessionFile, sessionSnapshot{CurrentAccountID: id})
}

func (f *FileStore) readJSON(name string, v any) (bool, error) {
	file, err := os.Open(filepath.Join(f.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("opening %s: %w", name, err)
	}
	defer file.Close()
	if err := json.NewDecoder(file).Decode(v); err != nil {
		return false, fmt.Errorf("decoding %s: %w", name, err)
	}
	return true, nil
}

func (f *FileStore) writeJSON(name string, v any) error {
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	path := filepath.Join(f.dir, name)
	tmp := path + ".tmp"

	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating %s: %w", name, err)
	}

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		file.Close()
		return fmt.Errorf("encoding %s: %w", name, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", name, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing %s: %w", name, err)
	}
	return nil
}

func toRecord(a model.Account) accountRecord {
	rec := accountRecord{
		ID:           a.ID,
		Username:     a.Username,
		FullName:     a.FullName,
		PIN:          a.PIN,
		Balance:      a.Balance,
		Transactions: make([]transactionRecord, 0, len(a.Transactions)),
		CreatedAt:    a.CreatedAt,
	}
	for _, t := range a.Transactions {
		rec.Transactions = append(rec.Transactions, transactionRecord{
			ID:             t.ID,
			Kind:           string(t.Kind),
			Amount:         t.Amount,
			Description:    t.Description,
			CounterpartyID: t.CounterpartyID,
			Timestamp:      t.Timestamp,
		})
	}
	return rec
}

func (rec accountRecord) toAccount() model.Account {
	a := model.Account{
		ID:           rec.ID,
		Username:     rec.Username,
		FullName:     rec.FullName,
		PIN:          rec.PIN,
		Balance:      rec.Balance,
		Transactions: make([]model.Transaction, 0, len(rec.Transactions)),
		CreatedAt:    rec.CreatedAt,
	}
	for _, t := range rec.Transactions {
		a.Transactions = append(a.Transactions, model.Transaction{
			ID:             t.ID,
			Kind:           model.TransactionKind(t.Kind),
			Amount:         t.Amount,
			Description:    t.Description,
			CounterpartyID: t.CounterpartyID,
			Timestamp:      t.Timestamp,
		})
	}
	return a
}
