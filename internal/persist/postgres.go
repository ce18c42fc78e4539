package persist

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	// Registers the postgres driver with database/sql.
	_ "github.com/lib/pq"

	"github.com/pocketbank-dev/pocketbank/internal/model"
)

// PostgresStore is an Adapter backed by postgres. Snapshots land in three
// tables; SaveAll replaces them inside one SQL transaction, so a reader
// never observes a half-written account set.
type PostgresStore struct {
	db *sql.DB
}

// OpenPostgres connects to postgres, verifies the connection and ensures
// the schema exists.
func OpenPostgres(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	s := &PostgresStore{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id         TEXT PRIMARY KEY,
			username   TEXT NOT NULL UNIQUE,
			full_name  TEXT NOT NULL,
			pin        TEXT NOT NULL,
			balance    NUMERIC(20,2) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			account_id      TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
			position        INT NOT NULL,
			id              TEXT NOT NULL,
			kind            TEXT NOT NULL,
			amount          NUMERIC(20,2) NOT NULL,
			description     TEXT NOT NULL DEFAULT '',
			counterparty_id TEXT NOT NULL DEFAULT '',
			created_at      TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (account_id, position)
		)`,
		`CREATE TABLE IF NOT EXISTS session (
			singleton  BOOL PRIMARY KEY DEFAULT TRUE CHECK (singleton),
			account_id TEXT NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("ensuring schema: %w", err)
		}
	}
	return nil
}

// LoadAll reads every account with its transactions, newest first by the
// stored position.
func (s *PostgresStore) LoadAll() ([]model.Account, error) {
	rows, err := s.db.Query(`
		SELECT id, username, full_name, pin, balance, created_at
		FROM accounts
		ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("querying accounts: %w", err)
	}
	defer rows.Close()

	var accounts []model.Account
	for rows.Next() {
		var a model.Account
		var balance string
		if err := rows.Scan(&a.ID, &a.Username, &a.FullName, &a.PIN, &balance, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning account: %w", err)
		}
		if a.Balance, err = decimal.NewFromString(balance); err != nil {
			return nil, fmt.Errorf("parsing balance %q: %w", balance, err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading accounts: %w", err)
	}

	for i := range accounts {
		txs, err := s.loadTransactions(accounts[i].ID)
		if err != nil {
			return nil, err
		}
		accounts[i].Transactions = txs
	}
	return accounts, nil
}

func (s *PostgresStore) loadTransactions(accountID string) ([]model.Transaction, error) {
	rows, err := s.db.Query(`
		SELECT id, kind, amount, description, counterparty_id, created_at
		FROM transactions
		WHERE account_id = $1
		ORDER BY position`, accountID)
	if err != nil {
		return nil, fmt.Errorf("querying transactions for %s: %w", accountID, err)
	}
	defer rows.Close()

	var txs []model.Transaction
	for rows.Next() {
		var t model.Transaction
		var kind, amount string
		if err := rows.Scan(&t.ID, &kind, &amount, &t.Description, &t.CounterpartyID, &t.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}
		t.Kind = model.TransactionKind(kind)
		if t.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parsing amount %q: %w", amount, err)
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

// SaveAll replaces the persisted account set in one transaction.
func (s *PostgresStore) SaveAll(accounts []model.Account) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM transactions`); err != nil {
		return fmt.Errorf("clearing transactions: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM accounts`); err != nil {
		return fmt.Errorf("clearing accounts: %w", err)
	}

	for _, a := range accounts {
		if _, err := tx.Exec(`
			INSERT INTO accounts (id, username, full_name, pin, balance, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			a.ID, a.Username, a.FullName, a.PIN, a.Balance.StringFixed(2), a.CreatedAt,
		); err != nil {
			return fmt.Errorf("inserting account %s: %w", a.ID, err)
		}
		for pos, t := range a.Transactions {
			if _, err := tx.Exec(`
				INSERT INTO transactions (account_id, position, id, kind, amount, description, counterparty_id, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				a.ID, pos, t.ID, string(t.Kind), t.Amount.StringFixed(2), t.Description, t.CounterpartyID, t.Timestamp,
			); err != nil {
				return fmt.Errorf("inserting transaction %s: %w", t.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing save: %w", err)
	}
	return nil
}

// LoadSessionID reads the persisted session id, "" when none.
func (s *PostgresStore) LoadSessionID() (string, error) {
	var id string
	err := s.db.QueryRow(`SELECT account_id FROM session`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading session: %w", err)
	}
	return id, nil
}

// SaveSessionID persists the session id; "" clears it.
func (s *PostgresStore) SaveSessionID(id string) error {
	if id == "" {
		if _, err := s.db.Exec(`DELETE FROM session`); err != nil {
			return fmt.Errorf("clearing session: %w", err)
		}
		return nil
	}
	if _, err := s.db.Exec(`
		INSERT INTO session (singleton, account_id) VALUES (TRUE, $1)
		ON CONFLICT (singleton) DO UPDATE SET account_id = EXCLUDED.account_id`, id,
	); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}
