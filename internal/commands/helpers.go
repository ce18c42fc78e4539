package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/pocketbank-dev/pocketbank/internal/auditlog"
	"github.com/pocketbank-dev/pocketbank/internal/config"
	"github.com/pocketbank-dev/pocketbank/internal/ledger"
	"github.com/pocketbank-dev/pocketbank/internal/persist"
)

func addDataFlag(cmd *cobra.Command, dataDir *string) {
	cmd.Flags().StringVar(dataDir, "data", ".", "data directory")
}

// loadConfig reads <dataDir>/pocketbank.yaml, falling back to defaults
// when the file does not exist yet.
func loadConfig(dataDir string) (*config.Config, error) {
	cfg, err := config.Load(filepath.Join(dataDir, config.FileName))
	if errors.Is(err, fs.ErrNotExist) {
		cfg = config.Default()
	} else if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// openService assembles the adapter, store and ledger engine for a data
// directory. The returned close func releases the adapter (a no-op for
// the JSON backend).
func openService(dataDir string) (*ledger.Service, func(), error) {
	absDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("resolving path: %w", err)
	}

	cfg, err := loadConfig(absDir)
	if err != nil {
		return nil, nil, err
	}

	logger := cfg.Logger.NewLogger(os.Stderr)

	var adapter persist.Adapter
	closeFn := func() {}
	switch cfg.Storage.Backend {
	case "postgres":
		pg, err := persist.OpenPostgres(cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		adapter = pg
		closeFn = func() { pg.Close() }
	default:
		adapter = persist.NewFileStore(absDir)
	}

	bonus, err := decimal.NewFromString(cfg.Ledger.WelcomeBonus)
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("parsing welcome_bonus %q: %w", cfg.Ledger.WelcomeBonus, err)
	}

	svc, err := ledger.Open(adapter, logger, ledger.Options{
		WelcomeBonus: bonus,
		MinPINLength: cfg.Ledger.MinPINLength,
	})
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return svc, closeFn, nil
}

// audit appends one entry to the data directory's audit log. A failure
// here never fails the operation that already committed.
func audit(dataDir, username, action, amount, transactionID string) {
	entry := auditlog.Entry{
		Timestamp:     time.Now(),
		Username:      username,
		Action:        action,
		Amount:        amount,
		TransactionID: transactionID,
	}
	if err := auditlog.Append(dataDir, []auditlog.Entry{entry}); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to write audit log: %v\n", err)
	}
}

func parseAmount(arg string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(arg)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid amount %q", arg)
	}
	return amount, nil
}
