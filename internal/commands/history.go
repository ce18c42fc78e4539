package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pocketbank-dev/pocketbank/internal/model"
)

func newHistoryCommand() *cobra.Command {
	var dataDir string
	var kind string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List the signed-in account's transactions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(dataDir, kind)
		},
	}

	addDataFlag(cmd, &dataDir)
	cmd.Flags().StringVar(&kind, "kind", "", "filter by kind (deposit, withdrawal, transfer-out, transfer-in)")

	return cmd
}

func runHistory(dataDir, kindArg string) error {
	kind := model.TransactionKind(kindArg)
	if kindArg != "" && !kind.Valid() {
		return fmt.Errorf("unknown kind %q", kindArg)
	}

	svc, closeFn, err := openService(dataDir)
	if err != nil {
		return err
	}
	defer closeFn()

	acct, err := svc.Current()
	if err != nil {
		return err
	}

	txs, err := svc.History(acct.ID, kind)
	if err != nil {
		return err
	}

	if len(txs) == 0 {
		fmt.Println("No transactions.")
		return nil
	}

	for _, t := range txs {
		fmt.Printf("%s  %-12s  %10s  %s\n",
			t.Timestamp.Format("2006-01-02 15:04"),
			t.Kind,
			t.Signed().StringFixed(2),
			t.Description,
		)
	}
	fmt.Printf("Balance: %s\n", acct.Balance.StringFixed(2))
	return nil
}
