package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pocketbank-dev/pocketbank/internal/ledger"
)

func newRegisterCommand() *cobra.Command {
	var dataDir string
	var fullName string
	var pin string
	var confirmPIN string

	cmd := &cobra.Command{
		Use:   "register <username>",
		Short: "Create a new account and sign in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegister(dataDir, ledger.RegisterParams{
				Username:   args[0],
				FullName:   fullName,
				PIN:        pin,
				ConfirmPIN: confirmPIN,
			})
		},
	}

	addDataFlag(cmd, &dataDir)
	cmd.Flags().StringVar(&fullName, "full-name", "", "display name (required)")
	cmd.Flags().StringVar(&pin, "pin", "", "PIN (required)")
	cmd.Flags().StringVar(&confirmPIN, "confirm-pin", "", "PIN confirmation (required)")
	_ = cmd.MarkFlagRequired("full-name")
	_ = cmd.MarkFlagRequired("pin")
	_ = cmd.MarkFlagRequired("confirm-pin")

	return cmd
}

func runRegister(dataDir string, params ledger.RegisterParams) error {
	svc, closeFn, err := openService(dataDir)
	if err != nil {
		return err
	}
	defer closeFn()

	acct, err := svc.Register(params)
	if err != nil {
		return err
	}

	audit(dataDir, acct.Username, "register", acct.Balance.StringFixed(2), acct.Transactions[0].ID)
	fmt.Printf("Account created for %s (%s). Balance: %s\n", acct.Username, acct.FullName, acct.Balance.StringFixed(2))
	return nil
}
