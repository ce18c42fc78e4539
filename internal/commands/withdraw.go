package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newWithdrawCommand() *cobra.Command {
	var dataDir string
	var description string

	cmd := &cobra.Command{
		Use:   "withdraw <amount>",
		Short: "Withdraw from the signed-in account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithdraw(dataDir, args[0], description)
		},
	}

	addDataFlag(cmd, &dataDir)
	cmd.Flags().StringVar(&description, "description", "", "transaction description")

	return cmd
}

func runWithdraw(dataDir, amountArg, description string) error {
	amount, err := parseAmount(amountArg)
	if err != nil {
		return err
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

	tx, err := svc.Withdraw(acct.ID, amount, description)
	if err != nil {
		return err
	}

	updated, err := svc.Account(acct.ID)
	if err != nil {
		return err
	}

	audit(dataDir, acct.Username, "withdraw", tx.Amount.StringFixed(2), tx.ID)
	fmt.Printf("Withdrew %s. Balance: %s\n", tx.Amount.StringFixed(2), updated.Balance.StringFixed(2))
	return nil
}
