package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTransferCommand() *cobra.Command {
	var dataDir string

	cmd := &cobra.Command{
		Use:   "transfer <recipient-username> <amount>",
		Short: "Transfer from the signed-in account to another user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransfer(dataDir, args[0], args[1])
		},
	}

	addDataFlag(cmd, &dataDir)

	return cmd
}

func runTransfer(dataDir, recipient, amountArg string) error {
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

	out, _, err := svc.Transfer(acct.ID, recipient, amount)
	if err != nil {
		return err
	}

	updated, err := svc.Account(acct.ID)
	if err != nil {
		return err
	}

	audit(dataDir, acct.Username, "transfer", out.Amount.StringFixed(2), out.ID)
	fmt.Printf("Transferred %s to %s. Balance: %s\n", out.Amount.StringFixed(2), recipient, updated.Balance.StringFixed(2))
	return nil
}
