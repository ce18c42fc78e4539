package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newWhoamiCommand() *cobra.Command {
	var dataDir string

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWhoami(dataDir)
		},
	}

	addDataFlag(cmd, &dataDir)

	return cmd
}

func runWhoami(dataDir string) error {
	svc, closeFn, err := openService(dataDir)
	if err != nil {
		return err
	}
	defer closeFn()

	acct, err := svc.Current()
	if err != nil {
		return err
	}

	fmt.Printf("Username:     %s\n", acct.Username)
	fmt.Printf("Full name:    %s\n", acct.FullName)
	fmt.Printf("Account id:   %s\n", acct.ID)
	fmt.Printf("Balance:      %s\n", acct.Balance.StringFixed(2))
	fmt.Printf("Transactions: %d\n", len(acct.Transactions))
	return nil
}
