package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLoginCommand() *cobra.Command {
	var dataDir string
	var pin string

	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Sign in to an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(dataDir, args[0], pin)
		},
	}

	addDataFlag(cmd, &dataDir)
	cmd.Flags().StringVar(&pin, "pin", "", "PIN (required)")
	_ = cmd.MarkFlagRequired("pin")

	return cmd
}

func runLogin(dataDir, username, pin string) error {
	svc, closeFn, err := openService(dataDir)
	if err != nil {
		return err
	}
	defer closeFn()

	acct, err := svc.Authenticate(username, pin)
	if err != nil {
		return err
	}

	audit(dataDir, acct.Username, "login", "", "")
	fmt.Printf("Welcome back, %s!\n", acct.FullName)
	return nil
}
