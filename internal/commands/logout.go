package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLogoutCommand() *cobra.Command {
	var dataDir string

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Sign out of the current account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(dataDir)
		},
	}

	addDataFlag(cmd, &dataDir)

	return cmd
}

func runLogout(dataDir string) error {
	svc, closeFn, err := openService(dataDir)
	if err != nil {
		return err
	}
	defer closeFn()

	// Best effort: the audit row wants a username, but logging out with
	// no session is still fine.
	username := ""
	if acct, err := svc.Current(); err == nil {
		username = acct.Username
	}

	if err := svc.Logout(); err != nil {
		return err
	}

	audit(dataDir, username, "logout", "", "")
	fmt.Println("Logged out.")
	return nil
}
