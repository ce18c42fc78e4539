// Package commands wires the CLI: it assembles the persistence adapter,
// store and ledger engine per invocation and renders operation results.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pocketbank-dev/pocketbank/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "pocketbank",
		Short:   "Personal banking demo",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newRegisterCommand())
	rootCmd.AddCommand(newLoginCommand())
	rootCmd.AddCommand(newLogoutCommand())
	rootCmd.AddCommand(newWhoamiCommand())
	rootCmd.AddCommand(newDepositCommand())
	rootCmd.AddCommand(newWithdrawCommand())
	rootCmd.AddCommand(newTransferCommand())
	rootCmd.AddCommand(newHistoryCommand())
	rootCmd.AddCommand(newExportCommand())

	return rootCmd
}
