package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pocketbank-dev/pocketbank/internal/export"
)

func newExportCommand() *cobra.Command {
	var dataDir string
	var outPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the signed-in account's history as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(dataDir, outPath)
		},
	}

	addDataFlag(cmd, &dataDir)
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")

	return cmd
}

func runExport(dataDir, outPath string) error {
	svc, closeFn, err := openService(dataDir)
	if err != nil {
		return err
	}
	defer closeFn()

	acct, err := svc.Current()
	if err != nil {
		return err
	}

	w := os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating %s: %w", outPath, err)
		}
		defer f.Close()
		w = f
	}

	if err := export.WriteStatement(w, acct.Transactions); err != nil {
		return fmt.Errorf("writing statement: %w", err)
	}

	if outPath != "" {
		fmt.Printf("Wrote %d transactions to %s\n", len(acct.Transactions), outPath)
	}
	return nil
}
