package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/romcheg/offline-cards/internal/interchange"
	"github.com/romcheg/offline-cards/internal/walletsvc/service"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write every card to a JSON interchange file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeFn, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		data, name, err := svc.Export(cmd.Context())
		if err != nil {
			return err
		}
		if exportOutput != "" {
			name = exportOutput
		}
		if err := os.WriteFile(name, data, 0644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "exported to %s\n", name)
		return nil
	},
}

var (
	importErase       bool
	importOnDuplicate string
)

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Merge a JSON interchange file into the wallet",
	Long: `import answers the two merge questions up front: --erase replaces the
whole collection, and --on-duplicate decides what happens to cards whose
number already exists (overwrite, skip or cancel).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		choice, err := interchange.ParseDuplicateChoice(importOnDuplicate)
		if err != nil {
			return err
		}
		svc, closeFn, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		ctx := cmd.Context()
		status, err := svc.BeginImportFile(ctx, args[0])
		if err != nil {
			return err
		}
		if status.State == interchange.StatePendingErase.String() {
			if status, err = svc.DecideErase(ctx, status.ID, importErase); err != nil {
				return err
			}
		}
		if status.State == interchange.StatePendingDuplicates.String() {
			fmt.Fprintf(cmd.ErrOrStderr(), "%d duplicate card(s): %v\n", len(status.Duplicates), status.Duplicates)
			if status, err = svc.DecideDuplicates(ctx, status.ID, choice); err != nil {
				return err
			}
		}
		printImport(cmd, status)
		return nil
	},
}

func printImport(cmd *cobra.Command, s *service.ImportStatus) {
	if s.State == interchange.StateCancelled.String() {
		fmt.Fprintln(cmd.OutOrStdout(), "import cancelled, nothing changed")
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d of %d card(s), replaced %d, erased first: %t\n",
		s.Inserted, s.Imported, s.Deleted, s.Erased)
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output path (default cards_export_<unix>.json)")

	importCmd.Flags().BoolVar(&importErase, "erase", false, "erase all existing cards before importing")
	importCmd.Flags().StringVar(&importOnDuplicate, "on-duplicate", "skip", "overwrite, skip or cancel")

	rootCmd.AddCommand(exportCmd, importCmd)
}
