package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teca-labs/arcveil/internal/printer"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Take a verified snapshot of the journal",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if guardian == nil {
			return errors.New("backup guardian not configured")
		}
		result, err := guardian.Snapshot(context.Background())
		if err != nil {
			return fmt.Errorf("backup failed: %w", err)
		}
		cmd.Printf("Backup written to %s (%d bytes, sha256=%s)\n",
			result.Path, result.SizeBytes, result.Checksum)
		return nil
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List existing journal backups, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if guardian == nil {
			return errors.New("backup guardian not configured")
		}
		backups, err := guardian.Backups()
		if err != nil {
			return fmt.Errorf("listing backups: %w", err)
		}
		printer.Backups(cmd.OutOrStdout(), backups)
		return nil
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore <backup-file>",
	Short: "Restore the journal from a backup",
	Long: `Replaces the live journal with a verified backup copy. The current
journal is preserved next to itself with a .pre-restore suffix first.

The graph store must be stopped before restoring.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if guardian == nil {
			return errors.New("backup guardian not configured")
		}
		if err := guardian.Restore(context.Background(), args[0]); err != nil {
			return fmt.Errorf("restore failed: %w", err)
		}
		cmd.Printf("Journal restored from %s\n", args[0])
		return nil
	},
}

func init() {
	backupCmd.AddCommand(backupListCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(restoreCmd)
}
