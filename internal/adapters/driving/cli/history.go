package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teca-labs/arcveil/internal/printer"
)

var flagHistoryLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if runStore == nil {
			return errors.New("run store not configured")
		}
		reports, err := runStore.Recent(context.Background(), flagHistoryLimit)
		if err != nil {
			return fmt.Errorf("loading run history: %w", err)
		}
		printer.History(cmd.OutOrStdout(), reports)
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&flagHistoryLimit, "limit", 10,
		"maximum number of runs to show")
	rootCmd.AddCommand(historyCmd)
}
