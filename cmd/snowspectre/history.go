package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/snowspectre/internal/storage/sqlite"
)

// NewHistoryCmd creates the history command group
func NewHistoryCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect stored analysis runs",
		Long: `Browse the local run history recorded with 'analyze --store-history'.
Use 'history list' to see recent runs and 'history show <run-id>' to dump
the full stored report.`,
	}

	cmd.PersistentFlags().StringVar(&dbPath, "db", ".snowspectre-history.db", "History database path")

	cmd.AddCommand(newHistoryListCmd(&dbPath))
	cmd.AddCommand(newHistoryShowCmd(&dbPath))

	return cmd
}

func newHistoryListCmd(dbPath *string) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := sqlite.NewStore(*dbPath)
			if err != nil {
				return fmt.Errorf("failed to open history database: %w", err)
			}
			defer store.Close()

			runs, err := store.ListRuns(limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				cmd.Println("No stored runs.")
				return nil
			}

			cmd.Printf("%-36s  %-20s  %-10s  %-8s  %-10s  %s\n",
				"RUN ID", "CREATED", "QUERIES", "TABLES", "SAVINGS", "QUALITY")
			for _, run := range runs {
				cmd.Printf("%-36s  %-20s  %-10d  %-8d  $%-9.2f  %d\n",
					run.ID,
					run.CreatedAt.UTC().Format(time.RFC3339),
					run.QueriesAnalyzed,
					run.TablesScanned,
					run.TotalSavingsUSD,
					run.OverallQualityScore,
				)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum runs to list")
	return cmd
}

func newHistoryShowCmd(dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Print the stored report for a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := sqlite.NewStore(*dbPath)
			if err != nil {
				return fmt.Errorf("failed to open history database: %w", err)
			}
			defer store.Close()

			report, err := store.GetRun(args[0])
			if err != nil {
				return err
			}

			data, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal report: %w", err)
			}
			cmd.Println(string(data))
			return nil
		},
	}
}
