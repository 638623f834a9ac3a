package main

import (
	"fmt"

	"github.com/kyawhla/hydromate/internal/repository"
	"github.com/kyawhla/hydromate/internal/service"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Apply pending widget entries to the ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.reconcile.SyncFromWidget(a.context(cmd.Context(), TriggerCLI))
		if err != nil {
			return fmt.Errorf("widget sync failed: %w", err)
		}
		return printJSON(cmd.OutOrStdout(), result)
	},
}

var statsDays int

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print streaks, completion rate and average intake",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		stats, err := a.stats.GetStats(a.context(cmd.Context(), TriggerCLI), statsDays)
		if err != nil {
			return fmt.Errorf("failed to compute stats: %w", err)
		}
		return printJSON(cmd.OutOrStdout(), stats)
	},
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Re-derive ledger totals from the journal and repair mismatches",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := a.ledger.Rebuild(a.context(cmd.Context(), TriggerCLI))
		if err != nil {
			return fmt.Errorf("rebuild failed: %w", err)
		}
		return printJSON(cmd.OutOrStdout(), report)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Opening the store applies pending migrations
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		version, dirty, err := repository.SchemaVersion(a.db)
		if err != nil {
			return fmt.Errorf("failed to read schema version: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty=%t)\n", version, dirty)
		return nil
	},
}

func init() {
	statsCmd.Flags().IntVarP(&statsDays, "days", "d", service.DefaultStatsPeriodDays, "Trailing period for the average")
}
