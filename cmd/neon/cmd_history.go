package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"neonresearch/internal/store"
)

// =============================================================================
// HISTORY COMMAND
// =============================================================================

var historyLimit int

// historyCmd lists turns recorded in the transcript database.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded research turns",
	Long: `Lists the most recent research turns, newest first.

Turns are recorded only when history.database_path (or NEON_DB) is set.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, err := loadConfig(false)
	if err != nil {
		return err
	}
	if err := initLogging(cfg); err != nil {
		return err
	}
	if !cfg.IsHistoryEnabled() {
		fmt.Fprintln(out, "History is disabled. Set history.database_path in config.yaml or NEON_DB.")
		return nil
	}

	hs, err := store.NewHistoryStore(cfg.History.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer hs.Close()

	records, err := hs.RecentTurns(cmd.Context(), historyLimit)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}
	if len(records) == 0 {
		fmt.Fprintln(out, "No research turns recorded.")
		return nil
	}

	fmt.Fprintln(out, "Research History")
	fmt.Fprintln(out, strings.Repeat("─", 50))
	for _, r := range records {
		fmt.Fprintf(out, "  %s  %s #%d  %s\n",
			r.Turn.At.Local().Format("2006-01-02 15:04"), shortID(r.SessionID), r.Number, r.Turn.Query)
	}
	fmt.Fprintln(out, strings.Repeat("─", 50))
	fmt.Fprintf(out, "Total: %d turns\n", len(records))
	fmt.Fprintf(out, "Database: %s\n", hs.Path())
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
