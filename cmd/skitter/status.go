package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/skitterhq/skitter/internal/config"
	"github.com/skitterhq/skitter/internal/database"
	"github.com/skitterhq/skitter/internal/hook"
	"github.com/skitterhq/skitter/internal/model"
	"github.com/spf13/cobra"
)

// statusOrder fixes the display order of frontier states, lifecycle
// first: waiting, working, finished.
var statusOrder = []model.URLStatus{
	model.StatusTodo,
	model.StatusInProgress,
	model.StatusDone,
	model.StatusError,
	model.StatusSkipped,
}

// NewStatusCmd creates the status command.
// This command inspects the frontier database without crawling anything.
func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the state of the frontier database",
		Long: `Status reports how many URLs the frontier database holds in each
lifecycle state.

An interrupted crawl leaves URLs in the todo and in-progress states;
re-running the crawl with the same database directory picks them up.
A finished crawl holds only done, error, and skipped URLs.

Examples:
  # Inspect the default frontier
  skitter status

  # Inspect a specific frontier
  skitter status --database-dir /var/lib/skitter

  # Machine-readable output
  skitter status --json`,
		RunE: runStatusCmd,
	}

	cmd.Flags().String("database-dir", config.XDGDataDir(),
		"Directory the frontier database lives in")
	cmd.Flags().BoolP("json", "j", false,
		"Output counts in JSON format")

	return cmd
}

// runStatusCmd executes the status command.
func runStatusCmd(cmd *cobra.Command, _ []string) error {
	dbDir, err := cmd.Flags().GetString("database-dir")
	if err != nil {
		return err
	}

	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	table, err := database.Open(dbDir, hook.NewRegistry(), database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open frontier database: %w", err)
	}
	defer table.Close() //nolint:errcheck // Read-only inspection

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	counts, err := table.Counts(ctx)
	if err != nil {
		return fmt.Errorf("failed to count frontier URLs: %w", err)
	}

	if jsonOutput {
		return outputStatusJSON(cmd, dbDir, counts)
	}
	return outputStatusText(cmd, dbDir, counts)
}

// outputStatusJSON writes the counts as a JSON document.
func outputStatusJSON(cmd *cobra.Command, dbDir string, counts map[model.URLStatus]int64) error {
	byName := make(map[string]int64, len(counts))
	var total int64
	for _, status := range statusOrder {
		byName[status.String()] = counts[status]
		total += counts[status]
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(struct {
		DatabaseDir string           `json:"database_dir"`
		Counts      map[string]int64 `json:"counts"`
		Total       int64            `json:"total"`
	}{
		DatabaseDir: dbDir,
		Counts:      byName,
		Total:       total,
	})
}

// outputStatusText writes the counts as a human-readable table.
func outputStatusText(cmd *cobra.Command, dbDir string, counts map[model.URLStatus]int64) error {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Frontier database: %s\n\n", dbDir)
	fmt.Fprintf(out, "  %-12s  %s\n", "State", "URLs")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 20))

	var total int64
	for _, status := range statusOrder {
		fmt.Fprintf(out, "  %-12s  %d\n", status.String(), counts[status])
		total += counts[status]
	}

	fmt.Fprintln(out, "  "+strings.Repeat("-", 20))
	fmt.Fprintf(out, "  %-12s  %d\n", "total", total)

	if pending := counts[model.StatusTodo] + counts[model.StatusInProgress]; pending > 0 {
		fmt.Fprintf(out, "\n%d URLs pending. Re-run the crawl with the same database directory to continue.\n", pending)
	}

	return nil
}
