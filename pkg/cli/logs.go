package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/gotrail/pkg/storage"
)

// ANSI color codes are defined in colors.go

// maxFieldWidth caps a record field's rendered width; 36 keeps a full
// run ID visible.
const maxFieldWidth = 36

// NewLogsCommand creates the logs command
func NewLogsCommand() *cobra.Command {
	var (
		runID     string
		tailCount int
		noColor   bool
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "logs <db> [table]",
		Short: "Inspect change logs stored in SQLite",
		Long: `Inspect change logs written by pipelines with a SQLite sink.

With only a database path, lists every recorded run. With a table name,
dumps that log table's records in insertion order.

Examples:
  # List runs recorded in a database
  gotrail logs logs/changes.db

  # Dump a log table
  gotrail logs logs/changes.db run_log

  # Dump only the records of one run
  gotrail logs logs/changes.db run_log --run 3b9e7d14-8a20-4c68-9d3f-0f6f6d2a9c11

  # Show the last 20 records
  gotrail logs logs/changes.db run_log --tail 20`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath := args[0]

			if len(args) == 1 {
				return runLogsList(cmd, dbPath, asJSON)
			}
			return runLogsDump(cmd, dbPath, args[1], runID, tailCount, noColor, asJSON)
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "Only show records from this run ID")
	cmd.Flags().IntVar(&tailCount, "tail", 0, "Show last N records (0 = show all)")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")

	return cmd
}

// runLogsList handles the run listing form of the command
func runLogsList(cmd *cobra.Command, dbPath string, asJSON bool) error {
	runs, err := storage.ListRuns(dbPath)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if asJSON {
		output := make([]map[string]interface{}, len(runs))
		for i, run := range runs {
			output[i] = map[string]interface{}{
				"run_id":     run.RunID,
				"table":      run.TableName,
				"started_at": run.StartedAt,
			}
		}
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(output)
	}

	if len(runs) == 0 {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
		return nil
	}

	printRunsTable(cmd.OutOrStdout(), runs)
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "\n%d run(s) in %s\n", len(runs), dbPath)

	return nil
}

// runLogsDump handles the table dumping form of the command
func runLogsDump(cmd *cobra.Command, dbPath, tableName, runFilter string, tailCount int, noColor, asJSON bool) error {
	header, records, err := storage.ReadRecords(dbPath, tableName)
	if err != nil {
		return fmt.Errorf("failed to read log table: %w", err)
	}

	if runFilter != "" {
		records = filterByRun(header, records, runFilter)
	}

	// Apply tail limit
	if tailCount > 0 && tailCount < len(records) {
		records = records[len(records)-tailCount:]
	}

	if asJSON {
		output := make([]map[string]string, len(records))
		for i, record := range records {
			entry := make(map[string]string, len(header))
			for j, col := range header {
				entry[col] = record[j]
			}
			output[i] = entry
		}
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(output)
	}

	// Conditionally use color codes
	cyan := ""
	gray := ""
	reset := ""
	if !noColor {
		cyan = colorCyan
		gray = colorGray
		reset = colorReset
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Log table: %s%s#%s%s\n", cyan, dbPath, tableName, reset)
	if len(records) == 0 {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s(no records)%s\n", gray, reset)
		return nil
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d record(s)\n\n", len(records))

	printRecordsTable(cmd.OutOrStdout(), header, records)

	return nil
}

// printRunsTable displays registered runs in a formatted table
func printRunsTable(w io.Writer, runs []storage.RunInfo) {
	// Print header
	_, _ = fmt.Fprintf(w, "%-38s %-18s %s\n", "RUN ID", "TABLE", "STARTED")
	_, _ = fmt.Fprintln(w, strings.Repeat("-", 76))

	// Print each run
	for _, run := range runs {
		_, _ = fmt.Fprintf(w, "%-38s %-18s %s\n",
			run.RunID,
			truncateString(run.TableName, 16),
			run.StartedAt.Format("2006-01-02 15:04:05"))
	}
}

// printRecordsTable displays log records with columns sized to their content
func printRecordsTable(w io.Writer, header []string, records [][]string) {
	widths := make([]int, len(header))
	for i, col := range header {
		widths[i] = len(col)
	}
	for _, record := range records {
		for i, field := range record {
			field = truncateString(field, maxFieldWidth)
			if len(field) > widths[i] {
				widths[i] = len(field)
			}
		}
	}

	total := 0
	for i, col := range header {
		_, _ = fmt.Fprintf(w, "%-*s  ", widths[i], strings.ToUpper(col))
		total += widths[i] + 2
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, strings.Repeat("-", total))

	for _, record := range records {
		for i, field := range record {
			_, _ = fmt.Fprintf(w, "%-*s  ", widths[i], truncateString(field, maxFieldWidth))
		}
		_, _ = fmt.Fprintln(w)
	}
}

// filterByRun keeps the records stamped with the given run ID.
// Tables without a run_id column pass through unfiltered.
func filterByRun(header []string, records [][]string, runID string) [][]string {
	runCol := -1
	for i, col := range header {
		if col == "run_id" {
			runCol = i
			break
		}
	}
	if runCol < 0 {
		return records
	}

	filtered := make([][]string, 0, len(records))
	for _, record := range records {
		if record[runCol] == runID {
			filtered = append(filtered, record)
		}
	}
	return filtered
}

// truncateString truncates a string to the specified length
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-2] + ".."
}
