package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/gotrail/pkg/pipeline"
)

// NewRunCommand creates the run command
func NewRunCommand() *cobra.Command {
	var outputJSON bool

	cmd := &cobra.Command{
		Use:   "run <pipeline.yaml>",
		Short: "Execute a pipeline definition",
		Long: `Execute a pipeline definition and flush its change log.

File paths inside the definition resolve relative to the definition's
directory unless --base-dir says otherwise. Paths that escape that
directory are rejected.

Examples:
  # Run a pipeline
  gotrail run nightly.yaml

  # Run with machine-readable output
  gotrail run nightly.yaml --output-json

  # Run with debug output
  gotrail run nightly.yaml --debug`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			definitionPath := args[0]

			// Check if definition file exists
			if _, err := os.Stat(definitionPath); os.IsNotExist(err) {
				return fmt.Errorf("pipeline definition not found: %s", definitionPath)
			}

			// Schema check plus semantic parse
			def, err := pipeline.ValidateFile(definitionPath)
			if err != nil {
				return fmt.Errorf("failed to load pipeline: %w", err)
			}

			result, err := pipeline.Run(cmd.Context(), def, ResolveBaseDir(definitionPath))
			if err != nil {
				return err
			}

			if outputJSON {
				// Output as JSON
				output := map[string]interface{}{
					"pipeline":    result.Name,
					"status":      "completed",
					"duration":    result.Duration.Seconds(),
					"rows":        result.Rows,
					"steps":       result.Steps,
					"log_targets": result.LogTargets,
				}
				if result.RunID != "" {
					output["run_id"] = result.RunID
				}
				if result.OutputFile != "" {
					output["output_file"] = result.OutputFile
				}

				data, err := json.MarshalIndent(output, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal output: %w", err)
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}

			// Human-readable output
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ Pipeline '%s' completed (%.2fs)\n", result.Name, result.Duration.Seconds())
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  Rows out: %d\n", result.Rows)
			if result.Steps > 0 {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  Steps recorded: %d\n", result.Steps)
			}
			for _, target := range result.LogTargets {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  Change log: %s\n", target)
			}
			if result.RunID != "" {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  Run ID: %s\n", result.RunID)
			}
			if result.OutputFile != "" {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  Output: %s\n", result.OutputFile)
			}

			if GlobalConfig.Debug {
				_, _ = fmt.Fprintf(cmd.OutOrStderr(), "DEBUG: Run details:\n")
				_, _ = fmt.Fprintf(cmd.OutOrStderr(), "  Definition: %s\n", definitionPath)
				_, _ = fmt.Fprintf(cmd.OutOrStderr(), "  Base directory: %s\n", ResolveBaseDir(definitionPath))
				_, _ = fmt.Fprintf(cmd.OutOrStderr(), "  Duration: %.2fs\n", result.Duration.Seconds())
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&outputJSON, "output-json", false, "Output result as JSON")

	return cmd
}
