package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/gotrail/pkg/pipeline"
)

// NewValidateCommand creates the validate command
func NewValidateCommand() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "validate <pipeline.yaml>",
		Short: "Validate a pipeline definition",
		Long: `Validate a pipeline definition without running it.

This checks:
- YAML structure against the definition schema
- Step configuration (exactly one operation per step)
- Log configuration (cellwise logs need a key column)
- Input and output settings

Examples:
  gotrail validate nightly.yaml
  gotrail validate nightly.yaml --verbose`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			definitionPath := args[0]

			// Check if definition file exists
			if _, err := os.Stat(definitionPath); os.IsNotExist(err) {
				return fmt.Errorf("pipeline definition not found: %s", definitionPath)
			}

			data, err := os.ReadFile(definitionPath)
			if err != nil {
				return fmt.Errorf("failed to read file: %w", err)
			}

			// Structural check against the definition schema
			if err := pipeline.ValidateAgainstSchema(data); err != nil {
				_, _ = fmt.Fprintln(cmd.OutOrStderr(), "✗ Schema validation failed")
				if verbose {
					_, _ = fmt.Fprintf(cmd.OutOrStderr(), "  Error: %v\n", err)
				}
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "✓ Definition matches the schema")

			// Semantic checks
			def, err := pipeline.Parse(data)
			if err != nil {
				_, _ = fmt.Fprintln(cmd.OutOrStderr(), "✗ Definition rejected")
				if verbose {
					_, _ = fmt.Fprintf(cmd.OutOrStderr(), "  Error: %v\n", err)
				}
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "✓ Definition parsed successfully")
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ Input: %s (%s)\n", def.Input.File, def.Input.Format)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ %d step(s) configured\n", len(def.Steps))
			if verbose {
				for i, step := range def.Steps {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "    %d. %s\n", i+1, step.Source())
				}
			}

			if def.Log != nil {
				logType := def.Log.Type
				if logType == pipeline.LogCellwise {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ Change log: cellwise (key '%s') -> %s\n", def.Log.Key, def.Log.SinkFile())
				} else {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ Change log: simple -> %s\n", def.Log.SinkFile())
				}
				if def.Log.DB != "" {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ SQLite sink: %s#%s\n", def.Log.DB, def.Log.Table)
				}
			} else {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "  No change log configured")
			}

			if def.Output != nil {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ Output: %s\n", def.Output.File)
			}

			// Summary
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "\n✓ Pipeline '%s' is valid and ready to run\n", def.Name)

			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed validation information")

	return cmd
}
