package cli

import (
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

const (
	// Version is the current version of GoTrail
	Version = "1.0.0"
)

// Config holds the global configuration for the GoTrail CLI
type Config struct {
	BaseDir string
	Debug   bool
}

// GlobalConfig is the shared configuration instance
var GlobalConfig = &Config{}

// NewRootCommand creates the root cobra command for GoTrail
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gotrail",
		Short: "GoTrail - Change tracking for data pipelines",
		Long: `GoTrail runs YAML-defined data pipelines and records, step by step,
what each transformation changed. Change logs are flushed to CSV files or
SQLite databases and can be inspected later with the logs command.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Setup logging
			if GlobalConfig.Debug {
				log.SetOutput(os.Stderr)
				log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
			} else {
				log.SetOutput(io.Discard)
			}

			return nil
		},
	}

	// Persistent flags (available to all subcommands)
	cmd.PersistentFlags().BoolVar(&GlobalConfig.Debug, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&GlobalConfig.BaseDir, "base-dir", "", "Directory pipeline paths resolve against (default: the definition's directory)")

	// Add subcommands
	cmd.AddCommand(NewRunCommand())
	cmd.AddCommand(NewValidateCommand())
	cmd.AddCommand(NewLogsCommand())

	return cmd
}

// ResolveBaseDir returns the directory a definition's file paths resolve
// against.
// Priority order: 1) GOTRAIL_BASE_DIR env var (for testing), 2) --base-dir,
// 3) the definition's own directory
func ResolveBaseDir(definitionPath string) string {
	// Check environment variable first (for testing)
	if envDir := os.Getenv("GOTRAIL_BASE_DIR"); envDir != "" {
		return envDir
	}
	if GlobalConfig.BaseDir != "" {
		return GlobalConfig.BaseDir
	}
	return filepath.Dir(definitionPath)
}

// Execute runs the root command
func Execute() error {
	return NewRootCommand().Execute()
}
