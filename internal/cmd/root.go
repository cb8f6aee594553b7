// Package cmd wires the CLI commands to the planning pipeline.
package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/epicbreaker/internal/config"
	"github.com/felixgeelhaar/epicbreaker/internal/log"
)

var (
	cfgFile      string
	outputFormat string
	noColor      bool
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "epicbreaker",
	Short: "Epic planning and decomposition for your issue tracker",
	Long: `epicbreaker analyzes an epic's story coverage against its source documents,
decomposes missing stories into team-assigned tasks with cycle-time-bounded
estimates, resolves dependencies between them, and materializes the result
as tracker tickets and links.

Task synthesis uses a generative oracle when one is configured and falls
back to deterministic per-team templates when it is not.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with a cancellable context
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./epicbreaker.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "output format (text, json, yaml)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// loadConfig loads configuration and builds the run logger.
func loadConfig() (*config.Config, *log.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}

	logCfg := log.Config{
		Level:  log.ParseLevel(cfg.Log.Level),
		Format: log.ParseFormat(cfg.Log.Format),
		Output: os.Stderr,
	}
	if verbose {
		logCfg.Level = log.LevelDebug
	}

	return cfg, log.New(logCfg), nil
}
