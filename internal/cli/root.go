// Package cli holds the interviewd command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mockinterview/internal/config"
	"mockinterview/internal/logger"
)

var configFile string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "interviewd [command] [flags]",
		Short: "Mock interview server",
		Long: `interviewd runs the mock interview API: accounts, interview sessions
driven by an LLM (or a deterministic demo backend), and session history.

Examples:
  # Run the API server with config.json from the working directory
  interviewd serve

  # Create or upgrade the database schema only
  interviewd migrate --config config.yaml`,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.PersistentFlags().StringVar(&configFile, "config", os.Getenv("INTERVIEW_CONFIG"),
		"Path to the configuration file (json or yaml)")

	root.AddCommand(newServeCmd())
	root.AddCommand(newMigrateCmd())
	return root
}

// Execute runs the command tree and exits non-zero on failure.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// bootstrap loads configuration and installs the process logger.
func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.BasicConfig.Env)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	zap.ReplaceGlobals(log)
	return cfg, log, nil
}
