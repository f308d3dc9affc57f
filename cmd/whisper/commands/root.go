// Package commands provides the CLI commands for whisper.
package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/DeanoC/AIWhisperer-sub003/internal/config"
	"github.com/DeanoC/AIWhisperer-sub003/internal/logging"
	"github.com/DeanoC/AIWhisperer-sub003/pkg/types"
)

// Version information set at build time
var (
	Version   = "0.1.0"
	BuildTime = "dev"
)

// Global flags
var (
	flagServer   string
	flagLogLevel string
	flagPretty   bool
)

var rootCmd = &cobra.Command{
	Use:   "whisper",
	Short: "whisper - terminal client for an AIWhisperer backend",
	Long: `whisper connects to an AIWhisperer backend, streams the agents'
channel output, and merges it with the conversation history.

Run 'whisper chat' for an interactive session.`,
	Version: Version,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagServer, "server", "", "Backend base URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (DEBUG|INFO|WARN|ERROR)")
	rootCmd.PersistentFlags().BoolVar(&flagPretty, "pretty-logs", false, "Human-readable log output")

	rootCmd.SetVersionTemplate("whisper " + Version + " (" + BuildTime + ")\n")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(agentsCmd)
	rootCmd.AddCommand(commandsCmd)
	rootCmd.AddCommand(saveCmd)
}

// loadConfig loads layered configuration and applies global flags on top.
func loadConfig() (*types.Config, error) {
	workDir, err := os.Getwd()
	if err != nil {
		workDir = ""
	}

	cfg, err := config.Load(workDir)
	if err != nil {
		return nil, err
	}

	if flagServer != "" {
		cfg.Server = flagServer
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}

	logging.Init(cfg.LogLevel, flagPretty, os.Stderr)
	return cfg, nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
