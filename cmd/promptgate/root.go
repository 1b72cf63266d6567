package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/awantoch/promptgate/config"
	"github.com/awantoch/promptgate/utils"
)

var (
	exit       = os.Exit
	configPath string
	debug      bool
)

// NewRootCmd creates the root 'promptgate' command with persistent flags and subcommands.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "promptgate",
		Short:        "Prompt enhancement edge function",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to promptgate config (JSON or YAML)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logs")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if debug {
			_ = utils.SetLevel("debug")
		}
	}

	rootCmd.AddCommand(newServeCmd(), newHealthCmd(), newRulebookCmd())
	return rootCmd
}

// loadConfig resolves file and environment configuration and applies the
// configured log level. A --debug flag always wins.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.Context(), configPath)
	if err != nil {
		return nil, err
	}
	if debug {
		cfg.Log.Level = "debug"
	}
	if err := utils.SetLevel(cfg.Log.Level); err != nil {
		utils.Warn("ignoring log level: %v", err)
	}
	return cfg, nil
}
