package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/beatpilot/internal/cli"
	"github.com/aretw0/beatpilot/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "beatpilot",
	Short: "BeatPilot is a realtime AI assistant for DJs",
	Long: `BeatPilot suggests the next three tracks and a transition plan from a
free-text description of the current vibe, and keeps a per-session history.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "beatpilot.yaml", "Path to the YAML config file (optional)")
	rootCmd.PersistentFlags().String("addr", "", "Listen address, overrides server.addr")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error), overrides log.level")
}

// loadConfig reads the config file and environment, then applies flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}

	if cmd.Flags().Changed("addr") {
		cfg.Server.Addr, _ = cmd.Flags().GetString("addr")
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level, _ = cmd.Flags().GetString("log-level")
	}
	return cfg, nil
}

// buildStack loads config and wires the full stack.
func buildStack(cmd *cobra.Command) (*cli.Stack, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := cli.NewLogger(cfg.Log)
	if err != nil {
		return nil, err
	}
	return cli.Build(cmd.Context(), cfg, logger)
}
