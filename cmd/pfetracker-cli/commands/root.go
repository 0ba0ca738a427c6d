package commands

import (
	"context"
	"fmt"
	"os"

	"pfetracker/lib/telemetry"
	"pfetracker/services/harvest"

	"github.com/spf13/cobra"
)

var configPath string
var debug bool

var rootCmd = &cobra.Command{
	Use:          "pfetracker-cli",
	Short:        "pfetracker-cli harvests job postings into the tracking sheet and inspects it.",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(debug)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.json5", "The config file to read.")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging.")
}

func readConfig() (harvest.Config, error) {
	cfg, err := harvest.ReadConfig(configPath)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if cfg.Debug {
		telemetry.InitSlog(true)
	}
	return cfg, nil
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
