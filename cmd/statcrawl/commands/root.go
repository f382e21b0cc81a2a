package commands

import (
	"context"
	"fmt"
	"os"
	"statcrawl/internal/config"
	"statcrawl/lib/osutil"
	"statcrawl/lib/telemetry"

	"github.com/spf13/cobra"
)

var (
	configPath *string
	debug      *bool
)

var rootCmd = &cobra.Command{
	Use:   "statcrawl",
	Short: "statcrawl collects player season records from the record site's dropdown search.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(*debug)
	},
}

func init() {
	configPath = rootCmd.PersistentFlags().String("config", config.DefaultPath, "The configuration file, a .local variant next to it overrides it.")
	debug = rootCmd.PersistentFlags().Bool("debug", false, "Log debug reports.")
}

func loadConfig() config.Config {
	cfg, err := config.Load(*configPath)
	if err != nil {
		osutil.Fatal("failed to read config", err)
	}
	return cfg
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
