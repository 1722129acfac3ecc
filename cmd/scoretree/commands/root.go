package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const (
	appName    = "scoretree"
	appVersion = "1.0.0"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:     appName,
	Short:   "scoretree harvests Hupu basketball player ratings and hot comments.",
	Version: appVersion,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a json5 config file (default scoretree.json5).")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level.")
}

// ExecuteContext runs the CLI and exits non-zero on failure.
func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
