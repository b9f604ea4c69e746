// Package cli implements the vct command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Persistent flags available to all subcommands.
	configPath string
	logLevel   string
	logFormat  string

	// Version is injected during build.
	Version = "dev"
	// Commit is injected during build.
	Commit = "none"
	// BuildDate is injected during build.
	BuildDate = "unknown"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "vct",
	Short: "vct is a voice-controlled robodog trainer",
	Long: `vct runs a closed-loop trainer for a robodog: it maps spoken or typed
commands to actions, scores them with a small behavior policy, and gates
treat dispensing behind an ethics guard.

The operating mode is resolved once at startup from the VCT_SIMULATE
environment variable. In simulate mode every engine is an offline stand-in
and no external service or hardware is touched. In live mode the OpenAI
speech engines and the GPIO treat dispenser are wired in, and the required
credentials must be present before the server starts.`,
	SilenceUsage:  true,
	SilenceErrors: true, // We handle errors in Execute()
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to settings file (yaml, json, or toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text, json)")
}
