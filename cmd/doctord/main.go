// Doctord is a diagnostics daemon for CI builds.
//
// It listens for build-completion events over NATS, runs the
// registered diagnostic providers against each failed build, and
// attaches the findings to a queryable result store.
//
// Usage:
//
//	# Start the daemon
//	doctord serve
//
//	# Start with an explicit config file
//	doctord serve --config /etc/doctord/config.yaml
//
//	# One-shot analysis of a build log
//	doctord analyze --job my-pipeline --build 42 build.log
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

var configPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "doctord",
	Short: "Diagnostics daemon for CI builds",
	Long: `doctord analyzes failed CI builds with pluggable diagnostic
providers and attaches the findings to a queryable result store.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (YAML)")
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"doctord by Fyrsmith Labs\nVersion:    %s\nCommit:     %s\nBuild Date: %s\n",
		version, gitCommit, buildDate))
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(analyzeCmd)
}
