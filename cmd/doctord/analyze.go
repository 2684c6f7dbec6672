package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/doctord/internal/config"
	"github.com/fyrsmithlabs/doctord/internal/diagnostic"
	"github.com/fyrsmithlabs/doctord/internal/lifecycle"
	"github.com/fyrsmithlabs/doctord/internal/orchestrator"
	"github.com/fyrsmithlabs/doctord/internal/providers"
	"github.com/fyrsmithlabs/doctord/internal/registry"
	"github.com/fyrsmithlabs/doctord/internal/store"
)

var (
	analyzeJob    string
	analyzeBuild  int
	analyzeResult string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [logfile]",
	Short: "Run a one-shot diagnostic pass over a build log",
	Long: `Analyze a build log from a file or stdin using the bundled
providers and print the findings.

Examples:
  # Analyze a log file
  doctord analyze --job my-pipeline --build 42 build.log

  # Analyze from stdin
  cat build.log | doctord analyze --job my-pipeline --build 42 -`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeJob, "job", "local", "job name for the analyzed build")
	analyzeCmd.Flags().IntVar(&analyzeBuild, "build", 1, "build number for the analyzed build")
	analyzeCmd.Flags().StringVar(&analyzeResult, "result", "FAILURE", "build outcome (SUCCESS, UNSTABLE, FAILURE, ABORTED)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	var log []byte
	var err error
	if len(args) == 0 || args[0] == "-" {
		log, err = io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read from stdin: %w", err)
		}
	} else {
		log, err = os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read log file %s: %w", args[0], err)
		}
	}

	cfg := config.Default()
	logger := zap.NewNop()
	if cfg.Analysis.VerboseLogging {
		if logger, err = zap.NewDevelopment(); err != nil {
			return err
		}
	}

	providerRegistry := registry.New(logger)
	providerRegistry.Register(providers.NewHeuristics())

	orch := orchestrator.New(providerRegistry, logger,
		orchestrator.WithProviderTimeout(cfg.Analysis.ProviderTimeout()))

	trigger, err := lifecycle.NewTrigger(orch, store.NewMemoryStore(), cfg.Analysis, logger)
	if err != nil {
		return err
	}

	source := lifecycle.ContextSourceFunc(func(context.Context) (diagnostic.BuildContext, error) {
		return &diagnostic.Snapshot{
			Log:    string(log),
			Meta:   diagnostic.BuildMetadata{JobName: analyzeJob, BuildNumber: analyzeBuild},
			Result: analyzeResult,
		}, nil
	})

	state, err := trigger.BuildCompleted(cmd.Context(), analyzeJob, analyzeBuild, analyzeResult, source, os.Stdout)
	if err != nil {
		return err
	}

	switch state {
	case lifecycle.StateNoFindings:
		fmt.Println("no diagnostic issues found")
	case lifecycle.StateSkipped:
		fmt.Printf("analysis skipped (outcome %s)\n", analyzeResult)
	}
	return nil
}
