package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/doctord/internal/config"
	"github.com/fyrsmithlabs/doctord/internal/events"
	"github.com/fyrsmithlabs/doctord/internal/lifecycle"
	"github.com/fyrsmithlabs/doctord/internal/logging"
	"github.com/fyrsmithlabs/doctord/internal/orchestrator"
	"github.com/fyrsmithlabs/doctord/internal/providers"
	"github.com/fyrsmithlabs/doctord/internal/registry"
	"github.com/fyrsmithlabs/doctord/internal/server"
	"github.com/fyrsmithlabs/doctord/internal/services"
	"github.com/fyrsmithlabs/doctord/internal/store"
	"github.com/fyrsmithlabs/doctord/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the diagnostics daemon",
	Long: `Run the daemon: subscribe to build-completion events on NATS,
analyze failed builds, persist findings, and serve health and metrics
over HTTP.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()
		return runServe(ctx)
	},
}

// runServe wires the daemon and blocks until the context is cancelled.
//
//  1. Loads and validates configuration
//  2. Initializes logger and telemetry
//  3. Opens the result store and connects to NATS
//  4. Builds the provider registry, orchestrator, and trigger
//  5. Subscribes to build events and starts the HTTP server
//  6. Performs graceful shutdown on context cancellation
func runServe(ctx context.Context) error {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	tel, err := telemetry.New(ctx, cfg.Telemetry, logger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	results, err := store.NewFileStore(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("failed to open result store: %w", err)
	}

	nc, err := nats.Connect(cfg.NATS.URL,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(1*time.Second),
	)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS at %s: %w", cfg.NATS.URL, err)
	}
	defer nc.Close()
	logger.Info("connected to NATS", zap.String("url", cfg.NATS.URL))

	providerRegistry := registry.New(logger)
	providerRegistry.Register(providers.NewHeuristics())

	promRegistry := prometheus.NewRegistry()
	metrics := orchestrator.NewMetrics(promRegistry)

	orch := orchestrator.New(providerRegistry, logger,
		orchestrator.WithProviderTimeout(cfg.Analysis.ProviderTimeout()),
		orchestrator.WithMetrics(metrics),
	)

	trigger, err := lifecycle.NewTrigger(orch, results, cfg.Analysis, logger)
	if err != nil {
		return fmt.Errorf("failed to build lifecycle trigger: %w", err)
	}

	subscriber, err := events.NewSubscriber(nc, trigger, cfg.NATS.Subject, cfg.NATS.Queue, logger)
	if err != nil {
		return err
	}
	if err := subscriber.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := subscriber.Stop(); err != nil {
			logger.Warn("subscriber drain failed", zap.Error(err))
		}
	}()

	svc := services.NewRegistry(services.Options{
		Providers:    providerRegistry,
		Orchestrator: orch,
		Trigger:      trigger,
		Store:        results,
		Metrics:      promRegistry,
	})

	logger.Info("doctord starting",
		zap.Int("port", cfg.Server.Port),
		zap.Int("providers", providerRegistry.Len()),
		zap.String("subject", cfg.NATS.Subject))

	if err := server.NewServer(cfg, svc).Start(ctx); err != nil && err != http.ErrServerClosed {
		return err
	}

	logger.Info("doctord shutdown complete")
	return nil
}
