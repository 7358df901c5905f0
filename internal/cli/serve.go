package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"schedcore/internal/core"
	"schedcore/internal/httpapi"
	"schedcore/internal/seed"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the schedule API server",
		Long: `Start the schedcore HTTP server.

The server exposes the schedule at GET /workorders, accepts interval updates
at PUT /operations/{id}, and publishes Prometheus metrics at /metrics.

Example:
  schedcore serve
  SCHEDCORE_STORE_DRIVER=sqlite schedcore serve --verbose`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, rootOpts)
		},
	}
}

func runServe(cmd *cobra.Command, rootOpts *RootOptions) error {
	logger := rootOpts.Logger()
	cfg, err := rootOpts.LoadConfig()
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Error("closing store", "error", err)
		}
	}()
	logger.Info("store ready", "driver", cfg.Store.Driver)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cfg.Seed {
		if err := seed.Apply(ctx, store); err != nil {
			return err
		}
		logger.Info("seed applied", "work_orders", len(store.ListWorkOrders()))
	}

	registry := prometheus.NewRegistry()
	metrics := core.NewPrometheusMetrics(registry)
	coordinator := core.NewCoordinator(store,
		core.WithLaneWait(cfg.LaneWait),
		core.WithMetrics(metrics),
	)
	handler := httpapi.NewHandler(store, coordinator)
	server := httpapi.NewServer(cfg.Listen, handler, registry)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	logger.Info("serving", "listen", cfg.Listen)
	return server.Run(ctx)
}
