package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mohsinwazir/Dark-Web-Monitoring-tool/internal/api"
	"github.com/mohsinwazir/Dark-Web-Monitoring-tool/internal/config"
	"github.com/mohsinwazir/Dark-Web-Monitoring-tool/internal/metrics"
	"github.com/mohsinwazir/Dark-Web-Monitoring-tool/internal/monitor"
	"github.com/spf13/cobra"
)

// shutdownGrace is how long in-flight HTTP requests get to finish after
// a shutdown signal before the listener is torn down.
const shutdownGrace = 10 * time.Second

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the monitoring daemon with the HTTP API",
		Long: `Serve starts the monitoring daemon and exposes the HTTP control surface.

Crawl runs are triggered over the API and results are queried from it:

  POST /api/crawl?scope=hybrid    start a crawl run
  GET  /api/crawl/status          check whether a run is active
  GET  /api/items                 search ingested items
  GET  /api/stats                 aggregate risk statistics
  GET  /api/feed                  live item stream (server-sent events)
  GET  /metrics                   Prometheus metrics

Examples:
  # Serve on the default loopback address
  darkmonitor serve --seed http://exampleonion.onion/

  # Use a monitor file for seeds and label sets
  darkmonitor serve -c .darkmonitor

  # Bootstrap embedded Tor when no local proxy is running
  darkmonitor serve --embedded-tor -c .darkmonitor`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	addMonitorFlags(cmd)
	cmd.Flags().StringP("listen", "l", config.DefaultListenAddr,
		"HTTP API bind address")

	return cmd
}

// runServeCmd executes the serve command.
func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	cfg.ListenAddr, err = cmd.Flags().GetString("listen")
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, stopping...")
		cancel()
	}()

	return runServe(ctx, cfg, logger)
}

// runServe builds the monitor and serves the HTTP API until the context
// is cancelled.
func runServe(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	embedded, err := ensureAnonRoute(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if embedded != nil {
		defer func() {
			logger.Info("stopping embedded Tor daemon...")
			if err := embedded.Stop(); err != nil {
				logger.Error("failed to stop embedded Tor", "error", err)
			}
		}()
	}

	collector := metrics.NewCollector()

	mon, err := monitor.New(ctx, cfg,
		monitor.WithLogger(logger),
		monitor.WithCollector(collector),
	)
	if err != nil {
		return fmt.Errorf("failed to start monitor: %w", err)
	}
	defer func() {
		if err := mon.Close(); err != nil {
			logger.Error("monitor shutdown", "error", err)
		}
	}()

	server := api.NewServer(mon,
		api.WithLogger(logger),
		api.WithCollector(collector),
	)

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP API listening", "address", cfg.ListenAddr)
		fmt.Printf("darkmonitor listening on http://%s\n", cfg.ListenAddr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownGrace)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	return nil
}
