package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mohsinwazir/Dark-Web-Monitoring-tool/internal/config"
	"github.com/mohsinwazir/Dark-Web-Monitoring-tool/internal/metrics"
	"github.com/mohsinwazir/Dark-Web-Monitoring-tool/internal/model"
	"github.com/mohsinwazir/Dark-Web-Monitoring-tool/internal/monitor"
	"github.com/spf13/cobra"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Run a single crawl-and-triage pass",
		Long: `Crawl performs one monitoring run and exits.

Seeds come from the monitor file or --seed flags. Pages within the
selected scope are fetched, normalized, deduplicated against everything
ingested before, classified, and committed to the local database.

Scopes:
  clearnet     regular internet targets only
  anonymized   .onion targets only (requires a Tor SOCKS proxy)
  hybrid       both (default)

Examples:
  # One hybrid pass over the monitor file seeds
  darkmonitor crawl -c .darkmonitor

  # Anonymized targets only, through an external proxy
  darkmonitor crawl --scope anonymized -e 127.0.0.1:9150 --seed http://exampleonion.onion/`,
		Args: cobra.NoArgs,
		RunE: runCrawlCmd,
	}

	addMonitorFlags(cmd)
	cmd.Flags().StringP("scope", "s", string(model.ScopeHybrid),
		"Crawl scope: clearnet, anonymized, or hybrid")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	scopeArg, err := cmd.Flags().GetString("scope")
	if err != nil {
		return err
	}
	scope, err := model.ParseScope(scopeArg)
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
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runCrawl(ctx, cfg, scope, logger)
}

// runCrawl performs one monitoring run and prints summary statistics.
func runCrawl(ctx context.Context, cfg *config.Config, scope model.Scope, logger *slog.Logger) error {
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

	mon, err := monitor.New(ctx, cfg,
		monitor.WithLogger(logger),
		monitor.WithCollector(metrics.NewCollector()),
	)
	if err != nil {
		return fmt.Errorf("failed to start monitor: %w", err)
	}
	defer func() {
		if err := mon.Close(); err != nil {
			logger.Error("monitor shutdown", "error", err)
		}
	}()

	fmt.Printf("Crawling %d seed(s), scope %s...\n", len(cfg.Monitor.Seeds), scope)
	startTime := time.Now()

	if err := mon.StartRun(ctx, scope); err != nil {
		return err
	}
	mon.WaitRun()

	elapsed := time.Since(startTime)
	fmt.Printf("Run completed in %s\n\n", elapsed.Round(time.Millisecond))

	stats, err := mon.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to read statistics: %w", err)
	}

	fmt.Printf("Items ingested:  %d\n", stats.TotalItems)
	fmt.Printf("  high risk:     %d\n", stats.HighRisk)
	fmt.Printf("  medium risk:   %d\n", stats.MediumRisk)
	fmt.Printf("  low risk:      %d\n", stats.LowRisk)
	for category, count := range stats.Categories {
		fmt.Printf("  %-24s %d\n", category, count)
	}

	return ctx.Err()
}
