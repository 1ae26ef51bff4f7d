package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/mohsinwazir/Dark-Web-Monitoring-tool/internal/config"
	"github.com/mohsinwazir/Dark-Web-Monitoring-tool/internal/log"
	"github.com/mohsinwazir/Dark-Web-Monitoring-tool/internal/tor"
	"github.com/spf13/cobra"
)

// addMonitorFlags registers the flags shared by the serve and crawl
// commands.
func addMonitorFlags(cmd *cobra.Command) {
	// Crawl behavior flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultFetchTimeout,
		"Per-request fetch timeout")
	cmd.Flags().IntP("depth", "d", config.DefaultCrawlDepth,
		"Maximum link recursion depth from the seeds")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of pages fetched per run")
	cmd.Flags().Duration("delay", config.DefaultCrawlDelay,
		"Minimum delay between requests to the same domain")
	cmd.Flags().Int("concurrency", config.DefaultMaxConcurrentFetches,
		"Maximum in-flight fetches across all domains")
	cmd.Flags().StringSlice("seed", nil,
		"Seed URL to crawl (repeatable, added to monitor file seeds)")
	cmd.Flags().Bool("skip-duplicates", false,
		"Discard near-duplicate pages instead of storing them flagged")

	// Anonymized route flags
	cmd.Flags().StringP("proxy", "e", "",
		"SOCKS5 proxy address for anonymized targets (e.g., 127.0.0.1:9050)")
	cmd.Flags().Bool("embedded-tor", false,
		"Bootstrap an embedded Tor daemon when no local proxy is found")
	cmd.Flags().DurationP("tor-timeout", "T", config.DefaultTorStartupTimeout,
		"Timeout for embedded Tor startup")

	// Analysis flags
	cmd.Flags().String("provider", "",
		"Base URL of the embedding/classification sidecar (empty uses the built-in offline analyzer)")

	// Storage and configuration flags
	cmd.Flags().String("data-dir", "",
		"Directory for the database and index snapshot (default: XDG data directory)")
	cmd.Flags().StringP("config", "c", "",
		"Monitor file path (default: .darkmonitor in current or home directory)")
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.FetchTimeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.CrawlDepth, err = cmd.Flags().GetInt("depth")
	if err != nil {
		return nil, err
	}

	cfg.MaxPages, err = cmd.Flags().GetInt("max-pages")
	if err != nil {
		return nil, err
	}

	cfg.CrawlDelay, err = cmd.Flags().GetDuration("delay")
	if err != nil {
		return nil, err
	}

	cfg.MaxConcurrentFetches, err = cmd.Flags().GetInt("concurrency")
	if err != nil {
		return nil, err
	}

	skipDuplicates, err := cmd.Flags().GetBool("skip-duplicates")
	if err != nil {
		return nil, err
	}
	cfg.StoreDuplicates = !skipDuplicates

	cfg.ProxyAddress, err = cmd.Flags().GetString("proxy")
	if err != nil {
		return nil, err
	}

	cfg.EmbeddedTor, err = cmd.Flags().GetBool("embedded-tor")
	if err != nil {
		return nil, err
	}

	cfg.TorStartupTimeout, err = cmd.Flags().GetDuration("tor-timeout")
	if err != nil {
		return nil, err
	}

	cfg.ProviderAddr, err = cmd.Flags().GetString("provider")
	if err != nil {
		return nil, err
	}

	dataDir, err := cmd.Flags().GetString("data-dir")
	if err != nil {
		return nil, err
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}

	cfg.Verbose = getVerboseFlag(cmd)

	cfg.MonitorFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// If the user explicitly specified a monitor file, error if not
	// found. Otherwise fall back to defaults when no file exists.
	explicitPath := cfg.MonitorFilePath != ""
	monitorPath := config.FindMonitorFile(cfg.MonitorFilePath)

	if monitorPath != "" {
		cfg.Monitor, err = config.LoadMonitorFile(monitorPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load monitor file %s: %w", monitorPath, err)
		}
	} else if explicitPath {
		return nil, fmt.Errorf("%w: %s", config.ErrMonitorFileNotFound, cfg.MonitorFilePath)
	}

	seeds, err := cmd.Flags().GetStringSlice("seed")
	if err != nil {
		return nil, err
	}
	cfg.Monitor.Seeds = append(cfg.Monitor.Seeds, seeds...)

	if cfg.Monitor.SimilarityThreshold > 0 {
		cfg.SimilarityThreshold = cfg.Monitor.SimilarityThreshold
	}
	if cfg.Monitor.ConfidenceFloor > 0 {
		cfg.ConfidenceFloor = cfg.Monitor.ConfidenceFloor
	}

	return cfg, nil
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// setupLogger creates a structured logger based on verbosity setting.
// Sensitive values (onion addresses, cookies, keys) are masked before
// they reach the log output.
func setupLogger(verbose bool) *slog.Logger {
	return log.NewSecureLogger(os.Stderr, verbose)
}

// ensureAnonRoute makes sure anonymized targets have a SOCKS proxy to go
// through. When no proxy address was given and none is listening on the
// standard loopback ports, it bootstraps an embedded Tor daemon if the
// user asked for one. A nil EmbeddedTor return means an external proxy
// (or none) is in use.
func ensureAnonRoute(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*tor.EmbeddedTor, error) {
	if cfg.ProxyAddress != "" || !cfg.EmbeddedTor {
		return nil, nil
	}

	if addr, err := tor.DetectProxy(ctx, config.DefaultProxyProbePorts, config.DefaultProxyProbeTimeout); err == nil {
		logger.Info("local anonymizing proxy detected", "address", addr)
		cfg.ProxyAddress = addr
		return nil, nil
	}

	return startEmbeddedTor(ctx, cfg, logger)
}

// startEmbeddedTor bootstraps an embedded Tor daemon and returns its
// SOCKS address. The caller owns the returned EmbeddedTor and must stop
// it on shutdown.
func startEmbeddedTor(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*tor.EmbeddedTor, error) {
	fmt.Println("Starting embedded Tor daemon...")
	fmt.Printf("This may take 1-3 minutes while Tor bootstraps and connects to the network.\n\n")

	embedded := tor.NewEmbeddedTor(
		tor.WithStartupTimeout(cfg.TorStartupTimeout),
	)

	if err := embedded.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start embedded Tor: %w", err)
	}

	logger.Info("embedded Tor daemon started", "socksAddr", embedded.SocksAddr())
	fmt.Printf("Embedded Tor daemon started, SOCKS proxy: %s\n\n", embedded.SocksAddr())

	cfg.ProxyAddress = embedded.SocksAddr()
	return embedded, nil
}
