package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values. The disambiguation floor and similarity
// threshold are tunable parameters, not derived invariants; the defaults
// match the calibration the label sets were tuned against.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "darkmonitor"

	// DefaultProxyProbeTimeout bounds the startup probe for a local
	// anonymizing proxy. The probe is a bare TCP dial on the loopback
	// interface, so anything beyond a fraction of a second means the
	// proxy is not there.
	DefaultProxyProbeTimeout = 800 * time.Millisecond

	// DefaultFetchTimeout is the per-request timeout after which a fetch
	// is abandoned and logged, not retried. Anonymized routes add several
	// relay hops, so this is far more generous than a clearnet default.
	DefaultFetchTimeout = 40 * time.Second

	// DefaultCrawlDepth limits link recursion from the seeds. Depth 0 is
	// reserved for seeds themselves.
	DefaultCrawlDepth = 2

	// DefaultCrawlDelay is the minimum inter-request delay per domain.
	DefaultCrawlDelay = 1 * time.Second

	// DefaultMaxConcurrentFetches caps fetches across all domains. Each
	// individual domain still gets at most one in-flight fetch.
	DefaultMaxConcurrentFetches = 8

	// DefaultMaxPages bounds the total pages fetched per run, preventing
	// runaway crawling on large or infinitely-generating sites.
	DefaultMaxPages = 200

	// DefaultMaxBodySize limits the response body size to read.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultMaxTextLength bounds the normalized clean text kept per
	// document.
	DefaultMaxTextLength = 5000

	// DefaultEmbeddingDim is the embedding vector dimension. Must match
	// the embedding provider's output.
	DefaultEmbeddingDim = 384

	// DefaultSimilarityThreshold is the inclusive near-duplicate
	// boundary on 1/(1+distance) similarity.
	DefaultSimilarityThreshold = 0.95

	// DefaultConfidenceFloor is the minimum confidence a threat label
	// needs to be surfaced as a threat rather than uncertain noise.
	DefaultConfidenceFloor = 0.6

	// DefaultPipelineWorkers is the number of documents processed
	// concurrently behind the fetch queue.
	DefaultPipelineWorkers = 4

	// DefaultQueueSize bounds the fetch-to-processing handoff queue.
	DefaultQueueSize = 64

	// DefaultFeedBackfill is how many recent items a newly connected
	// live-feed subscriber receives before live delivery starts.
	DefaultFeedBackfill = 50

	// DefaultFeedPollInterval is how often the feed distributor checks
	// the store for items committed past a subscriber's cursor.
	DefaultFeedPollInterval = 3 * time.Second

	// DefaultListenAddr is the HTTP control surface bind address.
	DefaultListenAddr = "127.0.0.1:8080"

	// DefaultUserAgent identifies the monitor in HTTP requests.
	DefaultUserAgent = "darkmonitor/1.0"

	// DefaultTorStartupTimeout is the maximum time to wait for the
	// embedded Tor daemon to bootstrap when no local proxy is found.
	DefaultTorStartupTimeout = 3 * time.Minute
)

// DefaultProxyProbePorts are the loopback ports checked for a running
// anonymizing proxy, in order: the Tor daemon's default SOCKS port and the
// Tor Browser bundle's.
var DefaultProxyProbePorts = []int{9050, 9150}

// Config holds all runtime options. It is populated from CLI flags and the
// monitor file and passed through the application by explicit injection;
// there is no ambient global configuration.
type Config struct {
	// ListenAddr is the HTTP control surface bind address.
	ListenAddr string

	// FetchTimeout is the per-request timeout for page fetches.
	FetchTimeout time.Duration

	// CrawlDepth is the maximum link recursion depth from the seeds.
	CrawlDepth int

	// CrawlDelay is the minimum delay between requests to one domain.
	CrawlDelay time.Duration

	// MaxConcurrentFetches caps in-flight fetches across all domains.
	MaxConcurrentFetches int

	// MaxPages bounds the total pages fetched per run.
	MaxPages int

	// MaxBodySize limits response body bytes read per fetch.
	MaxBodySize int64

	// MaxTextLength bounds the normalized text kept per document.
	MaxTextLength int

	// EmbeddingDim is the embedding vector dimension.
	EmbeddingDim int

	// SimilarityThreshold is the inclusive near-duplicate boundary.
	SimilarityThreshold float64

	// ConfidenceFloor is the minimum threat-label confidence for a
	// threat verdict.
	ConfidenceFloor float64

	// StoreDuplicates controls whether near-duplicate documents are
	// still committed (with the verdict recorded) or discarded. The
	// dedup engine itself is advisory either way.
	StoreDuplicates bool

	// PipelineWorkers is the number of concurrent document processors.
	PipelineWorkers int

	// QueueSize bounds the fetch-to-processing queue.
	QueueSize int

	// FeedBackfill is the live-feed backfill size per new subscriber.
	FeedBackfill int

	// FeedPollInterval is the live-feed cursor polling interval.
	FeedPollInterval time.Duration

	// ProviderAddr is the base URL of the embedding/classification
	// inference sidecar.
	ProviderAddr string

	// ProxyAddress is the anonymizing proxy SOCKS5 address. Empty means
	// probe the default loopback ports at startup.
	ProxyAddress string

	// EmbeddedTor launches an embedded Tor daemon when no local proxy is
	// detected. When false, anonymized targets are skipped instead.
	EmbeddedTor bool

	// TorStartupTimeout bounds embedded Tor bootstrap.
	TorStartupTimeout time.Duration

	// DataDir is the directory for the SQLite database and the dedup
	// index snapshot. Defaults to the XDG data directory.
	DataDir string

	// UserAgent is sent with every page fetch.
	UserAgent string

	// Verbose enables debug-level logging.
	Verbose bool

	// MonitorFilePath is the path to the monitor file. Empty means
	// search the default locations.
	MonitorFilePath string

	// Monitor holds seeds, label sets, and overrides loaded from the
	// monitor file.
	Monitor *File
}

// NewConfig returns a Config with every default applied. Many defaults are
// non-zero, so relying on zero values would be wrong.
func NewConfig() *Config {
	return &Config{
		ListenAddr:           DefaultListenAddr,
		FetchTimeout:         DefaultFetchTimeout,
		CrawlDepth:           DefaultCrawlDepth,
		CrawlDelay:           DefaultCrawlDelay,
		MaxConcurrentFetches: DefaultMaxConcurrentFetches,
		MaxPages:             DefaultMaxPages,
		MaxBodySize:          DefaultMaxBodySize,
		MaxTextLength:        DefaultMaxTextLength,
		EmbeddingDim:         DefaultEmbeddingDim,
		SimilarityThreshold:  DefaultSimilarityThreshold,
		ConfidenceFloor:      DefaultConfidenceFloor,
		StoreDuplicates:      true,
		PipelineWorkers:      DefaultPipelineWorkers,
		QueueSize:            DefaultQueueSize,
		FeedBackfill:         DefaultFeedBackfill,
		FeedPollInterval:     DefaultFeedPollInterval,
		TorStartupTimeout:    DefaultTorStartupTimeout,
		DataDir:              XDGDataDir(),
		UserAgent:            DefaultUserAgent,
		Monitor:              NewFile(),
	}
}

// XDGDataDir returns the XDG data directory for the monitor.
// On Linux: ~/.local/share/darkmonitor
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for the monitor.
// On Linux: ~/.config/darkmonitor
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the configuration and returns the first problem found.
// Called once after flag parsing, before any crawling begins.
func (c *Config) Validate() error {
	if c.FetchTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.CrawlDepth < 0 {
		return ErrInvalidDepth
	}
	if c.CrawlDelay < 0 {
		return ErrInvalidCrawlDelay
	}
	if c.MaxConcurrentFetches <= 0 {
		return ErrInvalidConcurrency
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.EmbeddingDim <= 0 {
		return ErrInvalidEmbeddingDim
	}
	if c.SimilarityThreshold <= 0 || c.SimilarityThreshold > 1 {
		return ErrInvalidThreshold
	}
	if c.ConfidenceFloor < 0 || c.ConfidenceFloor > 1 {
		return ErrInvalidConfidenceFloor
	}
	if c.PipelineWorkers <= 0 {
		return ErrInvalidWorkers
	}
	if err := c.Monitor.Validate(); err != nil {
		return err
	}
	return nil
}
