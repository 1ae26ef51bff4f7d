package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync"

	"github.com/mohsinwazir/Dark-Web-Monitoring-tool/internal/ai"
	"github.com/mohsinwazir/Dark-Web-Monitoring-tool/internal/config"
	"github.com/mohsinwazir/Dark-Web-Monitoring-tool/internal/crawler"
	"github.com/mohsinwazir/Dark-Web-Monitoring-tool/internal/database"
	"github.com/mohsinwazir/Dark-Web-Monitoring-tool/internal/dedup"
	"github.com/mohsinwazir/Dark-Web-Monitoring-tool/internal/feed"
	"github.com/mohsinwazir/Dark-Web-Monitoring-tool/internal/metrics"
	"github.com/mohsinwazir/Dark-Web-Monitoring-tool/internal/model"
	"github.com/mohsinwazir/Dark-Web-Monitoring-tool/internal/normalize"
	"github.com/mohsinwazir/Dark-Web-Monitoring-tool/internal/pipeline"
	"github.com/mohsinwazir/Dark-Web-Monitoring-tool/internal/tor"
	"github.com/mohsinwazir/Dark-Web-Monitoring-tool/internal/triage"
)

// snapshotFileName is the dedup index snapshot inside the data
// directory.
const snapshotFileName = "index.gob"

// Monitor composes the full ingestion system and controls crawl runs.
type Monitor struct {
	cfg       *config.Config
	logger    *slog.Logger
	collector *metrics.Collector

	store         *database.Store
	index         *dedup.Index
	distributor   *feed.Distributor
	frontier      *crawler.Frontier
	provider      ai.Provider
	disambiguator *triage.Disambiguator
	normalizer    *normalize.Normalizer

	snapshotPath string

	mu      sync.Mutex
	running bool
	scope   model.Scope
	cancel  context.CancelFunc
	runDone chan struct{}
	closed  bool
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Monitor) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithCollector wires the Prometheus collector.
func WithCollector(collector *metrics.Collector) Option {
	return func(m *Monitor) {
		m.collector = collector
	}
}

// WithProvider injects the inference provider, overriding the one built
// from the configuration.
func WithProvider(provider ai.Provider) Option {
	return func(m *Monitor) {
		m.provider = provider
	}
}

// WithFrontier injects the crawl frontier, overriding the one built
// from the configuration.
func WithFrontier(frontier *crawler.Frontier) Option {
	return func(m *Monitor) {
		m.frontier = frontier
	}
}

// New builds a Monitor from the configuration: it opens the ingestion
// store, restores the dedup index snapshot, connects the inference
// provider, and prepares the route clients.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Monitor, error) {
	m := &Monitor{
		cfg:          cfg,
		logger:       slog.New(slog.DiscardHandler),
		snapshotPath: filepath.Join(cfg.DataDir, snapshotFileName),
	}
	for _, opt := range opts {
		opt(m)
	}

	store, err := database.Open(cfg.DataDir, database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("monitor: open store: %w", err)
	}
	m.store = store

	index, err := dedup.NewIndex(cfg.EmbeddingDim, dedup.WithThreshold(m.similarityThreshold()))
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("monitor: build index: %w", err)
	}
	if err := index.Load(m.snapshotPath); err != nil {
		m.logger.Warn("dedup snapshot not restored", slog.String("error", err.Error()))
	}
	m.index = index

	if m.provider == nil {
		m.provider = m.buildProvider()
	}

	disambiguator, err := triage.NewDisambiguator(m.provider,
		cfg.Monitor.ThreatLabels, cfg.Monitor.SafeLabels,
		triage.WithConfidenceFloor(m.confidenceFloor()),
		triage.WithSensitiveLabels(cfg.Monitor.SensitiveLabels))
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("monitor: build disambiguator: %w", err)
	}
	m.disambiguator = disambiguator

	m.normalizer = normalize.NewNormalizer(normalize.WithMaxTextLength(cfg.MaxTextLength))

	if m.frontier == nil {
		m.frontier = m.buildFrontier(ctx)
	}

	feedOpts := []feed.Option{
		feed.WithBackfill(cfg.FeedBackfill),
		feed.WithPollInterval(cfg.FeedPollInterval),
		feed.WithLogger(m.logger),
	}
	if m.collector != nil {
		feedOpts = append(feedOpts, feed.WithMetrics(m.collector))
	}
	m.distributor = feed.NewDistributor(store, feedOpts...)

	return m, nil
}

// similarityThreshold resolves the monitor-file override against the
// configured default.
func (m *Monitor) similarityThreshold() float64 {
	if m.cfg.Monitor.SimilarityThreshold > 0 {
		return m.cfg.Monitor.SimilarityThreshold
	}
	return m.cfg.SimilarityThreshold
}

func (m *Monitor) confidenceFloor() float64 {
	if m.cfg.Monitor.ConfidenceFloor > 0 {
		return m.cfg.Monitor.ConfidenceFloor
	}
	return m.cfg.ConfidenceFloor
}

// buildProvider connects the configured inference sidecar, or falls
// back to the offline provider when none is configured.
func (m *Monitor) buildProvider() ai.Provider {
	if m.cfg.ProviderAddr == "" {
		m.logger.Warn("no inference provider configured, using offline fallback")
		return ai.NewLocal(m.cfg.EmbeddingDim)
	}
	return ai.NewClient(m.cfg.ProviderAddr,
		ai.WithDimension(m.cfg.EmbeddingDim),
		ai.WithUserAgent(m.cfg.UserAgent))
}

// buildFrontier assembles the route clients and the frontier. A missing
// anonymizing proxy disables the anonymized route rather than failing
// startup.
func (m *Monitor) buildFrontier(ctx context.Context) *crawler.Frontier {
	directClient := &http.Client{Timeout: m.cfg.FetchTimeout}
	anonClient := m.buildAnonClient(ctx)

	return crawler.NewFrontier(directClient, anonClient,
		crawler.WithMetrics(m.collector),
		crawler.WithMaxDepth(m.cfg.CrawlDepth),
		crawler.WithMaxPages(m.cfg.MaxPages),
		crawler.WithDelay(m.cfg.CrawlDelay),
		crawler.WithFetchTimeout(m.cfg.FetchTimeout),
		crawler.WithUserAgent(m.cfg.UserAgent),
		crawler.WithMaxBodySize(m.cfg.MaxBodySize),
		crawler.WithConcurrency(m.cfg.MaxConcurrentFetches),
		crawler.WithLogger(m.logger))
}

func (m *Monitor) buildAnonClient(ctx context.Context) *http.Client {
	proxyAddress := m.cfg.ProxyAddress
	if proxyAddress == "" {
		detected, err := tor.DetectProxy(ctx, config.DefaultProxyProbePorts, config.DefaultProxyProbeTimeout)
		if err != nil {
			m.logger.Warn("no anonymizing proxy detected, anonymized targets will be skipped",
				slog.String("error", err.Error()))
			return nil
		}
		proxyAddress = detected
	}

	client, err := tor.NewClient(proxyAddress, m.cfg.FetchTimeout)
	if err != nil {
		m.logger.Warn("anonymizing proxy unusable",
			slog.String("proxy", proxyAddress),
			slog.String("error", err.Error()))
		return nil
	}

	// The probe above only confirms something accepts TCP on the port.
	// A SOCKS5 handshake rules out an unrelated service squatting there,
	// including an explicitly misconfigured --proxy address.
	if err := client.CheckConnection(ctx); err != nil {
		m.logger.Warn("anonymizing proxy failed SOCKS5 handshake, anonymized targets will be skipped",
			slog.String("proxy", proxyAddress),
			slog.String("error", err.Error()))
		return nil
	}

	m.logger.Info("anonymizing proxy connected", slog.String("proxy", proxyAddress))
	return client.NewHTTPClient()
}

// StartRun begins a crawl run over the configured seeds. It returns
// ErrRunActive while a run is in progress; the run itself proceeds in
// the background.
func (m *Monitor) StartRun(ctx context.Context, scope model.Scope) error {
	seeds := m.cfg.Monitor.Seeds
	if len(seeds) == 0 {
		return ErrNoSeeds
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if m.running {
		return ErrRunActive
	}

	pipelineOpts := []pipeline.Option{
		pipeline.WithLogger(m.logger),
		pipeline.WithWorkers(m.cfg.PipelineWorkers),
		pipeline.WithQueueSize(m.cfg.QueueSize),
		pipeline.WithStoreDuplicates(m.cfg.StoreDuplicates),
	}
	if m.collector != nil {
		pipelineOpts = append(pipelineOpts, pipeline.WithMetrics(m.collector))
	}
	pipe, err := pipeline.New(m.normalizer, m.provider, m.disambiguator, m.index, m.store, pipelineOpts...)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	m.running = true
	m.scope = scope
	m.cancel = cancel
	m.runDone = make(chan struct{})
	if m.collector != nil {
		m.collector.CrawlRunning.Set(1)
	}

	go m.run(runCtx, scope, seeds, pipe)
	return nil
}

// run drives one crawl to completion. It owns the pipeline lifecycle
// and the post-run index snapshot.
func (m *Monitor) run(ctx context.Context, scope model.Scope, seeds []string, pipe *pipeline.Pipeline) {
	defer func() {
		m.mu.Lock()
		m.running = false
		m.cancel = nil
		close(m.runDone)
		m.mu.Unlock()
		if m.collector != nil {
			m.collector.CrawlRunning.Set(0)
		}
	}()

	m.logger.Info("crawl run started",
		slog.String("scope", string(scope)),
		slog.Int("seeds", len(seeds)))

	pipe.Start(ctx)
	err := m.frontier.Crawl(ctx, scope, seeds, func(ctx context.Context, doc model.FetchedDocument) error {
		if m.collector != nil {
			m.collector.PagesFetched.WithLabelValues(string(doc.Route)).Inc()
		}
		return pipe.Submit(ctx, doc)
	})
	pipe.Stop()

	if err != nil && ctx.Err() == nil {
		m.logger.Error("crawl run failed", slog.String("error", err.Error()))
	} else {
		m.logger.Info("crawl run finished", slog.String("scope", string(scope)))
	}

	if err := m.index.Save(m.snapshotPath); err != nil {
		m.logger.Warn("dedup snapshot not saved", slog.String("error", err.Error()))
	}
}

// Status reports whether a run is active and its scope.
func (m *Monitor) Status() (bool, model.Scope) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running, m.scope
}

// Search queries the ingestion store.
func (m *Monitor) Search(ctx context.Context, q database.Query) ([]model.IngestedItem, error) {
	return m.store.Search(ctx, q)
}

// Stats summarizes the stored corpus.
func (m *Monitor) Stats(ctx context.Context) (database.Stats, error) {
	return m.store.GetStats(ctx)
}

// Subscribe attaches a live-feed consumer.
func (m *Monitor) Subscribe(ctx context.Context) <-chan model.IngestedItem {
	return m.distributor.Subscribe(ctx)
}

// WaitRun blocks until the active run finishes. It returns immediately
// when no run is active.
func (m *Monitor) WaitRun() {
	m.mu.Lock()
	done := m.runDone
	m.mu.Unlock()
	if done == nil {
		return
	}
	<-done
}

// Close cancels any active run, snapshots the dedup index, and closes
// the store.
func (m *Monitor) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	cancel := m.cancel
	done := m.runDone
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	if err := m.index.Save(m.snapshotPath); err != nil {
		m.logger.Warn("dedup snapshot not saved", slog.String("error", err.Error()))
	}
	return m.store.Close()
}
