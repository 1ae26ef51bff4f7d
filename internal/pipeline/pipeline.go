package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/mohsinwazir/Dark-Web-Monitoring-tool/internal/ai"
	"github.com/mohsinwazir/Dark-Web-Monitoring-tool/internal/database"
	"github.com/mohsinwazir/Dark-Web-Monitoring-tool/internal/dedup"
	"github.com/mohsinwazir/Dark-Web-Monitoring-tool/internal/metrics"
	"github.com/mohsinwazir/Dark-Web-Monitoring-tool/internal/model"
	"github.com/mohsinwazir/Dark-Web-Monitoring-tool/internal/normalize"
	"github.com/mohsinwazir/Dark-Web-Monitoring-tool/internal/triage"
)

// Pipeline is the ingestion worker pool. Create one with New, call
// Start, feed it via Submit, and call Stop to drain and join the
// workers.
type Pipeline struct {
	normalizer *normalize.Normalizer
	embedder   ai.Embedder
	triage     *triage.Disambiguator
	index      *dedup.Index
	store      *database.Store

	logger          *slog.Logger
	collector       *metrics.Collector
	workers         int
	queueSize       int
	storeDuplicates bool

	mu      sync.Mutex
	queue   chan model.FetchedDocument
	done    chan struct{}
	stopped bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithMetrics wires the Prometheus collector.
func WithMetrics(collector *metrics.Collector) Option {
	return func(p *Pipeline) {
		p.collector = collector
	}
}

// WithWorkers sets the worker count.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithQueueSize sets the submission queue capacity. Submit blocks when
// the queue is full.
func WithQueueSize(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.queueSize = n
		}
	}
}

// WithStoreDuplicates controls whether documents flagged as duplicates
// are still committed, marked with the matched item's ID. When false
// they are dropped after detection.
func WithStoreDuplicates(store bool) Option {
	return func(p *Pipeline) {
		p.storeDuplicates = store
	}
}

// New creates a Pipeline over the five required stages.
func New(
	normalizer *normalize.Normalizer,
	embedder ai.Embedder,
	disambiguator *triage.Disambiguator,
	index *dedup.Index,
	store *database.Store,
	opts ...Option,
) (*Pipeline, error) {
	if normalizer == nil || embedder == nil || disambiguator == nil || index == nil || store == nil {
		return nil, ErrMissingDependency
	}

	p := &Pipeline{
		normalizer:      normalizer,
		embedder:        embedder,
		triage:          disambiguator,
		index:           index,
		store:           store,
		logger:          slog.New(slog.DiscardHandler),
		workers:         4,
		queueSize:       64,
		storeDuplicates: true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Start launches the worker pool. Workers exit when ctx is canceled or
// Stop closes the queue.
func (p *Pipeline) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.queue != nil {
		return
	}

	p.queue = make(chan model.FetchedDocument, p.queueSize)
	p.done = make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.work(ctx)
		}()
	}
	go func() {
		wg.Wait()
		close(p.done)
	}()
}

// Submit queues one fetched document, blocking while the queue is full.
// Submit must not be called concurrently with or after Stop; the
// producer finishes before the pipeline is drained.
func (p *Pipeline) Submit(ctx context.Context, doc model.FetchedDocument) error {
	p.mu.Lock()
	queue := p.queue
	stopped := p.stopped
	p.mu.Unlock()

	if queue == nil {
		return ErrNotStarted
	}
	if stopped {
		return ErrStopped
	}

	select {
	case queue <- doc:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop closes the queue and waits for the workers to drain it.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	if p.queue == nil || p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.queue)
	done := p.done
	p.mu.Unlock()

	<-done
}

func (p *Pipeline) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case doc, ok := <-p.queue:
			if !ok {
				return
			}
			if err := p.process(ctx, doc); err != nil {
				p.logger.Warn("document dropped",
					slog.String("url", doc.URL),
					slog.String("error", err.Error()))
			}
		}
	}
}

// process runs one document through the full ingestion chain. A
// returned error means the document was dropped without a commit;
// nothing is ever retried.
func (p *Pipeline) process(ctx context.Context, doc model.FetchedDocument) error {
	cleanText := p.normalizer.Normalize(doc.RawContent)

	item := model.IngestedItem{
		ID:       uuid.NewString(),
		URL:      doc.URL,
		Title:    doc.Title,
		Text:     cleanText,
		Entities: normalize.ExtractEntities(cleanText),
		Route:    doc.Route,
		Depth:    doc.Depth,
	}

	verdict := model.UnknownVerdict()
	if cleanText != "" {
		embedding, err := p.embedder.Embed(ctx, cleanText)
		if err != nil {
			p.providerError("embed")
			return fmt.Errorf("embed: %w", err)
		}

		dedupVerdict, err := p.index.CheckAndAdd(item.ID, embedding)
		if err != nil {
			return fmt.Errorf("dedup: %w", err)
		}

		if dedupVerdict.IsDuplicate {
			if p.collector != nil {
				p.collector.DuplicatesDetected.Inc()
			}
			if !p.storeDuplicates {
				p.logger.Debug("duplicate dropped",
					slog.String("url", doc.URL),
					slog.String("duplicate_of", dedupVerdict.MatchedItemID),
					slog.Float64("similarity", dedupVerdict.Similarity))
				return nil
			}
			item.Duplicate = true
			item.DuplicateOf = dedupVerdict.MatchedItemID
		}

		if item.Duplicate {
			// Duplicates inherit the matched item's triage outcome when
			// it is still available; the provider is not asked twice
			// about the same content.
			if original, err := p.store.GetItem(ctx, item.DuplicateOf); err == nil {
				item.Category = original.Category
				item.RiskScore = original.RiskScore
				item.SensitiveFlag = original.SensitiveFlag
				return p.commit(ctx, item, original.RiskScore > 0)
			}
		}

		verdict, err = p.triage.Classify(ctx, cleanText)
		if err != nil {
			p.providerError("classify")
			return fmt.Errorf("classify: %w", err)
		}
	}

	item.Category = verdict.Label
	item.RiskScore = triage.RiskScore(verdict)
	item.SensitiveFlag = p.triage.IsSensitive(verdict)

	return p.commit(ctx, item, verdict.IsThreat)
}

func (p *Pipeline) commit(ctx context.Context, item model.IngestedItem, isThreat bool) error {
	committed, err := p.store.Commit(ctx, item)
	if err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	if p.collector != nil {
		p.collector.ItemsCommitted.Inc()
		if isThreat {
			p.collector.ThreatsDetected.Inc()
		}
	}
	p.logger.Info("item committed",
		slog.Int64("seq", committed.Seq),
		slog.String("url", committed.URL),
		slog.String("category", committed.Category),
		slog.Float64("risk_score", committed.RiskScore),
		slog.Bool("duplicate", committed.Duplicate))
	return nil
}

func (p *Pipeline) providerError(operation string) {
	if p.collector != nil {
		p.collector.ProviderErrors.WithLabelValues(operation).Inc()
	}
}
