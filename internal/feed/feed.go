package feed

import (
	"context"
	"log/slog"
	"time"

	"github.com/mohsinwazir/Dark-Web-Monitoring-tool/internal/database"
	"github.com/mohsinwazir/Dark-Web-Monitoring-tool/internal/metrics"
	"github.com/mohsinwazir/Dark-Web-Monitoring-tool/internal/model"
)

const (
	// DefaultBackfill is how many recent items a new subscriber receives
	// before live delivery begins.
	DefaultBackfill = 50

	// DefaultPollInterval is how often the distributor checks the store
	// for items past a subscriber's cursor.
	DefaultPollInterval = 3 * time.Second

	// pollBatchSize bounds one cursor advance.
	pollBatchSize = 100
)

// Distributor fans committed items out to subscribers. Each subscriber
// runs its own cursor over the store, so a slow consumer delays only
// itself.
type Distributor struct {
	store     *database.Store
	logger    *slog.Logger
	collector *metrics.Collector

	backfill     int
	pollInterval time.Duration
}

// Option configures a Distributor.
type Option func(*Distributor)

// WithBackfill sets how many recent items a new subscriber receives on
// connect. Zero disables backfill.
func WithBackfill(n int) Option {
	return func(d *Distributor) {
		if n >= 0 {
			d.backfill = n
		}
	}
}

// WithPollInterval sets the cursor polling interval.
func WithPollInterval(interval time.Duration) Option {
	return func(d *Distributor) {
		if interval > 0 {
			d.pollInterval = interval
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Distributor) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithMetrics wires the Prometheus collector.
func WithMetrics(collector *metrics.Collector) Option {
	return func(d *Distributor) {
		d.collector = collector
	}
}

// NewDistributor creates a distributor over the ingestion store.
func NewDistributor(store *database.Store, opts ...Option) *Distributor {
	d := &Distributor{
		store:        store,
		logger:       slog.New(slog.DiscardHandler),
		backfill:     DefaultBackfill,
		pollInterval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Subscribe starts delivery for one consumer. The returned channel is
// closed when ctx is canceled. Sends block until the consumer reads, so
// ordering holds even for slow consumers.
func (d *Distributor) Subscribe(ctx context.Context) <-chan model.IngestedItem {
	out := make(chan model.IngestedItem)
	go d.run(ctx, out)
	return out
}

func (d *Distributor) run(ctx context.Context, out chan<- model.IngestedItem) {
	defer close(out)

	if d.collector != nil {
		d.collector.FeedSubscribers.Inc()
		defer d.collector.FeedSubscribers.Dec()
	}

	cursor, err := d.sendBackfill(ctx, out)
	if err != nil {
		return
	}

	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cursor, err = d.sendAfter(ctx, out, cursor)
			if err != nil {
				return
			}
		}
	}
}

// sendBackfill delivers the most recent items in commit order and
// returns the cursor to poll from. The cursor starts at the newest
// committed sequence even when backfill is disabled, so live delivery
// never replays history.
func (d *Distributor) sendBackfill(ctx context.Context, out chan<- model.IngestedItem) (int64, error) {
	cursor, err := d.store.LastSeq(ctx)
	if err != nil {
		d.logger.Warn("feed backfill failed", slog.String("error", err.Error()))
		return 0, err
	}

	if d.backfill == 0 {
		return cursor, nil
	}

	items, err := d.store.RecentItems(ctx, d.backfill)
	if err != nil {
		d.logger.Warn("feed backfill failed", slog.String("error", err.Error()))
		return 0, err
	}
	for _, item := range items {
		if err := send(ctx, out, item); err != nil {
			return 0, err
		}
	}
	if n := len(items); n > 0 {
		cursor = items[n-1].Seq
	}
	return cursor, nil
}

// sendAfter drains every item past cursor and returns the new cursor.
func (d *Distributor) sendAfter(ctx context.Context, out chan<- model.IngestedItem, cursor int64) (int64, error) {
	for {
		items, err := d.store.ItemsAfter(ctx, cursor, pollBatchSize)
		if err != nil {
			d.logger.Warn("feed poll failed",
				slog.Int64("cursor", cursor),
				slog.String("error", err.Error()))
			// Transient store errors leave the cursor unchanged; the
			// next tick retries from the same position.
			return cursor, nil
		}
		if len(items) == 0 {
			return cursor, nil
		}

		for _, item := range items {
			if err := send(ctx, out, item); err != nil {
				return cursor, err
			}
			cursor = item.Seq
		}
	}
}

func send(ctx context.Context, out chan<- model.IngestedItem, item model.IngestedItem) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case out <- item:
		return nil
	}
}
