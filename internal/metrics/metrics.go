package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "darkmonitor"

// Collector bundles every metric the monitor exports. All fields are
// safe for concurrent use.
type Collector struct {
	registry *prometheus.Registry

	// PagesFetched counts successfully fetched pages, labeled by route.
	PagesFetched *prometheus.CounterVec

	// FetchErrors counts fetches that failed and were abandoned.
	FetchErrors prometheus.Counter

	// ItemsCommitted counts items appended to the ingestion store.
	ItemsCommitted prometheus.Counter

	// DuplicatesDetected counts documents the dedup engine matched
	// against an earlier item.
	DuplicatesDetected prometheus.Counter

	// ThreatsDetected counts committed items with a threat verdict.
	ThreatsDetected prometheus.Counter

	// ProviderErrors counts failed embed or classify calls, labeled by
	// operation.
	ProviderErrors *prometheus.CounterVec

	// FeedSubscribers tracks currently connected live-feed subscribers.
	FeedSubscribers prometheus.Gauge

	// CrawlRunning is 1 while a crawl run is active.
	CrawlRunning prometheus.Gauge
}

// NewCollector creates a collector with its own registry, pre-populated
// with the Go runtime and process collectors.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	c := &Collector{
		registry: registry,
		PagesFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_fetched_total",
			Help:      "Pages fetched by the crawl frontier.",
		}, []string{"route"}),
		FetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_errors_total",
			Help:      "Fetches that failed and were abandoned.",
		}),
		ItemsCommitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_committed_total",
			Help:      "Items appended to the ingestion store.",
		}),
		DuplicatesDetected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicates_detected_total",
			Help:      "Documents matched against an earlier item.",
		}),
		ThreatsDetected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "threats_detected_total",
			Help:      "Committed items with a threat verdict.",
		}),
		ProviderErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_errors_total",
			Help:      "Failed inference provider calls.",
		}, []string{"operation"}),
		FeedSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "feed_subscribers",
			Help:      "Currently connected live-feed subscribers.",
		}),
		CrawlRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "crawl_running",
			Help:      "1 while a crawl run is active.",
		}),
	}

	registry.MustRegister(
		c.PagesFetched,
		c.FetchErrors,
		c.ItemsCommitted,
		c.DuplicatesDetected,
		c.ThreatsDetected,
		c.ProviderErrors,
		c.FeedSubscribers,
		c.CrawlRunning,
	)
	return c
}

// Handler returns the HTTP handler serving the /metrics endpoint.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
