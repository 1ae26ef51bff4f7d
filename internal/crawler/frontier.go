package crawler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mohsinwazir/Dark-Web-Monitoring-tool/internal/metrics"
	"github.com/mohsinwazir/Dark-Web-Monitoring-tool/internal/model"
	"github.com/mohsinwazir/Dark-Web-Monitoring-tool/internal/tor"
)

// EmitFunc receives each successfully fetched page. The frontier calls
// it from a single goroutine, in fetch-completion order, which with
// concurrent fetches can differ from discovery order. Returning an
// error aborts the crawl.
type EmitFunc func(ctx context.Context, doc model.FetchedDocument) error

// Frontier expands seeds breadth-first within a scope. Fetches run
// concurrently up to a global limit, with one in-flight request per
// host and a politeness delay between requests to the same host.
type Frontier struct {
	// directClient fetches clearnet targets. Nil disables direct fetches.
	directClient *http.Client

	// anonClient fetches onion targets through the anonymizing proxy.
	// Nil disables anonymized fetches.
	anonClient *http.Client

	logger    *slog.Logger
	collector *metrics.Collector

	maxDepth     int
	maxPages     int
	delay        time.Duration
	fetchTimeout time.Duration
	userAgent    string
	maxBodySize  int64
	concurrency  int
}

// FrontierOption configures a Frontier.
type FrontierOption func(*Frontier)

// WithMaxDepth sets the maximum crawl depth. Seeds are depth 0; links
// found at maxDepth are not followed.
func WithMaxDepth(depth int) FrontierOption {
	return func(f *Frontier) {
		f.maxDepth = depth
	}
}

// WithMaxPages caps the number of pages fetched in one crawl.
func WithMaxPages(maxPages int) FrontierOption {
	return func(f *Frontier) {
		f.maxPages = maxPages
	}
}

// WithDelay sets the politeness delay between requests to the same host.
func WithDelay(d time.Duration) FrontierOption {
	return func(f *Frontier) {
		f.delay = d
	}
}

// WithFetchTimeout bounds each individual page fetch.
func WithFetchTimeout(d time.Duration) FrontierOption {
	return func(f *Frontier) {
		f.fetchTimeout = d
	}
}

// WithUserAgent sets the User-Agent header for all fetches.
func WithUserAgent(ua string) FrontierOption {
	return func(f *Frontier) {
		f.userAgent = ua
	}
}

// WithMaxBodySize limits how many response bytes are read per page.
func WithMaxBodySize(size int64) FrontierOption {
	return func(f *Frontier) {
		f.maxBodySize = size
	}
}

// WithConcurrency sets the global in-flight fetch limit.
func WithConcurrency(n int) FrontierOption {
	return func(f *Frontier) {
		if n > 0 {
			f.concurrency = n
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) FrontierOption {
	return func(f *Frontier) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithMetrics sets the metrics collector. Nil disables metrics.
func WithMetrics(collector *metrics.Collector) FrontierOption {
	return func(f *Frontier) {
		f.collector = collector
	}
}

// NewFrontier creates a frontier over the given route clients. Either
// client may be nil; targets requiring a missing client are skipped.
func NewFrontier(directClient, anonClient *http.Client, opts ...FrontierOption) *Frontier {
	f := &Frontier{
		directClient: directClient,
		anonClient:   anonClient,
		logger:       slog.New(slog.DiscardHandler),
		maxDepth:     2,
		maxPages:     200,
		delay:        1 * time.Second,
		fetchTimeout: 40 * time.Second,
		userAgent:    "darkmonitor/1.0",
		maxBodySize:  5 * 1024 * 1024,
		concurrency:  8,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// fetchOutcome carries one worker's result back to the coordinator.
type fetchOutcome struct {
	target model.CrawlTarget
	doc    model.FetchedDocument
	links  []string
	err    error
}

// Crawl expands the seeds within scope and emits every fetched page.
// Fetch failures are logged and the target abandoned; the crawl itself
// fails only on context cancellation or an emit error.
func (f *Frontier) Crawl(ctx context.Context, scope model.Scope, seeds []string, emit EmitFunc) error {
	if len(seeds) == 0 {
		return ErrNoSeeds
	}

	seen := make(map[string]bool)
	queue := make([]model.CrawlTarget, 0, len(seeds))
	for _, seed := range seeds {
		if t, ok := f.admit(scope, seen, model.NewCrawlTarget(seed, 0)); ok {
			queue = append(queue, t)
		}
	}

	crawlCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(crawlCtx)
	g.SetLimit(f.concurrency)

	limiter := newHostLimiter(f.delay)
	results := make(chan fetchOutcome, f.concurrency)

	pending := 0
	fetched := 0
	var emitErr error

	dispatch := func(t model.CrawlTarget) bool {
		ok := g.TryGo(func() error {
			outcome := f.fetch(gctx, limiter, t)
			select {
			case results <- outcome:
			case <-gctx.Done():
			}
			return nil
		})
		return ok
	}

	for (len(queue) > 0 || pending > 0) && emitErr == nil && ctx.Err() == nil {
		dispatched := false
		if len(queue) > 0 && fetched+pending < f.maxPages {
			if dispatch(queue[0]) {
				queue = queue[1:]
				pending++
				dispatched = true
			}
		} else if pending == 0 {
			// Remaining queue is over the page cap.
			break
		}

		if dispatched {
			continue
		}

		select {
		case <-ctx.Done():
		case outcome := <-results:
			pending--
			if outcome.err != nil {
				if f.collector != nil {
					f.collector.FetchErrors.Inc()
				}
				f.logger.Warn("fetch failed, abandoning target",
					slog.String("url", outcome.target.URL),
					slog.Int("depth", outcome.target.Depth),
					slog.String("error", outcome.err.Error()))
				continue
			}

			fetched++
			if err := emit(ctx, outcome.doc); err != nil {
				emitErr = err
				continue
			}

			if outcome.target.Depth >= f.maxDepth {
				continue
			}
			for _, link := range outcome.links {
				child := model.NewCrawlTarget(link, outcome.target.Depth+1)
				if t, ok := f.admit(scope, seen, child); ok {
					queue = append(queue, t)
				}
			}
		}
	}

	// Unblock any workers still waiting to report before joining them.
	cancel()
	_ = g.Wait()
	if emitErr != nil {
		return emitErr
	}
	return ctx.Err()
}

// admit applies the scope and seen-set filters and marks admitted
// targets as seen.
func (f *Frontier) admit(scope model.Scope, seen map[string]bool, t model.CrawlTarget) (model.CrawlTarget, bool) {
	if !scope.Allows(t.RequiresAnonymousRoute) {
		return model.CrawlTarget{}, false
	}
	if f.clientFor(t) == nil {
		return model.CrawlTarget{}, false
	}

	key := normalizeURL(t.URL)
	if seen[key] {
		return model.CrawlTarget{}, false
	}
	seen[key] = true
	return t, true
}

func (f *Frontier) clientFor(t model.CrawlTarget) *http.Client {
	if t.RequiresAnonymousRoute {
		return f.anonClient
	}
	return f.directClient
}

// fetch downloads one target over its required route and parses out the
// title and links.
func (f *Frontier) fetch(ctx context.Context, limiter *hostLimiter, t model.CrawlTarget) fetchOutcome {
	outcome := fetchOutcome{target: t}

	client := f.clientFor(t)
	if client == nil {
		outcome.err = ErrNoRouteClient
		return outcome
	}

	u, err := url.Parse(t.URL)
	if err != nil {
		outcome.err = err
		return outcome
	}

	release, err := limiter.acquire(ctx, u.Hostname())
	if err != nil {
		outcome.err = err
		return outcome
	}
	defer release()

	fctx, cancel := context.WithTimeout(ctx, f.fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fctx, http.MethodGet, t.URL, nil)
	if err != nil {
		outcome.err = err
		return outcome
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := client.Do(req)
	if err != nil {
		outcome.err = err
		return outcome
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		outcome.err = fmt.Errorf("unexpected status %s", resp.Status)
		return outcome
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		outcome.err = err
		return outcome
	}

	route := model.RouteDirect
	if t.RequiresAnonymousRoute {
		route = model.RouteAnonymized
	}
	outcome.doc = model.FetchedDocument{
		URL:        t.URL,
		RawContent: string(body),
		Route:      route,
		Depth:      t.Depth,
		FetchedAt:  time.Now().UTC(),
	}

	if strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
		if parser, err := NewParser(t.URL); err == nil {
			if result, err := parser.Parse(strings.NewReader(outcome.doc.RawContent)); err == nil {
				outcome.doc.Title = result.Title
				outcome.links = result.Links
				for _, addr := range result.OnionAddresses {
					// v3-length candidates get full checksum validation;
					// the content regex alone accepts corrupted addresses
					// Tor would refuse to resolve. Shorter legacy-format
					// mentions carry no checksum to verify.
					if len(addr) == tor.OnionV3Length+len(tor.OnionSuffix) && !tor.IsValidV3Address(addr) {
						f.logger.Debug("dropping onion mention with bad checksum",
							slog.String("address", addr))
						continue
					}
					outcome.links = append(outcome.links, "http://"+addr+"/")
				}
			}
		}
	}
	return outcome
}

// normalizeURL canonicalizes a URL for the seen set: lowercased scheme
// and host, no fragment, and "" and "/" paths treated as the same.
func normalizeURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	u.Fragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String()
}

// hostLimiter serializes fetches per host and enforces a minimum delay
// between consecutive requests to the same host.
type hostLimiter struct {
	delay time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex
	last  map[string]time.Time
}

func newHostLimiter(delay time.Duration) *hostLimiter {
	return &hostLimiter{
		delay: delay,
		locks: make(map[string]*sync.Mutex),
		last:  make(map[string]time.Time),
	}
}

// acquire blocks until the caller may fetch from host, then returns a
// release function that records the fetch time and frees the host.
func (l *hostLimiter) acquire(ctx context.Context, host string) (func(), error) {
	l.mu.Lock()
	hostMu, ok := l.locks[host]
	if !ok {
		hostMu = &sync.Mutex{}
		l.locks[host] = hostMu
	}
	l.mu.Unlock()

	hostMu.Lock()

	l.mu.Lock()
	wait := l.delay - time.Since(l.last[host])
	l.mu.Unlock()

	if wait > 0 {
		select {
		case <-ctx.Done():
			hostMu.Unlock()
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}

	release := func() {
		l.mu.Lock()
		l.last[host] = time.Now()
		l.mu.Unlock()
		hostMu.Unlock()
	}
	return release, nil
}
