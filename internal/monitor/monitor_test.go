package monitor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mohsinwazir/Dark-Web-Monitoring-tool/internal/ai"
	"github.com/mohsinwazir/Dark-Web-Monitoring-tool/internal/config"
	"github.com/mohsinwazir/Dark-Web-Monitoring-tool/internal/crawler"
	"github.com/mohsinwazir/Dark-Web-Monitoring-tool/internal/database"
	"github.com/mohsinwazir/Dark-Web-Monitoring-tool/internal/model"
)

// stubProvider embeds deterministically and scores one threat label at
// a fixed confidence.
type stubProvider struct {
	local       *ai.Local
	threatScore float64
}

func newStubProvider(dim int, threatScore float64) *stubProvider {
	return &stubProvider{local: ai.NewLocal(dim), threatScore: threatScore}
}

func (s *stubProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	return s.local.Embed(ctx, text)
}

func (s *stubProvider) Classify(_ context.Context, _ string, labels []string) (map[string]float64, error) {
	scores := make(map[string]float64, len(labels))
	for _, label := range labels {
		scores[label] = 0.05
	}
	scores["illicit narcotics trading"] = s.threatScore
	return scores, nil
}

func testConfig(t *testing.T, seeds ...string) *config.Config {
	t.Helper()

	cfg := config.NewConfig()
	cfg.DataDir = t.TempDir()
	cfg.EmbeddingDim = 32
	cfg.CrawlDelay = 0
	cfg.FeedPollInterval = 10 * time.Millisecond
	cfg.Monitor.Seeds = seeds
	return cfg
}

func testFrontier(srv *httptest.Server) *crawler.Frontier {
	return crawler.NewFrontier(srv.Client(), nil,
		crawler.WithDelay(0),
		crawler.WithMaxDepth(1))
}

func newTestMonitor(t *testing.T, cfg *config.Config, srv *httptest.Server) *Monitor {
	t.Helper()

	m, err := New(context.Background(), cfg,
		WithProvider(newStubProvider(cfg.EmbeddingDim, 0.82)),
		WithFrontier(testFrontier(srv)))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		_ = m.Close()
	})
	return m
}

func TestMonitorRun(t *testing.T) {
	t.Parallel()

	t.Run("run ingests pages and feeds subscribers", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `<title>pharma</title><p>bulk narcotics listing with escrow</p>`)
		}))
		defer srv.Close()

		cfg := testConfig(t, srv.URL)
		m := newTestMonitor(t, cfg, srv)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		feedCh := m.Subscribe(ctx)

		if err := m.StartRun(context.Background(), model.ScopeClearnet); err != nil {
			t.Fatalf("StartRun() error = %v", err)
		}

		m.WaitRun()

		running, scope := m.Status()
		if running {
			t.Error("Status() still running after WaitRun")
		}
		if scope != model.ScopeClearnet {
			t.Errorf("Status() scope = %q, want clearnet", scope)
		}

		items, err := m.Search(context.Background(), database.Query{})
		if err != nil {
			t.Fatal(err)
		}
		if len(items) != 1 {
			t.Fatalf("stored %d items, want 1", len(items))
		}
		if items[0].Category != "illicit narcotics trading" {
			t.Errorf("Category = %q", items[0].Category)
		}
		if items[0].RiskScore != 0.82 {
			t.Errorf("RiskScore = %v, want 0.82", items[0].RiskScore)
		}

		select {
		case got := <-feedCh:
			if got.ID != items[0].ID {
				t.Errorf("feed delivered %q, want %q", got.ID, items[0].ID)
			}
		case <-time.After(5 * time.Second):
			t.Error("feed did not deliver the committed item")
		}

		stats, err := m.Stats(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if stats.TotalItems != 1 || stats.HighRisk != 1 {
			t.Errorf("stats = %+v, want one high-risk item", stats)
		}
	})

	t.Run("second run while active is rejected", func(t *testing.T) {
		t.Parallel()

		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			<-release
			fmt.Fprint(w, "<title>slow</title>")
		}))
		defer srv.Close()
		defer close(release)

		cfg := testConfig(t, srv.URL)
		m := newTestMonitor(t, cfg, srv)

		if err := m.StartRun(context.Background(), model.ScopeHybrid); err != nil {
			t.Fatalf("StartRun() error = %v", err)
		}
		if err := m.StartRun(context.Background(), model.ScopeHybrid); !errors.Is(err, ErrRunActive) {
			t.Errorf("second StartRun() error = %v, want ErrRunActive", err)
		}
	})

	t.Run("run without seeds is rejected", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()

		cfg := testConfig(t)
		m := newTestMonitor(t, cfg, srv)
		if err := m.StartRun(context.Background(), model.ScopeHybrid); !errors.Is(err, ErrNoSeeds) {
			t.Errorf("StartRun() error = %v, want ErrNoSeeds", err)
		}
	})

	t.Run("configured proxy that is not SOCKS5 disables the anonymized route", func(t *testing.T) {
		t.Parallel()

		// An HTTP server accepts the TCP dial but fails the SOCKS5
		// handshake, so the monitor must not route onion targets
		// through it.
		notSocks := httptest.NewServer(http.NotFoundHandler())
		defer notSocks.Close()

		cfg := testConfig(t, "http://expyuzz4wqqyqhjn.onion/")
		cfg.ProxyAddress = strings.TrimPrefix(notSocks.URL, "http://")

		m, err := New(context.Background(), cfg,
			WithProvider(newStubProvider(cfg.EmbeddingDim, 0.82)))
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		defer func() {
			_ = m.Close()
		}()

		if err := m.StartRun(context.Background(), model.ScopeAnonymized); err != nil {
			t.Fatalf("StartRun() error = %v", err)
		}
		m.WaitRun()

		stats, err := m.Stats(context.Background())
		if err != nil {
			t.Fatalf("Stats() error = %v", err)
		}
		if stats.TotalItems != 0 {
			t.Errorf("ingested %d items through a non-SOCKS proxy, want 0", stats.TotalItems)
		}
	})

	t.Run("run after close is rejected", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()

		cfg := testConfig(t, srv.URL)
		m := newTestMonitor(t, cfg, srv)
		if err := m.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
		if err := m.StartRun(context.Background(), model.ScopeHybrid); !errors.Is(err, ErrClosed) {
			t.Errorf("StartRun() error = %v, want ErrClosed", err)
		}
	})
}

func TestMonitorPersistence(t *testing.T) {
	t.Parallel()

	t.Run("dedup index survives restart", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `<title>static</title><p>identical mirror content every visit</p>`)
		}))
		defer srv.Close()

		cfg := testConfig(t, srv.URL)

		first := newTestMonitor(t, cfg, srv)
		if err := first.StartRun(context.Background(), model.ScopeClearnet); err != nil {
			t.Fatal(err)
		}
		first.WaitRun()
		if err := first.Close(); err != nil {
			t.Fatal(err)
		}

		if _, err := os.Stat(filepath.Join(cfg.DataDir, snapshotFileName)); err != nil {
			t.Fatalf("index snapshot missing after close: %v", err)
		}

		second := newTestMonitor(t, cfg, srv)
		if err := second.StartRun(context.Background(), model.ScopeClearnet); err != nil {
			t.Fatal(err)
		}
		second.WaitRun()

		items, err := second.Search(context.Background(), database.Query{})
		if err != nil {
			t.Fatal(err)
		}
		if len(items) != 2 {
			t.Fatalf("stored %d items, want 2 across both runs", len(items))
		}
		// Newest first: the second run's item must be the duplicate.
		if !items[0].Duplicate {
			t.Errorf("restart item not flagged as duplicate: %+v", items[0])
		}
		if items[1].Duplicate {
			t.Errorf("first run's item flagged as duplicate: %+v", items[1])
		}
	})
}
