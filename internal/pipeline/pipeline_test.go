package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mohsinwazir/Dark-Web-Monitoring-tool/internal/ai"
	"github.com/mohsinwazir/Dark-Web-Monitoring-tool/internal/database"
	"github.com/mohsinwazir/Dark-Web-Monitoring-tool/internal/dedup"
	"github.com/mohsinwazir/Dark-Web-Monitoring-tool/internal/feed"
	"github.com/mohsinwazir/Dark-Web-Monitoring-tool/internal/model"
	"github.com/mohsinwazir/Dark-Web-Monitoring-tool/internal/normalize"
	"github.com/mohsinwazir/Dark-Web-Monitoring-tool/internal/triage"
)

// keywordClassifier scores the weapons threat label high when the text
// mentions weapons, and the safe label high otherwise. Calls are
// counted so tests can assert the provider was or wasn't consulted.
type keywordClassifier struct {
	calls atomic.Int64
}

func (k *keywordClassifier) Classify(_ context.Context, text string, labels []string) (map[string]float64, error) {
	k.calls.Add(1)
	scores := make(map[string]float64, len(labels))
	for _, label := range labels {
		scores[label] = 0.1
	}
	if strings.Contains(text, "weapons") {
		scores["illegal weapons trafficking"] = 0.9
	} else {
		scores["news & journalism"] = 0.8
	}
	return scores, nil
}

// gatedEmbedder delays embeddings for texts containing "slow" until the
// gate closes, letting tests force a completion order.
type gatedEmbedder struct {
	local *ai.Local
	gate  chan struct{}
}

func (g *gatedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.Contains(text, "slow") {
		select {
		case <-g.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return g.local.Embed(ctx, text)
}

// waitForItems polls the store until n items are committed.
func waitForItems(t *testing.T, store *database.Store, n int) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for {
		items, err := store.ItemsAfter(context.Background(), 0, 100)
		if err != nil {
			t.Fatal(err)
		}
		if len(items) >= n {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d committed items, have %d", n, len(items))
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// failingEmbedder fails every call.
type failingEmbedder struct{}

func (failingEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, errors.New("provider down")
}

type testHarness struct {
	pipeline   *Pipeline
	store      *database.Store
	index      *dedup.Index
	classifier *keywordClassifier
}

func newHarness(t *testing.T, opts ...Option) *testHarness {
	t.Helper()

	store, err := database.Open(t.TempDir(), database.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	index, err := dedup.NewIndex(32)
	if err != nil {
		t.Fatal(err)
	}

	classifier := &keywordClassifier{}
	disambiguator, err := triage.NewDisambiguator(classifier,
		[]string{"illegal weapons trafficking"},
		[]string{"news & journalism"},
		triage.WithSensitiveLabels([]string{"human trafficking & exploitation"}))
	if err != nil {
		t.Fatal(err)
	}

	p, err := New(normalize.NewNormalizer(), ai.NewLocal(32), disambiguator, index, store, opts...)
	if err != nil {
		t.Fatal(err)
	}
	return &testHarness{pipeline: p, store: store, index: index, classifier: classifier}
}

func fetchedDoc(url, body string) model.FetchedDocument {
	return model.FetchedDocument{
		URL:        url,
		Title:      "listing",
		RawContent: body,
		Route:      model.RouteAnonymized,
		Depth:      1,
	}
}

func runDocs(t *testing.T, h *testHarness, docs ...model.FetchedDocument) {
	t.Helper()

	ctx := context.Background()
	h.pipeline.Start(ctx)
	for _, doc := range docs {
		if err := h.pipeline.Submit(ctx, doc); err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
	}
	h.pipeline.Stop()
}

func TestPipelineProcess(t *testing.T) {
	t.Parallel()

	t.Run("threat document commits with risk score and entities", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		body := `<html><title>armory</title><body>
			<p>military weapons shipped from Germany for $2,000</p>
		</body></html>`
		runDocs(t, h, fetchedDoc("http://armory.onion/", body))

		items, err := h.store.ItemsAfter(context.Background(), 0, 10)
		if err != nil {
			t.Fatal(err)
		}
		if len(items) != 1 {
			t.Fatalf("committed %d items, want 1", len(items))
		}

		item := items[0]
		if item.Category != "illegal weapons trafficking" {
			t.Errorf("Category = %q", item.Category)
		}
		if item.RiskScore != 0.9 {
			t.Errorf("RiskScore = %v, want 0.9", item.RiskScore)
		}
		if item.Route != model.RouteAnonymized || item.Depth != 1 {
			t.Errorf("route/depth = %q/%d", item.Route, item.Depth)
		}
		if len(item.Entities[model.EntityMoney]) == 0 {
			t.Errorf("MONEY entities empty, text = %q", item.Text)
		}
		if strings.Contains(item.Text, "<") {
			t.Errorf("text still contains markup: %q", item.Text)
		}
	})

	t.Run("safe document commits with zero risk", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		runDocs(t, h, fetchedDoc("http://press.onion/", "<p>independent onion press coverage</p>"))

		items, err := h.store.ItemsAfter(context.Background(), 0, 10)
		if err != nil {
			t.Fatal(err)
		}
		if len(items) != 1 {
			t.Fatalf("committed %d items, want 1", len(items))
		}
		if items[0].Category != "news & journalism" {
			t.Errorf("Category = %q", items[0].Category)
		}
		if items[0].RiskScore != 0 {
			t.Errorf("RiskScore = %v, want 0", items[0].RiskScore)
		}
	})

	t.Run("duplicate inherits verdict without reclassification", func(t *testing.T) {
		t.Parallel()

		// One worker serializes processing so the original is committed
		// before its mirror is examined.
		h := newHarness(t, WithWorkers(1))
		body := "<p>military weapons catalog spring edition</p>"
		runDocs(t, h,
			fetchedDoc("http://a.onion/", body),
			fetchedDoc("http://b.onion/mirror", body))

		items, err := h.store.ItemsAfter(context.Background(), 0, 10)
		if err != nil {
			t.Fatal(err)
		}
		if len(items) != 2 {
			t.Fatalf("committed %d items, want 2", len(items))
		}

		original, dup := items[0], items[1]
		if original.Duplicate {
			t.Error("first item flagged as duplicate")
		}
		if !dup.Duplicate {
			t.Fatal("second item not flagged as duplicate")
		}
		if dup.DuplicateOf != original.ID {
			t.Errorf("DuplicateOf = %q, want %q", dup.DuplicateOf, original.ID)
		}
		if dup.Category != original.Category || dup.RiskScore != original.RiskScore {
			t.Errorf("duplicate verdict %q/%v differs from original %q/%v",
				dup.Category, dup.RiskScore, original.Category, original.RiskScore)
		}
		if got := h.classifier.calls.Load(); got != 1 {
			t.Errorf("classifier called %d times, want 1", got)
		}
		if h.index.Len() != 1 {
			t.Errorf("index holds %d vectors, want 1", h.index.Len())
		}
	})

	t.Run("duplicates dropped when storage is disabled", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t, WithStoreDuplicates(false), WithWorkers(1))
		body := "<p>military weapons catalog spring edition</p>"
		runDocs(t, h,
			fetchedDoc("http://a.onion/", body),
			fetchedDoc("http://b.onion/mirror", body))

		items, err := h.store.ItemsAfter(context.Background(), 0, 10)
		if err != nil {
			t.Fatal(err)
		}
		if len(items) != 1 {
			t.Errorf("committed %d items, want 1", len(items))
		}
	})

	t.Run("empty content commits unknown without provider calls", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		runDocs(t, h, fetchedDoc("http://blank.onion/", "<script>var x = 1;</script>"))

		items, err := h.store.ItemsAfter(context.Background(), 0, 10)
		if err != nil {
			t.Fatal(err)
		}
		if len(items) != 1 {
			t.Fatalf("committed %d items, want 1", len(items))
		}
		if items[0].Category != model.LabelUnknown {
			t.Errorf("Category = %q, want %q", items[0].Category, model.LabelUnknown)
		}
		if items[0].Text != "" {
			t.Errorf("Text = %q, want empty", items[0].Text)
		}
		if got := h.classifier.calls.Load(); got != 0 {
			t.Errorf("classifier called %d times, want 0", got)
		}
		if h.index.Len() != 0 {
			t.Errorf("index holds %d vectors, want 0", h.index.Len())
		}
	})

	t.Run("embed failure drops the document", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		p, err := New(normalize.NewNormalizer(), failingEmbedder{},
			mustDisambiguator(t), h.index, h.store)
		if err != nil {
			t.Fatal(err)
		}

		ctx := context.Background()
		p.Start(ctx)
		if err := p.Submit(ctx, fetchedDoc("http://a.onion/", "<p>some weapons text</p>")); err != nil {
			t.Fatal(err)
		}
		p.Stop()

		items, err := h.store.ItemsAfter(ctx, 0, 10)
		if err != nil {
			t.Fatal(err)
		}
		if len(items) != 0 {
			t.Errorf("committed %d items, want 0 after embed failure", len(items))
		}
	})

	t.Run("commits follow completion order, not submission order", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		embedder := &gatedEmbedder{local: ai.NewLocal(32), gate: make(chan struct{})}
		p, err := New(normalize.NewNormalizer(), embedder,
			mustDisambiguator(t), h.index, h.store, WithWorkers(2))
		if err != nil {
			t.Fatal(err)
		}

		ctx := context.Background()
		p.Start(ctx)

		// The first submission stalls in the embedder until released,
		// so the second provably finishes and commits first.
		slow := fetchedDoc("http://stalled.onion/", "<p>slow weapons shipment manifest</p>")
		fast := fetchedDoc("http://press.onion/", "<p>quick coverage of local elections</p>")
		if err := p.Submit(ctx, slow); err != nil {
			t.Fatal(err)
		}
		if err := p.Submit(ctx, fast); err != nil {
			t.Fatal(err)
		}

		waitForItems(t, h.store, 1)
		close(embedder.gate)
		p.Stop()

		items, err := h.store.ItemsAfter(ctx, 0, 10)
		if err != nil {
			t.Fatal(err)
		}
		if len(items) != 2 {
			t.Fatalf("committed %d items, want 2", len(items))
		}
		if items[0].URL != fast.URL || items[1].URL != slow.URL {
			t.Fatalf("commit order = %q, %q; want the later submission first",
				items[0].URL, items[1].URL)
		}
		if items[0].Seq >= items[1].Seq {
			t.Errorf("seq order = %d, %d", items[0].Seq, items[1].Seq)
		}

		// The feed replays the same commit order.
		feedCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		sub := feed.NewDistributor(h.store, feed.WithPollInterval(10*time.Millisecond)).Subscribe(feedCtx)
		first, second := <-sub, <-sub
		if first.URL != fast.URL || second.URL != slow.URL {
			t.Errorf("feed order = %q, %q; want commit order", first.URL, second.URL)
		}
	})

	t.Run("concurrent workers assign unique sequence numbers", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t, WithWorkers(4))
		docs := make([]model.FetchedDocument, 12)
		for i := range docs {
			docs[i] = fetchedDoc(
				fmt.Sprintf("http://site%d.onion/", i),
				fmt.Sprintf("<p>unique listing number %d with distinct words aplenty</p>", i))
		}
		runDocs(t, h, docs...)

		items, err := h.store.ItemsAfter(context.Background(), 0, 100)
		if err != nil {
			t.Fatal(err)
		}
		if len(items) != len(docs) {
			t.Fatalf("committed %d items, want %d", len(items), len(docs))
		}
		seen := make(map[int64]bool)
		for i, item := range items {
			if seen[item.Seq] {
				t.Errorf("duplicate seq %d", item.Seq)
			}
			seen[item.Seq] = true
			if i > 0 && items[i].Seq <= items[i-1].Seq {
				t.Errorf("ItemsAfter out of order at %d", i)
			}
		}
	})
}

func TestPipelineLifecycle(t *testing.T) {
	t.Parallel()

	t.Run("submit before start", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		err := h.pipeline.Submit(context.Background(), fetchedDoc("http://a.onion/", "x"))
		if !errors.Is(err, ErrNotStarted) {
			t.Errorf("Submit() error = %v, want ErrNotStarted", err)
		}
	})

	t.Run("submit after stop", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		h.pipeline.Start(context.Background())
		h.pipeline.Stop()
		err := h.pipeline.Submit(context.Background(), fetchedDoc("http://a.onion/", "x"))
		if !errors.Is(err, ErrStopped) {
			t.Errorf("Submit() error = %v, want ErrStopped", err)
		}
	})

	t.Run("stop is idempotent", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		h.pipeline.Start(context.Background())
		h.pipeline.Stop()
		h.pipeline.Stop()
	})

	t.Run("missing dependencies rejected", func(t *testing.T) {
		t.Parallel()

		_, err := New(nil, nil, nil, nil, nil)
		if !errors.Is(err, ErrMissingDependency) {
			t.Errorf("New() error = %v, want ErrMissingDependency", err)
		}
	})
}

func mustDisambiguator(t *testing.T) *triage.Disambiguator {
	t.Helper()

	d, err := triage.NewDisambiguator(&keywordClassifier{},
		[]string{"illegal weapons trafficking"},
		[]string{"news & journalism"})
	if err != nil {
		t.Fatal(err)
	}
	return d
}
