package api

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mohsinwazir/Dark-Web-Monitoring-tool/internal/database"
	"github.com/mohsinwazir/Dark-Web-Monitoring-tool/internal/metrics"
	"github.com/mohsinwazir/Dark-Web-Monitoring-tool/internal/model"
	"github.com/mohsinwazir/Dark-Web-Monitoring-tool/internal/monitor"
)

// fakeController records calls and returns canned results.
type fakeController struct {
	startErr  error
	lastScope model.Scope
	running   bool
	items     []model.IngestedItem
	lastQuery database.Query
	statsOut  database.Stats
	feed      chan model.IngestedItem
}

func (f *fakeController) StartRun(_ context.Context, scope model.Scope) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.lastScope = scope
	f.running = true
	return nil
}

func (f *fakeController) Status() (bool, model.Scope) {
	return f.running, f.lastScope
}

func (f *fakeController) Search(_ context.Context, q database.Query) ([]model.IngestedItem, error) {
	f.lastQuery = q
	return f.items, nil
}

func (f *fakeController) Stats(context.Context) (database.Stats, error) {
	return f.statsOut, nil
}

func (f *fakeController) Subscribe(ctx context.Context) <-chan model.IngestedItem {
	out := make(chan model.IngestedItem)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case item, ok := <-f.feed:
				if !ok {
					return
				}
				select {
				case out <- item:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

func newTestServer(t *testing.T, controller *fakeController) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(NewServer(controller, WithCollector(metrics.NewCollector())).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()

	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s error = %v", url, err)
	}
	t.Cleanup(func() {
		_ = resp.Body.Close()
	})
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp
}

func TestHealthAndMetrics(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &fakeController{})

	var health map[string]string
	resp := getJSON(t, srv.URL+"/healthz", &health)
	if resp.StatusCode != http.StatusOK || health["status"] != "ok" {
		t.Errorf("healthz = %d %v", resp.StatusCode, health)
	}

	resp = getJSON(t, srv.URL+"/metrics", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("metrics status = %d", resp.StatusCode)
	}
}

func TestStartCrawl(t *testing.T) {
	t.Parallel()

	t.Run("accepted", func(t *testing.T) {
		t.Parallel()

		controller := &fakeController{}
		srv := newTestServer(t, controller)

		resp, err := http.Post(srv.URL+"/api/crawl?scope=anonymized", "", nil)
		if err != nil {
			t.Fatal(err)
		}
		defer func() {
			_ = resp.Body.Close()
		}()

		if resp.StatusCode != http.StatusAccepted {
			t.Errorf("status = %d, want 202", resp.StatusCode)
		}
		if controller.lastScope != model.ScopeAnonymized {
			t.Errorf("scope = %q, want anonymized", controller.lastScope)
		}
	})

	t.Run("empty scope defaults to hybrid", func(t *testing.T) {
		t.Parallel()

		controller := &fakeController{}
		srv := newTestServer(t, controller)

		resp, err := http.Post(srv.URL+"/api/crawl", "", nil)
		if err != nil {
			t.Fatal(err)
		}
		defer func() {
			_ = resp.Body.Close()
		}()

		if resp.StatusCode != http.StatusAccepted {
			t.Errorf("status = %d, want 202", resp.StatusCode)
		}
		if controller.lastScope != model.ScopeHybrid {
			t.Errorf("scope = %q, want hybrid", controller.lastScope)
		}
	})

	t.Run("invalid scope", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, &fakeController{})
		resp, err := http.Post(srv.URL+"/api/crawl?scope=sideways", "", nil)
		if err != nil {
			t.Fatal(err)
		}
		defer func() {
			_ = resp.Body.Close()
		}()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}
	})

	t.Run("active run conflicts", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, &fakeController{startErr: monitor.ErrRunActive})
		resp, err := http.Post(srv.URL+"/api/crawl", "", nil)
		if err != nil {
			t.Fatal(err)
		}
		defer func() {
			_ = resp.Body.Close()
		}()
		if resp.StatusCode != http.StatusConflict {
			t.Errorf("status = %d, want 409", resp.StatusCode)
		}
	})

	t.Run("missing seeds", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, &fakeController{startErr: monitor.ErrNoSeeds})
		resp, err := http.Post(srv.URL+"/api/crawl", "", nil)
		if err != nil {
			t.Fatal(err)
		}
		defer func() {
			_ = resp.Body.Close()
		}()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}
	})
}

func TestCrawlStatus(t *testing.T) {
	t.Parallel()

	controller := &fakeController{running: true, lastScope: model.ScopeClearnet}
	srv := newTestServer(t, controller)

	var status statusResponse
	getJSON(t, srv.URL+"/api/crawl/status", &status)
	if !status.Running || status.Scope != "clearnet" {
		t.Errorf("status = %+v", status)
	}
}

func TestItems(t *testing.T) {
	t.Parallel()

	t.Run("passes filters through", func(t *testing.T) {
		t.Parallel()

		controller := &fakeController{items: []model.IngestedItem{{ID: "a", URL: "http://x.onion/"}}}
		srv := newTestServer(t, controller)

		var items []model.IngestedItem
		resp := getJSON(t, srv.URL+"/api/items?q=market&category=news+%26+journalism&min_risk=0.5&limit=10", &items)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d", resp.StatusCode)
		}
		if len(items) != 1 || items[0].ID != "a" {
			t.Errorf("items = %+v", items)
		}

		q := controller.lastQuery
		if q.Text != "market" || q.Category != "news & journalism" || q.MinRisk != 0.5 || q.Limit != 10 {
			t.Errorf("query = %+v", q)
		}
	})

	t.Run("no matches yields empty array", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, &fakeController{})
		resp, err := http.Get(srv.URL + "/api/items")
		if err != nil {
			t.Fatal(err)
		}
		defer func() {
			_ = resp.Body.Close()
		}()

		var body strings.Builder
		if _, err := io.Copy(&body, resp.Body); err != nil {
			t.Fatal(err)
		}
		if got := strings.TrimSpace(body.String()); got != "[]" {
			t.Errorf("body = %q, want []", got)
		}
	})

	t.Run("invalid min_risk", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, &fakeController{})
		resp, err := http.Get(srv.URL + "/api/items?min_risk=high")
		if err != nil {
			t.Fatal(err)
		}
		defer func() {
			_ = resp.Body.Close()
		}()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}
	})

	t.Run("invalid limit", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, &fakeController{})
		resp, err := http.Get(srv.URL + "/api/items?limit=-2")
		if err != nil {
			t.Fatal(err)
		}
		defer func() {
			_ = resp.Body.Close()
		}()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}
	})
}

func TestStats(t *testing.T) {
	t.Parallel()

	controller := &fakeController{statsOut: database.Stats{
		TotalItems: 7,
		HighRisk:   2,
		Categories: map[string]int{"news & journalism": 5},
	}}
	srv := newTestServer(t, controller)

	var stats database.Stats
	getJSON(t, srv.URL+"/api/stats", &stats)
	if stats.TotalItems != 7 || stats.HighRisk != 2 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.Categories["news & journalism"] != 5 {
		t.Errorf("categories = %v", stats.Categories)
	}
}

func TestFeedStream(t *testing.T) {
	t.Parallel()

	controller := &fakeController{feed: make(chan model.IngestedItem, 2)}
	srv := newTestServer(t, controller)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/feed", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if got := resp.Header.Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("Content-Type = %q, want text/event-stream", got)
	}

	controller.feed <- model.IngestedItem{
		ID:        "item-1",
		URL:       "http://x.onion/",
		Category:  "illicit narcotics trading",
		RiskScore: 0.82,
		Entities:  model.NewEntitySet(),
	}

	reader := bufio.NewReader(resp.Body)
	var event, data string
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("reading stream: %v", err)
		}
		line = strings.TrimRight(line, "\n")
		if strings.HasPrefix(line, "event: ") {
			event = strings.TrimPrefix(line, "event: ")
		}
		if strings.HasPrefix(line, "data: ") {
			data = strings.TrimPrefix(line, "data: ")
			break
		}
	}

	if event != "item" {
		t.Errorf("event = %q, want item", event)
	}

	var item model.IngestedItem
	if err := json.Unmarshal([]byte(data), &item); err != nil {
		t.Fatalf("unmarshal feed payload: %v", err)
	}
	if item.URL != "http://x.onion/" || item.RiskScore != 0.82 {
		t.Errorf("item = %+v", item)
	}
}
