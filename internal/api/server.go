package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mohsinwazir/Dark-Web-Monitoring-tool/internal/database"
	"github.com/mohsinwazir/Dark-Web-Monitoring-tool/internal/metrics"
	"github.com/mohsinwazir/Dark-Web-Monitoring-tool/internal/model"
)

// Controller is the monitor surface the API serves. It is satisfied by
// *monitor.Monitor.
type Controller interface {
	// StartRun begins a crawl run in the background.
	StartRun(ctx context.Context, scope model.Scope) error

	// Status reports whether a run is active and its scope.
	Status() (bool, model.Scope)

	// Search queries the ingestion store.
	Search(ctx context.Context, q database.Query) ([]model.IngestedItem, error)

	// Stats summarizes the stored corpus.
	Stats(ctx context.Context) (database.Stats, error)

	// Subscribe attaches a live-feed consumer.
	Subscribe(ctx context.Context) <-chan model.IngestedItem
}

// Server is the HTTP control surface.
type Server struct {
	controller Controller
	logger     *slog.Logger
	collector  *metrics.Collector
	router     chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCollector mounts the Prometheus collector at /metrics.
func WithCollector(collector *metrics.Collector) Option {
	return func(s *Server) {
		s.collector = collector
	}
}

// NewServer builds the HTTP surface over the given controller.
func NewServer(controller Controller, opts ...Option) *Server {
	s := &Server{
		controller: controller,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	if s.collector != nil {
		r.Method(http.MethodGet, "/metrics", s.collector.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/crawl", s.handleStartCrawl)
		r.Get("/crawl/status", s.handleCrawlStatus)
		r.Get("/items", s.handleItems)
		r.Get("/stats", s.handleStats)
		r.Get("/feed", s.handleFeed)
	})

	s.router = r
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// logRequests emits one structured log line per request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("duration", time.Since(start)),
			slog.String("request_id", middleware.GetReqID(r.Context())))
	})
}
