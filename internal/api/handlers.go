package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/mohsinwazir/Dark-Web-Monitoring-tool/internal/database"
	"github.com/mohsinwazir/Dark-Web-Monitoring-tool/internal/model"
	"github.com/mohsinwazir/Dark-Web-Monitoring-tool/internal/monitor"
)

type errorResponse struct {
	Error string `json:"error"`
}

type crawlResponse struct {
	Status string `json:"status"`
	Scope  string `json:"scope"`
}

type statusResponse struct {
	Running bool   `json:"running"`
	Scope   string `json:"scope,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleStartCrawl accepts a crawl request. The run proceeds in the
// background; the response only acknowledges admission.
func (s *Server) handleStartCrawl(w http.ResponseWriter, r *http.Request) {
	scope, err := model.ParseScope(r.URL.Query().Get("scope"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.controller.StartRun(r.Context(), scope); err != nil {
		switch {
		case errors.Is(err, monitor.ErrRunActive):
			s.writeError(w, http.StatusConflict, err)
		case errors.Is(err, monitor.ErrNoSeeds):
			s.writeError(w, http.StatusBadRequest, err)
		default:
			s.writeError(w, http.StatusInternalServerError, err)
		}
		return
	}

	s.writeJSON(w, http.StatusAccepted, crawlResponse{Status: "accepted", Scope: string(scope)})
}

func (s *Server) handleCrawlStatus(w http.ResponseWriter, _ *http.Request) {
	running, scope := s.controller.Status()
	resp := statusResponse{Running: running}
	if running {
		resp.Scope = string(scope)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// handleItems serves filtered item search. Items are returned newest
// first; an empty result is an empty array, never null.
func (s *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	q := database.Query{
		Text:     r.URL.Query().Get("q"),
		Category: r.URL.Query().Get("category"),
	}

	if raw := r.URL.Query().Get("min_risk"); raw != "" {
		minRisk, err := strconv.ParseFloat(raw, 64)
		if err != nil || minRisk < 0 || minRisk > 1 {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid min_risk %q", raw))
			return
		}
		q.MinRisk = minRisk
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", raw))
			return
		}
		q.Limit = limit
	}

	items, err := s.controller.Search(r.Context(), q)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if items == nil {
		items = []model.IngestedItem{}
	}
	s.writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.controller.Stats(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

// handleFeed streams the live feed as server-sent events. Each item is
// one "item" event carrying the JSON document; delivery follows commit
// order and ends when the client disconnects.
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, errors.New("streaming unsupported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	items := s.controller.Subscribe(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case item, ok := <-items:
			if !ok {
				return
			}
			payload, err := json.Marshal(item)
			if err != nil {
				s.logger.Warn("feed item not serializable",
					slog.String("id", item.ID),
					slog.String("error", err.Error()))
				continue
			}
			if _, err := fmt.Fprintf(w, "event: item\ndata: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("response not written", slog.String("error", err.Error()))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}
