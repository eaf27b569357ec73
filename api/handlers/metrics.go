package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/linesmerrill/ai-court-api/api"
	"github.com/linesmerrill/ai-court-api/config"
)

// SessionCounter reports how many sessions are live and how many are stored
type SessionCounter interface {
	Len() int
	StoredCount(ctx context.Context) (int, error)
}

// Metrics serves the per-route request counters
type Metrics struct {
	Collector *api.MetricsCollector
	Sessions  SessionCounter
}

// MetricsResponse is the request summary plus session counts
type MetricsResponse struct {
	api.MetricsSummary
	LiveSessions   int `json:"liveSessions"`
	StoredSessions int `json:"storedSessions"`
}

// MetricsHandler returns the request summary. The optional limit query
// parameter keeps only the busiest routes.
func (m Metrics) MetricsHandler(w http.ResponseWriter, r *http.Request) {
	resp := MetricsResponse{MetricsSummary: m.Collector.Summary()}

	if l := r.URL.Query().Get("limit"); l != "" {
		limit, err := strconv.Atoi(l)
		if err != nil || limit < 0 {
			config.ErrorStatus("invalid limit", http.StatusBadRequest, w, fmt.Errorf("limit must be a non-negative integer, got %q", l))
			return
		}
		if limit < len(resp.Routes) {
			resp.Routes = resp.Routes[:limit]
		}
	}

	if m.Sessions != nil {
		stored, err := m.Sessions.StoredCount(r.Context())
		if err != nil {
			config.ErrorStatus("failed to count stored sessions", http.StatusInternalServerError, w, err)
			return
		}
		resp.LiveSessions = m.Sessions.Len()
		resp.StoredSessions = stored
	}
	writeJSON(w, http.StatusOK, resp)
}
