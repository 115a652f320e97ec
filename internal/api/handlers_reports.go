package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/normatext/internal/report"
	"github.com/dgallion1/normatext/internal/store"
)

// handleStoredReport returns the most recent stored report for a content
// hash.
func (s *Server) handleStoredReport(w http.ResponseWriter, r *http.Request) {
	reports := s.orchestrator.Reports()
	if reports == nil {
		jsonError(w, "report history unavailable", http.StatusServiceUnavailable)
		return
	}
	rep, err := reports.Latest(r.Context(), chi.URLParam(r, "hash"))
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, "report not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.log.Error("report lookup failed", "error", err)
		jsonError(w, "failed to load report", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"report": rep,
		"text":   report.Text(rep.Findings),
	})
}

func (s *Server) handleCheckStats(w http.ResponseWriter, r *http.Request) {
	latency := s.orchestrator.Latency()
	if latency == nil {
		jsonError(w, "check stats unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"stats":       latency.Snapshot(),
		"by_format":   latency.ByLabel(),
		"queue_depth": s.orchestrator.QueueDepth(),
	})
}
