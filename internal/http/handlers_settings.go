package http

import (
	"log/slog"
	"net/http"
	"time"

	"loopledger/internal/core"
)

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.deps.Settings.Get(r.Context()))
	case http.MethodPut:
		var settings core.Settings
		if err := decodeJSON(r, &settings); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		saved, err := s.deps.Settings.Save(r.Context(), settings)
		if err != nil {
			slog.WarnContext(r.Context(), "Settings save rejected", "error", err)
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.invalidateSummaries()
		writeJSON(w, http.StatusOK, saved)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPut)
	}
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	now := time.Now()
	key := s.summaryKey(now)
	if cached, ok := s.summaryCache.Get(key); ok {
		slog.DebugContext(r.Context(), "Summary cache hit", "month", cached.Month)
		writeJSON(w, http.StatusOK, cached)
		return
	}

	summary := s.computeSummary(r.Context(), now)
	s.summaryCache.Set(key, summary)
	writeJSON(w, http.StatusOK, summary)
}
