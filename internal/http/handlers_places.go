package http

import (
	"log/slog"
	"net/http"
	"strings"
)

// handlePlacesSearch proxies address autocomplete. With no geocoding
// service configured it reports the feature disabled so the SPA falls
// back to manual entry.
func (s *Server) handlePlacesSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	if s.deps.Places == nil || !s.deps.Places.Enabled() {
		writeJSON(w, http.StatusOK, map[string]any{
			"enabled": false,
			"places":  []any{},
		})
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "Missing query parameter q")
		return
	}

	places, err := s.deps.Places.Search(r.Context(), query)
	if err != nil {
		slog.WarnContext(r.Context(), "Places search failed", "error", err, "query", query)
		writeError(w, http.StatusBadGateway, "Address lookup unavailable")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"enabled": true,
		"places":  places,
	})
}
