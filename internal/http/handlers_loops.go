package http

import (
	"errors"
	"log/slog"
	"net/http"

	"loopledger/internal/core"
	"loopledger/internal/services"
)

func (s *Server) handleLoops(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.deps.Loops.List(r.Context()))
	case http.MethodPost:
		s.createLoop(w, r)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (s *Server) createLoop(w http.ResponseWriter, r *http.Request) {
	var loop core.Loop
	if err := decodeJSON(r, &loop); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	created, err := s.deps.Loops.Create(r.Context(), loop)
	if err != nil {
		slog.WarnContext(r.Context(), "Loop create rejected", "error", err, "course", loop.Course)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.invalidateSummaries()
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleLoopItem(w http.ResponseWriter, r *http.Request) {
	id := itemID(r.URL.Path, "/api/loops/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "Missing loop id")
		return
	}

	switch r.Method {
	case http.MethodPut:
		var loop core.Loop
		if err := decodeJSON(r, &loop); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		loop.ID = id
		if err := s.deps.Loops.Update(r.Context(), loop); err != nil {
			writeServiceError(w, r, err, "loop")
			return
		}
		s.invalidateSummaries()
		writeJSON(w, http.StatusOK, loop)
	case http.MethodDelete:
		if err := s.deps.Loops.Delete(r.Context(), id); err != nil {
			writeServiceError(w, r, err, "loop")
			return
		}
		s.invalidateSummaries()
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, http.MethodPut, http.MethodDelete)
	}
}

// writeServiceError maps service failures onto API statuses: unknown
// ids are 404, validation problems 422.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, kind string) {
	if errors.Is(err, services.ErrNotFound) {
		writeError(w, http.StatusNotFound, kind+" not found")
		return
	}
	slog.WarnContext(r.Context(), "Write rejected", "error", err, "kind", kind)
	writeError(w, http.StatusUnprocessableEntity, err.Error())
}
