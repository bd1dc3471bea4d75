package http

import (
	"log/slog"
	"net/http"

	"loopledger/internal/core"
)

func (s *Server) handleIncome(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.deps.Income.List(r.Context()))
	case http.MethodPost:
		var income core.Income
		if err := decodeJSON(r, &income); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		created, err := s.deps.Income.Create(r.Context(), income)
		if err != nil {
			slog.WarnContext(r.Context(), "Income create rejected", "error", err, "source", income.Source)
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.invalidateSummaries()
		writeJSON(w, http.StatusCreated, created)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (s *Server) handleIncomeItem(w http.ResponseWriter, r *http.Request) {
	id := itemID(r.URL.Path, "/api/income/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "Missing income id")
		return
	}

	switch r.Method {
	case http.MethodPut:
		var income core.Income
		if err := decodeJSON(r, &income); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		income.ID = id
		if err := s.deps.Income.Update(r.Context(), income); err != nil {
			writeServiceError(w, r, err, "income")
			return
		}
		s.invalidateSummaries()
		writeJSON(w, http.StatusOK, income)
	case http.MethodDelete:
		if err := s.deps.Income.Delete(r.Context(), id); err != nil {
			writeServiceError(w, r, err, "income")
			return
		}
		s.invalidateSummaries()
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, http.MethodPut, http.MethodDelete)
	}
}
