package http

import (
	"log/slog"
	"net/http"

	"loopledger/internal/core"
)

func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.deps.Expenses.List(r.Context()))
	case http.MethodPost:
		var expense core.Expense
		if err := decodeJSON(r, &expense); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		created, err := s.deps.Expenses.Create(r.Context(), expense)
		if err != nil {
			slog.WarnContext(r.Context(), "Expense create rejected", "error", err, "category", expense.Category)
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.invalidateSummaries()
		writeJSON(w, http.StatusCreated, created)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (s *Server) handleExpenseItem(w http.ResponseWriter, r *http.Request) {
	id := itemID(r.URL.Path, "/api/expenses/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "Missing expense id")
		return
	}

	switch r.Method {
	case http.MethodPut:
		var expense core.Expense
		if err := decodeJSON(r, &expense); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		expense.ID = id
		if err := s.deps.Expenses.Update(r.Context(), expense); err != nil {
			writeServiceError(w, r, err, "expense")
			return
		}
		s.invalidateSummaries()
		writeJSON(w, http.StatusOK, expense)
	case http.MethodDelete:
		if err := s.deps.Expenses.Delete(r.Context(), id); err != nil {
			writeServiceError(w, r, err, "expense")
			return
		}
		s.invalidateSummaries()
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, http.MethodPut, http.MethodDelete)
	}
}
