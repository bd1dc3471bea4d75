package http

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"loopledger/internal/backup"
)

func (s *Server) handleBackupExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	data, err := s.deps.Backup.Export(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Backup export failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Could not build backup")
		return
	}

	filename := backup.Filename(time.Now())
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleBackupImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Could not read backup payload")
		return
	}
	if err := s.deps.Backup.Import(r.Context(), payload); err != nil {
		slog.WarnContext(r.Context(), "Backup import rejected", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid backup file")
		return
	}

	s.invalidateSummaries()
	writeJSON(w, http.StatusOK, map[string]string{"status": "imported"})
}

func (s *Server) handleBackupReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	if err := s.deps.Backup.Reset(r.Context()); err != nil {
		slog.ErrorContext(r.Context(), "Backup reset failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Could not reset data")
		return
	}

	s.invalidateSummaries()
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}
