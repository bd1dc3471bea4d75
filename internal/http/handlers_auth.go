package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"loopledger/internal/auth"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) authConfigured(w http.ResponseWriter) bool {
	if s.deps.Auth == nil || !s.deps.Auth.Enabled() {
		writeError(w, http.StatusNotImplemented, "Authentication is not configured")
		return false
	}
	return true
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	if !s.authConfigured(w) {
		return
	}

	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusUnprocessableEntity, "Email and password are required")
		return
	}

	session, err := s.deps.Auth.SignInWithPassword(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeAuthError(w, r, err)
		return
	}

	s.sessionCache.Set(session.AccessToken, session.User)
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	if !s.authConfigured(w) {
		return
	}

	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusUnprocessableEntity, "Email and password are required")
		return
	}

	user, err := s.deps.Auth.SignUp(r.Context(), req.Email, req.Password, s.deps.AuthRedirectTo)
	if err != nil {
		s.writeAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) handleOTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	if !s.authConfigured(w) {
		return
	}

	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		writeError(w, http.StatusUnprocessableEntity, "Email is required")
		return
	}

	if err := s.deps.Auth.SignInWithOTP(r.Context(), req.Email); err != nil {
		s.writeAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "otp_sent"})
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	if !s.authConfigured(w) {
		return
	}

	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	s.sessionCache.Delete(token)
	if err := s.deps.Auth.SignOut(r.Context(), token); err != nil && !errors.Is(err, auth.ErrUnauthorized) {
		slog.WarnContext(r.Context(), "Upstream sign-out failed", "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeAuthError surfaces auth failures as user-visible messages:
// rejected credentials stay 401 with the upstream reason, anything
// else is a gateway problem.
func (s *Server) writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, auth.ErrUnauthorized) {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	slog.ErrorContext(r.Context(), "Auth service error", "error", err)
	writeError(w, http.StatusBadGateway, "Authentication service unavailable")
}
