package http

import (
	"errors"
	"log/slog"
	"net/http"

	"loopledger/internal/auth"
)

// withAuth gates a data route behind the auth service. With no auth
// service configured the gate is a no-op and the server runs
// local-only. Verified tokens are cached so every request does not
// round-trip upstream.
func (s *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.deps.Auth == nil || !s.deps.Auth.Enabled() {
			next(w, r)
			return
		}

		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "Not authenticated")
			return
		}

		if _, ok := s.sessionCache.Get(token); ok {
			next(w, r)
			return
		}

		user, err := s.deps.Auth.UserFromToken(r.Context(), token)
		if err != nil {
			if errors.Is(err, auth.ErrUnauthorized) {
				writeError(w, http.StatusUnauthorized, "Not authenticated")
				return
			}
			slog.ErrorContext(r.Context(), "Auth verification failed", "error", err)
			writeError(w, http.StatusBadGateway, "Could not verify session")
			return
		}

		s.sessionCache.Set(token, user)
		next(w, r)
	}
}
