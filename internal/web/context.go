package web

import (
	"fmt"
	"net/http"

	"github.com/JonMunkholm/csvedit/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// SessionHeader carries the session ID for API clients that do not keep
// cookies. It takes precedence over the cookie.
const SessionHeader = "X-Session-ID"

// sessionID returns the session named by the request, or "".
func (s *Server) sessionID(r *http.Request) string {
	if id := r.Header.Get(SessionHeader); id != "" {
		return id
	}
	if c, err := r.Cookie(s.cfg.Session.CookieName); err == nil {
		return c.Value
	}
	return ""
}

// setSession hands the session ID back to the client. Handlers call it after
// every successful load or mutation so the cookie lifetime slides with the
// session's idle TTL.
func (s *Server) setSession(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.Session.CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(s.cfg.Session.TTL.Seconds()),
		HttpOnly: true,
		Secure:   s.cfg.Session.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	w.Header().Set(SessionHeader, id)
}

// sessionContext tags the request context with the session ID for logging.
func (s *Server) sessionContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := s.sessionID(r); id != "" {
			r = r.WithContext(logging.ContextWithSessionID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

// rowIDParam parses the {rowID} URL parameter.
func rowIDParam(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "rowID")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid row id %q", errBadRequest, raw)
	}
	return id, nil
}
