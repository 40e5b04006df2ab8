package web

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const (
	ownerHeader   = "X-User-ID"
	sessionCookie = "guest_session"
	maxOwnerLen   = 128
)

type ownerKey struct{}

// ownerID returns the upstream-authenticated user, or "" for guests.
func ownerID(r *http.Request) string {
	if v, ok := r.Context().Value(ownerKey{}).(string); ok {
		return v
	}
	id := strings.TrimSpace(r.Header.Get(ownerHeader))
	if len(id) > maxOwnerLen {
		return ""
	}
	return id
}

func requireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ownerID(r)
		if id == "" {
			writeError(w, http.StatusUnauthorized, "sign in required")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ownerKey{}, id)))
	})
}

// guestSession returns the caller's guest session id, if any.
func guestSession(r *http.Request) (string, bool) {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return "", false
	}
	if _, err := uuid.Parse(c.Value); err != nil {
		return "", false
	}
	return c.Value, true
}

func (s *Server) setGuestSession(w http.ResponseWriter, r *http.Request, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(s.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https",
		SameSite: http.SameSiteLaxMode,
	})
}
