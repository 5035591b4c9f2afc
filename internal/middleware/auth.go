// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"blogpress/internal/session"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	// SessionKey is the context key for the session data.
	SessionKey contextKey = "session"
)

// SessionLoader loads the session named by a request's cookie.
type SessionLoader interface {
	Load(ctx context.Context, r *http.Request) (*session.Data, error)
}

// LoadSession puts the request's session in the context. Visitors without
// a stored session get an empty one, which is only persisted once
// something is written to it. This middleware does not enforce
// authentication.
func LoadSession(store SessionLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			data, err := store.Load(r.Context(), r)
			if err != nil {
				slog.Warn("session load failed", "error", err)
			}
			if data == nil {
				data = &session.Data{}
			}

			ctx := context.WithValue(r.Context(), SessionKey, data)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects requests without a fully logged-in user with 401.
// A session still waiting for its 2FA code does not count.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !SessionFromCtx(r.Context()).Authenticated() {
			writeError(w, r, http.StatusUnauthorized, "Authentication required.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireIdentity lets through any session with a user, including one
// still waiting for its 2FA code. It guards the 2FA endpoints.
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := SessionFromCtx(r.Context())
		if sess == nil || sess.UserID == uuid.Nil {
			writeError(w, r, http.StatusUnauthorized, "Authentication required.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin returns 403 if the authenticated user is not an admin.
// Must be applied after RequireAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !SessionFromCtx(r.Context()).IsAdmin() {
			writeError(w, r, http.StatusForbidden, "Forbidden.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SessionFromCtx extracts the session data from the request context.
// Returns nil if LoadSession did not run.
func SessionFromCtx(ctx context.Context) *session.Data {
	data, _ := ctx.Value(SessionKey).(*session.Data)
	return data
}
