// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
)

const (
	// csrfTokenLength is the byte length of CSRF tokens (32 bytes = 64 hex chars).
	csrfTokenLength = 32

	// CSRFCookieName is the cookie that holds the CSRF token.
	CSRFCookieName = "bp_csrf"

	// CSRFHeaderName is the header API clients send the token in.
	CSRFHeaderName = "X-CSRF-Token"

	// CSRFFormField is the form field checked when the header is absent.
	CSRFFormField = "csrf_token"

	csrfKey contextKey = "csrf"
)

// NewCSRF returns double-submit cookie CSRF protection. A token is kept
// in a cookie, and state-changing requests (POST, PUT, PATCH, DELETE) must
// echo it in the X-CSRF-Token header or the csrf_token form field.
// secure sets the Secure flag on the cookie.
func NewCSRF(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(CSRFCookieName)
			if err != nil || cookie.Value == "" {
				token, err := generateCSRFToken()
				if err != nil {
					writeError(w, r, http.StatusInternalServerError, "Internal Server Error")
					return
				}
				http.SetCookie(w, &http.Cookie{
					Name:     CSRFCookieName,
					Value:    token,
					Path:     "/",
					HttpOnly: false, // clients read it to fill the header
					Secure:   secure,
					SameSite: http.SameSiteStrictMode,
				})
				cookie = &http.Cookie{Value: token}
			}

			r = r.WithContext(context.WithValue(r.Context(), csrfKey, cookie.Value))

			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			// PostFormValue leaves the parsed form in r.PostForm for the handler.
			submitted := r.Header.Get(CSRFHeaderName)
			if submitted == "" {
				submitted = r.PostFormValue(CSRFFormField)
			}

			if subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(submitted)) != 1 {
				writeError(w, r, http.StatusForbidden, "CSRF token mismatch.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// CSRFTokenFromCtx returns the token NewCSRF stored for this request.
func CSRFTokenFromCtx(ctx context.Context) string {
	token, _ := ctx.Value(csrfKey).(string)
	return token
}

// generateCSRFToken creates a cryptographically random token.
func generateCSRFToken() (string, error) {
	b := make([]byte, csrfTokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
