// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blogpress/internal/middleware"
)

const formType = "application/x-www-form-urlencoded"

func rawRequest(method, target, contentType, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req
}

// withCSRF sends req through the CSRF middleware carrying a matching cookie.
func withCSRF(t *testing.T, h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	req.AddCookie(&http.Cookie{Name: middleware.CSRFCookieName, Value: "form-token"})
	rr := httptest.NewRecorder()
	middleware.NewCSRF(false)(h).ServeHTTP(rr, req)
	return rr
}

func TestBind(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		want        string
		wantErr     bool
	}{
		{"json", "application/json", `{"name":"Go"}`, "Go", false},
		{"json without content type", "", `{"name":"Go"}`, "Go", false},
		{"form", formType, "name=Go", "Go", false},
		{"form with charset", formType + "; charset=utf-8", "name=Go", "Go", false},
		{"form with undeclared fields", formType, "name=Go&csrf_token=abc&extra=1", "Go", false},
		{"malformed json", "application/json", "{", "", true},
		{"empty json body", "application/json", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &categoryRequest{}
			err := bind(rawRequest(http.MethodPost, "/api/categories", tt.contentType, tt.body), req)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, req.Name)
		})
	}
}

func TestReadArticle_UrlencodedThroughCSRF(t *testing.T) {
	h := NewBlog(nil, nil, nil, nil, testValidator(t), 1024)
	catID := uuid.NewString()

	var (
		got *articleRequest
		up  *upload
		err error
	)
	read := func(w http.ResponseWriter, r *http.Request) {
		got, up, err = h.readArticle(w, r)
	}

	form := url.Values{
		"topic":       {"  New Linux Topic "},
		"body":        {"text"},
		"posted":      {"on"},
		"category_id": {" " + catID + " "},
		"csrf_token":  {"form-token"},
	}
	rr := withCSRF(t, read, rawRequest(http.MethodPost, "/api/articles", formType, form.Encode()))

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.NoError(t, err)
	assert.Nil(t, up)
	assert.Equal(t, "New Linux Topic", got.Topic)
	assert.Equal(t, "text", got.Body)
	assert.True(t, got.Posted)
	in := got.input()
	require.NotNil(t, in.CategoryID)
	assert.Equal(t, catID, in.CategoryID.String())
}

func TestLogin_UrlencodedThroughCSRF(t *testing.T) {
	h := NewAuth(nil, nil, testValidator(t))
	form := url.Values{"email": {"writer@example.com"}, "csrf_token": {"form-token"}}

	rr := withCSRF(t, h.Login, rawRequest(http.MethodPost, "/api/auth/login", formType, form.Encode()))

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code, rr.Body.String())
	body := decodeErrBody(t, rr)
	assert.Contains(t, fieldsOf(t, body), "password")
	assert.Equal(t, "writer@example.com", body["input"].(map[string]any)["email"])
}
