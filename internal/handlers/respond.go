// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers implements the JSON HTTP API. Handlers are thin: they
// decode and validate input, call the blog and account services, and map
// the returned errors to status codes.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"blogpress/internal/account"
	"blogpress/internal/blog"
	"blogpress/internal/middleware"
	"blogpress/internal/pagination"
	"blogpress/internal/session"
)

// ErrResponse is the JSON error body. Fields and Input are filled for
// validation and constraint failures so a client can show the form again
// with what the user typed.
type ErrResponse struct {
	Err            error `json:"-"`
	HTTPStatusCode int   `json:"-"`

	StatusText string            `json:"status"`
	ErrorText  string            `json:"error,omitempty"`
	Fields     map[string]string `json:"fields,omitempty"`
	Input      any               `json:"input,omitempty"`
}

func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

// ErrInvalidRequest is a 400 for bodies that cannot be decoded.
func ErrInvalidRequest(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusBadRequest,
		StatusText:     "Invalid request.",
		ErrorText:      err.Error(),
	}
}

var (
	ErrNotFound = &ErrResponse{HTTPStatusCode: http.StatusNotFound, StatusText: "Resource not found."}

	errStorageUnavailable = errors.New("object storage is not configured")
)

// errorResponse maps a service error to its response. input is echoed on
// 409 and 422.
func errorResponse(err error, input any) *ErrResponse {
	var ve *blog.ValidationError
	if errors.As(err, &ve) {
		return &ErrResponse{
			Err:            err,
			HTTPStatusCode: http.StatusUnprocessableEntity,
			StatusText:     "Validation failed.",
			Fields:         ve.Fields,
			Input:          input,
		}
	}
	if cv, ok := blog.IsConstraint(err); ok {
		return &ErrResponse{
			Err:            err,
			HTTPStatusCode: http.StatusConflict,
			StatusText:     "Conflict.",
			Fields:         map[string]string{cv.Field: cv.Message()},
			Input:          input,
		}
	}

	switch {
	case errors.Is(err, blog.ErrNotFound):
		return &ErrResponse{Err: err, HTTPStatusCode: http.StatusNotFound, StatusText: "Resource not found."}
	case errors.Is(err, blog.ErrForbidden):
		return &ErrResponse{Err: err, HTTPStatusCode: http.StatusForbidden, StatusText: "Forbidden."}
	case errors.Is(err, account.ErrInvalidCredentials):
		return &ErrResponse{Err: err, HTTPStatusCode: http.StatusUnauthorized, StatusText: "Unauthorized.", ErrorText: "Please enter a correct email and password."}
	case errors.Is(err, account.ErrInvalidToken):
		return &ErrResponse{Err: err, HTTPStatusCode: http.StatusBadRequest, StatusText: "Invalid request.", ErrorText: "The password reset link was invalid, possibly because it has already been used."}
	case errors.Is(err, account.ErrInvalidCode):
		return &ErrResponse{
			Err:            err,
			HTTPStatusCode: http.StatusUnprocessableEntity,
			StatusText:     "Validation failed.",
			Fields:         map[string]string{"code": "Invalid code. Please try again."},
		}
	case errors.Is(err, errStorageUnavailable):
		return &ErrResponse{Err: err, HTTPStatusCode: http.StatusServiceUnavailable, StatusText: "Service unavailable.", ErrorText: "Image uploads are not available."}
	}

	return &ErrResponse{Err: err, HTTPStatusCode: http.StatusInternalServerError, StatusText: "Internal server error."}
}

// renderError writes the response for err, logging unexpected failures.
func renderError(w http.ResponseWriter, r *http.Request, err error, input any) {
	resp := errorResponse(err, input)
	if resp.HTTPStatusCode == http.StatusInternalServerError {
		slog.Error("request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", chimw.GetReqID(r.Context()),
		)
	}
	render.Render(w, r, resp)
}

// Sessions persists session changes made by a handler.
type Sessions interface {
	Save(ctx context.Context, w http.ResponseWriter, data *session.Data) error
	Rotate(ctx context.Context, w http.ResponseWriter, data *session.Data) error
	Destroy(ctx context.Context, w http.ResponseWriter, data *session.Data) error
}

// sessionOf returns the request's session. It is never nil.
func sessionOf(r *http.Request) *session.Data {
	if sess := middleware.SessionFromCtx(r.Context()); sess != nil {
		return sess
	}
	return &session.Data{}
}

func actorOf(r *http.Request) blog.Actor {
	sess := sessionOf(r)
	return blog.Actor{ID: sess.ViewerID(), Admin: sess.IsAdmin()}
}

// saveSession persists sess if it changed. Failures are logged only: the
// response is still valid without the session write.
func saveSession(ctx context.Context, w http.ResponseWriter, store Sessions, sess *session.Data) {
	if !sess.Dirty() {
		return
	}
	if err := store.Save(ctx, w, sess); err != nil {
		slog.Warn("session save failed", "error", err)
	}
}

func pageParam(r *http.Request) int {
	return pagination.ParseNumber(r.URL.Query().Get("page"))
}
