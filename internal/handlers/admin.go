// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"blogpress/internal/blog"
	"blogpress/internal/models"
)

// UserAdmin is the user management the admin endpoints need.
type UserAdmin interface {
	List(ctx context.Context) ([]models.User, error)
	ResetTOTP(ctx context.Context, userID uuid.UUID) error
}

// Admin serves the admin-only user management endpoints.
type Admin struct {
	users UserAdmin
}

// NewAdmin creates the Admin handler group.
func NewAdmin(users UserAdmin) *Admin {
	return &Admin{users: users}
}

// Users lists every account.
func (h *Admin) Users(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		renderError(w, r, err, nil)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	render.JSON(w, r, map[string]any{"items": users})
}

// ResetTwoFA clears a user's TOTP secret so they can enroll again.
func (h *Admin) ResetTwoFA(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, r, blog.ErrNotFound, nil)
		return
	}
	if err := h.users.ResetTOTP(r.Context(), id); err != nil {
		renderError(w, r, err, nil)
		return
	}

	slog.Info("2fa reset by admin", "user_id", id, "admin_id", actorOf(r).ID)
	render.NoContent(w, r)
}
