// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"blogpress/internal/blog"
	"blogpress/internal/models"
	"blogpress/internal/pagination"
)

type categoryRequest struct {
	Name string `json:"name" form:"name"`
}

func (req *categoryRequest) Bind(r *http.Request) error {
	return nil
}

type categoryDetailResponse struct {
	Category *models.Category                   `json:"category"`
	Articles *pagination.Page[*articleResponse] `json:"articles"`
}

func (rd *categoryDetailResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

type categoryDeletedResponse struct {
	ID              uuid.UUID `json:"id"`
	Policy          string    `json:"policy"`
	DeletedArticles int       `json:"deleted_articles"`
}

func (rd *categoryDeletedResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

// categoryID parses the {id} URL parameter. A malformed id cannot name a
// category, so it is reported as not found.
func categoryID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, blog.ErrNotFound
	}
	return id, nil
}

// Categories lists categories that have articles, busiest first.
func (h *Blog) Categories(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.Categories(r.Context(), pageParam(r))
	if err != nil {
		renderError(w, r, err, nil)
		return
	}
	render.JSON(w, r, page)
}

// CategoryDetail shows a category with a page of its posted articles.
func (h *Blog) CategoryDetail(w http.ResponseWriter, r *http.Request) {
	id, err := categoryID(r)
	if err != nil {
		renderError(w, r, err, nil)
		return
	}

	details, err := h.svc.CategoryDetails(r.Context(), id, pageParam(r))
	if err != nil {
		renderError(w, r, err, nil)
		return
	}
	render.Render(w, r, &categoryDetailResponse{
		Category: details.Category,
		Articles: pagination.Map(details.Articles, h.responder(r.Context(), details.Articles.Items)),
	})
}

// CreateCategory adds a category owned by the logged-in user.
func (h *Blog) CreateCategory(w http.ResponseWriter, r *http.Request) {
	req := &categoryRequest{}
	if err := bind(r, req); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	c, err := h.svc.CreateCategory(r.Context(), actorOf(r), req.Name)
	if err != nil {
		renderError(w, r, err, req)
		return
	}

	slog.Info("category created", "category_id", c.ID, "name", c.Name)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, c)
}

// UpdateCategory renames a category. Its creator and admins may do so.
func (h *Blog) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := categoryID(r)
	if err != nil {
		renderError(w, r, err, nil)
		return
	}
	req := &categoryRequest{}
	if err := bind(r, req); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	c, err := h.svc.UpdateCategory(r.Context(), actorOf(r), id, req.Name)
	if err != nil {
		renderError(w, r, err, req)
		return
	}
	render.JSON(w, r, c)
}

// DeleteCategory removes a category, applying the configured policy to
// its articles.
func (h *Blog) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := categoryID(r)
	if err != nil {
		renderError(w, r, err, nil)
		return
	}

	res, err := h.svc.DeleteCategory(r.Context(), actorOf(r), id)
	if err != nil {
		renderError(w, r, err, nil)
		return
	}
	h.releaseArticles(r.Context(), res.Deleted)

	slog.Info("category deleted", "category_id", id, "policy", h.svc.Policy(), "deleted_articles", res.Affected)
	render.Render(w, r, &categoryDeletedResponse{ID: id, Policy: string(h.svc.Policy()), DeletedArticles: res.Affected})
}
