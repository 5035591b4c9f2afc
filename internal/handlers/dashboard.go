// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"slices"

	"github.com/go-chi/render"

	"blogpress/internal/blog"
	"blogpress/internal/models"
	"blogpress/internal/pagination"
)

type articleDashboardResponse struct {
	Section string                             `json:"section"`
	Recent  []*articleResponse                 `json:"recent"`
	Page    *pagination.Page[*articleResponse] `json:"page"`
}

func (rd *articleDashboardResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

type categoryDashboardResponse struct {
	Section string `json:"section"`
	*blog.Dashboard[models.Category]
}

func (rd *categoryDashboardResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

// Dashboard shows the logged-in user's own articles (drafts included) or,
// with ?section=categories, the categories they created.
func (h *Blog) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID := actorOf(r).ID

	switch section := r.URL.Query().Get("section"); section {
	case "", "articles":
		d, err := h.svc.DashboardArticles(r.Context(), userID, pageParam(r))
		if err != nil {
			renderError(w, r, err, nil)
			return
		}
		respond := h.responder(r.Context(), append(slices.Clone(d.Recent), d.Page.Items...))
		resp := &articleDashboardResponse{
			Section: "articles",
			Recent:  make([]*articleResponse, 0, len(d.Recent)),
			Page:    pagination.Map(d.Page, respond),
		}
		for _, a := range d.Recent {
			resp.Recent = append(resp.Recent, respond(a))
		}
		render.Render(w, r, resp)

	case "categories":
		d, err := h.svc.DashboardCategories(r.Context(), userID, pageParam(r))
		if err != nil {
			renderError(w, r, err, nil)
			return
		}
		render.Render(w, r, &categoryDashboardResponse{Section: section, Dashboard: d})

	default:
		renderError(w, r, blog.NewValidationError("section", "Select a valid choice. "+section+" is not one of the available choices."), nil)
	}
}
