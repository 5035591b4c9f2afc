// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains for the
// blogpress JSON API.
package router

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/docgen"
	"github.com/go-chi/render"

	"blogpress/internal/handlers"
	"blogpress/internal/middleware"
)

// Config carries the dependencies of the route table.
type Config struct {
	Sessions middleware.SessionLoader
	Blog     *handlers.Blog
	Auth     *handlers.Auth
	Admin    *handlers.Admin

	// AuthLimiter throttles login, password reset and 2FA verification
	// per client IP. Nil disables throttling.
	AuthLimiter *middleware.RateLimiter

	// Ping reports backend health for /health. Nil always reports ok.
	Ping func(ctx context.Context) error

	SecureCookies bool
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(cfg Config) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(chimw.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(render.SetContentType(render.ContentTypeJSON))

	// Health check: no session, no CSRF.
	r.Get("/health", healthHandler(cfg.Ping))

	throttle := func(next http.Handler) http.Handler { return next }
	if cfg.AuthLimiter != nil {
		throttle = cfg.AuthLimiter.Middleware
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.LoadSession(cfg.Sessions))
		r.Use(middleware.NewCSRF(cfg.SecureCookies))

		r.Get("/csrf", cfg.Auth.CSRFToken)

		r.Route("/articles", func(r chi.Router) {
			r.Get("/", cfg.Blog.Home)
			r.Get("/{slug}", cfg.Blog.ArticleDetail)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)
				r.Post("/", cfg.Blog.CreateArticle)
				r.Put("/{slug}", cfg.Blog.UpdateArticle)
				r.Delete("/{slug}", cfg.Blog.DeleteArticle)
			})
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", cfg.Blog.Categories)
			r.Get("/{id}", cfg.Blog.CategoryDetail)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)
				r.Post("/", cfg.Blog.CreateCategory)
				r.Put("/{id}", cfg.Blog.UpdateCategory)
				r.Delete("/{id}", cfg.Blog.DeleteCategory)
			})
		})

		r.With(middleware.RequireAuth).Get("/dashboard", cfg.Blog.Dashboard)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", cfg.Auth.Register)
			r.With(throttle).Post("/login", cfg.Auth.Login)
			r.Post("/logout", cfg.Auth.Logout)

			r.With(middleware.RequireAuth).Post("/password/change", cfg.Auth.ChangePassword)
			r.With(throttle).Post("/password/reset", cfg.Auth.RequestPasswordReset)
			r.With(throttle).Post("/password/reset/confirm", cfg.Auth.ConfirmPasswordReset)

			// 2FA: requires a logged-in identity but not a completed second step.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireIdentity)
				r.Get("/2fa/setup", cfg.Auth.TwoFASetup)
				r.With(throttle).Post("/2fa/verify", cfg.Auth.TwoFAVerify)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Use(middleware.RequireAdmin)
			r.Get("/users", cfg.Admin.Users)
			r.Post("/users/{id}/reset-2fa", cfg.Admin.ResetTwoFA)
		})
	})

	return r
}

// Docs renders the route table as Markdown.
func Docs(r chi.Router) string {
	return docgen.MarkdownRoutesDoc(r, docgen.MarkdownOpts{
		ProjectPath: "blogpress",
		Intro:       "Routes served by the blogpress API.",
	})
}

type healthResponse struct {
	Status string `json:"status"`
}

// healthHandler reports ok, or 503 when the backend ping fails.
func healthHandler(ping func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				slog.Error("health check failed", "error", err)
				render.Status(r, http.StatusServiceUnavailable)
				render.JSON(w, r, healthResponse{Status: "unavailable"})
				return
			}
		}
		render.JSON(w, r, healthResponse{Status: "ok"})
	}
}
