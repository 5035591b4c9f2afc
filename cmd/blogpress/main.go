// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package main is the entry point for the blogpress API server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"blogpress/internal/account"
	"blogpress/internal/blog"
	"blogpress/internal/cache"
	"blogpress/internal/config"
	"blogpress/internal/database"
	"blogpress/internal/handlers"
	"blogpress/internal/middleware"
	"blogpress/internal/router"
	"blogpress/internal/session"
	"blogpress/internal/storage"
	"blogpress/internal/store"
)

// Login, password reset and 2FA attempts allowed per client IP.
const (
	authAttempts = 10
	authWindow   = time.Minute
)

func main() {
	routes := flag.Bool("routes", false, "print the route table as Markdown and exit")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	if *routes {
		// Handlers are never invoked while walking the table.
		fmt.Print(router.Docs(router.New(router.Config{})))
		return
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"category_policy", cfg.CategoryPolicy,
	)

	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed development data (no-op if users already exist).
	if cfg.IsDev() {
		if err := database.Seed(db, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	valkeyClient, err := session.Connect(cfg.ValkeyAddr(), cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	// Outside development, cookies are Secure (HTTPS-only).
	secureCookies := !cfg.IsDev()
	sessionStore := session.NewStore(valkeyClient, cfg.SessionTTL, secureCookies)

	// Object storage is optional; without it thumbnail uploads are refused.
	files, err := storage.New(cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3PublicURL)
	if err != nil {
		slog.Error("failed to initialize S3 storage", "error", err)
		os.Exit(1)
	}
	if files != nil {
		slog.Info("s3 storage connected", "endpoint", cfg.S3Endpoint, "bucket", files.Bucket())
	} else {
		slog.Warn("s3 storage not configured, thumbnail uploads disabled")
	}

	userStore := store.NewUserStore(db)
	accounts := account.NewService(
		userStore,
		account.LogMailer{},
		account.NewTokenIssuer(cfg.ResetTokenSecret, cfg.ResetTokenTTL),
		cfg.BaseURL,
	)
	blogService := blog.NewService(store.NewBlogStore(db), blog.SystemClock, cfg.CategoryPolicy)

	validate, err := handlers.NewValidator()
	if err != nil {
		slog.Error("failed to initialize validator", "error", err)
		os.Exit(1)
	}

	limiter := middleware.NewRateLimiter(authAttempts, authWindow)
	defer limiter.Stop()

	r := router.New(router.Config{
		Sessions:      sessionStore,
		Blog:          handlers.NewBlog(blogService, sessionStore, files, cache.NewBodies(valkeyClient, cache.DefaultBodyTTL), validate, cfg.MaxThumbnailBytes),
		Auth:          handlers.NewAuth(accounts, sessionStore, validate),
		Admin:         handlers.NewAdmin(userStore),
		AuthLimiter:   limiter,
		Ping:          db.PingContext,
		SecureCookies: secureCookies,
	})

	// WriteTimeout covers multipart uploads and thumbnail generation.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
