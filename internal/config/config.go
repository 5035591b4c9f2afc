// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package config handles application configuration loading from environment
// variables. It provides a centralized Config struct used across the application.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"blogpress/internal/models"
)

const (
	defaultDBPassword  = "changeme"
	defaultTokenSecret = "dev-reset-token-secret"
)

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host    string
	Port    string
	Env     string // "development", "production", "testing"
	BaseURL string // used in links sent by mail

	// PostgreSQL connection
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Valkey (Redis-compatible session store)
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string

	// S3-compatible object storage for thumbnails
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3PublicURL string

	// Accounts
	ResetTokenSecret string
	ResetTokenTTL    time.Duration
	SessionTTL       time.Duration
	AdminEmail       string // development seed only
	AdminPassword    string

	// Blog behaviour
	CategoryPolicy    models.CategoryPolicy
	MaxThumbnailBytes int64
}

// Load reads configuration from environment variables, applying defaults
// for development where appropriate. A .env file in the working directory
// is loaded first if present; real environment variables take precedence.
// Returns an error if critical values are missing in production mode.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		Host:    envOrDefault("APP_HOST", "0.0.0.0"),
		Port:    envOrDefault("APP_PORT", "8080"),
		Env:     envOrDefault("APP_ENV", "development"),
		BaseURL: envOrDefault("APP_BASE_URL", "http://localhost:8080"),

		DBHost:     envOrDefault("POSTGRES_HOST", "localhost"),
		DBPort:     envOrDefault("POSTGRES_PORT", "5432"),
		DBUser:     envOrDefault("POSTGRES_USER", "blogpress"),
		DBPassword: envOrDefault("POSTGRES_PASSWORD", defaultDBPassword),
		DBName:     envOrDefault("POSTGRES_DB", "blogpress"),

		ValkeyHost:     envOrDefault("VALKEY_HOST", "localhost"),
		ValkeyPort:     envOrDefault("VALKEY_PORT", "6379"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),

		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3Region:    envOrDefault("S3_REGION", "us-east-1"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		S3Bucket:    envOrDefault("S3_BUCKET", "blogpress"),
		S3PublicURL: os.Getenv("S3_PUBLIC_URL"),

		ResetTokenSecret: envOrDefault("RESET_TOKEN_SECRET", defaultTokenSecret),
		AdminEmail:       envOrDefault("SEED_ADMIN_EMAIL", "admin@blogpress.local"),
		AdminPassword:    envOrDefault("SEED_ADMIN_PASSWORD", "admin-changeme"),
	}

	var err error
	if cfg.ResetTokenTTL, err = durationOrDefault("RESET_TOKEN_TTL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = durationOrDefault("SESSION_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.MaxThumbnailBytes, err = int64OrDefault("MAX_THUMBNAIL_BYTES", 5<<20); err != nil {
		return nil, err
	}
	if cfg.CategoryPolicy, err = models.ParseCategoryPolicy(os.Getenv("CATEGORY_POLICY")); err != nil {
		return nil, fmt.Errorf("CATEGORY_POLICY: %w", err)
	}

	if cfg.Env == "production" {
		if cfg.DBPassword == defaultDBPassword {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
		if cfg.ResetTokenSecret == defaultTokenSecret {
			return nil, fmt.Errorf("RESET_TOKEN_SECRET must be set in production")
		}
	}

	return cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// ValkeyAddr returns the Valkey address (host:port).
func (c *Config) ValkeyAddr() string {
	return fmt.Sprintf("%s:%s", c.ValkeyHost, c.ValkeyPort)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOrDefault(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s: invalid duration %q", key, v)
	}
	return d, nil
}

func int64OrDefault(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s: invalid size %q", key, v)
	}
	return n, nil
}
