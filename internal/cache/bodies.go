// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package cache keeps rendered article bodies in Valkey so listings skip
// Markdown rendering for bodies that have not changed since last time.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"blogpress/internal/markdown"
	"blogpress/internal/models"
)

const (
	// bodyKeyPrefix is the Valkey key prefix for cached bodies.
	bodyKeyPrefix = "body:"

	// DefaultBodyTTL is how long a rendered body stays cached.
	DefaultBodyTTL = time.Hour
)

// Bodies caches article body HTML. Entries are keyed by article ID and a
// hash of the Markdown source, so an edited body never hits a stale entry.
// A nil *Bodies renders every body directly.
type Bodies struct {
	client *redis.Client
	ttl    time.Duration
	render func(string) string
}

// NewBodies creates a body cache backed by the given Valkey client.
func NewBodies(client *redis.Client, ttl time.Duration) *Bodies {
	if ttl <= 0 {
		ttl = DefaultBodyTTL
	}
	return &Bodies{client: client, ttl: ttl, render: markdown.MustHTML}
}

// Key returns the cache key for one revision of an article body.
func Key(id uuid.UUID, body string) string {
	return fmt.Sprintf("%s%s:%016x", bodyKeyPrefix, id, xxhash.Sum64String(body))
}

// Render returns the HTML body of each article, keyed by article ID.
// Misses are rendered and written back in a single pipeline. Valkey
// errors are logged and the bodies rendered directly.
func (b *Bodies) Render(ctx context.Context, articles []models.Article) map[uuid.UUID]string {
	out := make(map[uuid.UUID]string, len(articles))
	if b == nil {
		for _, a := range articles {
			out[a.ID] = markdown.MustHTML(a.Body)
		}
		return out
	}
	if len(articles) == 0 {
		return out
	}

	keys := make([]string, len(articles))
	for i, a := range articles {
		keys[i] = Key(a.ID, a.Body)
	}

	vals, err := b.client.MGet(ctx, keys...).Result()
	if err != nil {
		slog.Warn("body cache get error", "error", err)
		vals = make([]any, len(keys))
	}

	pipe := b.client.Pipeline()
	for i, a := range articles {
		if html, ok := vals[i].(string); ok {
			out[a.ID] = html
			continue
		}
		html := b.render(a.Body)
		out[a.ID] = html
		pipe.Set(ctx, keys[i], html, b.ttl)
	}

	if misses := pipe.Len(); misses > 0 {
		if _, err := pipe.Exec(ctx); err != nil {
			slog.Warn("body cache set error", "error", err)
		}
		slog.Debug("body cache", "hits", len(articles)-misses, "misses", misses)
	}
	return out
}

// Invalidate removes every cached revision of an article's body.
func (b *Bodies) Invalidate(ctx context.Context, id uuid.UUID) {
	if b == nil {
		return
	}

	var cursor uint64
	var deleted int
	for {
		keys, next, err := b.client.Scan(ctx, cursor, bodyKeyPrefix+id.String()+":*", 100).Result()
		if err != nil {
			slog.Warn("body cache scan error", "article_id", id, "error", err)
			return
		}
		if len(keys) > 0 {
			if err := b.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("body cache delete error", "article_id", id, "error", err)
			}
			deleted += len(keys)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	if deleted > 0 {
		slog.Debug("body cache invalidated", "article_id", id, "deleted", deleted)
	}
}
