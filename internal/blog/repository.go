// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package blog implements article publication: timestamp and slug rules,
// the per-category post counter, session-scoped view counting, and the
// create/update/view workflows that combine them inside one transaction.
package blog

import (
	"context"
	"time"

	"github.com/google/uuid"

	"blogpress/internal/models"
)

// ArticleFilter narrows article listings. Results are ordered newest first.
type ArticleFilter struct {
	PostedOnly bool
	AuthorID   *uuid.UUID
	CategoryID *uuid.UUID
	ExcludeID  *uuid.UUID
	Query      string // case-insensitive match on topic or body
}

// CategoryFilter narrows category listings. Results are ordered by
// total_post descending, then name.
type CategoryFilter struct {
	NonEmptyOnly bool
	CreatedBy    *uuid.UUID
}

// Repository is the persistence contract for articles and categories.
// Lookups return (nil, nil) when no row matches. Writes that break a
// uniqueness, required-field, or foreign-key rule return a
// *ConstraintViolation; updates and increments of a missing row return
// ErrNotFound.
type Repository interface {
	ArticleByID(ctx context.Context, id uuid.UUID) (*models.Article, error)
	ArticleBySlug(ctx context.Context, slug string) (*models.Article, error)
	SlugTaken(ctx context.Context, slug string, exclude uuid.UUID) (bool, error)
	InsertArticle(ctx context.Context, a *models.Article) error
	// UpdateArticle writes every mutable column except views, which only
	// IncrementViews may change.
	UpdateArticle(ctx context.Context, a *models.Article) error
	DeleteArticle(ctx context.Context, id uuid.UUID) error
	// DeleteArticlesByCategory returns the removed articles so callers can
	// release what they reference outside the database.
	DeleteArticlesByCategory(ctx context.Context, categoryID uuid.UUID) ([]models.Article, error)
	ClearArticleCategory(ctx context.Context, categoryID uuid.UUID) (int, error)
	// IncrementViews also advances updated_on to updatedOn when non-nil.
	IncrementViews(ctx context.Context, id uuid.UUID, updatedOn *time.Time) (int, error)
	ListArticles(ctx context.Context, f ArticleFilter, limit, offset int) ([]models.Article, int, error)

	CategoryByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	InsertCategory(ctx context.Context, c *models.Category) error
	// UpdateCategory writes the name only; total_post is owned by
	// IncrementCategoryPosts.
	UpdateCategory(ctx context.Context, c *models.Category) error
	DeleteCategory(ctx context.Context, id uuid.UUID) error
	IncrementCategoryPosts(ctx context.Context, id uuid.UUID) (int, error)
	ListCategories(ctx context.Context, f CategoryFilter, limit, offset int) ([]models.Category, int, error)
}

// Store is a Repository that can scope a group of calls to one
// transaction. If fn returns an error every write made through the
// transactional Repository is rolled back.
type Store interface {
	Repository
	WithTx(ctx context.Context, fn func(Repository) error) error
}

// Session is the per-client key/value state used to deduplicate views.
// Implementations are loaded before and persisted after a request.
type Session interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Delete(key string)
	// ViewerID returns the authenticated user, or uuid.Nil for visitors.
	ViewerID() uuid.UUID
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock in UTC.
var SystemClock Clock = ClockFunc(func() time.Time { return time.Now().UTC() })

// Actor identifies the user performing a management operation.
type Actor struct {
	ID    uuid.UUID
	Admin bool
}
