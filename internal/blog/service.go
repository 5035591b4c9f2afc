// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package blog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"blogpress/internal/models"
)

// Listing sizes.
const (
	HomePageSize           = 6
	CategoryPageSize       = 6
	CategoryDetailPageSize = 8
	DashboardPageSize      = 6
	DashboardRecent        = 6
	RelatedLimit           = 6
)

// Service runs the article and category workflows against a Store.
type Service struct {
	store  Store
	clock  Clock
	policy models.CategoryPolicy
}

// NewService creates a Service. A nil clock selects SystemClock.
func NewService(store Store, clock Clock, policy models.CategoryPolicy) *Service {
	if clock == nil {
		clock = SystemClock
	}
	if policy == "" {
		policy = models.CategoryRequiredCascade
	}
	return &Service{store: store, clock: clock, policy: policy}
}

// Policy returns the configured category policy.
func (s *Service) Policy() models.CategoryPolicy {
	return s.policy
}

// ArticleInput holds the author-editable fields of an article.
type ArticleInput struct {
	Topic      string
	Body       string
	Posted     bool
	CategoryID *uuid.UUID
	// Thumbnail is an object storage key. On update, nil keeps the
	// current thumbnail.
	Thumbnail *string
}

// ArticleView is an article detail together with other posted articles.
type ArticleView struct {
	Article *models.Article  `json:"article"`
	Related []models.Article `json:"related"`
}

// CreateArticle persists a new article for authorID. Slug and timestamps
// are assigned, and the category counter is incremented, in the same
// transaction as the insert.
func (s *Service) CreateArticle(ctx context.Context, authorID uuid.UUID, in ArticleInput) (*models.Article, error) {
	a := &models.Article{AuthorID: authorID}
	applyInput(a, in)
	if err := s.checkRequired(a); err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate article id: %w", err)
	}

	err = s.store.WithTx(ctx, func(repo Repository) error {
		if err := PrepareForSave(ctx, nil, a, s.clock.Now(), slugTakenBy(repo, id)); err != nil {
			return err
		}
		a.ID = id
		if err := repo.InsertArticle(ctx, a); err != nil {
			return err
		}
		return onArticleCreated(ctx, repo, a)
	})
	if err != nil {
		return nil, fmt.Errorf("create article: %w", err)
	}
	return a, nil
}

// UpdateArticle applies in to the article identified by slug. Only the
// author may update it. Category changes never touch the counters.
func (s *Service) UpdateArticle(ctx context.Context, actor Actor, slug string, in ArticleInput) (*models.Article, error) {
	existing, err := s.ArticleForAuthor(ctx, actor, slug)
	if err != nil {
		return nil, err
	}

	next := existing.Clone()
	applyInput(next, in)
	if err := s.checkRequired(next); err != nil {
		return nil, err
	}

	err = s.store.WithTx(ctx, func(repo Repository) error {
		if err := PrepareForSave(ctx, existing, next, s.clock.Now(), slugTakenBy(repo, next.ID)); err != nil {
			return err
		}
		return repo.UpdateArticle(ctx, next)
	})
	if err != nil {
		return nil, fmt.Errorf("update article: %w", err)
	}
	return next, nil
}

// DeleteArticle removes the article identified by slug and returns it so
// the caller can clean up its thumbnail. The category counter is left as
// is.
func (s *Service) DeleteArticle(ctx context.Context, actor Actor, slug string) (*models.Article, error) {
	a, err := s.ArticleForAuthor(ctx, actor, slug)
	if err != nil {
		return nil, err
	}
	if err := s.store.DeleteArticle(ctx, a.ID); err != nil {
		return nil, fmt.Errorf("delete article: %w", err)
	}
	return a, nil
}

// ArticleForAuthor loads an article the actor is allowed to edit.
func (s *Service) ArticleForAuthor(ctx context.Context, actor Actor, slug string) (*models.Article, error) {
	a, err := s.store.ArticleBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("load article: %w", err)
	}
	if a == nil {
		return nil, ErrNotFound
	}
	if a.AuthorID != actor.ID {
		return nil, ErrForbidden
	}
	return a, nil
}

// ViewArticle returns the article with the given slug, counting the view
// once per session, plus up to RelatedLimit other posted articles. Drafts
// are only visible to their author.
func (s *Service) ViewArticle(ctx context.Context, sess Session, slug string) (*ArticleView, error) {
	a, err := s.store.ArticleBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("load article: %w", err)
	}
	if a == nil || (!a.Posted && a.AuthorID != sess.ViewerID()) {
		return nil, ErrNotFound
	}

	if _, err := s.RecordView(ctx, sess, a); err != nil {
		return nil, err
	}

	related, _, err := s.store.ListArticles(ctx, ArticleFilter{PostedOnly: true, ExcludeID: &a.ID}, RelatedLimit, 0)
	if err != nil {
		return nil, fmt.Errorf("list related articles: %w", err)
	}
	if related == nil {
		related = []models.Article{}
	}
	return &ArticleView{Article: a, Related: related}, nil
}

func applyInput(a *models.Article, in ArticleInput) {
	a.Topic = strings.TrimSpace(in.Topic)
	a.Body = in.Body
	a.Posted = in.Posted
	a.CategoryID = in.CategoryID
	if in.Thumbnail != nil {
		a.Thumbnail = in.Thumbnail
	}
}

// checkRequired rejects articles missing a field the schema requires.
func (s *Service) checkRequired(a *models.Article) error {
	switch {
	case a.AuthorID == uuid.Nil:
		return required("author")
	case a.Topic == "":
		return required("topic")
	case strings.TrimSpace(a.Body) == "":
		return required("body")
	case a.CategoryID == nil && s.policy.Required():
		return required("category")
	}
	return nil
}

// IsConstraint returns the *ConstraintViolation in err's chain, if any.
func IsConstraint(err error) (*ConstraintViolation, bool) {
	var cv *ConstraintViolation
	if errors.As(err, &cv) {
		return cv, true
	}
	return nil, false
}
