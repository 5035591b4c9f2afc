// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package blog

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"blogpress/internal/models"
	"blogpress/internal/pagination"
)

// Dashboard is a user's own records: the most recent few plus one page of
// the full list.
type Dashboard[T any] struct {
	Recent []T                 `json:"recent"`
	Page   *pagination.Page[T] `json:"page"`
}

// CategoryDetails is a category and one page of its posted articles.
type CategoryDetails struct {
	Category *models.Category                 `json:"category"`
	Articles *pagination.Page[models.Article] `json:"articles"`
}

// Home lists posted articles, newest first, optionally filtered by a
// search query on topic and body.
func (s *Service) Home(ctx context.Context, query string, page int) (*pagination.Page[models.Article], error) {
	f := ArticleFilter{PostedOnly: true, Query: query}
	p, err := s.articlePage(ctx, f, page, HomePageSize)
	if err != nil {
		return nil, fmt.Errorf("list home articles: %w", err)
	}
	return p, nil
}

// Categories lists categories that have had at least one article created
// in them, most active first.
func (s *Service) Categories(ctx context.Context, page int) (*pagination.Page[models.Category], error) {
	p, err := s.categoryPage(ctx, CategoryFilter{NonEmptyOnly: true}, page, CategoryPageSize)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return p, nil
}

// CategoryDetails returns a category and a page of its posted articles.
func (s *Service) CategoryDetails(ctx context.Context, id uuid.UUID, page int) (*CategoryDetails, error) {
	c, err := s.Category(ctx, id)
	if err != nil {
		return nil, err
	}
	p, err := s.articlePage(ctx, ArticleFilter{PostedOnly: true, CategoryID: &id}, page, CategoryDetailPageSize)
	if err != nil {
		return nil, fmt.Errorf("list category articles: %w", err)
	}
	return &CategoryDetails{Category: c, Articles: p}, nil
}

// DashboardArticles returns the user's own articles, drafts included.
func (s *Service) DashboardArticles(ctx context.Context, userID uuid.UUID, page int) (*Dashboard[models.Article], error) {
	f := ArticleFilter{AuthorID: &userID}
	recent, _, err := s.store.ListArticles(ctx, f, DashboardRecent, 0)
	if err != nil {
		return nil, fmt.Errorf("list recent articles: %w", err)
	}
	p, err := s.articlePage(ctx, f, page, DashboardPageSize)
	if err != nil {
		return nil, fmt.Errorf("list dashboard articles: %w", err)
	}
	return &Dashboard[models.Article]{Recent: nonNil(recent), Page: p}, nil
}

// DashboardCategories returns the categories the user created.
func (s *Service) DashboardCategories(ctx context.Context, userID uuid.UUID, page int) (*Dashboard[models.Category], error) {
	f := CategoryFilter{CreatedBy: &userID}
	recent, _, err := s.store.ListCategories(ctx, f, DashboardRecent, 0)
	if err != nil {
		return nil, fmt.Errorf("list recent categories: %w", err)
	}
	p, err := s.categoryPage(ctx, f, page, DashboardPageSize)
	if err != nil {
		return nil, fmt.Errorf("list dashboard categories: %w", err)
	}
	return &Dashboard[models.Category]{Recent: nonNil(recent), Page: p}, nil
}

func (s *Service) articlePage(ctx context.Context, f ArticleFilter, page, perPage int) (*pagination.Page[models.Article], error) {
	return pagination.Fetch(page, perPage, func(limit, offset int) ([]models.Article, int, error) {
		return s.store.ListArticles(ctx, f, limit, offset)
	})
}

func (s *Service) categoryPage(ctx context.Context, f CategoryFilter, page, perPage int) (*pagination.Page[models.Category], error) {
	return pagination.Fetch(page, perPage, func(limit, offset int) ([]models.Category, int, error) {
		return s.store.ListCategories(ctx, f, limit, offset)
	})
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
