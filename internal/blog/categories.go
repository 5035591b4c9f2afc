// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package blog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"blogpress/internal/models"
)

// MaxCategoryName is the longest category name accepted.
const MaxCategoryName = 100

// CreateCategory adds a category named name, owned by the actor.
func (s *Service) CreateCategory(ctx context.Context, actor Actor, name string) (*models.Category, error) {
	name, err := cleanCategoryName(name)
	if err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate category id: %w", err)
	}
	owner := actor.ID
	c := &models.Category{
		ID:        id,
		Name:      name,
		CreatedBy: &owner,
		CreatedAt: s.clock.Now(),
	}
	if err := s.store.InsertCategory(ctx, c); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

// UpdateCategory renames a category. Only its creator or an admin may.
func (s *Service) UpdateCategory(ctx context.Context, actor Actor, id uuid.UUID, name string) (*models.Category, error) {
	name, err := cleanCategoryName(name)
	if err != nil {
		return nil, err
	}
	c, err := s.categoryForActor(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	c.Name = name
	if err := s.store.UpdateCategory(ctx, c); err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	return c, nil
}

// CategoryDeletion reports what deleting a category did to its articles.
type CategoryDeletion struct {
	Affected int              // articles deleted or detached
	Deleted  []models.Article // articles removed under the cascade policy
}

// DeleteCategory removes a category. Under the cascade policy its articles
// are deleted with it; under set_null they become uncategorized.
func (s *Service) DeleteCategory(ctx context.Context, actor Actor, id uuid.UUID) (*CategoryDeletion, error) {
	if _, err := s.categoryForActor(ctx, actor, id); err != nil {
		return nil, err
	}

	res := &CategoryDeletion{}
	err := s.store.WithTx(ctx, func(repo Repository) error {
		var err error
		if s.policy.Required() {
			res.Deleted, err = repo.DeleteArticlesByCategory(ctx, id)
			res.Affected = len(res.Deleted)
		} else {
			res.Affected, err = repo.ClearArticleCategory(ctx, id)
		}
		if err != nil {
			return err
		}
		return repo.DeleteCategory(ctx, id)
	})
	if err != nil {
		return nil, fmt.Errorf("delete category: %w", err)
	}
	return res, nil
}

// Category returns the category with the given id.
func (s *Service) Category(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	c, err := s.store.CategoryByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load category: %w", err)
	}
	if c == nil {
		return nil, ErrNotFound
	}
	return c, nil
}

func (s *Service) categoryForActor(ctx context.Context, actor Actor, id uuid.UUID) (*models.Category, error) {
	c, err := s.Category(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Admin && (c.CreatedBy == nil || *c.CreatedBy != actor.ID) {
		return nil, ErrForbidden
	}
	return c, nil
}

func cleanCategoryName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", required("name")
	}
	if len([]rune(name)) > MaxCategoryName {
		return "", NewValidationError("name", fmt.Sprintf("Ensure this value has at most %d characters.", MaxCategoryName))
	}
	return name, nil
}
