// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package blog

import (
	"context"
	"errors"
	"fmt"

	"blogpress/internal/models"
)

// onArticleCreated bumps total_post on the article's category. It runs on
// the transactional Repository that inserted a, so a failed insert leaves
// the counter untouched. Updates and deletes never call it.
func onArticleCreated(ctx context.Context, repo Repository, a *models.Article) error {
	if a.CategoryID == nil {
		return nil
	}

	_, err := repo.IncrementCategoryPosts(ctx, *a.CategoryID)
	if errors.Is(err, ErrNotFound) {
		return &ConstraintViolation{Field: "category", Constraint: "foreign_key", Err: err}
	}
	if err != nil {
		return fmt.Errorf("increment category posts: %w", err)
	}
	return nil
}
