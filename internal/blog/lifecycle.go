// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package blog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"blogpress/internal/models"
	"blogpress/internal/slug"
)

// PrepareForSave applies the publication rules to next before it is
// written. prev is the persisted state of the same article, or nil when
// next has never been saved. taken must report slugs used by any article
// other than next.
func PrepareForSave(ctx context.Context, prev, next *models.Article, now time.Time, taken slug.TakenFunc) error {
	ApplyTimestamps(prev, next, now)
	return assignSlug(ctx, prev, next, taken)
}

// ApplyTimestamps sets created_on the first time next is saved as posted
// and refreshes updated_on on every save after that. updated_on never moves
// backwards and never precedes created_on, even if the clock does.
func ApplyTimestamps(prev, next *models.Article, now time.Time) {
	if next.CreatedOn == nil && next.Posted {
		t := now
		next.CreatedOn = &t
	}
	if next.CreatedOn == nil {
		return
	}

	u := now
	if prev != nil && prev.UpdatedOn != nil && u.Before(*prev.UpdatedOn) {
		u = *prev.UpdatedOn
	}
	if u.Before(*next.CreatedOn) {
		u = *next.CreatedOn
	}
	next.UpdatedOn = &u
}

func assignSlug(ctx context.Context, prev, next *models.Article, taken slug.TakenFunc) error {
	if next.Slug != "" && prev != nil && prev.Topic == next.Topic {
		return nil
	}

	s, err := slug.Unique(ctx, slug.Generate(next.Topic), taken)
	if errors.Is(err, slug.ErrExhausted) {
		return &ConstraintViolation{Field: "slug", Constraint: "unique", Err: err}
	}
	if err != nil {
		return fmt.Errorf("assign slug: %w", err)
	}
	next.Slug = s
	return nil
}

// slugTakenBy returns a TakenFunc that ignores the article identified by self.
func slugTakenBy(repo Repository, self uuid.UUID) slug.TakenFunc {
	return func(ctx context.Context, candidate string) (bool, error) {
		return repo.SlugTaken(ctx, candidate, self)
	}
}
