// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Category groups articles. TotalPost is a denormalized counter that is
// incremented when an article referencing the category is first created.
// It is never decremented, so it counts creation events rather than the
// articles that currently exist.
type Category struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	TotalPost int        `json:"total_post"`
	CreatedBy *uuid.UUID `json:"created_by,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// CategoryPolicy controls how the article → category relationship behaves:
// whether a category is required and what happens to articles when their
// category is deleted.
type CategoryPolicy string

const (
	// CategoryRequiredCascade requires every article to have a category and
	// deletes a category's articles together with it.
	CategoryRequiredCascade CategoryPolicy = "cascade"

	// CategoryOptionalSetNull allows uncategorized articles and detaches
	// articles from a deleted category.
	CategoryOptionalSetNull CategoryPolicy = "set_null"
)

// Required reports whether articles must reference a category.
func (p CategoryPolicy) Required() bool {
	return p != CategoryOptionalSetNull
}

// ParseCategoryPolicy converts a configuration string into a policy.
// An empty string selects CategoryRequiredCascade.
func ParseCategoryPolicy(s string) (CategoryPolicy, error) {
	switch CategoryPolicy(s) {
	case "", CategoryRequiredCascade:
		return CategoryRequiredCascade, nil
	case CategoryOptionalSetNull:
		return CategoryOptionalSetNull, nil
	default:
		return "", fmt.Errorf("unknown category policy %q", s)
	}
}
