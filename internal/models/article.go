// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Article is a blog post written by a user under a category.
//
// CreatedOn is set the first time the article is saved while Posted is true
// and never changes afterwards. UpdatedOn is set on every save once CreatedOn
// is set.
type Article struct {
	ID         uuid.UUID  `json:"id"`
	AuthorID   uuid.UUID  `json:"author_id"`
	CategoryID *uuid.UUID `json:"category_id"`
	Topic      string     `json:"topic"`
	Body       string     `json:"body"`
	Posted     bool       `json:"posted"`
	Thumbnail  *string    `json:"thumbnail,omitempty"` // object storage key
	Slug       string     `json:"slug"`
	CreatedOn  *time.Time `json:"created_on"`
	UpdatedOn  *time.Time `json:"updated_on"`
	Views      int        `json:"views"`
}

// IsNew reports whether the article has never been persisted.
func (a *Article) IsNew() bool {
	return a.ID == uuid.Nil
}

// Clone returns a deep copy so callers can mutate it without touching the
// original record.
func (a *Article) Clone() *Article {
	c := *a
	if a.CategoryID != nil {
		id := *a.CategoryID
		c.CategoryID = &id
	}
	if a.Thumbnail != nil {
		t := *a.Thumbnail
		c.Thumbnail = &t
	}
	if a.CreatedOn != nil {
		t := *a.CreatedOn
		c.CreatedOn = &t
	}
	if a.UpdatedOn != nil {
		t := *a.UpdatedOn
		c.UpdatedOn = &t
	}
	return &c
}

// AbsoluteURL returns the public path of the article detail endpoint.
func (a *Article) AbsoluteURL() string {
	return "/api/articles/" + a.Slug
}
