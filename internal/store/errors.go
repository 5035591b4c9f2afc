// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"blogpress/internal/blog"
)

// constraintFields maps schema constraint names to the field a caller
// submitted, so violations can be reported against form inputs.
var constraintFields = map[string]string{
	"users_email_key":             "email",
	"categories_name_key":         "name",
	"categories_total_post_check": "total_post",
	"categories_created_by_fkey":  "created_by",
	"articles_topic_key":          "topic",
	"articles_slug_key":           "slug",
	"articles_category_id_fkey":   "category",
	"articles_author_id_fkey":     "author",
	"articles_views_check":        "views",
	"articles_updated_on_check":   "updated_on",
}

// translate converts integrity errors reported by PostgreSQL into
// *blog.ConstraintViolation. Other errors are returned unchanged.
func translate(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	var constraint string
	switch pgErr.Code {
	case "23505":
		constraint = "unique"
	case "23502":
		constraint = "required"
	case "23503":
		constraint = "foreign_key"
	case "23514":
		constraint = "check"
	default:
		return err
	}

	field := constraintFields[pgErr.ConstraintName]
	if field == "" {
		field = pgErr.ColumnName
	}
	if field == "" {
		field = pgErr.ConstraintName
	}
	return &blog.ConstraintViolation{Field: field, Constraint: constraint, Err: err}
}
