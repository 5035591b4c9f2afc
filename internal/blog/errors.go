// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package blog

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound is returned when a lookup by slug or id finds no record.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when the acting user may not modify a record.
	ErrForbidden = errors.New("forbidden")

	// ErrConstraintViolation matches every *ConstraintViolation via errors.Is.
	ErrConstraintViolation = errors.New("constraint violation")
)

// ConstraintViolation reports a uniqueness or required-field rule rejected
// by the persistence layer (or checked on its behalf before writing).
type ConstraintViolation struct {
	Field      string // e.g. "topic", "category"
	Constraint string // "unique", "required", "foreign_key", "check"
	Err        error  // underlying driver error, if any
}

func (e *ConstraintViolation) Error() string {
	return fmt.Sprintf("constraint violation: %s %s", e.Field, e.Constraint)
}

// Is lets errors.Is(err, ErrConstraintViolation) match.
func (e *ConstraintViolation) Is(target error) bool {
	return target == ErrConstraintViolation
}

func (e *ConstraintViolation) Unwrap() error {
	return e.Err
}

// Message returns a human-readable explanation for the offending field.
func (e *ConstraintViolation) Message() string {
	switch e.Constraint {
	case "unique":
		return fmt.Sprintf("An entry with this %s already exists.", e.Field)
	case "required":
		return "This field is required."
	case "foreign_key":
		return fmt.Sprintf("Select a valid %s.", e.Field)
	default:
		return fmt.Sprintf("Invalid %s.", e.Field)
	}
}

func required(field string) error {
	return &ConstraintViolation{Field: field, Constraint: "required"}
}

// ValidationError carries field-level messages for input that failed
// format rules before persistence was attempted.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError returns a ValidationError with a single field message.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// Add records a message for field, keeping the first message per field.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = message
	}
}

// Empty reports whether no field failed.
func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
