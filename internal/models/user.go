// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package models defines the data structures that map to database tables
// and provides the core types used throughout the application.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Role represents a user's permission level in the system.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleAuthor Role = "author"
)

// User is an account identified by its email address.
type User struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // Never serialize the hash
	DisplayName  string     `json:"display_name"`
	Role         Role       `json:"role"`
	IsActive     bool       `json:"is_active"`
	TOTPSecret   *string    `json:"-"` // Nullable; set during 2FA setup
	TOTPEnabled  bool       `json:"totp_enabled"`
	DateJoined   time.Time  `json:"date_joined"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

// IsAdmin returns true if the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Needs2FA returns true if logging in requires a TOTP code.
func (u *User) Needs2FA() bool {
	return u.TOTPEnabled && u.TOTPSecret != nil
}
