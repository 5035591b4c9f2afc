// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store provides PostgreSQL access for blogpress entities. Each
// store struct wraps a *sql.DB and exposes typed query methods. Integrity
// errors come back as *blog.ConstraintViolation.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"blogpress/internal/models"
)

// UserStore handles all user-related database operations.
type UserStore struct {
	db *sql.DB
}

// NewUserStore creates a new UserStore with the given database connection.
func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

const userColumns = `id, email, password_hash, display_name, role, is_active, totp_secret, totp_enabled, date_joined, last_login`

func scanUser(scanner interface{ Scan(...any) error }) (*models.User, error) {
	var u models.User
	err := scanner.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.Role, &u.IsActive,
		&u.TOTPSecret, &u.TOTPEnabled, &u.DateJoined, &u.LastLogin,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *UserStore) find(ctx context.Context, where string, arg any) (*models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

// FindByEmail retrieves a user by their email address. Returns nil if not found.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := s.find(ctx, "email = $1", email)
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return u, nil
}

// FindByID retrieves a user by their UUID. Returns nil if not found.
func (s *UserStore) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := s.find(ctx, "id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return u, nil
}

// List returns all users ordered by join date.
func (s *UserStore) List(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY date_joined ASC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// Create inserts a new user with a bcrypt-hashed password. A duplicate
// email yields a *blog.ConstraintViolation on "email".
func (s *UserStore) Create(ctx context.Context, email, password, displayName string, role models.Role) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate user id: %w", err)
	}

	u, err := scanUser(s.db.QueryRowContext(ctx, `
		INSERT INTO users (id, email, password_hash, display_name, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+userColumns,
		id, email, string(hash), displayName, role,
	))
	if err != nil {
		return nil, fmt.Errorf("create user: %w", translate(err))
	}
	return u, nil
}

// SetPassword replaces the user's password hash.
func (s *UserStore) SetPassword(ctx context.Context, userID uuid.UUID, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE users SET password_hash = $1 WHERE id = $2`, string(hash), userID)
	if err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	return expectRow(res, "set password")
}

// TouchLastLogin records a successful login.
func (s *UserStore) TouchLastLogin(ctx context.Context, userID uuid.UUID, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET last_login = $1 WHERE id = $2`, at, userID)
	if err != nil {
		return fmt.Errorf("touch last login: %w", err)
	}
	return nil
}

// SetTOTPSecret saves the TOTP secret for a user (during 2FA setup).
func (s *UserStore) SetTOTPSecret(ctx context.Context, userID uuid.UUID, secret string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET totp_secret = $1 WHERE id = $2`, secret, userID)
	if err != nil {
		return fmt.Errorf("set totp secret: %w", err)
	}
	return nil
}

// EnableTOTP marks 2FA as active for a user (after successful code verification).
func (s *UserStore) EnableTOTP(ctx context.Context, userID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET totp_enabled = TRUE WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("enable totp: %w", err)
	}
	return nil
}

// ResetTOTP clears the TOTP secret and disables 2FA for a user.
func (s *UserStore) ResetTOTP(ctx context.Context, userID uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET totp_secret = NULL, totp_enabled = FALSE WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("reset totp: %w", err)
	}
	return expectRow(res, "reset totp")
}

// Delete removes a user by ID. Their articles go with them.
func (s *UserStore) Delete(ctx context.Context, userID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// CheckPassword verifies a plaintext password against the user's stored hash.
func (s *UserStore) CheckPassword(user *models.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}
