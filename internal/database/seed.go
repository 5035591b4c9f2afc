// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Seed populates the database with initial development data.
// It creates an admin user and a "General" category if no user exists.
func Seed(db *sql.DB, adminEmail, adminPassword string) error {
	// Check if any users exist already.
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	adminID, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("seed admin id: %w", err)
	}
	categoryID, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("seed category id: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO users (id, email, password_hash, display_name, role)
		VALUES ($1, $2, $3, $4, $5)
	`, adminID, adminEmail, string(hash), "Admin", "admin")
	if err != nil {
		return fmt.Errorf("seed insert admin: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO categories (id, name, created_by) VALUES ($1, $2, $3)
		ON CONFLICT (name) DO NOTHING
	`, categoryID, "General", adminID)
	if err != nil {
		return fmt.Errorf("seed insert category: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	slog.Info("database seeded with default admin user", "email", adminEmail)
	return nil
}
