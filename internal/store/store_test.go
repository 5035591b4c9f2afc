// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// store_test.go provides a shared test database helper for all store
// integration tests. Tests are skipped if PostgreSQL is not available.
package store

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"blogpress/internal/database"
	"blogpress/internal/models"
)

// testDSN returns the PostgreSQL connection string for testing.
// Uses environment variables with defaults matching docker-compose.yml.
func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "blogpress")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "blogpress")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test database and runs migrations.
// If the database is unavailable, the test is skipped. A cleanup
// function is registered to close the connection when the test finishes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("pgx", testDSN())
	if err != nil {
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// cleanUsers removes test users by email. Their articles cascade.
func cleanUsers(t *testing.T, db *sql.DB, emails ...string) {
	t.Helper()
	for _, email := range emails {
		db.Exec("DELETE FROM users WHERE email = $1", email)
	}
}

// cleanCategories removes test categories by ID.
func cleanCategories(t *testing.T, db *sql.DB, ids ...uuid.UUID) {
	t.Helper()
	for _, id := range ids {
		db.Exec("DELETE FROM categories WHERE id = $1", id)
	}
}

// testAuthor creates a throwaway author removed when the test ends.
func testAuthor(t *testing.T, db *sql.DB) *models.User {
	t.Helper()
	email := "author-" + uuid.NewString()[:8] + "@store-test.local"
	t.Cleanup(func() { cleanUsers(t, db, email) })

	u, err := NewUserStore(db).Create(context.Background(), email, "password-123", "Author", models.RoleAuthor)
	if err != nil {
		t.Fatalf("create author: %v", err)
	}
	return u
}

// testCategory creates a uniquely named category removed when the test ends.
func testCategory(t *testing.T, db *sql.DB, owner uuid.UUID) *models.Category {
	t.Helper()
	id, _ := uuid.NewV7()
	c := &models.Category{ID: id, Name: "cat-" + id.String(), CreatedBy: &owner, CreatedAt: t0()}
	t.Cleanup(func() { cleanCategories(t, db, id) })

	if err := NewBlogStore(db).InsertCategory(context.Background(), c); err != nil {
		t.Fatalf("insert category: %v", err)
	}
	return c
}
