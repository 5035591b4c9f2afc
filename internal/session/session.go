// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package session provides Valkey-backed HTTP session management.
// Sessions are identified by a secure cookie and stored as JSON in Valkey
// with automatic TTL expiry. Anonymous visitors get a session too, lazily,
// the first time something is stored in it.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// CookieName is the name of the session cookie sent to the browser.
	CookieName = "bp_session"

	// DefaultTTL is how long a session lives in Valkey before automatic expiry.
	DefaultTTL = 24 * time.Hour

	// keyPrefix namespaces session keys in Valkey to avoid collisions.
	keyPrefix = "session:"

	// idLength is the byte length of the random session ID (32 bytes = 64 hex chars).
	idLength = 32
)

// Data holds the session payload stored in Valkey: the authenticated
// user's identity (if any), the 2FA state, and free-form values such as
// view markers.
type Data struct {
	ID           string            `json:"-"`
	UserID       uuid.UUID         `json:"user_id"`
	Email        string            `json:"email,omitempty"`
	DisplayName  string            `json:"display_name,omitempty"`
	Role         string            `json:"role,omitempty"`
	TwoFAPending bool              `json:"two_fa_pending,omitempty"`
	Values       map[string]string `json:"values,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`

	dirty bool
}

// Authenticated reports whether a user is logged in and past any 2FA step.
func (d *Data) Authenticated() bool {
	return d != nil && d.UserID != uuid.Nil && !d.TwoFAPending
}

// IsAdmin reports whether the logged-in user has the admin role.
func (d *Data) IsAdmin() bool {
	return d.Authenticated() && d.Role == "admin"
}

// ViewerID returns the authenticated user's ID, or uuid.Nil.
func (d *Data) ViewerID() uuid.UUID {
	if !d.Authenticated() {
		return uuid.Nil
	}
	return d.UserID
}

// Get returns a stored value.
func (d *Data) Get(key string) (string, bool) {
	v, ok := d.Values[key]
	return v, ok
}

// Set stores a value and marks the session for saving.
func (d *Data) Set(key, value string) {
	if d.Values == nil {
		d.Values = make(map[string]string)
	}
	if cur, ok := d.Values[key]; ok && cur == value {
		return
	}
	d.Values[key] = value
	d.dirty = true
}

// Delete removes a value.
func (d *Data) Delete(key string) {
	if _, ok := d.Values[key]; ok {
		delete(d.Values, key)
		d.dirty = true
	}
}

// Login records the user's identity. Existing values are kept.
func (d *Data) Login(userID uuid.UUID, email, displayName, role string, twoFAPending bool) {
	d.UserID = userID
	d.Email = email
	d.DisplayName = displayName
	d.Role = role
	d.TwoFAPending = twoFAPending
	d.dirty = true
}

// CompleteTwoFA clears the pending 2FA flag.
func (d *Data) CompleteTwoFA() {
	d.TwoFAPending = false
	d.dirty = true
}

// Dirty reports whether the session changed since it was loaded or saved.
func (d *Data) Dirty() bool {
	return d.dirty
}

// Store manages session lifecycle in Valkey.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	secure bool
}

// NewStore creates a session store backed by the given Valkey client.
// secure sets the Secure flag on the session cookie.
func NewStore(client *redis.Client, ttl time.Duration, secure bool) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{client: client, ttl: ttl, secure: secure}
}

// Load retrieves session data from Valkey using the session ID from the
// request cookie. Returns nil if no valid session exists.
func (s *Store) Load(ctx context.Context, r *http.Request) (*Data, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil, nil // No cookie = no session (not an error)
	}

	payload, err := s.client.Get(ctx, keyPrefix+cookie.Value).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil // Session expired or doesn't exist
	}
	if err != nil {
		return nil, fmt.Errorf("session get: %w", err)
	}

	var data Data
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("session unmarshal: %w", err)
	}
	data.ID = cookie.Value
	return &data, nil
}

// Save writes the session to Valkey and resets its TTL. A session without
// an ID gets a fresh one and the cookie is set on w.
func (s *Store) Save(ctx context.Context, w http.ResponseWriter, data *Data) error {
	isNew := data.ID == ""
	if isNew {
		id, err := generateID()
		if err != nil {
			return fmt.Errorf("session create: %w", err)
		}
		data.ID = id
		data.CreatedAt = time.Now()
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("session marshal: %w", err)
	}

	if err := s.client.Set(ctx, keyPrefix+data.ID, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("session store: %w", err)
	}
	data.dirty = false

	if isNew {
		s.setCookie(w, data.ID, int(s.ttl.Seconds()))
	}
	return nil
}

// Rotate moves the session to a new ID, keeping its contents. Used on
// login so a session ID seen before authentication is never reused.
func (s *Store) Rotate(ctx context.Context, w http.ResponseWriter, data *Data) error {
	if data.ID != "" {
		if err := s.client.Del(ctx, keyPrefix+data.ID).Err(); err != nil {
			slog.Warn("session rotate: delete old key", "error", err)
		}
		data.ID = ""
	}
	return s.Save(ctx, w, data)
}

// Destroy removes the session from Valkey and clears the cookie.
func (s *Store) Destroy(ctx context.Context, w http.ResponseWriter, data *Data) error {
	if data == nil || data.ID == "" {
		return nil
	}

	if err := s.client.Del(ctx, keyPrefix+data.ID).Err(); err != nil {
		return fmt.Errorf("session destroy: %w", err)
	}
	s.setCookie(w, "", -1)
	return nil
}

func (s *Store) setCookie(w http.ResponseWriter, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}

// generateID creates a cryptographically random session identifier.
func generateID() (string, error) {
	b := make([]byte, idLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Connect creates a Valkey client and verifies the connection with a ping.
func Connect(addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("valkey ping: %w", err)
	}

	slog.Info("valkey connected", "addr", addr)
	return client, nil
}
