// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// testValkeyClient returns a Redis client connected to the test Valkey.
// Skips the test if Valkey is unavailable.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	password := os.Getenv("VALKEY_PASSWORD")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       15, // Use DB 15 for tests to isolate from dev data.
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping integration test: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		keys, _ := client.Keys(ctx, keyPrefix+"*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		client.Close()
	})

	return client
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == CookieName {
			return c
		}
	}
	t.Fatal("expected session cookie to be set")
	return nil
}

// ---------- Data (no Valkey needed) ----------

func TestDataValues(t *testing.T) {
	d := &Data{}

	if _, ok := d.Get("missing"); ok {
		t.Error("Get on empty session should report missing")
	}
	if d.Dirty() {
		t.Error("fresh session should not be dirty")
	}

	d.Set("k", "v")
	if v, ok := d.Get("k"); !ok || v != "v" {
		t.Errorf("Get = %q, %v; want v, true", v, ok)
	}
	if !d.Dirty() {
		t.Error("Set should mark the session dirty")
	}

	d.dirty = false
	d.Set("k", "v")
	if d.Dirty() {
		t.Error("setting the same value should not mark the session dirty")
	}

	d.Delete("k")
	if _, ok := d.Get("k"); ok || !d.Dirty() {
		t.Error("Delete should remove the value and mark the session dirty")
	}
}

func TestDataIdentity(t *testing.T) {
	var nilData *Data
	if nilData.Authenticated() {
		t.Error("nil session is never authenticated")
	}

	d := &Data{}
	if d.Authenticated() || d.ViewerID() != uuid.Nil {
		t.Error("anonymous session should not be authenticated")
	}

	id := uuid.New()
	d.Login(id, "a@b.example", "A", "admin", true)
	if d.Authenticated() {
		t.Error("session with pending 2FA should not be authenticated")
	}
	if d.ViewerID() != uuid.Nil {
		t.Error("pending 2FA session should have no viewer")
	}

	d.CompleteTwoFA()
	if !d.Authenticated() || !d.IsAdmin() {
		t.Error("expected authenticated admin after 2FA")
	}
	if d.ViewerID() != id {
		t.Errorf("ViewerID = %s, want %s", d.ViewerID(), id)
	}
}

// ---------- Store (Valkey integration) ----------

func TestSessionSaveAndLoad(t *testing.T) {
	client := testValkeyClient(t)
	store := NewStore(client, time.Hour, false)
	ctx := context.Background()

	data := &Data{}
	data.Login(uuid.New(), "test@session.local", "Test User", "admin", false)
	data.Set("viewed_article_x", "x")

	w := httptest.NewRecorder()
	if err := store.Save(ctx, w, data); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if data.ID == "" {
		t.Fatal("expected session ID after first save")
	}
	if data.Dirty() {
		t.Error("Save should clear the dirty flag")
	}

	cookie := sessionCookie(t, w)
	if !cookie.HttpOnly {
		t.Error("expected HttpOnly cookie")
	}
	if cookie.Secure {
		t.Error("expected Secure=false for non-secure store")
	}
	if cookie.MaxAge != 3600 {
		t.Errorf("MaxAge = %d, want 3600", cookie.MaxAge)
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(cookie)

	got, err := store.Load(ctx, req)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got == nil {
		t.Fatal("expected session data, got nil")
	}
	if got.ID != data.ID || got.UserID != data.UserID || got.Role != "admin" {
		t.Errorf("loaded %+v, want %+v", got, data)
	}
	if v, _ := got.Get("viewed_article_x"); v != "x" {
		t.Errorf("value lost across save: %q", v)
	}

	// A second save of a known session must not set another cookie.
	got.Set("k", "v")
	w2 := httptest.NewRecorder()
	if err := store.Save(ctx, w2, got); err != nil {
		t.Fatalf("second Save: %v", err)
	}
	if len(w2.Result().Cookies()) != 0 {
		t.Error("re-saving an existing session should not reissue the cookie")
	}
}

func TestSessionLoadMissing(t *testing.T) {
	client := testValkeyClient(t)
	store := NewStore(client, 0, false)
	ctx := context.Background()

	data, err := store.Load(ctx, httptest.NewRequest("GET", "/", nil))
	if err != nil || data != nil {
		t.Errorf("Load (no cookie) = %v, %v; want nil, nil", data, err)
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "nonexistent-session-id"})
	data, err = store.Load(ctx, req)
	if err != nil || data != nil {
		t.Errorf("Load (expired) = %v, %v; want nil, nil", data, err)
	}
}

func TestSessionRotate(t *testing.T) {
	client := testValkeyClient(t)
	store := NewStore(client, 0, false)
	ctx := context.Background()

	data := &Data{}
	data.Set("viewed_article_x", "x")
	if err := store.Save(ctx, httptest.NewRecorder(), data); err != nil {
		t.Fatalf("Save: %v", err)
	}
	oldID := data.ID

	w := httptest.NewRecorder()
	data.Login(uuid.New(), "rotate@session.local", "Rotate", "author", false)
	if err := store.Rotate(ctx, w, data); err != nil {
		t.Fatalf("Rotate: %v", err)
	}
	if data.ID == oldID || data.ID == "" {
		t.Error("Rotate should issue a new session ID")
	}
	if sessionCookie(t, w).Value != data.ID {
		t.Error("cookie should carry the new ID")
	}

	oldReq := httptest.NewRequest("GET", "/", nil)
	oldReq.AddCookie(&http.Cookie{Name: CookieName, Value: oldID})
	if old, _ := store.Load(ctx, oldReq); old != nil {
		t.Error("old session ID should be gone")
	}

	newReq := httptest.NewRequest("GET", "/", nil)
	newReq.AddCookie(&http.Cookie{Name: CookieName, Value: data.ID})
	got, _ := store.Load(ctx, newReq)
	if got == nil {
		t.Fatal("rotated session should load")
	}
	if v, _ := got.Get("viewed_article_x"); v != "x" {
		t.Error("values should be carried over on rotation")
	}
}

func TestSessionDestroy(t *testing.T) {
	client := testValkeyClient(t)
	store := NewStore(client, 0, false)
	ctx := context.Background()

	data := &Data{}
	data.Login(uuid.New(), "destroy@session.local", "Destroy User", "admin", false)
	store.Save(ctx, httptest.NewRecorder(), data)

	w := httptest.NewRecorder()
	if err := store.Destroy(ctx, w, data); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if c := sessionCookie(t, w); c.MaxAge != -1 {
		t.Error("expected MaxAge=-1 on destroyed cookie")
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: data.ID})
	if got, _ := store.Load(ctx, req); got != nil {
		t.Error("expected nil after destroy")
	}

	// Destroying an unsaved session is a no-op.
	if err := store.Destroy(ctx, httptest.NewRecorder(), &Data{}); err != nil {
		t.Errorf("Destroy (unsaved): %v", err)
	}
}

func TestSessionSecureCookie(t *testing.T) {
	client := testValkeyClient(t)
	store := NewStore(client, 0, true)

	w := httptest.NewRecorder()
	data := &Data{}
	data.Set("k", "v")
	if err := store.Save(context.Background(), w, data); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !sessionCookie(t, w).Secure {
		t.Error("expected Secure=true for secure store")
	}
}
