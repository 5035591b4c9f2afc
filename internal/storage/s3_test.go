// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package storage

import (
	"strings"
	"testing"
)

func TestNew_Unconfigured(t *testing.T) {
	tests := []struct {
		name                           string
		endpoint, accessKey, secretKey string
	}{
		{"no endpoint", "", "ak", "sk"},
		{"no access key", "http://s3.local", "", "sk"},
		{"no secret key", "http://s3.local", "ak", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.endpoint, "us-east-1", tt.accessKey, tt.secretKey, "blogpress", "")
			if err != nil || c != nil {
				t.Fatalf("New() = %v, %v; want nil, nil", c, err)
			}
		})
	}
}

func TestNew_MissingBucket(t *testing.T) {
	if _, err := New("http://s3.local", "us-east-1", "ak", "sk", "", ""); err == nil {
		t.Fatal("expected error for empty bucket")
	}
}

func TestFileURL(t *testing.T) {
	direct, err := New("http://s3.local:9000/", "us-east-1", "ak", "sk", "blogpress", "")
	if err != nil {
		t.Fatal(err)
	}
	cdn, err := New("http://s3.local:9000", "us-east-1", "ak", "sk", "blogpress", "https://cdn.example.com/")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		client *Client
		want   string
	}{
		{"path style", direct, "http://s3.local:9000/blogpress/thumbnails/a.jpg"},
		{"public url", cdn, "https://cdn.example.com/thumbnails/a.jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.client.FileURL("thumbnails/a.jpg")
			if got != tt.want {
				t.Errorf("FileURL() = %q, want %q", got, tt.want)
			}
			key, ok := tt.client.KeyFromURL(got)
			if !ok || key != "thumbnails/a.jpg" {
				t.Errorf("KeyFromURL(%q) = %q, %v", got, key, ok)
			}
		})
	}

	if _, ok := direct.KeyFromURL("https://elsewhere.example.com/x.jpg"); ok {
		t.Error("foreign URL should not match")
	}
}

func TestNewThumbnailKey(t *testing.T) {
	a, b := NewThumbnailKey(), NewThumbnailKey()
	if a == b {
		t.Fatal("keys should be unique")
	}
	if !strings.HasPrefix(a, ThumbnailPrefix) || !strings.HasSuffix(a, ".jpg") {
		t.Errorf("unexpected key %q", a)
	}
}
