// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug provides URL-friendly slug generation from arbitrary strings
// and collision-free slug assignment.
package slug

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	// MaxLength is the longest slug ever produced, suffix included.
	MaxLength = 255

	// MaxAttempts bounds how many numbered candidates Unique tries.
	MaxAttempts = 100

	// Fallback is used when a title has no ASCII letters or digits at all.
	Fallback = "article"
)

// ErrExhausted is returned by Unique when every candidate is taken.
var ErrExhausted = errors.New("slug: no free candidate")

var (
	// nonAlphanumeric matches runs of anything that isn't a lowercase ASCII
	// letter or digit. Each run becomes a single hyphen.
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

	// apostrophes are dropped so "How's" reads "hows", not "how-s".
	apostrophes = strings.NewReplacer("'", "", "’", "")
)

// Generate creates a URL-friendly slug from the given string.
// Accented letters are folded to ASCII, everything else non-alphanumeric
// collapses into single hyphens.
// Example: "Hello, World! 2026" → "hello-world-2026"
func Generate(s string) string {
	var b strings.Builder
	for _, r := range norm.NFKD.String(apostrophes.Replace(s)) {
		if r < utf8.RuneSelf {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	result := nonAlphanumeric.ReplaceAllString(b.String(), "-")
	return strings.Trim(result, "-")
}

// TakenFunc reports whether a candidate slug is already in use.
type TakenFunc func(ctx context.Context, candidate string) (bool, error)

// Unique returns the first free slug derived from base: base itself, then
// base-2, base-3, and so on up to MaxAttempts.
func Unique(ctx context.Context, base string, taken TakenFunc) (string, error) {
	if base == "" {
		base = Fallback
	}

	for i := 1; i <= MaxAttempts; i++ {
		candidate := withSuffix(base, i)
		used, err := taken(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("slug lookup %q: %w", candidate, err)
		}
		if !used {
			return candidate, nil
		}
	}
	return "", ErrExhausted
}

// withSuffix appends "-n" for n > 1, trimming base so the result never
// exceeds MaxLength.
func withSuffix(base string, n int) string {
	suffix := ""
	if n > 1 {
		suffix = fmt.Sprintf("-%d", n)
	}
	if len(base)+len(suffix) > MaxLength {
		base = strings.TrimRight(base[:MaxLength-len(suffix)], "-")
	}
	return base + suffix
}
