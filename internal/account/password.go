// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package account

import (
	"fmt"
	"strings"

	"blogpress/internal/blog"
)

// MinPasswordLength is the shortest password accepted.
const MinPasswordLength = 8

var commonPasswords = map[string]bool{
	"password": true, "password1": true, "12345678": true, "123456789": true,
	"qwertyuiop": true, "iloveyou": true, "sunshine": true, "football": true,
	"baseball": true, "welcome1": true, "letmein1": true, "trustno1": true,
}

// checkNewPassword validates a new password and its confirmation, adding
// messages under field+"1" and field+"2".
func checkNewPassword(ve *blog.ValidationError, field, email, p1, p2 string) {
	f1, f2 := field+"1", field+"2"

	if p1 == "" {
		ve.Add(f1, "This field is required.")
	}
	if p2 == "" {
		ve.Add(f2, "This field is required.")
	}
	if p1 == "" || p2 == "" {
		return
	}
	if p1 != p2 {
		ve.Add(f2, "The two password fields didn't match.")
		return
	}

	if msg := passwordProblem(p1, email); msg != "" {
		ve.Add(f2, msg)
	}
}

// passwordProblem returns why p is unacceptable, or "".
func passwordProblem(p, email string) string {
	if len([]rune(p)) < MinPasswordLength {
		return fmt.Sprintf("This password is too short. It must contain at least %d characters.", MinPasswordLength)
	}
	if strings.Trim(p, "0123456789") == "" {
		return "This password is entirely numeric."
	}
	lower := strings.ToLower(p)
	if commonPasswords[lower] {
		return "This password is too common."
	}
	if email != "" {
		local, _, _ := strings.Cut(strings.ToLower(email), "@")
		if lower == strings.ToLower(email) || (len(local) >= 3 && strings.Contains(lower, local)) {
			return "The password is too similar to the email address."
		}
	}
	return ""
}
