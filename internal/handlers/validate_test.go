// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"testing"
)

func TestValidator_Messages(t *testing.T) {
	v := testValidator(t)

	tests := []struct {
		name  string
		in    any
		field string
		want  string
	}{
		{"required", &loginRequest{Email: "writer@example.com"}, "password", "password is a required field"},
		{"email", &resetRequest{Email: "writer"}, "email", "email must be a valid email address"},
		{"length", &twoFARequest{Code: "12345"}, "code", "code must be 6 characters in length"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ve := v.Check(tt.in)
			if ve == nil {
				t.Fatal("expected a validation error")
			}
			if got := ve.Fields[tt.field]; got != tt.want {
				t.Errorf("Fields[%q] = %q, want %q", tt.field, got, tt.want)
			}
		})
	}

	if ve := v.Check(&twoFARequest{Code: "123456"}); ve != nil {
		t.Errorf("valid code rejected: %v", ve)
	}
}
