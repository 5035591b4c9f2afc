// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"gopkg.in/go-playground/validator.v9"
	en_translations "gopkg.in/go-playground/validator.v9/translations/en"

	"blogpress/internal/blog"
)

// Validator checks request payloads against their `validate` struct tags
// and reports failures in English, keyed by JSON field name.
type Validator struct {
	validate *validator.Validate
	trans    ut.Translator
}

// NewValidator creates a Validator with the default English messages.
func NewValidator() (*Validator, error) {
	english := en.New()
	uni := ut.New(english, english)
	trans, _ := uni.GetTranslator("en")

	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	if err := en_translations.RegisterDefaultTranslations(v, trans); err != nil {
		return nil, fmt.Errorf("register translations: %w", err)
	}
	return &Validator{validate: v, trans: trans}, nil
}

// Check validates s. It returns nil when s is valid.
func (v *Validator) Check(s any) *blog.ValidationError {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return blog.NewValidationError("__all__", err.Error())
	}

	ve := &blog.ValidationError{}
	for _, fe := range fieldErrs {
		ve.Add(fe.Field(), fe.Translate(v.trans))
	}
	return ve
}
