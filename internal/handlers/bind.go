// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"strings"

	"github.com/ajg/form"
	"github.com/go-chi/render"
)

// bind decodes the request body into v by its Content-Type header and
// runs v.Bind. Urlencoded forms are read from r.PostForm, so a body that
// middleware already parsed still decodes, and fields the request type
// does not declare (csrf_token) are ignored. Anything that is not a form
// is decoded as JSON.
func bind(r *http.Request, v render.Binder) error {
	if isForm(r) {
		if err := r.ParseForm(); err != nil {
			return err
		}
		d := form.NewDecoder(nil)
		d.IgnoreUnknownKeys(true)
		if err := d.DecodeValues(v, r.PostForm); err != nil {
			return err
		}
	} else if err := render.DecodeJSON(r.Body, v); err != nil {
		return err
	}
	return v.Bind(r)
}

func isForm(r *http.Request) bool {
	return render.GetContentType(r.Header.Get("Content-Type")) == render.ContentTypeForm
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}
