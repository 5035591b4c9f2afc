// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"blogpress/internal/blog"
	"blogpress/internal/cache"
	"blogpress/internal/imaging"
	"blogpress/internal/models"
	"blogpress/internal/pagination"
	"blogpress/internal/storage"
)

// DefaultMaxThumbnailBytes is the upload limit used when none is set.
const DefaultMaxThumbnailBytes = 5 << 20

// thumbnailExtensions are the accepted upload file extensions.
var thumbnailExtensions = map[string]bool{".png": true, ".jpg": true, ".jpeg": true}

// Blog serves articles, categories, and the dashboard.
type Blog struct {
	svc      *blog.Service
	sessions Sessions
	files    *storage.Client // nil when object storage is not configured
	bodies   *cache.Bodies   // nil renders bodies on every request
	validate *Validator
	maxThumb int64
}

// NewBlog creates the Blog handler group.
func NewBlog(svc *blog.Service, sessions Sessions, files *storage.Client, bodies *cache.Bodies, v *Validator, maxThumbnailBytes int64) *Blog {
	if maxThumbnailBytes <= 0 {
		maxThumbnailBytes = DefaultMaxThumbnailBytes
	}
	return &Blog{svc: svc, sessions: sessions, files: files, bodies: bodies, validate: v, maxThumb: maxThumbnailBytes}
}

// articleResponse adds the derived fields clients display.
type articleResponse struct {
	*models.Article
	ThumbnailURL string `json:"thumbnail_url"`
	BodyHTML     string `json:"body_html"`
	AbsoluteURL  string `json:"absolute_url"`
}

func (rd *articleResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

// responder renders the bodies of list up front and returns a function
// building the response for any article in it.
func (h *Blog) responder(ctx context.Context, list []models.Article) func(models.Article) *articleResponse {
	bodies := h.bodies.Render(ctx, list)
	return func(a models.Article) *articleResponse {
		return &articleResponse{
			Article:      &a,
			ThumbnailURL: h.thumbnailURL(a.Thumbnail),
			BodyHTML:     bodies[a.ID],
			AbsoluteURL:  a.AbsoluteURL(),
		}
	}
}

func (h *Blog) article(ctx context.Context, a models.Article) *articleResponse {
	return h.responder(ctx, []models.Article{a})(a)
}

// thumbnailURL resolves a stored key, or "#" when there is nothing to show.
func (h *Blog) thumbnailURL(key *string) string {
	if key == nil || *key == "" || h.files == nil {
		return "#"
	}
	return h.files.FileURL(*key)
}

type articleDetailResponse struct {
	Article *articleResponse   `json:"article"`
	Related []*articleResponse `json:"related"`
}

func (rd *articleDetailResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

// articleRequest is the article form, sent as JSON, urlencoded, or
// multipart (the latter with an optional "thumbnail" file).
type articleRequest struct {
	Topic      string `json:"topic" form:"topic" validate:"max=255"`
	Body       string `json:"body" form:"body"`
	Posted     bool   `json:"posted" form:"posted"`
	CategoryID string `json:"category_id,omitempty" form:"category_id" validate:"omitempty,uuid"`
}

func (req *articleRequest) Bind(r *http.Request) error {
	req.Topic = strings.TrimSpace(req.Topic)
	req.CategoryID = strings.TrimSpace(req.CategoryID)
	return nil
}

func (req *articleRequest) input() blog.ArticleInput {
	in := blog.ArticleInput{Topic: req.Topic, Body: req.Body, Posted: req.Posted}
	if id, err := uuid.Parse(req.CategoryID); err == nil {
		in.CategoryID = &id
	}
	return in
}

// upload is a thumbnail file read from a multipart request.
type upload struct {
	name string
	data []byte
}

// readArticle decodes the article from JSON or form fields, plus an
// optional thumbnail upload when the form is multipart.
// Returned errors are ready for renderError.
func (h *Blog) readArticle(w http.ResponseWriter, r *http.Request) (*articleRequest, *upload, error) {
	req := &articleRequest{}
	switch {
	case isMultipart(r):
		r.Body = http.MaxBytesReader(w, r.Body, h.maxThumb+1<<20)
		if err := r.ParseMultipartForm(h.maxThumb); err != nil {
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				return req, nil, blog.NewValidationError("thumbnail", h.tooLargeMessage())
			}
			return nil, nil, &decodeError{err}
		}
	case isForm(r):
		if err := r.ParseForm(); err != nil {
			return nil, nil, &decodeError{err}
		}
	default:
		if err := bind(r, req); err != nil {
			return nil, nil, &decodeError{err}
		}
		return req, nil, nil
	}

	req.Topic = strings.TrimSpace(r.PostFormValue("topic"))
	req.Body = r.PostFormValue("body")
	req.Posted = formBool(r.PostFormValue("posted"))
	req.CategoryID = strings.TrimSpace(r.PostFormValue("category_id"))
	if !isMultipart(r) {
		return req, nil, nil
	}

	file, header, err := r.FormFile("thumbnail")
	if errors.Is(err, http.ErrMissingFile) {
		return req, nil, nil
	}
	if err != nil {
		return nil, nil, &decodeError{err}
	}
	defer file.Close()

	if header.Size > h.maxThumb {
		return req, nil, blog.NewValidationError("thumbnail", h.tooLargeMessage())
	}
	if !thumbnailExtensions[strings.ToLower(filepath.Ext(header.Filename))] {
		return req, nil, blog.NewValidationError("thumbnail", "File extension is not allowed. Allowed extensions are: png, jpg, jpeg.")
	}

	data, err := io.ReadAll(io.LimitReader(file, h.maxThumb+1))
	if err != nil {
		return nil, nil, fmt.Errorf("read thumbnail: %w", err)
	}
	if int64(len(data)) > h.maxThumb {
		return req, nil, blog.NewValidationError("thumbnail", h.tooLargeMessage())
	}
	return req, &upload{name: header.Filename, data: data}, nil
}

func (h *Blog) tooLargeMessage() string {
	return fmt.Sprintf("Ensure this file is no larger than %d bytes.", h.maxThumb)
}

// formBool reads an HTML checkbox or boolean form value.
func formBool(s string) bool {
	if s == "on" {
		return true
	}
	b, _ := strconv.ParseBool(s)
	return b
}

// decodeError marks a body that could not be parsed at all.
type decodeError struct{ err error }

func (e *decodeError) Error() string { return "decode request: " + e.err.Error() }
func (e *decodeError) Unwrap() error { return e.err }

// storeThumbnail resizes and uploads a thumbnail, returning its key.
func (h *Blog) storeThumbnail(ctx context.Context, up *upload) (string, error) {
	if h.files == nil {
		return "", errStorageUnavailable
	}

	thumb, err := imaging.Thumbnail(up.data, imaging.MaxWidth)
	if err != nil {
		slog.Info("thumbnail rejected", "file", up.name, "error", err)
		return "", blog.NewValidationError("thumbnail", "Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
	}

	key := storage.NewThumbnailKey()
	if err := h.files.Upload(ctx, key, imaging.ContentType, bytes.NewReader(thumb), int64(len(thumb))); err != nil {
		return "", fmt.Errorf("store thumbnail: %w", err)
	}
	return key, nil
}

// dropThumbnail deletes a stored thumbnail, logging failures.
func (h *Blog) dropThumbnail(ctx context.Context, key *string) {
	if key == nil || *key == "" || h.files == nil {
		return
	}
	if err := h.files.Delete(ctx, *key); err != nil {
		slog.Warn("thumbnail delete failed", "key", *key, "error", err)
	}
}

// releaseArticles drops the stored thumbnails and cached bodies of
// articles that no longer exist.
func (h *Blog) releaseArticles(ctx context.Context, deleted []models.Article) {
	for _, a := range deleted {
		h.dropThumbnail(ctx, a.Thumbnail)
		h.bodies.Invalidate(ctx, a.ID)
	}
}

// prepareArticle reads, validates, and uploads. It writes the error
// response itself and returns ok=false when the request must stop.
func (h *Blog) prepareArticle(w http.ResponseWriter, r *http.Request) (*articleRequest, blog.ArticleInput, bool) {
	req, up, err := h.readArticle(w, r)
	if err != nil {
		var de *decodeError
		if errors.As(err, &de) {
			render.Render(w, r, ErrInvalidRequest(de.err))
		} else {
			renderError(w, r, err, req)
		}
		return nil, blog.ArticleInput{}, false
	}
	if ve := h.validate.Check(req); ve != nil {
		renderError(w, r, ve, req)
		return nil, blog.ArticleInput{}, false
	}

	in := req.input()
	if up != nil {
		key, err := h.storeThumbnail(r.Context(), up)
		if err != nil {
			renderError(w, r, err, req)
			return nil, blog.ArticleInput{}, false
		}
		in.Thumbnail = &key
	}
	return req, in, true
}

// Home lists posted articles, newest first, optionally filtered by ?q=.
func (h *Blog) Home(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.Home(r.Context(), r.URL.Query().Get("q"), pageParam(r))
	if err != nil {
		renderError(w, r, err, nil)
		return
	}
	render.JSON(w, r, pagination.Map(page, h.responder(r.Context(), page.Items)))
}

// ArticleDetail shows one article and counts the view once per session.
func (h *Blog) ArticleDetail(w http.ResponseWriter, r *http.Request) {
	sess := sessionOf(r)
	view, err := h.svc.ViewArticle(r.Context(), sess, chi.URLParam(r, "slug"))
	if err != nil {
		renderError(w, r, err, nil)
		return
	}
	saveSession(r.Context(), w, h.sessions, sess)

	respond := h.responder(r.Context(), append([]models.Article{*view.Article}, view.Related...))
	resp := &articleDetailResponse{Article: respond(*view.Article), Related: make([]*articleResponse, 0, len(view.Related))}
	for _, a := range view.Related {
		resp.Related = append(resp.Related, respond(a))
	}
	render.Render(w, r, resp)
}

// CreateArticle publishes or drafts a new article for the logged-in user.
func (h *Blog) CreateArticle(w http.ResponseWriter, r *http.Request) {
	req, in, ok := h.prepareArticle(w, r)
	if !ok {
		return
	}

	a, err := h.svc.CreateArticle(r.Context(), actorOf(r).ID, in)
	if err != nil {
		h.dropThumbnail(r.Context(), in.Thumbnail)
		renderError(w, r, err, req)
		return
	}

	slog.Info("article created", "article_id", a.ID, "slug", a.Slug, "author_id", a.AuthorID)
	render.Status(r, http.StatusCreated)
	render.Render(w, r, h.article(r.Context(), *a))
}

// UpdateArticle edits an article. Only its author may do so. A new
// thumbnail replaces the old one, which is then deleted from storage.
func (h *Blog) UpdateArticle(w http.ResponseWriter, r *http.Request) {
	actor := actorOf(r)
	slug := chi.URLParam(r, "slug")

	// Fail on ownership before accepting an upload.
	prev, err := h.svc.ArticleForAuthor(r.Context(), actor, slug)
	if err != nil {
		renderError(w, r, err, nil)
		return
	}

	req, in, ok := h.prepareArticle(w, r)
	if !ok {
		return
	}

	a, err := h.svc.UpdateArticle(r.Context(), actor, slug, in)
	if err != nil {
		h.dropThumbnail(r.Context(), in.Thumbnail)
		renderError(w, r, err, req)
		return
	}
	if in.Thumbnail != nil {
		h.dropThumbnail(r.Context(), prev.Thumbnail)
	}
	if prev.Body != a.Body {
		h.bodies.Invalidate(r.Context(), a.ID)
	}

	slog.Info("article updated", "article_id", a.ID, "slug", a.Slug)
	render.Render(w, r, h.article(r.Context(), *a))
}

// DeleteArticle removes an article and its thumbnail.
func (h *Blog) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.DeleteArticle(r.Context(), actorOf(r), chi.URLParam(r, "slug"))
	if err != nil {
		renderError(w, r, err, nil)
		return
	}
	h.releaseArticles(r.Context(), []models.Article{*a})

	slog.Info("article deleted", "article_id", a.ID, "slug", a.Slug)
	render.NoContent(w, r)
}
