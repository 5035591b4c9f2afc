// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package blog

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"blogpress/internal/models"
)

// memStore is an in-memory Store. WithTx works on a copy of the data and
// only publishes it when fn succeeds, so rollbacks behave like Postgres.
type memStore struct {
	*memRepo
	mu sync.Mutex
}

type memRepo struct {
	articles   map[uuid.UUID]*models.Article
	categories map[uuid.UUID]*models.Category
	fail       map[string]error
}

func newMemStore() *memStore {
	return &memStore{memRepo: &memRepo{
		articles:   make(map[uuid.UUID]*models.Article),
		categories: make(map[uuid.UUID]*models.Category),
		fail:       make(map[string]error),
	}}
}

func (s *memStore) failOn(method string, err error) {
	s.fail[method] = err
}

func (s *memStore) WithTx(ctx context.Context, fn func(Repository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := s.memRepo.clone()
	if err := fn(tx); err != nil {
		return err
	}
	s.memRepo = tx
	return nil
}

func (r *memRepo) clone() *memRepo {
	c := &memRepo{
		articles:   make(map[uuid.UUID]*models.Article, len(r.articles)),
		categories: make(map[uuid.UUID]*models.Category, len(r.categories)),
		fail:       r.fail,
	}
	for id, a := range r.articles {
		c.articles[id] = a.Clone()
	}
	for id, cat := range r.categories {
		cp := *cat
		c.categories[id] = &cp
	}
	return c
}

func (r *memRepo) check(method string) error {
	return r.fail[method]
}

func (r *memRepo) ArticleByID(_ context.Context, id uuid.UUID) (*models.Article, error) {
	if a, ok := r.articles[id]; ok {
		return a.Clone(), nil
	}
	return nil, nil
}

func (r *memRepo) ArticleBySlug(_ context.Context, slug string) (*models.Article, error) {
	for _, a := range r.articles {
		if a.Slug == slug {
			return a.Clone(), nil
		}
	}
	return nil, nil
}

func (r *memRepo) SlugTaken(_ context.Context, slug string, exclude uuid.UUID) (bool, error) {
	for _, a := range r.articles {
		if a.Slug == slug && a.ID != exclude {
			return true, nil
		}
	}
	return false, nil
}

func (r *memRepo) validateArticle(a *models.Article) error {
	for _, other := range r.articles {
		if other.ID == a.ID {
			continue
		}
		if other.Topic == a.Topic {
			return &ConstraintViolation{Field: "topic", Constraint: "unique"}
		}
		if other.Slug == a.Slug {
			return &ConstraintViolation{Field: "slug", Constraint: "unique"}
		}
	}
	if a.CategoryID != nil {
		if _, ok := r.categories[*a.CategoryID]; !ok {
			return &ConstraintViolation{Field: "category", Constraint: "foreign_key"}
		}
	}
	return nil
}

func (r *memRepo) InsertArticle(_ context.Context, a *models.Article) error {
	if err := r.check("InsertArticle"); err != nil {
		return err
	}
	if err := r.validateArticle(a); err != nil {
		return err
	}
	r.articles[a.ID] = a.Clone()
	return nil
}

func (r *memRepo) UpdateArticle(_ context.Context, a *models.Article) error {
	if err := r.check("UpdateArticle"); err != nil {
		return err
	}
	cur, ok := r.articles[a.ID]
	if !ok {
		return ErrNotFound
	}
	if err := r.validateArticle(a); err != nil {
		return err
	}
	next := a.Clone()
	next.Views = cur.Views
	r.articles[a.ID] = next
	return nil
}

func (r *memRepo) DeleteArticle(_ context.Context, id uuid.UUID) error {
	if _, ok := r.articles[id]; !ok {
		return ErrNotFound
	}
	delete(r.articles, id)
	return nil
}

func (r *memRepo) DeleteArticlesByCategory(_ context.Context, categoryID uuid.UUID) ([]models.Article, error) {
	var deleted []models.Article
	for id, a := range r.articles {
		if a.CategoryID != nil && *a.CategoryID == categoryID {
			deleted = append(deleted, *a.Clone())
			delete(r.articles, id)
		}
	}
	return deleted, nil
}

func (r *memRepo) ClearArticleCategory(_ context.Context, categoryID uuid.UUID) (int, error) {
	n := 0
	for _, a := range r.articles {
		if a.CategoryID != nil && *a.CategoryID == categoryID {
			a.CategoryID = nil
			n++
		}
	}
	return n, nil
}

func (r *memRepo) IncrementViews(_ context.Context, id uuid.UUID, updatedOn *time.Time) (int, error) {
	if err := r.check("IncrementViews"); err != nil {
		return 0, err
	}
	a, ok := r.articles[id]
	if !ok {
		return 0, ErrNotFound
	}
	a.Views++
	if updatedOn != nil && (a.UpdatedOn == nil || updatedOn.After(*a.UpdatedOn)) {
		t := *updatedOn
		a.UpdatedOn = &t
	}
	return a.Views, nil
}

func (r *memRepo) ListArticles(_ context.Context, f ArticleFilter, limit, offset int) ([]models.Article, int, error) {
	q := strings.ToLower(f.Query)
	var out []models.Article
	for _, a := range r.articles {
		switch {
		case f.PostedOnly && !a.Posted:
			continue
		case f.AuthorID != nil && a.AuthorID != *f.AuthorID:
			continue
		case f.CategoryID != nil && (a.CategoryID == nil || *a.CategoryID != *f.CategoryID):
			continue
		case f.ExcludeID != nil && a.ID == *f.ExcludeID:
			continue
		case q != "" && !strings.Contains(strings.ToLower(a.Topic), q) && !strings.Contains(strings.ToLower(a.Body), q):
			continue
		}
		out = append(out, *a.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].ID[:], out[j].ID[:]) > 0
	})
	return window(out, limit, offset), len(out), nil
}

func (r *memRepo) CategoryByID(_ context.Context, id uuid.UUID) (*models.Category, error) {
	if c, ok := r.categories[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (r *memRepo) uniqueName(c *models.Category) error {
	for _, other := range r.categories {
		if other.ID != c.ID && other.Name == c.Name {
			return &ConstraintViolation{Field: "name", Constraint: "unique"}
		}
	}
	return nil
}

func (r *memRepo) InsertCategory(_ context.Context, c *models.Category) error {
	if err := r.uniqueName(c); err != nil {
		return err
	}
	cp := *c
	r.categories[c.ID] = &cp
	return nil
}

func (r *memRepo) UpdateCategory(_ context.Context, c *models.Category) error {
	cur, ok := r.categories[c.ID]
	if !ok {
		return ErrNotFound
	}
	if err := r.uniqueName(c); err != nil {
		return err
	}
	cur.Name = c.Name
	return nil
}

func (r *memRepo) DeleteCategory(_ context.Context, id uuid.UUID) error {
	if _, ok := r.categories[id]; !ok {
		return ErrNotFound
	}
	delete(r.categories, id)
	for _, a := range r.articles {
		if a.CategoryID != nil && *a.CategoryID == id {
			a.CategoryID = nil
		}
	}
	return nil
}

func (r *memRepo) IncrementCategoryPosts(_ context.Context, id uuid.UUID) (int, error) {
	if err := r.check("IncrementCategoryPosts"); err != nil {
		return 0, err
	}
	c, ok := r.categories[id]
	if !ok {
		return 0, ErrNotFound
	}
	c.TotalPost++
	return c.TotalPost, nil
}

func (r *memRepo) ListCategories(_ context.Context, f CategoryFilter, limit, offset int) ([]models.Category, int, error) {
	var out []models.Category
	for _, c := range r.categories {
		if f.NonEmptyOnly && c.TotalPost == 0 {
			continue
		}
		if f.CreatedBy != nil && (c.CreatedBy == nil || *c.CreatedBy != *f.CreatedBy) {
			continue
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalPost != out[j].TotalPost {
			return out[i].TotalPost > out[j].TotalPost
		}
		return out[i].Name < out[j].Name
	})
	return window(out, limit, offset), len(out), nil
}

func window[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}

// memSession is a Session backed by a map.
type memSession struct {
	values map[string]string
	viewer uuid.UUID
}

func newSession(viewer uuid.UUID) *memSession {
	return &memSession{values: make(map[string]string), viewer: viewer}
}

func (s *memSession) Get(key string) (string, bool) {
	v, ok := s.values[key]
	return v, ok
}

func (s *memSession) Set(key, value string) { s.values[key] = value }
func (s *memSession) Delete(key string)     { delete(s.values, key) }
func (s *memSession) ViewerID() uuid.UUID   { return s.viewer }
