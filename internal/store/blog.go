// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"blogpress/internal/blog"
	"blogpress/internal/models"
)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// BlogStore persists articles and categories. It implements blog.Store.
type BlogStore struct {
	db *sql.DB // nil inside a transaction
	q  queryer
}

// NewBlogStore creates a new BlogStore with the given database connection.
func NewBlogStore(db *sql.DB) *BlogStore {
	return &BlogStore{db: db, q: db}
}

// WithTx runs fn inside a single transaction. Calls made on a store that is
// already transactional join the outer transaction.
func (s *BlogStore) WithTx(ctx context.Context, fn func(blog.Repository) error) error {
	if s.db == nil {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&BlogStore{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

const articleColumns = `id, author_id, category_id, topic, body, posted, thumbnail, slug, created_on, updated_on, views`

// scanArticle scans a row into an Article struct.
func scanArticle(scanner interface{ Scan(...any) error }) (*models.Article, error) {
	var a models.Article
	err := scanner.Scan(
		&a.ID, &a.AuthorID, &a.CategoryID, &a.Topic, &a.Body, &a.Posted,
		&a.Thumbnail, &a.Slug, &a.CreatedOn, &a.UpdatedOn, &a.Views,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *BlogStore) findArticle(ctx context.Context, where string, arg any) (*models.Article, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+articleColumns+` FROM articles WHERE `+where, arg)
	a, err := scanArticle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ArticleByID retrieves an article by its UUID. Returns nil if not found.
func (s *BlogStore) ArticleByID(ctx context.Context, id uuid.UUID) (*models.Article, error) {
	a, err := s.findArticle(ctx, "id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("find article by id: %w", err)
	}
	return a, nil
}

// ArticleBySlug retrieves an article by its slug. Returns nil if not found.
func (s *BlogStore) ArticleBySlug(ctx context.Context, slug string) (*models.Article, error) {
	a, err := s.findArticle(ctx, "slug = $1", slug)
	if err != nil {
		return nil, fmt.Errorf("find article by slug: %w", err)
	}
	return a, nil
}

// SlugTaken reports whether an article other than exclude uses slug.
func (s *BlogStore) SlugTaken(ctx context.Context, slug string, exclude uuid.UUID) (bool, error) {
	var taken bool
	err := s.q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM articles WHERE slug = $1 AND id <> $2)`, slug, exclude,
	).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("check slug: %w", err)
	}
	return taken, nil
}

// InsertArticle writes a new article row.
func (s *BlogStore) InsertArticle(ctx context.Context, a *models.Article) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO articles (`+articleColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, a.ID, a.AuthorID, a.CategoryID, a.Topic, a.Body, a.Posted,
		a.Thumbnail, a.Slug, a.CreatedOn, a.UpdatedOn, a.Views,
	)
	if err != nil {
		return fmt.Errorf("insert article: %w", translate(err))
	}
	return nil
}

// UpdateArticle writes every mutable column except views.
func (s *BlogStore) UpdateArticle(ctx context.Context, a *models.Article) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE articles
		SET category_id = $2, topic = $3, body = $4, posted = $5, thumbnail = $6,
		    slug = $7, created_on = $8, updated_on = $9
		WHERE id = $1
	`, a.ID, a.CategoryID, a.Topic, a.Body, a.Posted, a.Thumbnail,
		a.Slug, a.CreatedOn, a.UpdatedOn,
	)
	if err != nil {
		return fmt.Errorf("update article: %w", translate(err))
	}
	return expectRow(res, "update article")
}

// DeleteArticle removes an article by ID.
func (s *BlogStore) DeleteArticle(ctx context.Context, id uuid.UUID) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM articles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	return expectRow(res, "delete article")
}

// DeleteArticlesByCategory removes every article in a category and returns
// the removed rows.
func (s *BlogStore) DeleteArticlesByCategory(ctx context.Context, categoryID uuid.UUID) ([]models.Article, error) {
	rows, err := s.q.QueryContext(ctx,
		`DELETE FROM articles WHERE category_id = $1 RETURNING `+articleColumns, categoryID)
	if err != nil {
		return nil, fmt.Errorf("delete category articles: %w", err)
	}
	defer rows.Close()

	var deleted []models.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		deleted = append(deleted, *a)
	}
	return deleted, rows.Err()
}

// ClearArticleCategory detaches every article from a category.
func (s *BlogStore) ClearArticleCategory(ctx context.Context, categoryID uuid.UUID) (int, error) {
	res, err := s.q.ExecContext(ctx, `UPDATE articles SET category_id = NULL WHERE category_id = $1`, categoryID)
	if err != nil {
		return 0, fmt.Errorf("clear article category: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// IncrementViews atomically adds one view and returns the new count. A
// non-nil updatedOn advances updated_on in the same statement; it never
// moves it backwards.
func (s *BlogStore) IncrementViews(ctx context.Context, id uuid.UUID, updatedOn *time.Time) (int, error) {
	var views int
	err := s.q.QueryRowContext(ctx,
		`UPDATE articles SET views = views + 1, updated_on = GREATEST(updated_on, $2)
		 WHERE id = $1 RETURNING views`, id, updatedOn,
	).Scan(&views)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, blog.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("increment views: %w", err)
	}
	return views, nil
}

// ListArticles returns one window of articles matching f, newest first,
// plus the number of matching articles.
func (s *BlogStore) ListArticles(ctx context.Context, f blog.ArticleFilter, limit, offset int) ([]models.Article, int, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.PostedOnly {
		conds = append(conds, "posted")
	}
	if f.AuthorID != nil {
		add("author_id = $%d", *f.AuthorID)
	}
	if f.CategoryID != nil {
		add("category_id = $%d", *f.CategoryID)
	}
	if f.ExcludeID != nil {
		add("id <> $%d", *f.ExcludeID)
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		args = append(args, likePattern(q))
		n := len(args)
		conds = append(conds, fmt.Sprintf(`(topic ILIKE $%d OR body ILIKE $%d)`, n, n))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM articles`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count articles: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM articles%s ORDER BY id DESC LIMIT $%d OFFSET $%d`,
		articleColumns, where, len(args)+1, len(args)+2)
	rows, err := s.q.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	var items []models.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan article: %w", err)
		}
		items = append(items, *a)
	}
	return items, total, rows.Err()
}

const categoryColumns = `id, name, total_post, created_by, created_at`

// scanCategory scans a row into a Category struct.
func scanCategory(scanner interface{ Scan(...any) error }) (*models.Category, error) {
	var c models.Category
	if err := scanner.Scan(&c.ID, &c.Name, &c.TotalPost, &c.CreatedBy, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// CategoryByID retrieves a category by its UUID. Returns nil if not found.
func (s *BlogStore) CategoryByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category by id: %w", err)
	}
	return c, nil
}

// InsertCategory writes a new category row.
func (s *BlogStore) InsertCategory(ctx context.Context, c *models.Category) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO categories (`+categoryColumns+`)
		VALUES ($1, $2, $3, $4, $5)
	`, c.ID, c.Name, c.TotalPost, c.CreatedBy, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert category: %w", translate(err))
	}
	return nil
}

// UpdateCategory renames a category.
func (s *BlogStore) UpdateCategory(ctx context.Context, c *models.Category) error {
	res, err := s.q.ExecContext(ctx, `UPDATE categories SET name = $2 WHERE id = $1`, c.ID, c.Name)
	if err != nil {
		return fmt.Errorf("update category: %w", translate(err))
	}
	return expectRow(res, "update category")
}

// DeleteCategory removes a category by ID.
func (s *BlogStore) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return expectRow(res, "delete category")
}

// IncrementCategoryPosts atomically adds one to total_post and returns it.
func (s *BlogStore) IncrementCategoryPosts(ctx context.Context, id uuid.UUID) (int, error) {
	var total int
	err := s.q.QueryRowContext(ctx,
		`UPDATE categories SET total_post = total_post + 1 WHERE id = $1 RETURNING total_post`, id,
	).Scan(&total)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, blog.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("increment category posts: %w", err)
	}
	return total, nil
}

// ListCategories returns one window of categories matching f, most posts
// first, plus the number of matching categories.
func (s *BlogStore) ListCategories(ctx context.Context, f blog.CategoryFilter, limit, offset int) ([]models.Category, int, error) {
	var (
		conds []string
		args  []any
	)
	if f.NonEmptyOnly {
		conds = append(conds, "total_post > 0")
	}
	if f.CreatedBy != nil {
		args = append(args, *f.CreatedBy)
		conds = append(conds, fmt.Sprintf("created_by = $%d", len(args)))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count categories: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM categories%s ORDER BY total_post DESC, name LIMIT $%d OFFSET $%d`,
		categoryColumns, where, len(args)+1, len(args)+2)
	rows, err := s.q.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var items []models.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan category: %w", err)
		}
		items = append(items, *c)
	}
	return items, total, rows.Err()
}

// expectRow turns "zero rows affected" into blog.ErrNotFound.
func expectRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return blog.ErrNotFound
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern wraps q for a substring ILIKE match with wildcards escaped.
func likePattern(q string) string {
	return "%" + likeEscaper.Replace(q) + "%"
}

var _ blog.Store = (*BlogStore)(nil)
