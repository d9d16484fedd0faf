// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"brokerscope/internal/models"
)

// BlogPostStore handles all blog post database operations.
type BlogPostStore struct {
	db *sql.DB
}

// NewBlogPostStore creates a new BlogPostStore with the given database connection.
func NewBlogPostStore(db *sql.DB) *BlogPostStore {
	return &BlogPostStore{db: db}
}

const blogPostColumns = `p.id, p.title, p.slug, p.content, p.excerpt, p.tags, p.category_id,
	p.reading_time, p.published_at, p.created_at, p.updated_at`

func scanBlogPost(scanner interface{ Scan(...any) error }) (*models.BlogPost, error) {
	var p models.BlogPost
	err := scanner.Scan(
		&p.ID, &p.Title, &p.Slug, &p.Content, &p.Excerpt, textArray(&p.Tags), &p.CategoryID,
		&p.ReadingTime, &p.PublishedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// BlogPostFilter narrows the public post listing.
type BlogPostFilter struct {
	Category string // blog category slug
	Tag      string
	Limit    int
	Offset   int
}

// ListPublished returns posts published at or before now, newest first.
func (s *BlogPostStore) ListPublished(ctx context.Context, f BlogPostFilter, now time.Time) ([]models.BlogPost, error) {
	query := `SELECT ` + blogPostColumns + ` FROM blog_posts p
		LEFT JOIN blog_categories c ON c.id = p.category_id
		WHERE p.published_at IS NOT NULL AND p.published_at <= $1`
	args := []any{now}
	if f.Category != "" {
		args = append(args, f.Category)
		query += fmt.Sprintf(` AND c.slug = $%d`, len(args))
	}
	if f.Tag != "" {
		args = append(args, f.Tag)
		query += fmt.Sprintf(` AND $%d = ANY(p.tags)`, len(args))
	}
	query += ` ORDER BY p.published_at DESC, p.id`
	if f.Limit > 0 {
		args = append(args, f.Limit, f.Offset)
		query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list published posts: %w", err)
	}
	defer rows.Close()

	items := []models.BlogPost{}
	for rows.Next() {
		p, err := scanBlogPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan blog post: %w", err)
		}
		items = append(items, *p)
	}
	return items, rows.Err()
}

// FindPublishedBySlug retrieves a published post by slug. Returns nil if
// not found or not yet published.
func (s *BlogPostStore) FindPublishedBySlug(ctx context.Context, slug string, now time.Time) (*models.BlogPost, error) {
	p, err := scanBlogPost(s.db.QueryRowContext(ctx, `
		SELECT `+blogPostColumns+` FROM blog_posts p
		WHERE p.slug = $1 AND p.published_at IS NOT NULL AND p.published_at <= $2`, slug, now))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find blog post by slug: %w", err)
	}
	return p, nil
}

// FindByID retrieves a post by its UUID regardless of publish state.
// Returns nil if not found.
func (s *BlogPostStore) FindByID(ctx context.Context, id uuid.UUID) (*models.BlogPost, error) {
	p, err := scanBlogPost(s.db.QueryRowContext(ctx,
		`SELECT `+blogPostColumns+` FROM blog_posts p WHERE p.id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find blog post by id: %w", err)
	}
	return p, nil
}

// SlugTaken reports whether slug is already used by a post.
func (s *BlogPostStore) SlugTaken(ctx context.Context, slug string) (bool, error) {
	var ok bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM blog_posts WHERE slug = $1)`, slug).Scan(&ok); err != nil {
		return false, fmt.Errorf("check blog post slug: %w", err)
	}
	return ok, nil
}

// Create inserts a new post and returns it with the generated ID. The
// reading time is recomputed from the content.
func (s *BlogPostStore) Create(ctx context.Context, p *models.BlogPost) (*models.BlogPost, error) {
	result, err := scanBlogPost(s.db.QueryRowContext(ctx, `
		WITH p AS (
			INSERT INTO blog_posts (title, slug, content, excerpt, tags, category_id, reading_time, published_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING *
		)
		SELECT `+blogPostColumns+` FROM p`,
		p.Title, p.Slug, p.Content, p.Excerpt, nonNilStrings(p.Tags), p.CategoryID,
		models.ReadingTime(p.Content), p.PublishedAt,
	))
	if isUniqueViolation(err) {
		return nil, ErrSlugTaken
	}
	if err != nil {
		return nil, fmt.Errorf("create blog post: %w", err)
	}
	return result, nil
}

// Update modifies an existing post. Returns nil if it does not exist.
func (s *BlogPostStore) Update(ctx context.Context, p *models.BlogPost) (*models.BlogPost, error) {
	result, err := scanBlogPost(s.db.QueryRowContext(ctx, `
		WITH p AS (
			UPDATE blog_posts SET
				title = $2, slug = $3, content = $4, excerpt = $5, tags = $6,
				category_id = $7, reading_time = $8, published_at = $9, updated_at = now()
			WHERE id = $1
			RETURNING *
		)
		SELECT `+blogPostColumns+` FROM p`,
		p.ID, p.Title, p.Slug, p.Content, p.Excerpt, nonNilStrings(p.Tags),
		p.CategoryID, models.ReadingTime(p.Content), p.PublishedAt,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if isUniqueViolation(err) {
		return nil, ErrSlugTaken
	}
	if err != nil {
		return nil, fmt.Errorf("update blog post: %w", err)
	}
	return result, nil
}

// Delete removes a post by ID. Returns false if it did not exist.
func (s *BlogPostStore) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM blog_posts WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete blog post: %w", err)
	}
	return affected(res)
}
