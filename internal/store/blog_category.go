// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"brokerscope/internal/models"
)

// BlogCategoryStore manages blog categories in the database.
type BlogCategoryStore struct {
	db *sql.DB
}

// NewBlogCategoryStore returns a new BlogCategoryStore.
func NewBlogCategoryStore(db *sql.DB) *BlogCategoryStore {
	return &BlogCategoryStore{db: db}
}

const blogCategoryColumns = `id, name, slug, description, created_at, updated_at`

// scanBlogCategory scans a row into a BlogCategory struct.
func scanBlogCategory(scanner interface{ Scan(...any) error }) (*models.BlogCategory, error) {
	var c models.BlogCategory
	if err := scanner.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns all blog categories ordered by name, with published post
// counts.
func (s *BlogCategoryStore) List(ctx context.Context) ([]models.BlogCategory, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.slug, c.description, c.created_at, c.updated_at,
		       COUNT(p.id) AS post_count
		FROM blog_categories c
		LEFT JOIN blog_posts p ON p.category_id = c.id
		     AND p.published_at IS NOT NULL AND p.published_at <= now()
		GROUP BY c.id
		ORDER BY c.name
	`)
	if err != nil {
		return nil, fmt.Errorf("list blog categories: %w", err)
	}
	defer rows.Close()

	items := []models.BlogCategory{}
	for rows.Next() {
		var c models.BlogCategory
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Slug, &c.Description,
			&c.CreatedAt, &c.UpdatedAt, &c.PostCount,
		); err != nil {
			return nil, fmt.Errorf("scan blog category: %w", err)
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// FindByID retrieves a blog category by ID. Returns nil if not found.
func (s *BlogCategoryStore) FindByID(ctx context.Context, id uuid.UUID) (*models.BlogCategory, error) {
	c, err := scanBlogCategory(s.db.QueryRowContext(ctx,
		`SELECT `+blogCategoryColumns+` FROM blog_categories WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find blog category by id: %w", err)
	}
	return c, nil
}

// Create inserts a new blog category and returns it.
func (s *BlogCategoryStore) Create(ctx context.Context, c *models.BlogCategory) (*models.BlogCategory, error) {
	result, err := scanBlogCategory(s.db.QueryRowContext(ctx, `
		INSERT INTO blog_categories (name, slug, description)
		VALUES ($1, $2, $3)
		RETURNING `+blogCategoryColumns,
		c.Name, c.Slug, c.Description,
	))
	if isUniqueViolation(err) {
		return nil, ErrSlugTaken
	}
	if err != nil {
		return nil, fmt.Errorf("create blog category: %w", err)
	}
	return result, nil
}

// Delete removes a blog category by ID. Posts keep existing without a
// category (ON DELETE SET NULL). Returns false if it did not exist.
func (s *BlogCategoryStore) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM blog_categories WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete blog category: %w", err)
	}
	return affected(res)
}
