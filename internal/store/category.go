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

// CategoryStore manages broker categories and their broker links.
type CategoryStore struct {
	db *sql.DB
}

// NewCategoryStore returns a new CategoryStore.
func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

const categoryColumns = `c.id, c.name, c.slug`

func (s *CategoryStore) query(ctx context.Context, op, query string, args ...any) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	items := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// List returns all broker categories ordered by name.
func (s *CategoryStore) List(ctx context.Context) ([]models.Category, error) {
	return s.query(ctx, "list categories",
		`SELECT `+categoryColumns+` FROM categories c ORDER BY c.name`)
}

// ForBroker returns the categories linked to a broker, ordered by name.
func (s *CategoryStore) ForBroker(ctx context.Context, brokerID uuid.UUID) ([]models.Category, error) {
	return s.query(ctx, "list broker categories", `
		SELECT `+categoryColumns+`
		FROM categories c
		JOIN broker_categories bc ON bc.category_id = c.id
		WHERE bc.broker_id = $1
		ORDER BY c.name`, brokerID)
}

// FindBySlug retrieves a category by slug. Returns nil if not found.
func (s *CategoryStore) FindBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var c models.Category
	err := s.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories c WHERE c.slug = $1`, slug,
	).Scan(&c.ID, &c.Name, &c.Slug)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category by slug: %w", err)
	}
	return &c, nil
}

// Create inserts a new category and returns it.
func (s *CategoryStore) Create(ctx context.Context, name, slug string) (*models.Category, error) {
	var c models.Category
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO categories (name, slug) VALUES ($1, $2)
		RETURNING id, name, slug`, name, slug,
	).Scan(&c.ID, &c.Name, &c.Slug)
	if isUniqueViolation(err) {
		return nil, ErrSlugTaken
	}
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return &c, nil
}

// Link attaches a category to a broker. Linking twice is a no-op.
func (s *CategoryStore) Link(ctx context.Context, brokerID, categoryID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO broker_categories (broker_id, category_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, brokerID, categoryID)
	if err != nil {
		return fmt.Errorf("link broker category: %w", err)
	}
	return nil
}

// Delete removes a category. Broker links cascade.
func (s *CategoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}
