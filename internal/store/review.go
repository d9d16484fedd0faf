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

// ReviewStore handles review persistence. Reviews are insert-only.
type ReviewStore struct {
	db *sql.DB
}

// NewReviewStore creates a new ReviewStore.
func NewReviewStore(db *sql.DB) *ReviewStore {
	return &ReviewStore{db: db}
}

const reviewColumns = `id, broker_id, user_id, rating, comment, display_name, pros, cons, created_at`

func scanReview(scanner interface{ Scan(...any) error }) (*models.Review, error) {
	var r models.Review
	err := scanner.Scan(
		&r.ID, &r.BrokerID, &r.UserID, &r.Rating, &r.Comment,
		&r.DisplayName, &r.Pros, &r.Cons, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Create inserts a review and returns it with its generated ID and
// timestamp. The caller validates the rating and broker existence; the
// table constraints reject anything that slips through.
func (s *ReviewStore) Create(ctx context.Context, r *models.Review) (*models.Review, error) {
	result, err := scanReview(s.db.QueryRowContext(ctx, `
		INSERT INTO reviews (broker_id, user_id, rating, comment, display_name, pros, cons)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+reviewColumns,
		r.BrokerID, r.UserID, r.Rating, r.Comment, r.DisplayName, r.Pros, r.Cons,
	))
	if err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}
	return result, nil
}

// ReviewFilter selects reviews. A nil BrokerID lists across all brokers.
type ReviewFilter struct {
	BrokerID *uuid.UUID
	Limit    int
	Offset   int
}

// List returns reviews newest first.
func (s *ReviewStore) List(ctx context.Context, f ReviewFilter) ([]models.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews`
	var args []any
	if f.BrokerID != nil {
		args = append(args, *f.BrokerID)
		query += ` WHERE broker_id = $1`
	}
	query += ` ORDER BY created_at DESC, id`
	if f.Limit > 0 {
		args = append(args, f.Limit, f.Offset)
		query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	items := []models.Review{}
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		items = append(items, *r)
	}
	return items, rows.Err()
}

// Summary returns the review count and average rating for a broker.
// A broker without reviews has a zero summary.
func (s *ReviewStore) Summary(ctx context.Context, brokerID uuid.UUID) (models.ReviewSummary, error) {
	var sum models.ReviewSummary
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(ROUND(AVG(rating)::numeric, 2), 0)::float8
		FROM reviews WHERE broker_id = $1`, brokerID,
	).Scan(&sum.Count, &sum.AverageRating)
	if err != nil {
		return models.ReviewSummary{}, fmt.Errorf("review summary: %w", err)
	}
	return sum, nil
}
