// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Rating bounds for a review.
const (
	MinReviewRating = 1
	MaxReviewRating = 5
)

// Review is a user rating attached to a broker. Reviews are never updated;
// they disappear only when their broker is deleted or by explicit cleanup.
// DisplayName, Pros and Cons are optional metadata stored in their own
// columns.
type Review struct {
	ID          uuid.UUID  `json:"id"`
	BrokerID    uuid.UUID  `json:"broker_id"`
	UserID      *uuid.UUID `json:"user_id,omitempty"`
	Rating      int        `json:"rating"`
	Comment     string     `json:"comment"`
	DisplayName *string    `json:"display_name,omitempty"`
	Pros        *string    `json:"pros,omitempty"`
	Cons        *string    `json:"cons,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ValidRating reports whether r lies in the accepted [1,5] range.
func ValidRating(r int) bool {
	return r >= MinReviewRating && r <= MaxReviewRating
}

// ReviewSummary aggregates the reviews of one broker.
type ReviewSummary struct {
	Count         int     `json:"count"`
	AverageRating float64 `json:"average_rating"`
}
