// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"brokerscope/internal/models"
	"brokerscope/internal/store"
)

// createReviewRequest is the body of POST /api/reviews.
type createReviewRequest struct {
	BrokerID    string  `json:"broker_id" validate:"required,uuid"`
	Rating      *int    `json:"rating" validate:"required,min=1,max=5"`
	Comment     string  `json:"comment" validate:"max=5000"`
	DisplayName *string `json:"display_name" validate:"omitempty,max=100"`
	Pros        *string `json:"pros" validate:"omitempty,max=2000"`
	Cons        *string `json:"cons" validate:"omitempty,max=2000"`
	UserID      *string `json:"user_id" validate:"omitempty,uuid"`
}

// optionalText trims s and maps blank values to nil.
func optionalText(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

// ListReviews handles GET /api/reviews.
func (p *Public) ListReviews(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset, err := page(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	f := store.ReviewFilter{Limit: limit, Offset: offset}
	if raw := q.Get("broker_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "broker_id must be a valid UUID")
			return
		}
		f.BrokerID = &id
	}

	reviews, err := p.Reviews.List(r.Context(), f)
	if err != nil {
		serverError(w, r, "list reviews", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reviews": reviews})
}

// CreateReview handles POST /api/reviews.
func (p *Public) CreateReview(w http.ResponseWriter, r *http.Request) {
	var req createReviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := validateStruct(req); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	brokerID := uuid.MustParse(req.BrokerID)
	review := &models.Review{
		BrokerID:    brokerID,
		Rating:      *req.Rating,
		Comment:     strings.TrimSpace(req.Comment),
		DisplayName: optionalText(req.DisplayName),
		Pros:        optionalText(req.Pros),
		Cons:        optionalText(req.Cons),
	}
	if raw := optionalText(req.UserID); raw != nil {
		uid := uuid.MustParse(*raw)
		review.UserID = &uid
	}

	ctx := r.Context()
	exists, err := p.Brokers.Exists(ctx, brokerID)
	if err != nil {
		serverError(w, r, "check broker", err)
		return
	}
	if !exists {
		writeError(w, http.StatusNotFound, "broker not found")
		return
	}

	if review.UserID != nil {
		u, err := p.Users.FindByID(ctx, *review.UserID)
		if err != nil {
			serverError(w, r, "find user", err)
			return
		}
		if u == nil {
			writeError(w, http.StatusBadRequest, "user_id does not match a user")
			return
		}
	}

	created, err := p.Reviews.Create(ctx, review)
	if err != nil {
		serverError(w, r, "create review", err)
		return
	}
	// Review summaries live in cached broker detail responses.
	p.invalidateCache(ctx)
	writeJSON(w, http.StatusCreated, created)
}
