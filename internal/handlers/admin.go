// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"brokerscope/internal/dedup"
	"brokerscope/internal/models"
	"brokerscope/internal/slug"
	"brokerscope/internal/store"
)

// Admin groups the token-protected admin API handlers. Every successful
// mutation clears the response cache.
type Admin struct {
	*Deps
}

// NewAdmin creates the admin handler group.
func NewAdmin(d *Deps) *Admin {
	return &Admin{Deps: d}
}

// --- Brokers ---

// brokerRequest is the body of POST /api/admin/brokers.
type brokerRequest struct {
	Name         string          `json:"name" validate:"required,max=200"`
	LogoURL      *string         `json:"logo_url" validate:"omitempty,url"`
	MinDeposit   decimal.Decimal `json:"min_deposit"`
	TradingFee   decimal.Decimal `json:"trading_fee"`
	Regulations  string          `json:"regulations" validate:"max=500"`
	AssetClasses []string        `json:"asset_classes" validate:"max=20,dive,max=50"`
	Country      string          `json:"country" validate:"max=100"`
	Rating       *float64        `json:"rating" validate:"omitempty,min=0,max=5"`
	WebsiteURL   string          `json:"website_url" validate:"omitempty,url"`
	Leverage     string          `json:"leverage" validate:"max=50"`
	Platforms    []string        `json:"platforms" validate:"max=20,dive,max=100"`
	Spread       string          `json:"spread" validate:"max=100"`
	Headquarters string          `json:"headquarters" validate:"max=200"`
	FoundedYear  *int            `json:"founded_year" validate:"omitempty,min=1800,max=2100"`
}

func (req *brokerRequest) broker() *models.Broker {
	return &models.Broker{
		Name:         strings.TrimSpace(req.Name),
		LogoURL:      optionalText(req.LogoURL),
		MinDeposit:   req.MinDeposit,
		TradingFee:   req.TradingFee,
		Regulations:  strings.TrimSpace(req.Regulations),
		AssetClasses: lowerAll(req.AssetClasses),
		Country:      strings.TrimSpace(req.Country),
		Rating:       req.Rating,
		WebsiteURL:   strings.TrimSpace(req.WebsiteURL),
		Leverage:     strings.TrimSpace(req.Leverage),
		Platforms:    req.Platforms,
		Spread:       strings.TrimSpace(req.Spread),
		Headquarters: strings.TrimSpace(req.Headquarters),
		FoundedYear:  req.FoundedYear,
	}
}

// lowerAll normalizes asset classes to their stored lowercase form.
func lowerAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// checkBroker enforces the invariants the validator tags cannot express.
func checkBroker(b *models.Broker) string {
	switch {
	case b.Name == "":
		return "name is required"
	case b.MinDeposit.IsNegative():
		return "min_deposit must not be negative"
	case b.TradingFee.IsNegative():
		return "trading_fee must not be negative"
	case b.Rating != nil && (*b.Rating < 0 || *b.Rating > 5):
		return "rating must be between 0 and 5"
	}
	return ""
}

// CreateBroker handles POST /api/admin/brokers. The slug is generated from
// the name and suffixed when taken.
func (a *Admin) CreateBroker(w http.ResponseWriter, r *http.Request) {
	var req brokerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := validateStruct(req); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	b := req.broker()
	if msg := checkBroker(b); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	ctx := r.Context()
	s, err := slug.Unique(ctx, b.Name, a.Brokers.SlugTaken)
	if err != nil {
		serverError(w, r, "generate broker slug", err)
		return
	}
	b.Slug = s

	created, err := a.Brokers.Create(ctx, b)
	if errors.Is(err, store.ErrSlugTaken) {
		writeError(w, http.StatusConflict, "slug already taken, retry")
		return
	}
	if err != nil {
		serverError(w, r, "create broker", err)
		return
	}

	log.Info().Str("slug", created.Slug).Str("id", created.ID.String()).Msg("broker created")
	a.invalidateCache(ctx)
	writeJSON(w, http.StatusCreated, created)
}

// UpdateBroker handles PATCH /api/admin/brokers/{slug}. Only the fields
// present in the body change.
func (a *Admin) UpdateBroker(w http.ResponseWriter, r *http.Request) {
	var patch models.BrokerPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := validateStruct(patch); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	ctx := r.Context()
	brokerSlug := chi.URLParam(r, "slug")
	b, err := a.Brokers.FindBySlug(ctx, brokerSlug)
	if err != nil {
		serverError(w, r, "find broker", err)
		return
	}
	if b == nil {
		writeError(w, http.StatusNotFound, "broker not found")
		return
	}

	patch.Apply(b)
	b.Name = strings.TrimSpace(b.Name)
	if patch.AssetClasses != nil {
		b.AssetClasses = lowerAll(b.AssetClasses)
	}
	if msg := checkBroker(b); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	updated, err := a.Brokers.Update(ctx, brokerSlug, b)
	if err != nil {
		serverError(w, r, "update broker", err)
		return
	}
	if updated == nil {
		writeError(w, http.StatusNotFound, "broker not found")
		return
	}

	log.Info().Str("slug", brokerSlug).Msg("broker updated")
	a.invalidateCache(ctx)
	writeJSON(w, http.StatusOK, updated)
}

// DeleteBroker handles DELETE /api/admin/brokers/{slug}. Reviews and
// category links go with it.
func (a *Admin) DeleteBroker(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	brokerSlug := chi.URLParam(r, "slug")
	deleted, err := a.Brokers.DeleteBySlug(ctx, brokerSlug)
	if err != nil {
		serverError(w, r, "delete broker", err)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "broker not found")
		return
	}

	log.Info().Str("slug", brokerSlug).Msg("broker deleted")
	a.invalidateCache(ctx)
	w.WriteHeader(http.StatusNoContent)
}

// Duplicates handles GET /api/admin/duplicates: the deletions a dedup run
// would perform, without performing them.
func (a *Admin) Duplicates(w http.ResponseWriter, r *http.Request) {
	brokers, err := a.Brokers.ListAll(r.Context())
	if err != nil {
		serverError(w, r, "list brokers", err)
		return
	}
	plan := dedup.NewPlan(brokers)
	writeJSON(w, http.StatusOK, map[string]any{
		"scanned":   len(brokers),
		"deletions": plan.Deletions(),
		"groups":    plan.Groups,
	})
}
