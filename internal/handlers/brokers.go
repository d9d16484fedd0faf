// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"brokerscope/internal/models"
	"brokerscope/internal/store"
	"brokerscope/internal/websearch"
)

// categoryFetchLimit bounds concurrent category lookups per listing.
const categoryFetchLimit = 8

// searchFallbackThreshold is the local result count below which broker
// search also asks the web search provider.
const searchFallbackThreshold = 3

// Public groups the public API handlers.
type Public struct {
	*Deps
}

// NewPublic creates the public handler group.
func NewPublic(d *Deps) *Public {
	return &Public{Deps: d}
}

// listings attaches categories and derived fields to every broker. The
// category lookups run in parallel, at most categoryFetchLimit at once.
func (p *Public) listings(ctx context.Context, brokers []models.Broker) ([]models.BrokerListing, error) {
	out := make([]models.BrokerListing, len(brokers))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(categoryFetchLimit)
	for i, b := range brokers {
		g.Go(func() error {
			cats, err := p.Categories.ForBroker(ctx, b.ID)
			if err != nil {
				return err
			}
			out[i] = models.NewBrokerListing(b, cats)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListBrokers handles GET /api/brokers.
func (p *Public) ListBrokers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset, err := page(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sort := q.Get("sort")
	if sort != "" && !store.ValidBrokerSort(sort) {
		writeError(w, http.StatusBadRequest, "sort must be one of: rating, min_deposit, trading_fee, name, created_at")
		return
	}
	order := strings.ToLower(q.Get("order"))
	if order != "" && order != "asc" && order != "desc" {
		writeError(w, http.StatusBadRequest, "order must be asc or desc")
		return
	}
	desc := order == "desc" || (order == "" && (sort == "" || sort == "rating"))

	f := store.BrokerFilter{
		Country: strings.TrimSpace(q.Get("country")),
		Asset:   strings.TrimSpace(q.Get("asset")),
		Sort:    sort,
		Desc:    desc,
		Limit:   limit,
		Offset:  offset,
	}
	p.writeBrokerPage(w, r, f)
}

func (p *Public) writeBrokerPage(w http.ResponseWriter, r *http.Request, f store.BrokerFilter) {
	ctx := r.Context()
	brokers, err := p.Brokers.List(ctx, f)
	if err != nil {
		serverError(w, r, "list brokers", err)
		return
	}
	total, err := p.Brokers.Count(ctx, f)
	if err != nil {
		serverError(w, r, "count brokers", err)
		return
	}
	listings, err := p.listings(ctx, brokers)
	if err != nil {
		serverError(w, r, "load broker categories", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"brokers": listings,
		"total":   total,
		"limit":   f.Limit,
		"offset":  f.Offset,
	})
}

// SearchBrokers handles GET /api/brokers/search. When fewer than three
// local brokers match and a search provider is configured, web results
// are returned alongside.
func (p *Public) SearchBrokers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset, err := page(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	query := strings.TrimSpace(q.Get("q"))
	category := strings.TrimSpace(q.Get("category"))
	if query == "" && category == "" {
		writeError(w, http.StatusBadRequest, "q or category is required")
		return
	}

	ctx := r.Context()
	f := store.BrokerFilter{Query: query, Category: category, Limit: limit, Offset: offset}
	brokers, err := p.Brokers.List(ctx, f)
	if err != nil {
		serverError(w, r, "search brokers", err)
		return
	}
	listings, err := p.listings(ctx, brokers)
	if err != nil {
		serverError(w, r, "load broker categories", err)
		return
	}

	webResults := []websearch.Result{}
	if query != "" && len(brokers) < searchFallbackThreshold && p.Search != nil && p.Search.SearchConfigured() {
		results, err := p.Search.Search(ctx, query+" broker", 5)
		if err != nil {
			log.Warn().Err(err).Str("query", query).Msg("web search fallback failed")
		} else {
			webResults = results
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"brokers":     listings,
		"web_results": webResults,
	})
}

// GetBroker handles GET /api/brokers/{slug}.
func (p *Public) GetBroker(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	b, err := p.Brokers.FindBySlug(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		serverError(w, r, "find broker", err)
		return
	}
	if b == nil {
		writeError(w, http.StatusNotFound, "broker not found")
		return
	}

	cats, err := p.Categories.ForBroker(ctx, b.ID)
	if err != nil {
		serverError(w, r, "load broker categories", err)
		return
	}
	summary, err := p.Reviews.Summary(ctx, b.ID)
	if err != nil {
		serverError(w, r, "summarize reviews", err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		models.BrokerListing
		Reviews models.ReviewSummary `json:"reviews"`
	}{
		BrokerListing: models.NewBrokerListing(*b, cats),
		Reviews:       summary,
	})
}
