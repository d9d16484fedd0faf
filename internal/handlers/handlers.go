// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the JSON API handlers for BrokerScope.
// Handlers are grouped by audience (public, admin) and receive their
// dependencies through the handler struct.
package handlers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"brokerscope/internal/models"
	"brokerscope/internal/regulator"
	"brokerscope/internal/store"
	"brokerscope/internal/websearch"
)

// BrokerStore is the broker persistence the handlers use.
type BrokerStore interface {
	List(ctx context.Context, f store.BrokerFilter) ([]models.Broker, error)
	Count(ctx context.Context, f store.BrokerFilter) (int, error)
	ListAll(ctx context.Context) ([]models.Broker, error)
	ListForQuiz(ctx context.Context, maxDeposit *decimal.Decimal, assets []string) ([]models.Broker, error)
	FindBySlug(ctx context.Context, slug string) (*models.Broker, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	SlugTaken(ctx context.Context, slug string) (bool, error)
	Create(ctx context.Context, b *models.Broker) (*models.Broker, error)
	Update(ctx context.Context, slug string, b *models.Broker) (*models.Broker, error)
	DeleteBySlug(ctx context.Context, slug string) (bool, error)
}

// CategoryStore returns the categories of a broker.
type CategoryStore interface {
	ForBroker(ctx context.Context, brokerID uuid.UUID) ([]models.Category, error)
}

// UserStore looks up registered users.
type UserStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// ReviewStore is the review persistence the handlers use.
type ReviewStore interface {
	Create(ctx context.Context, r *models.Review) (*models.Review, error)
	List(ctx context.Context, f store.ReviewFilter) ([]models.Review, error)
	Summary(ctx context.Context, brokerID uuid.UUID) (models.ReviewSummary, error)
}

// BlogPostStore is the blog post persistence the handlers use.
type BlogPostStore interface {
	ListPublished(ctx context.Context, f store.BlogPostFilter, now time.Time) ([]models.BlogPost, error)
	FindPublishedBySlug(ctx context.Context, slug string, now time.Time) (*models.BlogPost, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.BlogPost, error)
	SlugTaken(ctx context.Context, slug string) (bool, error)
	Create(ctx context.Context, p *models.BlogPost) (*models.BlogPost, error)
	Update(ctx context.Context, p *models.BlogPost) (*models.BlogPost, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// BlogCategoryStore is the blog category persistence the handlers use.
type BlogCategoryStore interface {
	List(ctx context.Context) ([]models.BlogCategory, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.BlogCategory, error)
	Create(ctx context.Context, c *models.BlogCategory) (*models.BlogCategory, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// WebSearch is the outbound search and news provider.
type WebSearch interface {
	SearchConfigured() bool
	NewsConfigured() bool
	Search(ctx context.Context, query string, limit int) ([]websearch.Result, error)
	News(ctx context.Context, topic string, limit int) ([]websearch.NewsItem, error)
	VerifyBroker(ctx context.Context, name, website string) (*websearch.Verification, error)
}

// RegisterLookup searches a regulator's public register.
type RegisterLookup interface {
	Lookup(ctx context.Context, reg regulator.Regulator, brokerName string) (*regulator.Result, error)
}

// Pinger checks database connectivity. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// ResponseCache is the shared response cache. *cache.ResponseCache
// satisfies it, including a nil one.
type ResponseCache interface {
	InvalidateAll(ctx context.Context) int
	Ping(ctx context.Context) (enabled bool, err error)
}

// Deps bundles the dependencies of both handler groups.
type Deps struct {
	DB             Pinger
	Brokers        BrokerStore
	Categories     CategoryStore
	Reviews        ReviewStore
	Users          UserStore
	Posts          BlogPostStore
	BlogCategories BlogCategoryStore
	Search         WebSearch
	Registers      RegisterLookup
	Cache          ResponseCache

	// Now returns the current time; defaults to time.Now.
	Now func() time.Time
}

func (d *Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// invalidateCache clears every cached response after a write.
func (d *Deps) invalidateCache(ctx context.Context) {
	if d.Cache != nil {
		d.Cache.InvalidateAll(ctx)
	}
}
