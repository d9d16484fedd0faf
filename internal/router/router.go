// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains for the
// BrokerScope API. It organizes routes into public and admin groups with
// appropriate middleware stacks.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"brokerscope/internal/cache"
	"brokerscope/internal/handlers"
	"brokerscope/internal/metrics"
	"brokerscope/internal/middleware"
)

// Options carries everything New wires into the router. Cache, Limiter and
// Registry are optional.
type Options struct {
	Public     *handlers.Public
	Admin      *handlers.Admin
	AdminToken string

	// Cache serves repeated public reads from Valkey.
	Cache *cache.ResponseCache
	// Limiter throttles the write and outbound-heavy public endpoints.
	Limiter *middleware.RateLimiter
	// Registry is exposed at /metrics when set.
	Registry *prometheus.Registry
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(opts Options) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.Metrics)
	r.Use(middleware.SecureHeaders)

	r.NotFound(notFound)
	r.MethodNotAllowed(methodNotAllowed)

	if opts.Registry != nil {
		r.Handle("/metrics", metrics.Handler(opts.Registry))
	}

	pub := opts.Public
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", pub.Health)

		// Cached public reads.
		r.Group(func(r chi.Router) {
			r.Use(middleware.CacheResponses(opts.Cache))
			r.Get("/brokers", pub.ListBrokers)
			r.Get("/brokers/{slug}", pub.GetBroker)
			r.Get("/blog/posts/{slug}", pub.GetBlogPost)
		})

		// Registered next to the cached {slug} route; chi prefers the
		// static segment.
		r.Get("/brokers/search", pub.SearchBrokers)
		r.Get("/reviews", pub.ListReviews)
		r.Post("/find-brokers-quiz", pub.FindBrokersQuiz)
		r.Get("/market-news", pub.MarketNews)
		r.Get("/blog/posts", pub.ListBlogPosts)
		r.Get("/blog/categories", pub.ListBlogCategories)

		// Rate-limited per client IP.
		r.Group(func(r chi.Router) {
			if opts.Limiter != nil {
				r.Use(opts.Limiter.Middleware)
			}
			r.Post("/reviews", pub.CreateReview)
			r.Post("/verify-broker", pub.VerifyBroker)
			r.Post("/verify-regulation", pub.VerifyRegulation)
		})

		// Admin API, guarded by the shared admin token.
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdminToken(opts.AdminToken))
			admin := opts.Admin

			r.Route("/brokers", func(r chi.Router) {
				r.Post("/", admin.CreateBroker)
				r.Patch("/{slug}", admin.UpdateBroker)
				r.Delete("/{slug}", admin.DeleteBroker)
			})
			r.Get("/duplicates", admin.Duplicates)

			r.Route("/blog", func(r chi.Router) {
				r.Post("/posts", admin.CreatePost)
				r.Put("/posts/{id}", admin.UpdatePost)
				r.Delete("/posts/{id}", admin.DeletePost)
				r.Post("/categories", admin.CreateBlogCategory)
				r.Delete("/categories/{id}", admin.DeleteBlogCategory)
			})
		})
	})

	return r
}

func notFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`{"error":"not found"}`))
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusMethodNotAllowed)
	w.Write([]byte(`{"error":"method not allowed"}`))
}
