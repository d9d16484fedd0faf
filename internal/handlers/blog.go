// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"brokerscope/internal/markdown"
	"brokerscope/internal/models"
	"brokerscope/internal/store"
)

// excerptLength is the size of generated excerpts, in runes.
const excerptLength = 200

// withExcerpt fills a missing excerpt from the post content.
func withExcerpt(post models.BlogPost) models.BlogPost {
	if post.Excerpt == nil || strings.TrimSpace(*post.Excerpt) == "" {
		e := markdown.Excerpt(post.Content, excerptLength)
		post.Excerpt = &e
	}
	return post
}

// ListBlogPosts handles GET /api/blog/posts.
func (p *Public) ListBlogPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset, err := page(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	f := store.BlogPostFilter{
		Category: strings.TrimSpace(q.Get("category")),
		Tag:      strings.TrimSpace(q.Get("tag")),
		Limit:    limit,
		Offset:   offset,
	}

	posts, err := p.Posts.ListPublished(r.Context(), f, p.now())
	if err != nil {
		serverError(w, r, "list blog posts", err)
		return
	}
	for i := range posts {
		posts[i] = withExcerpt(posts[i])
		// Listings carry the excerpt, not the full body.
		posts[i].Content = ""
	}
	writeJSON(w, http.StatusOK, map[string]any{"posts": posts})
}

// GetBlogPost handles GET /api/blog/posts/{slug}. The Markdown content is
// rendered to HTML in content_html.
func (p *Public) GetBlogPost(w http.ResponseWriter, r *http.Request) {
	post, err := p.Posts.FindPublishedBySlug(r.Context(), chi.URLParam(r, "slug"), p.now())
	if err != nil {
		serverError(w, r, "find blog post", err)
		return
	}
	if post == nil {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}

	html, err := markdown.ToHTML(post.Content)
	if err != nil {
		serverError(w, r, "render blog post", err)
		return
	}
	out := withExcerpt(*post)
	out.ContentHTML = html
	writeJSON(w, http.StatusOK, out)
}

// ListBlogCategories handles GET /api/blog/categories.
func (p *Public) ListBlogCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := p.BlogCategories.List(r.Context())
	if err != nil {
		serverError(w, r, "list blog categories", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": cats})
}
