// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"brokerscope/internal/models"
	"brokerscope/internal/slug"
	"brokerscope/internal/store"
)

// blogPostRequest is the body of the admin post create and update calls.
type blogPostRequest struct {
	Title       string     `json:"title" validate:"required,max=300"`
	Slug        string     `json:"slug" validate:"max=300"`
	Content     string     `json:"content" validate:"max=100000"`
	Excerpt     *string    `json:"excerpt" validate:"omitempty,max=1000"`
	Tags        []string   `json:"tags" validate:"max=20,dive,max=50"`
	CategoryID  *string    `json:"category_id" validate:"omitempty,uuid"`
	PublishedAt *time.Time `json:"published_at"`
}

// idParam parses the {id} URL parameter.
func idParam(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	return id, err == nil
}

// decodePost reads and validates a post request. It writes the error
// response itself and returns nil on failure.
func (a *Admin) decodePost(w http.ResponseWriter, r *http.Request) (*blogPostRequest, *uuid.UUID) {
	var req blogPostRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, nil
	}
	req.Title = strings.TrimSpace(req.Title)
	if msg := validateStruct(req); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return nil, nil
	}

	if req.CategoryID == nil || *req.CategoryID == "" {
		return &req, nil
	}
	catID := uuid.MustParse(*req.CategoryID)
	cat, err := a.BlogCategories.FindByID(r.Context(), catID)
	if err != nil {
		serverError(w, r, "find blog category", err)
		return nil, nil
	}
	if cat == nil {
		writeError(w, http.StatusBadRequest, "category_id does not match a blog category")
		return nil, nil
	}
	return &req, &catID
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := map[string]bool{}
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// CreatePost handles POST /api/admin/blog/posts. Without an explicit slug
// one is generated from the title.
func (a *Admin) CreatePost(w http.ResponseWriter, r *http.Request) {
	req, catID := a.decodePost(w, r)
	if req == nil {
		return
	}

	ctx := r.Context()
	postSlug := slug.Generate(req.Slug)
	if postSlug == "" {
		var err error
		postSlug, err = slug.Unique(ctx, req.Title, a.Posts.SlugTaken)
		if err != nil {
			serverError(w, r, "generate post slug", err)
			return
		}
	}

	created, err := a.Posts.Create(ctx, &models.BlogPost{
		Title:       req.Title,
		Slug:        postSlug,
		Content:     req.Content,
		Excerpt:     optionalText(req.Excerpt),
		Tags:        cleanTags(req.Tags),
		CategoryID:  catID,
		PublishedAt: req.PublishedAt,
	})
	if errors.Is(err, store.ErrSlugTaken) {
		writeError(w, http.StatusConflict, "slug already taken")
		return
	}
	if err != nil {
		serverError(w, r, "create blog post", err)
		return
	}

	log.Info().Str("slug", created.Slug).Msg("blog post created")
	a.invalidateCache(ctx)
	writeJSON(w, http.StatusCreated, created)
}

// UpdatePost handles PUT /api/admin/blog/posts/{id}. The body replaces
// the post; an empty slug keeps the current one.
func (a *Admin) UpdatePost(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "id must be a valid UUID")
		return
	}
	req, catID := a.decodePost(w, r)
	if req == nil {
		return
	}

	ctx := r.Context()
	existing, err := a.Posts.FindByID(ctx, id)
	if err != nil {
		serverError(w, r, "find blog post", err)
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}

	existing.Title = req.Title
	if s := slug.Generate(req.Slug); s != "" {
		existing.Slug = s
	}
	existing.Content = req.Content
	existing.Excerpt = optionalText(req.Excerpt)
	existing.Tags = cleanTags(req.Tags)
	existing.CategoryID = catID
	existing.PublishedAt = req.PublishedAt

	updated, err := a.Posts.Update(ctx, existing)
	if errors.Is(err, store.ErrSlugTaken) {
		writeError(w, http.StatusConflict, "slug already taken")
		return
	}
	if err != nil {
		serverError(w, r, "update blog post", err)
		return
	}
	if updated == nil {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}

	log.Info().Str("slug", updated.Slug).Msg("blog post updated")
	a.invalidateCache(ctx)
	writeJSON(w, http.StatusOK, updated)
}

// DeletePost handles DELETE /api/admin/blog/posts/{id}.
func (a *Admin) DeletePost(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "id must be a valid UUID")
		return
	}
	ctx := r.Context()
	deleted, err := a.Posts.Delete(ctx, id)
	if err != nil {
		serverError(w, r, "delete blog post", err)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}
	a.invalidateCache(ctx)
	w.WriteHeader(http.StatusNoContent)
}

// --- Blog categories ---

type blogCategoryRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Slug        string `json:"slug" validate:"max=100"`
	Description string `json:"description" validate:"max=1000"`
}

// CreateBlogCategory handles POST /api/admin/blog/categories.
func (a *Admin) CreateBlogCategory(w http.ResponseWriter, r *http.Request) {
	var req blogCategoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if msg := validateStruct(req); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	catSlug := slug.Generate(req.Slug)
	if catSlug == "" {
		catSlug = slug.Generate(req.Name)
	}
	if catSlug == "" {
		writeError(w, http.StatusBadRequest, "name must contain letters or digits")
		return
	}

	ctx := r.Context()
	created, err := a.BlogCategories.Create(ctx, &models.BlogCategory{
		Name:        req.Name,
		Slug:        catSlug,
		Description: strings.TrimSpace(req.Description),
	})
	if errors.Is(err, store.ErrSlugTaken) {
		writeError(w, http.StatusConflict, "slug already taken")
		return
	}
	if err != nil {
		serverError(w, r, "create blog category", err)
		return
	}
	a.invalidateCache(ctx)
	writeJSON(w, http.StatusCreated, created)
}

// DeleteBlogCategory handles DELETE /api/admin/blog/categories/{id}.
// Its posts stay, uncategorized.
func (a *Admin) DeleteBlogCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "id must be a valid UUID")
		return
	}
	ctx := r.Context()
	deleted, err := a.BlogCategories.Delete(ctx, id)
	if err != nil {
		serverError(w, r, "delete blog category", err)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "category not found")
		return
	}
	a.invalidateCache(ctx)
	w.WriteHeader(http.StatusNoContent)
}
