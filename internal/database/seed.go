package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"

	"brokerscope/internal/models"
	"brokerscope/internal/seed"
)

// SeedResult counts what a seed run wrote.
type SeedResult struct {
	Categories     int
	Brokers        int
	BlogCategories int
	BlogPosts      int
}

// SeedIfEmpty loads the embedded default document when the brokers table
// has no rows. It is used by the development server on startup.
func SeedIfEmpty(ctx context.Context, db *sql.DB) error {
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM brokers").Scan(&count); err != nil {
		return fmt.Errorf("seed check brokers: %w", err)
	}
	if count > 0 {
		log.Info().Int("brokers", count).Msg("database already seeded, skipping")
		return nil
	}

	doc, err := seed.Default()
	if err != nil {
		return err
	}
	res, err := Seed(ctx, db, doc)
	if err != nil {
		return err
	}
	log.Info().
		Int("brokers", res.Brokers).
		Int("categories", res.Categories).
		Int("blog_posts", res.BlogPosts).
		Msg("database seeded with default document")
	return nil
}

// Seed upserts every entry of doc keyed by slug. Running it twice with the
// same document leaves the database unchanged. Entries are written one at
// a time; the first failure stops the run.
func Seed(ctx context.Context, db *sql.DB, doc *seed.Document) (SeedResult, error) {
	var res SeedResult

	for _, c := range doc.Categories {
		if _, err := db.ExecContext(ctx, `
			INSERT INTO categories (name, slug) VALUES ($1, $2)
			ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name`,
			c.Name, c.Slug,
		); err != nil {
			return res, fmt.Errorf("seed category %s: %w", c.Slug, err)
		}
		res.Categories++
	}

	for _, entry := range doc.Brokers {
		b, err := entry.Model()
		if err != nil {
			return res, err
		}
		id, err := upsertBroker(ctx, db, &b)
		if err != nil {
			return res, err
		}
		for _, cat := range entry.Categories {
			if _, err := db.ExecContext(ctx, `
				INSERT INTO broker_categories (broker_id, category_id)
				SELECT $1, id FROM categories WHERE slug = $2
				ON CONFLICT DO NOTHING`,
				id, cat,
			); err != nil {
				return res, fmt.Errorf("seed broker %s category %s: %w", b.Slug, cat, err)
			}
		}
		res.Brokers++
	}

	for _, c := range doc.BlogCategories {
		if _, err := db.ExecContext(ctx, `
			INSERT INTO blog_categories (name, slug, description) VALUES ($1, $2, $3)
			ON CONFLICT (slug) DO UPDATE
			SET name = EXCLUDED.name, description = EXCLUDED.description, updated_at = now()`,
			c.Name, c.Slug, c.Description,
		); err != nil {
			return res, fmt.Errorf("seed blog category %s: %w", c.Slug, err)
		}
		res.BlogCategories++
	}

	for _, p := range doc.BlogPosts {
		var excerpt *string
		if p.Excerpt != "" {
			excerpt = &p.Excerpt
		}
		tags := p.Tags
		if tags == nil {
			tags = []string{}
		}
		if _, err := db.ExecContext(ctx, `
			INSERT INTO blog_posts (title, slug, content, excerpt, tags, category_id, reading_time, published_at)
			VALUES ($1, $2, $3, $4, $5, (SELECT id FROM blog_categories WHERE slug = $6), $7, $8)
			ON CONFLICT (slug) DO UPDATE
			SET title = EXCLUDED.title, content = EXCLUDED.content, excerpt = EXCLUDED.excerpt,
			    tags = EXCLUDED.tags, category_id = EXCLUDED.category_id,
			    reading_time = EXCLUDED.reading_time, published_at = EXCLUDED.published_at,
			    updated_at = now()`,
			p.Title, p.Slug, p.Content, excerpt, tags, p.Category,
			models.ReadingTime(p.Content), p.PublishedAt,
		); err != nil {
			return res, fmt.Errorf("seed blog post %s: %w", p.Slug, err)
		}
		res.BlogPosts++
	}

	return res, nil
}

func upsertBroker(ctx context.Context, db *sql.DB, b *models.Broker) (string, error) {
	var id string
	err := db.QueryRowContext(ctx, `
		INSERT INTO brokers (name, slug, logo_url, min_deposit, trading_fee, regulations,
			asset_classes, country, rating, website_url, leverage, platforms, spread,
			headquarters, founded_year)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (slug) DO UPDATE
		SET name = EXCLUDED.name, logo_url = COALESCE(EXCLUDED.logo_url, brokers.logo_url),
		    min_deposit = EXCLUDED.min_deposit, trading_fee = EXCLUDED.trading_fee,
		    regulations = EXCLUDED.regulations, asset_classes = EXCLUDED.asset_classes,
		    country = EXCLUDED.country, rating = EXCLUDED.rating,
		    website_url = EXCLUDED.website_url, leverage = EXCLUDED.leverage,
		    platforms = EXCLUDED.platforms, spread = EXCLUDED.spread,
		    headquarters = EXCLUDED.headquarters, founded_year = EXCLUDED.founded_year,
		    updated_at = now()
		RETURNING id`,
		b.Name, b.Slug, b.LogoURL, b.MinDeposit, b.TradingFee, b.Regulations,
		b.AssetClasses, b.Country, b.Rating, b.WebsiteURL, b.Leverage, b.Platforms, b.Spread,
		b.Headquarters, b.FoundedYear,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("seed broker %s: %w", b.Slug, err)
	}
	return id, nil
}
