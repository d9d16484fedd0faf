// Package seed parses the YAML documents used to load brokers, broker
// categories and blog content into an empty or existing database.
package seed

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"brokerscope/internal/models"
	"brokerscope/internal/slug"
)

//go:embed default.yaml
var defaultDocument []byte

// Document is the root of a seed file.
type Document struct {
	Categories     []Category     `yaml:"categories"`
	Brokers        []Broker       `yaml:"brokers"`
	BlogCategories []BlogCategory `yaml:"blog_categories"`
	BlogPosts      []BlogPost     `yaml:"blog_posts"`
}

// Category is a broker category entry.
type Category struct {
	Name string `yaml:"name"`
	Slug string `yaml:"slug"`
}

// Broker is a broker entry. Money fields are strings so that YAML numbers
// never pass through float64.
type Broker struct {
	Name         string   `yaml:"name"`
	Slug         string   `yaml:"slug"`
	LogoURL      string   `yaml:"logo_url"`
	MinDeposit   string   `yaml:"min_deposit"`
	TradingFee   string   `yaml:"trading_fee"`
	Regulations  string   `yaml:"regulations"`
	AssetClasses []string `yaml:"asset_classes"`
	Country      string   `yaml:"country"`
	Rating       *float64 `yaml:"rating"`
	WebsiteURL   string   `yaml:"website_url"`
	Leverage     string   `yaml:"leverage"`
	Platforms    []string `yaml:"platforms"`
	Spread       string   `yaml:"spread"`
	Headquarters string   `yaml:"headquarters"`
	FoundedYear  *int     `yaml:"founded_year"`
	Categories   []string `yaml:"categories"` // category slugs
}

// BlogCategory is a blog category entry.
type BlogCategory struct {
	Name        string `yaml:"name"`
	Slug        string `yaml:"slug"`
	Description string `yaml:"description"`
}

// BlogPost is a blog post entry. Category refers to a blog category slug.
type BlogPost struct {
	Title       string     `yaml:"title"`
	Slug        string     `yaml:"slug"`
	Excerpt     string     `yaml:"excerpt"`
	Content     string     `yaml:"content"`
	Tags        []string   `yaml:"tags"`
	Category    string     `yaml:"category"`
	PublishedAt *time.Time `yaml:"published_at"`
}

// Parse decodes and normalizes a seed document. Missing slugs are derived
// from names and titles.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse seed document: %w", err)
	}
	if err := doc.normalize(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ParseFile reads and parses the seed document at path.
func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(data)
}

// Default returns the embedded development seed.
func Default() (*Document, error) {
	return Parse(defaultDocument)
}

func (d *Document) normalize() error {
	for i := range d.Categories {
		c := &d.Categories[i]
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("category %d: name is required", i+1)
		}
		if c.Slug == "" {
			c.Slug = slug.Generate(c.Name)
		}
	}
	for i := range d.Brokers {
		b := &d.Brokers[i]
		if strings.TrimSpace(b.Name) == "" {
			return fmt.Errorf("broker %d: name is required", i+1)
		}
		if b.Slug == "" {
			b.Slug = slug.Generate(b.Name)
		}
		if b.Rating != nil && (*b.Rating < 0 || *b.Rating > 5) {
			return fmt.Errorf("broker %q: rating %v outside [0,5]", b.Name, *b.Rating)
		}
	}
	for i := range d.BlogCategories {
		c := &d.BlogCategories[i]
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("blog category %d: name is required", i+1)
		}
		if c.Slug == "" {
			c.Slug = slug.Generate(c.Name)
		}
	}
	for i := range d.BlogPosts {
		p := &d.BlogPosts[i]
		if strings.TrimSpace(p.Title) == "" {
			return fmt.Errorf("blog post %d: title is required", i+1)
		}
		if p.Slug == "" {
			p.Slug = slug.Generate(p.Title)
		}
	}
	return nil
}

// Model converts the entry into a broker row. Empty money fields are zero.
func (b Broker) Model() (models.Broker, error) {
	minDeposit, err := parseMoney(b.MinDeposit)
	if err != nil {
		return models.Broker{}, fmt.Errorf("broker %q min_deposit: %w", b.Name, err)
	}
	fee, err := parseMoney(b.TradingFee)
	if err != nil {
		return models.Broker{}, fmt.Errorf("broker %q trading_fee: %w", b.Name, err)
	}

	m := models.Broker{
		Name:         strings.TrimSpace(b.Name),
		Slug:         b.Slug,
		MinDeposit:   minDeposit,
		TradingFee:   fee,
		Regulations:  b.Regulations,
		AssetClasses: nonNil(b.AssetClasses),
		Country:      b.Country,
		Rating:       b.Rating,
		WebsiteURL:   b.WebsiteURL,
		Leverage:     b.Leverage,
		Platforms:    nonNil(b.Platforms),
		Spread:       b.Spread,
		Headquarters: b.Headquarters,
		FoundedYear:  b.FoundedYear,
	}
	if b.LogoURL != "" {
		logo := b.LogoURL
		m.LogoURL = &logo
	}
	return m, nil
}

func parseMoney(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative amount %s", s)
	}
	return d, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
