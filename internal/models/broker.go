// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func init() {
	// Deposits and fees are rendered as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Broker is a trading company listed and compared on the site. Name is the
// display name and is not unique; Slug is the enforced-unique natural key
// used by maintenance operations.
type Broker struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	Slug         string          `json:"slug"`
	LogoURL      *string         `json:"logo_url,omitempty"`
	MinDeposit   decimal.Decimal `json:"min_deposit"`
	TradingFee   decimal.Decimal `json:"trading_fee"`
	Regulations  string          `json:"regulations"`
	AssetClasses []string        `json:"asset_classes"`
	Country      string          `json:"country"`
	Rating       *float64        `json:"rating,omitempty"`
	WebsiteURL   string          `json:"website_url"`
	Leverage     string          `json:"leverage"`
	Platforms    []string        `json:"platforms"`
	Spread       string          `json:"spread"`
	Headquarters string          `json:"headquarters"`
	FoundedYear  *int            `json:"founded_year,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// NormalizeName returns the key under which broker names are compared:
// lowercased with leading and trailing Unicode whitespace removed.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// RatingValue returns the numeric rating, treating a missing rating as 0.
func (b *Broker) RatingValue() float64 {
	if b.Rating == nil {
		return 0
	}
	return *b.Rating
}

// HasRegulator reports whether the free-text regulations mention the given
// regulator, case-insensitively.
func (b *Broker) HasRegulator(regulator string) bool {
	return strings.Contains(strings.ToLower(b.Regulations), strings.ToLower(regulator))
}

// SupportsAsset reports whether the broker lists the asset class.
func (b *Broker) SupportsAsset(asset string) bool {
	for _, a := range b.AssetClasses {
		if strings.EqualFold(a, asset) {
			return true
		}
	}
	return false
}

// lowFeeThreshold is the trading fee below which a broker counts as low-fee.
var lowFeeThreshold = decimal.NewFromInt(1)

// IsLowFee reports whether the broker's trading fee is below 1.
func (b *Broker) IsLowFee() bool {
	return b.TradingFee.LessThan(lowFeeThreshold)
}

// regulatorTokens splits the regulations text into lowercase words so
// regulator acronyms only match as whole words ("mas" never matches "Bahamas").
func (b *Broker) regulatorTokens() map[string]bool {
	words := strings.FieldsFunc(strings.ToLower(b.Regulations), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := make(map[string]bool, len(words))
	for _, w := range words {
		tokens[w] = true
	}
	return tokens
}

// regulatorRegions maps a regulator mention to the region it licenses.
var regulatorRegions = []struct {
	regulator string
	region    string
}{
	{"fca", "United Kingdom"},
	{"cysec", "European Union"},
	{"asic", "Australia"},
	{"nfa", "United States"},
	{"cftc", "United States"},
	{"fsca", "South Africa"},
	{"mas", "Singapore"},
}

// AvailableRegions derives where the broker can operate from its home
// country and the regulators it mentions. Duplicates are removed and the
// home country comes first.
func (b *Broker) AvailableRegions() []string {
	regions := []string{}
	seen := map[string]bool{}
	add := func(r string) {
		if r == "" || seen[r] {
			return
		}
		seen[r] = true
		regions = append(regions, r)
	}

	add(strings.TrimSpace(b.Country))
	tokens := b.regulatorTokens()
	for _, rr := range regulatorRegions {
		if tokens[rr.regulator] {
			add(rr.region)
		}
	}
	return regions
}

// SupportedAssets returns the asset classes title-cased for display.
func (b *Broker) SupportedAssets() []string {
	assets := make([]string, 0, len(b.AssetClasses))
	for _, a := range b.AssetClasses {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		first, size := utf8.DecodeRuneInString(a)
		assets = append(assets, string(unicode.ToUpper(first))+strings.ToLower(a[size:]))
	}
	return assets
}

// Features derives short selling points from the broker's attributes.
func (b *Broker) Features() []string {
	features := []string{}
	if b.IsLowFee() {
		features = append(features, "Low trading fees")
	}
	if b.MinDeposit.IsZero() {
		features = append(features, "No minimum deposit")
	}
	if strings.TrimSpace(b.Regulations) != "" {
		features = append(features, "Regulated")
	}
	if b.Leverage != "" {
		features = append(features, "Leverage up to "+b.Leverage)
	}
	for _, p := range b.Platforms {
		if p = strings.TrimSpace(p); p != "" {
			features = append(features, p+" platform")
		}
	}
	return features
}

// BrokerListing is the public listing shape: the stored broker plus the
// derived presentation fields and its categories.
type BrokerListing struct {
	Broker
	SupportedAssets  []string   `json:"supported_assets"`
	Features         []string   `json:"features"`
	AvailableRegions []string   `json:"available_regions"`
	Categories       []Category `json:"categories"`
}

// NewBrokerListing builds a listing for b with the given categories.
func NewBrokerListing(b Broker, categories []Category) BrokerListing {
	if categories == nil {
		categories = []Category{}
	}
	return BrokerListing{
		Broker:           b,
		SupportedAssets:  b.SupportedAssets(),
		Features:         b.Features(),
		AvailableRegions: b.AvailableRegions(),
		Categories:       categories,
	}
}

// BrokerPatch carries a field-level broker update. Nil fields are left
// unchanged.
type BrokerPatch struct {
	Name         *string          `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	LogoURL      *string          `json:"logo_url,omitempty" validate:"omitempty,url"`
	MinDeposit   *decimal.Decimal `json:"min_deposit,omitempty"`
	TradingFee   *decimal.Decimal `json:"trading_fee,omitempty"`
	Regulations  *string          `json:"regulations,omitempty"`
	AssetClasses []string         `json:"asset_classes,omitempty"`
	Country      *string          `json:"country,omitempty"`
	Rating       *float64         `json:"rating,omitempty" validate:"omitempty,min=0,max=5"`
	WebsiteURL   *string          `json:"website_url,omitempty" validate:"omitempty,url"`
	Leverage     *string          `json:"leverage,omitempty"`
	Platforms    []string         `json:"platforms,omitempty"`
	Spread       *string          `json:"spread,omitempty"`
	Headquarters *string          `json:"headquarters,omitempty"`
	FoundedYear  *int             `json:"founded_year,omitempty" validate:"omitempty,min=1800,max=2100"`
}

// Apply copies every non-nil patch field onto b.
func (p *BrokerPatch) Apply(b *Broker) {
	if p.Name != nil {
		b.Name = *p.Name
	}
	if p.LogoURL != nil {
		b.LogoURL = p.LogoURL
	}
	if p.MinDeposit != nil {
		b.MinDeposit = *p.MinDeposit
	}
	if p.TradingFee != nil {
		b.TradingFee = *p.TradingFee
	}
	if p.Regulations != nil {
		b.Regulations = *p.Regulations
	}
	if p.AssetClasses != nil {
		b.AssetClasses = p.AssetClasses
	}
	if p.Country != nil {
		b.Country = *p.Country
	}
	if p.Rating != nil {
		b.Rating = p.Rating
	}
	if p.WebsiteURL != nil {
		b.WebsiteURL = *p.WebsiteURL
	}
	if p.Leverage != nil {
		b.Leverage = *p.Leverage
	}
	if p.Platforms != nil {
		b.Platforms = p.Platforms
	}
	if p.Spread != nil {
		b.Spread = *p.Spread
	}
	if p.Headquarters != nil {
		b.Headquarters = *p.Headquarters
	}
	if p.FoundedYear != nil {
		b.FoundedYear = p.FoundedYear
	}
}
