// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package quiz ranks brokers against the answers of the broker-finder
// questionnaire.
package quiz

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"brokerscope/internal/models"
)

// Scoring constants. Scores start at BaseScore and never exceed MaxScore.
const (
	BaseScore       = 70
	MaxScore        = 99
	DepositBonus    = 10
	LowFeeBonus     = 15
	RegulationBonus = 10
	TopN            = 5
)

// Priorities recognised by the scorer. Other values score no bonus.
const (
	PriorityLowFees    = "low_fees"
	PriorityRegulation = "regulation"
)

// preferredRegulator earns the regulation bonus when mentioned.
const preferredRegulator = "fca"

// ErrInvalidBracket is returned for a deposit answer that names no bracket.
var ErrInvalidBracket = errors.New("unknown deposit bracket")

// Answers is one questionnaire submission.
type Answers struct {
	Deposit    string   `json:"deposit"`
	Priority   string   `json:"priority"`
	Assets     []string `json:"assets"`
	Location   string   `json:"location"`
	Experience string   `json:"experience"` // accepted, not used for ranking
}

// Bracket is a deposit range. A nil bound is open.
type Bracket struct {
	Name         string
	Min          *decimal.Decimal
	MinExclusive bool
	Max          *decimal.Decimal
	MaxExclusive bool
}

func amount(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

var brackets = map[string]Bracket{
	"under-100": {Name: "under-100", Min: amount(0), Max: amount(100), MaxExclusive: true},
	"100-500":   {Name: "100-500", Min: amount(100), Max: amount(500)},
	"500-1000":  {Name: "500-1000", Min: amount(500), MinExclusive: true, Max: amount(1000)},
	"1000-plus": {Name: "1000-plus", Min: amount(1000), MinExclusive: true},
	"any":       {Name: "any"},
}

// ParseBracket resolves a deposit answer. An empty answer means "any".
func ParseBracket(name string) (Bracket, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = "any"
	}
	b, ok := brackets[key]
	if !ok {
		return Bracket{}, fmt.Errorf("%w: %q", ErrInvalidBracket, name)
	}
	return b, nil
}

// Contains reports whether d lies inside the bracket.
func (b Bracket) Contains(d decimal.Decimal) bool {
	if b.Min != nil {
		if b.MinExclusive && !d.GreaterThan(*b.Min) || !b.MinExclusive && d.LessThan(*b.Min) {
			return false
		}
	}
	if b.Max != nil {
		if b.MaxExclusive && !d.LessThan(*b.Max) || !b.MaxExclusive && d.GreaterThan(*b.Max) {
			return false
		}
	}
	return true
}

// Ceiling is the largest minimum deposit the hard filter lets through, or
// nil when the bracket has no upper bound.
func (b Bracket) Ceiling() *decimal.Decimal {
	return b.Max
}

// NormalizePriority folds "Low fees", "low-fees" and "low_fees" together.
func NormalizePriority(p string) string {
	p = strings.ToLower(strings.TrimSpace(p))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(p)
}

// Filter applies the hard constraints: the deposit ceiling of the
// bracket, at least one shared asset class, and the location. An empty
// location or asset list does not restrict.
func Filter(brokers []models.Broker, a Answers) ([]models.Broker, error) {
	bracket, err := ParseBracket(a.Deposit)
	if err != nil {
		return nil, err
	}
	ceiling := bracket.Ceiling()

	out := make([]models.Broker, 0, len(brokers))
	for _, b := range brokers {
		if ceiling != nil && b.MinDeposit.GreaterThan(*ceiling) {
			continue
		}
		if !supportsAny(b, a.Assets) {
			continue
		}
		if !availableIn(b, a.Location) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func supportsAny(b models.Broker, assets []string) bool {
	requested := false
	for _, a := range assets {
		if a = strings.TrimSpace(a); a == "" {
			continue
		}
		requested = true
		if b.SupportsAsset(a) {
			return true
		}
	}
	return !requested
}

func availableIn(b models.Broker, location string) bool {
	location = strings.TrimSpace(location)
	if location == "" || strings.EqualFold(location, "any") {
		return true
	}
	for _, r := range b.AvailableRegions() {
		if strings.EqualFold(r, location) {
			return true
		}
	}
	return false
}

// Match is a scored broker.
type Match struct {
	Broker  models.Broker `json:"broker"`
	Score   int           `json:"score"`
	Reasons []string      `json:"reasons"`
}

// Score computes the score of one broker and the bonuses that produced it.
func Score(b models.Broker, a Answers) (int, []string) {
	score := BaseScore
	reasons := []string{}

	if bracket, err := ParseBracket(a.Deposit); err == nil && bracket.Name != "any" && bracket.Contains(b.MinDeposit) {
		score += DepositBonus
		reasons = append(reasons, "Minimum deposit fits your budget")
	}
	switch NormalizePriority(a.Priority) {
	case PriorityLowFees:
		if b.IsLowFee() {
			score += LowFeeBonus
			reasons = append(reasons, "Low trading fees")
		}
	case PriorityRegulation:
		if b.HasRegulator(preferredRegulator) {
			score += RegulationBonus
			reasons = append(reasons, "Regulated by the FCA")
		}
	}

	if score > MaxScore {
		score = MaxScore
	}
	return score, reasons
}

// ScoreBrokers scores every broker, orders them by descending score and
// returns at most TopN. Equal scores keep their input order.
func ScoreBrokers(brokers []models.Broker, a Answers) []Match {
	matches := make([]Match, 0, len(brokers))
	for _, b := range brokers {
		score, reasons := Score(b, a)
		matches = append(matches, Match{Broker: b, Score: score, Reasons: reasons})
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if len(matches) > TopN {
		matches = matches[:TopN]
	}
	return matches
}

// Source loads quiz candidates already narrowed by deposit ceiling and
// asset classes.
type Source interface {
	ListForQuiz(ctx context.Context, maxDeposit *decimal.Decimal, assets []string) ([]models.Broker, error)
}

// FindMatches runs the whole questionnaire: query the candidates, apply
// the hard filter and rank. A store failure fails the whole request.
func FindMatches(ctx context.Context, src Source, a Answers) ([]Match, error) {
	bracket, err := ParseBracket(a.Deposit)
	if err != nil {
		return nil, err
	}
	candidates, err := src.ListForQuiz(ctx, bracket.Ceiling(), cleanAssets(a.Assets))
	if err != nil {
		return nil, fmt.Errorf("load quiz candidates: %w", err)
	}
	filtered, err := Filter(candidates, a)
	if err != nil {
		return nil, err
	}
	return ScoreBrokers(filtered, a), nil
}

func cleanAssets(assets []string) []string {
	out := make([]string, 0, len(assets))
	for _, a := range assets {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}
