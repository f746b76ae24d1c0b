// Package domain holds the data model shared by the engine, the store and the
// HTTP layer.
package domain

import (
	"fmt"
	"math"
	"time"
)

// Category classifies a market by subject. Research agents and the scorer key
// off it.
type Category string

const (
	CategoryPolitics      Category = "politics"
	CategorySports        Category = "sports"
	CategoryCrypto        Category = "crypto"
	CategoryEconomics     Category = "economics"
	CategoryEntertainment Category = "entertainment"
	CategoryScience       Category = "science"
	CategoryOther         Category = "other"
)

// Categories lists every category in classification priority order.
var Categories = []Category{
	CategoryPolitics,
	CategorySports,
	CategoryCrypto,
	CategoryEconomics,
	CategoryEntertainment,
	CategoryScience,
	CategoryOther,
}

// ParseCategory maps a string to a Category. Unknown values map to other.
func ParseCategory(s string) Category {
	for _, c := range Categories {
		if string(c) == s {
			return c
		}
	}
	return CategoryOther
}

// Outcome is one tradable outcome token of a market.
type Outcome struct {
	Name    string  `json:"name"`
	Price   float64 `json:"price"`
	TokenID string  `json:"token_id,omitempty"`
}

// Market is one market's state for a single refresh. A scored Market is
// treated as immutable; the next refresh replaces it wholesale.
type Market struct {
	ID                  string     `json:"id"`
	Question            string     `json:"question"`
	Description         string     `json:"description,omitempty"`
	Category            Category   `json:"category"`
	YesPrice            float64    `json:"yes_price"`
	NoPrice             float64    `json:"no_price"`
	Outcomes            []Outcome  `json:"outcomes,omitempty"`
	Volume24h           float64    `json:"volume_24h"`
	Liquidity           float64    `json:"liquidity"`
	SpreadPct           float64    `json:"spread_pct"`
	ResolutionDate      *time.Time `json:"resolution_date,omitempty"`
	DaysUntilResolution *int       `json:"days_until_resolution"`
	EdgeScore           float64    `json:"edge_score"`
	URL                 string     `json:"url,omitempty"`

	// Sub-scores behind EdgeScore, each in [0,100].
	LiquidityScore       float64 `json:"liquidity_score"`
	EfficiencyScore      float64 `json:"efficiency_score"`
	ResearchabilityScore float64 `json:"researchability_score"`
	TimingScore          float64 `json:"timing_score"`
}

// IsMultiOutcome reports whether the market has more than two outcomes.
func (m Market) IsMultiOutcome() bool {
	return len(m.Outcomes) > 2
}

// Validate checks the fields the engine depends on. Prices must lie in [0,1]
// and volume, liquidity and spread must be non-negative finite numbers.
func (m Market) Validate() error {
	if m.ID == "" {
		return &ValidationError{Field: "id", Reason: "must not be empty"}
	}
	prices := []struct {
		field string
		v     float64
	}{
		{"yes_price", m.YesPrice},
		{"no_price", m.NoPrice},
	}
	for _, p := range prices {
		if math.IsNaN(p.v) || p.v < 0 || p.v > 1 {
			return &ValidationError{MarketID: m.ID, Field: p.field, Reason: fmt.Sprintf("%v outside [0,1]", p.v)}
		}
	}
	for i, o := range m.Outcomes {
		if math.IsNaN(o.Price) || o.Price < 0 || o.Price > 1 {
			return &ValidationError{MarketID: m.ID, Field: fmt.Sprintf("outcomes[%d].price", i), Reason: fmt.Sprintf("%v outside [0,1]", o.Price)}
		}
	}
	amounts := []struct {
		field string
		v     float64
	}{
		{"volume_24h", m.Volume24h},
		{"liquidity", m.Liquidity},
		{"spread_pct", m.SpreadPct},
	}
	for _, a := range amounts {
		if math.IsNaN(a.v) || math.IsInf(a.v, 0) || a.v < 0 {
			return &ValidationError{MarketID: m.ID, Field: a.field, Reason: fmt.Sprintf("%v must be a non-negative number", a.v)}
		}
	}
	return nil
}

// DaysUntil returns whole days from now until the resolution date, or nil
// when the date is unknown or already past.
func (m Market) DaysUntil(now time.Time) *int {
	if m.ResolutionDate == nil || !m.ResolutionDate.After(now) {
		return nil
	}
	days := int(m.ResolutionDate.Sub(now).Hours() / 24)
	return &days
}

// Rejection records a market excluded from a refresh batch.
type Rejection struct {
	MarketID string `json:"market_id"`
	Reason   string `json:"reason"`
}
