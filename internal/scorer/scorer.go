// Package scorer rates how interesting a market is on a 0-100 scale.
package scorer

import (
	"edgefinder/internal/config"
	"edgefinder/internal/domain"
)

// researchability rates how much public information a category offers.
var researchability = map[domain.Category]float64{
	domain.CategorySports:        95,
	domain.CategoryPolitics:      90,
	domain.CategoryEconomics:     90,
	domain.CategoryCrypto:        85,
	domain.CategoryScience:       70,
	domain.CategoryEntertainment: 60,
	domain.CategoryOther:         40,
}

// Breakdown holds the sub-scores behind an edge score, each in [0,100].
type Breakdown struct {
	Liquidity       float64 `json:"liquidity"`
	Inefficiency    float64 `json:"inefficiency"`
	Researchability float64 `json:"researchability"`
	Timing          float64 `json:"timing"`
	Total           float64 `json:"total"`
}

// Scorer combines liquidity, spread inefficiency, category researchability and
// resolution timing with fixed weights.
type Scorer struct {
	cfg config.ScorerConfig
}

func New(cfg config.ScorerConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score validates m and returns its edge score. The result depends only on m.
func (s *Scorer) Score(m domain.Market) (float64, error) {
	b, err := s.Breakdown(m)
	if err != nil {
		return 0, err
	}
	return b.Total, nil
}

// Breakdown is Score with the individual sub-scores exposed.
func (s *Scorer) Breakdown(m domain.Market) (Breakdown, error) {
	if err := m.Validate(); err != nil {
		return Breakdown{}, err
	}

	b := Breakdown{
		Liquidity:       s.liquidityScore(m.Liquidity),
		Inefficiency:    inefficiencyScore(m.SpreadPct),
		Researchability: researchabilityScore(m.Category),
		Timing:          timingScore(m.DaysUntilResolution),
	}
	total := b.Liquidity*s.cfg.LiquidityWeight +
		b.Inefficiency*s.cfg.InefficiencyWeight +
		b.Researchability*s.cfg.ResearchabilityWeight +
		b.Timing*s.cfg.TimingWeight
	b.Total = clamp(total, 0, 100)
	return b, nil
}

// liquidityScore is 0 below the minimum, 100 at the ideal depth, linear between.
func (s *Scorer) liquidityScore(liquidity float64) float64 {
	if liquidity < s.cfg.MinLiquidity {
		return 0
	}
	if liquidity >= s.cfg.IdealLiquidity {
		return 100
	}
	return (liquidity - s.cfg.MinLiquidity) / (s.cfg.IdealLiquidity - s.cfg.MinLiquidity) * 100
}

// inefficiencyScore peaks for spreads between 1% and 5%: wide enough to hold a
// mispricing, tight enough to trade.
func inefficiencyScore(spread float64) float64 {
	switch {
	case spread > 10:
		return 20
	case spread < 0.5:
		return 30
	case spread < 1:
		return 30 + spread*70
	case spread <= 5:
		return 100
	default:
		return 100 - (spread-5)*16
	}
}

func researchabilityScore(c domain.Category) float64 {
	if v, ok := researchability[c]; ok {
		return v
	}
	return researchability[domain.CategoryOther]
}

func timingScore(days *int) float64 {
	if days == nil {
		return 50
	}
	d := *days
	switch {
	case d < 1:
		return 20
	case d < 3:
		return 50
	case d <= 14:
		return 90
	case d <= 30:
		return 85
	case d <= 90:
		return 70
	default:
		return 40
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
