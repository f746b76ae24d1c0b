// Package research turns markets into forecasts. Category-specialized agents
// are tried in registry order and the first one that accepts a market
// produces its prediction; a fallback agent covers everything else.
//
// Agents here are keyword and category heuristics. They are a placeholder
// layer for real classification and forecasting models.
package research

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"edgefinder/internal/config"
	"edgefinder/internal/domain"
)

// Agent forecasts markets it knows how to analyze. Implementations hold no
// mutable state.
type Agent interface {
	Name() string
	CanAnalyze(m domain.Market) bool
	Analyze(m domain.Market) domain.Prediction
}

// Profile is the static description of a keyword agent.
type Profile struct {
	Name       string
	Categories []domain.Category
	Keywords   []string
	Confidence int
	// HalfWidth is the half-width of the confidence interval around the
	// predicted probability.
	HalfWidth float64
	Risks     []string
	Catalysts []string
	Rationale string
	// Estimate maps the current price to a predicted probability.
	Estimate func(price float64) float64
}

// KeywordAgent accepts markets by category or by keyword in the question.
type KeywordAgent struct {
	profile  Profile
	matcher  *regexp.Regexp
	deadband float64
	strong   float64
}

// NewKeywordAgent builds an agent from a profile. Keywords match whole words,
// case-insensitively.
func NewKeywordAgent(p Profile, cfg config.ResearchConfig) *KeywordAgent {
	a := &KeywordAgent{profile: p, deadband: cfg.Deadband, strong: cfg.StrongEdge}
	if len(p.Keywords) > 0 {
		quoted := make([]string, len(p.Keywords))
		for i, k := range p.Keywords {
			quoted[i] = regexp.QuoteMeta(strings.ToLower(k))
		}
		a.matcher = regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`)
	}
	return a
}

func (a *KeywordAgent) Name() string { return a.profile.Name }

// CanAnalyze reports whether the market's category or question belongs to
// this agent. An agent with neither categories nor keywords accepts anything.
func (a *KeywordAgent) CanAnalyze(m domain.Market) bool {
	if len(a.profile.Categories) == 0 && a.matcher == nil {
		return true
	}
	for _, c := range a.profile.Categories {
		if m.Category == c {
			return true
		}
	}
	return a.matcher != nil && a.matcher.MatchString(strings.ToLower(m.Question))
}

func (a *KeywordAgent) Analyze(m domain.Market) domain.Prediction {
	price := clamp01(m.YesPrice)
	predicted := price
	if a.profile.Estimate != nil {
		predicted = clamp01(a.profile.Estimate(price))
	}
	edge := predicted - price
	direction, strength := classify(edge, a.deadband, a.strong)

	return domain.Prediction{
		MarketID:             m.ID,
		MarketQuestion:       m.Question,
		AgentName:            a.profile.Name,
		Direction:            direction,
		Strength:             strength,
		CurrentPrice:         price,
		PredictedProbability: predicted,
		Confidence:           clampConfidence(a.profile.Confidence),
		ConfidenceLow:        clamp01(predicted - a.profile.HalfWidth),
		ConfidenceHigh:       clamp01(predicted + a.profile.HalfWidth),
		Edge:                 edge,
		Reasoning:            fmt.Sprintf("%s Market %.1f%%, estimate %.1f%%.", a.profile.Rationale, price*100, predicted*100),
		KeyRisks:             append([]string(nil), a.profile.Risks...),
		Catalysts:            append([]string(nil), a.profile.Catalysts...),
	}
}

// classify applies the deadband rule: an edge inside the band is a hold.
func classify(edge, deadband, strong float64) (domain.Direction, domain.Strength) {
	var direction domain.Direction
	switch {
	case edge > deadband:
		direction = domain.DirectionBuyYes
	case edge < -deadband:
		direction = domain.DirectionBuyNo
	default:
		return domain.DirectionHold, domain.StrengthWeak
	}
	if math.Abs(edge) > strong {
		return direction, domain.StrengthStrong
	}
	return direction, domain.StrengthModerate
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampConfidence(c int) int {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}
