package detector

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"edgefinder/internal/config"
	"edgefinder/internal/domain"
)

// Mispricing compares the YES price with a fundamentals estimate. The
// estimate is a placeholder heuristic: the vig-free fair value
// yes/(yes+no), shrunk toward the nearer bound by LongshotDiscount when it
// sits in the longshot or favourite tail (favourite-longshot bias). It stands
// in for a real model.
type Mispricing struct {
	cfg config.MispricingConfig
}

func NewMispricing(cfg config.MispricingConfig) *Mispricing {
	return &Mispricing{cfg: cfg}
}

func (mp *Mispricing) Name() string          { return "mispricing" }
func (mp *Mispricing) Type() domain.EdgeType { return domain.EdgeMispricing }
func (mp *Mispricing) Enabled() bool         { return mp.cfg.Enabled }

func (mp *Mispricing) Detect(_ context.Context, markets []domain.Market) ([]domain.EdgeOpportunity, error) {
	var opps []domain.EdgeOpportunity
	evaluated := 0

	for _, m := range markets {
		if m.IsMultiOutcome() {
			continue
		}
		// Pinned prices carry no usable estimate.
		if m.YesPrice <= 0 || m.YesPrice >= 1 || m.YesPrice+m.NoPrice <= 0 {
			continue
		}
		evaluated++

		if opp, ok := mp.evaluateMarket(m); ok {
			opps = append(opps, opp)
		}
	}

	slog.Info("mispricing detection complete", "markets_evaluated", evaluated, "opportunities", len(opps))
	return opps, nil
}

// Estimate returns the fundamentals estimate for a binary market.
func (mp *Mispricing) Estimate(yes, no float64) float64 {
	fair := yes / (yes + no)
	switch {
	case fair < mp.cfg.LongshotThreshold:
		return fair * (1 - mp.cfg.LongshotDiscount)
	case fair > 1-mp.cfg.LongshotThreshold:
		return 1 - (1-fair)*(1-mp.cfg.LongshotDiscount)
	default:
		return fair
	}
}

func (mp *Mispricing) evaluateMarket(m domain.Market) (domain.EdgeOpportunity, bool) {
	estimate := mp.Estimate(m.YesPrice, m.NoPrice)
	divergence := estimate - m.YesPrice
	if math.Abs(divergence) < mp.cfg.MinDivergence {
		return domain.EdgeOpportunity{}, false
	}

	opp := domain.EdgeOpportunity{
		MarketID:       m.ID,
		MarketQuestion: m.Question,
		Confidence:     scaled(mp.cfg.BaseConfidence, mp.cfg.ConfidenceSlope, math.Abs(divergence), mp.cfg.MaxConfidence),
		RiskLevel:      domain.RiskMedium,
		Description: fmt.Sprintf("Price %.1f%% vs estimated %.1f%% (%+.1f pts)",
			m.YesPrice*100, estimate*100, divergence*100),
		Reasoning: fmt.Sprintf("Vig-adjusted fair value with longshot correction gives %.3f against a YES price of %.3f.",
			estimate, m.YesPrice),
	}
	if divergence > 0 {
		opp.ExpectedReturn = divergence / m.YesPrice * 100
		opp.SuggestedAction = fmt.Sprintf("Buy YES at %.2f", m.YesPrice)
	} else {
		complement := 1 - m.YesPrice
		opp.ExpectedReturn = -divergence / complement * 100
		opp.SuggestedAction = fmt.Sprintf("Buy NO at %.2f", complement)
	}

	slog.Debug("mispricing found", "market", m.ID, "price", m.YesPrice, "estimate", estimate)
	return opp, true
}
