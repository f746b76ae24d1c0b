package detector

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"edgefinder/internal/config"
	"edgefinder/internal/domain"
)

// priceEpsilon absorbs float noise in price sums such as 0.6 + 0.4.
const priceEpsilon = 1e-9

// Arbitrage flags markets whose complementary prices do not sum to 1.
type Arbitrage struct {
	cfg config.ArbitrageConfig
}

func NewArbitrage(cfg config.ArbitrageConfig) *Arbitrage {
	return &Arbitrage{cfg: cfg}
}

func (a *Arbitrage) Name() string          { return "arbitrage" }
func (a *Arbitrage) Type() domain.EdgeType { return domain.EdgeArbitrage }
func (a *Arbitrage) Enabled() bool         { return a.cfg.Enabled }

func (a *Arbitrage) Detect(_ context.Context, markets []domain.Market) ([]domain.EdgeOpportunity, error) {
	var opps []domain.EdgeOpportunity
	evaluated := 0

	for _, m := range markets {
		var (
			opp domain.EdgeOpportunity
			ok  bool
		)
		if m.IsMultiOutcome() {
			opp, ok = a.evaluateMultiOutcome(m)
		} else {
			opp, ok = a.evaluateBinary(m)
		}
		evaluated++
		if ok {
			opps = append(opps, opp)
		}
	}

	slog.Info("arbitrage detection complete", "markets_evaluated", evaluated, "opportunities", len(opps))
	return opps, nil
}

func (a *Arbitrage) evaluateBinary(m domain.Market) (domain.EdgeOpportunity, bool) {
	total := m.YesPrice + m.NoPrice
	if total <= 0 {
		return domain.EdgeOpportunity{}, false
	}
	deviation := total - 1
	if math.Abs(deviation) <= a.cfg.Tolerance+priceEpsilon {
		return domain.EdgeOpportunity{}, false
	}

	opp := domain.EdgeOpportunity{
		MarketID:       m.ID,
		MarketQuestion: m.Question,
		Confidence:     scaled(a.cfg.BaseConfidence, a.cfg.ConfidenceSlope, math.Abs(deviation), a.cfg.MaxConfidence),
		ExpectedReturn: a.expectedReturn(total),
		RiskLevel:      domain.RiskLow,
	}

	if deviation < 0 {
		opp.Description = fmt.Sprintf("Binary underpricing: YES (%.1f%%) + NO (%.1f%%) = %.1f%%",
			m.YesPrice*100, m.NoPrice*100, total*100)
		opp.SuggestedAction = fmt.Sprintf("Buy both YES at %.2f and NO at %.2f", m.YesPrice, m.NoPrice)
		opp.Reasoning = fmt.Sprintf("Both sides cost %.3f together and one pays out 1.00 at resolution.", total)
	} else {
		opp.Description = fmt.Sprintf("Binary overpricing: YES (%.1f%%) + NO (%.1f%%) = %.1f%%",
			m.YesPrice*100, m.NoPrice*100, total*100)
		opp.SuggestedAction = fmt.Sprintf("Sell both YES at %.2f and NO at %.2f", m.YesPrice, m.NoPrice)
		opp.Reasoning = fmt.Sprintf("Both sides sell for %.3f together while only one pays out 1.00.", total)
	}

	slog.Debug("arbitrage opportunity found", "market", m.ID, "prob_sum", total, "deviation", deviation)
	return opp, true
}

func (a *Arbitrage) evaluateMultiOutcome(m domain.Market) (domain.EdgeOpportunity, bool) {
	var total float64
	for _, o := range m.Outcomes {
		total += o.Price
	}
	if total <= 0 {
		return domain.EdgeOpportunity{}, false
	}
	deviation := total - 1
	if math.Abs(deviation) <= a.cfg.MultiTolerance+priceEpsilon {
		return domain.EdgeOpportunity{}, false
	}

	opp := domain.EdgeOpportunity{
		MarketID:       m.ID,
		MarketQuestion: m.Question,
		Confidence:     scaled(a.cfg.BaseConfidence, a.cfg.ConfidenceSlope, math.Abs(deviation), a.cfg.MaxConfidence),
		ExpectedReturn: a.expectedReturn(total),
		RiskLevel:      domain.RiskLow,
		Description:    fmt.Sprintf("Multi-outcome prices sum to %.1f%% across %d outcomes", total*100, len(m.Outcomes)),
	}
	if deviation < 0 {
		opp.SuggestedAction = "Buy every outcome in proportion to guarantee the 1.00 payout"
		opp.Reasoning = fmt.Sprintf("A full set of outcomes costs %.3f and exactly one resolves YES.", total)
	} else {
		opp.SuggestedAction = "Buy NO on the most overpriced outcomes"
		opp.Reasoning = fmt.Sprintf("Outcome prices imply %.1f%% total probability, above the 100%% ceiling.", total*100)
	}

	slog.Debug("multi-outcome arbitrage found", "market", m.ID, "prob_sum", total, "outcomes", len(m.Outcomes))
	return opp, true
}

// expectedReturn is the gross structural profit per unit staked, net of fees.
func (a *Arbitrage) expectedReturn(total float64) float64 {
	if total < 1 {
		return (1-total)/total*100 - a.cfg.FeePct
	}
	return (total-1)/total*100 - a.cfg.FeePct
}
