package detector

import (
	"context"
	"fmt"
	"log/slog"

	"edgefinder/internal/config"
	"edgefinder/internal/domain"
)

// LiquidityGap flags wide-spread, thin markets where a market maker can
// quote inside the spread and prices correct slowly.
type LiquidityGap struct {
	cfg config.LiquidityConfig
}

func NewLiquidityGap(cfg config.LiquidityConfig) *LiquidityGap {
	return &LiquidityGap{cfg: cfg}
}

func (lg *LiquidityGap) Name() string          { return "liquidity_gap" }
func (lg *LiquidityGap) Type() domain.EdgeType { return domain.EdgeLiquidityGap }
func (lg *LiquidityGap) Enabled() bool         { return lg.cfg.Enabled }

func (lg *LiquidityGap) Detect(_ context.Context, markets []domain.Market) ([]domain.EdgeOpportunity, error) {
	var opps []domain.EdgeOpportunity

	for _, m := range markets {
		if !lg.isEligible(m) {
			continue
		}

		opps = append(opps, domain.EdgeOpportunity{
			MarketID:        m.ID,
			MarketQuestion:  m.Question,
			Description:     fmt.Sprintf("Wide spread: %.1f%% on %.0f liquidity", m.SpreadPct, m.Liquidity),
			Confidence:      confidence(lg.cfg.Confidence),
			ExpectedReturn:  m.SpreadPct / 2,
			RiskLevel:       domain.RiskMedium,
			SuggestedAction: "Provide liquidity at a tighter spread",
			Reasoning: fmt.Sprintf("A %.1f%% spread with %.0f of 24h volume leaves room to quote inside the book.",
				m.SpreadPct, m.Volume24h),
		})
	}

	slog.Info("liquidity gap detection complete", "markets_evaluated", len(markets), "opportunities", len(opps))
	return opps, nil
}

func (lg *LiquidityGap) isEligible(m domain.Market) bool {
	if m.SpreadPct < lg.cfg.MinSpreadPct {
		return false
	}
	if m.Liquidity >= lg.cfg.MaxLiquidity {
		return false
	}
	if m.Volume24h < lg.cfg.MinVolume {
		return false
	}
	return true
}
