package detector

import (
	"context"
	"fmt"
	"log/slog"

	"edgefinder/internal/config"
	"edgefinder/internal/domain"
)

// VolumeSignal flags markets trading far more than their resting liquidity,
// a sign of informed flow. Volume is not directional, so risk is high.
type VolumeSignal struct {
	cfg config.VolumeConfig
}

func NewVolumeSignal(cfg config.VolumeConfig) *VolumeSignal {
	return &VolumeSignal{cfg: cfg}
}

func (v *VolumeSignal) Name() string          { return "volume_signal" }
func (v *VolumeSignal) Type() domain.EdgeType { return domain.EdgeVolumeSignal }
func (v *VolumeSignal) Enabled() bool         { return v.cfg.Enabled }

func (v *VolumeSignal) Detect(_ context.Context, markets []domain.Market) ([]domain.EdgeOpportunity, error) {
	var opps []domain.EdgeOpportunity

	for _, m := range markets {
		if m.Liquidity <= 0 {
			continue
		}
		ratio := m.Volume24h / m.Liquidity
		if ratio <= v.cfg.MinRatio {
			continue
		}

		opps = append(opps, domain.EdgeOpportunity{
			MarketID:        m.ID,
			MarketQuestion:  m.Question,
			Description:     fmt.Sprintf("Volume spike: %.1fx liquidity", ratio),
			Confidence:      scaled(v.cfg.BaseConfidence, v.cfg.ConfidenceSlope, ratio-v.cfg.MinRatio, v.cfg.MaxConfidence),
			ExpectedReturn:  0,
			RiskLevel:       domain.RiskHigh,
			SuggestedAction: "Investigate recent news; follow the flow only with confirmation",
			Reasoning: fmt.Sprintf("24h volume (%.0f) is %.1fx liquidity (%.0f).",
				m.Volume24h, ratio, m.Liquidity),
		})
	}

	slog.Info("volume signal detection complete", "markets_evaluated", len(markets), "opportunities", len(opps))
	return opps, nil
}
