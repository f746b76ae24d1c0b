package detector

import (
	"context"
	"log/slog"
	"math"
	"time"

	"edgefinder/internal/config"
	"edgefinder/internal/domain"
)

// Detector is the interface all opportunity detectors implement. A detector
// sees the whole batch so it can compare markets, but each opportunity it
// returns belongs to exactly one market, and it returns at most one
// opportunity per market.
type Detector interface {
	Name() string
	Type() domain.EdgeType
	Detect(ctx context.Context, markets []domain.Market) ([]domain.EdgeOpportunity, error)
	Enabled() bool
}

// Default returns the built-in detectors in emission order.
func Default(cfg config.DetectorConfig) []Detector {
	return []Detector{
		NewArbitrage(cfg.Arbitrage),
		NewMispricing(cfg.Mispricing),
		NewTemporal(cfg.Temporal),
		NewVolumeSignal(cfg.Volume),
		NewLiquidityGap(cfg.Liquidity),
	}
}

// Aggregator runs detectors in order and concatenates their output.
type Aggregator struct {
	detectors []Detector
}

func NewAggregator(detectors ...Detector) *Aggregator {
	return &Aggregator{detectors: detectors}
}

// Detectors returns the registered detectors.
func (a *Aggregator) Detectors() []Detector {
	return a.detectors
}

// Run evaluates every enabled detector over markets. Output keeps detector
// order, then market order. A failing detector is logged and skipped; only
// context cancellation aborts the run.
func (a *Aggregator) Run(ctx context.Context, markets []domain.Market, detectedAt time.Time) ([]domain.EdgeOpportunity, error) {
	var all []domain.EdgeOpportunity

	for _, d := range a.detectors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !d.Enabled() {
			continue
		}

		opps, err := d.Detect(ctx, markets)
		if err != nil {
			slog.Error("detector failed", "detector", d.Name(), "error", err)
			continue
		}

		seen := make(map[string]bool, len(opps))
		for _, o := range opps {
			if seen[o.MarketID] {
				continue
			}
			seen[o.MarketID] = true
			o.EdgeType = d.Type()
			o.ID = domain.OpportunityID(o.MarketID, o.EdgeType)
			o.DetectedAt = detectedAt
			all = append(all, o)
		}
	}

	return all, nil
}

// confidence rounds v to an integer in [0,100].
func confidence(v float64) int {
	return int(math.Round(math.Max(0, math.Min(100, v))))
}

// scaled returns base + slope*x capped at max.
func scaled(base, slope, x, max float64) int {
	return confidence(math.Min(max, base+slope*x))
}
