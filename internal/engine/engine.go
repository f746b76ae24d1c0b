// Package engine runs one refresh batch through scoring, detection and
// research.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"edgefinder/internal/config"
	"edgefinder/internal/detector"
	"edgefinder/internal/domain"
	"edgefinder/internal/research"
	"edgefinder/internal/scorer"
)

// Result is the engine output for one batch. Markets keep ingestion order
// minus rejected entries.
type Result struct {
	Markets       []domain.Market
	Opportunities []domain.EdgeOpportunity
	Predictions   []domain.Prediction
	Rejected      []domain.Rejection
	ProcessedAt   time.Time
}

type Engine struct {
	scorer       *scorer.Scorer
	detectors    *detector.Aggregator
	orchestrator *research.Orchestrator
	now          func() time.Time
}

func New(s *scorer.Scorer, d *detector.Aggregator, o *research.Orchestrator) *Engine {
	return &Engine{scorer: s, detectors: d, orchestrator: o, now: time.Now}
}

// NewFromConfig wires the default scorer, detectors and agents.
func NewFromConfig(cfg *config.Config) *Engine {
	return New(
		scorer.New(cfg.Scorer),
		detector.NewAggregator(detector.Default(cfg.Detector)...),
		research.NewDefaultOrchestrator(cfg.Research),
	)
}

// WithClock replaces the time source used for days-until-resolution and
// detection timestamps.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Process validates and scores raw, then runs the detectors and the research
// orchestrator concurrently over the scored batch. Malformed markets are
// excluded and reported in Result.Rejected; they never fail the batch.
func (e *Engine) Process(ctx context.Context, raw []domain.Market) (*Result, error) {
	now := e.now()
	res := &Result{ProcessedAt: now}

	markets := make([]domain.Market, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, m := range raw {
		if seen[m.ID] && m.ID != "" {
			res.Rejected = append(res.Rejected, domain.Rejection{MarketID: m.ID, Reason: "duplicate market id"})
			continue
		}

		m.Outcomes = append([]domain.Outcome(nil), m.Outcomes...)
		m.DaysUntilResolution = m.DaysUntil(now)
		b, err := e.scorer.Breakdown(m)
		if err != nil {
			var ve *domain.ValidationError
			if !errors.As(err, &ve) {
				return nil, fmt.Errorf("scoring market %s: %w", m.ID, err)
			}
			slog.Warn("market rejected", "market", m.ID, "error", err)
			res.Rejected = append(res.Rejected, domain.Rejection{MarketID: m.ID, Reason: err.Error()})
			continue
		}
		m.EdgeScore = b.Total
		m.LiquidityScore = b.Liquidity
		m.EfficiencyScore = b.Inefficiency
		m.ResearchabilityScore = b.Researchability
		m.TimingScore = b.Timing
		seen[m.ID] = true
		markets = append(markets, m)
	}
	res.Markets = markets

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		opps, err := e.detectors.Run(gctx, markets, now)
		if err != nil {
			return fmt.Errorf("running detectors: %w", err)
		}
		res.Opportunities = opps
		return nil
	})
	g.Go(func() error {
		preds, err := e.orchestrator.Predict(gctx, markets)
		if err != nil {
			return fmt.Errorf("generating predictions: %w", err)
		}
		res.Predictions = preds
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slog.Info("batch processed",
		"markets", len(res.Markets),
		"rejected", len(res.Rejected),
		"opportunities", len(res.Opportunities),
		"predictions", len(res.Predictions),
	)
	return res, nil
}
