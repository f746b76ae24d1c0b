package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"edgefinder/internal/config"
	"edgefinder/internal/domain"
)

var fixedNow = time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)

func newTestEngine() *Engine {
	return NewFromConfig(config.DefaultConfig()).WithClock(func() time.Time { return fixedNow })
}

func at(days int) *time.Time {
	t := fixedNow.Add(time.Duration(days)*24*time.Hour + time.Hour)
	return &t
}

func TestProcess_ScoresDetectsAndPredicts(t *testing.T) {
	e := newTestEngine()

	raw := []domain.Market{
		{ID: "arb", Question: "Will BTC close green?", Category: domain.CategoryCrypto, YesPrice: 0.60, NoPrice: 0.55, Liquidity: 40000, Volume24h: 1000, SpreadPct: 2, ResolutionDate: at(20)},
		{ID: "plain", Question: "Will it rain?", Category: domain.CategoryOther, YesPrice: 0.30, NoPrice: 0.70, Liquidity: 5000, SpreadPct: 1},
	}

	res, err := e.Process(context.Background(), raw)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Markets) != 2 || len(res.Rejected) != 0 {
		t.Fatalf("expected 2 markets, 0 rejected; got %d, %d", len(res.Markets), len(res.Rejected))
	}
	if res.Markets[0].EdgeScore <= 0 || res.Markets[0].EdgeScore > 100 {
		t.Errorf("unexpected edge score %f", res.Markets[0].EdgeScore)
	}
	if d := res.Markets[0].DaysUntilResolution; d == nil || *d != 20 {
		t.Errorf("expected 20 days until resolution, got %v", d)
	}
	if res.Markets[1].DaysUntilResolution != nil {
		t.Error("expected nil days for undated market")
	}
	if len(res.Predictions) != 2 {
		t.Errorf("expected one prediction per market, got %d", len(res.Predictions))
	}

	var arb bool
	for _, o := range res.Opportunities {
		if o.MarketID == "arb" && o.EdgeType == domain.EdgeArbitrage {
			arb = true
		}
		if !o.DetectedAt.Equal(fixedNow) {
			t.Errorf("opportunity %s: expected detected_at %v", o.ID, fixedNow)
		}
	}
	if !arb {
		t.Error("expected an arbitrage opportunity on arb")
	}
}

func TestProcess_ExcludesInvalidMarkets(t *testing.T) {
	e := newTestEngine()

	raw := []domain.Market{
		{ID: "good", YesPrice: 0.4, NoPrice: 0.6},
		{ID: "bad-price", YesPrice: 1.4, NoPrice: 0.6},
		{ID: "bad-volume", YesPrice: 0.4, NoPrice: 0.6, Volume24h: -10},
		{ID: "good", YesPrice: 0.5, NoPrice: 0.5},
	}

	res, err := e.Process(context.Background(), raw)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Markets) != 1 || res.Markets[0].ID != "good" || res.Markets[0].YesPrice != 0.4 {
		t.Fatalf("expected only the first good market, got %+v", res.Markets)
	}
	if len(res.Rejected) != 3 {
		t.Fatalf("expected 3 rejections, got %+v", res.Rejected)
	}
	if len(res.Predictions) != 1 {
		t.Errorf("rejected markets must not get predictions, got %d", len(res.Predictions))
	}
}

func TestProcess_DoesNotMutateInput(t *testing.T) {
	e := newTestEngine()

	raw := []domain.Market{{ID: "m", YesPrice: 0.5, NoPrice: 0.5, EdgeScore: 99, ResolutionDate: at(5)}}
	if _, err := e.Process(context.Background(), raw); err != nil {
		t.Fatal(err)
	}
	if raw[0].EdgeScore != 99 || raw[0].DaysUntilResolution != nil {
		t.Error("input batch was mutated")
	}
}

func TestProcess_RecomputesSuppliedEdgeScore(t *testing.T) {
	e := newTestEngine()

	res, err := e.Process(context.Background(), []domain.Market{{ID: "m", YesPrice: 0.5, NoPrice: 0.5, EdgeScore: 99}})
	if err != nil {
		t.Fatal(err)
	}
	// other category, no liquidity, no spread, no date: 0 + 30*0.3 + 40*0.25 + 50*0.2
	if res.Markets[0].EdgeScore != 29 {
		t.Errorf("expected recomputed score 29, got %f", res.Markets[0].EdgeScore)
	}
	m := res.Markets[0]
	if m.LiquidityScore != 0 || m.EfficiencyScore != 30 || m.ResearchabilityScore != 40 || m.TimingScore != 50 {
		t.Errorf("unexpected sub-scores %v/%v/%v/%v", m.LiquidityScore, m.EfficiencyScore, m.ResearchabilityScore, m.TimingScore)
	}
}

func TestProcess_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestEngine().Process(ctx, []domain.Market{{ID: "m", YesPrice: 0.5, NoPrice: 0.5}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
