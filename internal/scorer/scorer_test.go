package scorer

import (
	"errors"
	"math"
	"testing"

	"edgefinder/internal/config"
	"edgefinder/internal/domain"
)

func newScorerConfig() config.ScorerConfig {
	return config.DefaultConfig().Scorer
}

func intPtr(v int) *int { return &v }

func TestScore_InRangeAndDeterministic(t *testing.T) {
	s := New(newScorerConfig())

	markets := []domain.Market{
		{ID: "a", YesPrice: 0.5, NoPrice: 0.5},
		{ID: "b", YesPrice: 0.42, NoPrice: 0.55, Volume24h: 125000, Liquidity: 450000, SpreadPct: 2.5, Category: domain.CategoryCrypto, DaysUntilResolution: intPtr(45)},
		{ID: "c", YesPrice: 0.99, NoPrice: 0.01, Liquidity: 1e9, SpreadPct: 50, Category: domain.CategorySports, DaysUntilResolution: intPtr(0)},
		{ID: "d", YesPrice: 0, NoPrice: 1, Liquidity: 25500, SpreadPct: 0.7, Category: domain.Category("unknown"), DaysUntilResolution: intPtr(400)},
	}

	for _, m := range markets {
		first, err := s.Score(m)
		if err != nil {
			t.Fatalf("market %s: %v", m.ID, err)
		}
		second, err := s.Score(m)
		if err != nil {
			t.Fatal(err)
		}
		if first != second {
			t.Errorf("market %s: score not deterministic: %f vs %f", m.ID, first, second)
		}
		if first < 0 || first > 100 {
			t.Errorf("market %s: score %f out of range", m.ID, first)
		}
	}
}

func TestScore_KnownBreakdown(t *testing.T) {
	s := New(newScorerConfig())

	// Liquid crypto market, 2.5% spread, 10 days out.
	m := domain.Market{
		ID: "btc", YesPrice: 0.42, NoPrice: 0.55,
		Liquidity: 450000, SpreadPct: 2.5,
		Category: domain.CategoryCrypto, DaysUntilResolution: intPtr(10),
	}
	b, err := s.Breakdown(m)
	if err != nil {
		t.Fatal(err)
	}
	if b.Liquidity != 100 || b.Inefficiency != 100 || b.Researchability != 85 || b.Timing != 90 {
		t.Fatalf("unexpected breakdown %+v", b)
	}
	want := 100*0.25 + 100*0.30 + 85*0.25 + 90*0.20
	if math.Abs(b.Total-want) > 1e-9 {
		t.Errorf("expected total %f, got %f", want, b.Total)
	}
}

func TestInefficiencyScore(t *testing.T) {
	tests := []struct {
		spread float64
		want   float64
	}{
		{0, 30},
		{0.5, 65},
		{1, 100},
		{5, 100},
		{7.5, 60},
		{10, 20},
		{12, 20},
	}
	for _, tt := range tests {
		if got := inefficiencyScore(tt.spread); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("spread %.1f: expected %f, got %f", tt.spread, tt.want, got)
		}
	}
}

func TestTimingScore(t *testing.T) {
	tests := []struct {
		days *int
		want float64
	}{
		{nil, 50},
		{intPtr(0), 20},
		{intPtr(2), 50},
		{intPtr(14), 90},
		{intPtr(30), 85},
		{intPtr(90), 70},
		{intPtr(91), 40},
	}
	for _, tt := range tests {
		if got := timingScore(tt.days); got != tt.want {
			t.Errorf("days %v: expected %f, got %f", tt.days, tt.want, got)
		}
	}
}

func TestLiquidityScore_Linear(t *testing.T) {
	s := New(newScorerConfig())
	if got := s.liquidityScore(999); got != 0 {
		t.Errorf("expected 0 below minimum, got %f", got)
	}
	if got := s.liquidityScore(25500); math.Abs(got-50) > 1e-9 {
		t.Errorf("expected 50 at midpoint, got %f", got)
	}
	if got := s.liquidityScore(50000); got != 100 {
		t.Errorf("expected 100 at ideal, got %f", got)
	}
}

func TestScore_RejectsInvalidMarket(t *testing.T) {
	s := New(newScorerConfig())
	_, err := s.Score(domain.Market{ID: "bad", YesPrice: 1.5})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestScore_ClampsOverweightedConfig(t *testing.T) {
	cfg := newScorerConfig()
	cfg.LiquidityWeight = 1
	cfg.InefficiencyWeight = 1
	s := New(cfg)

	got, err := s.Score(domain.Market{ID: "x", YesPrice: 0.5, NoPrice: 0.5, Liquidity: 1e6, SpreadPct: 2})
	if err != nil {
		t.Fatal(err)
	}
	if got != 100 {
		t.Errorf("expected clamp to 100, got %f", got)
	}
}
