package detector

import (
	"context"
	"fmt"
	"math"
	"testing"

	"edgefinder/internal/domain"
)

func TestMispricing_NoOpportunityAtFairValue(t *testing.T) {
	mp := NewMispricing(newDetectorConfig().Mispricing)

	opps, err := mp.Detect(context.Background(), []domain.Market{
		{ID: "fair", YesPrice: 0.50, NoPrice: 0.50},
		{ID: "pinned", YesPrice: 1, NoPrice: 0},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(opps) != 0 {
		t.Errorf("expected 0 opportunities, got %d", len(opps))
	}
}

func TestMispricing_BuyNoWhenYesRich(t *testing.T) {
	mp := NewMispricing(newDetectorConfig().Mispricing)

	opps, err := mp.Detect(context.Background(), []domain.Market{
		{ID: "rich", YesPrice: 0.60, NoPrice: 0.55},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(opps) != 1 {
		t.Fatalf("expected 1 opportunity, got %d", len(opps))
	}
	o := opps[0]
	if o.RiskLevel != domain.RiskMedium {
		t.Errorf("expected medium risk, got %s", o.RiskLevel)
	}
	if o.SuggestedAction != "Buy NO at 0.40" {
		t.Errorf("unexpected action %q", o.SuggestedAction)
	}
	if o.ExpectedReturn <= 0 {
		t.Errorf("expected positive return, got %f", o.ExpectedReturn)
	}
}

func TestMispricing_BuyYesWhenYesCheap(t *testing.T) {
	mp := NewMispricing(newDetectorConfig().Mispricing)

	opps, err := mp.Detect(context.Background(), []domain.Market{
		{ID: "cheap", YesPrice: 0.40, NoPrice: 0.50},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(opps) != 1 {
		t.Fatalf("expected 1 opportunity, got %d", len(opps))
	}
	if opps[0].SuggestedAction != "Buy YES at 0.40" {
		t.Errorf("unexpected action %q", opps[0].SuggestedAction)
	}
}

func TestMispricing_EstimateAppliesLongshotCorrection(t *testing.T) {
	mp := NewMispricing(newDetectorConfig().Mispricing)

	if got := mp.Estimate(0.05, 0.95); math.Abs(got-0.025) > 1e-9 {
		t.Errorf("expected longshot estimate 0.025, got %f", got)
	}
	if got := mp.Estimate(0.95, 0.05); math.Abs(got-0.975) > 1e-9 {
		t.Errorf("expected favourite estimate 0.975, got %f", got)
	}
	if got := mp.Estimate(0.40, 0.60); math.Abs(got-0.40) > 1e-9 {
		t.Errorf("expected mid-range estimate unchanged, got %f", got)
	}
}

func TestMispricing_FiresOnCoherentTailMarkets(t *testing.T) {
	mp := NewMispricing(newDetectorConfig().Mispricing)

	opps, err := mp.Detect(context.Background(), []domain.Market{
		{ID: "longshot", YesPrice: 0.10, NoPrice: 0.90},
		{ID: "favourite", YesPrice: 0.90, NoPrice: 0.10},
		{ID: "near-bound", YesPrice: 0.04, NoPrice: 0.96},
		{ID: "middle", YesPrice: 0.30, NoPrice: 0.70},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(opps) != 2 || opps[0].MarketID != "longshot" || opps[1].MarketID != "favourite" {
		t.Fatalf("expected longshot and favourite flagged, got %+v", opps)
	}
	if opps[0].SuggestedAction != "Buy NO at 0.90" {
		t.Errorf("unexpected longshot action %q", opps[0].SuggestedAction)
	}
	if opps[1].SuggestedAction != "Buy YES at 0.90" {
		t.Errorf("unexpected favourite action %q", opps[1].SuggestedAction)
	}
	// 50 + 300 * 0.05
	if opps[0].Confidence != 65 {
		t.Errorf("expected confidence 65, got %d", opps[0].Confidence)
	}
}

func TestMispricing_CoherentSweepFiresOnlyInTails(t *testing.T) {
	mp := NewMispricing(newDetectorConfig().Mispricing)

	var markets []domain.Market
	prices := make(map[string]float64)
	for i := 1; i < 100; i++ {
		yes := float64(i) / 100
		id := fmt.Sprintf("m-%02d", i)
		prices[id] = yes
		markets = append(markets, domain.Market{ID: id, YesPrice: yes, NoPrice: 1 - yes})
	}

	opps, err := mp.Detect(context.Background(), markets)
	if err != nil {
		t.Fatal(err)
	}
	if len(opps) == 0 {
		t.Fatal("expected tail markets to be flagged")
	}
	for _, o := range opps {
		if p := prices[o.MarketID]; p > 0.155 && p < 0.845 {
			t.Errorf("mid-range market %s flagged", o.MarketID)
		}
	}
}

func TestMispricing_SkipsMultiOutcome(t *testing.T) {
	mp := NewMispricing(newDetectorConfig().Mispricing)

	opps, err := mp.Detect(context.Background(), []domain.Market{{
		ID: "multi", YesPrice: 0.2, NoPrice: 0.5,
		Outcomes: []domain.Outcome{{Price: 0.2}, {Price: 0.3}, {Price: 0.5}},
	}})
	if err != nil {
		t.Fatal(err)
	}
	if len(opps) != 0 {
		t.Errorf("expected multi-outcome market to be skipped, got %d", len(opps))
	}
}
