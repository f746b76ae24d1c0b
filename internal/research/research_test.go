package research

import (
	"context"
	"math"
	"testing"

	"edgefinder/internal/config"
	"edgefinder/internal/domain"
)

func newResearchConfig() config.ResearchConfig {
	return config.DefaultConfig().Research
}

func TestOrchestrator_SelectsFirstMatchingAgent(t *testing.T) {
	o := NewDefaultOrchestrator(newResearchConfig())

	tests := []struct {
		market domain.Market
		agent  string
	}{
		{domain.Market{ID: "1", Question: "Will Trump be inaugurated on January 20, 2025?", Category: domain.CategoryPolitics}, "PoliticsAgent"},
		{domain.Market{ID: "2", Question: "Who will win Super Bowl LIX?", Category: domain.CategorySports}, "SportsAgent"},
		{domain.Market{ID: "3", Question: "Will Bitcoin reach $100k by March 2025?", Category: domain.CategoryCrypto}, "CryptoAgent"},
		{domain.Market{ID: "4", Question: "Will the Fed cut rates in January 2025?", Category: domain.CategoryEconomics}, "EconomicsAgent"},
		{domain.Market{ID: "5", Question: "Will the next album top the charts?", Category: domain.CategoryEntertainment}, "GeneralAgent"},
		// Keyword match wins even when the category is other.
		{domain.Market{ID: "6", Question: "Will the senate pass the bill?", Category: domain.CategoryOther}, "PoliticsAgent"},
		// Registry order: a politics-categorized market mentioning a game goes to politics.
		{domain.Market{ID: "7", Question: "Will the president attend the game?", Category: domain.CategoryPolitics}, "PoliticsAgent"},
		{domain.Market{ID: "8", Question: "Will the governor attend the NBA finals game?", Category: domain.CategoryOther}, "PoliticsAgent"},
		{domain.Market{ID: "9", Question: "Will a Republican take the seat?", Category: domain.CategoryOther}, "PoliticsAgent"},
		{domain.Market{ID: "10", Question: "Who takes the NHL title this year?", Category: domain.CategoryOther}, "SportsAgent"},
		{domain.Market{ID: "11", Question: "Will the MLB season start on time?", Category: domain.CategoryOther}, "SportsAgent"},
		{domain.Market{ID: "12", Question: "Will Solana flip its all-time high?", Category: domain.CategoryOther}, "CryptoAgent"},
		{domain.Market{ID: "13", Question: "Will the new token list on Coinbase?", Category: domain.CategoryOther}, "CryptoAgent"},
	}

	for _, tt := range tests {
		if got := o.Select(tt.market).Name(); got != tt.agent {
			t.Errorf("market %s: expected %s, got %s", tt.market.ID, tt.agent, got)
		}
	}
}

func TestKeywordAgent_MatchesWholeWords(t *testing.T) {
	crypto := NewKeywordAgent(CryptoProfile(), newResearchConfig())

	if crypto.CanAnalyze(domain.Market{Question: "Will the dispute resolve whether or not?"}) {
		t.Error("substring hits inside words should not match")
	}
	if !crypto.CanAnalyze(domain.Market{Question: "Will ETH flip BTC?"}) {
		t.Error("expected whole-word ticker match")
	}
}

func TestOrchestrator_TotalityAndIntervals(t *testing.T) {
	o := NewDefaultOrchestrator(newResearchConfig())

	var markets []domain.Market
	prices := []float64{0, 0.01, 0.15, 0.42, 0.5, 0.95, 0.99, 1}
	categories := domain.Categories
	for i := 0; i < 40; i++ {
		markets = append(markets, domain.Market{
			ID:       string(rune('a'+i%26)) + string(rune('0'+i/26)),
			Question: "Question?",
			Category: categories[i%len(categories)],
			YesPrice: prices[i%len(prices)],
		})
	}

	predictions, err := o.Predict(context.Background(), markets)
	if err != nil {
		t.Fatal(err)
	}
	if len(predictions) != len(markets) {
		t.Fatalf("expected %d predictions, got %d", len(markets), len(predictions))
	}
	for i, p := range predictions {
		if p.MarketID != markets[i].ID {
			t.Errorf("prediction %d out of market order", i)
		}
		if !(p.ConfidenceLow <= p.PredictedProbability && p.PredictedProbability <= p.ConfidenceHigh) {
			t.Errorf("market %s: interval [%f, %f] excludes %f", p.MarketID, p.ConfidenceLow, p.ConfidenceHigh, p.PredictedProbability)
		}
		if p.ConfidenceLow < 0 || p.ConfidenceHigh > 1 {
			t.Errorf("market %s: interval outside [0,1]", p.MarketID)
		}
		if p.Confidence < 0 || p.Confidence > 100 {
			t.Errorf("market %s: confidence %d out of range", p.MarketID, p.Confidence)
		}
	}
}

func TestDirectionFollowsDeadband(t *testing.T) {
	tests := []struct {
		edge      float64
		direction domain.Direction
		strength  domain.Strength
	}{
		{0.15, domain.DirectionBuyYes, domain.StrengthStrong},
		{0.05, domain.DirectionBuyYes, domain.StrengthModerate},
		{0.02, domain.DirectionHold, domain.StrengthWeak},
		{0, domain.DirectionHold, domain.StrengthWeak},
		{-0.019, domain.DirectionHold, domain.StrengthWeak},
		{-0.03, domain.DirectionBuyNo, domain.StrengthModerate},
		{-0.2, domain.DirectionBuyNo, domain.StrengthStrong},
	}
	for _, tt := range tests {
		d, s := classify(tt.edge, 0.02, 0.10)
		if d != tt.direction || s != tt.strength {
			t.Errorf("edge %.3f: expected %s/%s, got %s/%s", tt.edge, tt.direction, tt.strength, d, s)
		}
	}
}

func TestPoliticsAgent_MeanReversion(t *testing.T) {
	agent := NewKeywordAgent(PoliticsProfile(newResearchConfig()), newResearchConfig())

	p := agent.Analyze(domain.Market{ID: "pol", Question: "Will the governor win?", YesPrice: 0.10})
	want := 0.10 + 0.03*(0.5-0.10)
	if math.Abs(p.PredictedProbability-want) > 1e-9 {
		t.Errorf("expected %f, got %f", want, p.PredictedProbability)
	}
	if p.Direction != domain.DirectionHold {
		t.Errorf("edge %.4f sits inside the deadband, expected hold, got %s", p.Edge, p.Direction)
	}
	if len(p.KeyRisks) != 3 || p.KeyRisks[0] != "Polling error" {
		t.Errorf("unexpected risks %v", p.KeyRisks)
	}

	// A wide reversion pushes the edge past the deadband.
	cfg := newResearchConfig()
	cfg.PoliticsReversion = 0.5
	aggressive := NewKeywordAgent(PoliticsProfile(cfg), cfg)
	p = aggressive.Analyze(domain.Market{ID: "pol", YesPrice: 0.10})
	if p.Direction != domain.DirectionBuyYes || p.Strength != domain.StrengthStrong {
		t.Errorf("expected strong buy_yes, got %s/%s", p.Direction, p.Strength)
	}
}

func TestDirectionConsistentWithEdge(t *testing.T) {
	cfg := newResearchConfig()
	cfg.PoliticsReversion = 0.2
	o := NewOrchestrator(DefaultAgents(cfg), nil)

	for _, price := range []float64{0.05, 0.2, 0.45, 0.5, 0.55, 0.8, 0.95} {
		p := o.Select(domain.Market{Category: domain.CategoryPolitics}).Analyze(domain.Market{ID: "x", Category: domain.CategoryPolitics, YesPrice: price})
		switch {
		case p.Edge > cfg.Deadband && p.Direction != domain.DirectionBuyYes:
			t.Errorf("price %.2f: edge %.3f should be buy_yes, got %s", price, p.Edge, p.Direction)
		case p.Edge < -cfg.Deadband && p.Direction != domain.DirectionBuyNo:
			t.Errorf("price %.2f: edge %.3f should be buy_no, got %s", price, p.Edge, p.Direction)
		case math.Abs(p.Edge) <= cfg.Deadband && p.Direction != domain.DirectionHold:
			t.Errorf("price %.2f: edge %.3f should be hold, got %s", price, p.Edge, p.Direction)
		}
	}
}

func TestOrchestrator_NilFallbackUsesGeneral(t *testing.T) {
	o := NewOrchestrator(nil, nil)
	p := o.Select(domain.Market{ID: "x"}).Analyze(domain.Market{ID: "x", YesPrice: 0.3})
	if p.AgentName != "GeneralAgent" {
		t.Errorf("expected GeneralAgent, got %s", p.AgentName)
	}
	if p.ConfidenceLow != 0 || math.Abs(p.ConfidenceHigh-0.6) > 1e-9 {
		t.Errorf("unexpected interval [%f, %f]", p.ConfidenceLow, p.ConfidenceHigh)
	}
}

func TestOrchestrator_RespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	o := NewDefaultOrchestrator(newResearchConfig())
	if _, err := o.Predict(ctx, []domain.Market{{ID: "x"}}); err == nil {
		t.Fatal("expected cancellation error")
	}
}
