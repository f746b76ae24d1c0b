package research

import (
	"edgefinder/internal/config"
	"edgefinder/internal/domain"
)

// PoliticsProfile nudges prices toward 50% by the configured reversion rate;
// political markets tend to overreact to news.
func PoliticsProfile(cfg config.ResearchConfig) Profile {
	reversion := cfg.PoliticsReversion
	return Profile{
		Name:       "PoliticsAgent",
		Categories: []domain.Category{domain.CategoryPolitics},
		Keywords:   []string{"election", "president", "senate", "congress", "trump", "biden", "republican", "democrat", "governor", "vote"},
		Confidence: 50,
		HalfWidth:  0.15,
		Risks:      []string{"Polling error", "Late-breaking news", "Turnout uncertainty"},
		Catalysts:  []string{"Debates", "Major endorsements", "News events"},
		Rationale:  "Political markets mean-revert after news-driven moves.",
		Estimate: func(price float64) float64 {
			return price + reversion*(0.5-price)
		},
	}
}

func SportsProfile() Profile {
	return Profile{
		Name:       "SportsAgent",
		Categories: []domain.Category{domain.CategorySports},
		Keywords:   []string{"nfl", "nba", "mlb", "nhl", "super bowl", "championship", "playoffs", "finals", "game", "match", "win"},
		Confidence: 40,
		HalfWidth:  0.20,
		Risks:      []string{"Injuries", "Weather", "Unexpected events"},
		Catalysts:  []string{"Injury updates", "Lineup announcements"},
		Rationale:  "Sports lines are efficient; no adjustment without injury or lineup news.",
	}
}

func CryptoProfile() Profile {
	return Profile{
		Name:       "CryptoAgent",
		Categories: []domain.Category{domain.CategoryCrypto},
		Keywords:   []string{"bitcoin", "btc", "ethereum", "eth", "crypto", "solana", "sol", "token", "halving"},
		Confidence: 35,
		HalfWidth:  0.25,
		Risks:      []string{"Volatility", "Regulatory news", "Market manipulation"},
		Catalysts:  []string{"ETF decisions", "Protocol upgrades", "Macro events"},
		Rationale:  "Crypto price targets are dominated by volatility; the market price is the best estimate.",
	}
}

func EconomicsProfile() Profile {
	return Profile{
		Name:       "EconomicsAgent",
		Categories: []domain.Category{domain.CategoryEconomics},
		Keywords:   []string{"fed", "interest rate", "inflation", "gdp", "unemployment", "recession", "cpi", "fomc"},
		Confidence: 60,
		HalfWidth:  0.10,
		Risks:      []string{"Data revisions", "Fed pivot", "External shocks"},
		Catalysts:  []string{"FOMC meetings", "CPI releases", "Jobs reports"},
		Rationale:  "Macro markets track futures pricing closely.",
	}
}

// GeneralProfile accepts any market.
func GeneralProfile() Profile {
	return Profile{
		Name:       "GeneralAgent",
		Confidence: 30,
		HalfWidth:  0.30,
		Risks:      []string{"Unknown factors"},
		Catalysts:  []string{"Varies"},
		Rationale:  "No specialist coverage; deferring to the market.",
	}
}

// DefaultAgents returns the specialist agents in selection order.
func DefaultAgents(cfg config.ResearchConfig) []Agent {
	return []Agent{
		NewKeywordAgent(PoliticsProfile(cfg), cfg),
		NewKeywordAgent(SportsProfile(), cfg),
		NewKeywordAgent(CryptoProfile(), cfg),
		NewKeywordAgent(EconomicsProfile(), cfg),
	}
}

// NewDefaultOrchestrator wires the default specialists and the general fallback.
func NewDefaultOrchestrator(cfg config.ResearchConfig) *Orchestrator {
	return NewOrchestrator(DefaultAgents(cfg), NewKeywordAgent(GeneralProfile(), cfg))
}
