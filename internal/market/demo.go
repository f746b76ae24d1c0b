package market

import (
	"context"
	"time"

	"edgefinder/internal/domain"
)

// DemoSource serves a fixed synthetic batch for exercising the pipeline
// without upstream access.
type DemoSource struct {
	now func() time.Time
}

func NewDemoSource() *DemoSource {
	return &DemoSource{now: time.Now}
}

// WithClock replaces time.Now.
func (d *DemoSource) WithClock(now func() time.Time) *DemoSource {
	d.now = now
	return d
}

func (d *DemoSource) Name() string { return "demo" }

// Fetch returns fresh copies of the demo markets. Options are ignored.
func (d *DemoSource) Fetch(ctx context.Context, _ FetchOptions) ([]domain.Market, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := d.now().UTC()
	in := func(days int) *time.Time {
		// Half a day of slack keeps the whole-day count stable while the
		// batch is processed.
		t := now.Add(time.Duration(days)*24*time.Hour + 12*time.Hour)
		return &t
	}

	return []domain.Market{
		{
			ID:             "demo-1",
			Question:       "Will Bitcoin reach $100,000 by March 2025?",
			Description:    "Resolves YES if BTC reaches $100k on any major exchange",
			Category:       domain.CategoryCrypto,
			YesPrice:       0.42,
			NoPrice:        0.55,
			Outcomes:       []domain.Outcome{{Name: "Yes", Price: 0.42, TokenID: "t1"}, {Name: "No", Price: 0.55, TokenID: "t2"}},
			Volume24h:      125000,
			Liquidity:      450000,
			SpreadPct:      2.5,
			ResolutionDate: in(45),
			URL:            "https://polymarket.com/event/btc-100k",
		},
		{
			ID:             "demo-2",
			Question:       "Will the Fed cut rates in January 2025?",
			Description:    "Resolves based on FOMC decision",
			Category:       domain.CategoryEconomics,
			YesPrice:       0.15,
			NoPrice:        0.84,
			Outcomes:       []domain.Outcome{{Name: "Yes", Price: 0.15, TokenID: "t3"}, {Name: "No", Price: 0.84, TokenID: "t4"}},
			Volume24h:      89000,
			Liquidity:      320000,
			SpreadPct:      1.8,
			ResolutionDate: in(10),
			URL:            "https://polymarket.com/event/fed-jan",
		},
		{
			ID:          "demo-3",
			Question:    "Who will win Super Bowl LIX?",
			Description: "NFL Championship Game",
			Category:    domain.CategorySports,
			YesPrice:    0.22,
			NoPrice:     0.78,
			Outcomes: []domain.Outcome{
				{Name: "Chiefs", Price: 0.22, TokenID: "t5"},
				{Name: "Lions", Price: 0.18, TokenID: "t6"},
				{Name: "Eagles", Price: 0.15, TokenID: "t7"},
				{Name: "Bills", Price: 0.12, TokenID: "t8"},
				{Name: "Other", Price: 0.28, TokenID: "t9"},
			},
			Volume24h:      520000,
			Liquidity:      1200000,
			SpreadPct:      4.2,
			ResolutionDate: in(30),
			URL:            "https://polymarket.com/event/super-bowl",
		},
		{
			ID:             "demo-4",
			Question:       "Will Trump be inaugurated on January 20, 2025?",
			Description:    "Resolves YES if inauguration occurs as scheduled",
			Category:       domain.CategoryPolitics,
			YesPrice:       0.95,
			NoPrice:        0.04,
			Outcomes:       []domain.Outcome{{Name: "Yes", Price: 0.95, TokenID: "t10"}, {Name: "No", Price: 0.04, TokenID: "t11"}},
			Volume24h:      45000,
			Liquidity:      890000,
			SpreadPct:      0.8,
			ResolutionDate: in(4),
			URL:            "https://polymarket.com/event/inauguration",
		},
		{
			ID:             "demo-5",
			Question:       "Will Ethereum reach $5,000 by June 2025?",
			Description:    "Resolves YES if ETH reaches $5k",
			Category:       domain.CategoryCrypto,
			YesPrice:       0.28,
			NoPrice:        0.70,
			Outcomes:       []domain.Outcome{{Name: "Yes", Price: 0.28, TokenID: "t12"}, {Name: "No", Price: 0.70, TokenID: "t13"}},
			Volume24h:      67000,
			Liquidity:      280000,
			SpreadPct:      3.1,
			ResolutionDate: in(150),
			URL:            "https://polymarket.com/event/eth-5k",
		},
	}, nil
}
