package market

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jonnyspicer/mango"

	"edgefinder/internal/config"
	"edgefinder/internal/domain"
)

// ManifoldSource fetches open markets from the Manifold API and converts them
// to domain markets.
type ManifoldSource struct {
	client       *mango.Client
	contractType string
}

func NewManifoldSource(client *mango.Client, cfg config.ManifoldConfig) *ManifoldSource {
	return &ManifoldSource{client: client, contractType: strings.ToLower(cfg.ContractType)}
}

func (s *ManifoldSource) Name() string { return "manifold" }

// Fetch returns open binary and multiple-choice markets sorted by liquidity.
// The mango client takes no context, so cancellation is only checked between
// calls.
func (s *ManifoldSource) Fetch(ctx context.Context, opts FetchOptions) ([]domain.Market, error) {
	req := mango.SearchMarketsRequest{
		Filter: "open",
		Sort:   "liquidity",
		Limit:  int64(opts.maxMarkets()),
	}
	switch s.contractType {
	case "binary":
		req.ContractType = "BINARY"
	case "multiple_choice":
		req.ContractType = "MULTIPLE_CHOICE"
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	found, err := s.client.SearchMarkets(req)
	if err != nil {
		return nil, fmt.Errorf("%w: searching manifold markets: %w", domain.ErrUpstreamFetch, err)
	}
	if found == nil {
		return nil, nil
	}

	result := make([]domain.Market, 0, len(*found))
	var multi []int
	for _, fm := range *found {
		if fm.IsResolved || fm.Volume24Hours < opts.MinVolume {
			continue
		}
		m, ok := fullMarketToDomain(fm)
		if !ok {
			continue
		}
		if string(fm.OutcomeType) == "MULTIPLE_CHOICE" {
			multi = append(multi, len(result))
		}
		result = append(result, m)
	}

	// The search API doesn't return answer probabilities for multi-choice
	// markets.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.enrichWithProbs(result, multi)

	slog.Info("scanned manifold markets", "count", len(result), "multiple_choice", len(multi))
	return result, nil
}

// enrichWithProbs fills answer probabilities via GetMarketProbs, 100 markets
// per call.
func (s *ManifoldSource) enrichWithProbs(markets []domain.Market, idx []int) {
	for i := 0; i < len(idx); i += 100 {
		batch := idx[i:min(i+100, len(idx))]

		ids := make([]string, len(batch))
		for j, k := range batch {
			ids[j] = markets[k].ID
		}

		probs, err := s.client.GetMarketProbs(ids)
		if err != nil {
			slog.Warn("failed to get batch probabilities", "error", err)
			continue
		}
		if probs == nil {
			continue
		}

		for _, k := range batch {
			mp, ok := (*probs)[markets[k].ID]
			if !ok || len(mp.AnswerProbs) == 0 {
				continue
			}
			for o := range markets[k].Outcomes {
				if p, found := mp.AnswerProbs[markets[k].Outcomes[o].TokenID]; found {
					markets[k].Outcomes[o].Price = p
				}
			}
			setHeadPrices(&markets[k])
		}
	}
}

func fullMarketToDomain(fm mango.FullMarket) (domain.Market, bool) {
	m := domain.Market{
		ID:        fm.Id,
		Question:  fm.Question,
		Category:  Classify(fm.Question, ""),
		Volume24h: fm.Volume24Hours,
		Liquidity: fm.TotalLiquidity,
		URL:       fm.Url,
	}
	if fm.CloseTime > 0 {
		t := time.UnixMilli(fm.CloseTime).UTC()
		m.ResolutionDate = &t
	}

	switch string(fm.OutcomeType) {
	case "BINARY":
		m.YesPrice = fm.Probability
		m.NoPrice = 1 - fm.Probability
		m.Outcomes = []domain.Outcome{
			{Name: "Yes", Price: m.YesPrice},
			{Name: "No", Price: m.NoPrice},
		}
	case "MULTIPLE_CHOICE":
		if len(fm.Answers) == 0 {
			return domain.Market{}, false
		}
		m.Outcomes = make([]domain.Outcome, 0, len(fm.Answers))
		for _, a := range fm.Answers {
			m.Outcomes = append(m.Outcomes, domain.Outcome{Name: a.Text, Price: a.Probability, TokenID: a.Id})
		}
		setHeadPrices(&m)
	default:
		return domain.Market{}, false
	}
	return m, true
}

// setHeadPrices derives yes/no from the first two outcomes.
func setHeadPrices(m *domain.Market) {
	if len(m.Outcomes) == 0 {
		return
	}
	m.YesPrice = m.Outcomes[0].Price
	m.NoPrice = 1 - m.YesPrice
	if len(m.Outcomes) > 1 {
		m.NoPrice = m.Outcomes[1].Price
	}
}
