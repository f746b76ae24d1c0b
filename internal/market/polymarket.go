package market

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"edgefinder/internal/config"
	"edgefinder/internal/domain"
)

const (
	gammaPageSize    = 100
	descriptionLimit = 500
)

var endDateLayouts = []string{
	"2006-01-02T15:04:05.000Z",
	time.RFC3339,
	"2006-01-02",
}

// PolymarketSource reads open markets from the Gamma API and, optionally,
// top-of-book spreads from the CLOB API.
type PolymarketSource struct {
	gammaURL    string
	clobURL     string
	eventURL    string
	httpClient  *http.Client
	limiter     *rate.Limiter
	concurrency int
	spreads     *SpreadCache
}

// NewPolymarketSource builds a source. spreads may be nil.
func NewPolymarketSource(cfg config.PolymarketConfig, spreads *SpreadCache) *PolymarketSource {
	if spreads == nil {
		spreads = NewSpreadCache(cfg.SpreadCacheTTL.Duration, nil)
	}
	concurrency := cfg.OrderbookConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &PolymarketSource{
		gammaURL:    strings.TrimRight(cfg.GammaURL, "/"),
		clobURL:     strings.TrimRight(cfg.ClobURL, "/"),
		eventURL:    cfg.EventURL,
		httpClient:  &http.Client{Timeout: cfg.RequestTimeout.Duration},
		limiter:     rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		concurrency: concurrency,
		spreads:     spreads,
	}
}

func (p *PolymarketSource) Name() string { return "polymarket" }

func (p *PolymarketSource) Fetch(ctx context.Context, opts FetchOptions) ([]domain.Market, error) {
	limit := opts.maxMarkets()

	raw, err := p.fetchPages(ctx, limit)
	if err != nil {
		return nil, err
	}

	markets := make([]domain.Market, 0, min(len(raw), limit))
	skipped := 0
	for i := range raw {
		if float64(raw[i].Volume24hr) < opts.MinVolume {
			continue
		}
		if len(markets) == limit {
			break
		}
		m, err := raw[i].toMarket(p.eventURL)
		if err != nil {
			skipped++
			slog.Warn("skipping unparseable market", "market", raw[i].ID, "error", err)
			continue
		}
		markets = append(markets, m)
	}
	slog.Info("fetched polymarket markets", "raw", len(raw), "kept", len(markets), "skipped", skipped, "min_volume", opts.MinVolume)

	if opts.FetchOrderbooks {
		if err := p.attachSpreads(ctx, markets); err != nil {
			return nil, err
		}
	}
	return markets, nil
}

func (p *PolymarketSource) fetchPages(ctx context.Context, limit int) ([]gammaMarket, error) {
	var all []gammaMarket
	for offset := 0; len(all) < limit; offset += gammaPageSize {
		params := url.Values{}
		params.Set("closed", "false")
		params.Set("limit", strconv.Itoa(gammaPageSize))
		params.Set("offset", strconv.Itoa(offset))
		params.Set("order", "volume24hr")
		params.Set("ascending", "false")

		body, err := p.doGet(ctx, p.gammaURL+"/markets?"+params.Encode())
		if err != nil {
			return nil, fmt.Errorf("%w: gamma markets at offset %d: %w", domain.ErrUpstreamFetch, offset, err)
		}
		var page []gammaMarket
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("%w: decoding gamma markets at offset %d: %w", domain.ErrUpstreamFetch, offset, err)
		}

		all = append(all, page...)
		if len(page) < gammaPageSize {
			break
		}
	}
	return all, nil
}

// attachSpreads fills SpreadPct from the first outcome token's book. Book
// failures leave the spread at zero.
func (p *PolymarketSource) attachSpreads(ctx context.Context, markets []domain.Market) error {
	p.spreads.Prune()

	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i := range markets {
		if len(markets[i].Outcomes) == 0 || markets[i].Outcomes[0].TokenID == "" {
			continue
		}
		i := i
		tokenID := markets[i].Outcomes[0].TokenID
		g.Go(func() error {
			spread, err := p.spread(ctx, tokenID)
			if err != nil {
				slog.Debug("orderbook unavailable", "market", markets[i].ID, "token_id", tokenID, "error", err)
				return nil
			}
			markets[i].SpreadPct = spread
			return nil
		})
	}
	_ = g.Wait()
	return ctx.Err()
}

func (p *PolymarketSource) spread(ctx context.Context, tokenID string) (float64, error) {
	if v, ok := p.spreads.Get(ctx, tokenID); ok {
		return v, nil
	}

	body, err := p.doGet(ctx, p.clobURL+"/book?token_id="+url.QueryEscape(tokenID))
	if err != nil {
		return 0, err
	}
	var book orderbook
	if err := json.Unmarshal(body, &book); err != nil {
		return 0, fmt.Errorf("decoding book: %w", err)
	}

	spread := book.spreadPct()
	p.spreads.Set(ctx, tokenID, spread)
	return spread, nil
}

func (p *PolymarketSource) doGet(ctx context.Context, target string) ([]byte, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "edgefinder/1.0")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}
	return body, nil
}

// gammaMarket is a market as returned by the Gamma API.
type gammaMarket struct {
	ID            flexString  `json:"id"`
	Question      string      `json:"question"`
	Description   string      `json:"description"`
	Slug          string      `json:"slug"`
	EndDate       string      `json:"endDate"`
	Outcomes      flexStrings `json:"outcomes"`      // array or JSON-encoded array
	OutcomePrices flexStrings `json:"outcomePrices"` // array or JSON-encoded array
	ClobTokenIDs  flexStrings `json:"clobTokenIds"`  // array or JSON-encoded array
	Volume24hr    flexFloat   `json:"volume24hr"`
	Liquidity     flexFloat   `json:"liquidity"`
}

func (g *gammaMarket) toMarket(eventURL string) (domain.Market, error) {
	names := []string(g.Outcomes)
	if len(names) == 0 {
		names = []string{"Yes", "No"}
	}

	outcomes := make([]domain.Outcome, len(names))
	for i, name := range names {
		price := 0.5
		if i < len(g.OutcomePrices) {
			v, err := strconv.ParseFloat(g.OutcomePrices[i], 64)
			if err != nil {
				return domain.Market{}, fmt.Errorf("outcome %q price %q: %w", name, g.OutcomePrices[i], err)
			}
			price = v
		}
		outcomes[i] = domain.Outcome{Name: name, Price: price}
		if i < len(g.ClobTokenIDs) {
			outcomes[i].TokenID = g.ClobTokenIDs[i]
		}
	}

	m := domain.Market{
		ID:          string(g.ID),
		Question:    g.Question,
		Description: truncate(g.Description, descriptionLimit),
		Category:    Classify(g.Question, g.Description),
		YesPrice:    outcomes[0].Price,
		NoPrice:     1 - outcomes[0].Price,
		Outcomes:    outcomes,
		Volume24h:   float64(g.Volume24hr),
		Liquidity:   float64(g.Liquidity),
	}
	if len(outcomes) > 1 {
		m.NoPrice = outcomes[1].Price
	}
	if t, ok := parseEndDate(g.EndDate); ok {
		m.ResolutionDate = &t
	}
	if g.Slug != "" {
		m.URL = eventURL + g.Slug
	}
	return m, nil
}

func parseEndDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range endDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

type orderbook struct {
	Bids []bookLevel `json:"bids"`
	Asks []bookLevel `json:"asks"`
}

type bookLevel struct {
	Price flexFloat `json:"price"`
	Size  flexFloat `json:"size"`
}

// spreadPct is (ask - bid) / mid * 100 over the best levels. Level order in
// the response is not relied on.
func (b orderbook) spreadPct() float64 {
	if len(b.Bids) == 0 || len(b.Asks) == 0 {
		return 0
	}
	bid := math.Inf(-1)
	for _, l := range b.Bids {
		bid = math.Max(bid, float64(l.Price))
	}
	ask := math.Inf(1)
	for _, l := range b.Asks {
		ask = math.Min(ask, float64(l.Price))
	}
	mid := (bid + ask) / 2
	if mid <= 0 || ask < bid {
		return 0
	}
	return (ask - bid) / mid * 100
}

// flexString unmarshals from a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// flexStrings unmarshals from a JSON array or a string holding a JSON array,
// e.g. "[\"Yes\",\"No\"]".
type flexStrings []string

func (f *flexStrings) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return err
		}
		if strings.TrimSpace(inner) == "" {
			*f = nil
			return nil
		}
		data = []byte(inner)
	}

	var items []flexString
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	out := make(flexStrings, len(items))
	for i, it := range items {
		out[i] = string(it)
	}
	*f = out
	return nil
}

// flexFloat unmarshals from a JSON number or numeric string. Empty and null
// decode to zero.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	var s flexString
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(string(s), 64)
	if err != nil {
		return fmt.Errorf("parsing %q as number: %w", string(s), err)
	}
	*f = flexFloat(v)
	return nil
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
