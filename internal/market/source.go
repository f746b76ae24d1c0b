// Package market fetches raw market batches from upstream venues and maps
// them onto domain.Market.
package market

import (
	"context"

	"edgefinder/internal/domain"
)

// FetchOptions bounds one ingestion pass.
type FetchOptions struct {
	MaxMarkets      int     `json:"max_markets"`
	MinVolume       float64 `json:"min_volume"`
	FetchOrderbooks bool    `json:"fetch_orderbooks"`
}

const defaultMaxMarkets = 100

func (o FetchOptions) maxMarkets() int {
	if o.MaxMarkets <= 0 {
		return defaultMaxMarkets
	}
	return o.MaxMarkets
}

// Source produces a raw batch. Fetch failures wrap domain.ErrUpstreamFetch.
type Source interface {
	Name() string
	Fetch(ctx context.Context, opts FetchOptions) ([]domain.Market, error)
}
