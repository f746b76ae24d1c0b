package server

// MarketsRequest filters GET /api/markets.
type MarketsRequest struct {
	Category  string  `query:"category" validate:"omitempty,oneof=politics sports crypto economics entertainment science other"`
	MinScore  float64 `query:"min_score" validate:"gte=0,lte=100"`
	MinVolume float64 `query:"min_volume" validate:"gte=0"`
	Limit     int     `query:"limit" default:"50" validate:"gte=1,lte=200"`
	Offset    int     `query:"offset" validate:"gte=0"`
}

// OpportunitiesRequest filters GET /api/opportunities.
type OpportunitiesRequest struct {
	EdgeType      string `query:"edge_type" validate:"omitempty,oneof=arbitrage mispricing temporal volume_signal liquidity_gap"`
	MinConfidence int    `query:"min_confidence" validate:"gte=0,lte=100"`
	RiskLevel     string `query:"risk_level" validate:"omitempty,oneof=low medium high"`
	Limit         int    `query:"limit" default:"50" validate:"gte=1,lte=200"`
	Offset        int    `query:"offset" validate:"gte=0"`
}

// PredictionsRequest filters GET /api/predictions. MinEdge compares against
// the absolute edge.
type PredictionsRequest struct {
	Direction string  `query:"direction" validate:"omitempty,oneof=buy_yes buy_no hold"`
	MinEdge   float64 `query:"min_edge" validate:"gte=0,lte=1"`
	Limit     int     `query:"limit" default:"50" validate:"gte=1,lte=200"`
	Offset    int     `query:"offset" validate:"gte=0"`
}

// RefreshRequest holds the options of POST /api/refresh. The handler seeds it
// from the refresh config before binding.
type RefreshRequest struct {
	MaxMarkets      int     `query:"max_markets" default:"100" validate:"gte=10,lte=500"`
	MinVolume       float64 `query:"min_volume" validate:"gte=0"`
	FetchOrderbooks bool    `query:"fetch_orderbooks"`
}

// RunsRequest limits GET /api/runs.
type RunsRequest struct {
	Limit int `query:"limit" default:"20" validate:"gte=1,lte=100"`
}
