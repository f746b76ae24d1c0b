package domain

import "time"

// EdgeType names the detector that produced an opportunity.
type EdgeType string

const (
	EdgeArbitrage    EdgeType = "arbitrage"
	EdgeMispricing   EdgeType = "mispricing"
	EdgeTemporal     EdgeType = "temporal"
	EdgeVolumeSignal EdgeType = "volume_signal"
	EdgeLiquidityGap EdgeType = "liquidity_gap"
)

// RiskLevel is a coarse estimate of how likely an opportunity fails to
// realize its expected return.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// EdgeOpportunity is a discrete condition flagged by one detector on one market.
type EdgeOpportunity struct {
	ID              string    `json:"id"`
	MarketID        string    `json:"market_id"`
	MarketQuestion  string    `json:"market_question"`
	EdgeType        EdgeType  `json:"edge_type"`
	Description     string    `json:"description"`
	Confidence      int       `json:"confidence"`
	ExpectedReturn  float64   `json:"expected_return"`
	RiskLevel       RiskLevel `json:"risk_level"`
	SuggestedAction string    `json:"suggested_action"`
	Reasoning       string    `json:"reasoning"`
	DetectedAt      time.Time `json:"detected_at"`
}

// OpportunityID derives the stable id of an opportunity from its market and type.
func OpportunityID(marketID string, t EdgeType) string {
	return marketID + ":" + string(t)
}
