package domain

import "time"

// Direction is the trade a prediction points to.
type Direction string

const (
	DirectionBuyYes Direction = "buy_yes"
	DirectionBuyNo  Direction = "buy_no"
	DirectionHold   Direction = "hold"
)

// Strength grades how far a prediction sits from the market price.
type Strength string

const (
	StrengthWeak     Strength = "weak"
	StrengthModerate Strength = "moderate"
	StrengthStrong   Strength = "strong"
)

// Prediction is one research agent's forecast for one market.
type Prediction struct {
	MarketID             string    `json:"market_id"`
	MarketQuestion       string    `json:"market_question"`
	AgentName            string    `json:"agent_name"`
	Direction            Direction `json:"direction"`
	Strength             Strength  `json:"strength"`
	CurrentPrice         float64   `json:"current_price"`
	PredictedProbability float64   `json:"predicted_probability"`
	Confidence           int       `json:"confidence"`
	ConfidenceLow        float64   `json:"confidence_low"`
	ConfidenceHigh       float64   `json:"confidence_high"`
	Edge                 float64   `json:"edge"`
	Reasoning            string    `json:"reasoning"`
	KeyRisks             []string  `json:"key_risks"`
	Catalysts            []string  `json:"catalysts"`
}

// Stats summarizes the current collections.
type Stats struct {
	TotalMarkets                int            `json:"total_markets"`
	TotalOpportunities          int            `json:"total_opportunities"`
	HighConfidenceOpportunities int            `json:"high_confidence_opportunities"`
	TotalPredictions            int            `json:"total_predictions"`
	MarketsByCategory           map[string]int `json:"markets_by_category"`
	OpportunitiesByType         map[string]int `json:"opportunities_by_type"`
	Generation                  uint64         `json:"generation"`
	LastUpdated                 *time.Time     `json:"last_updated"`
}
