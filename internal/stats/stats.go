// Package stats reduces the current collections to summary counters.
package stats

import (
	"time"

	"edgefinder/internal/config"
	"edgefinder/internal/domain"
)

// Compute summarizes one refresh generation. lastUpdated is the completion
// time of the refresh that produced the collections; a zero time means no
// refresh has completed.
func Compute(
	cfg config.StatsConfig,
	markets []domain.Market,
	opportunities []domain.EdgeOpportunity,
	predictions []domain.Prediction,
	generation uint64,
	lastUpdated time.Time,
) domain.Stats {
	s := domain.Stats{
		TotalMarkets:        len(markets),
		TotalOpportunities:  len(opportunities),
		TotalPredictions:    len(predictions),
		MarketsByCategory:   make(map[string]int),
		OpportunitiesByType: make(map[string]int),
		Generation:          generation,
	}

	for _, m := range markets {
		s.MarketsByCategory[string(m.Category)]++
	}
	for _, o := range opportunities {
		s.OpportunitiesByType[string(o.EdgeType)]++
		if o.Confidence >= cfg.HighConfidence {
			s.HighConfidenceOpportunities++
		}
	}
	if !lastUpdated.IsZero() {
		t := lastUpdated
		s.LastUpdated = &t
	}
	return s
}
