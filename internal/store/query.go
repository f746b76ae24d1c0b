package store

import (
	"math"

	"edgefinder/internal/domain"
)

// DefaultLimit applies when a filter leaves Limit unset.
const DefaultLimit = 50

// Page is a window over a filtered collection. Total counts all matches
// before limit and offset.
type Page[T any] struct {
	Rows  []T `json:"rows"`
	Total int `json:"total"`
}

type MarketFilter struct {
	Category  domain.Category
	MinScore  float64
	MinVolume float64
	Limit     int
	Offset    int
}

type OpportunityFilter struct {
	EdgeType      domain.EdgeType
	MinConfidence int
	RiskLevel     domain.RiskLevel
	Limit         int
	Offset        int
}

type PredictionFilter struct {
	Direction domain.Direction
	MinEdge   float64
	Limit     int
	Offset    int
}

func paginate[T any](rows []T, match func(T) bool, limit, offset int) Page[T] {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if offset < 0 {
		offset = 0
	}

	page := Page[T]{Rows: []T{}}
	for _, r := range rows {
		if !match(r) {
			continue
		}
		if page.Total >= offset && len(page.Rows) < limit {
			page.Rows = append(page.Rows, r)
		}
		page.Total++
	}
	return page
}

// Markets lists markets in ingestion order.
func (s *Store) Markets(f MarketFilter) Page[domain.Market] {
	snap := s.snapshot.Load()
	return paginate(snap.Markets, func(m domain.Market) bool {
		if f.Category != "" && m.Category != f.Category {
			return false
		}
		return m.EdgeScore >= f.MinScore && m.Volume24h >= f.MinVolume
	}, f.Limit, f.Offset)
}

// Market returns one market by id.
func (s *Store) Market(id string) (domain.Market, error) {
	snap := s.snapshot.Load()
	i, ok := snap.byID[id]
	if !ok {
		return domain.Market{}, domain.ErrNotFound
	}
	return snap.Markets[i], nil
}

// Opportunities lists opportunities in detector-then-market order.
func (s *Store) Opportunities(f OpportunityFilter) Page[domain.EdgeOpportunity] {
	snap := s.snapshot.Load()
	return paginate(snap.Opportunities, func(o domain.EdgeOpportunity) bool {
		if f.EdgeType != "" && o.EdgeType != f.EdgeType {
			return false
		}
		if f.RiskLevel != "" && o.RiskLevel != f.RiskLevel {
			return false
		}
		return o.Confidence >= f.MinConfidence
	}, f.Limit, f.Offset)
}

// Predictions lists predictions in market order. MinEdge bounds |edge|.
func (s *Store) Predictions(f PredictionFilter) Page[domain.Prediction] {
	snap := s.snapshot.Load()
	return paginate(snap.Predictions, func(p domain.Prediction) bool {
		if f.Direction != "" && p.Direction != f.Direction {
			return false
		}
		return math.Abs(p.Edge) >= f.MinEdge
	}, f.Limit, f.Offset)
}

// Stats returns the stats of the published snapshot.
func (s *Store) Stats() domain.Stats {
	return s.snapshot.Load().Stats
}
