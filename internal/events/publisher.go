package events

import (
	"cmp"
	"context"
	"slices"
	"time"

	"edgefinder/internal/domain"
	"edgefinder/internal/store"
)

// Publisher is the write side of a message broker.
type Publisher interface {
	Publish(ctx context.Context, topic string, key []byte, value any) error
}

// topOpportunities caps the opportunities carried by one event.
const topOpportunities = 5

// RefreshEvent is emitted once per finished refresh.
type RefreshEvent struct {
	Type             string                   `json:"type"`
	RunID            string                   `json:"run_id"`
	Source           string                   `json:"source"`
	Status           string                   `json:"status"`
	Generation       uint64                   `json:"generation"`
	StartedAt        time.Time                `json:"started_at"`
	FinishedAt       time.Time                `json:"finished_at"`
	Markets          int                      `json:"markets"`
	Rejected         int                      `json:"rejected"`
	Opportunities    int                      `json:"opportunities"`
	Predictions      int                      `json:"predictions"`
	HighConfidence   int                      `json:"high_confidence_opportunities"`
	Error            string                   `json:"error,omitempty"`
	TopOpportunities []domain.EdgeOpportunity `json:"top_opportunities,omitempty"`
}

const (
	EventRefreshSucceeded = "refresh.succeeded"
	EventRefreshFailed    = "refresh.failed"
)

// RefreshPublisher turns refresh completions into RefreshEvents. It
// satisfies store.Observer.
type RefreshPublisher struct {
	pub   Publisher
	topic string
}

func NewRefreshPublisher(pub Publisher, topic string) *RefreshPublisher {
	return &RefreshPublisher{pub: pub, topic: topic}
}

func (p *RefreshPublisher) RefreshCompleted(ctx context.Context, run store.Run, snap *store.Snapshot) error {
	return p.pub.Publish(ctx, p.topic, []byte(run.Source), NewRefreshEvent(run, snap))
}

// NewRefreshEvent builds the event for run. The highest-confidence
// opportunities are attached, ties kept in detection order.
func NewRefreshEvent(run store.Run, snap *store.Snapshot) RefreshEvent {
	ev := RefreshEvent{
		Type:          EventRefreshSucceeded,
		RunID:         run.ID,
		Source:        run.Source,
		Status:        run.Status,
		Generation:    run.Generation,
		StartedAt:     run.StartedAt,
		FinishedAt:    run.FinishedAt,
		Markets:       run.Markets,
		Rejected:      run.Rejected,
		Opportunities: run.Opportunities,
		Predictions:   run.Predictions,
		Error:         run.Error,
	}
	if run.Status == store.RunFailed || snap == nil {
		ev.Type = EventRefreshFailed
		return ev
	}

	ev.HighConfidence = snap.Stats.HighConfidenceOpportunities
	top := slices.Clone(snap.Opportunities)
	slices.SortStableFunc(top, func(a, b domain.EdgeOpportunity) int {
		return cmp.Compare(b.Confidence, a.Confidence)
	})
	if len(top) > topOpportunities {
		top = top[:topOpportunities]
	}
	ev.TopOpportunities = top
	return ev
}

// Compile-time interface checks.
var (
	_ store.Observer = (*RefreshPublisher)(nil)
	_ Publisher      = (*Producer)(nil)
)
