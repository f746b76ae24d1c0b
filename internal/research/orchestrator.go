package research

import (
	"context"
	"log/slog"

	"edgefinder/internal/config"
	"edgefinder/internal/domain"
)

// Orchestrator selects one agent per market: the first registered agent that
// can analyze it, else the fallback. The registry is fixed at construction.
type Orchestrator struct {
	agents   []Agent
	fallback Agent
}

// NewOrchestrator copies the registry. A nil fallback is replaced by the
// general agent with default settings.
func NewOrchestrator(agents []Agent, fallback Agent) *Orchestrator {
	if fallback == nil {
		cfg := config.DefaultConfig().Research
		fallback = NewKeywordAgent(GeneralProfile(), cfg)
	}
	return &Orchestrator{
		agents:   append([]Agent(nil), agents...),
		fallback: fallback,
	}
}

// Select returns the agent responsible for m.
func (o *Orchestrator) Select(m domain.Market) Agent {
	for _, a := range o.agents {
		if a.CanAnalyze(m) {
			return a
		}
	}
	return o.fallback
}

// Predict returns exactly one prediction per market, in market order.
func (o *Orchestrator) Predict(ctx context.Context, markets []domain.Market) ([]domain.Prediction, error) {
	predictions := make([]domain.Prediction, 0, len(markets))
	byAgent := make(map[string]int)

	for _, m := range markets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		agent := o.Select(m)
		predictions = append(predictions, agent.Analyze(m))
		byAgent[agent.Name()]++
	}

	slog.Info("predictions generated", "markets", len(markets), "by_agent", byAgent)
	return predictions, nil
}
