package performance

import (
	"log/slog"
)

// LogReport logs the refresh report as structured JSON.
func LogReport(r *Report) {
	attrs := []any{
		"total_runs", r.TotalRuns,
		"succeeded", r.Succeeded,
		"failed", r.Failed,
		"success_rate", r.SuccessRate,
		"avg_duration", r.AvgDuration,
	}
	if r.LastSuccess != nil {
		attrs = append(attrs, "last_success", *r.LastSuccess)
	}
	if r.LastFailure != nil {
		attrs = append(attrs, "last_failure", *r.LastFailure, "last_error", r.LastError)
	}
	slog.Info("=== REFRESH REPORT ===", attrs...)

	for name, stats := range r.SourceStats {
		slog.Info("source performance",
			"source", name,
			"runs", stats.Runs,
			"succeeded", stats.Succeeded,
			"avg_markets", stats.AvgMarkets,
			"avg_opportunities", stats.AvgOpportunities,
		)
	}
}
