// Package performance summarizes the refresh run log.
package performance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"edgefinder/internal/store"
)

// Tracker computes refresh metrics from the database.
type Tracker struct {
	db *sql.DB
}

func NewTracker(db *sql.DB) *Tracker {
	return &Tracker{db: db}
}

// Report contains refresh health metrics.
type Report struct {
	TotalRuns   int                    `json:"total_runs"`
	Succeeded   int                    `json:"succeeded"`
	Failed      int                    `json:"failed"`
	SuccessRate float64                `json:"success_rate"`
	AvgDuration time.Duration          `json:"avg_duration_ns"`
	LastSuccess *time.Time             `json:"last_success,omitempty"`
	LastFailure *time.Time             `json:"last_failure,omitempty"`
	LastError   string                 `json:"last_error,omitempty"`
	SourceStats map[string]SourceStats `json:"sources"`
}

// SourceStats contains per-source refresh counts.
type SourceStats struct {
	Runs             int     `json:"runs"`
	Succeeded        int     `json:"succeeded"`
	AvgMarkets       float64 `json:"avg_markets"`
	AvgOpportunities float64 `json:"avg_opportunities"`
}

// Generate computes the full report.
func (t *Tracker) Generate(ctx context.Context) (*Report, error) {
	r := &Report{
		SourceStats: make(map[string]SourceStats),
	}

	if err := t.computeOverall(ctx, r); err != nil {
		return nil, fmt.Errorf("computing overall stats: %w", err)
	}
	if err := t.computeLatest(ctx, r); err != nil {
		return nil, fmt.Errorf("computing latest runs: %w", err)
	}
	if err := t.computeSourceStats(ctx, r); err != nil {
		return nil, fmt.Errorf("computing source stats: %w", err)
	}

	return r, nil
}

func (t *Tracker) computeOverall(ctx context.Context, r *Report) error {
	row := t.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
		       COALESCE(AVG(duration_ms), 0)
		FROM refresh_runs`, store.RunSucceeded)
	var avgMillis float64
	if err := row.Scan(&r.TotalRuns, &r.Succeeded, &avgMillis); err != nil {
		return err
	}
	r.Failed = r.TotalRuns - r.Succeeded
	r.AvgDuration = time.Duration(avgMillis * float64(time.Millisecond))
	if r.TotalRuns > 0 {
		r.SuccessRate = float64(r.Succeeded) / float64(r.TotalRuns)
	}
	return nil
}

func (t *Tracker) computeLatest(ctx context.Context, r *Report) error {
	var finished string
	err := t.db.QueryRowContext(ctx, `
		SELECT finished_at FROM refresh_runs WHERE status = ? ORDER BY finished_at DESC LIMIT 1`,
		store.RunSucceeded).Scan(&finished)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return err
	default:
		r.LastSuccess = parseTime(finished)
	}

	var lastErr string
	err = t.db.QueryRowContext(ctx, `
		SELECT finished_at, COALESCE(error, '') FROM refresh_runs WHERE status = ? ORDER BY finished_at DESC LIMIT 1`,
		store.RunFailed).Scan(&finished, &lastErr)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return err
	default:
		r.LastFailure = parseTime(finished)
		r.LastError = lastErr
	}
	return nil
}

func (t *Tracker) computeSourceStats(ctx context.Context, r *Report) error {
	rows, err := t.db.QueryContext(ctx, `
		SELECT source, COUNT(*),
		       COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
		       COALESCE(AVG(CASE WHEN status = ? THEN markets END), 0),
		       COALESCE(AVG(CASE WHEN status = ? THEN opportunities END), 0)
		FROM refresh_runs GROUP BY source`, store.RunSucceeded, store.RunSucceeded, store.RunSucceeded)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var stats SourceStats
		if err := rows.Scan(&name, &stats.Runs, &stats.Succeeded, &stats.AvgMarkets, &stats.AvgOpportunities); err != nil {
			return err
		}
		r.SourceStats[name] = stats
	}
	return rows.Err()
}

func parseTime(s string) *time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil
	}
	return &t
}
