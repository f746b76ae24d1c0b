// Package collector persists refresh runs and the current snapshot to SQLite
// and reads them back on boot.
package collector

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"edgefinder/internal/domain"
	"edgefinder/internal/store"
)

// Collector records every refresh run and replaces the persisted snapshot on
// success.
type Collector struct {
	db *sql.DB
}

func NewCollector(db *sql.DB) *Collector {
	return &Collector{db: db}
}

// RefreshCompleted implements store.Observer.
func (c *Collector) RefreshCompleted(ctx context.Context, run store.Run, snap *store.Snapshot) error {
	if err := c.RecordRun(ctx, run); err != nil {
		return err
	}
	if snap == nil {
		return nil
	}
	return c.SaveSnapshot(ctx, snap)
}

// RecordRun appends a run to the run log.
func (c *Collector) RecordRun(ctx context.Context, run store.Run) error {
	var runErr *string
	if run.Error != "" {
		runErr = &run.Error
	}
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO refresh_runs (id, source, status, generation, started_at, finished_at, duration_ms,
			markets, rejected, opportunities, predictions, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			generation = excluded.generation,
			finished_at = excluded.finished_at,
			duration_ms = excluded.duration_ms,
			error = excluded.error`,
		run.ID, run.Source, run.Status, run.Generation,
		formatTime(run.StartedAt), formatTime(run.FinishedAt), run.FinishedAt.Sub(run.StartedAt).Milliseconds(),
		run.Markets, run.Rejected, run.Opportunities, run.Predictions, runErr,
	)
	if err != nil {
		return fmt.Errorf("recording run %s: %w", run.ID, err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (c *Collector) ListRuns(ctx context.Context, limit int) ([]store.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, source, status, generation, started_at, finished_at,
		       markets, rejected, opportunities, predictions, COALESCE(error, '')
		FROM refresh_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	runs := []store.Run{}
	for rows.Next() {
		var (
			r                 store.Run
			started, finished string
		)
		if err := rows.Scan(&r.ID, &r.Source, &r.Status, &r.Generation, &started, &finished,
			&r.Markets, &r.Rejected, &r.Opportunities, &r.Predictions, &r.Error); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.StartedAt = parseTime(started)
		r.FinishedAt = parseTime(finished)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// SaveSnapshot replaces the persisted snapshot in one transaction.
func (c *Collector) SaveSnapshot(ctx context.Context, snap *store.Snapshot) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning snapshot tx: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"snapshot_predictions", "snapshot_opportunities", "snapshot_rejections", "snapshot_markets", "snapshot_meta"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO snapshot_meta (id, generation, run_id, source, updated_at) VALUES (1, ?, ?, ?, ?)`,
		snap.Generation, snap.RunID, snap.Source, formatTime(snap.UpdatedAt)); err != nil {
		return fmt.Errorf("writing snapshot meta: %w", err)
	}
	if err := insertMarkets(ctx, tx, snap.Markets); err != nil {
		return err
	}
	if err := insertOpportunities(ctx, tx, snap.Opportunities); err != nil {
		return err
	}
	if err := insertPredictions(ctx, tx, snap.Predictions); err != nil {
		return err
	}
	if err := insertRejections(ctx, tx, snap.Rejected); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing snapshot: %w", err)
	}
	slog.Info("snapshot persisted",
		"generation", snap.Generation,
		"markets", len(snap.Markets),
		"opportunities", len(snap.Opportunities),
		"predictions", len(snap.Predictions),
	)
	return nil
}

func insertMarkets(ctx context.Context, tx *sql.Tx, markets []domain.Market) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO snapshot_markets (position, id, question, description, category, yes_price, no_price, outcomes,
			volume_24h, liquidity, spread_pct, resolution_date, days_until_resolution, edge_score,
			liquidity_score, efficiency_score, researchability_score, timing_score, url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing market insert: %w", err)
	}
	defer stmt.Close()

	for i, m := range markets {
		var outcomes *string
		if len(m.Outcomes) > 0 {
			data, err := json.Marshal(m.Outcomes)
			if err != nil {
				return fmt.Errorf("encoding outcomes of %s: %w", m.ID, err)
			}
			s := string(data)
			outcomes = &s
		}
		var resolution *string
		if m.ResolutionDate != nil {
			s := formatTime(*m.ResolutionDate)
			resolution = &s
		}
		if _, err := stmt.ExecContext(ctx, i, m.ID, m.Question, m.Description, string(m.Category),
			m.YesPrice, m.NoPrice, outcomes, m.Volume24h, m.Liquidity, m.SpreadPct,
			resolution, m.DaysUntilResolution, m.EdgeScore,
			m.LiquidityScore, m.EfficiencyScore, m.ResearchabilityScore, m.TimingScore, m.URL); err != nil {
			return fmt.Errorf("inserting market %s: %w", m.ID, err)
		}
	}
	return nil
}

func insertOpportunities(ctx context.Context, tx *sql.Tx, opps []domain.EdgeOpportunity) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO snapshot_opportunities (position, id, market_id, market_question, edge_type, description,
			confidence, expected_return, risk_level, suggested_action, reasoning, detected_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing opportunity insert: %w", err)
	}
	defer stmt.Close()

	for i, o := range opps {
		if _, err := stmt.ExecContext(ctx, i, o.ID, o.MarketID, o.MarketQuestion, string(o.EdgeType), o.Description,
			o.Confidence, o.ExpectedReturn, string(o.RiskLevel), o.SuggestedAction, o.Reasoning,
			formatTime(o.DetectedAt)); err != nil {
			return fmt.Errorf("inserting opportunity %s: %w", o.ID, err)
		}
	}
	return nil
}

func insertPredictions(ctx context.Context, tx *sql.Tx, preds []domain.Prediction) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO snapshot_predictions (position, market_id, market_question, agent_name, direction, strength,
			current_price, predicted_probability, confidence, confidence_low, confidence_high, edge,
			reasoning, key_risks, catalysts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing prediction insert: %w", err)
	}
	defer stmt.Close()

	for i, p := range preds {
		risks, err := json.Marshal(nonNil(p.KeyRisks))
		if err != nil {
			return fmt.Errorf("encoding risks of %s: %w", p.MarketID, err)
		}
		catalysts, err := json.Marshal(nonNil(p.Catalysts))
		if err != nil {
			return fmt.Errorf("encoding catalysts of %s: %w", p.MarketID, err)
		}
		if _, err := stmt.ExecContext(ctx, i, p.MarketID, p.MarketQuestion, p.AgentName, string(p.Direction),
			string(p.Strength), p.CurrentPrice, p.PredictedProbability, p.Confidence, p.ConfidenceLow,
			p.ConfidenceHigh, p.Edge, p.Reasoning, string(risks), string(catalysts)); err != nil {
			return fmt.Errorf("inserting prediction %s: %w", p.MarketID, err)
		}
	}
	return nil
}

func insertRejections(ctx context.Context, tx *sql.Tx, rejected []domain.Rejection) error {
	for i, r := range rejected {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO snapshot_rejections (position, market_id, reason) VALUES (?, ?, ?)`,
			i, r.MarketID, r.Reason); err != nil {
			return fmt.Errorf("inserting rejection %s: %w", r.MarketID, err)
		}
	}
	return nil
}

// LoadLatest reads the persisted snapshot. It returns nil with no error when
// nothing has been saved yet.
func (c *Collector) LoadLatest(ctx context.Context) (*store.Snapshot, error) {
	snap := &store.Snapshot{}
	var updated string
	err := c.db.QueryRowContext(ctx, `SELECT generation, run_id, source, updated_at FROM snapshot_meta WHERE id = 1`).
		Scan(&snap.Generation, &snap.RunID, &snap.Source, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading snapshot meta: %w", err)
	}
	snap.UpdatedAt = parseTime(updated)

	if snap.Markets, err = c.loadMarkets(ctx); err != nil {
		return nil, err
	}
	if snap.Opportunities, err = c.loadOpportunities(ctx); err != nil {
		return nil, err
	}
	if snap.Predictions, err = c.loadPredictions(ctx); err != nil {
		return nil, err
	}
	if snap.Rejected, err = c.loadRejections(ctx); err != nil {
		return nil, err
	}
	return snap, nil
}

func (c *Collector) loadMarkets(ctx context.Context) ([]domain.Market, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, question, description, category, yes_price, no_price, outcomes, volume_24h, liquidity,
		       spread_pct, resolution_date, days_until_resolution, edge_score,
		       liquidity_score, efficiency_score, researchability_score, timing_score, url
		FROM snapshot_markets ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("loading markets: %w", err)
	}
	defer rows.Close()

	markets := []domain.Market{}
	for rows.Next() {
		var (
			m          domain.Market
			category   string
			outcomes   sql.NullString
			resolution sql.NullString
			days       sql.NullInt64
		)
		if err := rows.Scan(&m.ID, &m.Question, &m.Description, &category, &m.YesPrice, &m.NoPrice, &outcomes,
			&m.Volume24h, &m.Liquidity, &m.SpreadPct, &resolution, &days, &m.EdgeScore,
			&m.LiquidityScore, &m.EfficiencyScore, &m.ResearchabilityScore, &m.TimingScore, &m.URL); err != nil {
			return nil, fmt.Errorf("scanning market: %w", err)
		}
		m.Category = domain.ParseCategory(category)
		if outcomes.Valid {
			if err := json.Unmarshal([]byte(outcomes.String), &m.Outcomes); err != nil {
				return nil, fmt.Errorf("decoding outcomes of %s: %w", m.ID, err)
			}
		}
		if resolution.Valid {
			t := parseTime(resolution.String)
			m.ResolutionDate = &t
		}
		if days.Valid {
			d := int(days.Int64)
			m.DaysUntilResolution = &d
		}
		markets = append(markets, m)
	}
	return markets, rows.Err()
}

func (c *Collector) loadOpportunities(ctx context.Context) ([]domain.EdgeOpportunity, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, market_id, market_question, edge_type, description, confidence, expected_return,
		       risk_level, suggested_action, reasoning, detected_at
		FROM snapshot_opportunities ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("loading opportunities: %w", err)
	}
	defer rows.Close()

	opps := []domain.EdgeOpportunity{}
	for rows.Next() {
		var (
			o                      domain.EdgeOpportunity
			edgeType, risk, detect string
		)
		if err := rows.Scan(&o.ID, &o.MarketID, &o.MarketQuestion, &edgeType, &o.Description, &o.Confidence,
			&o.ExpectedReturn, &risk, &o.SuggestedAction, &o.Reasoning, &detect); err != nil {
			return nil, fmt.Errorf("scanning opportunity: %w", err)
		}
		o.EdgeType = domain.EdgeType(edgeType)
		o.RiskLevel = domain.RiskLevel(risk)
		o.DetectedAt = parseTime(detect)
		opps = append(opps, o)
	}
	return opps, rows.Err()
}

func (c *Collector) loadPredictions(ctx context.Context) ([]domain.Prediction, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT market_id, market_question, agent_name, direction, strength, current_price,
		       predicted_probability, confidence, confidence_low, confidence_high, edge,
		       reasoning, key_risks, catalysts
		FROM snapshot_predictions ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("loading predictions: %w", err)
	}
	defer rows.Close()

	preds := []domain.Prediction{}
	for rows.Next() {
		var (
			p                   domain.Prediction
			direction, strength string
			risks, catalysts    string
		)
		if err := rows.Scan(&p.MarketID, &p.MarketQuestion, &p.AgentName, &direction, &strength,
			&p.CurrentPrice, &p.PredictedProbability, &p.Confidence, &p.ConfidenceLow, &p.ConfidenceHigh,
			&p.Edge, &p.Reasoning, &risks, &catalysts); err != nil {
			return nil, fmt.Errorf("scanning prediction: %w", err)
		}
		p.Direction = domain.Direction(direction)
		p.Strength = domain.Strength(strength)
		if err := json.Unmarshal([]byte(risks), &p.KeyRisks); err != nil {
			return nil, fmt.Errorf("decoding risks of %s: %w", p.MarketID, err)
		}
		if err := json.Unmarshal([]byte(catalysts), &p.Catalysts); err != nil {
			return nil, fmt.Errorf("decoding catalysts of %s: %w", p.MarketID, err)
		}
		preds = append(preds, p)
	}
	return preds, rows.Err()
}

func (c *Collector) loadRejections(ctx context.Context) ([]domain.Rejection, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT market_id, reason FROM snapshot_rejections ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("loading rejections: %w", err)
	}
	defer rows.Close()

	out := []domain.Rejection{}
	for rows.Next() {
		var r domain.Rejection
		if err := rows.Scan(&r.MarketID, &r.Reason); err != nil {
			return nil, fmt.Errorf("scanning rejection: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
