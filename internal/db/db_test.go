package db

import (
	"path/filepath"
	"testing"
)

func TestMigrate_CreatesAllTables(t *testing.T) {
	database, err := Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer database.Close()

	if err := Migrate(database); err != nil {
		t.Fatal(err)
	}

	tables := []string{
		"schema_version",
		"refresh_runs",
		"snapshot_meta",
		"snapshot_markets",
		"snapshot_opportunities",
		"snapshot_predictions",
		"snapshot_rejections",
	}

	for _, table := range tables {
		row := database.QueryRow(
			`SELECT count(*) FROM sqlite_master WHERE type='table' AND name=?`, table)
		var count int
		if err := row.Scan(&count); err != nil {
			t.Fatalf("checking table %s: %v", table, err)
		}
		if count != 1 {
			t.Errorf("table %s not found", table)
		}
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	database, err := Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer database.Close()

	if err := Migrate(database); err != nil {
		t.Fatal(err)
	}
	if err := Migrate(database); err != nil {
		t.Fatal(err)
	}

	var versions int
	if err := database.QueryRow(`SELECT COUNT(*) FROM schema_version`).Scan(&versions); err != nil {
		t.Fatal(err)
	}
	if versions != 1 {
		t.Errorf("expected 1 schema version row, got %d", versions)
	}
}

func TestMigrate_CascadesSnapshotRows(t *testing.T) {
	database, err := Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer database.Close()

	if err := Migrate(database); err != nil {
		t.Fatal(err)
	}

	_, err = database.Exec(`
		INSERT INTO snapshot_markets (position, id, question, category, yes_price, no_price, volume_24h, liquidity, spread_pct, edge_score)
		VALUES (0, 'm1', 'Test?', 'crypto', 0.4, 0.6, 1000, 5000, 2, 60)`)
	if err != nil {
		t.Fatal(err)
	}
	_, err = database.Exec(`
		INSERT INTO snapshot_predictions (position, market_id, market_question, agent_name, direction, strength,
			current_price, predicted_probability, confidence, confidence_low, confidence_high, edge, reasoning, key_risks, catalysts)
		VALUES (0, 'm1', 'Test?', 'CryptoAgent', 'hold', 'weak', 0.4, 0.4, 35, 0.15, 0.65, 0, '', '[]', '[]')`)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := database.Exec(`DELETE FROM snapshot_markets`); err != nil {
		t.Fatal(err)
	}
	var count int
	if err := database.QueryRow(`SELECT COUNT(*) FROM snapshot_predictions`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("expected predictions to cascade, got %d rows", count)
	}
}

func TestOpen_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "edgefinder.db")
	database, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer database.Close()

	if err := Migrate(database); err != nil {
		t.Fatal(err)
	}
}

func TestOpen_AppliesPragmas(t *testing.T) {
	database, err := Open(filepath.Join(t.TempDir(), "edgefinder.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer database.Close()

	var mode string
	if err := database.QueryRow(`PRAGMA journal_mode`).Scan(&mode); err != nil {
		t.Fatal(err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}

	var fk, busy int
	if err := database.QueryRow(`PRAGMA foreign_keys`).Scan(&fk); err != nil {
		t.Fatal(err)
	}
	if err := database.QueryRow(`PRAGMA busy_timeout`).Scan(&busy); err != nil {
		t.Fatal(err)
	}
	if fk != 1 || busy != 5000 {
		t.Errorf("foreign_keys=%d busy_timeout=%d, want 1 and 5000", fk, busy)
	}
}
