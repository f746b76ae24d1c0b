package db

// SchemaVersion is recorded in schema_version by Migrate.
const SchemaVersion = 1

// The snapshot_* tables hold only the current generation; each refresh
// replaces them in one transaction.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS refresh_runs (
    id TEXT PRIMARY KEY,
    source TEXT NOT NULL,
    status TEXT NOT NULL,
    generation INTEGER NOT NULL DEFAULT 0,
    started_at TEXT NOT NULL,
    finished_at TEXT NOT NULL,
    duration_ms INTEGER NOT NULL,
    markets INTEGER NOT NULL DEFAULT 0,
    rejected INTEGER NOT NULL DEFAULT 0,
    opportunities INTEGER NOT NULL DEFAULT 0,
    predictions INTEGER NOT NULL DEFAULT 0,
    error TEXT
);
CREATE INDEX IF NOT EXISTS idx_runs_started ON refresh_runs(started_at);
CREATE INDEX IF NOT EXISTS idx_runs_status ON refresh_runs(status);

CREATE TABLE IF NOT EXISTS snapshot_meta (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    generation INTEGER NOT NULL,
    run_id TEXT NOT NULL,
    source TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS snapshot_markets (
    position INTEGER PRIMARY KEY,
    id TEXT NOT NULL UNIQUE,
    question TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    category TEXT NOT NULL,
    yes_price REAL NOT NULL,
    no_price REAL NOT NULL,
    outcomes TEXT,
    volume_24h REAL NOT NULL,
    liquidity REAL NOT NULL,
    spread_pct REAL NOT NULL,
    resolution_date TEXT,
    days_until_resolution INTEGER,
    edge_score REAL NOT NULL,
    liquidity_score REAL NOT NULL DEFAULT 0,
    efficiency_score REAL NOT NULL DEFAULT 0,
    researchability_score REAL NOT NULL DEFAULT 0,
    timing_score REAL NOT NULL DEFAULT 0,
    url TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS snapshot_opportunities (
    position INTEGER PRIMARY KEY,
    id TEXT NOT NULL UNIQUE,
    market_id TEXT NOT NULL REFERENCES snapshot_markets(id) ON DELETE CASCADE,
    market_question TEXT NOT NULL,
    edge_type TEXT NOT NULL,
    description TEXT NOT NULL,
    confidence INTEGER NOT NULL,
    expected_return REAL NOT NULL,
    risk_level TEXT NOT NULL,
    suggested_action TEXT NOT NULL,
    reasoning TEXT NOT NULL,
    detected_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_opps_type ON snapshot_opportunities(edge_type);

CREATE TABLE IF NOT EXISTS snapshot_predictions (
    position INTEGER PRIMARY KEY,
    market_id TEXT NOT NULL UNIQUE REFERENCES snapshot_markets(id) ON DELETE CASCADE,
    market_question TEXT NOT NULL,
    agent_name TEXT NOT NULL,
    direction TEXT NOT NULL,
    strength TEXT NOT NULL,
    current_price REAL NOT NULL,
    predicted_probability REAL NOT NULL,
    confidence INTEGER NOT NULL,
    confidence_low REAL NOT NULL,
    confidence_high REAL NOT NULL,
    edge REAL NOT NULL,
    reasoning TEXT NOT NULL,
    key_risks TEXT NOT NULL,
    catalysts TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS snapshot_rejections (
    position INTEGER PRIMARY KEY,
    market_id TEXT NOT NULL,
    reason TEXT NOT NULL
);
`
