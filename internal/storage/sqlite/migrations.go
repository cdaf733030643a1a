package sqlite

// Schema defines the SQLite database schema
const Schema = `
-- One row per completed analysis run
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	created_at TIMESTAMP NOT NULL,
	account_host TEXT NOT NULL,
	lookback_days INTEGER NOT NULL,
	queries_analyzed INTEGER NOT NULL,
	warehouses_analyzed INTEGER NOT NULL,
	tables_scanned INTEGER NOT NULL,
	total_savings_usd REAL NOT NULL,
	overall_quality_score INTEGER NOT NULL,
	report_json TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_runs_account ON runs(account_host);
`
