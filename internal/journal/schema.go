package journal

// Schema creates the run and trade tables on first open
const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	created_at DATETIME NOT NULL,
	start_date DATETIME NOT NULL,
	end_date DATETIME NOT NULL,
	buy_fear_greed_max REAL NOT NULL,
	buy_vix_min REAL NOT NULL,
	sell_fear_greed_min REAL NOT NULL,
	sell_vix_max REAL NOT NULL,
	initial_capital REAL NOT NULL,
	final_position TEXT NOT NULL,
	total_return REAL NOT NULL,
	cagr REAL NOT NULL,
	annualized_vol REAL NOT NULL,
	sharpe_ratio REAL NOT NULL,
	max_drawdown REAL NOT NULL,
	trade_count INTEGER NOT NULL,
	win_rate REAL NOT NULL,
	avg_holding_days REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS trades (
	run_id TEXT NOT NULL,
	entry_date DATETIME NOT NULL,
	entry_price REAL NOT NULL,
	exit_date DATETIME NOT NULL,
	exit_price REAL NOT NULL,
	holding_days INTEGER NOT NULL,
	pnl_pct REAL NOT NULL,
	unrealized INTEGER NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);

CREATE INDEX IF NOT EXISTS idx_trades_run ON trades(run_id);
CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
`
