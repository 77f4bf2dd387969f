// journal/schema.go
package journal

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS trades (
	instrument TEXT NOT NULL,
	date TEXT NOT NULL,
	type TEXT NOT NULL,
	entry REAL NOT NULL,
	exit REAL NOT NULL,
	close REAL NOT NULL,
	exit_reason TEXT NOT NULL,
	pnl REAL NOT NULL,
	win_rate TEXT NOT NULL,
	result TEXT NOT NULL,
	PRIMARY KEY (instrument, date)
);

CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	created DATETIME NOT NULL,
	instrument TEXT NOT NULL,
	strategy TEXT NOT NULL,
	policy TEXT NOT NULL,
	start_time DATETIME,
	end_time DATETIME,
	sessions INTEGER NOT NULL,
	evaluated INTEGER NOT NULL,
	new_trades INTEGER NOT NULL,
	trades INTEGER NOT NULL,
	wins INTEGER NOT NULL,
	losses INTEGER NOT NULL,
	win_rate REAL NOT NULL,
	total_pnl REAL NOT NULL,
	max_drawdown REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created);
`
