package journal

const Schema = `
CREATE TABLE IF NOT EXISTS trades (
	id TEXT PRIMARY KEY,
	time DATETIME NOT NULL,
	action TEXT NOT NULL,
	instrument TEXT NOT NULL,
	price REAL NOT NULL,
	stop_loss REAL NOT NULL,
	take_profit REAL NOT NULL,
	units INTEGER NOT NULL,
	mode TEXT NOT NULL,
	status TEXT NOT NULL,
	balance REAL NOT NULL,
	order_id TEXT NOT NULL,
	detail TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_time ON trades(time);
`
