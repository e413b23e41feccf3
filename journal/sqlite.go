package journal

import (
	"context"
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite is the guaranteed-available local sink. It backs the fallback
// decorator when the remote sheet is unconfigured or unreachable.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) Record(ctx context.Context, rec TradeRecord) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO trades
		(id, time, action, instrument, price, stop_loss, take_profit, units, mode, status, balance, order_id, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Time, string(rec.Action), rec.Instrument, rec.Price,
		rec.StopLoss, rec.TakeProfit, rec.Units, string(rec.Mode),
		string(rec.Status), rec.Balance, rec.OrderID, rec.Detail,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
