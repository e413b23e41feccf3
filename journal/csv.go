package journal

import (
	"context"
	"encoding/csv"
	"os"
	"strconv"
	"sync"
	"time"
)

var csvHeader = []string{
	"id", "time", "action", "instrument", "price", "stop_loss",
	"take_profit", "units", "mode", "status", "balance", "order_id", "detail",
}

// CSV appends trade records to a single file, one row per alert.
// Alerts are processed concurrently, so writes are serialized: the
// csv.Writer buffers, and interleaved flushes would mangle rows.
type CSV struct {
	mu sync.Mutex
	w  *csv.Writer
	f  *os.File
}

func NewCSV(path string) (*CSV, error) {
	info, statErr := os.Stat(path)
	empty := statErr != nil || info.Size() == 0

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	w := csv.NewWriter(f)
	if empty {
		if err := w.Write(csvHeader); err != nil {
			f.Close()
			return nil, err
		}
		w.Flush()
		if err := w.Error(); err != nil {
			f.Close()
			return nil, err
		}
	}

	return &CSV{w: w, f: f}, nil
}

func (j *CSV) Record(_ context.Context, rec TradeRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	err := j.w.Write([]string{
		rec.ID,
		rec.Time.UTC().Format(time.RFC3339),
		string(rec.Action),
		rec.Instrument,
		f(rec.Price),
		f(rec.StopLoss),
		f(rec.TakeProfit),
		strconv.Itoa(rec.Units),
		string(rec.Mode),
		string(rec.Status),
		f(rec.Balance),
		rec.OrderID,
		rec.Detail,
	})
	if err != nil {
		return err
	}
	j.w.Flush()
	return j.w.Error()
}

func (j *CSV) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.w.Flush()
	if err := j.w.Error(); err != nil {
		return err
	}
	return j.f.Close()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 5, 64)
}
