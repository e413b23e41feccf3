package journal

import (
	"context"
	"time"

	"tradehook/alert"
)

type Status string

const (
	StatusSuccess  Status = "success"
	StatusRejected Status = "rejected"
	StatusError    Status = "error"
)

// TradeRecord is the immutable audit row for one processed alert,
// created after the broker answered (or failed) and written exactly once.
type TradeRecord struct {
	ID         string
	Time       time.Time
	Action     alert.Action
	Instrument string
	Price      float64
	StopLoss   float64
	TakeProfit float64
	Units      int
	Mode       alert.Mode
	Status     Status
	Balance    float64
	OrderID    string
	Detail     string
}

// Recorder is the audit sink. Implementations must not block the trade
// path beyond a bounded write.
type Recorder interface {
	Record(ctx context.Context, rec TradeRecord) error
	Close() error
}
