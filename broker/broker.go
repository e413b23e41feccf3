package broker

import (
	"context"
	"errors"

	"tradehook/alert"
	"tradehook/intent"
	"tradehook/market"
)

var (
	// ErrUnavailable means the broker could not be reached or timed out.
	// Nothing was provably submitted.
	ErrUnavailable = errors.New("broker unavailable")

	// ErrRejected means the broker explicitly refused the order (market
	// closed, no position to close, invalid instrument).
	ErrRejected = errors.New("broker rejected order")
)

// Receipt identifies what the broker accepted.
type Receipt struct {
	OrderID string
}

// Gateway is the remote trading account. Every call is potentially slow
// and fallible; callers submit at most once per alert and never retry.
type Gateway interface {
	GetBalance(ctx context.Context, mode alert.Mode) (float64, error)
	GetTick(ctx context.Context, mode alert.Mode, instrument string) (market.Tick, error)
	Submit(ctx context.Context, it intent.Intent) (Receipt, error)
}
