package market

import (
	"context"
	"time"
)

type TickSource interface {
	GetTick(ctx context.Context, instrument string) (Tick, error)
}

type Tick struct {
	Instrument string
	Time       time.Time
	Bid        float64
	Ask        float64
}

func (t Tick) Mid() float64 {
	return (t.Bid + t.Ask) / 2
}

func (t Tick) Spread() float64 {
	return t.Ask - t.Bid
}
