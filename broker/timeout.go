package broker

import (
	"context"
	"time"

	"tradehook/alert"
	"tradehook/intent"
	"tradehook/market"
)

// WithCallTimeout bounds every gateway call with its own deadline. A
// slow balance fetch then eats only its own budget, not the budget of
// the pricing lookup or the submission that follow.
func WithCallTimeout(g Gateway, d time.Duration) Gateway {
	return &callTimeout{g: g, d: d}
}

type callTimeout struct {
	g Gateway
	d time.Duration
}

func (t *callTimeout) GetBalance(ctx context.Context, mode alert.Mode) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.g.GetBalance(ctx, mode)
}

func (t *callTimeout) GetTick(ctx context.Context, mode alert.Mode, instrument string) (market.Tick, error) {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.g.GetTick(ctx, mode, instrument)
}

func (t *callTimeout) Submit(ctx context.Context, it intent.Intent) (Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.g.Submit(ctx, it)
}
