package intent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tradehook/alert"
	"tradehook/market"
	"tradehook/risk"
)

// EntryTTL bounds how long an unfilled entry order stays working before
// the broker cancels it, bracket orders included.
const EntryTTL = 15 * time.Minute

var (
	// ErrInvalidBracket means the stop/entry/take-profit prices are not
	// ordered for the requested direction. Raised before any gateway call.
	ErrInvalidBracket = errors.New("invalid bracket ordering")

	// ErrAccountUnavailable means the balance fetch failed, so sizing is
	// impossible and no order is built.
	ErrAccountUnavailable = errors.New("account unavailable")
)

// AccountSource is the slice of the broker gateway the builder needs:
// fresh equity for sizing and live pricing for currency conversion.
type AccountSource interface {
	GetBalance(ctx context.Context, mode alert.Mode) (float64, error)
	GetTick(ctx context.Context, mode alert.Mode, instrument string) (market.Tick, error)
}

// Builder translates validated alerts into order intents. It holds no
// state across calls: each alert yields at most one intent, exactly once.
type Builder struct {
	acct            AccountSource
	accountCurrency string
	riskFraction    float64
}

func NewBuilder(acct AccountSource, accountCurrency string, riskFraction float64) *Builder {
	if riskFraction <= 0 {
		riskFraction = risk.DefaultFraction
	}
	return &Builder{acct: acct, accountCurrency: accountCurrency, riskFraction: riskFraction}
}

// Build runs the action state machine. Exits are immediate; entries
// validate the bracket, fetch equity, size the position, and stamp the
// good-til time at now + EntryTTL.
func (b *Builder) Build(ctx context.Context, a alert.Alert, now time.Time) (Intent, error) {
	switch a.Action {
	case alert.CloseLong:
		return Intent{Kind: ExitLong, Instrument: a.Instrument, Mode: a.Mode}, nil
	case alert.CloseShort:
		return Intent{Kind: ExitShort, Instrument: a.Instrument, Mode: a.Mode}, nil
	case alert.OpenLong:
		return b.buildEntry(ctx, a, now, EntryLong)
	case alert.OpenShort:
		return b.buildEntry(ctx, a, now, EntryShort)
	default:
		return Intent{}, fmt.Errorf("%w: action %q", alert.ErrInvalidAlert, a.Action)
	}
}

func (b *Builder) buildEntry(ctx context.Context, a alert.Alert, now time.Time, kind Kind) (Intent, error) {
	if err := checkBracket(a, kind); err != nil {
		return Intent{}, err
	}

	balance, err := b.acct.GetBalance(ctx, a.Mode)
	if err != nil {
		return Intent{}, fmt.Errorf("%w: %v", ErrAccountUnavailable, err)
	}

	rate, err := market.QuoteToAccountRate(ctx, a.Instrument, b.accountCurrency, modeTicks{b.acct, a.Mode})
	if err != nil {
		return Intent{}, fmt.Errorf("%w: %v", risk.ErrConversionUnavailable, err)
	}

	units, err := risk.Size(balance, a.Price, a.StopLossPrice, b.riskFraction, rate)
	if err != nil {
		return Intent{}, err
	}
	if kind == EntryShort {
		units = -units
	}

	return Intent{
		Kind:            kind,
		Instrument:      a.Instrument,
		Mode:            a.Mode,
		LimitPrice:      a.Price,
		StopLossPrice:   a.StopLossPrice,
		TakeProfitPrice: a.TakeProfitPrice,
		Units:           units,
		GoodTilTime:     now.UTC().Add(EntryTTL),
		Balance:         balance,
	}, nil
}

// checkBracket enforces stop < entry < take-profit for longs and the
// reverse for shorts.
func checkBracket(a alert.Alert, kind Kind) error {
	long := kind == EntryLong
	if long && (a.StopLossPrice >= a.Price || a.Price >= a.TakeProfitPrice) {
		return fmt.Errorf("%w: long wants stop %v < entry %v < take profit %v",
			ErrInvalidBracket, a.StopLossPrice, a.Price, a.TakeProfitPrice)
	}
	if !long && (a.TakeProfitPrice >= a.Price || a.Price >= a.StopLossPrice) {
		return fmt.Errorf("%w: short wants take profit %v < entry %v < stop %v",
			ErrInvalidBracket, a.TakeProfitPrice, a.Price, a.StopLossPrice)
	}
	return nil
}

// modeTicks adapts the gateway's mode-keyed pricing to market.TickSource
// for conversion-rate lookups.
type modeTicks struct {
	src  AccountSource
	mode alert.Mode
}

func (m modeTicks) GetTick(ctx context.Context, instrument string) (market.Tick, error) {
	return m.src.GetTick(ctx, m.mode, instrument)
}
