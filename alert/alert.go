package alert

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"tradehook/market"
)

// ErrInvalidAlert covers every malformed-input case: unknown action, bad
// ticker, missing bracket prices. Invalid alerts are rejected before any
// network call is made.
var ErrInvalidAlert = errors.New("invalid alert")

type Action string

const (
	OpenLong   Action = "open_long"
	CloseLong  Action = "close_long"
	OpenShort  Action = "open_short"
	CloseShort Action = "close_short"
)

// IsOpen reports whether the action opens a new position, which is what
// decides whether a reference price and bracket are required.
func (a Action) IsOpen() bool {
	return a == OpenLong || a == OpenShort
}

type Mode string

const (
	Practice Mode = "practice"
	Live     Mode = "live"
)

// Number accepts both quoted and bare JSON numbers, since alerting
// platforms are inconsistent about which they send.
type Number float64

func (n *Number) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid number %q", s)
	}
	*n = Number(v)
	return nil
}

// Payload is the raw webhook body. Field names match what the alerting
// platform sends. Units is accepted on the wire but never read: sizing is
// always computed server-side from account equity and stop distance.
type Payload struct {
	Action          string `json:"action"`
	Ticker          string `json:"ticker"`
	Price           Number `json:"price"`
	StopLossPrice   Number `json:"stop_loss_price"`
	TakeProfitPrice Number `json:"take_profit_price"`
	TradingType     string `json:"trading_type"`
	Units           Number `json:"units"`
}

// Alert is the validated, strongly-typed form the engine works with.
// Price fields are meaningful only for open actions.
type Alert struct {
	Action          Action
	Instrument      string
	Price           float64
	StopLossPrice   float64
	TakeProfitPrice float64
	Mode            Mode
}

// Parse validates a raw payload into an Alert. All failures wrap
// ErrInvalidAlert.
func Parse(p Payload) (Alert, error) {
	var a Alert

	switch Action(p.Action) {
	case OpenLong, CloseLong, OpenShort, CloseShort:
		a.Action = Action(p.Action)
	default:
		return Alert{}, fmt.Errorf("%w: unknown action %q", ErrInvalidAlert, p.Action)
	}

	instrument, err := market.NormalizeTicker(p.Ticker)
	if err != nil {
		return Alert{}, fmt.Errorf("%w: %v", ErrInvalidAlert, err)
	}
	a.Instrument = instrument

	switch p.TradingType {
	case "", string(Practice):
		a.Mode = Practice
	case string(Live):
		a.Mode = Live
	default:
		return Alert{}, fmt.Errorf("%w: unknown trading_type %q", ErrInvalidAlert, p.TradingType)
	}

	if a.Action.IsOpen() {
		if p.Price <= 0 {
			return Alert{}, fmt.Errorf("%w: price is required to open a position", ErrInvalidAlert)
		}
		if p.StopLossPrice <= 0 {
			return Alert{}, fmt.Errorf("%w: stop_loss_price is required to open a position", ErrInvalidAlert)
		}
		if p.TakeProfitPrice <= 0 {
			return Alert{}, fmt.Errorf("%w: take_profit_price is required to open a position", ErrInvalidAlert)
		}
		a.Price = float64(p.Price)
		a.StopLossPrice = float64(p.StopLossPrice)
		a.TakeProfitPrice = float64(p.TakeProfitPrice)
	}

	return a, nil
}
