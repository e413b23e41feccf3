package intent

import (
	"time"

	"tradehook/alert"
)

type Kind string

const (
	EntryLong  Kind = "entry_long"
	EntryShort Kind = "entry_short"
	ExitLong   Kind = "exit_long"
	ExitShort  Kind = "exit_short"
)

func (k Kind) IsEntry() bool {
	return k == EntryLong || k == EntryShort
}

// Intent is a fully specified order request, alive only for the duration
// of one alert. Entry intents are limit orders bounded by price and time,
// with the stop-loss and take-profit attached so they trigger or cancel
// together with the parent fill. Exit intents carry instrument and side
// only: they close every open position on that side.
type Intent struct {
	Kind       Kind
	Instrument string
	Mode       alert.Mode

	// Entry fields. Units is signed: positive long, negative short.
	LimitPrice      float64
	StopLossPrice   float64
	TakeProfitPrice float64
	Units           int
	GoodTilTime     time.Time

	// Equity used for sizing, carried so the audit record can report the
	// balance at time of trade without a second fetch.
	Balance float64
}
