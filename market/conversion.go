package market

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoConversionRate means no live pricing was obtainable for converting
// the instrument's quote currency into the account currency. Callers must
// fail sizing rather than assume a 1:1 rate.
var ErrNoConversionRate = errors.New("no conversion rate available")

// QuoteToAccountRate returns the value of one unit of the instrument's
// quote currency expressed in the account currency.
//
// EUR_USD with a USD account → 1.0.
// GBP_JPY with a GBP account → 1 / GBP_JPY mid (JPY → GBP).
func QuoteToAccountRate(ctx context.Context, instrument, accountCurrency string, prices TickSource) (float64, error) {
	meta, err := Lookup(instrument)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNoConversionRate, err)
	}

	if meta.QuoteCurrency == accountCurrency {
		return 1.0, nil
	}

	// Prefer the ACCOUNT_QUOTE pair: its mid is quote units per one
	// account unit, so the quote→account rate is the reciprocal.
	if pair := accountCurrency + "_" + meta.QuoteCurrency; knownPair(pair) {
		tick, err := prices.GetTick(ctx, pair)
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %v", ErrNoConversionRate, pair, err)
		}
		mid := tick.Mid()
		if mid <= 0 {
			return 0, fmt.Errorf("%w: %s mid %v", ErrNoConversionRate, pair, mid)
		}
		return 1 / mid, nil
	}

	if pair := meta.QuoteCurrency + "_" + accountCurrency; knownPair(pair) {
		tick, err := prices.GetTick(ctx, pair)
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %v", ErrNoConversionRate, pair, err)
		}
		mid := tick.Mid()
		if mid <= 0 {
			return 0, fmt.Errorf("%w: %s mid %v", ErrNoConversionRate, pair, mid)
		}
		return mid, nil
	}

	return 0, fmt.Errorf("%w: no pair between %s and %s", ErrNoConversionRate, meta.QuoteCurrency, accountCurrency)
}

func knownPair(name string) bool {
	_, ok := Instruments[name]
	return ok
}
