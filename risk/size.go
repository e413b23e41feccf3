package risk

import (
	"errors"
	"fmt"
	"math"
)

// DefaultFraction is the share of account equity risked per trade.
const DefaultFraction = 0.01

var (
	// ErrInvalidStopDistance means entry and stop coincide (or one is
	// missing), so the loss per unit is undefined.
	ErrInvalidStopDistance = errors.New("invalid stop distance")

	// ErrConversionUnavailable means the quote→account conversion rate
	// could not be obtained. Sizing must not assume 1:1.
	ErrConversionUnavailable = errors.New("conversion rate unavailable")

	// ErrZeroUnits means the floored size came out below one unit. A
	// zero-size order is an error, never a silent no-op.
	ErrZeroUnits = errors.New("computed position size is zero")
)

// Size computes the whole number of units to trade so that hitting the
// stop loses riskFraction of balance, no more.
//
// quoteToAccountRate is the account-currency value of one quote-currency
// unit (1.0 when the instrument is quoted in the account currency). The
// result is always floored so rounding can only shrink risk.
func Size(balance, entryPrice, stopPrice, riskFraction, quoteToAccountRate float64) (int, error) {
	if riskFraction <= 0 || riskFraction > 1 {
		return 0, fmt.Errorf("risk fraction %v out of range (0,1]", riskFraction)
	}
	if balance <= 0 {
		return 0, fmt.Errorf("balance %v must be positive", balance)
	}

	distance := math.Abs(entryPrice - stopPrice)
	if distance <= 0 {
		return 0, fmt.Errorf("%w: entry %v stop %v", ErrInvalidStopDistance, entryPrice, stopPrice)
	}
	if quoteToAccountRate <= 0 {
		return 0, fmt.Errorf("%w: rate %v", ErrConversionUnavailable, quoteToAccountRate)
	}

	riskAmount := balance * riskFraction
	lossPerUnit := distance * quoteToAccountRate

	units := int(math.Floor(riskAmount / lossPerUnit))
	if units < 1 {
		return 0, fmt.Errorf("%w: risk %v cannot cover one unit at stop distance %v", ErrZeroUnits, riskAmount, distance)
	}
	return units, nil
}
