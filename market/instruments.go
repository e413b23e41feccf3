package market

import (
	"fmt"
	"strconv"
	"strings"
)

// InstrumentMeta describes a tradable currency pair the way the broker
// reports it: pip location drives sizing math, display precision drives
// price formatting on the wire.
type InstrumentMeta struct {
	Name             string
	BaseCurrency     string
	QuoteCurrency    string
	PipLocation      int
	DisplayPrecision int
	MarginRate       float64
}

var Instruments = map[string]InstrumentMeta{
	"EUR_USD": {Name: "EUR_USD", BaseCurrency: "EUR", QuoteCurrency: "USD", PipLocation: -4, DisplayPrecision: 5, MarginRate: 0.02},
	"GBP_USD": {Name: "GBP_USD", BaseCurrency: "GBP", QuoteCurrency: "USD", PipLocation: -4, DisplayPrecision: 5, MarginRate: 0.02},
	"EUR_GBP": {Name: "EUR_GBP", BaseCurrency: "EUR", QuoteCurrency: "GBP", PipLocation: -4, DisplayPrecision: 5, MarginRate: 0.02},
	"AUD_USD": {Name: "AUD_USD", BaseCurrency: "AUD", QuoteCurrency: "USD", PipLocation: -4, DisplayPrecision: 5, MarginRate: 0.03},
	"USD_CHF": {Name: "USD_CHF", BaseCurrency: "USD", QuoteCurrency: "CHF", PipLocation: -4, DisplayPrecision: 5, MarginRate: 0.03},
	"USD_CAD": {Name: "USD_CAD", BaseCurrency: "USD", QuoteCurrency: "CAD", PipLocation: -4, DisplayPrecision: 5, MarginRate: 0.02},
	"USD_JPY": {Name: "USD_JPY", BaseCurrency: "USD", QuoteCurrency: "JPY", PipLocation: -2, DisplayPrecision: 3, MarginRate: 0.02},
	"GBP_JPY": {Name: "GBP_JPY", BaseCurrency: "GBP", QuoteCurrency: "JPY", PipLocation: -2, DisplayPrecision: 3, MarginRate: 0.04},
	"EUR_JPY": {Name: "EUR_JPY", BaseCurrency: "EUR", QuoteCurrency: "JPY", PipLocation: -2, DisplayPrecision: 3, MarginRate: 0.04},
}

// Lookup returns the metadata for a broker-form instrument name.
func Lookup(instrument string) (InstrumentMeta, error) {
	meta, ok := Instruments[instrument]
	if !ok {
		return InstrumentMeta{}, fmt.Errorf("unknown instrument %s", instrument)
	}
	return meta, nil
}

// NormalizeTicker converts an alert ticker like "EURUSD" into the broker's
// BASE_QUOTE form ("EUR_USD"). Tickers must be exactly six letters.
func NormalizeTicker(ticker string) (string, error) {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	if len(t) != 6 {
		return "", fmt.Errorf("invalid ticker %q: want six letters", ticker)
	}
	for _, r := range t {
		if r < 'A' || r > 'Z' {
			return "", fmt.Errorf("invalid ticker %q: want six letters", ticker)
		}
	}
	return t[:3] + "_" + t[3:], nil
}

// FormatPrice renders a price at the instrument's display precision, which
// is what the broker requires on order fields. Unknown instruments fall
// back to five decimals.
func FormatPrice(instrument string, px float64) string {
	precision := 5
	if meta, ok := Instruments[instrument]; ok {
		precision = meta.DisplayPrecision
	}
	return strconv.FormatFloat(px, 'f', precision, 64)
}
