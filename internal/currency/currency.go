// Package currency converts listed prices between the marketplace's supported currencies.
package currency

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when a requested currency is not supported.
const DefaultCurrency = "ETB"

// Supported lists the currencies prices can be displayed in.
var Supported = []string{"ETB", "SOS", "KES", "DJF", "USD"}

var (
	ErrUnsupportedCurrency = errors.New("currency: unsupported currency")
	ErrMissingRate         = errors.New("currency: missing or invalid rate")
)

// IsSupported reports whether code (any case) is in Supported.
func IsSupported(code string) bool {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, c := range Supported {
		if c == code {
			return true
		}
	}
	return false
}

// ResolveTarget returns the upper-cased code when supported, otherwise fallback,
// otherwise DefaultCurrency.
func ResolveTarget(code, fallback string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if IsSupported(code) {
		return code
	}
	fallback = strings.ToUpper(strings.TrimSpace(fallback))
	if IsSupported(fallback) {
		return fallback
	}
	return DefaultCurrency
}

// Convert converts amount from one currency to another through USD.
// rates holds units of each currency per one USD. The result is rounded to 2
// decimal places; converting a currency to itself returns amount untouched.
func Convert(amount float64, from, to string, rates map[string]float64) (float64, error) {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))
	if from == to {
		return amount, nil
	}
	if !IsSupported(from) {
		return amount, fmt.Errorf("%w: %q", ErrUnsupportedCurrency, from)
	}
	if !IsSupported(to) {
		return amount, fmt.Errorf("%w: %q", ErrUnsupportedCurrency, to)
	}
	fromRate, ok := rates[from]
	if !ok || fromRate <= 0 {
		return amount, fmt.Errorf("%w: %s", ErrMissingRate, from)
	}
	toRate, ok := rates[to]
	if !ok || toRate <= 0 {
		return amount, fmt.Errorf("%w: %s", ErrMissingRate, to)
	}

	usd := decimal.NewFromFloat(amount).Div(decimal.NewFromFloat(fromRate))
	converted, _ := usd.Mul(decimal.NewFromFloat(toRate)).Round(2).Float64()
	return converted, nil
}
