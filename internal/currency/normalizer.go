package currency

import (
	"context"
	"strings"

	"product-listing-service/internal/domain"
	"product-listing-service/internal/logger"
)

// RateProvider returns the current rate table (units per one USD, keyed by upper-case code).
type RateProvider interface {
	Rates(ctx context.Context) (map[string]float64, error)
}

// Result summarises one normalization pass.
type Result struct {
	Target    string `json:"target"`
	Converted int    `json:"converted"`
	Skipped   int    `json:"skipped"`
}

// Normalizer rewrites product prices into a requested display currency.
type Normalizer struct {
	rates    RateProvider
	fallback string
}

// NewNormalizer creates a Normalizer. fallback is the target used for unsupported requests
// and the assumed currency of items that carry none.
func NewNormalizer(rates RateProvider, fallback string) *Normalizer {
	return &Normalizer{rates: rates, fallback: ResolveTarget(fallback, DefaultCurrency)}
}

// Normalize converts price and sale_price of every item to requested in place.
// Failures never abort: if the rate table cannot be read all items stay as they
// are, and an item whose currency cannot be converted keeps its own currency and price.
func (n *Normalizer) Normalize(ctx context.Context, items []domain.Product, requested string) Result {
	res := Result{Target: ResolveTarget(requested, n.fallback)}
	if len(items) == 0 {
		return res
	}

	log := logger.FromContext(ctx)
	rates, err := n.rates.Rates(ctx)
	if err != nil {
		log.Warn("Currency rates unavailable, returning native prices", "error", err, "target", res.Target)
		res.Skipped = len(items)
		return res
	}

	for i := range items {
		item := &items[i]
		source := strings.ToUpper(strings.TrimSpace(item.Currency))
		if source == "" {
			source = n.fallback
		}

		price, err := Convert(item.Price, source, res.Target, rates)
		if err != nil {
			log.Debug("Skipping currency conversion for product", "product_id", item.ID, "currency", item.Currency, "error", err)
			res.Skipped++
			continue
		}
		var sale *float64
		if item.SalePrice != nil {
			converted, err := Convert(*item.SalePrice, source, res.Target, rates)
			if err != nil {
				res.Skipped++
				continue
			}
			sale = &converted
		}

		item.Price = price
		item.SalePrice = sale
		item.Currency = res.Target
		res.Converted++
	}
	return res
}
