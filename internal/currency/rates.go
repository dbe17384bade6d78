package currency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"product-listing-service/internal/logger"
	"product-listing-service/internal/store"
)

// StaticRates is a fixed rate table.
type StaticRates map[string]float64

// DefaultRates returns the built-in table used when nothing else is configured.
func DefaultRates() StaticRates {
	return StaticRates{
		"USD": 1,
		"ETB": 155,
		"KES": 129,
		"SOS": 571,
		"DJF": 177.7,
	}
}

// Rates returns a copy of the table with upper-case keys.
func (s StaticRates) Rates(context.Context) (map[string]float64, error) {
	out := make(map[string]float64, len(s))
	for code, rate := range s {
		out[strings.ToUpper(code)] = rate
	}
	return out, nil
}

// StoreRates reads the rate table from the database and falls back to a static
// table when the database has no rows.
type StoreRates struct {
	store    store.RateStorer
	fallback StaticRates
}

// NewStoreRates creates a StoreRates.
func NewStoreRates(s store.RateStorer, fallback StaticRates) *StoreRates {
	return &StoreRates{store: s, fallback: fallback}
}

func (r *StoreRates) Rates(ctx context.Context) (map[string]float64, error) {
	rates, err := r.store.ListCurrencyRates(ctx)
	if err != nil {
		return nil, err
	}
	if len(rates) == 0 {
		return r.fallback.Rates(ctx)
	}
	return rates, nil
}

// RedisClient is the subset of *redis.Client used by CachedRates.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

const ratesCacheKey = "listing:currency_rates"

// CachedRates caches another provider's table in Redis as JSON.
// Redis is best-effort: read or write failures fall through to the source.
type CachedRates struct {
	client RedisClient
	source RateProvider
	ttl    time.Duration
}

// NewCachedRates creates a CachedRates.
func NewCachedRates(client RedisClient, source RateProvider, ttl time.Duration) *CachedRates {
	return &CachedRates{client: client, source: source, ttl: ttl}
}

func (c *CachedRates) Rates(ctx context.Context) (map[string]float64, error) {
	log := logger.FromContext(ctx)

	data, err := c.client.Get(ctx, ratesCacheKey).Bytes()
	switch {
	case err == nil:
		var rates map[string]float64
		if jerr := json.Unmarshal(data, &rates); jerr == nil && len(rates) > 0 {
			return rates, nil
		}
		log.Warn("Discarding malformed cached currency rates")
	case errors.Is(err, redis.Nil):
		// Cache miss
	default:
		log.Warn("Redis read for currency rates failed", "error", err)
	}

	rates, err := c.source.Rates(ctx)
	if err != nil {
		return nil, fmt.Errorf("currency: loading rates: %w", err)
	}

	payload, err := json.Marshal(rates)
	if err == nil {
		if err := c.client.Set(ctx, ratesCacheKey, payload, c.ttl).Err(); err != nil {
			log.Warn("Redis write for currency rates failed", "error", err)
		}
	}
	return rates, nil
}
