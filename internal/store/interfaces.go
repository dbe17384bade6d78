package store

import (
	"context"

	"product-listing-service/internal/domain"
	"product-listing-service/internal/query"
)

// CategoryStorer defines the category lookups the listing engine needs.
type CategoryStorer interface {
	GetCategoryByID(ctx context.Context, id int64) (*domain.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*domain.Category, error)
	// ListDescendantIDs returns rootID and every category below it.
	// An unknown root yields an empty slice, not an error.
	ListDescendantIDs(ctx context.Context, rootID int64) ([]int64, error)
}

// ProductQuerier executes composed product queries.
// Rows are scanned by column name, so callers may select any subset of the
// product columns plus the computed geo_rank and distance_km columns.
type ProductQuerier interface {
	CountProducts(ctx context.Context, q *query.Builder) (int, error)
	QueryProducts(ctx context.Context, q *query.Builder) ([]domain.Product, error)
}

// RateStorer reads the currency rate table (units of currency per one USD).
type RateStorer interface {
	ListCurrencyRates(ctx context.Context) (map[string]float64, error)
}
