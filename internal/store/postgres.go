package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"product-listing-service/internal/domain"
	"product-listing-service/internal/query"
)

// Predefined errors for store operations
var (
	ErrCategoryNotFound = errors.New("store: category not found")
)

// PostgresStore implements CategoryStorer, ProductQuerier and RateStorer using PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgresStore instance.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// --- CategoryStorer Implementation ---

func (s *PostgresStore) GetCategoryByID(ctx context.Context, id int64) (*domain.Category, error) {
	query := `
		SELECT id, name, slug, parent_category_id, created_at, updated_at
		FROM products.categories
		WHERE id = $1;
	`
	category, err := scanCategory(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("store: GetCategoryByID failed to scan row: %w", err)
	}
	return category, nil
}

func (s *PostgresStore) GetCategoryBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	query := `
		SELECT id, name, slug, parent_category_id, created_at, updated_at
		FROM products.categories
		WHERE slug = $1;
	`
	category, err := scanCategory(s.db.QueryRowContext(ctx, query, slug))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("store: GetCategoryBySlug failed to scan row: %w", err)
	}
	return category, nil
}

// ListDescendantIDs walks the category tree downwards from rootID with a recursive CTE.
// UNION (not UNION ALL) guards against cycles in bad data.
func (s *PostgresStore) ListDescendantIDs(ctx context.Context, rootID int64) ([]int64, error) {
	query := `
		WITH RECURSIVE tree AS (
			SELECT id FROM products.categories WHERE id = $1
			UNION
			SELECT c.id FROM products.categories c JOIN tree t ON c.parent_category_id = t.id
		)
		SELECT id FROM tree ORDER BY id;
	`
	rows, err := s.db.QueryContext(ctx, query, rootID)
	if err != nil {
		return nil, fmt.Errorf("store: ListDescendantIDs failed to query tree: %w", err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("store: ListDescendantIDs failed to scan id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: ListDescendantIDs iteration error: %w", err)
	}
	return ids, nil
}

func scanCategory(row *sql.Row) (*domain.Category, error) {
	var c domain.Category
	if err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.ParentCategoryID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// --- ProductQuerier Implementation ---

func (s *PostgresStore) CountProducts(ctx context.Context, q *query.Builder) (int, error) {
	stmt, args := q.Count().Build()
	var total int
	if err := s.db.QueryRowContext(ctx, stmt, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("store: CountProducts failed to count products: %w", err)
	}
	return total, nil
}

func (s *PostgresStore) QueryProducts(ctx context.Context, q *query.Builder) ([]domain.Product, error) {
	stmt, args := q.Build()
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("store: QueryProducts failed to query products: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("store: QueryProducts failed to read columns: %w", err)
	}

	limit, _ := q.Page()
	products := make([]domain.Product, 0, limit)
	for rows.Next() {
		p, err := scanProduct(rows, cols)
		if err != nil {
			return nil, fmt.Errorf("store: QueryProducts failed to scan product row: %w", err)
		}
		products = append(products, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("store: QueryProducts iteration error: %w", err)
	}
	return products, nil
}

// scanProduct maps each result column onto the product by name. Unknown columns are discarded.
func scanProduct(rows *sql.Rows, cols []string) (domain.Product, error) {
	var (
		p            domain.Product
		v            domain.VendorSummary
		currency     sql.NullString
		status       sql.NullString
		isBlocked    sql.NullBool
		featured     sql.NullBool
		verified     sql.NullBool
		ratingCount  sql.NullInt64
		salesCount   sql.NullInt64
		viewCount    sql.NullInt64
		hasVendorCol bool
	)

	dest := make([]interface{}, len(cols))
	for i, col := range cols {
		switch strings.ToLower(col) {
		case "id":
			dest[i] = &p.ID
		case "name":
			dest[i] = &p.Name
		case "price":
			dest[i] = &p.Price
		case "sale_price":
			dest[i] = &p.SalePrice
		case "currency":
			dest[i] = &currency
		case "category_id":
			dest[i] = &p.CategoryID
		case "category_slug":
			dest[i] = &p.CategorySlug
		case "category_name":
			dest[i] = &p.CategoryName
		case "vendor_id":
			dest[i] = &p.VendorID
		case "status":
			dest[i] = &status
		case "is_blocked":
			dest[i] = &isBlocked
		case "average_rating":
			dest[i] = &p.AverageRating
		case "rating_count":
			dest[i] = &ratingCount
		case "sales_count":
			dest[i] = &salesCount
		case "view_count":
			dest[i] = &viewCount
		case "featured":
			dest[i] = &featured
		case "featured_expires_at":
			dest[i] = &p.FeaturedExpiresAt
		case "listing_type":
			dest[i] = &p.ListingType
		case "bedrooms":
			dest[i] = &p.Bedrooms
		case "listing_city":
			dest[i] = &p.ListingCity
		case "image_url":
			dest[i] = &p.ImageURL
		case "created_at":
			dest[i] = &p.CreatedAt
		case "geo_rank":
			dest[i] = &p.GeoRank
		case "distance_km":
			dest[i] = &p.DistanceKm
		case "vendor_store_name":
			dest[i], hasVendorCol = &v.StoreName, true
		case "vendor_display_name":
			dest[i], hasVendorCol = &v.DisplayName, true
		case "vendor_verified":
			dest[i], hasVendorCol = &verified, true
		case "vendor_country":
			dest[i], hasVendorCol = &v.RegistrationCountry, true
		case "vendor_region":
			dest[i], hasVendorCol = &v.RegistrationRegion, true
		case "vendor_city":
			dest[i], hasVendorCol = &v.RegistrationCity, true
		case "vendor_latitude":
			dest[i], hasVendorCol = &v.Latitude, true
		case "vendor_longitude":
			dest[i], hasVendorCol = &v.Longitude, true
		default:
			dest[i] = new(interface{})
		}
	}

	if err := rows.Scan(dest...); err != nil {
		return p, err
	}

	p.Currency = currency.String
	p.Status = status.String
	p.IsBlocked = isBlocked.Bool
	p.Featured = featured.Bool
	p.RatingCount = int(ratingCount.Int64)
	p.SalesCount = int(salesCount.Int64)
	p.ViewCount = int(viewCount.Int64)
	if hasVendorCol {
		v.ID = p.VendorID
		v.Verified = verified.Bool
		p.Vendor = &v
	}
	return p, nil
}

// --- RateStorer Implementation ---

func (s *PostgresStore) ListCurrencyRates(ctx context.Context) (map[string]float64, error) {
	query := `SELECT code, rate_per_usd FROM products.currency_rates;`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("store: ListCurrencyRates failed to query rates: %w", err)
	}
	defer rows.Close()

	rates := make(map[string]float64)
	for rows.Next() {
		var code string
		var rate float64
		if err := rows.Scan(&code, &rate); err != nil {
			return nil, fmt.Errorf("store: ListCurrencyRates failed to scan rate row: %w", err)
		}
		rates[strings.ToUpper(strings.TrimSpace(code))] = rate
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: ListCurrencyRates iteration error: %w", err)
	}
	return rates, nil
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	if s.db != nil {
		slog.Info("Closing database connection pool...")
		if err := s.db.Close(); err != nil {
			slog.Error("Failed to close database connection pool", "error", err)
			return err
		}
		slog.Info("Database connection pool closed successfully.")
	}
	return nil
}
