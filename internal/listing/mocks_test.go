package listing

import (
	"context"
	"strings"
	"sync"

	"github.com/lib/pq"
	"github.com/stretchr/testify/mock"

	"product-listing-service/internal/domain"
	"product-listing-service/internal/query"
)

// MockCategoryStorer is a mock implementation of store.CategoryStorer.
type MockCategoryStorer struct {
	mock.Mock
}

func (m *MockCategoryStorer) GetCategoryByID(ctx context.Context, id int64) (*domain.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Category), args.Error(1)
}

func (m *MockCategoryStorer) GetCategoryBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Category), args.Error(1)
}

func (m *MockCategoryStorer) ListDescendantIDs(ctx context.Context, rootID int64) ([]int64, error) {
	args := m.Called(ctx, rootID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

// MockProductQuerier is a mock implementation of store.ProductQuerier.
type MockProductQuerier struct {
	mock.Mock
}

func (m *MockProductQuerier) CountProducts(ctx context.Context, q *query.Builder) (int, error) {
	args := m.Called(ctx, q)
	return args.Int(0), args.Error(1)
}

func (m *MockProductQuerier) QueryProducts(ctx context.Context, q *query.Builder) ([]domain.Product, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

// memoryCatalog answers the queries the listing package composes from an
// in-memory product slice, in slice order. It understands the category
// restriction, the others partition and the id exclusion used by the filler;
// every other WHERE term is assumed to match.
type memoryCatalog struct {
	mu       sync.Mutex
	products []domain.Product
	counts   []string
	fetches  []string
}

func newMemoryCatalog(products ...domain.Product) *memoryCatalog {
	return &memoryCatalog{products: products}
}

func (c *memoryCatalog) CountProducts(_ context.Context, q *query.Builder) (int, error) {
	sql, args := q.Build()
	c.mu.Lock()
	c.counts = append(c.counts, sql)
	c.mu.Unlock()
	return len(c.match(sql, args)), nil
}

func (c *memoryCatalog) QueryProducts(_ context.Context, q *query.Builder) ([]domain.Product, error) {
	sql, args := q.Build()
	c.mu.Lock()
	c.fetches = append(c.fetches, sql)
	c.mu.Unlock()

	rows := c.match(sql, args)
	limit, offset := q.Page()
	if offset >= len(rows) {
		return []domain.Product{}, nil
	}
	rows = rows[offset:]
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	out := make([]domain.Product, len(rows))
	copy(out, rows)
	return out, nil
}

func (c *memoryCatalog) match(sql string, args []interface{}) []domain.Product {
	where := ""
	if i := strings.Index(sql, " WHERE "); i >= 0 {
		where = sql[i:]
	}
	ids := lastIDArray(args)
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}

	var keep func(p domain.Product) bool
	switch {
	case strings.Contains(where, "NOT (p.id = ANY("):
		keep = func(p domain.Product) bool { return !set[p.ID] }
	case strings.Contains(where, "p.category_id IS NULL OR NOT (p.category_id = ANY("):
		keep = func(p domain.Product) bool { return p.CategoryID == nil || !set[*p.CategoryID] }
	case strings.Contains(where, "p.category_id = ANY("):
		keep = func(p domain.Product) bool { return p.CategoryID != nil && set[*p.CategoryID] }
	default:
		keep = func(domain.Product) bool { return true }
	}

	out := make([]domain.Product, 0, len(c.products))
	for _, p := range c.products {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

func lastIDArray(args []interface{}) []int64 {
	for i := len(args) - 1; i >= 0; i-- {
		if a, ok := args[i].(*pq.Int64Array); ok {
			return []int64(*a)
		}
	}
	return nil
}

func productsIn(categoryID int64, ids ...int64) []domain.Product {
	out := make([]domain.Product, len(ids))
	for i, id := range ids {
		cat := categoryID
		out[i] = domain.Product{ID: id, Name: "product", Price: 100, Currency: "ETB", CategoryID: &cat}
	}
	return out
}

func catalogOf(groups ...[]domain.Product) *memoryCatalog {
	var all []domain.Product
	for _, g := range groups {
		all = append(all, g...)
	}
	return newMemoryCatalog(all...)
}

type listedItem interface {
	domain.Product | domain.ProductCard
}

func idsOf[T listedItem](items []T) []int64 {
	out := make([]int64, len(items))
	for i, it := range items {
		switch v := any(it).(type) {
		case domain.Product:
			out[i] = v.ID
		case domain.ProductCard:
			out[i] = v.ID
		}
	}
	return out
}
