// Package listing composes product filters, sort strategies and pagination
// into the marketplace's product listing.
package listing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"product-listing-service/internal/currency"
	"product-listing-service/internal/domain"
	"product-listing-service/internal/logger"
	"product-listing-service/internal/pkg/clock"
	"product-listing-service/internal/query"
	"product-listing-service/internal/store"
)

// Pagination strategies reported in debug metadata.
const (
	StrategyOffset        = "offset"
	StrategyCategoryFirst = "category_first"
)

// Debug is returned when a request asks for it.
type Debug struct {
	Strategy            string           `json:"strategy"`
	Sort                string           `json:"sort"`
	CategoryIDs         []int64          `json:"categoryIds,omitempty"`
	UnresolvedCategory  bool             `json:"unresolvedCategory,omitempty"`
	Strict              bool             `json:"strict,omitempty"`
	Page                *PageMeta        `json:"page,omitempty"`
	FallbackToParent    *int64           `json:"fallbackToParent,omitempty"`
	FallbackCategoryIDs []int64          `json:"fallbackCategoryIds,omitempty"`
	FallbackMeta        *PageMeta        `json:"fallbackMeta,omitempty"`
	GeoPriority         bool             `json:"geoPriority,omitempty"`
	PropertySubtreeSize int              `json:"propertySubtreeSize,omitempty"`
	Currency            *currency.Result `json:"currency,omitempty"`
	Filters             []string         `json:"filters"`
}

// Result is one listing page. Items holds []domain.ProductCard for lean/grid
// requests and []domain.Product otherwise.
type Result struct {
	Items      interface{} `json:"items"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	PerPage    int         `json:"perPage"`
	TotalPages int         `json:"totalPages"`
	Debug      *Debug      `json:"debug,omitempty"`
}

// Options tune a Service. Zero values pick the defaults.
type Options struct {
	PropertyCategorySlug string
	PropertyCacheTTL     time.Duration
	Clock                clock.Clock
}

// Service is the product listing entry point.
type Service struct {
	products   store.ProductQuerier
	categories *categoryResolver
	paginator  *CategoryFirstPaginator
	normalizer *currency.Normalizer
	clock      clock.Clock
	filters    []namedFilter
}

// NewService wires a listing service.
func NewService(products store.ProductQuerier, categories store.CategoryStorer, normalizer *currency.Normalizer, opts Options) *Service {
	if opts.Clock == nil {
		opts.Clock = clock.NewRealClock()
	}
	if opts.PropertyCacheTTL <= 0 {
		opts.PropertyCacheTTL = 5 * time.Minute
	}

	resolver := &categoryResolver{categories: categories}
	geo := newGeoRanker(categories, opts.PropertyCategorySlug, opts.PropertyCacheTTL, opts.Clock)

	return &Service{
		products:   products,
		categories: resolver,
		paginator:  NewCategoryFirstPaginator(products),
		normalizer: normalizer,
		clock:      opts.Clock,
		// Cheap narrowing filters run before the geo computations.
		filters: []namedFilter{
			{"search", searchFilter},
			{"vendor", vendorFilter},
			{"tags", tagsFilter},
			{"price", priceFilter},
			{"property", propertyFilter},
			{"category", resolver.filter},
			{"geo_priority", geo.filter},
			{"distance", distanceFilter},
		},
	}
}

// List runs one listing request. Malformed input fails with ErrInvalidRequest
// before anything is queried.
func (s *Service) List(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	req.Normalize()
	log := logger.FromContext(ctx)

	debug := &Debug{Strategy: StrategyOffset, GeoPriority: req.GeoPriority, Filters: make([]string, 0, len(s.filters))}
	c := &call{req: &req, debug: debug}

	q := baseQuery(req.View == ViewGrid)
	for _, f := range s.filters {
		next, err := f.apply(ctx, q, c)
		if err != nil {
			return nil, fmt.Errorf("listing: %s filter: %w", f.name, err)
		}
		if next != q {
			debug.Filters = append(debug.Filters, f.name)
		}
		q = next
	}

	q, debug.Sort = applySort(q, &req)

	var (
		items []domain.Product
		total int
		err   error
	)
	if req.CategoryFirst && req.hasCategoryScope() {
		items, total, err = s.listCategoryFirst(ctx, q, &req, debug)
	} else {
		items, total, err = s.listOffset(ctx, q, &req)
	}
	if err != nil {
		return nil, err
	}

	conv := s.normalizer.Normalize(ctx, items, req.Currency)
	debug.Currency = &conv

	res := &Result{
		Total:      total,
		Page:       req.Page,
		PerPage:    req.PerPage,
		TotalPages: totalPages(total, req.PerPage),
	}
	if req.wantsCards() {
		now := s.clock.Now()
		cards := make([]domain.ProductCard, len(items))
		for i := range items {
			cards[i] = items[i].Card(now)
		}
		res.Items = cards
	} else {
		res.Items = items
	}
	if req.Debug {
		res.Debug = debug
	}

	log.Debug("Listed products",
		slog.String("strategy", debug.Strategy),
		slog.String("sort", debug.Sort),
		slog.Int("page", req.Page),
		slog.Int("per_page", req.PerPage),
		slog.Int("returned", len(items)),
		slog.Int("total", total),
	)
	return res, nil
}

func (s *Service) listOffset(ctx context.Context, q *query.Builder, req *Request) ([]domain.Product, int, error) {
	total, err := s.products.CountProducts(ctx, q)
	if err != nil {
		return nil, 0, fmt.Errorf("listing: count products: %w", err)
	}
	if total == 0 || req.Offset() >= total {
		return []domain.Product{}, total, nil
	}
	items, err := s.products.QueryProducts(ctx, q.Limit(req.PerPage).Offset(req.Offset()))
	if err != nil {
		return nil, 0, fmt.Errorf("listing: fetch products: %w", err)
	}
	return items, total, nil
}

func (s *Service) listCategoryFirst(ctx context.Context, q *query.Builder, req *Request, debug *Debug) ([]domain.Product, int, error) {
	log := logger.FromContext(ctx)

	ids, err := s.categories.resolve(ctx, req)
	if err != nil {
		return nil, 0, err
	}
	if len(ids) == 0 {
		debug.UnresolvedCategory = true
		log.Warn("No category resolved for category-first listing, listing without category restriction",
			"category_ids", req.CategoryIDs, "slug", req.CategorySlug)
		return s.listOffset(ctx, q, req)
	}

	debug.Strategy = StrategyCategoryFirst
	debug.CategoryIDs = ids
	debug.Strict = req.StrictCategory

	page, err := s.paginator.Paginate(ctx, q, PageRequest{
		CategoryIDs: ids,
		Page:        req.Page,
		PerPage:     req.PerPage,
		Strict:      req.StrictCategory,
		GeoAppend:   req.GeoAppend,
	})
	if err != nil {
		return nil, 0, err
	}
	debug.Page = &page.Meta

	if !req.StrictCategory || len(page.Items) > 0 || req.FallbackParentID == nil {
		return page.Items, page.Total, nil
	}

	parentID := *req.FallbackParentID
	parentIDs := []int64{parentID}
	if req.IncludeDescendants {
		parentIDs, err = s.categories.expand(ctx, parentIDs)
		if err != nil {
			return nil, 0, err
		}
	}
	log.Info("Strict category listing empty, falling back to parent category",
		"parent_id", parentID, "category_ids", parentIDs)

	fallback, err := s.paginator.Paginate(ctx, q, PageRequest{
		CategoryIDs: parentIDs,
		Page:        req.Page,
		PerPage:     req.PerPage,
		Strict:      false,
		GeoAppend:   true,
	})
	if err != nil {
		return nil, 0, err
	}
	debug.FallbackToParent = &parentID
	debug.FallbackCategoryIDs = parentIDs
	debug.FallbackMeta = &fallback.Meta
	return fallback.Items, fallback.Total, nil
}

func totalPages(total, perPage int) int {
	if total <= 0 || perPage <= 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}
