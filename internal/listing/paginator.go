package listing

import (
	"context"
	"fmt"

	"product-listing-service/internal/domain"
	"product-listing-service/internal/query"
	"product-listing-service/internal/store"
)

// PageRequest parameterises one category-first page.
type PageRequest struct {
	CategoryIDs []int64
	Page        int
	PerPage     int
	// Strict never surfaces products outside CategoryIDs.
	Strict bool
	// GeoAppend tops up a short page from the whole filtered catalog.
	GeoAppend bool
}

// PageMeta records how a page was assembled.
type PageMeta struct {
	PrimaryTotal int  `json:"primaryTotal"`
	OthersTotal  int  `json:"othersTotal"`
	UsedOthers   bool `json:"usedOthers"`
	GeoFilled    bool `json:"geoFilled"`
}

// PageResult is one assembled page.
type PageResult struct {
	Items []domain.Product
	// Total is PrimaryTotal + OthersTotal; under strict mode OthersTotal is 0.
	Total int
	Meta  PageMeta
}

// CategoryFirstPaginator pages through products in the requested categories
// first ("primary") and continues into every other product ("others").
type CategoryFirstPaginator struct {
	products store.ProductQuerier
}

// NewCategoryFirstPaginator creates a paginator over products.
func NewCategoryFirstPaginator(products store.ProductQuerier) *CategoryFirstPaginator {
	return &CategoryFirstPaginator{products: products}
}

// Paginate assembles one page from base, which must already carry filters and ordering.
// The primary and others partitions are disjoint and together cover base:
// products without a category fall into others.
func (p *CategoryFirstPaginator) Paginate(ctx context.Context, base *query.Builder, pr PageRequest) (*PageResult, error) {
	primary := base.Where(query.AnyOf("p.category_id", pr.CategoryIDs))
	others := base.Where(query.Or(
		query.IsNull("p.category_id"),
		query.NotAnyOf("p.category_id", pr.CategoryIDs),
	))

	primaryTotal, err := p.products.CountProducts(ctx, primary)
	if err != nil {
		return nil, fmt.Errorf("listing: count primary: %w", err)
	}
	othersTotal := 0
	if !pr.Strict {
		othersTotal, err = p.products.CountProducts(ctx, others)
		if err != nil {
			return nil, fmt.Errorf("listing: count others: %w", err)
		}
	}

	res := &PageResult{
		Items: make([]domain.Product, 0, pr.PerPage),
		Total: primaryTotal + othersTotal,
		Meta:  PageMeta{PrimaryTotal: primaryTotal, OthersTotal: othersTotal},
	}

	start := (pr.Page - 1) * pr.PerPage
	if start < primaryTotal {
		items, err := p.products.QueryProducts(ctx, primary.Limit(pr.PerPage).Offset(start))
		if err != nil {
			return nil, fmt.Errorf("listing: fetch primary: %w", err)
		}
		res.Items = append(res.Items, items...)

		if need := pr.PerPage - len(res.Items); !pr.Strict && need > 0 && othersTotal > 0 {
			fill, err := p.products.QueryProducts(ctx, others.Limit(need).Offset(0))
			if err != nil {
				return nil, fmt.Errorf("listing: fetch others: %w", err)
			}
			res.Items = append(res.Items, fill...)
			res.Meta.UsedOthers = len(fill) > 0
		}
	} else if !pr.Strict {
		offset := start - primaryTotal
		if offset < othersTotal {
			items, err := p.products.QueryProducts(ctx, others.Limit(pr.PerPage).Offset(offset))
			if err != nil {
				return nil, fmt.Errorf("listing: fetch others: %w", err)
			}
			res.Items = append(res.Items, items...)
			res.Meta.UsedOthers = len(items) > 0
		}
	}

	if need := pr.PerPage - len(res.Items); pr.GeoAppend && !pr.Strict && need > 0 {
		filler := base
		if len(res.Items) > 0 {
			filler = filler.Where(query.NotAnyOf("p.id", productIDs(res.Items)))
		}
		extra, err := p.products.QueryProducts(ctx, filler.Limit(need).Offset(0))
		if err != nil {
			return nil, fmt.Errorf("listing: fetch geo filler: %w", err)
		}
		res.Items = append(res.Items, extra...)
		res.Meta.GeoFilled = len(extra) > 0
	}

	if len(res.Items) > pr.PerPage {
		res.Items = res.Items[:pr.PerPage]
	}
	return res, nil
}

func productIDs(items []domain.Product) []int64 {
	ids := make([]int64, len(items))
	for i := range items {
		ids[i] = items[i].ID
	}
	return ids
}
