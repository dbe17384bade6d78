package listing

import (
	"product-listing-service/internal/query"
)

// Sort keys.
const (
	SortBestMatch    = "best_match"
	SortCreatedDesc  = "created_desc"
	SortRatingDesc   = "rating_desc"
	SortSalesDesc    = "sales_desc"
	SortPriceAsc     = "price_asc"
	SortPriceDesc    = "price_desc"
	SortViewsDesc    = "views_desc"
	SortDistanceAsc  = "distance_asc"
	SortDistanceDesc = "distance_desc"
)

// SortFunc appends ordering terms for one strategy.
type SortFunc func(q *query.Builder) *query.Builder

var sortAliases = map[string]string{
	"":           SortCreatedDesc,
	"newest":     SortCreatedDesc,
	"created":    SortCreatedDesc,
	"created_at": SortCreatedDesc,
	"rating":     SortRatingDesc,
	"top_rated":  SortRatingDesc,
	"sales":      SortSalesDesc,
	"popular":    SortSalesDesc,
	"price":      SortPriceAsc,
	"views":      SortViewsDesc,
	"distance":   SortDistanceAsc,
	"relevance":  SortBestMatch,
}

var sortStrategies = map[string]SortFunc{
	SortBestMatch: func(q *query.Builder) *query.Builder {
		return q.OrderBy("p.sales_count", query.Desc, query.NullsLast).
			OrderBy("p.average_rating", query.Desc, query.NullsLast).
			OrderBy("p.rating_count", query.Desc, query.NullsLast).
			OrderBy("p.created_at", query.Desc)
	},
	SortCreatedDesc: func(q *query.Builder) *query.Builder {
		return q.OrderBy("p.created_at", query.Desc)
	},
	SortRatingDesc: func(q *query.Builder) *query.Builder {
		return createdTail(q.OrderBy("p.average_rating", query.Desc, query.NullsLast))
	},
	SortSalesDesc: func(q *query.Builder) *query.Builder {
		return createdTail(q.OrderBy("p.sales_count", query.Desc, query.NullsLast))
	},
	SortPriceAsc: func(q *query.Builder) *query.Builder {
		return createdTail(q.OrderBy("p.price", query.Asc, query.NullsLast))
	},
	SortPriceDesc: func(q *query.Builder) *query.Builder {
		return createdTail(q.OrderBy("p.price", query.Desc, query.NullsLast))
	},
	SortViewsDesc: func(q *query.Builder) *query.Builder {
		return createdTail(q.OrderBy("p.view_count", query.Desc, query.NullsLast))
	},
	SortDistanceAsc: func(q *query.Builder) *query.Builder {
		return createdTail(q.OrderBy(columnDistance, query.Asc, query.NullsLast))
	},
	SortDistanceDesc: func(q *query.Builder) *query.Builder {
		return createdTail(q.OrderBy(columnDistance, query.Desc, query.NullsLast))
	},
}

func createdTail(q *query.Builder) *query.Builder {
	return q.OrderBy("p.created_at", query.Desc)
}

// resolveSortKey maps aliases and unknown keys onto a strategy key. Distance
// sorts need a distance column and degrade to newest-first without one.
func resolveSortKey(key string, q *query.Builder) string {
	if alias, ok := sortAliases[key]; ok {
		key = alias
	}
	if _, ok := sortStrategies[key]; !ok {
		key = SortCreatedDesc
	}
	if (key == SortDistanceAsc || key == SortDistanceDesc) && !q.HasColumn(columnDistance) {
		key = SortCreatedDesc
	}
	return key
}

// applySort orders q for the request. Geo rank, then listing type rank, lead
// every strategy when present; p.id is the final tie-break so pages are stable.
func applySort(q *query.Builder, req *Request) (*query.Builder, string) {
	key := resolveSortKey(req.Sort, q)
	if req.GeoPriority && q.HasColumn(columnGeoRank) {
		q = q.OrderBy(columnGeoRank, query.Desc)
	}
	if q.HasColumn(columnTypeRank) {
		q = q.OrderBy(columnTypeRank, query.Desc)
	}
	q = sortStrategies[key](q)
	return q.OrderBy("p.id", query.Desc), key
}
