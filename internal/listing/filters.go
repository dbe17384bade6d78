package listing

import (
	"context"
	"strings"

	"product-listing-service/internal/query"
)

// call carries one List invocation through the filter chain.
type call struct {
	req   *Request
	debug *Debug
}

// Filter narrows or augments the query for one request.
type Filter func(ctx context.Context, q *query.Builder, c *call) (*query.Builder, error)

type namedFilter struct {
	name  string
	apply Filter
}

func searchFilter(_ context.Context, q *query.Builder, c *call) (*query.Builder, error) {
	if c.req.Search == "" {
		return q, nil
	}
	return q.Where(query.ILike("p.name", "%"+escapeLike(c.req.Search)+"%")), nil
}

func vendorFilter(_ context.Context, q *query.Builder, c *call) (*query.Builder, error) {
	if c.req.VendorID == nil {
		return q, nil
	}
	return q.Where(query.Eq("p.vendor_id", *c.req.VendorID)), nil
}

func tagsFilter(_ context.Context, q *query.Builder, c *call) (*query.Builder, error) {
	if len(c.req.Tags) == 0 {
		return q, nil
	}
	return q.Where(query.Raw(query.E(
		"EXISTS (SELECT 1 FROM "+tagsTable+" pt WHERE pt.product_id = p.id AND LOWER(pt.tag) = ANY(?))",
		query.Array(c.req.Tags),
	))), nil
}

func priceFilter(_ context.Context, q *query.Builder, c *call) (*query.Builder, error) {
	if c.req.MinPrice != nil {
		q = q.Where(query.Gte("p.price", *c.req.MinPrice))
	}
	if c.req.MaxPrice != nil {
		q = q.Where(query.Lte("p.price", *c.req.MaxPrice))
	}
	return q, nil
}

// propertyFilter handles bedrooms, listing type and listing city. In priority
// mode the listing type becomes a rank column instead of a restriction.
func propertyFilter(_ context.Context, q *query.Builder, c *call) (*query.Builder, error) {
	req := c.req
	if req.Bedrooms != nil {
		q = q.Where(query.Eq("p.bedrooms", *req.Bedrooms))
	} else {
		if req.BedroomsMin != nil {
			q = q.Where(query.Gte("p.bedrooms", *req.BedroomsMin))
		}
		if req.BedroomsMax != nil {
			q = q.Where(query.Lte("p.bedrooms", *req.BedroomsMax))
		}
	}

	if req.ListingType != "" {
		if req.PropertyMode == PropertyModePriority {
			q = q.Compute(columnTypeRank, query.E("CASE WHEN p.listing_type = ? THEN 1 ELSE 0 END", req.ListingType))
		} else {
			q = q.Where(query.Eq("p.listing_type", req.ListingType))
		}
	}

	city := req.ListingCity
	if city == "" && req.ListingType != "" {
		city = req.UserCity
	}
	if city != "" {
		q = q.Where(query.EqFold("p.listing_city", city))
	}
	return q, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
