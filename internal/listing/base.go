package listing

import (
	"product-listing-service/internal/domain"
	"product-listing-service/internal/query"
)

const (
	productsTable  = "products.products p"
	vendorJoin     = "JOIN products.vendors v ON v.id = p.vendor_id"
	categoryJoin   = "LEFT JOIN products.categories c ON c.id = p.category_id"
	tagsTable      = "products.product_tags"
	columnGeoRank  = "geo_rank"
	columnDistance = "distance_km"
	columnTypeRank = "listing_type_rank"
)

var cardColumns = []string{
	"p.id", "p.name", "p.price", "p.sale_price", "p.currency", "p.category_id", "p.vendor_id",
	"p.average_rating", "p.rating_count", "p.sales_count", "p.featured", "p.featured_expires_at",
	"p.listing_type", "p.bedrooms", "p.listing_city", "p.image_url", "p.created_at",
	"v.store_name AS vendor_store_name", "v.display_name AS vendor_display_name", "v.verified AS vendor_verified",
}

var fullColumns = append(append([]string{}, cardColumns...),
	"p.status", "p.is_blocked", "p.view_count",
	"v.registration_country AS vendor_country", "v.registration_region AS vendor_region",
	"v.registration_city AS vendor_city", "v.latitude AS vendor_latitude", "v.longitude AS vendor_longitude",
	"c.slug AS category_slug", "c.name AS category_name",
)

// baseQuery selects published, unblocked products joined to their vendor and category.
// Grid views only select the columns a product card needs.
func baseQuery(grid bool) *query.Builder {
	cols := fullColumns
	if grid {
		cols = cardColumns
	}
	return query.From(productsTable).
		Join(vendorJoin).
		Join(categoryJoin).
		Select(cols...).
		Where(query.Eq("p.status", domain.StatusPublished)).
		Where(query.Eq("p.is_blocked", false))
}
