package api

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"product-listing-service/internal/listing"
)

// queryParser reads query parameters under their snake_case name or any alias.
// The first malformed value is kept in err and later reads become no-ops.
type queryParser struct {
	values url.Values
	err    error
}

func (p *queryParser) raw(names ...string) (string, bool) {
	for _, name := range names {
		if vs, ok := p.values[name]; ok && len(vs) > 0 {
			if v := strings.TrimSpace(vs[0]); v != "" {
				return v, true
			}
		}
	}
	return "", false
}

func (p *queryParser) str(names ...string) string {
	v, _ := p.raw(names...)
	return v
}

// list collects every value of every alias, splitting on commas.
func (p *queryParser) list(names ...string) []string {
	var out []string
	for _, name := range names {
		for _, v := range p.values[name] {
			for _, part := range strings.Split(v, ",") {
				if part = strings.TrimSpace(part); part != "" {
					out = append(out, part)
				}
			}
		}
	}
	return out
}

func (p *queryParser) fail(name string, format string) {
	if p.err == nil {
		p.err = fmt.Errorf(format, name)
	}
}

func (p *queryParser) boolean(names ...string) bool {
	v, ok := p.raw(names...)
	if !ok || p.err != nil {
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(names[0], "invalid %s value: must be true or false")
	}
	return b
}

func (p *queryParser) integer(names ...string) int {
	if n := p.optInt(names...); n != nil {
		return *n
	}
	return 0
}

func (p *queryParser) optInt(names ...string) *int {
	v, ok := p.raw(names...)
	if !ok || p.err != nil {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(names[0], "invalid %s format")
		return nil
	}
	return &n
}

func (p *queryParser) optInt64(names ...string) *int64 {
	v, ok := p.raw(names...)
	if !ok || p.err != nil {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		p.fail(names[0], "invalid %s format")
		return nil
	}
	return &n
}

func (p *queryParser) optFloat(names ...string) *float64 {
	v, ok := p.raw(names...)
	if !ok || p.err != nil {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.fail(names[0], "invalid %s format")
		return nil
	}
	return &f
}

func (p *queryParser) ids(names ...string) []int64 {
	var out []int64
	for _, s := range p.list(names...) {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			p.fail(names[0], "invalid %s format")
			return nil
		}
		out = append(out, id)
	}
	return out
}

// ParseListingRequest maps a query string onto a listing request. It reports
// malformed numbers and booleans; range checks are left to Request.Validate.
func ParseListingRequest(values url.Values) (listing.Request, error) {
	p := &queryParser{values: values}
	req := listing.Request{
		Page:    p.integer("page"),
		PerPage: p.integer("per_page", "perPage", "limit"),

		Search:   p.str("q", "search"),
		VendorID: p.optInt64("vendor_id", "vendorId"),
		Tags:     p.list("tags", "tag"),
		MinPrice: p.optFloat("min_price", "minPrice"),
		MaxPrice: p.optFloat("max_price", "maxPrice"),
		Sort:     p.str("sort", "sort_by", "sortBy"),
		View:     p.str("view"),
		Lean:     p.boolean("lean"),
		Currency: p.str("currency"),
		Debug:    p.boolean("debug"),

		CategoryIDs:        p.ids("category_id", "categoryId", "category_ids", "categoryIds"),
		CategorySlug:       p.str("category_slug", "categorySlug", "category"),
		IncludeDescendants: p.boolean("include_descendants", "includeDescendants"),
		CategoryFirst:      p.boolean("category_first", "categoryFirst"),
		StrictCategory:     p.boolean("strict_category", "strictCategory"),
		FallbackParentID:   p.optInt64("fallback_parent_id", "fallbackParentId", "strict_empty_fallback_parent_id"),

		Country:     p.str("country"),
		Region:      p.str("region"),
		City:        p.str("city"),
		UserCountry: p.str("user_country", "userCountry"),
		UserRegion:  p.str("user_region", "userRegion"),
		UserCity:    p.str("user_city", "userCity"),
		GeoPriority: p.boolean("geo_priority", "geoPriority"),
		GeoAppend:   p.boolean("geo_append", "geoAppend"),

		ListingType:  p.str("listing_type", "listingType"),
		PropertyMode: p.str("property_mode", "propertyMode"),
		ListingCity:  p.str("listing_city", "listingCity"),
		Bedrooms:     p.optInt("bedrooms"),
		BedroomsMin:  p.optInt("bedrooms_min", "bedroomsMin"),
		BedroomsMax:  p.optInt("bedrooms_max", "bedroomsMax"),

		Lat:      p.optFloat("lat"),
		Lng:      p.optFloat("lng", "lon"),
		RadiusKm: p.optFloat("radius_km", "radiusKm", "radius"),
	}
	if p.err != nil {
		return listing.Request{}, fmt.Errorf("%w: %s", listing.ErrInvalidRequest, p.err.Error())
	}
	return req, nil
}
