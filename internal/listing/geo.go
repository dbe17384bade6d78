package listing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"product-listing-service/internal/pkg/clock"
	"product-listing-service/internal/pkg/ttlcache"
	"product-listing-service/internal/query"
	"product-listing-service/internal/store"
)

// EarthRadiusKm is the mean Earth radius used for great-circle distances.
const EarthRadiusKm = 6371.0

// eastAfricaCountries earn geo rank 1 when nothing closer matches.
var eastAfricaCountries = []string{"ET", "SO", "KE", "DJ"}

// Geo ranks, highest first.
const (
	geoRankPropertyCity = 5
	geoRankCity         = 4
	geoRankRegion       = 3
	geoRankCountry      = 2
	geoRankEastAfrica   = 1
)

// geoRanker computes the geo_rank column and the plain location filters.
// The property category subtree it needs is cached for a fixed TTL.
type geoRanker struct {
	categories   store.CategoryStorer
	propertySlug string
	subtree      *ttlcache.Cache[[]int64]
}

func newGeoRanker(categories store.CategoryStorer, propertySlug string, ttl time.Duration, clk clock.Clock) *geoRanker {
	return &geoRanker{
		categories:   categories,
		propertySlug: propertySlug,
		subtree:      ttlcache.New[[]int64](ttl, clk),
	}
}

// propertySubtree returns the ids of the property category and all its descendants.
// A missing property category yields an empty set.
func (g *geoRanker) propertySubtree(ctx context.Context) ([]int64, error) {
	return g.subtree.Get(ctx, func(ctx context.Context) ([]int64, error) {
		if g.propertySlug == "" {
			return []int64{}, nil
		}
		root, err := g.categories.GetCategoryBySlug(ctx, g.propertySlug)
		if err != nil {
			if errors.Is(err, store.ErrCategoryNotFound) {
				return []int64{}, nil
			}
			return nil, err
		}
		return g.categories.ListDescendantIDs(ctx, root.ID)
	})
}

// filter adds geo_rank when geo priority is requested; otherwise it restricts
// vendors to the requested country, region and city.
func (g *geoRanker) filter(ctx context.Context, q *query.Builder, c *call) (*query.Builder, error) {
	req := c.req
	if !req.GeoPriority {
		if req.Country != "" {
			q = q.Where(query.Raw(query.E("UPPER(v.registration_country) = ?", req.Country)))
		}
		if req.Region != "" {
			q = q.Where(query.EqFold("v.registration_region", req.Region))
		}
		if req.City != "" {
			q = q.Where(query.EqFold("v.registration_city", req.City))
		}
		return q, nil
	}

	propertyIDs, err := g.propertySubtree(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing: property subtree: %w", err)
	}
	c.debug.PropertySubtreeSize = len(propertyIDs)
	return q.Compute(columnGeoRank, geoRankExpr(req.geoCity(), req.geoRegion(), req.geoCountry(), propertyIDs)), nil
}

// geoRankExpr builds one CASE expression. Branches whose input is missing are left out.
func geoRankExpr(city, region, country string, propertyIDs []int64) query.Expr {
	var b strings.Builder
	var args []interface{}

	b.WriteString("CASE")
	if city != "" && len(propertyIDs) > 0 {
		fmt.Fprintf(&b, " WHEN LOWER(COALESCE(p.listing_city, v.registration_city)) = LOWER(?) AND p.category_id = ANY(?) THEN %d", geoRankPropertyCity)
		args = append(args, city, query.Array(propertyIDs))
	}
	if city != "" {
		fmt.Fprintf(&b, " WHEN LOWER(v.registration_city) = LOWER(?) THEN %d", geoRankCity)
		args = append(args, city)
	}
	if region != "" {
		fmt.Fprintf(&b, " WHEN LOWER(v.registration_region) = LOWER(?) THEN %d", geoRankRegion)
		args = append(args, region)
	}
	if country != "" {
		fmt.Fprintf(&b, " WHEN UPPER(v.registration_country) = ? THEN %d", geoRankCountry)
		args = append(args, strings.ToUpper(country))
	}
	fmt.Fprintf(&b, " WHEN UPPER(v.registration_country) = ANY(?) THEN %d ELSE 0 END", geoRankEastAfrica)
	args = append(args, query.Array(eastAfricaCountries))

	return query.E(b.String(), args...)
}

// haversineExpr is the great-circle distance in km from (lat, lng) to the vendor,
// NULL when the vendor has no coordinates. LEAST guards ASIN against rounding above 1.
func haversineExpr(lat, lng float64) query.Expr {
	return query.E(
		"CASE WHEN v.latitude IS NULL OR v.longitude IS NULL THEN NULL ELSE "+
			fmt.Sprintf("%g", EarthRadiusKm)+" * 2 * ASIN(LEAST(1, SQRT("+
			"POWER(SIN(RADIANS(v.latitude - ?) / 2), 2) + "+
			"COS(RADIANS(?)) * COS(RADIANS(v.latitude)) * POWER(SIN(RADIANS(v.longitude - ?) / 2), 2)"+
			"))) END",
		lat, lat, lng,
	)
}

// distanceFilter adds distance_km when a point is given and restricts to the radius when one is given.
func distanceFilter(_ context.Context, q *query.Builder, c *call) (*query.Builder, error) {
	req := c.req
	if !req.hasPoint() {
		return q, nil
	}
	lat, lng := *req.Lat, *req.Lng
	q = q.Compute(columnDistance, haversineExpr(lat, lng))
	if req.RadiusKm == nil {
		return q, nil
	}
	radius := *req.RadiusKm
	if box, ok := boundingBox(lat, lng, radius); ok {
		q = q.Where(query.Gte("v.latitude", box.MinLat)).
			Where(query.Lte("v.latitude", box.MaxLat)).
			Where(query.Gte("v.longitude", box.MinLng)).
			Where(query.Lte("v.longitude", box.MaxLng))
	}
	expr := haversineExpr(lat, lng)
	return q.Where(query.Raw(query.E("("+expr.SQL+") <= ?", append(expr.Args, radius)...))), nil
}

// Box is a latitude/longitude rectangle in degrees.
type Box struct {
	MinLat, MaxLat, MinLng, MaxLng float64
}

// boundingBox returns a rectangle containing every point within radiusKm of (lat, lng).
// ok is false when the rectangle would cross a pole or the antimeridian.
func boundingBox(lat, lng, radiusKm float64) (Box, bool) {
	angular := radiusKm / EarthRadiusKm
	dLat := angular * 180 / math.Pi
	minLat, maxLat := lat-dLat, lat+dLat
	if minLat <= -90 || maxLat >= 90 {
		return Box{}, false
	}
	// Widest longitude span is at the latitude farthest from the equator.
	maxAbsLat := math.Max(math.Abs(minLat), math.Abs(maxLat)) * math.Pi / 180
	ratio := math.Sin(angular) / math.Cos(maxAbsLat)
	if ratio >= 1 {
		return Box{}, false
	}
	dLng := math.Asin(ratio) * 180 / math.Pi
	minLng, maxLng := lng-dLng, lng+dLng
	if minLng < -180 || maxLng > 180 {
		return Box{}, false
	}
	return Box{MinLat: minLat, MaxLat: maxLat, MinLng: minLng, MaxLng: maxLng}, true
}
