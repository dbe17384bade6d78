package domain

import (
	"time"
)

// Product status values. Only published products are listed.
const (
	StatusPublished = "published"
	StatusDraft     = "draft"
)

// Listing types for property products.
const (
	ListingTypeSale = "sale"
	ListingTypeRent = "rent"
)

// Category represents a product category. Categories form a tree through ParentCategoryID.
type Category struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	Slug             string    `json:"slug"`
	ParentCategoryID *int64    `json:"parent_category_id,omitempty"` // Pointer for nullable fields
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// VendorSummary is the vendor data joined onto a listed product.
type VendorSummary struct {
	ID                  int64    `json:"id"`
	StoreName           *string  `json:"store_name,omitempty"`
	DisplayName         *string  `json:"display_name,omitempty"`
	Verified            bool     `json:"verified"`
	RegistrationCountry *string  `json:"registration_country,omitempty"`
	RegistrationRegion  *string  `json:"registration_region,omitempty"`
	RegistrationCity    *string  `json:"registration_city,omitempty"`
	Latitude            *float64 `json:"latitude,omitempty"`
	Longitude           *float64 `json:"longitude,omitempty"`
}

// Name returns the store name, falling back to the display name.
func (v *VendorSummary) Name() string {
	if v == nil {
		return ""
	}
	if v.StoreName != nil && *v.StoreName != "" {
		return *v.StoreName
	}
	if v.DisplayName != nil {
		return *v.DisplayName
	}
	return ""
}

// Product is a catalog product as read by the listing engine.
// Price fields are float64 on the wire; conversion rounding uses decimal arithmetic.
type Product struct {
	ID                int64          `json:"id"`
	Name              string         `json:"name"`
	Price             float64        `json:"price"`
	SalePrice         *float64       `json:"sale_price,omitempty"`
	Currency          string         `json:"currency"`
	CategoryID        *int64         `json:"category_id,omitempty"`
	CategorySlug      *string        `json:"category_slug,omitempty"`
	CategoryName      *string        `json:"category_name,omitempty"`
	VendorID          int64          `json:"vendor_id"`
	Vendor            *VendorSummary `json:"vendor,omitempty"`
	Status            string         `json:"status,omitempty"`
	IsBlocked         bool           `json:"is_blocked"`
	AverageRating     *float64       `json:"average_rating,omitempty"`
	RatingCount       int            `json:"rating_count"`
	SalesCount        int            `json:"sales_count"`
	ViewCount         int            `json:"view_count"`
	Featured          bool           `json:"featured"`
	FeaturedExpiresAt *time.Time     `json:"featured_expires_at,omitempty"`
	ListingType       *string        `json:"listing_type,omitempty"`
	Bedrooms          *int           `json:"bedrooms,omitempty"`
	ListingCity       *string        `json:"listing_city,omitempty"`
	ImageURL          *string        `json:"image_url,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`

	// Computed per query, never persisted.
	GeoRank    *int     `json:"geo_rank,omitempty"`
	DistanceKm *float64 `json:"distance_km,omitempty"`
}

// ProductCard is the lean projection returned for list/grid views.
type ProductCard struct {
	ID             int64    `json:"id"`
	Name           string   `json:"name"`
	Price          float64  `json:"price"`
	SalePrice      *float64 `json:"sale_price,omitempty"`
	Currency       string   `json:"currency"`
	ImageURL       *string  `json:"image_url,omitempty"`
	CategoryID     *int64   `json:"category_id,omitempty"`
	VendorID       int64    `json:"vendor_id"`
	VendorName     string   `json:"vendor_name,omitempty"`
	VendorVerified bool     `json:"vendor_verified"`
	AverageRating  *float64 `json:"average_rating,omitempty"`
	RatingCount    int      `json:"rating_count"`
	SalesCount     int      `json:"sales_count"`
	Featured       bool     `json:"featured"`
	ListingType    *string  `json:"listing_type,omitempty"`
	Bedrooms       *int     `json:"bedrooms,omitempty"`
	ListingCity    *string  `json:"listing_city,omitempty"`
	DistanceKm     *float64 `json:"distance_km,omitempty"`
	GeoRank        *int     `json:"geo_rank,omitempty"`
}

// IsFeaturedAt reports whether the featured flag is still in effect at now.
func (p *Product) IsFeaturedAt(now time.Time) bool {
	if !p.Featured {
		return false
	}
	return p.FeaturedExpiresAt == nil || p.FeaturedExpiresAt.After(now)
}

// Card maps the product to its lean projection.
func (p *Product) Card(now time.Time) ProductCard {
	card := ProductCard{
		ID:            p.ID,
		Name:          p.Name,
		Price:         p.Price,
		SalePrice:     p.SalePrice,
		Currency:      p.Currency,
		ImageURL:      p.ImageURL,
		CategoryID:    p.CategoryID,
		VendorID:      p.VendorID,
		AverageRating: p.AverageRating,
		RatingCount:   p.RatingCount,
		SalesCount:    p.SalesCount,
		Featured:      p.IsFeaturedAt(now),
		ListingType:   p.ListingType,
		Bedrooms:      p.Bedrooms,
		ListingCity:   p.ListingCity,
		DistanceKm:    p.DistanceKm,
		GeoRank:       p.GeoRank,
	}
	if p.Vendor != nil {
		card.VendorName = p.Vendor.Name()
		card.VendorVerified = p.Vendor.Verified
	}
	return card
}
