package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ptrTo[T any](v T) *T {
	return &v
}

func TestProduct_IsFeaturedAt(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		product Product
		want    bool
	}{
		{"not featured", Product{Featured: false}, false},
		{"featured without expiry", Product{Featured: true}, true},
		{"featured until tomorrow", Product{Featured: true, FeaturedExpiresAt: ptrTo(now.Add(24 * time.Hour))}, true},
		{"featured expired", Product{Featured: true, FeaturedExpiresAt: ptrTo(now.Add(-time.Second))}, false},
		{"expiring exactly now", Product{Featured: true, FeaturedExpiresAt: ptrTo(now)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.product.IsFeaturedAt(now))
		})
	}
}

func TestProduct_Card(t *testing.T) {
	now := time.Now()
	p := Product{
		ID:          42,
		Name:        "Two bedroom apartment",
		Price:       1200,
		SalePrice:   ptrTo(1100.0),
		Currency:    "USD",
		CategoryID:  ptrTo(int64(7)),
		VendorID:    3,
		Vendor:      &VendorSummary{ID: 3, DisplayName: ptrTo("Hodan"), Verified: true},
		RatingCount: 4,
		SalesCount:  9,
		Featured:    true,
		ListingType: ptrTo(ListingTypeRent),
		Bedrooms:    ptrTo(2),
		GeoRank:     ptrTo(4),
	}

	card := p.Card(now)

	assert.Equal(t, int64(42), card.ID)
	assert.Equal(t, "Hodan", card.VendorName, "display name is used when store name is missing")
	assert.True(t, card.VendorVerified)
	assert.True(t, card.Featured)
	assert.Equal(t, 1100.0, *card.SalePrice)
	assert.Equal(t, 4, *card.GeoRank)
	assert.Equal(t, ListingTypeRent, *card.ListingType)
}

func TestVendorSummary_NamePrefersStoreName(t *testing.T) {
	v := &VendorSummary{StoreName: ptrTo("Suuq Electronics"), DisplayName: ptrTo("Abdi")}
	assert.Equal(t, "Suuq Electronics", v.Name())

	var nilVendor *VendorSummary
	assert.Equal(t, "", nilVendor.Name())
}
