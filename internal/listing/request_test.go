package listing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequest_NormalizeClampsPaging(t *testing.T) {
	tests := []struct {
		name             string
		page, perPage    int
		wantPage, wantPP int
	}{
		{"zero values", 0, 0, 1, DefaultPerPage},
		{"negative", -3, -1, 1, DefaultPerPage},
		{"too large", MaxPage + 50, 500, MaxPage, MaxPerPage},
		{"in range", 3, 40, 3, 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Request{Page: tt.page, PerPage: tt.perPage}
			r.Normalize()
			assert.Equal(t, tt.wantPage, r.Page)
			assert.Equal(t, tt.wantPP, r.PerPage)
		})
	}
}

func TestRequest_NormalizeTidiesFields(t *testing.T) {
	minPrice := -10.0
	r := Request{
		CategoryIDs:  []int64{7, 3, 7},
		CategorySlug: " Phones ",
		Currency:     "kes",
		Country:      "ke",
		Sort:         " Price_ASC",
		ListingType:  "RENT",
		MinPrice:     &minPrice,
	}
	r.Normalize()

	assert.Equal(t, []int64{3, 7}, r.CategoryIDs)
	assert.Equal(t, "phones", r.CategorySlug)
	assert.Equal(t, "KES", r.Currency)
	assert.Equal(t, "KE", r.Country)
	assert.Equal(t, SortPriceAsc, r.Sort)
	assert.Equal(t, "rent", r.ListingType)
	assert.Equal(t, 0.0, *r.MinPrice)
}

func TestRequest_Offset(t *testing.T) {
	r := Request{Page: 3, PerPage: 25}
	assert.Equal(t, 50, r.Offset())
}

func TestRequest_Validate(t *testing.T) {
	badLat := 91.0
	zero := int64(0)
	tests := []struct {
		name    string
		req     Request
		wantErr bool
	}{
		{"empty", Request{}, false},
		{"listing type", Request{ListingType: "sale", PropertyMode: "priority"}, false},
		{"unknown listing type", Request{ListingType: "lease"}, true},
		{"unknown property mode", Request{PropertyMode: "boost"}, true},
		{"latitude out of range", Request{Lat: &badLat}, true},
		{"non-positive category id", Request{CategoryIDs: []int64{0}}, true},
		{"non-positive fallback parent", Request{FallbackParentID: &zero}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidRequest), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRequest_Views(t *testing.T) {
	assert.True(t, (&Request{View: ViewGrid}).wantsCards())
	assert.True(t, (&Request{Lean: true, View: ViewFull}).wantsCards())
	assert.False(t, (&Request{View: ViewFull}).wantsCards())
}

func TestRequest_GeoLocationPrefersUser(t *testing.T) {
	r := Request{City: "Hargeisa", UserCity: "Mogadishu", Region: "Banaadir", Country: "SO"}
	assert.Equal(t, "Mogadishu", r.geoCity())
	assert.Equal(t, "Banaadir", r.geoRegion())
	assert.Equal(t, "SO", r.geoCountry())
}
