package listing

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Pagination bounds.
const (
	DefaultPerPage = 20
	MaxPerPage     = 100
	MaxPage        = 1000
)

// View modes.
const (
	ViewGrid = "grid"
	ViewFull = "full"
)

// Property filter modes. In priority mode a listing type ranks matches first
// instead of excluding everything else.
const (
	PropertyModeFilter   = "filter"
	PropertyModePriority = "priority"
)

// ErrInvalidRequest wraps request validation failures.
var ErrInvalidRequest = errors.New("listing: invalid request")

// Request is a product listing query. All fields are optional.
type Request struct {
	Page    int
	PerPage int

	Search   string `validate:"max=200"`
	VendorID *int64 `validate:"omitempty,gt=0"`
	Tags     []string
	MinPrice *float64
	MaxPrice *float64
	Sort     string
	View     string
	Lean     bool
	Currency string
	Debug    bool

	CategoryIDs        []int64 `validate:"dive,gt=0"`
	CategorySlug       string  `validate:"max=200"`
	IncludeDescendants bool
	CategoryFirst      bool
	StrictCategory     bool
	FallbackParentID   *int64 `validate:"omitempty,gt=0"`

	Country     string
	Region      string
	City        string
	UserCountry string
	UserRegion  string
	UserCity    string
	GeoPriority bool
	GeoAppend   bool

	ListingType  string `validate:"omitempty,oneof=sale rent"`
	PropertyMode string `validate:"omitempty,oneof=filter priority"`
	ListingCity  string
	Bedrooms     *int `validate:"omitempty,gte=0"`
	BedroomsMin  *int `validate:"omitempty,gte=0"`
	BedroomsMax  *int `validate:"omitempty,gte=0"`

	Lat      *float64 `validate:"omitempty,gte=-90,lte=90"`
	Lng      *float64 `validate:"omitempty,gte=-180,lte=180"`
	RadiusKm *float64 `validate:"omitempty,gt=0"`
}

var validate = validator.New()

// Validate rejects malformed input. Out-of-range paging and prices are not
// errors; Normalize clamps them.
func (r *Request) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidRequest, err.Error())
	}
	return nil
}

// Normalize clamps paging, tidies strings and repairs price bounds in place.
func (r *Request) Normalize() {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.Page > MaxPage {
		r.Page = MaxPage
	}
	if r.PerPage < 1 {
		r.PerPage = DefaultPerPage
	}
	if r.PerPage > MaxPerPage {
		r.PerPage = MaxPerPage
	}

	r.Search = strings.TrimSpace(r.Search)
	r.CategorySlug = strings.ToLower(strings.TrimSpace(r.CategorySlug))
	r.Sort = strings.ToLower(strings.TrimSpace(r.Sort))
	r.View = strings.ToLower(strings.TrimSpace(r.View))
	r.Currency = strings.ToUpper(strings.TrimSpace(r.Currency))
	r.Country = strings.ToUpper(strings.TrimSpace(r.Country))
	r.UserCountry = strings.ToUpper(strings.TrimSpace(r.UserCountry))
	r.Region = strings.TrimSpace(r.Region)
	r.UserRegion = strings.TrimSpace(r.UserRegion)
	r.City = strings.TrimSpace(r.City)
	r.UserCity = strings.TrimSpace(r.UserCity)
	r.ListingCity = strings.TrimSpace(r.ListingCity)
	r.ListingType = strings.ToLower(strings.TrimSpace(r.ListingType))
	r.PropertyMode = strings.ToLower(strings.TrimSpace(r.PropertyMode))
	r.Tags = normalizeTags(r.Tags)
	r.CategoryIDs = uniqueIDs(r.CategoryIDs)

	if r.MinPrice != nil && *r.MinPrice < 0 {
		zero := 0.0
		r.MinPrice = &zero
	}
	if r.MaxPrice != nil && *r.MaxPrice < 0 {
		r.MaxPrice = nil
	}
	if r.MinPrice != nil && r.MaxPrice != nil && *r.MinPrice > *r.MaxPrice {
		r.MinPrice, r.MaxPrice = r.MaxPrice, r.MinPrice
	}
	if r.BedroomsMin != nil && r.BedroomsMax != nil && *r.BedroomsMin > *r.BedroomsMax {
		r.BedroomsMin, r.BedroomsMax = r.BedroomsMax, r.BedroomsMin
	}
}

// Offset is the row offset of the requested page.
func (r *Request) Offset() int {
	return (r.Page - 1) * r.PerPage
}

func (r *Request) hasCategoryScope() bool {
	return len(r.CategoryIDs) > 0 || r.CategorySlug != ""
}

func (r *Request) hasPoint() bool {
	return r.Lat != nil && r.Lng != nil
}

func (r *Request) wantsCards() bool {
	return r.Lean || r.View == ViewGrid
}

// geoCity, geoRegion and geoCountry prefer the user's location over the browse location.
func (r *Request) geoCity() string    { return firstNonEmpty(r.UserCity, r.City) }
func (r *Request) geoRegion() string  { return firstNonEmpty(r.UserRegion, r.Region) }
func (r *Request) geoCountry() string { return firstNonEmpty(r.UserCountry, r.Country) }

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func uniqueIDs(ids []int64) []int64 {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
