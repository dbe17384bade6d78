package listing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func blendCatalog() *memoryCatalog {
	return catalogOf(
		productsIn(10, 1, 2, 3, 4, 5, 6, 7),
		productsIn(20, 101, 102, 103),
	)
}

func TestPaginate_BlendsOthersIntoShortPrimaryPage(t *testing.T) {
	catalog := blendCatalog()
	p := NewCategoryFirstPaginator(catalog)

	res, err := p.Paginate(context.Background(), baseQuery(false), PageRequest{
		CategoryIDs: []int64{10}, Page: 2, PerPage: 5,
	})

	require.NoError(t, err)
	assert.Equal(t, []int64{6, 7, 101, 102, 103}, idsOf(res.Items))
	assert.Equal(t, 10, res.Total)
	assert.Equal(t, PageMeta{PrimaryTotal: 7, OthersTotal: 3, UsedOthers: true}, res.Meta)
}

func TestPaginate_FirstPageStaysInPrimary(t *testing.T) {
	catalog := blendCatalog()
	p := NewCategoryFirstPaginator(catalog)

	res, err := p.Paginate(context.Background(), baseQuery(false), PageRequest{
		CategoryIDs: []int64{10}, Page: 1, PerPage: 5,
	})

	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, idsOf(res.Items))
	assert.False(t, res.Meta.UsedOthers)
	assert.Len(t, catalog.fetches, 1)
}

func TestPaginate_PastPrimaryContinuesInOthers(t *testing.T) {
	p := NewCategoryFirstPaginator(blendCatalog())

	res, err := p.Paginate(context.Background(), baseQuery(false), PageRequest{
		CategoryIDs: []int64{10}, Page: 3, PerPage: 4,
	})

	require.NoError(t, err)
	// start = 8, others offset = 1
	assert.Equal(t, []int64{102, 103}, idsOf(res.Items))
	assert.True(t, res.Meta.UsedOthers)
	assert.Equal(t, 10, res.Total)
}

func TestPaginate_PastEverythingIsEmpty(t *testing.T) {
	p := NewCategoryFirstPaginator(blendCatalog())

	res, err := p.Paginate(context.Background(), baseQuery(false), PageRequest{
		CategoryIDs: []int64{10}, Page: 4, PerPage: 5,
	})

	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.Equal(t, 10, res.Total)
	assert.False(t, res.Meta.UsedOthers)
}

func TestPaginate_StrictNeverSurfacesOthers(t *testing.T) {
	catalog := blendCatalog()
	p := NewCategoryFirstPaginator(catalog)

	res, err := p.Paginate(context.Background(), baseQuery(false), PageRequest{
		CategoryIDs: []int64{10}, Page: 2, PerPage: 5, Strict: true, GeoAppend: true,
	})

	require.NoError(t, err)
	assert.Equal(t, []int64{6, 7}, idsOf(res.Items))
	assert.Equal(t, 7, res.Total)
	assert.Equal(t, PageMeta{PrimaryTotal: 7}, res.Meta)
	for _, item := range res.Items {
		assert.Equal(t, int64(10), *item.CategoryID)
	}
	assert.Len(t, catalog.counts, 1, "strict mode must not count others")
}

func TestPaginate_StrictPastPrimaryIsEmpty(t *testing.T) {
	p := NewCategoryFirstPaginator(blendCatalog())

	res, err := p.Paginate(context.Background(), baseQuery(false), PageRequest{
		CategoryIDs: []int64{10}, Page: 3, PerPage: 5, Strict: true,
	})

	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.Equal(t, 7, res.Total)
}

func TestPaginate_UncategorisedProductsCountAsOthers(t *testing.T) {
	catalog := catalogOf(productsIn(10, 1, 2))
	catalog.products = append(catalog.products, productsIn(10, 50)[0])
	catalog.products[2].CategoryID = nil
	p := NewCategoryFirstPaginator(catalog)

	res, err := p.Paginate(context.Background(), baseQuery(false), PageRequest{
		CategoryIDs: []int64{10}, Page: 1, PerPage: 5,
	})

	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 50}, idsOf(res.Items))
	assert.Equal(t, 3, res.Total)
}

func TestPaginate_GeoAppendTopsUpExcludingPageItems(t *testing.T) {
	catalog := catalogOf(productsIn(10, 1, 2), productsIn(20, 101))
	p := NewCategoryFirstPaginator(catalog)

	res, err := p.Paginate(context.Background(), baseQuery(false), PageRequest{
		CategoryIDs: []int64{10}, Page: 2, PerPage: 5, GeoAppend: true,
	})

	require.NoError(t, err)
	// Both partitions are exhausted on page 2; the filler draws from the whole base query.
	assert.Equal(t, []int64{1, 2, 101}, idsOf(res.Items))
	assert.True(t, res.Meta.GeoFilled)
	assert.False(t, res.Meta.UsedOthers)
}

func TestPaginate_GeoAppendSkipsIncludedIDs(t *testing.T) {
	catalog := catalogOf(productsIn(10, 1, 2), productsIn(20, 101))
	p := NewCategoryFirstPaginator(catalog)

	res, err := p.Paginate(context.Background(), baseQuery(false), PageRequest{
		CategoryIDs: []int64{10}, Page: 1, PerPage: 5, GeoAppend: true,
	})

	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 101}, idsOf(res.Items))
	assert.True(t, res.Meta.UsedOthers)
	assert.False(t, res.Meta.GeoFilled)
	assert.Contains(t, catalog.fetches[len(catalog.fetches)-1], "NOT (p.id = ANY(")
}

func TestPaginate_CountErrorIsWrapped(t *testing.T) {
	products := new(MockProductQuerier)
	products.On("CountProducts", mock.Anything, mock.Anything).Return(0, errors.New("connection reset")).Once()
	p := NewCategoryFirstPaginator(products)

	_, err := p.Paginate(context.Background(), baseQuery(false), PageRequest{
		CategoryIDs: []int64{10}, Page: 1, PerPage: 5,
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "count primary")
	products.AssertExpectations(t)
}

func TestPaginate_DoesNotMutateBase(t *testing.T) {
	base := baseQuery(false)
	before, _ := base.Build()

	_, err := NewCategoryFirstPaginator(blendCatalog()).Paginate(context.Background(), base, PageRequest{
		CategoryIDs: []int64{10}, Page: 2, PerPage: 5, GeoAppend: true,
	})

	require.NoError(t, err)
	after, _ := base.Build()
	assert.Equal(t, before, after)
}
