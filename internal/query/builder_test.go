package query

import (
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestBuilder_BasicSelect(t *testing.T) {
	sql, args := From("products.products p").
		Select("p.id", "p.name").
		Build()

	assert.Equal(t, "SELECT p.id, p.name FROM products.products p", sql)
	assert.Empty(t, args)
}

func TestBuilder_SelectAllColumns(t *testing.T) {
	sql, _ := From("products.products p").Build()
	assert.Equal(t, "SELECT * FROM products.products p", sql)
}

func TestBuilder_WhereConditionsNumberPlaceholdersInOrder(t *testing.T) {
	sql, args := From("products.products p").
		Select("p.id").
		Where(Eq("p.status", "published")).
		Where(Gte("p.price", 10.0)).
		Where(Lte("p.price", 20.0)).
		Build()

	assert.Equal(t, "SELECT p.id FROM products.products p WHERE p.status = $1 AND p.price >= $2 AND p.price <= $3", sql)
	assert.Equal(t, []interface{}{"published", 10.0, 20.0}, args)
}

func TestBuilder_ComputedColumnsBindBeforeWhere(t *testing.T) {
	sql, args := From("products.products p").
		Select("p.id").
		Compute("geo_rank", E("CASE WHEN p.city = ? THEN 1 ELSE 0 END", "Addis Ababa")).
		Where(Eq("p.vendor_id", int64(9))).
		OrderBy("geo_rank", Desc).
		Limit(20).
		Offset(40).
		Build()

	assert.Equal(t,
		"SELECT p.id, CASE WHEN p.city = $1 THEN 1 ELSE 0 END AS geo_rank FROM products.products p WHERE p.vendor_id = $2 ORDER BY geo_rank DESC LIMIT $3 OFFSET $4",
		sql)
	assert.Equal(t, []interface{}{"Addis Ababa", int64(9), 20, 40}, args)
}

func TestBuilder_OrderByNulls(t *testing.T) {
	sql, _ := From("t").
		Select("id").
		OrderBy("sales_count", Desc, NullsLast).
		OrderBy("created_at", Desc).
		OrderBy("price", Asc, NullsFirst).
		Build()

	assert.Equal(t, "SELECT id FROM t ORDER BY sales_count DESC NULLS LAST, created_at DESC, price ASC NULLS FIRST", sql)
}

func TestBuilder_ZeroOffsetIsOmitted(t *testing.T) {
	sql, args := From("t").Select("id").Limit(5).Offset(0).Build()
	assert.Equal(t, "SELECT id FROM t LIMIT $1", sql)
	assert.Equal(t, []interface{}{5}, args)
}

func TestBuilder_CountDropsComputedOrderingAndPaging(t *testing.T) {
	base := From("products.products p").
		Join("JOIN products.vendors v ON v.id = p.vendor_id").
		Select("p.id").
		Compute("geo_rank", E("CASE WHEN v.city = ? THEN 1 ELSE 0 END", "Nairobi")).
		Where(Eq("p.status", "published")).
		OrderBy("geo_rank", Desc).
		Limit(10).
		Offset(10)

	sql, args := base.Count().Build()

	assert.Equal(t, "SELECT COUNT(*) FROM products.products p JOIN products.vendors v ON v.id = p.vendor_id WHERE p.status = $1", sql)
	assert.Equal(t, []interface{}{"published"}, args)
}

func TestBuilder_IsImmutable(t *testing.T) {
	base := From("t").Select("id").Where(Eq("a", 1))

	primary := base.Where(AnyOf("category_id", []int64{1, 2}))
	others := base.Where(Or(IsNull("category_id"), NotAnyOf("category_id", []int64{1, 2})))

	baseSQL, _ := base.Build()
	primarySQL, primaryArgs := primary.Build()
	othersSQL, _ := others.Build()

	assert.Equal(t, "SELECT id FROM t WHERE a = $1", baseSQL)
	assert.Equal(t, "SELECT id FROM t WHERE a = $1 AND category_id = ANY($2)", primarySQL)
	assert.Equal(t, "SELECT id FROM t WHERE a = $1 AND (category_id IS NULL OR NOT (category_id = ANY($2)))", othersSQL)
	assert.Equal(t, pq.Array([]int64{1, 2}), primaryArgs[1])
}

func TestBuilder_ComputeReplacesExistingAlias(t *testing.T) {
	b := From("t").Compute("rank", E("1")).Compute("rank", E("2"))
	sql, _ := b.Build()
	assert.Equal(t, "SELECT 2 AS rank FROM t", sql)
	assert.True(t, b.HasColumn("rank"))
	assert.False(t, b.HasColumn("distance_km"))
}

func TestExpr_RenderPanicsOnMarkerMismatch(t *testing.T) {
	assert.Panics(t, func() { E("a = ? AND b = ?", 1).Render(&Args{}) })
	assert.Panics(t, func() { E("a = ?", 1, 2).Render(&Args{}) })
}

func TestEqFold(t *testing.T) {
	sql, args := From("t").Select("id").Where(EqFold("city", "Mogadishu")).Build()
	assert.Equal(t, "SELECT id FROM t WHERE LOWER(city) = LOWER($1)", sql)
	assert.Equal(t, []interface{}{"Mogadishu"}, args)
}
