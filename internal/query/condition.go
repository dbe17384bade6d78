package query

import (
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// Args accumulates positional parameters ($1, $2, ...) while a statement is rendered.
type Args struct {
	values []interface{}
}

// Add appends v and returns its placeholder.
func (a *Args) Add(v interface{}) string {
	a.values = append(a.values, v)
	return fmt.Sprintf("$%d", len(a.values))
}

// Values returns the collected parameters in placeholder order.
func (a *Args) Values() []interface{} {
	return a.values
}

// Condition represents a WHERE clause condition.
// Implementations bind their values through args so placeholders stay in sync.
type Condition interface {
	SQL(args *Args) string
}

// Array wraps a slice so it binds as a Postgres array parameter.
func Array(v interface{}) interface{} {
	return pq.Array(v)
}

type compareCondition struct {
	field string
	op    string
	value interface{}
}

func (c *compareCondition) SQL(args *Args) string {
	return fmt.Sprintf("%s %s %s", c.field, c.op, args.Add(c.value))
}

// Eq generates "field = $n".
func Eq(field string, value interface{}) Condition {
	return &compareCondition{field: field, op: "=", value: value}
}

// Gte generates "field >= $n".
func Gte(field string, value interface{}) Condition {
	return &compareCondition{field: field, op: ">=", value: value}
}

// Lte generates "field <= $n".
func Lte(field string, value interface{}) Condition {
	return &compareCondition{field: field, op: "<=", value: value}
}

// ILike generates "field ILIKE $n". The pattern is bound as given.
func ILike(field string, pattern string) Condition {
	return &compareCondition{field: field, op: "ILIKE", value: pattern}
}

// EqFold generates a case-insensitive equality: "LOWER(field) = LOWER($n)".
func EqFold(field string, value string) Condition {
	return Raw(E(fmt.Sprintf("LOWER(%s) = LOWER(?)", field), value))
}

type anyCondition struct {
	field  string
	values interface{}
	negate bool
}

func (c *anyCondition) SQL(args *Args) string {
	ph := args.Add(pq.Array(c.values))
	if c.negate {
		return fmt.Sprintf("NOT (%s = ANY(%s))", c.field, ph)
	}
	return fmt.Sprintf("%s = ANY(%s)", c.field, ph)
}

// AnyOf generates "field = ANY($n)" with values bound as one array parameter.
func AnyOf(field string, values interface{}) Condition {
	return &anyCondition{field: field, values: values}
}

// NotAnyOf generates "NOT (field = ANY($n))". Rows where field is NULL do not match.
func NotAnyOf(field string, values interface{}) Condition {
	return &anyCondition{field: field, values: values, negate: true}
}

type nullCondition struct {
	field string
	not   bool
}

func (c *nullCondition) SQL(*Args) string {
	if c.not {
		return c.field + " IS NOT NULL"
	}
	return c.field + " IS NULL"
}

// IsNull generates "field IS NULL".
func IsNull(field string) Condition {
	return &nullCondition{field: field}
}

// IsNotNull generates "field IS NOT NULL".
func IsNotNull(field string) Condition {
	return &nullCondition{field: field, not: true}
}

type groupCondition struct {
	op    string
	conds []Condition
}

func (c *groupCondition) SQL(args *Args) string {
	parts := make([]string, 0, len(c.conds))
	for _, cond := range c.conds {
		parts = append(parts, cond.SQL(args))
	}
	return "(" + strings.Join(parts, " "+c.op+" ") + ")"
}

// Or joins conditions with OR inside parentheses.
func Or(conds ...Condition) Condition {
	return &groupCondition{op: "OR", conds: conds}
}

// And joins conditions with AND inside parentheses.
func And(conds ...Condition) Condition {
	return &groupCondition{op: "AND", conds: conds}
}

type rawCondition struct {
	expr Expr
}

func (c *rawCondition) SQL(args *Args) string {
	return c.expr.Render(args)
}

// Raw uses an arbitrary expression as a condition.
func Raw(expr Expr) Condition {
	return &rawCondition{expr: expr}
}
