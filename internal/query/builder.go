package query

import (
	"fmt"
	"strings"
)

// Direction represents ORDER BY direction.
type Direction int

const (
	// Asc represents ascending order.
	Asc Direction = iota
	// Desc represents descending order.
	Desc
)

// Nulls controls where NULLs land in an ordering.
type Nulls int

const (
	// NullsDefault leaves placement to the database.
	NullsDefault Nulls = iota
	// NullsLast appends NULLS LAST.
	NullsLast
	// NullsFirst appends NULLS FIRST.
	NullsFirst
)

// Order is one ORDER BY term.
type Order struct {
	Column    string
	Direction Direction
	Nulls     Nulls
}

func (o Order) String() string {
	s := o.Column
	if o.Direction == Desc {
		s += " DESC"
	} else {
		s += " ASC"
	}
	switch o.Nulls {
	case NullsLast:
		s += " NULLS LAST"
	case NullsFirst:
		s += " NULLS FIRST"
	}
	return s
}

// Column is a computed SELECT expression exposed under an alias.
type Column struct {
	Alias string
	Expr  Expr
}

// Builder constructs Postgres SELECT statements.
// It is immutable: every method returns a modified copy, so a partially built
// query can be branched (e.g. into category partitions) without the branches
// affecting each other or the original.
type Builder struct {
	table        string
	joins        []string
	selectCols   []string
	computed     []Column
	whereClauses []Condition
	orderBy      []Order
	limitVal     int
	offsetVal    int
}

// From creates a new Builder for the specified table expression.
func From(table string) *Builder {
	return &Builder{table: table}
}

// Join adds a raw JOIN clause, e.g. "JOIN vendors v ON v.id = p.vendor_id".
func (b *Builder) Join(clause string) *Builder {
	nb := b.clone()
	nb.joins = append(nb.joins, clause)
	return nb
}

// Select appends plain columns.
func (b *Builder) Select(columns ...string) *Builder {
	nb := b.clone()
	nb.selectCols = append(nb.selectCols, columns...)
	return nb
}

// Compute adds a computed column. Adding an alias twice replaces the earlier expression.
func (b *Builder) Compute(alias string, expr Expr) *Builder {
	nb := b.clone()
	for i, c := range nb.computed {
		if c.Alias == alias {
			nb.computed[i].Expr = expr
			return nb
		}
	}
	nb.computed = append(nb.computed, Column{Alias: alias, Expr: expr})
	return nb
}

// HasColumn reports whether a computed column with alias is present.
func (b *Builder) HasColumn(alias string) bool {
	for _, c := range b.computed {
		if c.Alias == alias {
			return true
		}
	}
	return false
}

// Where adds a WHERE condition. Multiple calls are combined with AND.
func (b *Builder) Where(condition Condition) *Builder {
	nb := b.clone()
	nb.whereClauses = append(nb.whereClauses, condition)
	return nb
}

// OrderBy appends an ordering term.
func (b *Builder) OrderBy(column string, direction Direction, nulls ...Nulls) *Builder {
	nb := b.clone()
	o := Order{Column: column, Direction: direction}
	if len(nulls) > 0 {
		o.Nulls = nulls[0]
	}
	nb.orderBy = append(nb.orderBy, o)
	return nb
}

// Ordering returns the ORDER BY terms in application order.
func (b *Builder) Ordering() []Order {
	out := make([]Order, len(b.orderBy))
	copy(out, b.orderBy)
	return out
}

// Limit sets the maximum number of rows to return.
func (b *Builder) Limit(limit int) *Builder {
	nb := b.clone()
	nb.limitVal = limit
	return nb
}

// Offset sets the number of rows to skip.
func (b *Builder) Offset(offset int) *Builder {
	nb := b.clone()
	nb.offsetVal = offset
	return nb
}

// Page returns the limit and offset currently set.
func (b *Builder) Page() (limit, offset int) {
	return b.limitVal, b.offsetVal
}

// Count returns a builder that counts rows matching the same FROM, JOIN and WHERE.
// Computed columns, ordering and pagination are dropped.
func (b *Builder) Count() *Builder {
	nb := b.clone()
	nb.selectCols = []string{"COUNT(*)"}
	nb.computed = nil
	nb.orderBy = nil
	nb.limitVal = 0
	nb.offsetVal = 0
	return nb
}

// Build renders the SQL text and its positional arguments.
func (b *Builder) Build() (string, []interface{}) {
	var sql strings.Builder
	args := &Args{}

	sql.WriteString("SELECT ")
	cols := make([]string, 0, len(b.selectCols)+len(b.computed))
	cols = append(cols, b.selectCols...)
	for _, c := range b.computed {
		cols = append(cols, fmt.Sprintf("%s AS %s", c.Expr.Render(args), c.Alias))
	}
	if len(cols) == 0 {
		sql.WriteString("*")
	} else {
		sql.WriteString(strings.Join(cols, ", "))
	}

	sql.WriteString(" FROM ")
	sql.WriteString(b.table)
	for _, j := range b.joins {
		sql.WriteString(" ")
		sql.WriteString(j)
	}

	if len(b.whereClauses) > 0 {
		parts := make([]string, 0, len(b.whereClauses))
		for _, cond := range b.whereClauses {
			parts = append(parts, cond.SQL(args))
		}
		sql.WriteString(" WHERE ")
		sql.WriteString(strings.Join(parts, " AND "))
	}

	if len(b.orderBy) > 0 {
		parts := make([]string, 0, len(b.orderBy))
		for _, o := range b.orderBy {
			parts = append(parts, o.String())
		}
		sql.WriteString(" ORDER BY ")
		sql.WriteString(strings.Join(parts, ", "))
	}

	if b.limitVal > 0 {
		sql.WriteString(" LIMIT ")
		sql.WriteString(args.Add(b.limitVal))
	}
	if b.offsetVal > 0 {
		sql.WriteString(" OFFSET ")
		sql.WriteString(args.Add(b.offsetVal))
	}

	return sql.String(), args.Values()
}

// String returns a human-readable representation for debugging.
func (b *Builder) String() string {
	sql, args := b.Build()
	return fmt.Sprintf("SQL: %s\nArgs: %v", sql, args)
}

func (b *Builder) clone() *Builder {
	nb := &Builder{
		table:        b.table,
		joins:        make([]string, len(b.joins)),
		selectCols:   make([]string, len(b.selectCols)),
		computed:     make([]Column, len(b.computed)),
		whereClauses: make([]Condition, len(b.whereClauses)),
		orderBy:      make([]Order, len(b.orderBy)),
		limitVal:     b.limitVal,
		offsetVal:    b.offsetVal,
	}
	copy(nb.joins, b.joins)
	copy(nb.selectCols, b.selectCols)
	copy(nb.computed, b.computed)
	copy(nb.whereClauses, b.whereClauses)
	copy(nb.orderBy, b.orderBy)
	return nb
}
