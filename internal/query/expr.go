package query

import "strings"

// Expr is a SQL fragment with '?' markers and the values bound to them, in order.
// Rendering turns each marker into a positional placeholder.
type Expr struct {
	SQL  string
	Args []interface{}
}

// E builds an Expr.
func E(sql string, args ...interface{}) Expr {
	return Expr{SQL: sql, Args: args}
}

// Render writes the fragment, binding its values through args.
// It panics if the number of markers and values disagree.
func (e Expr) Render(args *Args) string {
	if len(e.Args) == 0 {
		return e.SQL
	}
	var b strings.Builder
	next := 0
	for i := 0; i < len(e.SQL); i++ {
		if e.SQL[i] != '?' {
			b.WriteByte(e.SQL[i])
			continue
		}
		if next >= len(e.Args) {
			panic("query: more '?' markers than arguments in " + e.SQL)
		}
		b.WriteString(args.Add(e.Args[next]))
		next++
	}
	if next != len(e.Args) {
		panic("query: fewer '?' markers than arguments in " + e.SQL)
	}
	return b.String()
}
