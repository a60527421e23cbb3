package ticket

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

type Mode int

const (
	Equals Mode = iota
	Contains
	StartsWith
	EndsWith
)

// metaKeys are query arguments that shape the result listing rather than filter it.
var metaKeys = []string{"max", "page", "order", "desc", "group", "groupdesc", "col", "row", "format", "report", "verbose"}

// Constraint is one "field<op>=value1|value2" filter. Values are OR-ed, Negate inverts the result.
type Constraint struct {
	Field  string
	Mode   Mode
	Negate bool
	Values []string
}

type Query struct {
	Constraints []Constraint
}

// NewQuery builds a query from macro arguments such as {"milestone": "Sprint 1", "status!": "closed"}.
// The key carries the operator: a trailing "~", "^" or "$" selects contains, starts-with or ends-with
// and a "!" before it negates.
func NewQuery(args map[string]string) Query {
	keys := make([]string, 0, len(args))
	for key := range args {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	q := Query{}
	for _, key := range keys {
		c := ParseConstraint(key, args[key])
		if c.Field == "" || slices.Contains(metaKeys, c.Field) {
			continue
		}
		q.Constraints = append(q.Constraints, c)
	}
	return q
}

func ParseConstraint(key, value string) Constraint {
	c := Constraint{Mode: Equals}
	field := strings.TrimSpace(key)
	if n := len(field); n > 0 {
		switch field[n-1] {
		case '~':
			c.Mode = Contains
			field = field[:n-1]
		case '^':
			c.Mode = StartsWith
			field = field[:n-1]
		case '$':
			c.Mode = EndsWith
			field = field[:n-1]
		}
	}
	if strings.HasSuffix(field, "!") {
		c.Negate = true
		field = strings.TrimSuffix(field, "!")
	}
	c.Field = field
	c.Values = strings.Split(value, "|")
	return c
}

// With returns a copy of the query with an extra constraint.
func (q Query) With(c Constraint) Query {
	constraints := make([]Constraint, 0, len(q.Constraints)+1)
	constraints = append(constraints, q.Constraints...)
	constraints = append(constraints, c)
	return Query{Constraints: constraints}
}

// NotEmpty selects tickets whose field has a value.
func NotEmpty(field string) Constraint {
	return Constraint{Field: field, Mode: Equals, Negate: true, Values: []string{""}}
}

// NotIn selects tickets whose field is none of the values.
func NotIn(field string, values []string) Constraint {
	return Constraint{Field: field, Mode: Equals, Negate: true, Values: values}
}

func (q Query) Matches(t Ticket) bool {
	for _, c := range q.Constraints {
		if !c.Matches(t.Get(c.Field)) {
			return false
		}
	}
	return true
}

func (c Constraint) Matches(value string) bool {
	matched := false
	for _, v := range c.Values {
		if c.matchOne(value, v) {
			matched = true
			break
		}
	}
	return matched != c.Negate
}

func (c Constraint) matchOne(value, v string) bool {
	switch c.Mode {
	case Contains:
		return strings.Contains(strings.ToLower(value), strings.ToLower(v))
	case StartsWith:
		return strings.HasPrefix(strings.ToLower(value), strings.ToLower(v))
	case EndsWith:
		return strings.HasSuffix(strings.ToLower(value), strings.ToLower(v))
	default:
		return value == v
	}
}

// sqlClause renders the constraint against column expr, appending bind values to args.
func (c Constraint) sqlClause(expr string, args *[]any) string {
	parts := make([]string, 0, len(c.Values))
	for _, v := range c.Values {
		switch c.Mode {
		case Contains:
			*args = append(*args, "%"+escapeLike(v)+"%")
			parts = append(parts, fmt.Sprintf("%s ILIKE $%d", expr, len(*args)))
		case StartsWith:
			*args = append(*args, escapeLike(v)+"%")
			parts = append(parts, fmt.Sprintf("%s ILIKE $%d", expr, len(*args)))
		case EndsWith:
			*args = append(*args, "%"+escapeLike(v))
			parts = append(parts, fmt.Sprintf("%s ILIKE $%d", expr, len(*args)))
		default:
			*args = append(*args, v)
			parts = append(parts, fmt.Sprintf("%s = $%d", expr, len(*args)))
		}
	}
	clause := "(" + strings.Join(parts, " OR ") + ")"
	if c.Negate {
		return "NOT " + clause
	}
	return clause
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
