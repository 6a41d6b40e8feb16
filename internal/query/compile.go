package query

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Dialect captures the SQL differences between the supported stores.
type Dialect struct {
	Name        string
	Placeholder func(n int) string
	ILike       func(expr, placeholder string) string
	DateOf      func(column string) string
	DateArg     func(day time.Time) any
}

// Postgres renders $n placeholders and ILIKE; dates bind as time.Time.
var Postgres = Dialect{
	Name:        "postgres",
	Placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
	ILike: func(expr, placeholder string) string {
		return expr + " ILIKE " + placeholder
	},
	DateOf: func(column string) string {
		return "(" + column + " AT TIME ZONE 'UTC')::date"
	},
	DateArg: func(day time.Time) any { return day },
}

// FoldFunc is the SQL function the SQLite store registers for Unicode case
// folding. Built-in LIKE and lower() only fold ASCII.
const FoldFunc = "casefold"

// SQLite renders ? placeholders and folds both LIKE operands with FoldFunc.
// Dates are stored and bound as YYYY-MM-DD text.
var SQLite = Dialect{
	Name:        "sqlite",
	Placeholder: func(int) string { return "?" },
	ILike: func(expr, placeholder string) string {
		return FoldFunc + "(" + expr + ") LIKE " + FoldFunc + "(" + placeholder + `) ESCAPE '\'`
	},
	DateOf: func(column string) string {
		return "date(" + column + ")"
	},
	DateArg: func(day time.Time) any { return day.UTC().Format(dateLayout) },
}

// Select describes a paged read. Limit 0 means no limit.
type Select struct {
	Table   string
	Columns []string
	Where   Predicate
	OrderBy []Order
	Limit   int
	Offset  int
}

// Statement is a compiled Select plus the COUNT(*) over the same filter.
type Statement struct {
	SQL       string
	Args      []any
	CountSQL  string
	CountArgs []any
}

var validOps = map[string]bool{"=": true, "<": true, "<=": true, ">": true, ">=": true}

// Compile renders s for d. Values are always bound, never interpolated.
func Compile(d Dialect, s Select) (Statement, error) {
	if s.Table == "" {
		return Statement{}, fmt.Errorf("table is required")
	}
	c := &compiler{d: d}

	var where string
	if s.Where != nil {
		if err := validate(s.Where); err != nil {
			return Statement{}, err
		}
		if clause := s.Where.compile(c); clause != "" {
			where = " WHERE " + clause
		}
	}
	countArgs := append([]any(nil), c.args...)

	columns := "*"
	if len(s.Columns) > 0 {
		columns = strings.Join(s.Columns, ", ")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s%s", columns, s.Table, where)
	if len(s.OrderBy) > 0 {
		terms := make([]string, 0, len(s.OrderBy))
		for _, o := range s.OrderBy {
			dir := "ASC"
			if o.Desc {
				dir = "DESC"
			}
			terms = append(terms, o.Expr.render(d)+" "+dir+" NULLS LAST")
		}
		sb.WriteString(" ORDER BY " + strings.Join(terms, ", "))
	}
	if s.Limit > 0 {
		sb.WriteString(" LIMIT " + c.bind(s.Limit))
		if s.Offset > 0 {
			sb.WriteString(" OFFSET " + c.bind(s.Offset))
		}
	}

	return Statement{
		SQL:       sb.String(),
		Args:      c.args,
		CountSQL:  fmt.Sprintf("SELECT COUNT(*) FROM %s%s", s.Table, where),
		CountArgs: countArgs,
	}, nil
}

// PageSelect is the canonical paged read of table for params.
func PageSelect(table string, columns []string, params Params) Select {
	page := params.Page.Normalize()
	r := page.Range()
	return Select{
		Table:   table,
		Columns: columns,
		Where:   params.Filter.Predicate(),
		OrderBy: CanonicalOrder,
		Limit:   r.End - r.Start + 1,
		Offset:  r.Start,
	}
}

type compiler struct {
	d    Dialect
	args []any
}

func (c *compiler) bind(v any) string {
	if day, ok := isDate(v); ok {
		v = c.d.DateArg(day)
	}
	c.args = append(c.args, v)
	return c.d.Placeholder(len(c.args))
}

func (p Eq) compile(c *compiler) string {
	return p.Expr.render(c.d) + " = " + c.bind(p.Value)
}

func (p ILike) compile(c *compiler) string {
	return c.d.ILike(p.Expr.render(c.d), c.bind(likePattern(p.Substring)))
}

func (p Cmp) compile(c *compiler) string {
	return p.Expr.render(c.d) + " " + p.Op + " " + c.bind(p.Value)
}

func (p IsNull) compile(c *compiler) string {
	return p.Expr.render(c.d) + " IS NULL"
}

func (p And) compile(c *compiler) string {
	return join(c, p, " AND ")
}

func (p Or) compile(c *compiler) string {
	return join(c, p, " OR ")
}

func join(c *compiler, preds []Predicate, sep string) string {
	parts := make([]string, 0, len(preds))
	for _, pred := range preds {
		if part := pred.compile(c); part != "" {
			parts = append(parts, part)
		}
	}
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	default:
		return "(" + strings.Join(parts, sep) + ")"
	}
}

func validate(p Predicate) error {
	switch pred := p.(type) {
	case Cmp:
		if !validOps[pred.Op] {
			return fmt.Errorf("unsupported operator %q", pred.Op)
		}
	case And:
		for _, child := range pred {
			if err := validate(child); err != nil {
				return err
			}
		}
	case Or:
		for _, child := range pred {
			if err := validate(child); err != nil {
				return err
			}
		}
	}
	return nil
}
