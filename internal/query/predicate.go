package query

import (
	"strings"
	"time"
)

// Column names of the funding_events table.
const (
	ColID           = "id"
	ColStartupName  = "startup_name"
	ColSubSector    = "sub_sector"
	ColGeography    = "geography"
	ColLeadInvestor = "lead_investor"
	ColFundingRound = "funding_round"
	ColAmount       = "amount_raised_usd"
	ColFundingDate  = "funding_date"
	ColCreatedAt    = "created_at"
	ColSourceURL    = "source_url"
)

// Expr is a column-level SQL expression.
type Expr interface {
	render(d Dialect) string
}

// Column is a bare column reference.
type Column string

func (c Column) render(Dialect) string { return string(c) }

// DateOf is the UTC calendar date of a timestamp column.
type DateOf string

func (c DateOf) render(d Dialect) string { return d.DateOf(string(c)) }

// Coalesce picks the first non-null expression.
type Coalesce []Expr

func (c Coalesce) render(d Dialect) string {
	parts := make([]string, 0, len(c))
	for _, e := range c {
		parts = append(parts, e.render(d))
	}
	return "COALESCE(" + strings.Join(parts, ", ") + ")"
}

// Predicate is a node of a WHERE clause.
type Predicate interface {
	compile(c *compiler) string
}

// Eq matches an exact value.
type Eq struct {
	Expr  Expr
	Value any
}

// ILike matches a case-insensitive substring. Wildcards in Substring are literal.
type ILike struct {
	Expr      Expr
	Substring string
}

// Cmp compares against a value with one of =, <, <=, >, >=.
type Cmp struct {
	Expr  Expr
	Op    string
	Value any
}

// IsNull matches SQL NULL.
type IsNull struct {
	Expr Expr
}

// And matches when every predicate matches. An empty And matches everything.
type And []Predicate

// Or matches when any predicate matches.
type Or []Predicate

// Order is one ORDER BY term. NULLs sort last.
type Order struct {
	Expr Expr
	Desc bool
}

// CanonicalDate is funding_date, falling back to the date of created_at.
var CanonicalDate = Coalesce{Column(ColFundingDate), DateOf(ColCreatedAt)}

// CanonicalOrder sorts newest canonical date first with a stable tiebreaker.
var CanonicalOrder = []Order{
	{Expr: CanonicalDate, Desc: true},
	{Expr: Column(ColCreatedAt), Desc: true},
	{Expr: Column(ColID)},
}

// Predicate translates the filter into a WHERE tree. Filters combine with
// AND; q matches name, sector or geography. The date window matches
// funding_date, or created_at for rows without a funding_date.
func (f Filter) Predicate() Predicate {
	var preds And
	if f.Q != "" {
		preds = append(preds, Or{
			ILike{Expr: Column(ColStartupName), Substring: f.Q},
			ILike{Expr: Column(ColSubSector), Substring: f.Q},
			ILike{Expr: Column(ColGeography), Substring: f.Q},
		})
	}
	if f.SubSector != "" {
		preds = append(preds, Eq{Expr: Column(ColSubSector), Value: f.SubSector})
	}
	if f.Investor != "" {
		preds = append(preds, ILike{Expr: Column(ColLeadInvestor), Substring: f.Investor})
	}
	if f.From != nil || f.To != nil {
		funded := And{}
		fallback := And{IsNull{Expr: Column(ColFundingDate)}}
		if f.From != nil {
			funded = append(funded, Cmp{Expr: Column(ColFundingDate), Op: ">=", Value: *f.From})
			fallback = append(fallback, Cmp{Expr: DateOf(ColCreatedAt), Op: ">=", Value: *f.From})
		}
		if f.To != nil {
			funded = append(funded, Cmp{Expr: Column(ColFundingDate), Op: "<=", Value: *f.To})
			fallback = append(fallback, Cmp{Expr: DateOf(ColCreatedAt), Op: "<=", Value: *f.To})
		}
		preds = append(preds, Or{funded, fallback})
	}
	return preds
}

// NameContains matches startup names containing name.
func NameContains(name string) Predicate {
	return ILike{Expr: Column(ColStartupName), Substring: name}
}

func likePattern(substring string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(substring)
	return "%" + escaped + "%"
}

func isDate(v any) (time.Time, bool) {
	ts, ok := v.(time.Time)
	return ts, ok
}
