package query

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
	dateLayout   = "2006-01-02"
)

// MaxPage keeps (page-1)*limit inside int for every allowed limit.
const MaxPage = math.MaxInt / MaxLimit

// ErrInvalidDate reports a from/to bound that is neither YYYY-MM-DD nor RFC3339.
var ErrInvalidDate = errors.New("invalid date")

// Filter holds the optional funding event filters. Zero values are ignored.
type Filter struct {
	Q         string
	SubSector string
	Investor  string
	From      *time.Time
	To        *time.Time
}

// Page is a 1-based page number with a page size.
type Page struct {
	Number int
	Limit  int
}

// Params is a parsed funding events request.
type Params struct {
	Filter
	Page
}

// Range is a zero-based inclusive offset window.
type Range struct {
	Start int
	End   int
}

// ParseParams reads q, sub_sector, investor, from, to, page and limit.
// Page and limit are always usable, even when an error is returned.
func ParseParams(values url.Values) (Params, error) {
	params := Params{
		Filter: Filter{
			Q:         strings.TrimSpace(values.Get("q")),
			SubSector: strings.TrimSpace(values.Get("sub_sector")),
			Investor:  strings.TrimSpace(values.Get("investor")),
		},
		Page: Page{
			Number: intParam(values, "page", 1),
			Limit:  intParam(values, "limit", DefaultLimit),
		}.Normalize(),
	}

	from, err := ParseDate(values.Get("from"))
	if err != nil {
		return params, fmt.Errorf("from: %w", err)
	}
	to, err := ParseDate(values.Get("to"))
	if err != nil {
		return params, fmt.Errorf("to: %w", err)
	}
	params.From, params.To = from, to
	return params, nil
}

// ParseDate reads a date bound. Blank input yields nil; timestamps are
// reduced to their UTC calendar date.
func ParseDate(input string) (*time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil
	}
	if day, err := time.Parse(dateLayout, input); err == nil {
		return &day, nil
	}
	ts, err := time.Parse(time.RFC3339, input)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, input)
	}
	ts = ts.UTC()
	day := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
	return &day, nil
}

// Normalize applies the page defaults: 1 <= page <= MaxPage,
// 1 <= limit <= MaxLimit.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Number > MaxPage {
		p.Number = MaxPage
	}
	if p.Limit < 1 {
		p.Limit = 1
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// Range returns the rows covered by the page.
func (p Page) Range() Range {
	start := (p.Number - 1) * p.Limit
	return Range{Start: start, End: start + p.Limit - 1}
}

func intParam(values url.Values, key string, fallback int) int {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return fallback
	}
	val, err := strconv.Atoi(raw)
	if errors.Is(err, strconv.ErrRange) {
		// Atoi saturates to the nearest bound.
		return val
	}
	if err != nil {
		return fallback
	}
	return val
}
