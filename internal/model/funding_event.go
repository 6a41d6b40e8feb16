package model

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// FundingEvent is one reported funding round as stored in funding_events.
type FundingEvent struct {
	ID              string  `json:"id"`
	StartupName     string  `json:"startup_name"`
	SubSector       *string `json:"sub_sector"`
	Geography       *string `json:"geography"`
	LeadInvestor    *string `json:"lead_investor"`
	FundingRound    *string `json:"funding_round"`
	AmountRaisedUSD Amount  `json:"amount_raised_usd"`
	FundingDate     *string `json:"funding_date"`
	CreatedAt       *string `json:"created_at"`
	SourceURL       *string `json:"source_url"`

	// CompanySlug links the event to its company page. Not stored.
	CompanySlug string `json:"company_slug,omitempty"`
}

// CanonicalDate returns funding_date when it parses, otherwise created_at.
func (e FundingEvent) CanonicalDate() (time.Time, bool) {
	if ts, ok := ParseDate(Deref(e.FundingDate)); ok {
		return ts, true
	}
	return ParseDate(Deref(e.CreatedAt))
}

// Amount is a nullable USD amount. Malformed marks a stored value that was
// present but not a number; such a value is never Valid.
type Amount struct {
	Value     float64
	Valid     bool
	Malformed bool
}

func NewAmount(v float64) Amount {
	return Amount{Value: v, Valid: true}
}

// AmountFromAny classifies a loosely typed store cell.
func AmountFromAny(v any) Amount {
	switch typed := v.(type) {
	case nil:
		return Amount{}
	case int64:
		return NewAmount(float64(typed))
	case int:
		return NewAmount(float64(typed))
	case float64:
		return NewAmount(typed)
	case float32:
		return NewAmount(float64(typed))
	default:
		return Amount{Malformed: true}
	}
}

// Float returns the amount with null treated as zero.
func (a Amount) Float() float64 {
	if !a.Valid {
		return 0
	}
	return a.Value
}

func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(a.Value)
}

// UnmarshalJSON never fails: anything that is neither null nor a JSON number
// is kept as a malformed amount.
func (a *Amount) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*a = Amount{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(trimmed, &v); err != nil {
		*a = Amount{Malformed: true}
		return nil
	}
	*a = NewAmount(v)
	return nil
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05Z07",
	"2006-01-02 15:04:05.999999999Z07",
	"2006-01-02 15:04:05",
}

// ParseDate parses the date and timestamp shapes the store hands back.
// Values without a zone are read as UTC.
func ParseDate(input string) (time.Time, bool) {
	input = strings.TrimSpace(input)
	if input == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, input); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

// StringPtr returns nil for blank input and a trimmed copy otherwise.
func StringPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
