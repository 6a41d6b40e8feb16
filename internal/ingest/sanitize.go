package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"fundingScope/internal/model"
)

// Reject reasons written to the rejects file.
const (
	ReasonInvalidJSON        = "invalid_json"
	ReasonMissingStartupName = "missing_startup_name"
	ReasonInvalidSourceURL   = "invalid_source_url"
)

// Sanitizer normalizes raw import records into funding events.
type Sanitizer struct {
	Now   func() time.Time
	NewID func() string
}

// Sanitize decodes one JSON object and applies the import rules. A non-empty
// reason means the record was rejected.
func (s Sanitizer) Sanitize(raw []byte) (model.FundingEvent, string) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var record map[string]any
	if err := decoder.Decode(&record); err != nil || record == nil {
		return model.FundingEvent{}, ReasonInvalidJSON
	}

	event := model.FundingEvent{
		StartupName:     textField(record, "startup_name"),
		SubSector:       model.StringPtr(textField(record, "sub_sector")),
		Geography:       model.StringPtr(textField(record, "geography")),
		LeadInvestor:    model.StringPtr(textField(record, "lead_investor")),
		FundingRound:    model.StringPtr(textField(record, "funding_round", "funding_stage")),
		AmountRaisedUSD: parseAmount(record["amount_raised_usd"]),
		FundingDate:     normalizeDate(textField(record, "funding_date")),
		SourceURL:       model.StringPtr(textField(record, "source_url")),
	}

	if event.StartupName == "" {
		return model.FundingEvent{}, ReasonMissingStartupName
	}
	if !strings.HasPrefix(strings.ToLower(model.Deref(event.SourceURL)), "https") {
		return model.FundingEvent{}, ReasonInvalidSourceURL
	}

	event.ID = textField(record, "id")
	if event.ID == "" {
		event.ID = s.NewID()
	}
	created := s.Now().UTC()
	if ts, ok := model.ParseDate(textField(record, "created_at")); ok {
		created = ts
	}
	createdText := created.Format(time.RFC3339Nano)
	event.CreatedAt = &createdText
	return event, ""
}

// textField returns the first non-blank value among keys, stringified and trimmed.
func textField(record map[string]any, keys ...string) string {
	for _, key := range keys {
		value, ok := record[key]
		if !ok || value == nil {
			continue
		}
		var text string
		switch typed := value.(type) {
		case string:
			text = typed
		case json.Number:
			text = typed.String()
		default:
			text = fmt.Sprint(typed)
		}
		if text = strings.TrimSpace(text); text != "" {
			return text
		}
	}
	return ""
}

// parseAmount truncates numbers to whole dollars and keeps only the digits of
// strings, so "$12,500,000" becomes 12500000.
func parseAmount(value any) model.Amount {
	switch typed := value.(type) {
	case nil:
		return model.Amount{}
	case json.Number:
		f, err := typed.Float64()
		if err != nil {
			return model.Amount{}
		}
		return model.NewAmount(math.Trunc(f))
	case string:
		digits := strings.Map(func(r rune) rune {
			if r >= '0' && r <= '9' {
				return r
			}
			return -1
		}, typed)
		if digits == "" {
			return model.Amount{}
		}
		f, err := strconv.ParseFloat(digits, 64)
		if err != nil {
			return model.Amount{}
		}
		return model.NewAmount(f)
	default:
		return model.Amount{}
	}
}

func normalizeDate(value string) *string {
	day, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil
	}
	text := day.Format("2006-01-02")
	return &text
}
