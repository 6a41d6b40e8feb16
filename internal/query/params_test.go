package query

import (
	"errors"
	"net/url"
	"testing"
	"time"
)

func TestParseParamsDefaults(t *testing.T) {
	got, err := ParseParams(url.Values{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Number != 1 || got.Limit != DefaultLimit {
		t.Fatalf("page defaults = %+v", got.Page)
	}
	if got.From != nil || got.To != nil || got.Q != "" {
		t.Fatalf("filter should be empty: %+v", got.Filter)
	}
}

func TestParseParamsClamps(t *testing.T) {
	cases := []struct {
		page, limit         string
		wantPage, wantLimit int
	}{
		{"0", "0", 1, 1},
		{"-3", "500", 1, MaxLimit},
		{"abc", "xyz", 1, DefaultLimit},
		{"3", "50", 3, 50},
		{"100000000000000000", "100", MaxPage, 100},
		{"999999999999999999999999", "20", MaxPage, 20},
	}
	for _, tc := range cases {
		got, err := ParseParams(url.Values{"page": {tc.page}, "limit": {tc.limit}})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Number != tc.wantPage || got.Limit != tc.wantLimit {
			t.Fatalf("page=%q limit=%q -> %+v, want %d/%d", tc.page, tc.limit, got.Page, tc.wantPage, tc.wantLimit)
		}
	}
}

func TestParseParamsDates(t *testing.T) {
	got, err := ParseParams(url.Values{
		"q":          {"  solar "},
		"sub_sector": {"EV"},
		"from":       {"2025-01-01"},
		"to":         {"2025-01-31T23:00:00-05:00"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Q != "solar" || got.SubSector != "EV" {
		t.Fatalf("unexpected filter: %+v", got.Filter)
	}
	if !got.From.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("from = %v", got.From)
	}
	if !got.To.Equal(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("to should be the UTC date of the timestamp, got %v", got.To)
	}
}

func TestParseParamsInvalidDate(t *testing.T) {
	got, err := ParseParams(url.Values{"from": {"last tuesday"}, "page": {"2"}})
	if !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
	if got.Number != 2 || got.Limit != DefaultLimit {
		t.Fatalf("page should still be parsed: %+v", got.Page)
	}
}

func TestPageRange(t *testing.T) {
	cases := []struct {
		page Page
		want Range
	}{
		{Page{Number: 1, Limit: 20}, Range{Start: 0, End: 19}},
		{Page{Number: 2, Limit: 5}, Range{Start: 5, End: 9}},
		{Page{Number: 3, Limit: 1}, Range{Start: 2, End: 2}},
	}
	for _, tc := range cases {
		if got := tc.page.Range(); got != tc.want {
			t.Fatalf("%+v.Range() = %+v, want %+v", tc.page, got, tc.want)
		}
	}
}

func TestRangeAtMaxPageStaysPositive(t *testing.T) {
	for _, limit := range []int{1, DefaultLimit, MaxLimit} {
		r := Page{Number: MaxPage, Limit: limit}.Normalize().Range()
		if r.Start <= 0 || r.End < r.Start {
			t.Fatalf("limit %d: range = %+v", limit, r)
		}
		if r.End-r.Start+1 != limit {
			t.Fatalf("limit %d: span = %d", limit, r.End-r.Start+1)
		}
	}
}
