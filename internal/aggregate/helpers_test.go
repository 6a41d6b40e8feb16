package aggregate

import (
	"testing"
	"time"
)

func TestFormatUSD(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "$0"},
		{950, "$950"},
		{950.46, "$950.5"},
		{12500, "$12.5K"},
		{999960, "$1M"},
		{1234567, "$1.2M"},
		{59790000000, "$59.8B"},
		{1.1e12, "$1.1T"},
		{-2500, "-$2.5K"},
	}
	for _, tc := range cases {
		if got := FormatUSD(tc.in); got != tc.want {
			t.Fatalf("FormatUSD(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRelativeAge(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		ago  time.Duration
		want string
	}{
		{30 * time.Second, "just now"},
		{-5 * time.Minute, "just now"},
		{time.Minute, "1 min ago"},
		{59 * time.Minute, "59 mins ago"},
		{time.Hour, "1 hour ago"},
		{2 * time.Hour, "2 hours ago"},
		{24 * time.Hour, "1 day ago"},
		{73 * time.Hour, "3 days ago"},
	}
	for _, tc := range cases {
		if got := RelativeAge(now.Add(-tc.ago), now); got != tc.want {
			t.Fatalf("RelativeAge(-%v) = %q, want %q", tc.ago, got, tc.want)
		}
	}
}

func TestGroupingRankedIsStable(t *testing.T) {
	g := NewGrouping()
	for _, key := range []string{"b", " a ", "c", "", "a"} {
		g.Add(key, one)
	}

	ranked := g.Ranked()
	if len(ranked) != 3 {
		t.Fatalf("len = %d, want 3", len(ranked))
	}
	if ranked[0].Key != "a" || ranked[1].Key != "b" || ranked[2].Key != "c" {
		t.Fatalf("unexpected ranking: %+v", ranked)
	}
	byKey := g.ByKey()
	if byKey[0].Key != "a" || byKey[2].Key != "c" {
		t.Fatalf("unexpected key order: %+v", byKey)
	}
}
