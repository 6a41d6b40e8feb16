package aggregate

import (
	"fmt"
	"math"
	"time"

	"github.com/dustin/go-humanize"
)

// PctDelta is the period-over-period change of curr against prev, in percent.
func PctDelta(curr, prev float64) float64 {
	if prev <= 0 && curr > 0 {
		return 100
	}
	if prev == 0 && curr == 0 {
		return 0
	}
	return (curr - prev) / math.Max(prev, 1e-9) * 100
}

var compactUnits = []struct {
	scale  float64
	suffix string
}{
	{1e12, "T"},
	{1e9, "B"},
	{1e6, "M"},
	{1e3, "K"},
}

// FormatUSD renders a dollar amount in short compact notation with at most
// one fraction digit: $950, $12.5K, $1.2M, $59.8B.
func FormatUSD(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}

	value, suffix := roundTenths(amount), ""
	for i, unit := range compactUnits {
		if amount < unit.scale {
			continue
		}
		value, suffix = roundTenths(amount/unit.scale), unit.suffix
		// 999.96K rounds to 1000K; promote it to the next unit.
		if value >= 1000 && i > 0 {
			value, suffix = roundTenths(amount/compactUnits[i-1].scale), compactUnits[i-1].suffix
		}
		break
	}
	if suffix == "" && value >= 1000 {
		value, suffix = roundTenths(amount/1e3), "K"
	}

	return sign + "$" + humanize.FtoaWithDigits(value, 1) + suffix
}

func roundTenths(v float64) float64 {
	return math.Round(v*10) / 10
}

// roundHalfUp rounds .5 toward positive infinity.
func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}

// RelativeAge renders how long ago ts was, in whole minutes, hours or days.
func RelativeAge(ts time.Time, now time.Time) string {
	mins := int(math.Floor(now.Sub(ts).Minutes()))
	if mins < 1 {
		return "just now"
	}
	if mins < 60 {
		return fmt.Sprintf("%d min%s ago", mins, plural(mins))
	}
	hours := mins / 60
	if hours < 24 {
		return fmt.Sprintf("%d hour%s ago", hours, plural(hours))
	}
	days := hours / 24
	return fmt.Sprintf("%d day%s ago", days, plural(days))
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
