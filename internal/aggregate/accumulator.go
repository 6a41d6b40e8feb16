package aggregate

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// GroupEntry is one key of a Grouping with its running sum.
type GroupEntry struct {
	Key string
	Sum decimal.Decimal
}

// Grouping accumulates running sums per key and remembers the order in which
// keys were first seen. Ranking is stable, so ties keep that order.
type Grouping struct {
	index   map[string]int
	entries []GroupEntry
}

func NewGrouping() *Grouping {
	return &Grouping{index: make(map[string]int)}
}

// Add trims key and adds value to its sum. Blank keys are ignored.
func (g *Grouping) Add(key string, value decimal.Decimal) {
	key = strings.TrimSpace(key)
	if key == "" {
		return
	}
	if i, ok := g.index[key]; ok {
		g.entries[i].Sum = g.entries[i].Sum.Add(value)
		return
	}
	g.index[key] = len(g.entries)
	g.entries = append(g.entries, GroupEntry{Key: key, Sum: value})
}

// Get returns the sum for key, or zero when the key was never added.
func (g *Grouping) Get(key string) decimal.Decimal {
	if i, ok := g.index[key]; ok {
		return g.entries[i].Sum
	}
	return decimal.Zero
}

// Ranked returns entries ordered by sum, largest first.
func (g *Grouping) Ranked() []GroupEntry {
	out := make([]GroupEntry, len(g.entries))
	copy(out, g.entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Sum.GreaterThan(out[j].Sum)
	})
	return out
}

// ByKey returns entries ordered by key ascending.
func (g *Grouping) ByKey() []GroupEntry {
	out := make([]GroupEntry, len(g.entries))
	copy(out, g.entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Key < out[j].Key
	})
	return out
}

// Top returns the leading key of Ranked.
func (g *Grouping) Top() (string, bool) {
	if len(g.entries) == 0 {
		return "", false
	}
	return g.Ranked()[0].Key, true
}
