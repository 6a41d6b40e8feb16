package aggregate

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fundingScope/internal/model"
)

const (
	windowLength   = 30 * 24 * time.Hour
	placeholder    = "—"
	cashflowMonths = 6
	topSubSectors  = 5
	topRegions     = 3
	monthLayout    = "2006-01"
	expenseRatio   = 0.5
)

var regionPalette = []string{"#B0FE09", "#E12B9A", "#48D38A"}

// Stats describes the rows a Dashboard call looked at.
type Stats struct {
	Rows      int
	Malformed int
	Undated   int
	Current   int
	Previous  int
}

type row struct {
	sector   string
	investor string
	region   string
	amount   decimal.Decimal
	at       time.Time
	dated    bool
}

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// Dashboard computes summary metrics, monthly cashflow and sector and region
// shares for a batch of events. now anchors the 30-day windows. Rows with a
// malformed amount are dropped; rows without a usable date only count toward
// the all-time groupings.
func Dashboard(events []model.FundingEvent, now time.Time) (model.Dashboard, Stats) {
	stats := Stats{Rows: len(events)}
	currStart := now.Add(-windowLength)
	prevStart := now.Add(-2 * windowLength)

	sectors := NewGrouping()
	sectorsCurr := NewGrouping()
	investors := NewGrouping()
	investorsCurr := NewGrouping()
	months := NewGrouping()
	regions := NewGrouping()

	var (
		prev      []row
		totalAll  = decimal.Zero
		totalCurr = decimal.Zero
		totalPrev = decimal.Zero
		latest    time.Time
		hasLatest bool
	)

	for _, event := range events {
		if event.AmountRaisedUSD.Malformed {
			stats.Malformed++
			continue
		}
		r := newRow(event)

		totalAll = totalAll.Add(r.amount)
		sectors.Add(r.sector, r.amount)
		investors.Add(r.investor, one)
		regions.Add(r.region, r.amount)

		if !r.dated {
			stats.Undated++
			continue
		}
		months.Add(r.at.Format(monthLayout), r.amount)
		if !hasLatest || r.at.After(latest) {
			latest, hasLatest = r.at, true
		}

		switch {
		case inWindow(r.at, currStart, now):
			stats.Current++
			totalCurr = totalCurr.Add(r.amount)
			sectorsCurr.Add(r.sector, r.amount)
			investorsCurr.Add(r.investor, one)
		case inWindow(r.at, prevStart, currStart):
			stats.Previous++
			totalPrev = totalPrev.Add(r.amount)
			prev = append(prev, r)
		}
	}

	highestSector := leader(sectorsCurr, sectors)
	mostActiveInvestor := leader(investorsCurr, investors)

	sectorPrev, investorPrev := decimal.Zero, decimal.Zero
	for _, r := range prev {
		if highestSector != placeholder && r.sector == highestSector {
			sectorPrev = sectorPrev.Add(r.amount)
		}
		if mostActiveInvestor != placeholder && r.investor == mostActiveInvestor {
			investorPrev = investorPrev.Add(one)
		}
	}

	lastUpdated := "unknown"
	if hasLatest {
		lastUpdated = RelativeAge(latest, now)
	}

	dashboard := model.Dashboard{
		Metrics: model.DashboardMetrics{
			TotalFunding:            FormatUSD(totalCurr.InexactFloat64()),
			HighestSector:           highestSector,
			MostActiveInvestor:      mostActiveInvestor,
			TotalFundingDelta:       PctDelta(totalCurr.InexactFloat64(), totalPrev.InexactFloat64()),
			HighestSectorDelta:      PctDelta(currentValue(sectorsCurr, highestSector), sectorPrev.InexactFloat64()),
			MostActiveInvestorDelta: PctDelta(currentValue(investorsCurr, mostActiveInvestor), investorPrev.InexactFloat64()),
			LastUpdatedRel:          lastUpdated,
		},
		Cashflow:   cashflow(months),
		SubSectors: subSectors(sectors, totalAll),
		Regions:    regionShares(regions, totalAll),
	}
	return dashboard, stats
}

func newRow(event model.FundingEvent) row {
	r := row{
		sector:   strings.TrimSpace(model.Deref(event.SubSector)),
		investor: strings.TrimSpace(model.Deref(event.LeadInvestor)),
		region:   strings.TrimSpace(model.Deref(event.Geography)),
		amount:   decimal.NewFromFloat(event.AmountRaisedUSD.Float()),
	}
	r.at, r.dated = event.CanonicalDate()
	return r
}

func inWindow(ts, start, end time.Time) bool {
	return !ts.Before(start) && ts.Before(end)
}

// leader picks the top key of the current window, falling back to all-time.
func leader(current, allTime *Grouping) string {
	if key, ok := current.Top(); ok {
		return key
	}
	if key, ok := allTime.Top(); ok {
		return key
	}
	return placeholder
}

func currentValue(g *Grouping, key string) float64 {
	if key == placeholder {
		return 0
	}
	return g.Get(key).InexactFloat64()
}

func cashflow(months *Grouping) []model.CashflowPoint {
	entries := months.ByKey()
	if len(entries) > cashflowMonths {
		entries = entries[len(entries)-cashflowMonths:]
	}
	out := make([]model.CashflowPoint, 0, len(entries))
	for _, entry := range entries {
		revenue := entry.Sum.InexactFloat64()
		out = append(out, model.CashflowPoint{
			Month:   entry.Key,
			Revenue: revenue,
			Expense: roundHalfUp(revenue * expenseRatio),
		})
	}
	return out
}

func subSectors(sectors *Grouping, totalAll decimal.Decimal) []model.SubSector {
	entries := head(sectors.Ranked(), topSubSectors)
	pcts := shares(entries, totalAll)
	out := make([]model.SubSector, 0, len(entries))
	for i, entry := range entries {
		out = append(out, model.SubSector{
			Name:    entry.Key,
			Pct:     pcts[i],
			Dollars: FormatUSD(entry.Sum.InexactFloat64()),
		})
	}
	return out
}

func regionShares(regions *Grouping, totalAll decimal.Decimal) []model.RegionFunding {
	entries := head(regions.Ranked(), topRegions)
	pcts := shares(entries, totalAll)
	out := make([]model.RegionFunding, 0, len(entries))
	for i, entry := range entries {
		out = append(out, model.RegionFunding{
			Name:    entry.Key,
			Pct:     pcts[i],
			Dollars: FormatUSD(entry.Sum.InexactFloat64()),
			Color:   regionPalette[i%len(regionPalette)],
		})
	}
	return out
}

func head(entries []GroupEntry, n int) []GroupEntry {
	if len(entries) > n {
		return entries[:n]
	}
	return entries
}

// shares converts sums to whole percentages of total. Independent rounding of
// a top-N slice can overshoot 100; the entries rounded up the most give back
// a point until the slice fits.
func shares(entries []GroupEntry, total decimal.Decimal) []int {
	pcts := make([]int, len(entries))
	if !total.IsPositive() {
		return pcts
	}
	excess := make([]float64, len(entries))
	sum := 0
	for i, entry := range entries {
		exact := entry.Sum.Mul(hundred).Div(total).InexactFloat64()
		rounded := roundHalfUp(exact)
		if rounded < 0 {
			rounded = 0
		}
		if rounded > 100 {
			rounded = 100
		}
		pcts[i] = int(rounded)
		excess[i] = rounded - exact
		sum += pcts[i]
	}
	for sum > 100 {
		worst := -1
		for i := range pcts {
			if pcts[i] == 0 {
				continue
			}
			if worst < 0 || excess[i] > excess[worst] {
				worst = i
			}
		}
		if worst < 0 {
			break
		}
		pcts[worst]--
		excess[worst]--
		sum--
	}
	return pcts
}
