package model

// Dashboard is the payload of the dashboard route.
type Dashboard struct {
	Metrics    DashboardMetrics `json:"metrics"`
	Cashflow   []CashflowPoint  `json:"cashflow"`
	SubSectors []SubSector      `json:"subSectors"`
	Regions    []RegionFunding  `json:"regions"`
}

// DashboardMetrics compares the last 30 days with the 30 days before.
type DashboardMetrics struct {
	TotalFunding            string  `json:"totalFunding"`
	HighestSector           string  `json:"highestSector"`
	MostActiveInvestor      string  `json:"mostActiveInvestor"`
	TotalFundingDelta       float64 `json:"totalFundingDelta"`
	HighestSectorDelta      float64 `json:"highestSectorDelta"`
	MostActiveInvestorDelta float64 `json:"mostActiveInvestorDelta"`
	LastUpdatedRel          string  `json:"lastUpdatedRel"`
}

// CashflowPoint is one calendar month (YYYY-MM) of raised funding.
type CashflowPoint struct {
	Month   string  `json:"month"`
	Revenue float64 `json:"revenue"`
	Expense float64 `json:"expense"`
}

type SubSector struct {
	Name    string `json:"name"`
	Pct     int    `json:"pct"`
	Dollars string `json:"dollars"`
}

type RegionFunding struct {
	Name    string `json:"name"`
	Pct     int    `json:"pct"`
	Dollars string `json:"dollars"`
	Color   string `json:"color"`
}
