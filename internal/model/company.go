package model

// Bio status values reported on a company profile.
const (
	BioReady   = "ready"
	BioPending = "pending"
	BioAbsent  = "absent"
)

// CompanyRecord is a row of the optional companies table.
type CompanyRecord struct {
	Slug    string
	Name    *string
	Bio     *string
	Website *string
}

// Company is the company block of a profile response.
type Company struct {
	Name      string  `json:"name"`
	Slug      string  `json:"slug"`
	Bio       *string `json:"bio"`
	BioStatus string  `json:"bio_status"`
}

// CompanyProfile is the payload of the company route.
type CompanyProfile struct {
	Company       Company        `json:"company"`
	Events        []FundingEvent `json:"events"`
	TotalRaised   float64        `json:"totalRaised"`
	LastRound     *string        `json:"lastRound"`
	LastRoundDate *string        `json:"lastRoundDate"`
	Sources       []string       `json:"sources"`
	Error         *string        `json:"error"`
}
