package model

// EventPage is the envelope of the funding events route. Error is null on success.
type EventPage struct {
	Events      []FundingEvent `json:"events"`
	Count       int            `json:"count"`
	Page        int            `json:"page"`
	Limit       int            `json:"limit"`
	LastUpdated string         `json:"lastUpdated"`
	Error       *string        `json:"error"`
}
