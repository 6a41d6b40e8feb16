package storage

import (
	"context"
	"errors"

	"fundingScope/internal/model"
	"fundingScope/internal/query"
)

// ErrNotConfigured is returned when no store backend is configured.
var ErrNotConfigured = errors.New("store not configured")

// Page is one page of funding events plus the total match count.
type Page struct {
	Events []model.FundingEvent
	Count  int
}

// EventStore is the read/write surface over funding_events and companies.
type EventStore interface {
	QueryEvents(ctx context.Context, params query.Params) (Page, error)
	RecentEvents(ctx context.Context, limit int) ([]model.FundingEvent, error)
	CompanyEvents(ctx context.Context, name string, limit int) ([]model.FundingEvent, error)
	CompanyProfile(ctx context.Context, slug string) (model.CompanyRecord, bool, error)
	UpsertEvents(ctx context.Context, events []model.FundingEvent) error
	Ping(ctx context.Context) error
	Close()
}

// EventColumns is the select list shared by the SQL stores.
var EventColumns = []string{
	query.ColID,
	query.ColStartupName,
	query.ColSubSector,
	query.ColGeography,
	query.ColLeadInvestor,
	query.ColFundingRound,
	query.ColAmount,
	query.ColFundingDate,
	query.ColCreatedAt,
	query.ColSourceURL,
}

// RecentSelect is the dashboard batch: newest canonical date first.
func RecentSelect(columns []string, limit int) query.Select {
	return query.Select{
		Table:   "funding_events",
		Columns: columns,
		OrderBy: query.CanonicalOrder,
		Limit:   limit,
	}
}

// CompanySelect matches startup names containing name, newest first.
func CompanySelect(columns []string, name string, limit int) query.Select {
	return query.Select{
		Table:   "funding_events",
		Columns: columns,
		Where:   query.NameContains(name),
		OrderBy: query.CanonicalOrder,
		Limit:   limit,
	}
}
