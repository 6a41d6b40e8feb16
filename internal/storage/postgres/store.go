package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fundingScope/internal/model"
	"fundingScope/internal/query"
	"fundingScope/internal/storage"
)

// columns casts ids and dates to text so rows decode the same way on every
// schema variant of funding_events. Aliases keep ORDER BY on the typed columns.
var columns = []string{
	"id::text AS event_id",
	query.ColStartupName,
	query.ColSubSector,
	query.ColGeography,
	query.ColLeadInvestor,
	query.ColFundingRound,
	"amount_raised_usd::float8 AS amount_usd",
	"funding_date::text AS funding_day",
	"created_at::text AS created_text",
	query.ColSourceURL,
}

// Store provides Postgres persistence for funding events.
type Store struct {
	pool *pgxpool.Pool
}

var _ storage.EventStore = (*Store)(nil)

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required: %w", storage.ErrNotConfigured)
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// QueryEvents sends the page and its count in one round trip.
func (s *Store) QueryEvents(ctx context.Context, params query.Params) (storage.Page, error) {
	stmt, err := query.Compile(query.Postgres, query.PageSelect("funding_events", columns, params))
	if err != nil {
		return storage.Page{}, err
	}

	batch := &pgx.Batch{}
	batch.Queue(stmt.SQL, stmt.Args...)
	batch.Queue(stmt.CountSQL, stmt.CountArgs...)

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	rows, err := br.Query()
	if err != nil {
		return storage.Page{}, fmt.Errorf("query events: %w", err)
	}
	events, err := collectEvents(rows)
	if err != nil {
		return storage.Page{}, fmt.Errorf("query events: %w", err)
	}

	var count int64
	if err := br.QueryRow().Scan(&count); err != nil {
		return storage.Page{}, fmt.Errorf("count events: %w", err)
	}
	return storage.Page{Events: events, Count: int(count)}, nil
}

func (s *Store) RecentEvents(ctx context.Context, limit int) ([]model.FundingEvent, error) {
	return s.selectEvents(ctx, storage.RecentSelect(columns, limit))
}

func (s *Store) CompanyEvents(ctx context.Context, name string, limit int) ([]model.FundingEvent, error) {
	return s.selectEvents(ctx, storage.CompanySelect(columns, name, limit))
}

func (s *Store) selectEvents(ctx context.Context, sel query.Select) ([]model.FundingEvent, error) {
	stmt, err := query.Compile(query.Postgres, sel)
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, fmt.Errorf("select events: %w", err)
	}
	return collectEvents(rows)
}

// CompanyProfile reads the companies row for slug. ok is false when none exists.
func (s *Store) CompanyProfile(ctx context.Context, slug string) (model.CompanyRecord, bool, error) {
	record := model.CompanyRecord{Slug: slug}
	row := s.pool.QueryRow(ctx, `SELECT name, bio, website FROM companies WHERE slug=$1`, slug)
	if err := row.Scan(&record.Name, &record.Bio, &record.Website); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.CompanyRecord{}, false, nil
		}
		return model.CompanyRecord{}, false, err
	}
	return record, true, nil
}

// UpsertEvents inserts or updates events, deduplicated on source_url.
// A given id already held by another source_url is replaced with a new one.
func (s *Store) UpsertEvents(ctx context.Context, events []model.FundingEvent) error {
	if len(events) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, e := range events {
		var amount *float64
		if e.AmountRaisedUSD.Valid {
			v := e.AmountRaisedUSD.Value
			amount = &v
		}
		batch.Queue(`
			INSERT INTO funding_events (
				id, startup_name, sub_sector, geography, lead_investor, funding_round,
				amount_raised_usd, funding_date, created_at, source_url
			) VALUES (
				CASE WHEN EXISTS (
					SELECT 1 FROM funding_events WHERE id = $1 AND source_url IS DISTINCT FROM $10
				) THEN $11 ELSE $1 END,
				$2, $3, $4, $5, $6, $7, $8::date, COALESCE($9::timestamptz, now()), $10
			)
			ON CONFLICT (source_url)
			DO UPDATE SET
				startup_name = EXCLUDED.startup_name,
				sub_sector = EXCLUDED.sub_sector,
				geography = EXCLUDED.geography,
				lead_investor = EXCLUDED.lead_investor,
				funding_round = EXCLUDED.funding_round,
				amount_raised_usd = EXCLUDED.amount_raised_usd,
				funding_date = EXCLUDED.funding_date
		`,
			e.ID,
			e.StartupName,
			e.SubSector,
			e.Geography,
			e.LeadInvestor,
			e.FundingRound,
			amount,
			e.FundingDate,
			e.CreatedAt,
			e.SourceURL,
			uuid.NewString(),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range events {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

func collectEvents(rows pgx.Rows) ([]model.FundingEvent, error) {
	defer rows.Close()
	events := make([]model.FundingEvent, 0)
	for rows.Next() {
		var (
			e      model.FundingEvent
			amount *float64
		)
		if err := rows.Scan(
			&e.ID,
			&e.StartupName,
			&e.SubSector,
			&e.Geography,
			&e.LeadInvestor,
			&e.FundingRound,
			&amount,
			&e.FundingDate,
			&e.CreatedAt,
			&e.SourceURL,
		); err != nil {
			return nil, err
		}
		if amount != nil {
			e.AmountRaisedUSD = model.NewAmount(*amount)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
