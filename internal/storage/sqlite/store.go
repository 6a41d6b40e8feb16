package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fundingScope/internal/model"
	"fundingScope/internal/query"
	"fundingScope/internal/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS funding_events (
	id TEXT PRIMARY KEY,
	startup_name TEXT NOT NULL,
	sub_sector TEXT,
	geography TEXT,
	lead_investor TEXT,
	funding_round TEXT,
	amount_raised_usd REAL,
	funding_date TEXT,
	created_at TEXT,
	source_url TEXT UNIQUE
);

CREATE INDEX IF NOT EXISTS idx_funding_events_funding_date ON funding_events(funding_date);
CREATE INDEX IF NOT EXISTS idx_funding_events_created_at ON funding_events(created_at);

CREATE TABLE IF NOT EXISTS companies (
	slug TEXT PRIMARY KEY,
	name TEXT,
	bio TEXT,
	website TEXT,
	last_enriched_at TEXT,
	updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
);
`

// Store is a file-backed funding event store for local use.
type Store struct {
	db *sql.DB
}

var _ storage.EventStore = (*Store)(nil)

// NewStore opens path and creates missing tables.
func NewStore(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required: %w", storage.ErrNotConfigured)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(ctx, `
		PRAGMA journal_mode = WAL;
		PRAGMA busy_timeout = 5000;
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("bootstrap schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() {
	if s.db != nil {
		s.db.Close()
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) QueryEvents(ctx context.Context, params query.Params) (storage.Page, error) {
	stmt, err := query.Compile(query.SQLite, query.PageSelect("funding_events", storage.EventColumns, params))
	if err != nil {
		return storage.Page{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storage.Page{}, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return storage.Page{}, fmt.Errorf("query events: %w", err)
	}
	events, err := collectEvents(rows)
	if err != nil {
		return storage.Page{}, fmt.Errorf("query events: %w", err)
	}

	var count int
	if err := tx.QueryRowContext(ctx, stmt.CountSQL, stmt.CountArgs...).Scan(&count); err != nil {
		return storage.Page{}, fmt.Errorf("count events: %w", err)
	}
	return storage.Page{Events: events, Count: count}, tx.Commit()
}

func (s *Store) RecentEvents(ctx context.Context, limit int) ([]model.FundingEvent, error) {
	return s.selectEvents(ctx, storage.RecentSelect(storage.EventColumns, limit))
}

func (s *Store) CompanyEvents(ctx context.Context, name string, limit int) ([]model.FundingEvent, error) {
	return s.selectEvents(ctx, storage.CompanySelect(storage.EventColumns, name, limit))
}

func (s *Store) selectEvents(ctx context.Context, sel query.Select) ([]model.FundingEvent, error) {
	stmt, err := query.Compile(query.SQLite, sel)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, fmt.Errorf("select events: %w", err)
	}
	return collectEvents(rows)
}

func (s *Store) CompanyProfile(ctx context.Context, slug string) (model.CompanyRecord, bool, error) {
	var name, bio, website sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT name, bio, website FROM companies WHERE slug = ?`, slug,
	).Scan(&name, &bio, &website)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.CompanyRecord{}, false, nil
		}
		return model.CompanyRecord{}, false, err
	}
	return model.CompanyRecord{
		Slug:    slug,
		Name:    nullString(name),
		Bio:     nullString(bio),
		Website: nullString(website),
	}, true, nil
}

// UpsertEvents writes events in one transaction, deduplicated on source_url.
// A given id already held by another source_url is replaced with a new one.
func (s *Store) UpsertEvents(ctx context.Context, events []model.FundingEvent) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO funding_events (
			id, startup_name, sub_sector, geography, lead_investor, funding_round,
			amount_raised_usd, funding_date, created_at, source_url
		) VALUES (
			CASE WHEN EXISTS (SELECT 1 FROM funding_events WHERE id = ? AND source_url IS NOT ?) THEN ? ELSE ? END,
			?, ?, ?, ?, ?, ?, ?, COALESCE(?, strftime('%Y-%m-%dT%H:%M:%SZ', 'now')), ?
		)
		ON CONFLICT (source_url) DO UPDATE SET
			startup_name = excluded.startup_name,
			sub_sector = excluded.sub_sector,
			geography = excluded.geography,
			lead_investor = excluded.lead_investor,
			funding_round = excluded.funding_round,
			amount_raised_usd = excluded.amount_raised_usd,
			funding_date = excluded.funding_date
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range events {
		var amount any
		if e.AmountRaisedUSD.Valid {
			amount = e.AmountRaisedUSD.Value
		}
		if _, err := stmt.ExecContext(ctx,
			e.ID, e.SourceURL, uuid.NewString(), e.ID,
			e.StartupName,
			e.SubSector,
			e.Geography,
			e.LeadInvestor,
			e.FundingRound,
			amount,
			e.FundingDate,
			timestampText(e.CreatedAt),
			e.SourceURL,
		); err != nil {
			return fmt.Errorf("upsert %s: %w", e.ID, err)
		}
	}
	return tx.Commit()
}

// timestampText stores parseable timestamps as second-precision UTC RFC 3339,
// which date() understands. Anything else is kept verbatim.
func timestampText(raw *string) *string {
	if raw == nil {
		return nil
	}
	ts, ok := model.ParseDate(*raw)
	if !ok {
		return raw
	}
	text := ts.UTC().Format(time.RFC3339)
	return &text
}

func collectEvents(rows *sql.Rows) ([]model.FundingEvent, error) {
	defer rows.Close()
	events := make([]model.FundingEvent, 0)
	for rows.Next() {
		var (
			e                                     model.FundingEvent
			subSector, geography, investor, round sql.NullString
			fundingDate, createdAt, sourceURL     sql.NullString
			amount                                any
		)
		if err := rows.Scan(
			&e.ID,
			&e.StartupName,
			&subSector,
			&geography,
			&investor,
			&round,
			&amount,
			&fundingDate,
			&createdAt,
			&sourceURL,
		); err != nil {
			return nil, err
		}
		e.SubSector = nullString(subSector)
		e.Geography = nullString(geography)
		e.LeadInvestor = nullString(investor)
		e.FundingRound = nullString(round)
		e.AmountRaisedUSD = model.AmountFromAny(amount)
		e.FundingDate = nullString(fundingDate)
		e.CreatedAt = nullString(createdAt)
		e.SourceURL = nullString(sourceURL)
		events = append(events, e)
	}
	return events, rows.Err()
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
