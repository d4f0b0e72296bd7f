package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adpulse/adpulse/internal/contracts"
)

// Postgres persists raw records, enriched records and the ingest log. It
// implements contracts.RecordStore and contracts.IngestLog. All writes are
// appends; nothing is ever updated in place.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a Postgres-backed record store.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

const schemaDDL = `
CREATE SCHEMA IF NOT EXISTS marketing;

CREATE TABLE IF NOT EXISTS marketing.raw_records (
	id            BIGSERIAL PRIMARY KEY,
	date          DATE NOT NULL,
	campaign_name TEXT NOT NULL,
	impressions   BIGINT NOT NULL,
	clicks        BIGINT NOT NULL,
	spend         DOUBLE PRECISION NOT NULL,
	revenue       DOUBLE PRECISION NOT NULL,
	uploaded_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS marketing.enriched_records (
	id            BIGSERIAL PRIMARY KEY,
	date          DATE NOT NULL,
	campaign_name TEXT NOT NULL,
	impressions   BIGINT NOT NULL,
	clicks        BIGINT NOT NULL,
	spend         DOUBLE PRECISION NOT NULL,
	revenue       DOUBLE PRECISION NOT NULL,
	ctr           DOUBLE PRECISION NOT NULL,
	cpc           DOUBLE PRECISION NOT NULL,
	roi           DOUBLE PRECISION NOT NULL,
	calculated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_enriched_records_date ON marketing.enriched_records (date);
CREATE INDEX IF NOT EXISTS idx_enriched_records_campaign ON marketing.enriched_records (campaign_name);

CREATE TABLE IF NOT EXISTS marketing.ingest_log (
	id             BIGSERIAL PRIMARY KEY,
	source_name    TEXT NOT NULL,
	rows_submitted INTEGER NOT NULL,
	rows_accepted  INTEGER NOT NULL,
	status         TEXT NOT NULL,
	ts             TIMESTAMPTZ NOT NULL,
	error_detail   TEXT NOT NULL DEFAULT ''
);
`

// Migrate creates the marketing schema and tables if they do not exist.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schemaDDL); err != nil {
		return &contracts.StoreError{Op: "migrate", Err: err}
	}
	return nil
}

// AppendBatch writes the raw batch, the enriched batch and the outcome in a
// single transaction so the batch and its audit record are durable together
// or not at all.
func (p *Postgres) AppendBatch(ctx context.Context, raw []contracts.RawRecord, enriched []contracts.EnrichedRecord, outcome contracts.IngestOutcome) error {
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return &contracts.StoreError{Op: "begin append", Err: err}
	}
	defer tx.Rollback(ctx)

	for _, r := range raw {
		_, err := tx.Exec(ctx, `
			INSERT INTO marketing.raw_records (date, campaign_name, impressions, clicks, spend, revenue)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, r.Date, r.CampaignName, r.Impressions, r.Clicks, r.Spend, r.Revenue)
		if err != nil {
			return &contracts.StoreError{Op: "insert raw record", Err: err}
		}
	}

	for _, e := range enriched {
		_, err := tx.Exec(ctx, `
			INSERT INTO marketing.enriched_records (date, campaign_name, impressions, clicks, spend, revenue, ctr, cpc, roi, calculated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, e.Date, e.CampaignName, e.Impressions, e.Clicks, e.Spend, e.Revenue, e.CTR, e.CPC, e.ROI, e.CalculatedAt)
		if err != nil {
			return &contracts.StoreError{Op: "insert enriched record", Err: err}
		}
	}

	if err := insertOutcome(ctx, tx, outcome); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return &contracts.StoreError{Op: "commit append", Err: err}
	}
	return nil
}

// Records returns enriched records matching the filter, most recent date
// first, then campaign name, so repeated identical queries are stable.
func (p *Postgres) Records(ctx context.Context, filter contracts.RecordFilter) ([]contracts.EnrichedRecord, error) {
	query := `
		SELECT date, campaign_name, impressions, clicks, spend, revenue, ctr, cpc, roi, calculated_at
		FROM marketing.enriched_records
		WHERE ($1 = '' OR campaign_name ILIKE '%' || $1 || '%')
		  AND ($2::date IS NULL OR date >= $2)
		  AND ($3::date IS NULL OR date <= $3)
		ORDER BY date DESC, campaign_name ASC
	`

	rows, err := p.pool.Query(ctx, query, filter.Campaign, filter.DateFrom, filter.DateTo)
	if err != nil {
		return nil, &contracts.StoreError{Op: "query records", Err: err}
	}
	defer rows.Close()

	var recs []contracts.EnrichedRecord
	for rows.Next() {
		var e contracts.EnrichedRecord
		if err := rows.Scan(&e.Date, &e.CampaignName, &e.Impressions, &e.Clicks, &e.Spend, &e.Revenue, &e.CTR, &e.CPC, &e.ROI, &e.CalculatedAt); err != nil {
			return nil, &contracts.StoreError{Op: "scan record", Err: err}
		}
		e.Date = e.Date.UTC()
		recs = append(recs, e)
	}
	if err := rows.Err(); err != nil {
		return nil, &contracts.StoreError{Op: "iterate records", Err: err}
	}
	return recs, nil
}

// Record appends a single ingest outcome outside of a batch write. Used for
// failed ingests where no rows are persisted.
func (p *Postgres) Record(ctx context.Context, outcome contracts.IngestOutcome) error {
	return insertOutcome(ctx, p.pool, outcome)
}

// Recent returns the latest ingest outcomes, newest first.
func (p *Postgres) Recent(ctx context.Context, limit int) ([]contracts.IngestOutcome, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT source_name, rows_submitted, rows_accepted, status, ts, error_detail
		FROM marketing.ingest_log
		ORDER BY ts DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, &contracts.StoreError{Op: "query ingest log", Err: err}
	}
	defer rows.Close()

	var outcomes []contracts.IngestOutcome
	for rows.Next() {
		var o contracts.IngestOutcome
		if err := rows.Scan(&o.SourceName, &o.RowsSubmitted, &o.RowsAccepted, &o.Status, &o.Timestamp, &o.ErrorDetail); err != nil {
			return nil, &contracts.StoreError{Op: "scan ingest outcome", Err: err}
		}
		outcomes = append(outcomes, o)
	}
	if err := rows.Err(); err != nil {
		return nil, &contracts.StoreError{Op: "iterate ingest log", Err: err}
	}
	return outcomes, nil
}

// PruneBefore deletes ingest log entries older than cutoff and reports how
// many were removed. Record data is never pruned; only the audit log has a
// retention window.
func (p *Postgres) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM marketing.ingest_log WHERE ts < $1`, cutoff)
	if err != nil {
		return 0, &contracts.StoreError{Op: "prune ingest log", Err: err}
	}
	return tag.RowsAffected(), nil
}

// execer lets insertOutcome run against either the pool or a transaction.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertOutcome(ctx context.Context, db execer, outcome contracts.IngestOutcome) error {
	_, err := db.Exec(ctx, `
		INSERT INTO marketing.ingest_log (source_name, rows_submitted, rows_accepted, status, ts, error_detail)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, outcome.SourceName, outcome.RowsSubmitted, outcome.RowsAccepted, string(outcome.Status), outcome.Timestamp, outcome.ErrorDetail)
	if err != nil {
		return &contracts.StoreError{Op: "insert ingest outcome", Err: err}
	}
	return nil
}
