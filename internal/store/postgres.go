package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"ad-discovery-scraper/internal/models"
)

// Postgres wraps a postgres DB connection.
type Postgres struct {
	DB *sql.DB
}

// schemaSQL sets up the ad_records table if it doesn't exist.
const schemaSQL = `CREATE TABLE IF NOT EXISTS ad_records (
    ad_id TEXT PRIMARY KEY,
    advertiser_name TEXT NOT NULL,
    body_text TEXT,
    library_id TEXT NULL,
    landing_page_url TEXT,
    cta_text TEXT,
    active_days INT,
    search_term TEXT,
    discovery_method TEXT,
    is_new_competitor BOOLEAN NOT NULL DEFAULT FALSE,
    scraped_at TIMESTAMPTZ NOT NULL,
    image_urls TEXT[],
    video_urls TEXT[],
    platforms TEXT[],
    quality_total INT NULL,
    is_qualified BOOLEAN NULL,
    score INT NULL,
    record JSONB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_ad_records_advertiser ON ad_records (advertiser_name);
CREATE INDEX IF NOT EXISTS idx_ad_records_scraped_at ON ad_records (scraped_at);
`

const upsertSQL = `INSERT INTO ad_records (
    ad_id, advertiser_name, body_text, library_id, landing_page_url, cta_text,
    active_days, search_term, discovery_method, is_new_competitor, scraped_at,
    image_urls, video_urls, platforms, quality_total, is_qualified, score, record
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
ON CONFLICT (ad_id) DO UPDATE SET
    active_days = EXCLUDED.active_days,
    is_new_competitor = EXCLUDED.is_new_competitor,
    quality_total = EXCLUDED.quality_total,
    is_qualified = EXCLUDED.is_qualified,
    score = EXCLUDED.score,
    record = EXCLUDED.record`

// InitPostgres connects to Postgres and ensures the schema exists.
func InitPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres open: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	p := &Postgres{DB: db}
	if err := p.ensureSchema(ctx); err != nil {
		return nil, err
	}
	log.Info().Msg("Connected to Postgres")
	return p, nil
}

// Close terminates the Postgres connection.
func (p *Postgres) Close() {
	if p != nil && p.DB != nil {
		if err := p.DB.Close(); err != nil {
			log.Error().Err(err).Msg("postgres close")
		}
	}
}

func (p *Postgres) ensureSchema(ctx context.Context) error {
	if _, err := p.DB.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// SaveRecords upserts a batch of records in one transaction.
func (p *Postgres) SaveRecords(ctx context.Context, records []models.AdRecord) error {
	tx, err := p.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertSQL)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		args, err := recordArgs(r)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("upsert %s: %w", r.AdID, err)
		}
	}
	return tx.Commit()
}

// RecentRecords returns the latest stored records, newest first.
func (p *Postgres) RecentRecords(ctx context.Context, limit int) ([]models.AdRecord, error) {
	rows, err := p.DB.QueryContext(ctx, `SELECT record FROM ad_records ORDER BY scraped_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []models.AdRecord
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		var r models.AdRecord
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// recordArgs maps a record onto the upsert columns
func recordArgs(r models.AdRecord) ([]any, error) {
	raw, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode record %s: %w", r.AdID, err)
	}

	var libraryID sql.NullString
	if r.LibraryID != nil {
		libraryID = sql.NullString{String: *r.LibraryID, Valid: true}
	}
	var qualityTotal, score sql.NullInt64
	var qualified sql.NullBool
	if r.Quality != nil {
		qualityTotal = sql.NullInt64{Int64: int64(r.Quality.Total), Valid: true}
		qualified = sql.NullBool{Bool: r.Quality.IsQualified, Valid: true}
	}
	if r.Scoring != nil {
		score = sql.NullInt64{Int64: int64(r.Scoring.Score), Valid: true}
	}

	return []any{
		r.AdID,
		r.AdvertiserName,
		r.BodyText,
		libraryID,
		r.LandingPageURL,
		r.CTAText,
		r.ActiveDays,
		r.SearchTerm,
		r.DiscoveryMethod,
		r.IsNewCompetitor,
		r.ScrapedAt,
		pq.Array(r.AllImageURLs),
		pq.Array(r.AllVideoURLs),
		pq.Array(r.Platforms),
		qualityTotal,
		qualified,
		score,
		raw,
	}, nil
}
