package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"vehiclescraper/internal/models"
)

// Outcome values stored in scrape_log.
const (
	OutcomeLive     = "live"
	OutcomeFallback = "fallback"
	OutcomeError    = "error"
)

// ScrapeRecord is one row of scrape history.
type ScrapeRecord struct {
	ID        string          `json:"id"`
	URL       string          `json:"url"`
	Platform  string          `json:"platform"`
	ClientIP  string          `json:"clientIp"`
	Outcome   string          `json:"outcome"`
	Make      string          `json:"make,omitempty"`
	Model     string          `json:"model,omitempty"`
	Price     int             `json:"price,omitempty"`
	Currency  string          `json:"currency,omitempty"`
	Error     string          `json:"error,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// NewScrapeRecord builds a history row from the result of one request. A
// non-nil err records an error outcome and ignores result.
func NewScrapeRecord(url, platform, clientIP string, result models.ScrapeResult, err error) *ScrapeRecord {
	rec := &ScrapeRecord{URL: url, Platform: platform, ClientIP: clientIP}
	if err != nil {
		rec.Outcome = OutcomeError
		rec.Error = err.Error()
		return rec
	}

	rec.Outcome = OutcomeLive
	if result.IsFallback() {
		rec.Outcome = OutcomeFallback
		rec.Error = result.Reason
	}
	rec.Make = result.Vehicle.Make
	rec.Model = result.Vehicle.Model
	rec.Price = result.Vehicle.Price
	rec.Currency = result.Vehicle.Currency
	if payload, err := json.Marshal(result); err == nil {
		rec.Payload = payload
	}
	return rec
}

// RecordScrape inserts rec, assigning its ID and timestamp when unset.
func (d *Database) RecordScrape(ctx context.Context, rec *ScrapeRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = d.now()
	}

	var payload interface{}
	if len(rec.Payload) > 0 {
		payload = string(rec.Payload)
	}

	_, err := d.db.ExecContext(ctx, `
		INSERT INTO scrape_log
		(id, url, platform, client_ip, outcome, make, model, price, currency, error, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.URL, rec.Platform, rec.ClientIP, rec.Outcome, rec.Make, rec.Model,
		rec.Price, rec.Currency, rec.Error, payload, rec.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to record scrape: %w", err)
	}
	return nil
}

// RecentScrapes returns up to limit records, newest first.
func (d *Database) RecentScrapes(ctx context.Context, limit int) ([]ScrapeRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT id, url, platform, client_ip, outcome, make, model, price, currency, error, payload, created_at
		FROM scrape_log
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query scrape history: %w", err)
	}
	defer rows.Close()

	records := []ScrapeRecord{}
	for rows.Next() {
		var rec ScrapeRecord
		var payload sql.NullString
		err := rows.Scan(&rec.ID, &rec.URL, &rec.Platform, &rec.ClientIP, &rec.Outcome,
			&rec.Make, &rec.Model, &rec.Price, &rec.Currency, &rec.Error, &payload, &rec.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scrape record: %w", err)
		}
		if payload.Valid {
			rec.Payload = json.RawMessage(payload.String)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// PruneOlderThan deletes records older than age and returns how many went.
func (d *Database) PruneOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	cutoff := d.now().Add(-age).UTC()
	res, err := d.db.ExecContext(ctx, "DELETE FROM scrape_log WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune scrape history: %w", err)
	}
	return res.RowsAffected()
}

// OutcomeCounts returns the number of records per outcome.
func (d *Database) OutcomeCounts(ctx context.Context) (map[string]int, error) {
	rows, err := d.db.QueryContext(ctx, "SELECT outcome, COUNT(*) FROM scrape_log GROUP BY outcome")
	if err != nil {
		return nil, fmt.Errorf("failed to count scrape history: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{OutcomeLive: 0, OutcomeFallback: 0, OutcomeError: 0}
	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, fmt.Errorf("failed to scan outcome count: %w", err)
		}
		counts[outcome] = n
	}
	return counts, rows.Err()
}
