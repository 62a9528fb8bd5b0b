// Package market fronts the quote provider with a short-lived cache and
// exposes symbol search and news lookups.
package market

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/folio/internal/domain"
)

// CacheRepository stores serialized quotes keyed by symbol
type CacheRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewCacheRepository creates a new quote cache repository
func NewCacheRepository(db *sql.DB, log zerolog.Logger) *CacheRepository {
	return &CacheRepository{
		db:  db,
		log: log.With().Str("repo", "quote_cache").Logger(),
	}
}

// Get returns the cached quote and its fetch time, or domain.ErrNotFound
func (r *CacheRepository) Get(symbol string) (*domain.Quote, time.Time, error) {
	var blob []byte
	var fetchedAt string

	err := r.db.QueryRow(
		"SELECT data, fetched_at FROM quote_cache WHERE symbol = ?", symbol,
	).Scan(&blob, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, fmt.Errorf("quote cache %s: %w", symbol, domain.ErrNotFound)
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to read quote cache for %s: %w", symbol, err)
	}

	var quote domain.Quote
	if err := msgpack.Unmarshal(blob, &quote); err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to decode cached quote for %s: %w", symbol, err)
	}

	ts, err := time.Parse(time.RFC3339, fetchedAt)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to parse cache timestamp for %s: %w", symbol, err)
	}

	return &quote, ts, nil
}

// Put stores or replaces the cached quote for a symbol
func (r *CacheRepository) Put(symbol string, quote *domain.Quote, fetchedAt time.Time) error {
	blob, err := msgpack.Marshal(quote)
	if err != nil {
		return fmt.Errorf("failed to encode quote for %s: %w", symbol, err)
	}

	_, err = r.db.Exec(`
		INSERT INTO quote_cache (symbol, data, fetched_at)
		VALUES (?, ?, ?)
		ON CONFLICT(symbol) DO UPDATE SET
			data = excluded.data,
			fetched_at = excluded.fetched_at
	`, symbol, blob, fetchedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to write quote cache for %s: %w", symbol, err)
	}

	return nil
}

// Purge removes entries fetched before the cutoff
func (r *CacheRepository) Purge(cutoff time.Time) (int64, error) {
	result, err := r.db.Exec("DELETE FROM quote_cache WHERE fetched_at < ?", cutoff.Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("failed to purge quote cache: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count purged rows: %w", err)
	}

	return removed, nil
}
