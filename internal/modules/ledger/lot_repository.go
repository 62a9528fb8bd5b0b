package ledger

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aristath/folio/internal/domain"
)

// LotRepository handles lot database operations
type LotRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewLotRepository creates a new lot repository
func NewLotRepository(db *sql.DB, log zerolog.Logger) *LotRepository {
	return &LotRepository{
		db:  db,
		log: log.With().Str("repo", "lot").Logger(),
	}
}

// GetAll returns all lots ordered by symbol, purchase date, then id
func (r *LotRepository) GetAll() ([]Lot, error) {
	rows, err := r.db.Query(`
		SELECT id, symbol, shares, purchase_price, purchase_date, notes, created_at, updated_at
		FROM lots
		ORDER BY symbol, purchase_date, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query lots: %w", err)
	}
	defer rows.Close()

	return r.collect(rows)
}

// GetBySymbol returns all lots for one symbol ordered by purchase date, then id
func (r *LotRepository) GetBySymbol(symbol string) ([]Lot, error) {
	rows, err := r.db.Query(`
		SELECT id, symbol, shares, purchase_price, purchase_date, notes, created_at, updated_at
		FROM lots
		WHERE symbol = ?
		ORDER BY purchase_date, id
	`, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to query lots for %s: %w", symbol, err)
	}
	defer rows.Close()

	return r.collect(rows)
}

// GetByID returns a single lot or domain.ErrNotFound
func (r *LotRepository) GetByID(id int64) (*Lot, error) {
	row := r.db.QueryRow(`
		SELECT id, symbol, shares, purchase_price, purchase_date, notes, created_at, updated_at
		FROM lots
		WHERE id = ?
	`, id)

	lot, err := r.scanLot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lot %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lot %d: %w", id, err)
	}

	return lot, nil
}

// Insert stores a new lot and returns it with its assigned id
func (r *LotRepository) Insert(req CreateLotRequest) (*Lot, error) {
	result, err := r.db.Exec(`
		INSERT INTO lots (symbol, shares, purchase_price, purchase_date, notes)
		VALUES (?, ?, ?, ?, ?)
	`, req.Symbol, req.Shares, req.PurchasePrice, req.PurchaseDate, req.Notes)
	if err != nil {
		return nil, fmt.Errorf("failed to insert lot: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get lot id: %w", err)
	}

	r.log.Info().Int64("id", id).Str("symbol", req.Symbol).Float64("shares", req.Shares).Msg("Lot added")

	return r.GetByID(id)
}

// Update applies a partial update. Only non-nil fields change.
func (r *LotRepository) Update(id int64, req UpdateLotRequest) (*Lot, error) {
	var sets []string
	var args []interface{}

	if req.Shares != nil {
		sets = append(sets, "shares = ?")
		args = append(args, *req.Shares)
	}
	if req.PurchasePrice != nil {
		sets = append(sets, "purchase_price = ?")
		args = append(args, *req.PurchasePrice)
	}
	if req.PurchaseDate != nil {
		sets = append(sets, "purchase_date = ?")
		args = append(args, *req.PurchaseDate)
	}
	if req.Notes != nil {
		sets = append(sets, "notes = ?")
		args = append(args, *req.Notes)
	}

	sets = append(sets, "updated_at = datetime('now')")
	args = append(args, id)

	result, err := r.db.Exec("UPDATE lots SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update lot %d: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("lot %d: %w", id, domain.ErrNotFound)
	}

	return r.GetByID(id)
}

// Delete removes a lot, returning domain.ErrNotFound if it does not exist
func (r *LotRepository) Delete(id int64) error {
	result, err := r.db.Exec("DELETE FROM lots WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete lot %d: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("lot %d: %w", id, domain.ErrNotFound)
	}

	r.log.Info().Int64("id", id).Msg("Lot deleted")

	return nil
}

// Symbols returns the distinct symbols present in the ledger, sorted
func (r *LotRepository) Symbols() ([]string, error) {
	rows, err := r.db.Query("SELECT DISTINCT symbol FROM lots ORDER BY symbol")
	if err != nil {
		return nil, fmt.Errorf("failed to query symbols: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		symbols = append(symbols, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating symbols: %w", err)
	}

	return symbols, nil
}

// scanner abstracts *sql.Row and *sql.Rows for the scan helper
type scanner interface {
	Scan(dest ...interface{}) error
}

func (r *LotRepository) scanLot(s scanner) (*Lot, error) {
	var lot Lot
	var notes sql.NullString

	err := s.Scan(
		&lot.ID,
		&lot.Symbol,
		&lot.Shares,
		&lot.PurchasePrice,
		&lot.PurchaseDate,
		&notes,
		&lot.CreatedAt,
		&lot.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	lot.Notes = notes.String

	return &lot, nil
}

func (r *LotRepository) collect(rows *sql.Rows) ([]Lot, error) {
	var lots []Lot
	for rows.Next() {
		lot, err := r.scanLot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lot: %w", err)
		}
		lots = append(lots, *lot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating lots: %w", err)
	}

	return lots, nil
}
