package portfolio

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
)

// SnapshotRepository handles snapshot database operations
type SnapshotRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewSnapshotRepository creates a new snapshot repository
func NewSnapshotRepository(db *sql.DB, log zerolog.Logger) *SnapshotRepository {
	return &SnapshotRepository{
		db:  db,
		log: log.With().Str("repo", "snapshot").Logger(),
	}
}

// Upsert writes or overwrites the snapshot for a date. A second save on
// the same date replaces the first entirely, it never appends a row.
func (r *SnapshotRepository) Upsert(snap Snapshot) error {
	_, err := r.db.Exec(`
		INSERT INTO portfolio_snapshots (snapshot_date, total_value, total_cost_basis, total_gain, total_gain_pct, num_positions)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(snapshot_date) DO UPDATE SET
			total_value = excluded.total_value,
			total_cost_basis = excluded.total_cost_basis,
			total_gain = excluded.total_gain,
			total_gain_pct = excluded.total_gain_pct,
			num_positions = excluded.num_positions
	`, snap.SnapshotDate, snap.TotalValue, snap.TotalCostBasis, snap.TotalGain, snap.TotalGainPct, snap.NumPositions)
	if err != nil {
		return fmt.Errorf("failed to upsert snapshot for %s: %w", snap.SnapshotDate, err)
	}

	r.log.Info().Str("date", snap.SnapshotDate).Float64("total_value", snap.TotalValue).Msg("Snapshot saved")

	return nil
}

// GetSince returns snapshots with date >= cutoff, ascending by date
func (r *SnapshotRepository) GetSince(cutoff string) ([]Snapshot, error) {
	rows, err := r.db.Query(`
		SELECT id, snapshot_date, total_value, total_cost_basis, total_gain, total_gain_pct, num_positions, created_at
		FROM portfolio_snapshots
		WHERE snapshot_date >= ?
		ORDER BY snapshot_date ASC
	`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []Snapshot
	for rows.Next() {
		var snap Snapshot
		if err := rows.Scan(
			&snap.ID,
			&snap.SnapshotDate,
			&snap.TotalValue,
			&snap.TotalCostBasis,
			&snap.TotalGain,
			&snap.TotalGainPct,
			&snap.NumPositions,
			&snap.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snapshots = append(snapshots, snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}

	return snapshots, nil
}
