// Package portfolio turns the lot ledger and live quotes into aggregated
// positions, portfolio-wide totals, snapshot history, and performance
// attribution.
package portfolio

import (
	"time"

	"github.com/aristath/folio/internal/modules/ledger"
)

// LotValuation is the price-derived annotation for one lot. It exists only
// when the quote provider answered for the lot's symbol; a nil LotValuation
// means unpriced, never price zero.
type LotValuation struct {
	CurrentPrice      float64  `json:"current_price"`
	CurrentValue      float64  `json:"current_value"`
	UnrealizedGain    float64  `json:"unrealized_gain"`
	UnrealizedGainPct float64  `json:"unrealized_gain_pct"`
	DayChange         *float64 `json:"day_change,omitempty"`     // requires previous close
	DayChangePct      *float64 `json:"day_change_pct,omitempty"` // requires previous close > 0
}

// ValuedLot is a ledger lot annotated with its own market data
type ValuedLot struct {
	ledger.Lot
	CostBasis float64       `json:"cost_basis"`
	Valuation *LotValuation `json:"valuation,omitempty"`
}

// PositionValuation is the price-derived part of an aggregated position
type PositionValuation struct {
	CurrentPrice      float64  `json:"current_price"`
	CurrentValue      float64  `json:"current_value"`
	UnrealizedGain    float64  `json:"unrealized_gain"`
	UnrealizedGainPct *float64 `json:"unrealized_gain_pct,omitempty"` // omitted when cost basis is 0
	WeightPct         *float64 `json:"weight_pct,omitempty"`          // omitted when portfolio value is 0
}

// AggregatedPosition is one position per distinct symbol. TotalShares,
// TotalCostBasis, and AverageCost are always computable from the ledger;
// Valuation is nil when the quote provider could not answer.
type AggregatedPosition struct {
	Symbol         string             `json:"symbol"`
	TotalShares    float64            `json:"total_shares"`
	TotalCostBasis float64            `json:"total_cost_basis"`
	AverageCost    float64            `json:"average_cost"`
	Sector         string             `json:"sector,omitempty"`
	Industry       string             `json:"industry,omitempty"`
	Lots           []ledger.Lot       `json:"lots"`
	Valuation      *PositionValuation `json:"valuation,omitempty"`
}

// Priced reports whether the position carries quote-derived fields
func (p *AggregatedPosition) Priced() bool {
	return p.Valuation != nil
}

// Portfolio is the aggregate root of one valuation pass
type Portfolio struct {
	Lots      []ValuedLot          `json:"lots"`
	Positions []AggregatedPosition `json:"positions"`

	TotalCostBasis         float64 `json:"total_cost_basis"`
	TotalCurrentValue      float64 `json:"total_current_value"`
	TotalUnrealizedGain    float64 `json:"total_unrealized_gain"`
	TotalUnrealizedGainPct float64 `json:"total_unrealized_gain_pct"`
	TotalDayChange         float64 `json:"total_day_change"`
	TotalDayChangePct      float64 `json:"total_day_change_pct"`

	PositionCount int `json:"position_count"` // lot count
	SymbolCount   int `json:"symbol_count"`

	SectorAllocation map[string]float64 `json:"sector_allocation"`

	// Symbols the quote provider could not answer for during this pass
	UnpricedSymbols []string `json:"unpriced_symbols"`

	GeneratedAt time.Time `json:"generated_at"`
}

// Snapshot is one calendar day's portfolio valuation
type Snapshot struct {
	ID             int64   `json:"id"`
	SnapshotDate   string  `json:"snapshot_date"` // YYYY-MM-DD, unique
	TotalValue     float64 `json:"total_value"`
	TotalCostBasis float64 `json:"total_cost_basis"`
	TotalGain      float64 `json:"total_gain"`
	TotalGainPct   float64 `json:"total_gain_pct"`
	NumPositions   int     `json:"num_positions"`
	CreatedAt      string  `json:"created_at"`
}

// HistorySummary holds the derived fields of a non-empty history window
type HistorySummary struct {
	StartDate      string  `json:"start_date"`
	EndDate        string  `json:"end_date"`
	StartingValue  float64 `json:"starting_value"`
	CurrentValue   float64 `json:"current_value"`
	TotalChange    float64 `json:"total_change"`
	TotalChangePct float64 `json:"total_change_pct"`
	HighValue      float64 `json:"high_value"`
	HighDate       string  `json:"high_date"`
	LowValue       float64 `json:"low_value"`
	LowDate        string  `json:"low_date"`

	// Trend statistics over the window's daily values
	MeanValue  float64 `json:"mean_value"`
	StdDev     float64 `json:"std_dev"`
	TrendSlope float64 `json:"trend_slope"` // value units per day

	// Volatility of day-over-day returns, annualized over 252 trading
	// days. Needs at least three snapshots.
	AnnualizedVolatility *float64 `json:"annualized_volatility,omitempty"`
}

// History is a read view over snapshots within a trailing window.
// Summary is nil when the window contains no snapshots.
type History struct {
	WindowDays int             `json:"window_days"`
	Snapshots  []Snapshot      `json:"snapshots"`
	Summary    *HistorySummary `json:"summary,omitempty"`
}

// HoldingPerformance is one holding's attribution entry
type HoldingPerformance struct {
	Symbol            string  `json:"symbol"`
	CurrentValue      float64 `json:"current_value"`
	CostBasis         float64 `json:"cost_basis"`
	UnrealizedGain    float64 `json:"unrealized_gain"`
	UnrealizedGainPct float64 `json:"unrealized_gain_pct"`
	WeightPct         float64 `json:"weight_pct"`
	ContributionPct   float64 `json:"contribution_pct"`
	Sector            string  `json:"sector"`
}

// Performance is the portfolio-wide attribution view
type Performance struct {
	Holdings   []HoldingPerformance `json:"holdings"` // sorted by gain descending
	TopGainers []HoldingPerformance `json:"top_gainers"`
	TopLosers  []HoldingPerformance `json:"top_losers"`

	TotalValue     float64 `json:"total_value"`
	TotalCostBasis float64 `json:"total_cost_basis"`
	TotalGain      float64 `json:"total_gain"`
	TotalGainPct   float64 `json:"total_gain_pct"`

	SectorPerformance map[string]float64 `json:"sector_performance"`
}
