package portfolio

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/modules/ledger"
)

// fakeQuoteProvider serves canned quotes per symbol
type fakeQuoteProvider struct {
	quotes map[string]*domain.Quote
	errs   map[string]error
}

func (f *fakeQuoteProvider) GetQuote(symbol string) (*domain.Quote, error) {
	if err, ok := f.errs[symbol]; ok {
		return nil, err
	}
	if q, ok := f.quotes[symbol]; ok {
		return q, nil
	}
	return nil, &domain.QuoteError{Symbol: symbol, Err: errors.New("no data")}
}

func pricedQuote(symbol string, price, prevClose float64, sector string) *domain.Quote {
	return &domain.Quote{
		Symbol:        symbol,
		CurrentPrice:  &price,
		PreviousClose: &prevClose,
		Sector:        sector,
	}
}

func setupPortfolioDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE lots (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol TEXT NOT NULL,
			shares REAL NOT NULL CHECK (shares > 0),
			purchase_price REAL NOT NULL CHECK (purchase_price > 0),
			purchase_date TEXT NOT NULL,
			notes TEXT,
			created_at TEXT NOT NULL DEFAULT (datetime('now')),
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		);

		CREATE TABLE portfolio_snapshots (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			snapshot_date TEXT NOT NULL UNIQUE,
			total_value REAL NOT NULL,
			total_cost_basis REAL NOT NULL,
			total_gain REAL NOT NULL,
			total_gain_pct REAL NOT NULL,
			num_positions INTEGER NOT NULL,
			created_at TEXT NOT NULL DEFAULT (datetime('now'))
		);
	`)
	require.NoError(t, err)

	return db
}

func newTestService(t *testing.T, provider domain.QuoteProvider) (*Service, *sql.DB) {
	t.Helper()

	db := setupPortfolioDB(t)
	lotRepo := ledger.NewLotRepository(db, zerolog.Nop())
	snapRepo := NewSnapshotRepository(db, zerolog.Nop())

	svc := NewService(lotRepo, provider, snapRepo, zerolog.Nop())
	svc.now = func() time.Time {
		return time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	}
	return svc, db
}

func insertLot(t *testing.T, db *sql.DB, symbol string, shares, price float64, date string) {
	t.Helper()
	_, err := db.Exec(
		"INSERT INTO lots (symbol, shares, purchase_price, purchase_date) VALUES (?, ?, ?, ?)",
		symbol, shares, price, date,
	)
	require.NoError(t, err)
}

func TestGetPortfolio_SingleLot(t *testing.T) {
	provider := &fakeQuoteProvider{quotes: map[string]*domain.Quote{
		"AAPL": pricedQuote("AAPL", 60, 58, "Technology"),
	}}
	svc, db := newTestService(t, provider)
	insertLot(t, db, "AAPL", 10, 50, "2024-01-15")

	p, err := svc.GetPortfolio()
	require.NoError(t, err)
	require.Len(t, p.Positions, 1)

	pos := p.Positions[0]
	require.True(t, pos.Priced())
	assert.InDelta(t, 500.0, pos.TotalCostBasis, 1e-9)
	assert.InDelta(t, 600.0, pos.Valuation.CurrentValue, 1e-9)
	assert.InDelta(t, 100.0, pos.Valuation.UnrealizedGain, 1e-9)
	require.NotNil(t, pos.Valuation.UnrealizedGainPct)
	assert.InDelta(t, 20.0, *pos.Valuation.UnrealizedGainPct, 1e-9)

	assert.InDelta(t, 600.0, p.TotalCurrentValue, 1e-9)
	assert.InDelta(t, 100.0, p.TotalUnrealizedGain, 1e-9)
	assert.InDelta(t, 20.0, p.TotalUnrealizedGainPct, 1e-9)
	assert.Empty(t, p.UnpricedSymbols)
}

func TestGetPortfolio_MultiLotAverageCost(t *testing.T) {
	provider := &fakeQuoteProvider{quotes: map[string]*domain.Quote{
		"MSFT": pricedQuote("MSFT", 25, 25, "Technology"),
	}}
	svc, db := newTestService(t, provider)
	insertLot(t, db, "MSFT", 5, 10, "2024-01-01")
	insertLot(t, db, "MSFT", 5, 20, "2024-02-01")

	p, err := svc.GetPortfolio()
	require.NoError(t, err)
	require.Len(t, p.Positions, 1)

	pos := p.Positions[0]
	assert.InDelta(t, 10.0, pos.TotalShares, 1e-9)
	assert.InDelta(t, 150.0, pos.TotalCostBasis, 1e-9)
	assert.InDelta(t, 15.0, pos.AverageCost, 1e-9)
	require.Len(t, pos.Lots, 2)
	assert.Equal(t, "2024-01-01", pos.Lots[0].PurchaseDate, "lot order within a group follows purchase date")

	// average_cost * total_shares recovers total cost basis
	assert.InDelta(t, pos.TotalCostBasis, pos.AverageCost*pos.TotalShares, 1e-9)
}

func TestGetPortfolio_UnpricedSymbolIsolated(t *testing.T) {
	provider := &fakeQuoteProvider{
		quotes: map[string]*domain.Quote{
			"AAPL": pricedQuote("AAPL", 60, 58, "Technology"),
		},
		errs: map[string]error{
			"FAIL": errors.New("upstream down"),
		},
	}
	svc, db := newTestService(t, provider)
	insertLot(t, db, "AAPL", 10, 50, "2024-01-15")
	insertLot(t, db, "FAIL", 5, 100, "2024-02-01")

	p, err := svc.GetPortfolio()
	require.NoError(t, err, "a quote failure for one symbol must not abort the pass")

	assert.Equal(t, []string{"FAIL"}, p.UnpricedSymbols)

	// Unpriced position sorts last, contributes nothing to value but its
	// full cost basis to the cost total
	require.Len(t, p.Positions, 2)
	assert.Equal(t, "AAPL", p.Positions[0].Symbol)
	assert.Equal(t, "FAIL", p.Positions[1].Symbol)
	assert.False(t, p.Positions[1].Priced())

	assert.InDelta(t, 600.0, p.TotalCurrentValue, 1e-9)
	assert.InDelta(t, 1000.0, p.TotalCostBasis, 1e-9)

	_, inAllocation := p.SectorAllocation["Unknown"]
	assert.False(t, inAllocation)
	assert.Len(t, p.SectorAllocation, 1)
}

func TestGetPortfolio_AllSymbolsUnpriced(t *testing.T) {
	provider := &fakeQuoteProvider{errs: map[string]error{
		"AAPL": errors.New("down"),
	}}
	svc, db := newTestService(t, provider)
	insertLot(t, db, "AAPL", 10, 50, "2024-01-15")

	p, err := svc.GetPortfolio()
	require.NoError(t, err)

	assert.InDelta(t, 0.0, p.TotalCurrentValue, 1e-9)
	assert.InDelta(t, 500.0, p.TotalCostBasis, 1e-9)
	assert.Empty(t, p.SectorAllocation)
	assert.Equal(t, []string{"AAPL"}, p.UnpricedSymbols)
}

func TestGetPortfolio_EmptyLedger(t *testing.T) {
	svc, _ := newTestService(t, &fakeQuoteProvider{})

	p, err := svc.GetPortfolio()
	require.NoError(t, err)

	assert.Equal(t, 0, p.PositionCount)
	assert.Equal(t, 0, p.SymbolCount)
	assert.InDelta(t, 0.0, p.TotalCostBasis, 1e-9)
	assert.InDelta(t, 0.0, p.TotalUnrealizedGainPct, 1e-9, "zero cost basis must not divide")
}

func TestGetPortfolio_SumInvariants(t *testing.T) {
	provider := &fakeQuoteProvider{quotes: map[string]*domain.Quote{
		"AAPL": pricedQuote("AAPL", 60, 58, "Technology"),
		"MSFT": pricedQuote("MSFT", 400, 395, "Technology"),
		"XOM":  pricedQuote("XOM", 110, 112, "Energy"),
	}}
	svc, db := newTestService(t, provider)
	insertLot(t, db, "AAPL", 10, 50, "2024-01-15")
	insertLot(t, db, "AAPL", 5, 55, "2024-03-01")
	insertLot(t, db, "MSFT", 3, 380, "2024-02-01")
	insertLot(t, db, "XOM", 8, 115, "2024-04-01")

	p, err := svc.GetPortfolio()
	require.NoError(t, err)

	valueSum := 0.0
	weightSum := 0.0
	for _, pos := range p.Positions {
		require.True(t, pos.Priced())
		valueSum += pos.Valuation.CurrentValue
		require.NotNil(t, pos.Valuation.WeightPct)
		weightSum += *pos.Valuation.WeightPct
	}
	assert.InDelta(t, p.TotalCurrentValue, valueSum, 1e-9)
	assert.InDelta(t, 100.0, weightSum, 0.01)

	costSum := 0.0
	for _, lot := range p.Lots {
		costSum += lot.CostBasis
	}
	assert.InDelta(t, p.TotalCostBasis, costSum, 1e-9)

	// Positions sorted by current value descending
	for i := 1; i < len(p.Positions); i++ {
		assert.GreaterOrEqual(t,
			p.Positions[i-1].Valuation.CurrentValue,
			p.Positions[i].Valuation.CurrentValue,
		)
	}
}

func TestGetPortfolio_DayChange(t *testing.T) {
	provider := &fakeQuoteProvider{quotes: map[string]*domain.Quote{
		"AAPL": pricedQuote("AAPL", 60, 58, "Technology"),
	}}
	svc, db := newTestService(t, provider)
	insertLot(t, db, "AAPL", 10, 50, "2024-01-15")

	p, err := svc.GetPortfolio()
	require.NoError(t, err)

	require.Len(t, p.Lots, 1)
	lot := p.Lots[0]
	require.NotNil(t, lot.Valuation)
	require.NotNil(t, lot.Valuation.DayChange)
	assert.InDelta(t, 20.0, *lot.Valuation.DayChange, 1e-9) // (60-58)*10
	require.NotNil(t, lot.Valuation.DayChangePct)
	assert.InDelta(t, (60.0-58.0)/58.0*100, *lot.Valuation.DayChangePct, 1e-9)

	assert.InDelta(t, 20.0, p.TotalDayChange, 1e-9)
	// Normalized against value before today's move: 20 / (600-20)
	assert.InDelta(t, 20.0/580.0*100, p.TotalDayChangePct, 1e-9)
}

func TestGetPortfolio_QuoteWithoutPreviousClose(t *testing.T) {
	price := 60.0
	provider := &fakeQuoteProvider{quotes: map[string]*domain.Quote{
		"AAPL": {Symbol: "AAPL", CurrentPrice: &price, Sector: "Technology"},
	}}
	svc, db := newTestService(t, provider)
	insertLot(t, db, "AAPL", 10, 50, "2024-01-15")

	p, err := svc.GetPortfolio()
	require.NoError(t, err)

	require.NotNil(t, p.Lots[0].Valuation)
	assert.Nil(t, p.Lots[0].Valuation.DayChange, "day change needs both quote fields")
	assert.InDelta(t, 0.0, p.TotalDayChange, 1e-9)
	assert.InDelta(t, 0.0, p.TotalDayChangePct, 1e-9)
}

func TestGetPortfolio_QuoteWithoutPriceIsUnpriced(t *testing.T) {
	provider := &fakeQuoteProvider{quotes: map[string]*domain.Quote{
		"AAPL": {Symbol: "AAPL", Sector: "Technology"},
	}}
	svc, db := newTestService(t, provider)
	insertLot(t, db, "AAPL", 10, 50, "2024-01-15")

	p, err := svc.GetPortfolio()
	require.NoError(t, err)

	require.Len(t, p.Positions, 1)
	assert.False(t, p.Positions[0].Priced())
	assert.Equal(t, "Technology", p.Positions[0].Sector, "sector survives even without a price")
	assert.Equal(t, []string{"AAPL"}, p.UnpricedSymbols)
}

func TestGetPortfolio_SectorAllocation(t *testing.T) {
	provider := &fakeQuoteProvider{quotes: map[string]*domain.Quote{
		"AAPL": pricedQuote("AAPL", 100, 100, "Technology"),
		"MSFT": pricedQuote("MSFT", 100, 100, "Technology"),
		"XOM":  pricedQuote("XOM", 100, 100, "Energy"),
		"MYST": pricedQuote("MYST", 100, 100, ""),
	}}
	svc, db := newTestService(t, provider)
	insertLot(t, db, "AAPL", 1, 90, "2024-01-01")
	insertLot(t, db, "MSFT", 1, 90, "2024-01-01")
	insertLot(t, db, "XOM", 1, 90, "2024-01-01")
	insertLot(t, db, "MYST", 1, 90, "2024-01-01")

	p, err := svc.GetPortfolio()
	require.NoError(t, err)

	assert.InDelta(t, 50.0, p.SectorAllocation["Technology"], 1e-9)
	assert.InDelta(t, 25.0, p.SectorAllocation["Energy"], 1e-9)
	_, hasEmpty := p.SectorAllocation[""]
	assert.False(t, hasEmpty, "positions without a sector are excluded from allocation")
}
