package ledger

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/folio/internal/domain"
)

func setupTestDB(t *testing.T) *sql.DB {
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
		)
	`)
	require.NoError(t, err)

	return db
}

func newTestService(t *testing.T) *Service {
	t.Helper()

	db := setupTestDB(t)
	repo := NewLotRepository(db, zerolog.Nop())
	svc := NewService(repo, zerolog.Nop())
	svc.now = func() time.Time {
		return time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	}
	return svc
}

func TestAddLot_Success(t *testing.T) {
	svc := newTestService(t)

	lot, err := svc.AddLot(CreateLotRequest{
		Symbol:        "aapl",
		Shares:        10,
		PurchasePrice: 150.50,
		PurchaseDate:  "2024-01-15",
		Notes:         "first buy",
	})

	require.NoError(t, err)
	assert.Equal(t, "AAPL", lot.Symbol, "symbol should be normalized to uppercase")
	assert.Equal(t, 10.0, lot.Shares)
	assert.Equal(t, 150.50, lot.PurchasePrice)
	assert.Equal(t, "first buy", lot.Notes)
	assert.Greater(t, lot.ID, int64(0))
}

func TestAddLot_ValidationFailures(t *testing.T) {
	svc := newTestService(t)

	valid := CreateLotRequest{
		Symbol:        "AAPL",
		Shares:        10,
		PurchasePrice: 150,
		PurchaseDate:  "2024-01-15",
	}

	tests := []struct {
		name   string
		mutate func(*CreateLotRequest)
	}{
		{"empty symbol", func(r *CreateLotRequest) { r.Symbol = "" }},
		{"too long symbol", func(r *CreateLotRequest) { r.Symbol = "TOOLONG" }},
		{"lowercase digits", func(r *CreateLotRequest) { r.Symbol = "12AB" }},
		{"zero shares", func(r *CreateLotRequest) { r.Shares = 0 }},
		{"negative shares", func(r *CreateLotRequest) { r.Shares = -5 }},
		{"zero price", func(r *CreateLotRequest) { r.PurchasePrice = 0 }},
		{"bad date format", func(r *CreateLotRequest) { r.PurchaseDate = "15/01/2024" }},
		{"future date", func(r *CreateLotRequest) { r.PurchaseDate = "2030-01-01" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)

			_, err := svc.AddLot(req)
			require.Error(t, err)
			assert.True(t, domain.IsValidation(err), "expected validation error, got %v", err)
		})
	}
}

func TestAddLot_SameDayPurchaseAheadOfUTC(t *testing.T) {
	svc := newTestService(t)
	// Just past local midnight in a zone 14 hours ahead of UTC: the local
	// calendar date is still 2025-06-02 even though UTC says 2025-06-01
	svc.now = func() time.Time {
		return time.Date(2025, 6, 2, 0, 30, 0, 0, time.FixedZone("UTC+14", 14*3600))
	}

	_, err := svc.AddLot(CreateLotRequest{
		Symbol:        "AAPL",
		Shares:        1,
		PurchasePrice: 100,
		PurchaseDate:  "2025-06-02",
	})
	require.NoError(t, err, "a purchase dated today must not be rejected as future")

	_, err = svc.AddLot(CreateLotRequest{
		Symbol:        "AAPL",
		Shares:        1,
		PurchasePrice: 100,
		PurchaseDate:  "2025-06-03",
	})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func TestAddLot_SymbolWithSuffix(t *testing.T) {
	svc := newTestService(t)

	lot, err := svc.AddLot(CreateLotRequest{
		Symbol:        "brk.b",
		Shares:        2,
		PurchasePrice: 400,
		PurchaseDate:  "2024-03-01",
	})

	require.NoError(t, err)
	assert.Equal(t, "BRK.B", lot.Symbol)
}

func TestListLots_OrderedBySymbolThenDate(t *testing.T) {
	svc := newTestService(t)

	add := func(symbol, date string) {
		_, err := svc.AddLot(CreateLotRequest{Symbol: symbol, Shares: 1, PurchasePrice: 100, PurchaseDate: date})
		require.NoError(t, err)
	}

	add("MSFT", "2024-02-01")
	add("AAPL", "2024-03-01")
	add("AAPL", "2024-01-01")

	lots, err := svc.ListLots()
	require.NoError(t, err)
	require.Len(t, lots, 3)

	assert.Equal(t, "AAPL", lots[0].Symbol)
	assert.Equal(t, "2024-01-01", lots[0].PurchaseDate)
	assert.Equal(t, "AAPL", lots[1].Symbol)
	assert.Equal(t, "2024-03-01", lots[1].PurchaseDate)
	assert.Equal(t, "MSFT", lots[2].Symbol)
}

func TestUpdateLot_PartialUpdate(t *testing.T) {
	svc := newTestService(t)

	lot, err := svc.AddLot(CreateLotRequest{Symbol: "AAPL", Shares: 10, PurchasePrice: 150, PurchaseDate: "2024-01-15"})
	require.NoError(t, err)

	shares := 20.0
	updated, err := svc.UpdateLot(lot.ID, UpdateLotRequest{Shares: &shares})
	require.NoError(t, err)

	assert.Equal(t, 20.0, updated.Shares)
	assert.Equal(t, 150.0, updated.PurchasePrice, "untouched fields should not change")
	assert.Equal(t, "2024-01-15", updated.PurchaseDate)
}

func TestUpdateLot_EmptyUpdateRejected(t *testing.T) {
	svc := newTestService(t)

	lot, err := svc.AddLot(CreateLotRequest{Symbol: "AAPL", Shares: 10, PurchasePrice: 150, PurchaseDate: "2024-01-15"})
	require.NoError(t, err)

	_, err = svc.UpdateLot(lot.ID, UpdateLotRequest{})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func TestUpdateLot_NotFound(t *testing.T) {
	svc := newTestService(t)

	shares := 5.0
	_, err := svc.UpdateLot(9999, UpdateLotRequest{Shares: &shares})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteLot(t *testing.T) {
	svc := newTestService(t)

	lot, err := svc.AddLot(CreateLotRequest{Symbol: "AAPL", Shares: 10, PurchasePrice: 150, PurchaseDate: "2024-01-15"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteLot(lot.ID))

	_, err = svc.GetLot(lot.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = svc.DeleteLot(lot.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSymbols_Distinct(t *testing.T) {
	svc := newTestService(t)

	for _, req := range []CreateLotRequest{
		{Symbol: "MSFT", Shares: 1, PurchasePrice: 100, PurchaseDate: "2024-01-01"},
		{Symbol: "AAPL", Shares: 1, PurchasePrice: 100, PurchaseDate: "2024-01-02"},
		{Symbol: "AAPL", Shares: 2, PurchasePrice: 110, PurchaseDate: "2024-02-01"},
	} {
		_, err := svc.AddLot(req)
		require.NoError(t, err)
	}

	symbols, err := svc.Symbols()
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, symbols)
}

func TestLot_HoldingPeriod(t *testing.T) {
	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

	longTerm := Lot{PurchaseDate: "2024-01-15"}
	assert.True(t, longTerm.IsLongTerm(now))
	assert.Greater(t, longTerm.HoldingPeriodDays(now), 365)

	shortTerm := Lot{PurchaseDate: "2025-05-01"}
	assert.False(t, shortTerm.IsLongTerm(now))
	assert.Equal(t, 32, shortTerm.HoldingPeriodDays(now))

	bad := Lot{PurchaseDate: "not-a-date"}
	assert.Equal(t, 0, bad.HoldingPeriodDays(now))
}

func TestLot_CostBasis(t *testing.T) {
	lot := Lot{Shares: 10, PurchasePrice: 150.5}
	assert.InDelta(t, 1505.0, lot.CostBasis(), 1e-9)
}
