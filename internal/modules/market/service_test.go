package market

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/folio/internal/clients/yahoo"
	"github.com/aristath/folio/internal/domain"
)

// fakeFetcher counts upstream calls and serves canned responses
type fakeFetcher struct {
	quote *domain.Quote
	err   error
	calls int
}

func (f *fakeFetcher) GetQuote(symbol string) (*domain.Quote, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.quote, nil
}

func (f *fakeFetcher) GetAnalysis(symbol string) (*yahoo.StockAnalysis, error) {
	return &yahoo.StockAnalysis{Symbol: symbol, CompanyName: symbol + " Inc."}, nil
}

func (f *fakeFetcher) Search(query string, limit int) ([]yahoo.SearchResult, error) {
	return nil, nil
}

func (f *fakeFetcher) GetNews(symbol string, limit int) ([]yahoo.NewsItem, error) {
	return nil, nil
}

func setupCacheDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE quote_cache (
			symbol TEXT PRIMARY KEY,
			data BLOB NOT NULL,
			fetched_at TEXT NOT NULL
		)
	`)
	require.NoError(t, err)

	return db
}

func quoteFor(symbol string, price float64) *domain.Quote {
	prev := price - 1
	return &domain.Quote{
		Symbol:        symbol,
		CurrentPrice:  &price,
		PreviousClose: &prev,
		Sector:        "Technology",
	}
}

func newTestService(t *testing.T, fetcher Fetcher) (*Service, *time.Time) {
	t.Helper()

	db := setupCacheDB(t)
	cache := NewCacheRepository(db, zerolog.Nop())

	current := time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC)
	svc := NewService(fetcher, cache, 5*time.Minute, zerolog.Nop())
	svc.now = func() time.Time { return current }

	return svc, &current
}

func TestGetQuote_CachesWithinTTL(t *testing.T) {
	fetcher := &fakeFetcher{quote: quoteFor("AAPL", 150)}
	svc, clock := newTestService(t, fetcher)

	first, err := svc.GetQuote("AAPL")
	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.calls)

	// Second call inside the TTL is served from cache
	*clock = clock.Add(time.Minute)
	second, err := svc.GetQuote("AAPL")
	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.calls, "cached quote should avoid an upstream call")

	require.NotNil(t, second.CurrentPrice)
	assert.InDelta(t, *first.CurrentPrice, *second.CurrentPrice, 1e-9)
	assert.Equal(t, first.Sector, second.Sector)
}

func TestGetQuote_RefetchesAfterTTL(t *testing.T) {
	fetcher := &fakeFetcher{quote: quoteFor("AAPL", 150)}
	svc, clock := newTestService(t, fetcher)

	_, err := svc.GetQuote("AAPL")
	require.NoError(t, err)

	*clock = clock.Add(10 * time.Minute)
	fetcher.quote = quoteFor("AAPL", 155)

	quote, err := svc.GetQuote("AAPL")
	require.NoError(t, err)
	assert.Equal(t, 2, fetcher.calls)
	assert.InDelta(t, 155.0, *quote.CurrentPrice, 1e-9)
}

func TestGetQuote_StaleFallbackOnFetchFailure(t *testing.T) {
	fetcher := &fakeFetcher{quote: quoteFor("AAPL", 150)}
	svc, clock := newTestService(t, fetcher)

	_, err := svc.GetQuote("AAPL")
	require.NoError(t, err)

	*clock = clock.Add(10 * time.Minute)
	fetcher.err = errors.New("upstream down")

	quote, err := svc.GetQuote("AAPL")
	require.NoError(t, err, "stale cache should cover an upstream outage")
	assert.InDelta(t, 150.0, *quote.CurrentPrice, 1e-9)
}

func TestGetQuoteFresh_BypassesCache(t *testing.T) {
	fetcher := &fakeFetcher{quote: quoteFor("AAPL", 150)}
	svc, _ := newTestService(t, fetcher)

	_, err := svc.GetQuote("AAPL")
	require.NoError(t, err)

	// Inside the TTL a fresh lookup must still go upstream
	fetcher.quote = quoteFor("AAPL", 160)
	quote, err := svc.GetQuoteFresh("AAPL")
	require.NoError(t, err)
	assert.Equal(t, 2, fetcher.calls)
	assert.InDelta(t, 160.0, *quote.CurrentPrice, 1e-9)

	// And the cache now holds the refreshed quote
	cached, err := svc.GetQuote("AAPL")
	require.NoError(t, err)
	assert.Equal(t, 2, fetcher.calls)
	assert.InDelta(t, 160.0, *cached.CurrentPrice, 1e-9)
}

func TestGetQuote_FailureWithEmptyCachePropagates(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("upstream down")}
	svc, _ := newTestService(t, fetcher)

	_, err := svc.GetQuote("AAPL")
	require.Error(t, err)
}

func TestGetQuote_PreservesNilPriceFields(t *testing.T) {
	fetcher := &fakeFetcher{quote: &domain.Quote{Symbol: "MYST", Sector: "Energy"}}
	svc, _ := newTestService(t, fetcher)

	// First call populates the cache, second reads it back
	_, err := svc.GetQuote("MYST")
	require.NoError(t, err)

	quote, err := svc.GetQuote("MYST")
	require.NoError(t, err)
	assert.Nil(t, quote.CurrentPrice, "nil price must survive the cache round trip")
	assert.Nil(t, quote.PreviousClose)
	assert.Equal(t, "Energy", quote.Sector)
}

func TestPurgeCache(t *testing.T) {
	fetcher := &fakeFetcher{quote: quoteFor("AAPL", 150)}
	svc, clock := newTestService(t, fetcher)

	_, err := svc.GetQuote("AAPL")
	require.NoError(t, err)

	*clock = clock.Add(time.Hour)
	removed, err := svc.PurgeCache()
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	// Next lookup must go upstream again
	_, err = svc.GetQuote("AAPL")
	require.NoError(t, err)
	assert.Equal(t, 2, fetcher.calls)
}

func TestGetAnalysis_NormalizesSymbol(t *testing.T) {
	svc, _ := newTestService(t, &fakeFetcher{})

	analysis, err := svc.GetAnalysis("  brk.b ")
	require.NoError(t, err)
	assert.Equal(t, "BRK.B", analysis.Symbol)

	_, err = svc.GetAnalysis("not a symbol!")
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func TestGetNews_RejectsBadSymbol(t *testing.T) {
	svc, _ := newTestService(t, &fakeFetcher{})

	_, err := svc.GetNews("not a symbol!", 5)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}
