package market

import (
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/folio/internal/clients/yahoo"
	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/modules/ledger"
)

// Fetcher is the upstream market data source. *yahoo.Client satisfies it.
type Fetcher interface {
	GetQuote(symbol string) (*domain.Quote, error)
	GetAnalysis(symbol string) (*yahoo.StockAnalysis, error)
	Search(query string, limit int) ([]yahoo.SearchResult, error)
	GetNews(symbol string, limit int) ([]yahoo.NewsItem, error)
}

// Service serves quotes through a TTL cache in front of the upstream
// fetcher. It implements domain.QuoteProvider for the portfolio service.
type Service struct {
	client Fetcher
	cache  *CacheRepository
	ttl    time.Duration
	log    zerolog.Logger
	now    func() time.Time
}

// NewService creates a new market data service
func NewService(client Fetcher, cache *CacheRepository, ttl time.Duration, log zerolog.Logger) *Service {
	return &Service{
		client: client,
		cache:  cache,
		ttl:    ttl,
		log:    log.With().Str("service", "market").Logger(),
		now:    time.Now,
	}
}

// GetQuote returns a quote for one symbol, serving from cache while fresh.
// A fetch failure with a stale cache entry falls back to the stale quote;
// only a fetch failure with no cached data at all propagates the error.
func (s *Service) GetQuote(symbol string) (*domain.Quote, error) {
	cached, fetchedAt, cacheErr := s.cache.Get(symbol)
	if cacheErr == nil && s.now().Sub(fetchedAt) < s.ttl {
		return cached, nil
	}
	if cacheErr != nil && !errors.Is(cacheErr, domain.ErrNotFound) {
		s.log.Warn().Err(cacheErr).Str("symbol", symbol).Msg("Quote cache read failed")
	}

	quote, err := s.client.GetQuote(symbol)
	if err != nil {
		if cached != nil {
			s.log.Warn().Err(err).Str("symbol", symbol).Msg("Quote fetch failed, serving stale cache entry")
			return cached, nil
		}
		return nil, err
	}

	if err := s.cache.Put(symbol, quote, s.now()); err != nil {
		s.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache quote")
	}

	return quote, nil
}

// GetQuoteFresh bypasses the cache entirely
func (s *Service) GetQuoteFresh(symbol string) (*domain.Quote, error) {
	quote, err := s.client.GetQuote(symbol)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Put(symbol, quote, s.now()); err != nil {
		s.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache quote")
	}

	return quote, nil
}

// GetAnalysis fetches the company overview and fundamentals for a
// validated symbol. Analysis data is never cached: it backs interactive
// lookups, not the valuation path.
func (s *Service) GetAnalysis(symbol string) (*yahoo.StockAnalysis, error) {
	normalized, err := ledger.NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	return s.client.GetAnalysis(normalized)
}

// Search finds symbols matching a query
func (s *Service) Search(query string, limit int) ([]yahoo.SearchResult, error) {
	return s.client.Search(query, limit)
}

// GetNews fetches recent headlines for a validated symbol
func (s *Service) GetNews(symbol string, limit int) ([]yahoo.NewsItem, error) {
	normalized, err := ledger.NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	return s.client.GetNews(normalized, limit)
}

// PurgeCache drops cache entries older than the TTL
func (s *Service) PurgeCache() (int64, error) {
	return s.cache.Purge(s.now().Add(-s.ttl))
}
