// Package yahoo is a minimal Yahoo Finance API client for quotes, symbol
// search, and news headlines.
package yahoo

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/folio/internal/domain"
)

const (
	quoteURL  = "https://query1.finance.yahoo.com/v7/finance/quote"
	searchURL = "https://query1.finance.yahoo.com/v1/finance/search"

	userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"
)

// Client is a Yahoo Finance API client. Every outbound request passes
// through the injected rate gate.
type Client struct {
	client *http.Client
	gate   domain.RateGate
	log    zerolog.Logger
}

// NewClient creates a new Yahoo Finance client
func NewClient(gate domain.RateGate, log zerolog.Logger) *Client {
	return &Client{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		gate: gate,
		log:  log.With().Str("client", "yahoo").Logger(),
	}
}

// yahooQuoteResponse represents the response from the quote API
type yahooQuoteResponse struct {
	QuoteResponse struct {
		Result []map[string]interface{} `json:"result"`
		Error  interface{}              `json:"error"`
	} `json:"quoteResponse"`
}

// GetQuote fetches current price, previous close, and classification for one
// symbol. Missing price fields come back nil, never zero.
func (c *Client) GetQuote(symbol string) (*domain.Quote, error) {
	info, err := c.getQuoteInfo(symbol)
	if err != nil {
		return nil, &domain.QuoteError{Symbol: symbol, Err: err}
	}

	quote := &domain.Quote{
		Symbol:        symbol,
		CurrentPrice:  getFloat64(info, "regularMarketPrice"),
		PreviousClose: getFloat64(info, "regularMarketPreviousClose"),
		Sector:        getString(info, "sector", ""),
		Industry:      getString(info, "industry", ""),
	}

	if quote.CurrentPrice == nil {
		quote.CurrentPrice = getFloat64(info, "currentPrice")
	}

	return quote, nil
}

// GetAnalysis fetches the company overview and headline fundamentals for
// one symbol
func (c *Client) GetAnalysis(symbol string) (*StockAnalysis, error) {
	params := url.Values{}
	params.Add("symbols", symbol)
	params.Add("fields", "symbol,longName,shortName,sector,industry,currency,fullExchangeName,"+
		"regularMarketPrice,regularMarketPreviousClose,fiftyTwoWeekHigh,fiftyTwoWeekLow,"+
		"regularMarketVolume,averageDailyVolume3Month,marketCap,trailingPE,forwardPE,"+
		"epsTrailingTwelveMonths,trailingAnnualDividendYield,averageAnalystRating,"+
		"targetMeanPrice,targetHighPrice,targetLowPrice")

	body, err := c.get(quoteURL + "?" + params.Encode())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch analysis for %s: %w", symbol, err)
	}

	var result yahooQuoteResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if result.QuoteResponse.Error != nil {
		return nil, fmt.Errorf("Yahoo Finance API error: %v", result.QuoteResponse.Error)
	}

	if len(result.QuoteResponse.Result) == 0 {
		return nil, fmt.Errorf("no data returned for symbol %s", symbol)
	}

	info := result.QuoteResponse.Result[0]

	name := getString(info, "longName", "")
	if name == "" {
		name = getString(info, "shortName", symbol)
	}

	return &StockAnalysis{
		Symbol:      symbol,
		CompanyName: name,
		Sector:      getString(info, "sector", ""),
		Industry:    getString(info, "industry", ""),
		Currency:    getString(info, "currency", "USD"),
		Exchange:    getString(info, "fullExchangeName", ""),

		CurrentPrice:     getFloat64(info, "regularMarketPrice"),
		PreviousClose:    getFloat64(info, "regularMarketPreviousClose"),
		FiftyTwoWeekHigh: getFloat64(info, "fiftyTwoWeekHigh"),
		FiftyTwoWeekLow:  getFloat64(info, "fiftyTwoWeekLow"),
		Volume:           getInt64OrZero(info, "regularMarketVolume"),
		AverageVolume:    getInt64OrZero(info, "averageDailyVolume3Month"),

		MarketCap:     getFloat64(info, "marketCap"),
		PERatio:       getFloat64(info, "trailingPE"),
		ForwardPE:     getFloat64(info, "forwardPE"),
		EPS:           getFloat64(info, "epsTrailingTwelveMonths"),
		DividendYield: getFloat64(info, "trailingAnnualDividendYield"),

		AnalystRating:   getString(info, "averageAnalystRating", ""),
		TargetMeanPrice: getFloat64(info, "targetMeanPrice"),
		TargetHighPrice: getFloat64(info, "targetHighPrice"),
		TargetLowPrice:  getFloat64(info, "targetLowPrice"),
	}, nil
}

// Search finds symbols matching a query string. Only equities and ETFs
// are returned.
func (c *Client) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 8
	}

	params := url.Values{}
	params.Add("q", query)
	params.Add("quotesCount", fmt.Sprintf("%d", limit))
	params.Add("newsCount", "0")

	body, err := c.get(searchURL + "?" + params.Encode())
	if err != nil {
		return nil, fmt.Errorf("failed to search symbols: %w", err)
	}

	var result struct {
		Quotes []map[string]interface{} `json:"quotes"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	results := make([]SearchResult, 0, len(result.Quotes))
	for _, q := range result.Quotes {
		symbol := getString(q, "symbol", "")
		if symbol == "" {
			continue
		}
		if qt := getString(q, "quoteType", ""); qt != "EQUITY" && qt != "ETF" {
			continue
		}
		results = append(results, SearchResult{
			Symbol:    symbol,
			ShortName: getString(q, "shortname", ""),
			LongName:  getString(q, "longname", ""),
			Exchange:  getString(q, "exchange", ""),
			QuoteType: getString(q, "quoteType", ""),
		})
	}

	c.log.Debug().Str("query", query).Int("count", len(results)).Msg("Symbol search complete")

	return results, nil
}

// GetNews fetches recent news headlines for a symbol
func (c *Client) GetNews(symbol string, limit int) ([]NewsItem, error) {
	if limit <= 0 {
		limit = 5
	}

	params := url.Values{}
	params.Add("q", symbol)
	params.Add("quotesCount", "0")
	params.Add("newsCount", fmt.Sprintf("%d", limit))

	body, err := c.get(searchURL + "?" + params.Encode())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch news: %w", err)
	}

	var result struct {
		News []map[string]interface{} `json:"news"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse news response: %w", err)
	}

	items := make([]NewsItem, 0, len(result.News))
	for _, n := range result.News {
		item := NewsItem{
			Title:     getString(n, "title", ""),
			Publisher: getString(n, "publisher", ""),
			Link:      getString(n, "link", ""),
			Published: getInt64OrZero(n, "providerPublishTime"),
		}
		if item.Title == "" || item.Link == "" {
			continue
		}
		items = append(items, item)
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].Published > items[j].Published
	})

	return items, nil
}

// getQuoteInfo fetches the raw quote map for a symbol
func (c *Client) getQuoteInfo(symbol string) (map[string]interface{}, error) {
	params := url.Values{}
	params.Add("symbols", symbol)
	params.Add("fields", "symbol,regularMarketPrice,currentPrice,regularMarketPreviousClose,"+
		"sector,industry,longName,shortName,quoteType")

	body, err := c.get(quoteURL + "?" + params.Encode())
	if err != nil {
		return nil, err
	}

	var result yahooQuoteResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if result.QuoteResponse.Error != nil {
		return nil, fmt.Errorf("Yahoo Finance API error: %v", result.QuoteResponse.Error)
	}

	if len(result.QuoteResponse.Result) == 0 {
		return nil, fmt.Errorf("no quote data returned for symbol %s", symbol)
	}

	return result.QuoteResponse.Result[0], nil
}

// get performs a rate-gated GET request and returns the response body
func (c *Client) get(reqURL string) ([]byte, error) {
	c.gate.Acquire()

	req, err := http.NewRequest("GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Set headers to mimic browser
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("Yahoo Finance API rate limited the request")
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("Yahoo Finance API returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return body, nil
}

// Helper functions to safely extract values from map

func getFloat64(m map[string]interface{}, key string) *float64 {
	if val, ok := m[key]; ok && val != nil {
		switch v := val.(type) {
		case float64:
			return &v
		case int:
			f := float64(v)
			return &f
		case int64:
			f := float64(v)
			return &f
		}
	}
	return nil
}

func getInt64OrZero(m map[string]interface{}, key string) int64 {
	if val, ok := m[key]; ok && val != nil {
		switch v := val.(type) {
		case float64:
			return int64(v)
		case int:
			return int64(v)
		case int64:
			return v
		}
	}
	return 0
}

func getString(m map[string]interface{}, key string, defaultVal string) string {
	if val, ok := m[key]; ok && val != nil {
		if s, ok := val.(string); ok {
			return s
		}
	}
	return defaultVal
}
