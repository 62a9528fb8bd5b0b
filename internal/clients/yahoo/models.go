package yahoo

// SearchResult is one match from the symbol search endpoint
type SearchResult struct {
	Symbol    string `json:"symbol"`
	ShortName string `json:"short_name"`
	LongName  string `json:"long_name"`
	Exchange  string `json:"exchange"`
	QuoteType string `json:"quote_type"`
}

// NewsItem is one article returned for a symbol
type NewsItem struct {
	Title     string `json:"title"`
	Publisher string `json:"publisher"`
	Link      string `json:"link"`
	Published int64  `json:"published"`
}

// StockAnalysis is the company overview plus headline fundamentals for one
// symbol. Optional metrics are pointers: nil means Yahoo had no value.
type StockAnalysis struct {
	Symbol      string `json:"symbol"`
	CompanyName string `json:"company_name"`
	Sector      string `json:"sector,omitempty"`
	Industry    string `json:"industry,omitempty"`
	Currency    string `json:"currency,omitempty"`
	Exchange    string `json:"exchange,omitempty"`

	CurrentPrice     *float64 `json:"current_price,omitempty"`
	PreviousClose    *float64 `json:"previous_close,omitempty"`
	FiftyTwoWeekHigh *float64 `json:"fifty_two_week_high,omitempty"`
	FiftyTwoWeekLow  *float64 `json:"fifty_two_week_low,omitempty"`
	Volume           int64    `json:"volume,omitempty"`
	AverageVolume    int64    `json:"average_volume,omitempty"`

	MarketCap     *float64 `json:"market_cap,omitempty"`
	PERatio       *float64 `json:"pe_ratio,omitempty"`
	ForwardPE     *float64 `json:"forward_pe,omitempty"`
	EPS           *float64 `json:"eps,omitempty"`
	DividendYield *float64 `json:"dividend_yield,omitempty"`

	AnalystRating   string   `json:"analyst_rating,omitempty"`
	TargetMeanPrice *float64 `json:"target_mean_price,omitempty"`
	TargetHighPrice *float64 `json:"target_high_price,omitempty"`
	TargetLowPrice  *float64 `json:"target_low_price,omitempty"`
}
