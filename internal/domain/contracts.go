package domain

// Quote is the best-effort market data for one symbol. Price fields are
// pointers: nil means the provider had no value, and every consumer must
// treat the symbol as unpriced rather than as price zero.
type Quote struct {
	Symbol        string
	CurrentPrice  *float64
	PreviousClose *float64
	Sector        string
	Industry      string
}

// Priced reports whether the quote carries a usable current price
func (q *Quote) Priced() bool {
	return q != nil && q.CurrentPrice != nil
}

// QuoteProvider fetches market data one symbol at a time. A failure for one
// symbol is independent: callers degrade that symbol to unpriced and carry on.
type QuoteProvider interface {
	GetQuote(symbol string) (*Quote, error)
}

// RateGate blocks the caller until an outbound request slot is available.
// It must be acquired once per outbound quote request.
type RateGate interface {
	Acquire()
}
