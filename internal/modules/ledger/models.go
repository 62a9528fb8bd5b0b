// Package ledger manages the lot ledger: the individual purchase records
// that everything downstream aggregates and values.
package ledger

import "time"

// Lot is one purchase record. Multiple lots may share a symbol; they are
// never merged at this layer.
type Lot struct {
	ID            int64   `json:"id"`
	Symbol        string  `json:"symbol"`
	Shares        float64 `json:"shares"`
	PurchasePrice float64 `json:"purchase_price"`
	PurchaseDate  string  `json:"purchase_date"` // YYYY-MM-DD
	Notes         string  `json:"notes,omitempty"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

// CostBasis returns shares * purchase price
func (l *Lot) CostBasis() float64 {
	return l.Shares * l.PurchasePrice
}

// HoldingPeriodDays returns whole days held as of now, 0 if the date
// does not parse
func (l *Lot) HoldingPeriodDays(now time.Time) int {
	purchased, err := time.Parse("2006-01-02", l.PurchaseDate)
	if err != nil {
		return 0
	}
	days := int(now.Sub(purchased).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// IsLongTerm reports whether the lot has been held for more than a year
func (l *Lot) IsLongTerm(now time.Time) bool {
	return l.HoldingPeriodDays(now) > 365
}

// CreateLotRequest is the payload for adding a lot
type CreateLotRequest struct {
	Symbol        string  `json:"symbol"`
	Shares        float64 `json:"shares"`
	PurchasePrice float64 `json:"purchase_price"`
	PurchaseDate  string  `json:"purchase_date"`
	Notes         string  `json:"notes"`
}

// UpdateLotRequest is the payload for a partial update. Nil fields are
// left unchanged; a request with every field nil is rejected.
type UpdateLotRequest struct {
	Shares        *float64 `json:"shares,omitempty"`
	PurchasePrice *float64 `json:"purchase_price,omitempty"`
	PurchaseDate  *string  `json:"purchase_date,omitempty"`
	Notes         *string  `json:"notes,omitempty"`
}

// Empty reports whether the update carries no changes
func (r *UpdateLotRequest) Empty() bool {
	return r.Shares == nil && r.PurchasePrice == nil && r.PurchaseDate == nil && r.Notes == nil
}
