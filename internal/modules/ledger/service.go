package ledger

import (
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/folio/internal/domain"
)

// symbolPattern matches 1-5 uppercase letters with an optional class or
// exchange suffix, e.g. AAPL, BRK.B, BF-B
var symbolPattern = regexp.MustCompile(`^[A-Z]{1,5}([.-][A-Z]{1,2})?$`)

const dateLayout = "2006-01-02"

// Service validates and coordinates lot ledger operations
type Service struct {
	repo *LotRepository
	log  zerolog.Logger
	now  func() time.Time
}

// NewService creates a new ledger service
func NewService(repo *LotRepository, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With().Str("service", "ledger").Logger(),
		now:  time.Now,
	}
}

// ListLots returns every lot in the ledger
func (s *Service) ListLots() ([]Lot, error) {
	return s.repo.GetAll()
}

// ListLotsBySymbol returns the lots for one symbol
func (s *Service) ListLotsBySymbol(symbol string) ([]Lot, error) {
	normalized, err := NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	return s.repo.GetBySymbol(normalized)
}

// GetLot returns one lot by id
func (s *Service) GetLot(id int64) (*Lot, error) {
	return s.repo.GetByID(id)
}

// AddLot validates and stores a new purchase record
func (s *Service) AddLot(req CreateLotRequest) (*Lot, error) {
	normalized, err := NormalizeSymbol(req.Symbol)
	if err != nil {
		return nil, err
	}
	req.Symbol = normalized

	if req.Shares <= 0 {
		return nil, domain.NewValidationError("shares", "must be greater than zero")
	}
	if req.PurchasePrice <= 0 {
		return nil, domain.NewValidationError("purchase_price", "must be greater than zero")
	}
	if err := s.validateDate(req.PurchaseDate); err != nil {
		return nil, err
	}

	return s.repo.Insert(req)
}

// UpdateLot applies a partial update to an existing lot
func (s *Service) UpdateLot(id int64, req UpdateLotRequest) (*Lot, error) {
	if req.Empty() {
		return nil, domain.NewValidationError("update", "no fields to update")
	}

	if req.Shares != nil && *req.Shares <= 0 {
		return nil, domain.NewValidationError("shares", "must be greater than zero")
	}
	if req.PurchasePrice != nil && *req.PurchasePrice <= 0 {
		return nil, domain.NewValidationError("purchase_price", "must be greater than zero")
	}
	if req.PurchaseDate != nil {
		if err := s.validateDate(*req.PurchaseDate); err != nil {
			return nil, err
		}
	}

	return s.repo.Update(id, req)
}

// DeleteLot removes a lot from the ledger
func (s *Service) DeleteLot(id int64) error {
	return s.repo.Delete(id)
}

// Symbols returns the distinct symbols in the ledger
func (s *Service) Symbols() ([]string, error) {
	return s.repo.Symbols()
}

// NormalizeSymbol trims, uppercases, and validates a ticker symbol
func NormalizeSymbol(symbol string) (string, error) {
	normalized := strings.ToUpper(strings.TrimSpace(symbol))
	if normalized == "" {
		return "", domain.NewValidationError("symbol", "must not be empty")
	}
	if !symbolPattern.MatchString(normalized) {
		return "", domain.NewValidationError("symbol", "must be 1-5 letters with optional suffix")
	}
	return normalized, nil
}

// validateDate checks YYYY-MM-DD format and rejects future dates. The
// comparison is on calendar dates in the clock's own zone, so "today" is
// always accepted regardless of the UTC offset.
func (s *Service) validateDate(date string) error {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return domain.NewValidationError("purchase_date", "must be YYYY-MM-DD")
	}

	if date > s.now().Format(dateLayout) {
		return domain.NewValidationError("purchase_date", "must not be in the future")
	}

	return nil
}
