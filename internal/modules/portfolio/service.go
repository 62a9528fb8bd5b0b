package portfolio

import (
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/modules/ledger"
)

// Service builds valued portfolios from the lot ledger and a quote provider
type Service struct {
	lotRepo      *ledger.LotRepository
	quotes       domain.QuoteProvider
	snapshotRepo *SnapshotRepository
	log          zerolog.Logger
	now          func() time.Time
}

// NewService creates a new portfolio service
func NewService(lotRepo *ledger.LotRepository, quotes domain.QuoteProvider, snapshotRepo *SnapshotRepository, log zerolog.Logger) *Service {
	return &Service{
		lotRepo:      lotRepo,
		quotes:       quotes,
		snapshotRepo: snapshotRepo,
		log:          log.With().Str("service", "portfolio").Logger(),
		now:          time.Now,
	}
}

// GetPortfolio runs one full valuation pass: fetch quotes for every
// distinct symbol, annotate lots, aggregate positions, and roll up totals.
// A quote failure degrades that symbol to unpriced; it never fails the pass.
func (s *Service) GetPortfolio() (*Portfolio, error) {
	lots, err := s.lotRepo.GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to load lots: %w", err)
	}

	quotes, unpriced := s.fetchQuotes(lots)

	valuedLots := s.valueLots(lots, quotes)
	positions := s.aggregate(lots, quotes)

	p := &Portfolio{
		Lots:             valuedLots,
		Positions:        positions,
		PositionCount:    len(lots),
		SymbolCount:      len(positions),
		SectorAllocation: map[string]float64{},
		UnpricedSymbols:  unpriced,
		GeneratedAt:      s.now(),
	}

	s.computeTotals(p)
	s.computeWeights(p)
	s.computeSectorAllocation(p)

	s.log.Debug().
		Int("lots", len(lots)).
		Int("symbols", len(positions)).
		Int("unpriced", len(unpriced)).
		Float64("total_value", p.TotalCurrentValue).
		Msg("Portfolio valued")

	return p, nil
}

// fetchQuotes retrieves one quote per distinct symbol. Failures and quotes
// without a usable price are recorded as unpriced symbols.
func (s *Service) fetchQuotes(lots []ledger.Lot) (map[string]*domain.Quote, []string) {
	seen := make(map[string]bool)
	var symbols []string
	for _, lot := range lots {
		if !seen[lot.Symbol] {
			seen[lot.Symbol] = true
			symbols = append(symbols, lot.Symbol)
		}
	}
	sort.Strings(symbols)

	quotes := make(map[string]*domain.Quote)
	var unpriced []string
	for _, symbol := range symbols {
		quote, err := s.quotes.GetQuote(symbol)
		if err != nil {
			s.log.Warn().Err(err).Str("symbol", symbol).Msg("Quote unavailable, treating as unpriced")
			unpriced = append(unpriced, symbol)
			continue
		}

		quotes[symbol] = quote
		if !quote.Priced() {
			unpriced = append(unpriced, symbol)
		}
	}

	return quotes, unpriced
}

// valueLots annotates each lot with its own market data
func (s *Service) valueLots(lots []ledger.Lot, quotes map[string]*domain.Quote) []ValuedLot {
	valued := make([]ValuedLot, 0, len(lots))
	for _, lot := range lots {
		vl := ValuedLot{
			Lot:       lot,
			CostBasis: lot.CostBasis(),
		}

		if quote := quotes[lot.Symbol]; quote.Priced() {
			price := *quote.CurrentPrice
			val := &LotValuation{
				CurrentPrice:   price,
				CurrentValue:   price * lot.Shares,
				UnrealizedGain: price*lot.Shares - vl.CostBasis,
			}
			if vl.CostBasis > 0 {
				val.UnrealizedGainPct = val.UnrealizedGain / vl.CostBasis * 100
			}

			// Day change needs both quote fields
			if quote.PreviousClose != nil {
				prev := *quote.PreviousClose
				change := (price - prev) * lot.Shares
				val.DayChange = &change
				if prev > 0 {
					pct := (price - prev) / prev * 100
					val.DayChangePct = &pct
				}
			}

			vl.Valuation = val
		}

		valued = append(valued, vl)
	}

	return valued
}

// aggregate groups lots by symbol into one position per symbol. Lot order
// within a group follows ledger order (purchase date, then id).
func (s *Service) aggregate(lots []ledger.Lot, quotes map[string]*domain.Quote) []AggregatedPosition {
	bySymbol := make(map[string]*AggregatedPosition)
	var order []string

	for _, lot := range lots {
		pos, ok := bySymbol[lot.Symbol]
		if !ok {
			pos = &AggregatedPosition{Symbol: lot.Symbol}
			bySymbol[lot.Symbol] = pos
			order = append(order, lot.Symbol)
		}
		pos.TotalShares += lot.Shares
		pos.TotalCostBasis += lot.CostBasis()
		pos.Lots = append(pos.Lots, lot)
	}

	positions := make([]AggregatedPosition, 0, len(order))
	for _, symbol := range order {
		pos := bySymbol[symbol]

		if pos.TotalShares > 0 {
			pos.AverageCost = pos.TotalCostBasis / pos.TotalShares
		}

		if quote := quotes[symbol]; quote != nil {
			pos.Sector = quote.Sector
			pos.Industry = quote.Industry

			if quote.Priced() {
				price := *quote.CurrentPrice
				val := &PositionValuation{
					CurrentPrice:   price,
					CurrentValue:   price * pos.TotalShares,
					UnrealizedGain: price*pos.TotalShares - pos.TotalCostBasis,
				}
				if pos.TotalCostBasis > 0 {
					pct := val.UnrealizedGain / pos.TotalCostBasis * 100
					val.UnrealizedGainPct = &pct
				}
				pos.Valuation = val
			}
		}

		positions = append(positions, *pos)
	}

	// Current value descending, unpriced last (effective value 0),
	// symbol ascending as the tiebreak
	sort.SliceStable(positions, func(i, j int) bool {
		vi, vj := 0.0, 0.0
		if positions[i].Priced() {
			vi = positions[i].Valuation.CurrentValue
		}
		if positions[j].Priced() {
			vj = positions[j].Valuation.CurrentValue
		}
		if vi != vj {
			return vi > vj
		}
		return positions[i].Symbol < positions[j].Symbol
	})

	return positions
}

// computeTotals rolls lot-level values into portfolio-wide totals
func (s *Service) computeTotals(p *Portfolio) {
	for _, lot := range p.Lots {
		p.TotalCostBasis += lot.CostBasis
		if lot.Valuation != nil {
			p.TotalCurrentValue += lot.Valuation.CurrentValue
			if lot.Valuation.DayChange != nil {
				p.TotalDayChange += *lot.Valuation.DayChange
			}
		}
	}

	p.TotalUnrealizedGain = p.TotalCurrentValue - p.TotalCostBasis
	if p.TotalCostBasis > 0 {
		p.TotalUnrealizedGainPct = p.TotalUnrealizedGain / p.TotalCostBasis * 100
	}

	// Normalize day change against the value before today's move
	if base := p.TotalCurrentValue - p.TotalDayChange; base > 0 {
		p.TotalDayChangePct = p.TotalDayChange / base * 100
	}
}

// computeWeights assigns each priced position its share of total value.
// This needs the portfolio-wide total, so it runs after aggregation.
func (s *Service) computeWeights(p *Portfolio) {
	if p.TotalCurrentValue <= 0 {
		return
	}

	for i := range p.Positions {
		if p.Positions[i].Priced() {
			weight := p.Positions[i].Valuation.CurrentValue / p.TotalCurrentValue * 100
			p.Positions[i].Valuation.WeightPct = &weight
		}
	}
}

// computeSectorAllocation sums weight per sector over positions that have
// both a sector and a price. The map need not sum to 100.
func (s *Service) computeSectorAllocation(p *Portfolio) {
	if p.TotalCurrentValue <= 0 {
		return
	}

	for _, pos := range p.Positions {
		if pos.Sector == "" || !pos.Priced() {
			continue
		}
		p.SectorAllocation[pos.Sector] += pos.Valuation.CurrentValue / p.TotalCurrentValue * 100
	}
}
