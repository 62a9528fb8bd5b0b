package portfolio

import (
	"math"
	"sort"
)

// sectorUnknown groups holdings that have no sector classification
const sectorUnknown = "Unknown"

// GetPerformance runs a valuation pass and computes attribution over it
func (s *Service) GetPerformance() (*Performance, error) {
	p, err := s.GetPortfolio()
	if err != nil {
		return nil, err
	}
	return ComputePerformance(p), nil
}

// ComputePerformance ranks holdings by gain and attributes each one's
// contribution to the portfolio's total move.
func ComputePerformance(p *Portfolio) *Performance {
	perf := &Performance{
		Holdings:          []HoldingPerformance{},
		TopGainers:        []HoldingPerformance{},
		TopLosers:         []HoldingPerformance{},
		TotalValue:        p.TotalCurrentValue,
		TotalCostBasis:    p.TotalCostBasis,
		TotalGain:         p.TotalUnrealizedGain,
		TotalGainPct:      p.TotalUnrealizedGainPct,
		SectorPerformance: map[string]float64{},
	}

	for _, pos := range p.Positions {
		if !pos.Priced() {
			continue
		}

		h := HoldingPerformance{
			Symbol:         pos.Symbol,
			CurrentValue:   pos.Valuation.CurrentValue,
			CostBasis:      pos.TotalCostBasis,
			UnrealizedGain: pos.Valuation.UnrealizedGain,
			Sector:         pos.Sector,
		}
		if h.Sector == "" {
			h.Sector = sectorUnknown
		}
		if pos.Valuation.UnrealizedGainPct != nil {
			h.UnrealizedGainPct = *pos.Valuation.UnrealizedGainPct
		}
		if pos.Valuation.WeightPct != nil {
			h.WeightPct = *pos.Valuation.WeightPct
		}

		h.ContributionPct = contributionPct(h.UnrealizedGain, p.TotalUnrealizedGain)

		perf.Holdings = append(perf.Holdings, h)
	}

	sort.SliceStable(perf.Holdings, func(i, j int) bool {
		return perf.Holdings[i].UnrealizedGain > perf.Holdings[j].UnrealizedGain
	})

	for _, h := range perf.Holdings {
		if h.UnrealizedGain > 0 && len(perf.TopGainers) < 5 {
			perf.TopGainers = append(perf.TopGainers, h)
		}
	}
	for i := len(perf.Holdings) - 1; i >= 0; i-- {
		h := perf.Holdings[i]
		if h.UnrealizedGain < 0 && len(perf.TopLosers) < 5 {
			perf.TopLosers = append(perf.TopLosers, h)
		}
	}

	perf.SectorPerformance = sectorPerformance(perf.Holdings)

	return perf
}

// contributionPct scores how much a holding helped or hurt the direction
// the portfolio actually moved: magnitude is |gain| / |total| * 100, and the
// sign is negative only when the holding moved against the portfolio's
// overall direction. A holding that agrees with the direction is never
// shown negative, even when both gains are negative.
func contributionPct(gain, totalGain float64) float64 {
	if totalGain == 0 {
		return 0
	}

	pct := math.Abs(gain) / math.Abs(totalGain) * 100

	if (totalGain > 0 && gain < 0) || (totalGain < 0 && gain > 0) {
		return -pct
	}
	return pct
}

// sectorPerformance computes each sector's aggregate return:
// sum of gains over sum of cost bases, as a percent
func sectorPerformance(holdings []HoldingPerformance) map[string]float64 {
	gains := make(map[string]float64)
	bases := make(map[string]float64)

	for _, h := range holdings {
		gains[h.Sector] += h.UnrealizedGain
		bases[h.Sector] += h.CostBasis
	}

	perf := make(map[string]float64, len(gains))
	for sector, gain := range gains {
		if bases[sector] > 0 {
			perf[sector] = gain / bases[sector] * 100
		} else {
			perf[sector] = 0
		}
	}

	return perf
}
