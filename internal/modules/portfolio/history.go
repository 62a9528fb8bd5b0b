package portfolio

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"
)

// SaveSnapshot values the portfolio and upserts today's snapshot
func (s *Service) SaveSnapshot() (*Snapshot, error) {
	p, err := s.GetPortfolio()
	if err != nil {
		return nil, err
	}

	snap := Snapshot{
		SnapshotDate:   s.now().Format("2006-01-02"),
		TotalValue:     p.TotalCurrentValue,
		TotalCostBasis: p.TotalCostBasis,
		TotalGain:      p.TotalUnrealizedGain,
		TotalGainPct:   p.TotalUnrealizedGainPct,
		NumPositions:   p.PositionCount,
	}

	if err := s.snapshotRepo.Upsert(snap); err != nil {
		return nil, err
	}

	return &snap, nil
}

// GetHistory returns the snapshots in the trailing window plus derived
// trend statistics. An empty window yields a History with a nil Summary.
func (s *Service) GetHistory(windowDays int) (*History, error) {
	if windowDays <= 0 {
		windowDays = 30
	}

	cutoff := s.now().AddDate(0, 0, -windowDays).Format("2006-01-02")

	snapshots, err := s.snapshotRepo.GetSince(cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	h := &History{
		WindowDays: windowDays,
		Snapshots:  snapshots,
	}

	if len(snapshots) == 0 {
		return h, nil
	}

	h.Summary = summarize(snapshots)

	return h, nil
}

// summarize derives the window statistics from an ascending snapshot run
func summarize(snapshots []Snapshot) *HistorySummary {
	first := snapshots[0]
	last := snapshots[len(snapshots)-1]

	summary := &HistorySummary{
		StartDate:     first.SnapshotDate,
		EndDate:       last.SnapshotDate,
		StartingValue: first.TotalValue,
		CurrentValue:  last.TotalValue,
		TotalChange:   last.TotalValue - first.TotalValue,
		HighValue:     first.TotalValue,
		HighDate:      first.SnapshotDate,
		LowValue:      first.TotalValue,
		LowDate:       first.SnapshotDate,
	}

	if first.TotalValue != 0 {
		summary.TotalChangePct = summary.TotalChange / first.TotalValue * 100
	}

	// Ties keep the earliest occurrence
	for _, snap := range snapshots[1:] {
		if snap.TotalValue > summary.HighValue {
			summary.HighValue = snap.TotalValue
			summary.HighDate = snap.SnapshotDate
		}
		if snap.TotalValue < summary.LowValue {
			summary.LowValue = snap.TotalValue
			summary.LowDate = snap.SnapshotDate
		}
	}

	values := make([]float64, len(snapshots))
	days := make([]float64, len(snapshots))
	base, _ := time.Parse("2006-01-02", first.SnapshotDate)
	for i, snap := range snapshots {
		values[i] = snap.TotalValue
		if d, err := time.Parse("2006-01-02", snap.SnapshotDate); err == nil {
			days[i] = d.Sub(base).Hours() / 24
		} else {
			days[i] = float64(i)
		}
	}

	summary.MeanValue = stat.Mean(values, nil)
	if len(values) > 1 {
		summary.StdDev = stat.StdDev(values, nil)
		_, summary.TrendSlope = stat.LinearRegression(days, values, nil, false)
	}

	returns := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1] != 0 {
			returns = append(returns, (values[i]-values[i-1])/values[i-1])
		}
	}
	if len(returns) > 1 {
		vol := stat.StdDev(returns, nil) * math.Sqrt(252)
		summary.AnnualizedVolatility = &vol
	}

	return summary
}
