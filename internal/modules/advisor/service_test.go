package advisor

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/folio/internal/modules/portfolio"
)

// fakeGenerator records prompts and returns a canned answer
type fakeGenerator struct {
	prompt string
	answer string
	err    error
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, prompt string) (string, error) {
	f.prompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func samplePortfolio() *portfolio.Portfolio {
	price := 60.0
	weight := 100.0
	pct := 20.0
	return &portfolio.Portfolio{
		Positions: []portfolio.AggregatedPosition{
			{
				Symbol:         "AAPL",
				TotalShares:    10,
				TotalCostBasis: 500,
				AverageCost:    50,
				Sector:         "Technology",
				Valuation: &portfolio.PositionValuation{
					CurrentPrice:      price,
					CurrentValue:      600,
					UnrealizedGain:    100,
					UnrealizedGainPct: &pct,
					WeightPct:         &weight,
				},
			},
			{
				Symbol:         "MYST",
				TotalShares:    5,
				TotalCostBasis: 250,
				AverageCost:    50,
			},
		},
		TotalCostBasis:         750,
		TotalCurrentValue:      600,
		TotalUnrealizedGain:    -150,
		TotalUnrealizedGainPct: -20,
		PositionCount:          3,
		SymbolCount:            2,
		SectorAllocation:       map[string]float64{"Technology": 100},
		UnpricedSymbols:        []string{"MYST"},
	}
}

func TestBuildContextPrompt_IncludesPortfolioState(t *testing.T) {
	prompt := buildContextPrompt(samplePortfolio())

	assert.Contains(t, prompt, "AAPL")
	assert.Contains(t, prompt, "$600.00")
	assert.Contains(t, prompt, "Technology")
	assert.Contains(t, prompt, "no current quote", "unpriced positions must be described, not dropped")
	assert.Contains(t, prompt, "no market data was available for MYST")
}

func TestBuildAnalysisPrompt_IncludesAttribution(t *testing.T) {
	p := samplePortfolio()
	perf := portfolio.ComputePerformance(p)

	prompt := buildAnalysisPrompt(p, perf)

	assert.Contains(t, prompt, "Top gainers")
	assert.Contains(t, prompt, "contribution")
	assert.Contains(t, prompt, "single JSON object")
	assert.Contains(t, prompt, "Do not recommend specific trades")
}

func TestAsk_NotConfigured(t *testing.T) {
	svc := NewService(nil, nil, zerolog.Nop())

	assert.False(t, svc.IsConfigured())

	_, err := svc.Ask(context.Background(), "how am I doing?")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestAsk_EmptyQuestionRejected(t *testing.T) {
	svc := NewService(&fakeGenerator{answer: "ok"}, nil, zerolog.Nop())

	_, err := svc.Ask(context.Background(), "   ")
	require.Error(t, err)
}

// fakeSource serves a fixed portfolio
type fakeSource struct {
	p *portfolio.Portfolio
}

func (f *fakeSource) GetPortfolio() (*portfolio.Portfolio, error) {
	return f.p, nil
}

func TestAsk_GroundsPromptAndAppendsDisclaimer(t *testing.T) {
	gen := &fakeGenerator{answer: "Your portfolio is down overall."}
	svc := NewService(gen, &fakeSource{p: samplePortfolio()}, zerolog.Nop())

	answer, err := svc.Ask(context.Background(), "how am I doing?")
	require.NoError(t, err)

	assert.Contains(t, gen.prompt, "AAPL", "prompt must carry the portfolio context")
	assert.Contains(t, gen.prompt, "how am I doing?")
	assert.True(t, strings.HasPrefix(answer, "Your portfolio is down overall."))
	assert.True(t, strings.HasSuffix(answer, Disclaimer))
}

func TestAnalyzePortfolio_ParsesStructuredResponse(t *testing.T) {
	gen := &fakeGenerator{answer: `Here is the review:
{"summary": "Concentrated in Technology, down 20% overall.",
 "insights": [
   {"category": "allocation", "severity": "warning", "message": "Single-sector exposure."},
   {"category": "mystery", "severity": "shrug", "message": "Odd labels get normalized."}
 ]}`}
	svc := NewService(gen, &fakeSource{p: samplePortfolio()}, zerolog.Nop())

	analysis, err := svc.AnalyzePortfolio(context.Background())
	require.NoError(t, err)

	assert.Contains(t, gen.prompt, "Review this portfolio")
	assert.Equal(t, "Concentrated in Technology, down 20% overall.", analysis.Summary)
	require.Len(t, analysis.Insights, 2)
	assert.Equal(t, "warning", analysis.Insights[0].Severity)
	assert.Equal(t, "info", analysis.Insights[1].Severity, "unknown severity falls back to info")
	assert.Equal(t, "mystery", analysis.Insights[1].Category)
	assert.Equal(t, Disclaimer, analysis.Disclaimer)
}

func TestAnalyzePortfolio_PlainTextFallback(t *testing.T) {
	gen := &fakeGenerator{answer: "Concentrated in Technology."}
	svc := NewService(gen, &fakeSource{p: samplePortfolio()}, zerolog.Nop())

	analysis, err := svc.AnalyzePortfolio(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Concentrated in Technology.", analysis.Summary)
	assert.Empty(t, analysis.Insights)
	assert.Equal(t, Disclaimer, analysis.Disclaimer)
}
