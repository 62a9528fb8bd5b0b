// Package advisor narrates computed portfolio data through a language
// model. It consumes the valuation and attribution views; it never
// computes portfolio numbers itself.
package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aristath/folio/internal/modules/portfolio"
)

// Disclaimer is appended to every advisory response
const Disclaimer = "This is general information, not financial advice. Consult a licensed advisor before making investment decisions."

// Insight is one observation from a portfolio review
type Insight struct {
	Category string `json:"category"` // allocation, risk, performance, general
	Severity string `json:"severity"` // info, warning, alert
	Message  string `json:"message"`
}

// Analysis is a structured portfolio review
type Analysis struct {
	Summary    string    `json:"summary"`
	Insights   []Insight `json:"insights"`
	Disclaimer string    `json:"disclaimer"`
}

// Generator produces text from a prompt. *gemini.Client satisfies it.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// PortfolioSource supplies the valuation view to narrate.
// *portfolio.Service satisfies it.
type PortfolioSource interface {
	GetPortfolio() (*portfolio.Portfolio, error)
}

// Service turns portfolio views into advisory narration
type Service struct {
	generator Generator
	portfolio PortfolioSource
	log       zerolog.Logger
}

// NewService creates a new advisor service. generator may be nil when no
// API key is configured; advisory endpoints then report unavailable.
func NewService(generator Generator, portfolioSvc PortfolioSource, log zerolog.Logger) *Service {
	return &Service{
		generator: generator,
		portfolio: portfolioSvc,
		log:       log.With().Str("service", "advisor").Logger(),
	}
}

// IsConfigured reports whether a language model is available
func (s *Service) IsConfigured() bool {
	return s.generator != nil
}

// AnalyzePortfolio values the portfolio and asks the model for a
// structured performance review
func (s *Service) AnalyzePortfolio(ctx context.Context) (*Analysis, error) {
	if !s.IsConfigured() {
		return nil, fmt.Errorf("advisor is not configured")
	}

	p, err := s.portfolio.GetPortfolio()
	if err != nil {
		return nil, err
	}
	perf := portfolio.ComputePerformance(p)

	answer, err := s.generator.GenerateContent(ctx, buildAnalysisPrompt(p, perf))
	if err != nil {
		return nil, fmt.Errorf("advisory generation failed: %w", err)
	}

	analysis := parseAnalysis(answer)
	analysis.Disclaimer = Disclaimer

	return analysis, nil
}

// parseAnalysis extracts the structured review from the model output. A
// response that is not the requested JSON degrades to a plain summary.
func parseAnalysis(text string) *Analysis {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")

	if start >= 0 && end > start {
		var analysis Analysis
		if err := json.Unmarshal([]byte(text[start:end+1]), &analysis); err == nil && analysis.Summary != "" {
			for i := range analysis.Insights {
				switch analysis.Insights[i].Severity {
				case "info", "warning", "alert":
				default:
					analysis.Insights[i].Severity = "info"
				}
				if analysis.Insights[i].Category == "" {
					analysis.Insights[i].Category = "general"
				}
			}
			return &analysis
		}
	}

	return &Analysis{Summary: strings.TrimSpace(text)}
}

// Ask answers a free-form question grounded in the current portfolio
func (s *Service) Ask(ctx context.Context, question string) (string, error) {
	if !s.IsConfigured() {
		return "", fmt.Errorf("advisor is not configured")
	}
	if strings.TrimSpace(question) == "" {
		return "", fmt.Errorf("question must not be empty")
	}

	p, err := s.portfolio.GetPortfolio()
	if err != nil {
		return "", err
	}

	prompt := buildContextPrompt(p) + "\n\nQuestion: " + question +
		"\n\nAnswer concisely, grounded in the portfolio data above."

	answer, err := s.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("advisory generation failed: %w", err)
	}

	return answer + "\n\n" + Disclaimer, nil
}

// buildContextPrompt renders the portfolio state as prompt context
func buildContextPrompt(p *portfolio.Portfolio) string {
	var sb strings.Builder

	sb.WriteString("Current portfolio:\n")
	fmt.Fprintf(&sb, "- Total value: $%.2f (cost basis $%.2f)\n", p.TotalCurrentValue, p.TotalCostBasis)
	fmt.Fprintf(&sb, "- Unrealized gain: $%.2f (%.2f%%)\n", p.TotalUnrealizedGain, p.TotalUnrealizedGainPct)
	fmt.Fprintf(&sb, "- Day change: $%.2f (%.2f%%)\n", p.TotalDayChange, p.TotalDayChangePct)
	fmt.Fprintf(&sb, "- %d lots across %d symbols\n", p.PositionCount, p.SymbolCount)

	sb.WriteString("\nPositions (largest first):\n")
	for _, pos := range p.Positions {
		if pos.Priced() {
			fmt.Fprintf(&sb, "- %s: %.2f shares, value $%.2f, gain $%.2f",
				pos.Symbol, pos.TotalShares, pos.Valuation.CurrentValue, pos.Valuation.UnrealizedGain)
			if pos.Sector != "" {
				fmt.Fprintf(&sb, " (%s)", pos.Sector)
			}
			sb.WriteString("\n")
		} else {
			fmt.Fprintf(&sb, "- %s: %.2f shares, cost basis $%.2f, no current quote\n",
				pos.Symbol, pos.TotalShares, pos.TotalCostBasis)
		}
	}

	if len(p.UnpricedSymbols) > 0 {
		fmt.Fprintf(&sb, "\nNote: no market data was available for %s.\n", strings.Join(p.UnpricedSymbols, ", "))
	}

	if len(p.SectorAllocation) > 0 {
		sb.WriteString("\nSector allocation:\n")
		sectors := make([]string, 0, len(p.SectorAllocation))
		for sector := range p.SectorAllocation {
			sectors = append(sectors, sector)
		}
		sort.Strings(sectors)
		for _, sector := range sectors {
			fmt.Fprintf(&sb, "- %s: %.1f%%\n", sector, p.SectorAllocation[sector])
		}
	}

	return sb.String()
}

// buildAnalysisPrompt asks for a structured portfolio review
func buildAnalysisPrompt(p *portfolio.Portfolio, perf *portfolio.Performance) string {
	var sb strings.Builder

	sb.WriteString(buildContextPrompt(p))

	if len(perf.TopGainers) > 0 {
		sb.WriteString("\nTop gainers:\n")
		for _, h := range perf.TopGainers {
			fmt.Fprintf(&sb, "- %s: +$%.2f (%.2f%%), contribution %.1f%%\n",
				h.Symbol, h.UnrealizedGain, h.UnrealizedGainPct, h.ContributionPct)
		}
	}
	if len(perf.TopLosers) > 0 {
		sb.WriteString("\nTop losers:\n")
		for _, h := range perf.TopLosers {
			fmt.Fprintf(&sb, "- %s: -$%.2f (%.2f%%), contribution %.1f%%\n",
				h.Symbol, -h.UnrealizedGain, h.UnrealizedGainPct, h.ContributionPct)
		}
	}

	sb.WriteString(`
Review this portfolio: overall performance, concentration or
diversification concerns, the holdings that most helped or hurt, and
general considerations worth researching further.

Respond with a single JSON object and nothing else:
{"summary": "short assessment of overall performance",
 "insights": [{"category": "allocation|risk|performance|general",
               "severity": "info|warning|alert",
               "message": "one observation"}]}

Keep the summary under 100 words and give at most 6 insights.
Do not recommend specific trades.`)

	return sb.String()
}
