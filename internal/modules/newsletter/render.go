package newsletter

import (
	"fmt"
	"html/template"
	"sort"
	"strings"
	"time"

	"github.com/aristath/folio/internal/modules/portfolio"
)

// Email is one rendered newsletter ready to send
type Email struct {
	Subject string
	HTML    string
	Text    string
	Chart   []byte // PNG, may be nil when history is too short
}

var htmlTemplate = template.Must(template.New("newsletter").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: -apple-system, Helvetica, Arial, sans-serif; color: #111; max-width: 640px; margin: 0 auto;">
  <h1 style="font-size: 20px;">Portfolio Update — {{.Date}}</h1>

  <table style="width: 100%; border-collapse: collapse;">
    <tr><td style="padding: 4px 0;">Total value</td><td style="text-align: right;"><strong>${{printf "%.2f" .TotalValue}}</strong></td></tr>
    <tr><td style="padding: 4px 0;">Cost basis</td><td style="text-align: right;">${{printf "%.2f" .TotalCostBasis}}</td></tr>
    <tr><td style="padding: 4px 0;">Unrealized gain</td><td style="text-align: right; color: {{.GainColor}};">${{printf "%.2f" .TotalGain}} ({{printf "%.2f" .TotalGainPct}}%)</td></tr>
    <tr><td style="padding: 4px 0;">Day change</td><td style="text-align: right;">${{printf "%.2f" .DayChange}} ({{printf "%.2f" .DayChangePct}}%)</td></tr>
  </table>

  {{if .HasChart}}<p><img src="cid:trend-chart" alt="Portfolio trend" style="width: 100%;"></p>{{end}}

  {{if .TopGainers}}
  <h2 style="font-size: 16px;">Top gainers</h2>
  <ul>{{range .TopGainers}}<li>{{.Symbol}}: +${{printf "%.2f" .UnrealizedGain}} ({{printf "%.2f" .UnrealizedGainPct}}%)</li>{{end}}</ul>
  {{end}}

  {{if .TopLosers}}
  <h2 style="font-size: 16px;">Top losers</h2>
  <ul>{{range .TopLosers}}<li>{{.Symbol}}: ${{printf "%.2f" .UnrealizedGain}} ({{printf "%.2f" .UnrealizedGainPct}}%)</li>{{end}}</ul>
  {{end}}

  {{if .Sectors}}
  <h2 style="font-size: 16px;">Sector allocation</h2>
  <ul>{{range .Sectors}}<li>{{.Name}}: {{printf "%.1f" .WeightPct}}%</li>{{end}}</ul>
  {{end}}

  {{if .UnpricedSymbols}}
  <p style="color: #92400e; background: #fef3c7; padding: 8px;">No market data was available for: {{.UnpricedSymbols}}.</p>
  {{end}}

  <p style="color: #6b7280; font-size: 12px;">Automated report. Not financial advice.</p>
</body>
</html>`))

type sectorEntry struct {
	Name      string
	WeightPct float64
}

type templateData struct {
	Date            string
	TotalValue      float64
	TotalCostBasis  float64
	TotalGain       float64
	TotalGainPct    float64
	GainColor       string
	DayChange       float64
	DayChangePct    float64
	HasChart        bool
	TopGainers      []portfolio.HoldingPerformance
	TopLosers       []portfolio.HoldingPerformance
	Sectors         []sectorEntry
	UnpricedSymbols string
}

// Render builds the newsletter from one valuation pass and its history
func Render(p *portfolio.Portfolio, perf *portfolio.Performance, history *portfolio.History, now time.Time) (*Email, error) {
	var chartPNG []byte
	if history != nil && len(history.Snapshots) >= 2 {
		png, err := RenderTrendChart(history.Snapshots)
		if err != nil {
			return nil, fmt.Errorf("failed to render trend chart: %w", err)
		}
		chartPNG = png
	}

	data := templateData{
		Date:           now.Format("Monday, January 2, 2006"),
		TotalValue:     p.TotalCurrentValue,
		TotalCostBasis: p.TotalCostBasis,
		TotalGain:      p.TotalUnrealizedGain,
		TotalGainPct:   p.TotalUnrealizedGainPct,
		GainColor:      "#16a34a",
		DayChange:      p.TotalDayChange,
		DayChangePct:   p.TotalDayChangePct,
		HasChart:       chartPNG != nil,
		TopGainers:     perf.TopGainers,
		TopLosers:      perf.TopLosers,
	}
	if p.TotalUnrealizedGain < 0 {
		data.GainColor = "#dc2626"
	}
	if len(p.UnpricedSymbols) > 0 {
		data.UnpricedSymbols = strings.Join(p.UnpricedSymbols, ", ")
	}

	sectors := make([]sectorEntry, 0, len(p.SectorAllocation))
	for name, weight := range p.SectorAllocation {
		sectors = append(sectors, sectorEntry{Name: name, WeightPct: weight})
	}
	sort.Slice(sectors, func(i, j int) bool {
		if sectors[i].WeightPct != sectors[j].WeightPct {
			return sectors[i].WeightPct > sectors[j].WeightPct
		}
		return sectors[i].Name < sectors[j].Name
	})
	data.Sectors = sectors

	var html strings.Builder
	if err := htmlTemplate.Execute(&html, data); err != nil {
		return nil, fmt.Errorf("failed to render HTML: %w", err)
	}

	return &Email{
		Subject: buildSubject(p, now),
		HTML:    html.String(),
		Text:    renderText(data),
		Chart:   chartPNG,
	}, nil
}

func buildSubject(p *portfolio.Portfolio, now time.Time) string {
	direction := "flat"
	if p.TotalDayChange > 0 {
		direction = fmt.Sprintf("up %.2f%%", p.TotalDayChangePct)
	} else if p.TotalDayChange < 0 {
		direction = fmt.Sprintf("down %.2f%%", -p.TotalDayChangePct)
	}
	return fmt.Sprintf("Portfolio %s — %s", direction, now.Format("Jan 2"))
}

// renderText is the plain-text alternative for the HTML body
func renderText(data templateData) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Portfolio Update — %s\n\n", data.Date)
	fmt.Fprintf(&sb, "Total value:     $%.2f\n", data.TotalValue)
	fmt.Fprintf(&sb, "Cost basis:      $%.2f\n", data.TotalCostBasis)
	fmt.Fprintf(&sb, "Unrealized gain: $%.2f (%.2f%%)\n", data.TotalGain, data.TotalGainPct)
	fmt.Fprintf(&sb, "Day change:      $%.2f (%.2f%%)\n", data.DayChange, data.DayChangePct)

	if len(data.TopGainers) > 0 {
		sb.WriteString("\nTop gainers:\n")
		for _, h := range data.TopGainers {
			fmt.Fprintf(&sb, "  %s: +$%.2f (%.2f%%)\n", h.Symbol, h.UnrealizedGain, h.UnrealizedGainPct)
		}
	}
	if len(data.TopLosers) > 0 {
		sb.WriteString("\nTop losers:\n")
		for _, h := range data.TopLosers {
			fmt.Fprintf(&sb, "  %s: $%.2f (%.2f%%)\n", h.Symbol, h.UnrealizedGain, h.UnrealizedGainPct)
		}
	}
	if len(data.Sectors) > 0 {
		sb.WriteString("\nSector allocation:\n")
		for _, s := range data.Sectors {
			fmt.Fprintf(&sb, "  %s: %.1f%%\n", s.Name, s.WeightPct)
		}
	}
	if data.UnpricedSymbols != "" {
		fmt.Fprintf(&sb, "\nNo market data was available for: %s.\n", data.UnpricedSymbols)
	}

	sb.WriteString("\nAutomated report. Not financial advice.\n")

	return sb.String()
}
