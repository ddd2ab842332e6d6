package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/reportik/reportik/internal/metrics"
)

// Provider generates report summaries from campaign metrics. Implementations
// wrap one upstream model API each and report a static credit cost estimate
// that the orchestrator reserves before calling Summarize.
type Provider interface {
	Name() string
	EstimateCost() int64
	Summarize(ctx context.Context, m *metrics.Metrics, periodStart, periodEnd time.Time) (string, error)
}

// Result is the outcome of a successful summary generation
type Result struct {
	Summary  string
	Provider string
	Cost     int64
}

// buildPrompt renders the analyst prompt shared by all providers
func buildPrompt(m *metrics.Metrics, periodStart, periodEnd time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze the campaign data for the period %s to %s:\n\n",
		periodStart.Format("2006-01-02"), periodEnd.Format("2006-01-02"))
	fmt.Fprintf(&b, "Metrics:\n")
	fmt.Fprintf(&b, "- Impressions: %d\n", m.Totals.Impressions)
	fmt.Fprintf(&b, "- Clicks: %d\n", m.Totals.Clicks)
	fmt.Fprintf(&b, "- CTR: %.2f%%\n", m.Totals.CTR)
	fmt.Fprintf(&b, "- Conversions: %d\n", m.Totals.Conversions)
	fmt.Fprintf(&b, "- Cost: R$ %.2f\n\n", m.Totals.Cost)
	b.WriteString("Write an executive report with:\n")
	b.WriteString("1. Overall performance summary\n")
	b.WriteString("2. Key insights and trends\n")
	b.WriteString("3. Strategic recommendations\n")
	b.WriteString("4. Areas of attention\n\n")
	b.WriteString("Be direct, professional and action oriented. At most 1000 words.")
	return b.String()
}
