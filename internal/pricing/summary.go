package pricing

import (
	"context"
	"fmt"
	"strings"

	"github.com/jayvicsanantonio/collect-iq-sub000/internal/cardmodel"
	"github.com/jayvicsanantonio/collect-iq-sub000/internal/llm"
)

// Summarizer invokes a language model to narrate a PricingResult, with
// the synthesized fallback spec.md §4.3 requires on model failure.
type Summarizer struct {
	client llm.Client
}

// NewSummarizer wires the model client used for narration.
func NewSummarizer(client llm.Client) *Summarizer {
	return &Summarizer{client: client}
}

type summaryPayload struct {
	Summary        string       `json:"summary"`
	FairValue      float64      `json:"fairValue"`
	Trend          cardmodel.Trend `json:"trend"`
	Recommendation string       `json:"recommendation"`
	Confidence     float64      `json:"confidence"`
}

// Summarize asks the model to narrate the pricing result for cardName,
// falling back to a synthesized summary if the call or parse fails.
func (s *Summarizer) Summarize(ctx context.Context, cardName string, result cardmodel.PricingResult) cardmodel.ValuationSummary {
	prompt := buildSummaryPrompt(cardName, result)

	resp, err := s.client.Generate(ctx, llm.Request{Prompt: prompt, Temperature: 0.3, MaxOutputTokens: 256})
	if err == nil {
		var payload summaryPayload
		if parseErr := llm.ExtractJSON(resp.Text, &payload); parseErr == nil && isValidTrend(payload.Trend) {
			return cardmodel.ValuationSummary{
				Summary:        payload.Summary,
				FairValue:      payload.FairValue,
				Trend:          payload.Trend,
				Recommendation: payload.Recommendation,
				Confidence:     payload.Confidence,
			}
		}
	}

	return cardmodel.ValuationSummary{
		Summary:        fmt.Sprintf("Recent sales for %s range from $%.2f to $%.2f, median $%.2f across %d comps.", cardName, result.ValueLow, result.ValueHigh, result.ValueMedian, result.CompsCount),
		FairValue:      result.ValueMedian,
		Trend:          cardmodel.TrendStable,
		Recommendation: "manual review recommended",
		Confidence:     0.7 * result.Confidence,
	}
}

func isValidTrend(t cardmodel.Trend) bool {
	switch t {
	case cardmodel.TrendRising, cardmodel.TrendFalling, cardmodel.TrendStable:
		return true
	default:
		return false
	}
}

func buildSummaryPrompt(cardName string, result cardmodel.PricingResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Summarize the pricing for %q. Range: $%.2f-$%.2f, median $%.2f, %d comps over %d days, sources: %s, confidence %.2f, volatility %.2f.\n",
		cardName, result.ValueLow, result.ValueHigh, result.ValueMedian, result.CompsCount, result.WindowDays, strings.Join(result.Sources, ", "), result.Confidence, result.Volatility)
	b.WriteString(`Return ONLY JSON: {"summary":string,"fairValue":number,"trend":"rising"|"falling"|"stable","recommendation":string,"confidence":number}`)
	return b.String()
}
