// Package pricing implements the Pricing Aggregator stage: fan-out
// across source adapters, comp normalization, Tukey IQR outlier
// removal, percentile valuation, and the LLM-backed valuation summary.
// Generalizes the teacher's retry/backoff idiom (internal/ai/gemini_retry.go)
// to pricing-source calls and adopts montanaflynn/stats for the
// percentile/IQR math spec.md §4.3 specifies.
package pricing

import (
	"math"
	"strings"
	"time"

	"github.com/jayvicsanantonio/collect-iq-sub000/internal/cardmodel"
)

var currencyRates = map[string]float64{
	"USD": 1.0, "EUR": 1.08, "GBP": 1.27, "CAD": 0.73, "AUD": 0.65, "JPY": 0.0067,
}

var soldDateLayouts = []string{
	time.RFC3339, "2006-01-02", "2006-01-02T15:04:05Z", "01/02/2006",
}

// Normalize converts a RawComp into USD with a standardized condition,
// or returns ok=false when the comp should be discarded (non-positive
// or non-finite price, unparseable date).
func Normalize(raw cardmodel.RawComp) (cardmodel.NormalizedComp, bool) {
	if raw.Price <= 0 || math.IsNaN(raw.Price) || math.IsInf(raw.Price, 0) {
		return cardmodel.NormalizedComp{}, false
	}

	rate, known := currencyRates[strings.ToUpper(raw.Currency)]
	if !known {
		rate = 1.0
	}
	usdPrice := raw.Price * rate

	soldDate, ok := parseSoldDate(raw.SoldDate)
	if !ok {
		return cardmodel.NormalizedComp{}, false
	}

	return cardmodel.NormalizedComp{
		Source:     raw.Source,
		Price:      usdPrice,
		Condition:  standardizeCondition(raw.Condition),
		SoldDate:   soldDate,
		ListingURL: raw.ListingURL,
	}, true
}

func parseSoldDate(raw string) (time.Time, bool) {
	for _, layout := range soldDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// standardizeCondition maps free-text condition strings to the closed
// set {Poor, Good, Excellent, Near Mint, Mint} via case-insensitive
// substring matching per spec.md §4.3.
func standardizeCondition(raw string) cardmodel.Condition {
	lower := strings.ToLower(raw)
	switch {
	case strings.Contains(lower, "gem"), strings.Contains(lower, "pristine"):
		return cardmodel.ConditionMint
	case strings.Contains(lower, "near mint"), strings.Contains(lower, "nm"), strings.Contains(lower, "like new"):
		return cardmodel.ConditionNearMint
	case strings.Contains(lower, "excellent"), strings.Contains(lower, "lightly played"), strings.Contains(lower, "lp"):
		return cardmodel.ConditionExcellent
	case strings.Contains(lower, "poor"), strings.Contains(lower, "damaged"), strings.Contains(lower, "heavily played"), strings.Contains(lower, "hp"):
		return cardmodel.ConditionPoor
	case strings.Contains(lower, "good"), strings.Contains(lower, "played"), strings.Contains(lower, "moderately played"), strings.Contains(lower, "mp"):
		return cardmodel.ConditionGood
	default:
		return cardmodel.ConditionGood
	}
}
