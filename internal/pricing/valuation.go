package pricing

import (
	"sort"

	"github.com/jayvicsanantonio/collect-iq-sub000/internal/cardmodel"
	"github.com/montanaflynn/stats"
)

// Valuate computes value-low/median/high as linearly interpolated
// 10th/50th/90th percentiles of the filtered prices, volatility over all
// prices, and confidence from both, per spec.md §4.3's percentile formulas.
func Valuate(allPrices, filteredPrices []float64, sources []string, windowDays int) cardmodel.PricingResult {
	if len(filteredPrices) == 0 {
		return cardmodel.PricingResult{
			WindowDays: windowDays,
			Sources:    sources,
			Message:    "no comparable sales found in the requested window",
		}
	}

	sorted := append([]float64(nil), filteredPrices...)
	sort.Float64s(sorted)
	percentile := func(p float64) float64 {
		pos := p / 100 * float64(len(sorted)-1)
		i := int(pos)
		if i+1 == len(sorted) {
			return sorted[i]
		}
		return sorted[i] + (pos-float64(i))*(sorted[i+1]-sorted[i])
	}
	low, median, high := percentile(10), percentile(50), percentile(90)

	mean, _ := stats.Mean(allPrices)
	stddev, _ := stats.StandardDeviation(allPrices)
	volatility := 0.0
	if mean != 0 {
		volatility = stddev / mean
	}

	sizeTerm := float64(len(filteredPrices)) / 50.0
	if sizeTerm > 1.0 {
		sizeTerm = 1.0
	}
	volTerm := 1 - volatility
	if volTerm < 0 {
		volTerm = 0
	}
	confidence := 0.6*sizeTerm + 0.4*volTerm

	return cardmodel.PricingResult{
		ValueLow:    low,
		ValueMedian: median,
		ValueHigh:   high,
		CompsCount:  len(filteredPrices),
		WindowDays:  windowDays,
		Sources:     sources,
		Confidence:  confidence,
		Volatility:  volatility,
	}
}
