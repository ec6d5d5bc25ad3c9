package pricing

import (
	"sort"

	"github.com/montanaflynn/stats"
)

// RemoveOutliers applies Tukey's IQR rule to prices, per spec.md §4.3:
// skip entirely if fewer than 4 values; otherwise drop anything outside
// [Q1 - 1.5*IQR, Q3 + 1.5*IQR], reverting to the unfiltered set if the
// filter would empty it.
func RemoveOutliers(prices []float64) ([]float64, bool) {
	if len(prices) < 4 {
		return prices, false
	}

	sorted := append([]float64(nil), prices...)
	sort.Float64s(sorted)

	q1, err1 := stats.Percentile(sorted, 25)
	q3, err3 := stats.Percentile(sorted, 75)
	if err1 != nil || err3 != nil {
		return prices, false
	}
	iqr := q3 - q1
	lower := q1 - 1.5*iqr
	upper := q3 + 1.5*iqr

	filtered := make([]float64, 0, len(sorted))
	for _, p := range sorted {
		if p >= lower && p <= upper {
			filtered = append(filtered, p)
		}
	}
	if len(filtered) == 0 {
		return prices, false
	}
	return filtered, len(filtered) != len(prices)
}
