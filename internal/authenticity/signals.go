package authenticity

import (
	"strings"

	"github.com/jayvicsanantonio/collect-iq-sub000/internal/cardmodel"
)

var canonicalPatterns = []string{
	"HP", "©", "Pokémon", "Nintendo", "Creatures", "GAME FREAK", "Illus.", "Weakness", "Resistance", "Retreat",
}

// TextMatchConfidence counts canonical-pattern and expected-name matches
// in the OCR text, per spec.md §4.4.
func TextMatchConfidence(envelope *cardmodel.FeatureEnvelope, expectedName string) float64 {
	text := envelope.AllText()
	lower := strings.ToLower(text)

	patterns := append([]string(nil), canonicalPatterns...)
	if expectedName != "" {
		patterns = append(patterns, expectedName)
	}

	matches := 0
	for _, p := range patterns {
		if strings.Contains(lower, strings.ToLower(p)) {
			matches++
		}
	}
	if len(patterns) == 0 {
		return 0
	}
	matchRatio := float64(matches) / float64(len(patterns))
	avgConfidence := envelope.AverageOCRConfidence()
	return 0.7*matchRatio + 0.3*avgConfidence
}

// HolographicPatternConfidence implements spec.md §4.4's piecewise
// function over holographic variance, branching on whether the rarity
// is expected to be holographic.
func HolographicPatternConfidence(variance float64, expectedHolo bool) float64 {
	if !expectedHolo {
		switch {
		case variance < 0.2:
			return 1.0
		case variance <= 0.4:
			return 0.7
		default:
			return 0.3
		}
	}

	switch {
	case variance >= 0.3 && variance <= 0.9:
		c := 1 - absF(variance-0.6)/0.3
		if c < 0.5 {
			c = 0.5
		}
		return c
	case variance < 0.3:
		return 0.3 + (variance/0.3)*0.2
	default: // variance > 0.9
		c := 0.5 - (variance - 0.9)
		if c < 0.2 {
			c = 0.2
		}
		return c
	}
}

// BorderConsistencyConfidence combines symmetry, side-ratio variance,
// and deviation from an expected 0.15 border ratio, per spec.md §4.4.
func BorderConsistencyConfidence(border cardmodel.BorderMetrics) float64 {
	sides := border.SideRatios()
	varianceConfidence := 1 - 10*varianceOf(sides)
	if varianceConfidence < 0 {
		varianceConfidence = 0
	}

	mean := meanOf(sides)
	deviation := absF(mean - 0.15)
	ratioConfidence := 1 - deviation/0.10
	if ratioConfidence < 0 {
		ratioConfidence = 0
	}
	if ratioConfidence > 1 {
		ratioConfidence = 1
	}

	return 0.4*border.SymmetryScore + 0.3*varianceConfidence + 0.3*ratioConfidence
}

// FontValidationConfidence weighs alignment, kerning variance, and
// font-size variance, per spec.md §4.4.
func FontValidationConfidence(font cardmodel.FontMetrics) float64 {
	kerningVariance := varianceOf(font.KerningSamples)
	kerningTerm := 1 - kerningVariance/0.05
	if kerningTerm < 0 {
		kerningTerm = 0
	}

	sizeTerm := 1 - font.FontSizeVariance/50
	if sizeTerm < 0 {
		sizeTerm = 0
	}

	return 0.4*font.Alignment + 0.3*kerningTerm + 0.3*sizeTerm
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func varianceOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := meanOf(values)
	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	return variance / float64(len(values))
}
