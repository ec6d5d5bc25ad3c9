package ocrreasoner

import (
	"fmt"
	"strings"

	"github.com/jayvicsanantonio/collect-iq-sub000/internal/cardmodel"
)

// buildPrompt constructs the deterministic prompt spec.md §4.2 step 2
// describes: task/schema statement, OCR blocks grouped by region, visual
// context, and the closed confidence scale.
func buildPrompt(envelope *cardmodel.FeatureEnvelope) string {
	var b strings.Builder

	b.WriteString("You are identifying a trading card from OCR text and visual signals. ")
	b.WriteString("Return ONLY a JSON object matching this schema: ")
	b.WriteString(`{"name":{"value":string|null,"confidence":number,"rationale":string},` +
		`"set":{"value":string|null,"confidence":number,"rationale":string,"candidates":[{"value":string,"confidence":number}]},` +
		`"rarity":{"value":string|null,"confidence":number,"rationale":string},` +
		`"collectorNumber":{"value":string|null,"confidence":number,"rationale":string},` +
		`"illustrator":{"value":string|null,"confidence":number,"rationale":string},` +
		`"overallConfidence":number,"reasoningTrail":string,"verifiedByAi":true}` + "\n\n")

	b.WriteString("Confidence scale: 0.9-1.0 exact/high-confidence; 0.7-0.9 strong fuzzy match; ")
	b.WriteString("0.5-0.7 moderate; 0.3-0.5 low; 0.0-0.3 uncertain/unknown.\n\n")

	writeRegion := func(label string, region cardmodel.SpatialRegion) {
		fmt.Fprintf(&b, "%s region blocks:\n", label)
		found := false
		for _, block := range envelope.OCRBlocks {
			if block.Region() != region {
				continue
			}
			found = true
			fmt.Fprintf(&b, "- %q (confidence %.2f, top %.2f, left %.2f)\n",
				block.Text, block.Confidence, block.Box.Top, block.Box.Left)
		}
		if !found {
			b.WriteString("- (none)\n")
		}
	}
	writeRegion("Top (name/HP)", cardmodel.RegionTop)
	writeRegion("Middle (abilities/flavor)", cardmodel.RegionMiddle)
	writeRegion("Bottom (copyright/collector number/illustrator)", cardmodel.RegionBottom)

	fmt.Fprintf(&b, "\nVisual context: holographicVariance=%.3f, borderSymmetry=%.3f, blurScore=%.3f, glare=%v\n",
		envelope.HolographicVariance, envelope.Border.SymmetryScore, envelope.Quality.BlurScore, envelope.Quality.GlareDetected)

	return b.String()
}
