// Package source defines the pricing-source adapter contract of
// spec.md §4.3 and the three concrete adapters: a TCGPlayer-style
// marketplace, an eBay-style auction/listing search, and a
// population-report style grading registry.
package source

import (
	"context"
	"strings"

	"github.com/jayvicsanantonio/collect-iq-sub000/internal/cardmodel"
)

// Adapter is one pricing source's query contract.
type Adapter interface {
	Name() string
	Available() bool
	Fetch(ctx context.Context, query cardmodel.PriceQuery) ([]cardmodel.RawComp, error)
}

// RarityVariant selects the price variant matching spec.md §6's rarity
// keyword rules: holofoil for holo/ultra-rare/secret-rare/rainbow-rare/
// full-art/vmax/vstar/ex/gx, reverse-holofoil for "reverse", 1st-edition
// for "1st edition", else normal. It only picks the variant name; no
// fallback to holofoil is made when a normal price is unavailable.
func RarityVariant(rarity string) string {
	lower := strings.ToLower(rarity)
	switch {
	case strings.Contains(lower, "reverse"):
		return "reverse-holofoil"
	case strings.Contains(lower, "1st edition"):
		return "1st-edition"
	case strings.Contains(lower, "holo"), strings.Contains(lower, "ultra rare"), strings.Contains(lower, "secret rare"),
		strings.Contains(lower, "rainbow rare"), strings.Contains(lower, "full art"), strings.Contains(lower, "vmax"),
		strings.Contains(lower, "vstar"), strings.Contains(lower, "ex"), strings.Contains(lower, "gx"):
		return "holofoil"
	default:
		return "normal"
	}
}

// hasPunctuation reports whether s contains characters likely to break
// a source's quoted-phrase search syntax (used to decide whether to
// drop the collector number from the primary query per spec.md §6).
func hasPunctuation(s string) bool {
	return strings.ContainsAny(s, "/#\\&?")
}
