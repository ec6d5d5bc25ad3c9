package authenticity

import (
	"context"

	"github.com/jayvicsanantonio/collect-iq-sub000/internal/cardmodel"
)

// ReferenceStore looks up known-authentic hashes for a card name, the
// authentic-samples/<card-name>/ path named in spec.md §4.4.
type ReferenceStore interface {
	ReferencesFor(ctx context.Context, cardName string) ([]cardmodel.ReferenceHash, error)
}

// VisualHashConfidence computes the best similarity between hash and
// the reference hashes for cardName, per spec.md §4.4: if no references
// exist or the name is unknown, use referenceDefault (normally 0.50;
// temporarily 0.85 is a documented policy knob while the reference
// corpus is populated — see internal/config).
func VisualHashConfidence(ctx context.Context, store ReferenceStore, cardName, hash string, referenceDefault float64) float64 {
	if cardName == "" || store == nil {
		return referenceDefault
	}
	refs, err := store.ReferencesFor(ctx, cardName)
	if err != nil || len(refs) == 0 {
		return referenceDefault
	}

	best := 0.0
	for _, ref := range refs {
		dist := HammingDistance(hash, ref.Hash)
		if dist < 0 {
			continue
		}
		similarity := 1 - float64(dist)/64.0
		if similarity < 0 {
			similarity = 0
		}
		if similarity > best {
			best = similarity
		}
	}
	return best
}
