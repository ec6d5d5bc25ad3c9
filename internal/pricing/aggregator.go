package pricing

import (
	"context"

	"github.com/jayvicsanantonio/collect-iq-sub000/internal/cardmodel"
	"github.com/jayvicsanantonio/collect-iq-sub000/internal/pricing/source"
	"golang.org/x/sync/errgroup"
)

// Aggregator runs fetchAllComps across every available source adapter
// in parallel, using errgroup the way the teacher's pack (virtengine's
// event-publishing service) fans out independent I/O — except each
// branch converts its own error to an empty result instead of
// cancelling its siblings, matching spec.md §4.3's "one adapter's
// failure MUST NOT cancel others".
type Aggregator struct {
	adapters []source.Adapter
}

// NewAggregator wires the set of source adapters to query.
func NewAggregator(adapters ...source.Adapter) *Aggregator {
	return &Aggregator{adapters: adapters}
}

// FetchAllComps queries every available adapter, normalizes and filters
// the results, and returns a PricingResult. Fails with SourcesUnavailable
// only when every adapter reports itself unavailable.
func (a *Aggregator) FetchAllComps(ctx context.Context, query cardmodel.PriceQuery) (cardmodel.PricingResult, error) {
	available := make([]source.Adapter, 0, len(a.adapters))
	for _, ad := range a.adapters {
		if ad.Available() {
			available = append(available, ad)
		}
	}
	if len(available) == 0 {
		return cardmodel.PricingResult{}, cardmodel.NewError(cardmodel.KindSourcesUnavailable, "no pricing sources available", nil)
	}

	results := make([][]cardmodel.RawComp, len(available))
	g, gctx := errgroup.WithContext(ctx)
	for i, ad := range available {
		i, ad := i, ad
		g.Go(func() error {
			comps, err := ad.Fetch(gctx, query)
			if err != nil {
				results[i] = nil
				return nil
			}
			results[i] = comps
			return nil
		})
	}
	_ = g.Wait() // branch errors already converted to empty results above

	var raw []cardmodel.RawComp
	sourceSet := map[string]bool{}
	for i, comps := range results {
		if len(comps) > 0 {
			sourceSet[available[i].Name()] = true
		}
		raw = append(raw, comps...)
	}

	sources := make([]string, 0, len(sourceSet))
	for name := range sourceSet {
		sources = append(sources, name)
	}

	normalized := make([]cardmodel.NormalizedComp, 0, len(raw))
	for _, r := range raw {
		if n, ok := Normalize(r); ok {
			normalized = append(normalized, n)
		}
	}
	if len(normalized) == 0 {
		return cardmodel.PricingResult{
			WindowDays: query.NormalizedWindowDays(),
			Sources:    sources,
			Message:    "no comparable sales found in the requested window",
		}, nil
	}

	allPrices := make([]float64, len(normalized))
	for i, n := range normalized {
		allPrices[i] = n.Price
	}

	filtered, _ := RemoveOutliers(allPrices)
	return Valuate(allPrices, filtered, sources, query.NormalizedWindowDays()), nil
}
