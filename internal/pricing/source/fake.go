package source

import (
	"context"

	"github.com/jayvicsanantonio/collect-iq-sub000/internal/cardmodel"
)

// FakeAdapter returns a canned comp list, used by pricing-orchestration
// tests that don't need live source adapters.
type FakeAdapter struct {
	SourceName string
	Comps      []cardmodel.RawComp
	IsAvail    bool
	Err        error
}

func (f *FakeAdapter) Name() string      { return f.SourceName }
func (f *FakeAdapter) Available() bool   { return f.IsAvail }
func (f *FakeAdapter) Fetch(ctx context.Context, query cardmodel.PriceQuery) ([]cardmodel.RawComp, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Comps, nil
}
