package pricing

import (
	"context"
	"testing"

	"github.com/jayvicsanantonio/collect-iq-sub000/internal/cardmodel"
	"github.com/jayvicsanantonio/collect-iq-sub000/internal/pricing/source"
)

func TestFetchAllCompsAllUnavailable(t *testing.T) {
	agg := NewAggregator(&source.FakeAdapter{SourceName: "tcgplayer", IsAvail: false})
	_, err := agg.FetchAllComps(context.Background(), cardmodel.PriceQuery{CardName: "Charizard"})
	if !cardmodel.IsKind(err, cardmodel.KindSourcesUnavailable) {
		t.Fatalf("expected KindSourcesUnavailable, got %v", err)
	}
}

func TestFetchAllCompsMergesAvailableSources(t *testing.T) {
	comps := []cardmodel.RawComp{
		{Source: "tcgplayer", Price: 100, Currency: "USD", Condition: "near mint", SoldDate: "2026-01-01"},
		{Source: "tcgplayer", Price: 110, Currency: "USD", Condition: "near mint", SoldDate: "2026-01-02"},
		{Source: "tcgplayer", Price: 105, Currency: "USD", Condition: "near mint", SoldDate: "2026-01-03"},
		{Source: "tcgplayer", Price: 115, Currency: "USD", Condition: "near mint", SoldDate: "2026-01-04"},
	}
	agg := NewAggregator(
		&source.FakeAdapter{SourceName: "tcgplayer", IsAvail: true, Comps: comps},
		&source.FakeAdapter{SourceName: "ebay", IsAvail: false},
	)
	result, err := agg.FetchAllComps(context.Background(), cardmodel.PriceQuery{CardName: "Charizard"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.CompsCount != 4 {
		t.Fatalf("compsCount = %d, want 4", result.CompsCount)
	}
	if len(result.Sources) != 1 || result.Sources[0] != "tcgplayer" {
		t.Fatalf("sources = %v, want [tcgplayer]", result.Sources)
	}
	if !result.Valid() {
		t.Fatalf("expected valid pricing result: %+v", result)
	}
}

func TestFetchAllCompsNoComps(t *testing.T) {
	agg := NewAggregator(&source.FakeAdapter{SourceName: "tcgplayer", IsAvail: true})
	result, err := agg.FetchAllComps(context.Background(), cardmodel.PriceQuery{CardName: "Charizard"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Message == "" {
		t.Fatal("expected a message when no comps found")
	}
}
