package pricing

import (
	"testing"

	"github.com/jayvicsanantonio/collect-iq-sub000/internal/cardmodel"
)

func TestNormalizeConvertsCurrency(t *testing.T) {
	n, ok := Normalize(cardmodel.RawComp{Source: "ebay", Price: 100, Currency: "EUR", Condition: "near mint", SoldDate: "2026-01-01"})
	if !ok {
		t.Fatal("expected normalization to succeed")
	}
	if n.Price != 108 {
		t.Fatalf("price = %v, want 108", n.Price)
	}
	if n.Condition != cardmodel.ConditionNearMint {
		t.Fatalf("condition = %v, want Near Mint", n.Condition)
	}
}

func TestNormalizeDropsNonPositivePrice(t *testing.T) {
	_, ok := Normalize(cardmodel.RawComp{Source: "ebay", Price: 0, Currency: "USD", SoldDate: "2026-01-01"})
	if ok {
		t.Fatal("expected zero price to be dropped")
	}
}

func TestStandardizeConditionHeavilyPlayedIsPoor(t *testing.T) {
	if got := standardizeCondition("Heavily Played"); got != cardmodel.ConditionPoor {
		t.Fatalf("got %v, want Poor", got)
	}
}

func TestRemoveOutliersSkipsSmallSets(t *testing.T) {
	prices := []float64{1, 2, 3}
	filtered, changed := RemoveOutliers(prices)
	if changed {
		t.Fatal("expected no change for <4 prices")
	}
	if len(filtered) != 3 {
		t.Fatalf("expected unfiltered set returned, got %v", filtered)
	}
}

func TestRemoveOutliersDropsFarPoint(t *testing.T) {
	prices := []float64{10, 11, 12, 13, 1000}
	filtered, changed := RemoveOutliers(prices)
	if !changed {
		t.Fatal("expected outlier to be dropped")
	}
	for _, p := range filtered {
		if p == 1000 {
			t.Fatal("outlier 1000 should have been removed")
		}
	}
}
