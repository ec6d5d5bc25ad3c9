package aggregator

import (
	"testing"
	"time"

	"github.com/jayvicsanantonio/collect-iq-sub000/internal/cardmodel"
)

func strPtr(s string) *string { return &s }

func TestBuildUpdateSkipsIdentificationWhenNotVerified(t *testing.T) {
	a := &Aggregator{}
	in := Input{
		Pricing: cardmodel.PricingResult{ValueLow: 1, ValueMedian: 2, ValueHigh: 3, Sources: []string{"tcgplayer"}},
		OCRMetadata: &cardmodel.CardMetadata{
			Name: cardmodel.Field{Value: strPtr("Charizard"), Confidence: 0.9},
		},
		Now: time.Unix(0, 0),
	}

	update := a.buildUpdate(in)
	if _, ok := update["name"]; ok {
		t.Fatal("name must not be updated when OCR metadata is not verified")
	}
	if _, ok := update["ocrMetadata"]; !ok {
		t.Fatal("ocrMetadata must always be stored as audit trail")
	}
}

func TestBuildUpdateAppliesIdentificationWhenVerified(t *testing.T) {
	a := &Aggregator{}
	in := Input{
		Pricing: cardmodel.PricingResult{ValueLow: 1, ValueMedian: 2, ValueHigh: 3},
		OCRMetadata: &cardmodel.CardMetadata{
			Name:         cardmodel.Field{Value: strPtr("Charizard"), Confidence: 0.9},
			VerifiedByAI: true,
		},
		Now: time.Unix(0, 0),
	}

	update := a.buildUpdate(in)
	if got, ok := update["name"].(string); !ok || got != "Charizard" {
		t.Fatalf("expected name to be set to Charizard, got %v", update["name"])
	}
}

func TestBuildUpdateFallsBackToFirstSetCandidate(t *testing.T) {
	a := &Aggregator{}
	in := Input{
		Pricing: cardmodel.PricingResult{},
		OCRMetadata: &cardmodel.CardMetadata{
			Set:          cardmodel.SetField{Value: nil, Candidates: []cardmodel.SetCandidate{{Value: "Base Set", Confidence: 0.5}}},
			VerifiedByAI: true,
		},
		Now: time.Unix(0, 0),
	}

	update := a.buildUpdate(in)
	if got, ok := update["set"].(string); !ok || got != "Base Set" {
		t.Fatalf("expected set to fall back to first candidate, got %v", update["set"])
	}
}
