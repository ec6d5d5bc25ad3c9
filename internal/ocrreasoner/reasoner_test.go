package ocrreasoner

import (
	"context"
	"testing"

	"github.com/jayvicsanantonio/collect-iq-sub000/internal/cardmodel"
	"github.com/jayvicsanantonio/collect-iq-sub000/internal/llm"
)

func envelopeWithBlocks() *cardmodel.FeatureEnvelope {
	return &cardmodel.FeatureEnvelope{
		OCRBlocks: []cardmodel.OCRBlock{
			{Text: "Charizard", Confidence: 0.9, Box: cardmodel.BoundingBox{Top: 0.05, Left: 0.1, Width: 0.4, Height: 0.08}, Type: cardmodel.OCRBlockLine},
			{Text: "Draw a card", Confidence: 0.8, Box: cardmodel.BoundingBox{Top: 0.5, Left: 0.1, Width: 0.6, Height: 0.05}, Type: cardmodel.OCRBlockLine},
			{Text: "©1999 Nintendo", Confidence: 0.85, Box: cardmodel.BoundingBox{Top: 0.92, Left: 0.1, Width: 0.4, Height: 0.04}, Type: cardmodel.OCRBlockLine},
		},
	}
}

func TestInterpretSuccess(t *testing.T) {
	json := `{"name":{"value":"Charizard","confidence":0.95,"rationale":"top block"},` +
		`"set":{"value":"Base Set","confidence":0.8,"rationale":"copyright"},` +
		`"rarity":{"value":null,"confidence":0.3,"rationale":"no holo markers"},` +
		`"collectorNumber":{"value":null,"confidence":0.2,"rationale":"not visible"},` +
		`"illustrator":{"value":null,"confidence":0.2,"rationale":"not visible"},` +
		`"overallConfidence":0.7,"reasoningTrail":"matched top block","verifiedByAi":true}`

	r := NewReasoner(&llm.FakeClient{ResponseText: json}, Config{MaxRetries: 3})
	meta, err := r.Interpret(context.Background(), envelopeWithBlocks())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meta.Name.Value == nil || *meta.Name.Value != "Charizard" {
		t.Fatalf("name = %v, want Charizard", meta.Name.Value)
	}
	if !meta.VerifiedByAI {
		t.Fatal("expected verifiedByAi true")
	}
}

func TestInterpretFallbackOnSchemaFailure(t *testing.T) {
	r := NewReasoner(&llm.FakeClient{ResponseText: "not json"}, Config{MaxRetries: 1})
	meta, err := r.Interpret(context.Background(), envelopeWithBlocks())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meta.VerifiedByAI {
		t.Fatal("expected fallback with verifiedByAi false")
	}
	if meta.Name.Value == nil || *meta.Name.Value != "Charizard" {
		t.Fatalf("fallback name = %v, want Charizard (topmost block)", meta.Name.Value)
	}
}

func TestApplyNameGuardRejectsAbilityText(t *testing.T) {
	meta := &cardmodel.CardMetadata{
		Name: cardmodel.Field{Value: strPtr("Draw a card now and then discard one from hand"), Confidence: 0.5, Rationale: "model guess"},
	}
	applyNameGuard(meta, envelopeWithBlocks())
	if meta.Name.Value == nil || *meta.Name.Value != "Charizard" {
		t.Fatalf("expected name guard to pick Charizard, got %v", meta.Name.Value)
	}
}

func strPtr(s string) *string { return &s }
