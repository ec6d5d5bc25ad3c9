package cardmodel

import (
	"encoding/json"
	"testing"
	"time"
)

func TestSetFieldUnmarshalSingle(t *testing.T) {
	raw := `{"value":"Base Set","confidence":0.92,"rationale":"clear copyright line"}`
	var s SetField
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		t.Fatalf("unmarshal single shape: %v", err)
	}
	if s.Value == nil || *s.Value != "Base Set" {
		t.Fatalf("value = %v, want Base Set", s.Value)
	}
	if len(s.Candidates) != 0 {
		t.Fatalf("expected no candidates, got %d", len(s.Candidates))
	}
	if !s.Valid() {
		t.Fatal("expected valid field")
	}
}

func TestSetFieldUnmarshalMultiCandidate(t *testing.T) {
	raw := `{"value":null,"candidates":[{"value":"Jungle","confidence":0.6},{"value":"Fossil","confidence":0.3}],"rationale":"ambiguous set symbol","confidence":0.0}`
	var s SetField
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		t.Fatalf("unmarshal multi-candidate shape: %v", err)
	}
	if s.Value != nil {
		t.Fatalf("expected nil primary value, got %v", *s.Value)
	}
	if len(s.Candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(s.Candidates))
	}
	first := s.FirstCandidateValue()
	if first == nil || *first != "Jungle" {
		t.Fatalf("FirstCandidateValue() = %v, want Jungle", first)
	}
}

func TestCardMetadataValid(t *testing.T) {
	m := CardMetadata{
		Name:              Field{Value: ptr("Charizard"), Confidence: 0.95, Rationale: "top block"},
		Set:               SetField{Value: ptr("Base Set"), Confidence: 0.8, Rationale: "copyright line"},
		Rarity:            Field{Confidence: 0.5, Rationale: "holo pattern present"},
		CollectorNumber:   Field{Confidence: 0.4, Rationale: "bottom-right corner"},
		Illustrator:       Field{Confidence: 0.3, Rationale: "illus. credit line"},
		OverallConfidence: 0.7,
	}
	if !m.Valid() {
		t.Fatal("expected valid metadata")
	}
	m.OverallConfidence = 1.5
	if m.Valid() {
		t.Fatal("expected invalid metadata with out-of-range overall confidence")
	}
}

func TestCardMetadataValidRejectsEmptyRationale(t *testing.T) {
	m := CardMetadata{
		Name:              Field{Value: ptr("Charizard"), Confidence: 0.95, Rationale: ""},
		Set:               SetField{Value: ptr("Base Set"), Confidence: 0.8, Rationale: "copyright line"},
		Rarity:            Field{Confidence: 0.5, Rationale: "holo pattern present"},
		CollectorNumber:   Field{Confidence: 0.4, Rationale: "bottom-right corner"},
		Illustrator:       Field{Confidence: 0.3, Rationale: "illus. credit line"},
		OverallConfidence: 0.7,
	}
	if m.Valid() {
		t.Fatal("expected invalid metadata: Name has an in-range confidence but an empty rationale")
	}
}

func TestCardMetadataToAuditPrefersFirstCandidate(t *testing.T) {
	m := CardMetadata{
		Set: SetField{
			Value:      nil,
			Confidence: 0.4,
			Rationale:  "ambiguous",
			Candidates: []SetCandidate{{Value: "Jungle", Confidence: 0.6}},
		},
	}
	audit := m.ToAudit(time.Now())
	if audit.Set.Value == nil || *audit.Set.Value != "Jungle" {
		t.Fatalf("audit.Set.Value = %v, want Jungle", audit.Set.Value)
	}
}
