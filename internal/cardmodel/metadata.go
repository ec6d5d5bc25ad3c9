package cardmodel

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Field is a single interpreted attribute with its confidence and the
// model's rationale for the value it chose.
type Field struct {
	Value      *string `json:"value"`
	Confidence float64 `json:"confidence"`
	Rationale  string  `json:"rationale"`
}

// Valid reports whether the field's confidence is within [0,1] and its
// rationale is non-empty.
func (f Field) Valid() bool {
	return f.Confidence >= 0 && f.Confidence <= 1 && f.Rationale != ""
}

// SetCandidate is one alternative reading of the set field.
type SetCandidate struct {
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// SetField is the tagged variant described in spec.md §9: the `set`
// field may come back from the model either as a plain Field or as a
// Field plus a list of ranked candidates. Both shapes decode into this
// type via UnmarshalJSON; encoding uses the default struct layout, which
// includes "candidates" only when candidates are present.
type SetField struct {
	Value      *string        `json:"value"`
	Confidence float64        `json:"confidence"`
	Rationale  string         `json:"rationale"`
	Candidates []SetCandidate `json:"candidates,omitempty"`
}

// Valid reports whether the set field and every candidate's confidence
// falls within [0,1].
func (s SetField) Valid() bool {
	if s.Confidence < 0 || s.Confidence > 1 || s.Rationale == "" {
		return false
	}
	for _, c := range s.Candidates {
		if c.Confidence < 0 || c.Confidence > 1 {
			return false
		}
	}
	return true
}

// FirstCandidateValue returns the first candidate's value, used by the
// aggregator's merge rule when the primary value is null but candidates
// exist.
func (s SetField) FirstCandidateValue() *string {
	if len(s.Candidates) == 0 {
		return nil
	}
	v := s.Candidates[0].Value
	return &v
}

// UnmarshalJSON accepts both the single-field shape
// {"value","confidence","rationale"} and the multi-candidate shape
// {"value","candidates":[{"value","confidence"}],"rationale"} — per
// design notes §9, parsers must accept both without guessing.
func (s *SetField) UnmarshalJSON(data []byte) error {
	var raw struct {
		Value      *string        `json:"value"`
		Confidence float64        `json:"confidence"`
		Rationale  string         `json:"rationale"`
		Candidates []SetCandidate `json:"candidates"`
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("decode set field: %w", err)
	}
	s.Value = raw.Value
	s.Confidence = raw.Confidence
	s.Rationale = raw.Rationale
	s.Candidates = raw.Candidates
	return nil
}

// CardMetadata is the OCR Reasoner's structured output: per-field
// identification with confidence and rationale, plus overall metadata
// about the reasoning pass itself.
type CardMetadata struct {
	Name            Field    `json:"name"`
	Set             SetField `json:"set"`
	Rarity          Field    `json:"rarity"`
	CollectorNumber Field    `json:"collectorNumber"`
	Illustrator     Field    `json:"illustrator"`

	OverallConfidence float64 `json:"overallConfidence"`
	ReasoningTrail    string  `json:"reasoningTrail"`
	VerifiedByAI      bool    `json:"verifiedByAi"`
}

// Valid reports whether every field's confidence is within [0,1], every
// field's rationale is non-empty, and the overall confidence is within
// [0,1] too (spec.md §4.2/§8's field schema).
func (m *CardMetadata) Valid() bool {
	if m.OverallConfidence < 0 || m.OverallConfidence > 1 {
		return false
	}
	for _, f := range []Field{m.Name, m.Rarity, m.CollectorNumber, m.Illustrator} {
		if !f.Valid() {
			return false
		}
	}
	return m.Set.Valid()
}

// ToAudit flattens the metadata into the storage-friendly OCRAudit shape
// the aggregator always persists, regardless of verification status.
func (m *CardMetadata) ToAudit(extractedAt time.Time) OCRAudit {
	setValue := m.Set.Value
	if setValue == nil {
		setValue = m.Set.FirstCandidateValue()
	}
	return OCRAudit{
		Name:              FieldAudit{Value: m.Name.Value, Confidence: m.Name.Confidence, Rationale: m.Name.Rationale},
		Set:               FieldAudit{Value: setValue, Confidence: m.Set.Confidence, Rationale: m.Set.Rationale},
		Rarity:            FieldAudit{Value: m.Rarity.Value, Confidence: m.Rarity.Confidence, Rationale: m.Rarity.Rationale},
		CollectorNumber:   FieldAudit{Value: m.CollectorNumber.Value, Confidence: m.CollectorNumber.Confidence, Rationale: m.CollectorNumber.Rationale},
		Illustrator:       FieldAudit{Value: m.Illustrator.Value, Confidence: m.Illustrator.Confidence, Rationale: m.Illustrator.Rationale},
		OverallConfidence: m.OverallConfidence,
		ReasoningTrail:    m.ReasoningTrail,
		VerifiedByAI:      m.VerifiedByAI,
		ExtractedAt:       extractedAt,
	}
}
