// Package ocrreasoner implements the OCR Reasoner stage: spatial
// grouping of OCR blocks, prompt construction, the model call with
// retry, schema-validated parsing, and the heuristic fallback path —
// generalizing the teacher's gemini.go prompt/schema/retry pattern from
// receipt-line extraction to card identification.
package ocrreasoner

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jayvicsanantonio/collect-iq-sub000/internal/cardmodel"
	"github.com/jayvicsanantonio/collect-iq-sub000/internal/llm"
	"github.com/jayvicsanantonio/collect-iq-sub000/internal/resilience"
)

// Config holds the model-call tunables named in spec.md §6.
type Config struct {
	Temperature float32
	MaxTokens   int32
	MaxRetries  int
}

// Reasoner interprets a FeatureEnvelope into CardMetadata.
type Reasoner struct {
	client llm.Client
	cfg    Config
}

// NewReasoner wires a model client and its call configuration.
func NewReasoner(client llm.Client, cfg Config) *Reasoner {
	return &Reasoner{client: client, cfg: cfg}
}

// Interpret runs the four-step algorithm of spec.md §4.2, falling back
// to the heuristic result on retry exhaustion or schema violation.
func (r *Reasoner) Interpret(ctx context.Context, envelope *cardmodel.FeatureEnvelope) (*cardmodel.CardMetadata, error) {
	prompt := buildPrompt(envelope)

	policy := resilience.DefaultRetryPolicy(r.cfg.MaxRetries)
	var parsed cardmodel.CardMetadata
	err := resilience.Do(ctx, policy, func(ctx context.Context) error {
		resp, genErr := r.client.Generate(ctx, llm.Request{
			Prompt:          prompt,
			Temperature:     r.cfg.Temperature,
			MaxOutputTokens: r.cfg.MaxTokens,
		})
		if genErr != nil {
			return genErr
		}
		var candidate cardmodel.CardMetadata
		if parseErr := llm.ExtractJSON(resp.Text, &candidate); parseErr != nil {
			return &schemaError{cause: parseErr}
		}
		if !candidate.Valid() {
			return &schemaError{cause: fmt.Errorf("card metadata failed schema validation")}
		}
		parsed = candidate
		return nil
	})

	if err != nil {
		return fallback(envelope), nil
	}

	applyNameGuard(&parsed, envelope)
	return &parsed, nil
}

// schemaError marks a parse/validation failure as non-retryable per
// spec.md §4.2 step 3 ("do not retry on schema-invalid errors").
type schemaError struct{ cause error }

func (e *schemaError) Error() string  { return "schema violation: " + e.cause.Error() }
func (e *schemaError) Unwrap() error  { return e.cause }
func (e *schemaError) Retryable() bool { return false }

// fallback builds the degraded CardMetadata spec.md §4.2 step 5 requires.
func fallback(envelope *cardmodel.FeatureEnvelope) *cardmodel.CardMetadata {
	topBlock, ok := topmostBlock(envelope.OCRBlocks)
	meta := &cardmodel.CardMetadata{
		Rarity:          cardmodel.Field{Rationale: "Fallback: AI reasoning unavailable"},
		CollectorNumber: cardmodel.Field{Rationale: "Fallback: AI reasoning unavailable"},
		Illustrator:     cardmodel.Field{Rationale: "Fallback: AI reasoning unavailable"},
		Set:             cardmodel.SetField{Rationale: "Fallback: AI reasoning unavailable"},
		VerifiedByAI:    false,
	}
	if !ok {
		meta.Name = cardmodel.Field{Rationale: "Fallback: AI reasoning unavailable"}
		return meta
	}
	name := topBlock.Text
	conf := topBlock.Confidence * 0.7
	meta.Name = cardmodel.Field{Value: &name, Confidence: conf, Rationale: "Fallback: AI reasoning unavailable"}
	overall := conf * 0.5
	if overall < 0 {
		overall = 0
	}
	meta.OverallConfidence = overall
	return meta
}

func topmostBlock(blocks []cardmodel.OCRBlock) (cardmodel.OCRBlock, bool) {
	if len(blocks) == 0 {
		return cardmodel.OCRBlock{}, false
	}
	best := blocks[0]
	for _, b := range blocks[1:] {
		if b.Box.Top < best.Box.Top {
			best = b
		}
	}
	return best, true
}

var abilityKeywords = map[string]bool{
	"flip": true, "coin": true, "heads": true, "tails": true, "damage": true,
	"attack": true, "energy": true, "deck": true, "discard": true, "draw": true,
	"search": true, "your": true, "opponent": true,
}

// applyNameGuard is the anti-regression guard from spec.md §4.2: it
// never invents a name, only replaces a clearly-wrong model answer with
// a better OCR-derived candidate.
func applyNameGuard(meta *cardmodel.CardMetadata, envelope *cardmodel.FeatureEnvelope) {
	if meta.Name.Value != nil && nameLooksPlausible(*meta.Name.Value) {
		return
	}

	var candidates []cardmodel.OCRBlock
	for _, b := range envelope.OCRBlocks {
		if b.Box.Top >= 0.40 {
			continue
		}
		words := strings.Fields(b.Text)
		if len(words) < 1 || len(words) > 4 || len(b.Text) > 30 {
			continue
		}
		if containsAbilityKeyword(b.Text) {
			continue
		}
		candidates = append(candidates, b)
	}
	if len(candidates) == 0 {
		return
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Box.Top != b.Box.Top {
			return a.Box.Top < b.Box.Top
		}
		aSize := a.Box.Width * a.Box.Height
		bSize := b.Box.Width * b.Box.Height
		if aSize != bSize {
			return aSize > bSize
		}
		return a.Confidence > b.Confidence
	})

	best := candidates[0]
	meta.Name = cardmodel.Field{Value: &best.Text, Confidence: best.Confidence, Rationale: "heuristic name guard"}
}

func containsAbilityKeyword(text string) bool {
	for _, w := range strings.Fields(strings.ToLower(text)) {
		if abilityKeywords[strings.Trim(w, ".,!?")] {
			return true
		}
	}
	return false
}

func nameLooksPlausible(name string) bool {
	if name == "" {
		return false
	}
	words := strings.Fields(name)
	return len(words) >= 1 && len(words) <= 6 && len(name) <= 60
}
