package authenticity

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"
	"time"

	"github.com/jayvicsanantonio/collect-iq-sub000/internal/cardmodel"
	"github.com/jayvicsanantonio/collect-iq-sub000/internal/llm"
	"github.com/jayvicsanantonio/collect-iq-sub000/internal/resilience"
)

// Config holds the model-call tunables named in spec.md §6.
type Config struct {
	Temperature      float32
	MaxTokens        int32
	MaxRetries       int
	ReferenceDefault float64
}

// Scorer runs the Authenticity Scorer stage.
type Scorer struct {
	client  llm.Client
	refs    ReferenceStore
	cfg     Config
}

// NewScorer wires the model client, reference store, and configuration.
func NewScorer(client llm.Client, refs ReferenceStore, cfg Config) *Scorer {
	return &Scorer{client: client, refs: refs, cfg: cfg}
}

var holoRarityKeywords = []string{"holo", "ultra rare", "secret rare", "rainbow rare", "full art", "vmax", "vstar", "ex", "gx"}

func expectedHolo(rarity string) bool {
	lower := strings.ToLower(rarity)
	for _, k := range holoRarityKeywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// Score runs the phash, five signals, and the final LLM judgment (with
// its weighted-average fallback) per spec.md §4.4.
func (s *Scorer) Score(ctx context.Context, rawImage []byte, envelope *cardmodel.FeatureEnvelope, meta *cardmodel.CardMetadata) (*cardmodel.AuthenticityResult, error) {
	img, _, err := image.Decode(bytes.NewReader(rawImage))
	if err != nil {
		return nil, cardmodel.NewError(cardmodel.KindExtractionFailed, "could not decode image for authenticity scoring", err)
	}
	hash := PerceptualHash(img)

	cardName := ""
	if meta.Name.Value != nil {
		cardName = *meta.Name.Value
	}
	rarity := ""
	if meta.Rarity.Value != nil {
		rarity = *meta.Rarity.Value
	}

	signals := cardmodel.AuthenticitySignals{
		VisualHash:        VisualHashConfidence(ctx, s.refs, cardName, hash, s.cfg.ReferenceDefault),
		TextMatch:         TextMatchConfidence(envelope, cardName),
		HoloPattern:       HolographicPatternConfidence(envelope.HolographicVariance, expectedHolo(rarity)),
		BorderConsistency: BorderConsistencyConfidence(envelope.Border),
		FontValidation:    FontValidationConfidence(envelope.Font),
	}

	result, err := s.judge(ctx, cardName, rarity, signals)
	if err != nil {
		return fallbackResult(signals), nil
	}
	return result, nil
}

// baseRetryInterval is the ordinary backoff base for the final-judgment
// call; rateLimitRetryInterval is the more aggressive base spec.md §4.4
// requires once a rate-limit rejection is observed.
const (
	baseRetryInterval      = 2 * time.Second
	rateLimitRetryInterval = 4 * time.Second
	maxRetryInterval       = 30 * time.Second
	retryMultiplier        = 2.0
)

func (s *Scorer) judge(ctx context.Context, cardName, rarity string, signals cardmodel.AuthenticitySignals) (*cardmodel.AuthenticityResult, error) {
	prompt := buildJudgmentPrompt(cardName, rarity, signals)

	var judgment struct {
		AuthenticityScore float64 `json:"authenticityScore"`
		FakeDetected      bool    `json:"fakeDetected"`
		Rationale         string  `json:"rationale"`
	}

	interval := baseRetryInterval
	var lastErr error
	for attempt := 0; attempt <= s.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(interval):
			}
			interval = time.Duration(float64(interval) * retryMultiplier)
			if interval > maxRetryInterval {
				interval = maxRetryInterval
			}
		}

		resp, genErr := s.client.Generate(ctx, llm.Request{Prompt: prompt, Temperature: s.cfg.Temperature, MaxOutputTokens: s.cfg.MaxTokens})
		if genErr != nil {
			lastErr = genErr
			// A rate-limit rejection escalates the next wait to at least the
			// more aggressive 4s base; doubling continues from there.
			if rl, ok := genErr.(resilience.RateLimited); ok && rl.RateLimited() && interval < rateLimitRetryInterval {
				interval = rateLimitRetryInterval
			}
			if r, ok := genErr.(resilience.Retryable); ok && !r.Retryable() {
				break
			}
			continue
		}

		if jerr := llm.ExtractJSON(resp.Text, &judgment); jerr != nil {
			lastErr = jerr
			continue
		}
		if judgment.AuthenticityScore < 0 || judgment.AuthenticityScore > 1 {
			lastErr = fmt.Errorf("authenticity score out of range")
			continue
		}

		return &cardmodel.AuthenticityResult{
			AuthenticityScore: judgment.AuthenticityScore,
			FakeDetected:      judgment.FakeDetected,
			Rationale:         judgment.Rationale,
			Signals:           signals,
			VerifiedByAI:      true,
		}, nil
	}

	return nil, lastErr
}

// fallbackResult computes the weighted-average score spec.md §4.4
// specifies when the model call is exhausted.
func fallbackResult(signals cardmodel.AuthenticitySignals) *cardmodel.AuthenticityResult {
	score := 0.30*signals.VisualHash + 0.25*signals.TextMatch + 0.20*signals.HoloPattern +
		0.15*signals.BorderConsistency + 0.10*signals.FontValidation

	return &cardmodel.AuthenticityResult{
		AuthenticityScore: score,
		FakeDetected:      score <= 0.50,
		Rationale:         "AI analysis unavailable. Manual review recommended.",
		Signals:           signals,
		VerifiedByAI:      false,
	}
}

func buildJudgmentPrompt(cardName, rarity string, signals cardmodel.AuthenticitySignals) string {
	return fmt.Sprintf(
		"Judge the authenticity of card %q (rarity %q) from these signals: visualHash=%.3f, textMatch=%.3f, holoPattern=%.3f, borderConsistency=%.3f, fontValidation=%.3f. "+
			`Return ONLY JSON: {"authenticityScore":number,"fakeDetected":bool,"rationale":string}`,
		cardName, rarity, signals.VisualHash, signals.TextMatch, signals.HoloPattern, signals.BorderConsistency, signals.FontValidation,
	)
}
