package authenticity

import (
	"testing"

	"github.com/jayvicsanantonio/collect-iq-sub000/internal/cardmodel"
)

func TestHolographicPatternConfidenceNotExpected(t *testing.T) {
	if got := HolographicPatternConfidence(0.1, false); got != 1.0 {
		t.Fatalf("got %v, want 1.0", got)
	}
	if got := HolographicPatternConfidence(0.5, false); got != 0.3 {
		t.Fatalf("got %v, want 0.3", got)
	}
}

func TestHolographicPatternConfidenceExpectedInRange(t *testing.T) {
	got := HolographicPatternConfidence(0.6, true)
	if got != 1.0 {
		t.Fatalf("got %v, want 1.0 at variance == expected midpoint", got)
	}
}

func TestBorderConsistencyConfidence(t *testing.T) {
	border := cardmodel.BorderMetrics{TopRatio: 0.15, BottomRatio: 0.15, LeftRatio: 0.15, RightRatio: 0.15, SymmetryScore: 1.0}
	got := BorderConsistencyConfidence(border)
	if got < 0.9 {
		t.Fatalf("expected high confidence for perfectly symmetric borders, got %v", got)
	}
}

func TestPerceptualHashAndHammingDistance(t *testing.T) {
	if d := HammingDistance("0000000000000000", "0000000000000000"); d != 0 {
		t.Fatalf("identical hashes should have 0 distance, got %d", d)
	}
	if d := HammingDistance("0000000000000000", "ffffffffffffffff"); d != 64 {
		t.Fatalf("fully inverted hashes should have distance 64, got %d", d)
	}
}

func TestFallbackResultFakeDetectedThreshold(t *testing.T) {
	signals := cardmodel.AuthenticitySignals{VisualHash: 0.2, TextMatch: 0.2, HoloPattern: 0.2, BorderConsistency: 0.2, FontValidation: 0.2}
	result := fallbackResult(signals)
	if !result.FakeDetected {
		t.Fatal("expected fakeDetected for low score")
	}
	if result.VerifiedByAI {
		t.Fatal("fallback result must not be marked verified")
	}
}
