package cardmodel

// AuthenticityResult is the Authenticity Scorer's output.
type AuthenticityResult struct {
	AuthenticityScore float64
	FakeDetected      bool
	Rationale         string
	Signals           AuthenticitySignals
	VerifiedByAI      bool
}

// Valid reports whether the authenticity score and every signal fall
// within [0,1].
func (a *AuthenticityResult) Valid() bool {
	if a.AuthenticityScore < 0 || a.AuthenticityScore > 1 {
		return false
	}
	for _, s := range []float64{
		a.Signals.VisualHash, a.Signals.TextMatch, a.Signals.HoloPattern,
		a.Signals.BorderConsistency, a.Signals.FontValidation,
	} {
		if s < 0 || s > 1 {
			return false
		}
	}
	return true
}

// ReferenceHash is one stored authentic-sample hash for a card name.
type ReferenceHash struct {
	CardName string `json:"cardName"`
	Hash     string `json:"hash"`
	Variant  string `json:"variant,omitempty"`
	Set      string `json:"set,omitempty"`
}
