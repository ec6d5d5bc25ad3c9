package extractor

import (
	"context"

	"github.com/jayvicsanantonio/collect-iq-sub000/internal/cardmodel"
)

// FakeModerator returns canned moderation results, for tests and local
// development without a live classifier.
type FakeModerator struct {
	Labels       []ModerationLabel
	HasCard      bool
	ClassifyErr  error
	DetectErr    error
}

func (f *FakeModerator) Classify(ctx context.Context, imageData []byte) ([]ModerationLabel, error) {
	return f.Labels, f.ClassifyErr
}

func (f *FakeModerator) DetectCardEvidence(ctx context.Context, imageData []byte) (bool, error) {
	return f.HasCard, f.DetectErr
}

// FakeOCREngine returns a canned set of OCR blocks.
type FakeOCREngine struct {
	Blocks []cardmodel.OCRBlock
	Err    error
}

func (f *FakeOCREngine) DetectText(ctx context.Context, imageData []byte) ([]cardmodel.OCRBlock, error) {
	return f.Blocks, f.Err
}
