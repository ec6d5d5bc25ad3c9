package extractor

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jayvicsanantonio/collect-iq-sub000/internal/cardmodel"
	"github.com/jayvicsanantonio/collect-iq-sub000/internal/llm"
)

// GeminiModerator implements Moderator atop an llm.Client, generalizing
// the teacher's single-purpose "send the image, parse structured JSON
// back" call shape from receipt fields to content-safety and
// card-evidence classification.
type GeminiModerator struct {
	client llm.Client
}

// NewGeminiModerator wires a vision-capable llm.Client for moderation calls.
func NewGeminiModerator(client llm.Client) *GeminiModerator {
	return &GeminiModerator{client: client}
}

func (g *GeminiModerator) Classify(ctx context.Context, imageData []byte) ([]ModerationLabel, error) {
	var out struct {
		Labels []ModerationLabel `json:"labels"`
	}
	req := llm.Request{
		Prompt: `Classify this image's content safety. Return ONLY JSON: {"labels":[{"name":string,"confidence":number}]}. ` +
			"Use lowercase category names such as explicit nudity, suggestive, violence, disturbing, rude gestures, drugs, tobacco, alcohol, gambling, hate symbols.",
		ImageData:     imageData,
		ImageMIMEType: detectMIMEType(imageData),
	}
	resp, err := g.client.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := llm.ExtractJSON(resp.Text, &out); err != nil {
		return nil, fmt.Errorf("parse moderation response: %w", err)
	}
	return out.Labels, nil
}

func (g *GeminiModerator) DetectCardEvidence(ctx context.Context, imageData []byte) (bool, error) {
	var out struct {
		HasCard bool `json:"hasCard"`
	}
	req := llm.Request{
		Prompt: `Does this image show a physical trading card (front or back), as opposed to an unrelated photo? ` +
			`Return ONLY JSON: {"hasCard":bool}`,
		ImageData:     imageData,
		ImageMIMEType: detectMIMEType(imageData),
	}
	resp, err := g.client.Generate(ctx, req)
	if err != nil {
		return false, err
	}
	if err := llm.ExtractJSON(resp.Text, &out); err != nil {
		return false, fmt.Errorf("parse card-evidence response: %w", err)
	}
	return out.HasCard, nil
}

// GeminiOCREngine implements OCREngine atop an llm.Client, asking the
// model to return OCR blocks already shaped as cardmodel.OCRBlock JSON
// rather than running a separate OCR SDK, matching the teacher's habit
// of using Gemini itself as the OCR engine (root gemini.go) instead of
// a dedicated text-detection service.
type GeminiOCREngine struct {
	client llm.Client
}

// NewGeminiOCREngine wires a vision-capable llm.Client for OCR calls.
func NewGeminiOCREngine(client llm.Client) *GeminiOCREngine {
	return &GeminiOCREngine{client: client}
}

func (g *GeminiOCREngine) DetectText(ctx context.Context, imageData []byte) ([]cardmodel.OCRBlock, error) {
	var out struct {
		Blocks []cardmodel.OCRBlock `json:"blocks"`
	}
	req := llm.Request{
		Prompt: `Detect every line of text on this trading card image. For each, report its text, your confidence in [0,1], ` +
			`its bounding box as fractions of the image (top,left,width,height in [0,1]), and type "LINE" or "WORD". ` +
			`Return ONLY JSON: {"blocks":[{"text":string,"confidence":number,"box":{"top":number,"left":number,"width":number,"height":number},"type":string}]}`,
		ImageData:     imageData,
		ImageMIMEType: detectMIMEType(imageData),
	}
	resp, err := g.client.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := llm.ExtractJSON(resp.Text, &out); err != nil {
		return nil, fmt.Errorf("parse OCR block response: %w", err)
	}
	return out.Blocks, nil
}

func detectMIMEType(data []byte) string {
	if len(data) == 0 {
		return "image/jpeg"
	}
	return http.DetectContentType(data)
}
