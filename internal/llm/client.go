// Package llm abstracts the multimodal language-model providers used
// by the OCR Reasoner and Authenticity Scorer, generalizing the
// teacher's internal/ai.OCRProvider interface (a single ProcessPureOCR
// method per provider) into a provider-agnostic Client that any stage
// needing structured JSON output from an image-plus-prompt call depends
// on.
package llm

import "context"

// Request is one multimodal generation call: a text prompt plus an
// optional image to reason over.
type Request struct {
	Prompt          string
	ImageData       []byte
	ImageMIMEType   string
	Temperature     float32
	MaxOutputTokens int32
	JSONSchema      any // provider-native schema (e.g. *genai.Schema), optional
}

// Response is the raw text returned by the provider, expected to be a
// JSON document (bare or fenced) per spec.md's stage-local parsing rules.
type Response struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

// Client is implemented by each provider (Gemini, Mistral, and a fake
// for tests), matching the teacher's OCRProvider shape but generalized
// beyond pure OCR to any structured-output prompt.
type Client interface {
	Generate(ctx context.Context, req Request) (*Response, error)
	Name() string
}
