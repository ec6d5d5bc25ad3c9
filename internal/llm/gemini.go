package llm

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiClient wraps google/generative-ai-go, matching the teacher's
// gemini.go pattern of a per-call client/model pair rather than a
// long-lived handle, since genai.Client is cheap to construct and the
// teacher's code dials a fresh one on every OCR request.
type GeminiClient struct {
	apiKey string
	model  string
}

// NewGeminiClient builds a client for the named Gemini model.
func NewGeminiClient(apiKey, model string) *GeminiClient {
	return &GeminiClient{apiKey: apiKey, model: model}
}

// Name reports the provider name, matching OCRProvider.GetProviderName in spirit.
func (g *GeminiClient) Name() string { return "gemini" }

// Generate issues one multimodal call, returning the first text part of
// the response.
func (g *GeminiClient) Generate(ctx context.Context, req Request) (*Response, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(g.apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(g.model)
	model.ResponseMIMEType = "application/json"
	if schema, ok := req.JSONSchema.(*genai.Schema); ok && schema != nil {
		model.ResponseSchema = schema
	}
	if req.Temperature > 0 {
		model.SetTemperature(req.Temperature)
	}
	if req.MaxOutputTokens > 0 {
		model.SetMaxOutputTokens(req.MaxOutputTokens)
	}

	parts := []genai.Part{genai.Text(req.Prompt)}
	if len(req.ImageData) > 0 {
		parts = append(parts, genai.Blob{MIMEType: req.ImageMIMEType, Data: req.ImageData})
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, categorizeGeminiError(err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty response from gemini")
	}

	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text = string(t)
			break
		}
	}
	if text == "" {
		return nil, fmt.Errorf("no text part in gemini response")
	}

	out := &Response{Text: text}
	if resp.UsageMetadata != nil {
		out.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		out.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return out, nil
}
