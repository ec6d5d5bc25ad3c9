package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// MistralClient is a second Client implementation; nothing in this module
// switches to it automatically when Gemini fails. It generalizes the
// teacher's MistralProvider (plain
// net/http.Client posting a base64 data URL) to structured JSON output
// instead of OCR markdown.
type MistralClient struct {
	apiKey    string
	modelName string
	client    *http.Client
}

// NewMistralClient builds a client against the Mistral chat completions API.
func NewMistralClient(apiKey, modelName string) *MistralClient {
	return &MistralClient{
		apiKey:    apiKey,
		modelName: modelName,
		client:    &http.Client{Timeout: 60 * time.Second},
	}
}

// Name reports the provider name.
func (m *MistralClient) Name() string { return "mistral" }

type mistralContentPart struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

type mistralMessage struct {
	Role    string               `json:"role"`
	Content []mistralContentPart `json:"content"`
}

type mistralChatRequest struct {
	Model          string            `json:"model"`
	Messages       []mistralMessage  `json:"messages"`
	Temperature    float32           `json:"temperature,omitempty"`
	MaxTokens      int32             `json:"max_tokens,omitempty"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

type mistralChoice struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
}

type mistralChatResponse struct {
	Choices []mistralChoice `json:"choices"`
	Usage   struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Generate posts a chat-completion request with the image inlined as a
// base64 data URL, matching the teacher's inline-data-URL convention.
func (m *MistralClient) Generate(ctx context.Context, req Request) (*Response, error) {
	parts := []mistralContentPart{{Type: "text", Text: req.Prompt}}
	if len(req.ImageData) > 0 {
		dataURL := fmt.Sprintf("data:%s;base64,%s", req.ImageMIMEType, base64.StdEncoding.EncodeToString(req.ImageData))
		parts = append(parts, mistralContentPart{Type: "image_url", ImageURL: dataURL})
	}

	reqBody := mistralChatRequest{
		Model:          m.modelName,
		Messages:       []mistralMessage{{Role: "user", Content: parts}},
		Temperature:    req.Temperature,
		MaxTokens:      req.MaxOutputTokens,
		ResponseFormat: map[string]string{"type": "json_object"},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal mistral request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		"https://api.mistral.ai/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build mistral request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call mistral api: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read mistral response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mistral api returned %d: %s", resp.StatusCode, string(body))
	}

	var parsed mistralChatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal mistral response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("empty choices from mistral")
	}

	return &Response{
		Text:         parsed.Choices[0].Message.Content,
		InputTokens:  parsed.Usage.PromptTokens,
		OutputTokens: parsed.Usage.CompletionTokens,
	}, nil
}
