package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON strips a ```json fenced code block if present and
// unmarshals the remainder into v. Both the OCR Reasoner and
// Authenticity Scorer prompt models for raw JSON but must tolerate
// markdown fencing, which providers add inconsistently.
func ExtractJSON(text string, v any) error {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(trimmed, "```")
		trimmed = strings.TrimSpace(trimmed)
	}
	if trimmed == "" {
		return fmt.Errorf("empty model output")
	}
	if err := json.Unmarshal([]byte(trimmed), v); err != nil {
		return fmt.Errorf("parse model json: %w", err)
	}
	return nil
}
