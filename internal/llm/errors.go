package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/jayvicsanantonio/collect-iq-sub000/internal/cardmodel"
	"google.golang.org/api/googleapi"
)

// categorizedError wraps a cardmodel.Error with a Retryable() method so
// internal/resilience.Do can decide whether to retry, generalizing the
// teacher's GeminiError/categorizeGeminiError (internal/ai/gemini_retry.go)
// to the provider-agnostic taxonomy of cardmodel.ErrorKind. rateLimited
// additionally marks errors that specifically indicate a rate-limit
// rejection, so callers that care (internal/resilience.RateLimited) can
// escalate to a more aggressive backoff base than an ordinary transient
// failure.
type categorizedError struct {
	*cardmodel.Error
	retryable   bool
	rateLimited bool
}

func (e *categorizedError) Retryable() bool    { return e.retryable }
func (e *categorizedError) RateLimited() bool { return e.rateLimited }

// categorizeGeminiError classifies a genai/googleapi error into the
// closed ErrorKind taxonomy (spec.md §7), mirroring the teacher's
// status-code and message-substring categorization.
func categorizeGeminiError(err error) error {
	if err == nil {
		return nil
	}

	if apiErr, ok := err.(*googleapi.Error); ok {
		switch {
		case apiErr.Code == 400 || apiErr.Code == 401 || apiErr.Code == 403 || apiErr.Code == 404 || apiErr.Code == 413:
			return &categorizedError{
				Error:     cardmodel.NewError(cardmodel.KindInvalidInput, fmt.Sprintf("gemini request rejected: %s", apiErr.Message), err),
				retryable: false,
			}
		case apiErr.Code == 429:
			return &categorizedError{
				Error:       cardmodel.NewError(cardmodel.KindSourceUnavailable, fmt.Sprintf("gemini rate limited: %s", apiErr.Message), err),
				retryable:   true,
				rateLimited: true,
			}
		case apiErr.Code >= 500:
			return &categorizedError{
				Error:     cardmodel.NewError(cardmodel.KindSourceUnavailable, fmt.Sprintf("gemini unavailable: %s", apiErr.Message), err),
				retryable: true,
			}
		default:
			return &categorizedError{
				Error:     cardmodel.NewError(cardmodel.KindSourceUnavailable, fmt.Sprintf("gemini api error: %s", apiErr.Message), err),
				retryable: apiErr.Code >= 500,
			}
		}
	}

	if err == context.DeadlineExceeded {
		return &categorizedError{Error: cardmodel.NewError(cardmodel.KindSourceUnavailable, "gemini request timed out", err), retryable: true}
	}
	if err == context.Canceled {
		return &categorizedError{Error: cardmodel.NewError(cardmodel.KindSourceUnavailable, "gemini request canceled", err), retryable: false}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "quota") || strings.Contains(msg, "limit"):
		return &categorizedError{Error: cardmodel.NewError(cardmodel.KindSourceUnavailable, "gemini quota exceeded", err), retryable: true, rateLimited: true}
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline"):
		return &categorizedError{Error: cardmodel.NewError(cardmodel.KindSourceUnavailable, "gemini timeout", err), retryable: true}
	case strings.Contains(msg, "connection") || strings.Contains(msg, "network"):
		return &categorizedError{Error: cardmodel.NewError(cardmodel.KindSourceUnavailable, "gemini network error", err), retryable: true}
	}

	return &categorizedError{Error: cardmodel.NewError(cardmodel.KindSchemaViolation, "unrecognized gemini error", err), retryable: false}
}
