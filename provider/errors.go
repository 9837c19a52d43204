package provider

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/ollama/ollama/api"
	"github.com/openai/openai-go/v3"
)

// APIError is an HTTP-level failure reported by a provider's API.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s API error (%d): %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s API error (%d): %v", e.Provider, e.StatusCode, e.Err)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Unauthorized reports whether the API rejected the credentials.
func (e *APIError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// IsUnauthorized reports whether err carries an authentication failure.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Unauthorized()
}

// wrapError converts SDK error types into *APIError so callers do not need
// to import the SDKs. Other errors are wrapped with the provider name.
func wrapError(providerName string, err error) error {
	if err == nil {
		return nil
	}

	var openaiErr *openai.Error
	if errors.As(err, &openaiErr) {
		return &APIError{
			Provider:   providerName,
			StatusCode: openaiErr.StatusCode,
			Message:    openaiErr.Message,
			Err:        err,
		}
	}

	var anthropicErr *anthropic.Error
	if errors.As(err, &anthropicErr) {
		return &APIError{
			Provider:   providerName,
			StatusCode: anthropicErr.StatusCode,
			Err:        err,
		}
	}

	var ollamaErr api.StatusError
	if errors.As(err, &ollamaErr) {
		return &APIError{
			Provider:   providerName,
			StatusCode: ollamaErr.StatusCode,
			Message:    ollamaErr.ErrorMessage,
			Err:        err,
		}
	}

	return fmt.Errorf("%s streaming error: %w", providerName, err)
}
