// Package translator provides batch translation adapters over external
// providers. Each adapter hides its provider's request/response shapes behind
// a single operation: translate a batch of strings from a source to a target
// locale, returning results in the same order and count as the input.
package translator

import (
	"context"
	"fmt"

	"github.com/valpere/ftltran/locale"
)

// Translator is the uniform surface over a translation provider.
type Translator interface {
	// Name identifies the provider, e.g. "google" or "openai".
	Name() string

	// TranslateBatch translates texts from source to target. The returned
	// slice has the same length and order as texts. Empty or
	// whitespace-only inputs are passed through unchanged without a
	// provider call.
	TranslateBatch(ctx context.Context, texts []string, source, target locale.Locale) ([]string, error)

	// Close releases provider resources. Safe to call once after use.
	Close() error
}

// ProviderError reports a network failure, a non-OK HTTP status, or a
// provider-reported error. It is retryable.
type ProviderError struct {
	Provider   string
	StatusCode int // 0 when the failure happened before a response
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// FormatError reports an LLM response whose shape does not match the
// request, most commonly a translation count differing from the input count.
// It is retryable: a second attempt frequently yields a well-formed answer.
type FormatError struct {
	Provider string
	Want     int
	Got      int
	Detail   string
}

func (e *FormatError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: malformed response: %s", e.Provider, e.Detail)
	}
	return fmt.Sprintf("%s: expected %d translations, got %d", e.Provider, e.Want, e.Got)
}
