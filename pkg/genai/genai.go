// Package genai defines the Generator interface for text generation backends.
//
// A generator wraps a hosted large-language-model API and exposes a uniform
// prompt-in, text-out contract so callers never couple to a specific provider.
// Implementations must be safe for concurrent use and must honor context
// cancellation.
package genai

import "context"

// Request carries everything a generation call needs. Prompt must be
// non-empty; zero MaxTokens means provider default.
type Request struct {
	// SystemPrompt is an optional high-priority instruction injected before
	// the user prompt.
	SystemPrompt string

	// Prompt is the user-facing instruction driving the response.
	Prompt string

	// MaxTokens caps the number of completion tokens the model may generate.
	MaxTokens int64

	// Temperature controls output randomness in the range [0.0, 2.0].
	Temperature float64
}

// Generator is the abstraction over any text generation backend.
type Generator interface {
	// Name identifies the backing provider in logs.
	Name() string

	// Generate sends req to the model and waits for the full response text.
	// Returns an error if the request fails, the response carries no choices,
	// or ctx is cancelled before the completion arrives.
	Generate(ctx context.Context, req Request) (string, error)
}
