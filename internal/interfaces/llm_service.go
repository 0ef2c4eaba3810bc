package interfaces

import (
	"context"
	"errors"
)

// ErrGroundingUnsupported is returned by providers that cannot perform
// search-grounded generation.
var ErrGroundingUnsupported = errors.New("search grounding is not supported by this provider")

// LLMService defines the interface for generative model operations.
// Discovery requires grounded generation; prompt execution (specs table,
// table-to-JSON conversion, translation) uses plain generation and works
// with any provider.
type LLMService interface {
	// GenerateGrounded runs a prompt with web-search grounding enabled.
	// model may be empty to use the provider's configured default.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout control
	//   - model: Model identifier override, or "" for the configured default
	//   - prompt: Prompt text
	//
	// Returns:
	//   - string: Generated response text
	//   - error: Error if generation fails or grounding is unsupported
	GenerateGrounded(ctx context.Context, model, prompt string) (string, error)

	// Generate runs a plain prompt at the given temperature.
	Generate(ctx context.Context, model, prompt string, temperature float32) (string, error)

	// HealthCheck verifies the provider is operational and can handle requests.
	HealthCheck(ctx context.Context) error

	// Close releases resources and performs cleanup operations.
	Close() error
}
