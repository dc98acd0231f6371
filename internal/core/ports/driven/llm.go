package driven

import "context"

// LLMService provides language model operations for tag extraction and
// the query pipeline. This is an optional service - when nil, extraction
// falls back to the local vocabulary matcher and the query pipeline
// degrades to score-ordered lexical retrieval.
//
// Implementations may include:
//   - Gemini (hosted, with model and API version fallback)
//   - Ollama (local models)
type LLMService interface {
	// Generate produces text completion from a prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// GenerateVision produces text from a prompt plus an inline image,
	// used to read image-only documents. Implementations without vision
	// support return an error.
	GenerateVision(ctx context.Context, prompt string, image []byte, imageMIME string, opts GenerateOptions) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64
}
