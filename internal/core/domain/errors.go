package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or missing input parameters.
	// This is the only error class that reaches the caller without any
	// state having been mutated.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSourceUnavailable indicates the document bytes could not be
	// fetched from the external source.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrNoExtractableText indicates every extraction strategy yielded
	// text below the minimum length. The document is likely image-only
	// or an unsupported format.
	ErrNoExtractableText = errors.New("no extractable text")

	// ErrNotProcessing indicates a batch or status operation was called
	// for a document with no active ingestion state.
	ErrNotProcessing = errors.New("document is not being processed")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Agents degrade to their deterministic fallbacks.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured. Scoring degrades to lexical-only.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
)
