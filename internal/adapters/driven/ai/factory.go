package ai

import (
	"time"

	geminiembed "github.com/custodia-labs/voltdex/internal/adapters/driven/embedding/gemini"
	ollamaembed "github.com/custodia-labs/voltdex/internal/adapters/driven/embedding/ollama"
	geminillm "github.com/custodia-labs/voltdex/internal/adapters/driven/llm/gemini"
	ollamallm "github.com/custodia-labs/voltdex/internal/adapters/driven/llm/ollama"
	"github.com/custodia-labs/voltdex/internal/core/ports/driven"
	"github.com/custodia-labs/voltdex/internal/logger"
)

// apiVersions is the Gemini API version preference order: v1beta first,
// because the newest models are only served there.
var apiVersions = []string{"v1beta", "v1"}

// Settings selects and orders the AI providers.
type Settings struct {
	// GeminiAPIKey enables the Gemini providers when non-empty.
	GeminiAPIKey string

	// GeminiModels is the generation model preference order.
	GeminiModels []string

	// GeminiEmbedModels is the embedding model preference order.
	GeminiEmbedModels []string

	// OllamaBaseURL enables the local Ollama fallback when non-empty.
	OllamaBaseURL string

	// OllamaModel is the Ollama generation model.
	OllamaModel string

	// OllamaEmbedModel is the Ollama embedding model.
	OllamaEmbedModel string

	// Timeout applies to every provider request.
	Timeout time.Duration
}

// DefaultSettings returns the provider order used when configuration
// does not say otherwise.
func DefaultSettings() Settings {
	return Settings{
		GeminiModels:      []string{"gemini-2.0-flash", "gemini-1.5-flash"},
		GeminiEmbedModels: []string{"text-embedding-004"},
		OllamaModel:       ollamallm.DefaultLLMModel,
		OllamaEmbedModel:  ollamaembed.DefaultModel,
	}
}

// CreateLLMService builds the LLM fallback chain: every configured
// Gemini model on every API version, then Ollama. Returns nil when
// nothing is configured; callers degrade to local heuristics.
func CreateLLMService(cfg Settings) driven.LLMService {
	var services []driven.LLMService

	if cfg.GeminiAPIKey != "" {
		models := cfg.GeminiModels
		if len(models) == 0 {
			models = DefaultSettings().GeminiModels
		}
		for _, model := range models {
			for _, version := range apiVersions {
				services = append(services, geminillm.NewLLMService(geminillm.Config{
					APIKey:     cfg.GeminiAPIKey,
					Model:      model,
					APIVersion: version,
					Timeout:    cfg.Timeout,
				}))
			}
		}
	}

	if cfg.OllamaBaseURL != "" {
		services = append(services, ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: cfg.OllamaBaseURL,
			Model:   cfg.OllamaModel,
			Timeout: cfg.Timeout,
		}))
	}

	if len(services) == 0 {
		logger.Info("No LLM provider configured, running with local heuristics only")
		return nil
	}
	return NewFallbackLLM(services...)
}

// CreateEmbeddingService builds the embedding fallback chain in the
// same provider order. Returns nil when nothing is configured; callers
// degrade to lexical-only search.
func CreateEmbeddingService(cfg Settings) driven.EmbeddingService {
	var services []driven.EmbeddingService

	if cfg.GeminiAPIKey != "" {
		models := cfg.GeminiEmbedModels
		if len(models) == 0 {
			models = DefaultSettings().GeminiEmbedModels
		}
		for _, model := range models {
			for _, version := range apiVersions {
				services = append(services, geminiembed.NewEmbeddingService(geminiembed.Config{
					APIKey:     cfg.GeminiAPIKey,
					Model:      model,
					APIVersion: version,
					Timeout:    cfg.Timeout,
				}))
			}
		}
	}

	if cfg.OllamaBaseURL != "" {
		services = append(services, ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL: cfg.OllamaBaseURL,
			Model:   cfg.OllamaEmbedModel,
			Timeout: cfg.Timeout,
		}))
	}

	if len(services) == 0 {
		logger.Info("No embedding provider configured, search will be lexical-only")
		return nil
	}
	return NewFallbackEmbedder(services...)
}
