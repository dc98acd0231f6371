// Package gemini provides an LLM service adapter for the Gemini API.
//
// A single adapter instance is pinned to one (model, API version) pair.
// Cross-model and cross-version fallback is composed in the ai package,
// which chains several instances.
package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/custodia-labs/voltdex/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "https://generativelanguage.googleapis.com"
	DefaultModel      = "gemini-2.0-flash"
	DefaultAPIVersion = "v1beta"
	DefaultTimeout    = 120 * time.Second
)

// Config holds configuration for the Gemini LLM service.
type Config struct {
	// APIKey authenticates requests. Required.
	APIKey string

	// Model is the Gemini model name (default: gemini-2.0-flash).
	Model string

	// APIVersion is the REST API version path segment, v1beta or v1.
	APIVersion string

	// BaseURL overrides the API endpoint. Used in tests.
	BaseURL string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// LLMService provides LLM operations using one Gemini model on one API
// version.
type LLMService struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	model      string
	apiVersion string
}

// generateContent request/response shapes, reduced to the fields used.
type generateContentRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *apiError `json:"error"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// NewLLMService creates a new Gemini LLM service.
func NewLLMService(cfg Config) *LLMService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &LLMService{
		client:     &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		apiVersion: cfg.APIVersion,
	}
}

// Generate produces text completion from a prompt.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	return s.generateContent(ctx, []part{{Text: prompt}}, opts)
}

// GenerateVision produces text from a prompt plus an inline document or
// image, base64-encoded into the request.
func (s *LLMService) GenerateVision(ctx context.Context, prompt string, image []byte, imageMIME string, opts driven.GenerateOptions) (string, error) {
	parts := []part{
		{Text: prompt},
		{InlineData: &inlineData{
			MIMEType: imageMIME,
			Data:     base64.StdEncoding.EncodeToString(image),
		}},
	}
	return s.generateContent(ctx, parts, opts)
}

func (s *LLMService) generateContent(ctx context.Context, parts []part, opts driven.GenerateOptions) (string, error) {
	reqBody := generateContentRequest{
		Contents: []content{{Parts: parts}},
		GenerationConfig: &generationConfig{
			Temperature:     opts.Temperature,
			MaxOutputTokens: opts.MaxTokens,
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/models/%s:generateContent", s.baseURL, s.apiVersion, s.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini %s/%s error (status %d): %s",
			s.apiVersion, s.model, resp.StatusCode, string(body))
	}

	var genResp generateContentResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if genResp.Error != nil {
		return "", fmt.Errorf("gemini %s/%s error: %s", s.apiVersion, s.model, genResp.Error.Message)
	}
	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini %s/%s returned no candidates", s.apiVersion, s.model)
	}

	return genResp.Candidates[0].Content.Parts[0].Text, nil
}

// ModelName returns the model and API version this instance is pinned to.
func (s *LLMService) ModelName() string {
	return s.model + "@" + s.apiVersion
}

// Close releases resources.
func (s *LLMService) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
