// Package httpembed provides an embedding provider backed by a
// Cohere-shaped embeddings HTTP endpoint, client-side rate-limited.
// It sends the usual texts/model/input_type/embedding_types request shape
// and accepts either Cohere response format (a dict keyed by "float", or
// a bare list of vectors), classifying failures as rate-limited or
// provider-unavailable depending on status code.
package httpembed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/vectordb/internal/core/domain"
	"github.com/custodia-labs/vectordb/internal/core/ports/driven"
)

var _ driven.EmbeddingProvider = (*Provider)(nil)

const (
	// DefaultBaseURL is the Cohere-shaped embeddings API root.
	DefaultBaseURL = "https://api.cohere.ai/v1"

	// DefaultModel is the default embedding model name.
	DefaultModel = "embed-english-v3.0"

	// DefaultTimeout bounds a single embed request.
	DefaultTimeout = 30 * time.Second
)

// Config configures a Provider.
type Config struct {
	// APIKey authenticates against the embeddings endpoint (required).
	APIKey string

	// BaseURL overrides DefaultBaseURL, e.g. for a self-hosted gateway.
	BaseURL string

	// Model selects the embedding model.
	Model string

	// Dimensions is the vector width produced by Model.
	Dimensions int

	// Timeout bounds a single request.
	Timeout time.Duration

	// RequestsPerSecond caps the outbound request rate; zero disables
	// limiting.
	RequestsPerSecond float64

	// Burst is the limiter's burst allowance.
	Burst int
}

// Provider calls a Cohere-shaped embeddings endpoint over HTTP.
type Provider struct {
	client     *http.Client
	limiter    *rate.Limiter
	baseURL    string
	apiKey     string
	model      string
	dimensions int
}

// New constructs a Provider from cfg, applying defaults for unset fields.
func New(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("httpembed: %w: API key is required", domain.ErrInvalidParameter)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Dimensions == 0 {
		return nil, fmt.Errorf("httpembed: %w: dimensions must be set", domain.ErrInvalidParameter)
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &Provider{
		client:     &http.Client{Timeout: cfg.Timeout},
		limiter:    limiter,
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
	}, nil
}

type embedRequest struct {
	Texts          []string `json:"texts"`
	Model          string   `json:"model"`
	InputType      string   `json:"input_type"`
	EmbeddingTypes []string `json:"embedding_types"`
}

// embedResponse covers both response shapes the endpoint may return: a
// dict keyed by embedding type, or a bare list of vectors.
type embedResponse struct {
	Embeddings json.RawMessage `json:"embeddings"`
}

// Embed generates a single embedding. It blocks on the rate limiter (if
// configured) before issuing the request.
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	reqBody := embedRequest{
		Texts:          []string{text},
		Model:          p.model,
		InputType:      "search_document",
		EmbeddingTypes: []string{"float"},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("httpembed: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/embed", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("httpembed: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpembed: %w: %v", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpembed: %w: read response: %v", domain.ErrProviderUnavailable, err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("httpembed: %w: status %d: %s", domain.ErrRateLimited, resp.StatusCode, string(body))
	}
	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("httpembed: %w: status %d: %s", domain.ErrProviderUnavailable, resp.StatusCode, string(body))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("httpembed: %w: status %d: %s", domain.ErrProviderUnavailable, resp.StatusCode, string(body))
	}

	var parsed embedResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("httpembed: %w: decode response: %v", domain.ErrProviderUnavailable, err)
	}

	vectors, err := parseEmbeddings(parsed.Embeddings)
	if err != nil {
		return nil, fmt.Errorf("httpembed: %w: %v", domain.ErrProviderUnavailable, err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("httpembed: %w: no embeddings in response", domain.ErrProviderUnavailable)
	}
	return vectors[0], nil
}

// parseEmbeddings handles both response shapes: {"float": [[...]]} and a
// bare [[...]].
func parseEmbeddings(raw json.RawMessage) ([][]float32, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("no embeddings field in response")
	}

	var byType map[string][][]float32
	if err := json.Unmarshal(raw, &byType); err == nil {
		if floats, ok := byType["float"]; ok {
			return floats, nil
		}
	}

	var flat [][]float32
	if err := json.Unmarshal(raw, &flat); err == nil {
		return flat, nil
	}

	return nil, fmt.Errorf("unrecognized embeddings format")
}

// Dimensions returns the configured embedding width.
func (p *Provider) Dimensions() int {
	return p.dimensions
}
