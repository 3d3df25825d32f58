package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mikey/phishguard/internal/core"
	"go.uber.org/zap"
)

const maxResponseBytes = 4 << 20

// Generator implements core.TextGenerator against a local Ollama server
type Generator struct {
	generateURL string
	tagsURL     string
	model       string
	client      *http.Client
	logger      *zap.Logger
}

// NewGenerator creates a new Ollama generator
func NewGenerator(baseURL, model string, timeout time.Duration, logger *zap.Logger) (*Generator, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid ollama base URL %q: scheme and host are required", baseURL)
	}
	if model == "" {
		return nil, fmt.Errorf("ollama model is required")
	}

	return &Generator{
		generateURL: base.JoinPath("/api/generate").String(),
		tagsURL:     base.JoinPath("/api/tags").String(),
		model:       model,
		client:      &http.Client{Timeout: timeout},
		logger:      logger,
	}, nil
}

// Endpoint returns the generate URL
func (g *Generator) Endpoint() string {
	return g.generateURL
}

// ModelName returns the configured model
func (g *Generator) ModelName() string {
	return g.model
}

// Generate sends a non-streaming generate request and returns the response text
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(GenerateRequest{
		Model:  g.model,
		Prompt: prompt,
		Stream: false,
	})
	if err != nil {
		return "", fmt.Errorf("marshal generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.generateURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call ollama: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &core.ServiceError{Service: "ollama", StatusCode: resp.StatusCode, Status: resp.Status}
	}

	var parsed GenerateResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode ollama response: %w", err)
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("ollama error: %s", parsed.Error)
	}
	if parsed.Response == nil {
		return "", errors.New("ollama response has no response field")
	}

	g.logger.Debug("Ollama response received",
		zap.String("model", g.model),
		zap.Int("chars", len(*parsed.Response)))
	return *parsed.Response, nil
}

// Health checks that the server is up and the model has been pulled
func (g *Generator) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.tagsURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("create tags request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("call ollama: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return &core.ServiceError{Service: "ollama", StatusCode: resp.StatusCode, Status: resp.Status}
	}

	var tags TagsResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&tags); err != nil {
		return fmt.Errorf("decode ollama tags: %w", err)
	}
	for _, m := range tags.Models {
		if m.Name == g.model || strings.HasPrefix(m.Name, g.model+":") {
			return nil
		}
	}
	return fmt.Errorf("ollama model %q is not available", g.model)
}
