package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mikey/phishguard/internal/core"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const systemPrompt = "You are a cybersecurity expert assistant. Answer in plain text without markdown."

// Generator implements core.TextGenerator using the OpenAI chat completions API
type Generator struct {
	client      *openai.Client
	baseURL     string
	modelName   string
	maxTokens   int
	temperature float32
	topP        float32
	logger      *zap.Logger
}

// NewGenerator creates a new OpenAI generator. An empty baseURL uses the public API.
func NewGenerator(
	apiKey string,
	baseURL string,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	logger *zap.Logger,
) *Generator {
	clientCfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientCfg.BaseURL = baseURL
	}

	return &Generator{
		client:      openai.NewClientWithConfig(clientCfg),
		baseURL:     strings.TrimSuffix(clientCfg.BaseURL, "/"),
		modelName:   modelName,
		maxTokens:   maxTokens,
		temperature: temperature,
		topP:        topP,
		logger:      logger,
	}
}

// Endpoint returns the chat completions URL
func (g *Generator) Endpoint() string {
	return g.baseURL + "/chat/completions"
}

// ModelName returns the configured model
func (g *Generator) ModelName() string {
	return g.modelName
}

// Generate asks the chat model to complete the prompt
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: g.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
		TopP:        g.topP,
	}

	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
			return "", &core.ServiceError{Service: "openai", StatusCode: apiErr.HTTPStatusCode, Status: apiErr.Message}
		}
		var reqErr *openai.RequestError
		if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
			return "", &core.ServiceError{Service: "openai", StatusCode: reqErr.HTTPStatusCode, Status: reqErr.HTTPStatus}
		}
		return "", fmt.Errorf("failed to create chat completion with OpenAI: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from OpenAI")
	}

	g.logger.Debug("OpenAI response received",
		zap.String("model", g.modelName),
		zap.String("id", resp.ID),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens))

	return resp.Choices[0].Message.Content, nil
}
