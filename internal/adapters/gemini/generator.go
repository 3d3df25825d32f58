package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/mikey/phishguard/internal/core"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const endpointFormat = "https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent"

// Generator implements core.TextGenerator using Google Gemini
type Generator struct {
	client    *genai.Client
	model     *genai.GenerativeModel
	modelName string
	logger    *zap.Logger
}

// NewGenerator creates a new Gemini generator
func NewGenerator(
	ctx context.Context,
	apiKey string,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	logger *zap.Logger,
) (*Generator, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(temperature)
	model.SetTopP(topP)
	if maxTokens > 0 {
		model.SetMaxOutputTokens(int32(maxTokens))
	}

	return &Generator{
		client:    client,
		model:     model,
		modelName: modelName,
		logger:    logger,
	}, nil
}

// Close closes the Gemini client
func (g *Generator) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

// Endpoint returns the generateContent URL for the configured model
func (g *Generator) Endpoint() string {
	return fmt.Sprintf(endpointFormat, g.modelName)
}

// ModelName returns the configured model
func (g *Generator) ModelName() string {
	return g.modelName
}

// Generate asks Gemini to complete the prompt
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			return "", &core.ServiceError{Service: "gemini", StatusCode: apiErr.Code, Status: apiErr.Message}
		}
		return "", fmt.Errorf("failed to generate content with Gemini: %w", err)
	}

	text, err := extractText(resp)
	if err != nil {
		return "", err
	}

	g.logger.Debug("Gemini response received",
		zap.String("model", g.modelName),
		zap.Int("length", len(text)))

	return text, nil
}

// extractText joins the text parts of the first candidate
func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("empty response from Gemini")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return "", fmt.Errorf("empty response from Gemini (finish reason: %s)", candidate.FinishReason)
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("no text in Gemini response")
	}

	return sb.String(), nil
}
