package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/mikey/phishguard/internal/core"
	"go.uber.org/zap"
)

// modelInvoker is the subset of the Bedrock runtime client used by Generator
type modelInvoker interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Generator implements core.TextGenerator using Amazon Bedrock
type Generator struct {
	client      modelInvoker
	region      string
	modelID     string
	maxTokens   int
	temperature float32
	topP        float32
	logger      *zap.Logger
}

// NewGenerator creates a new Bedrock generator
func NewGenerator(
	client modelInvoker,
	region string,
	modelID string,
	maxTokens int,
	temperature float32,
	topP float32,
	logger *zap.Logger,
) *Generator {
	return &Generator{
		client:      client,
		region:      region,
		modelID:     modelID,
		maxTokens:   maxTokens,
		temperature: temperature,
		topP:        topP,
		logger:      logger,
	}
}

// Endpoint returns the InvokeModel URL for the configured model
func (g *Generator) Endpoint() string {
	return fmt.Sprintf("https://bedrock-runtime.%s.amazonaws.com/model/%s/invoke", g.region, g.modelID)
}

// ModelName returns the configured model ID
func (g *Generator) ModelName() string {
	return g.modelID
}

// Generate invokes the model with the prompt
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	payload, err := buildPayload(g.modelID, prompt, g.maxTokens, g.temperature, g.topP)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request payload: %w", err)
	}

	resp, err := g.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(g.modelID),
		Body:        payload,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		var respErr *awshttp.ResponseError
		if errors.As(err, &respErr) {
			return "", &core.ServiceError{Service: "bedrock", StatusCode: respErr.HTTPStatusCode(), Status: respErr.Err.Error()}
		}
		return "", fmt.Errorf("failed to invoke Bedrock model: %w", err)
	}

	text, err := parseCompletion(g.modelID, resp.Body)
	if err != nil {
		return "", err
	}

	g.logger.Debug("Bedrock response received",
		zap.String("model", g.modelID),
		zap.Int("length", len(text)))

	return text, nil
}

func isAnthropicModel(modelID string) bool {
	return strings.HasPrefix(modelID, "anthropic.")
}

func isAmazonTitanModel(modelID string) bool {
	return strings.HasPrefix(modelID, "amazon.titan")
}

// buildPayload encodes the request body in the format the model family expects
func buildPayload(modelID, prompt string, maxTokens int, temperature, topP float32) ([]byte, error) {
	switch {
	case isAnthropicModel(modelID):
		return json.Marshal(map[string]any{
			"prompt":               "\n\nHuman: " + prompt + "\n\nAssistant:",
			"max_tokens_to_sample": maxTokens,
			"temperature":          temperature,
			"top_p":                topP,
		})
	case isAmazonTitanModel(modelID):
		return json.Marshal(map[string]any{
			"inputText": prompt,
			"textGenerationConfig": map[string]any{
				"maxTokenCount": maxTokens,
				"temperature":   temperature,
				"topP":          topP,
			},
		})
	default:
		return json.Marshal(map[string]any{
			"prompt":      prompt,
			"max_tokens":  maxTokens,
			"temperature": temperature,
			"top_p":       topP,
		})
	}
}

// parseCompletion extracts the generated text from a model response body
func parseCompletion(modelID string, body []byte) (string, error) {
	switch {
	case isAnthropicModel(modelID):
		var claudeResp struct {
			Completion string `json:"completion"`
		}
		if err := json.Unmarshal(body, &claudeResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Claude response: %w", err)
		}
		return strings.TrimSpace(claudeResp.Completion), nil

	case isAmazonTitanModel(modelID):
		var titanResp struct {
			Results []struct {
				OutputText string `json:"outputText"`
			} `json:"results"`
		}
		if err := json.Unmarshal(body, &titanResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Titan response: %w", err)
		}
		if len(titanResp.Results) == 0 {
			return "", fmt.Errorf("empty response from Titan model")
		}
		return strings.TrimSpace(titanResp.Results[0].OutputText), nil

	default:
		var genericResp struct {
			Output   string `json:"output"`
			Text     string `json:"text"`
			Response string `json:"response"`
		}
		if err := json.Unmarshal(body, &genericResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal generic response: %w", err)
		}
		switch {
		case genericResp.Output != "":
			return genericResp.Output, nil
		case genericResp.Text != "":
			return genericResp.Text, nil
		case genericResp.Response != "":
			return genericResp.Response, nil
		default:
			return string(body), nil
		}
	}
}
