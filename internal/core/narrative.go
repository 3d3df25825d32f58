package core

import (
	"context"
	"errors"

	"github.com/mikey/phishguard/internal/utils"
	"go.uber.org/zap"
)

// FallbackAnalysis replaces the narrative whenever the text generator cannot be used
const FallbackAnalysis = "AI analysis unavailable. Please ensure the local AI service is running."

// progressFunc emits one formatted progress line
type progressFunc func(format string, args ...any)

// NarrativeClient asks a text generator to explain a score.
// It never fails: any generator error yields FallbackAnalysis.
type NarrativeClient struct {
	generator     TextGenerator
	textProcessor *utils.TextProcessor
	maxBodySize   int
	logger        *zap.Logger
}

// NewNarrativeClient creates a new narrative client
func NewNarrativeClient(
	generator TextGenerator,
	textProcessor *utils.TextProcessor,
	maxBodySize int,
	logger *zap.Logger,
) *NarrativeClient {
	return &NarrativeClient{
		generator:     generator,
		textProcessor: textProcessor,
		maxBodySize:   maxBodySize,
		logger:        logger,
	}
}

// ModelName returns the model of the underlying generator
func (n *NarrativeClient) ModelName() string {
	return n.generator.ModelName()
}

// Explain returns the generated explanation and whether the fallback was used
func (n *NarrativeClient) Explain(ctx context.Context, email *EmailData, score float64, progress progressFunc) (string, bool) {
	progress("Preparing LLM prompt...")
	body := n.textProcessor.ProcessText(email.Content, n.maxBodySize)
	prompt := BuildNarrativePrompt(email, body, score)

	progress("POST %s (model: %s)", n.generator.Endpoint(), n.generator.ModelName())
	text, err := n.generator.Generate(ctx, prompt)
	if err != nil {
		var statusErr *ServiceError
		if errors.As(err, &statusErr) {
			progress("AI Service unavailable: %d", statusErr.StatusCode)
			n.logger.Warn("AI service unavailable",
				zap.String("operation", "generate"),
				zap.Int("status", statusErr.StatusCode),
				zap.String("model", n.generator.ModelName()))
		} else {
			progress("AI Analysis failed: %v", err)
			n.logger.Warn("AI analysis failed",
				zap.String("operation", "generate"),
				zap.String("model", n.generator.ModelName()),
				zap.Error(err))
		}
		return FallbackAnalysis, true
	}

	progress("LLM Response received (%d chars)", len(text))
	return text, false
}
