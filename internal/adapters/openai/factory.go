package openai

import (
	"fmt"

	"github.com/mikey/phishguard/internal/config"
	"go.uber.org/zap"
)

// Factory creates new instances of Generator
type Factory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewFactory creates a new factory for Generator instances
func NewFactory(cfg *config.Config, logger *zap.Logger) *Factory {
	return &Factory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateGenerator creates a new Generator from the openai section
func (f *Factory) CreateGenerator() (*Generator, error) {
	openaiCfg := f.cfg.GetOpenAI()
	// A custom base URL may point at a local OpenAI-compatible server that needs no key
	if openaiCfg.APIKey == "" && openaiCfg.BaseURL == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	return NewGenerator(
		openaiCfg.APIKey,
		openaiCfg.BaseURL,
		openaiCfg.ModelName,
		openaiCfg.MaxTokens,
		openaiCfg.Temperature,
		openaiCfg.TopP,
		f.logger,
	), nil
}
