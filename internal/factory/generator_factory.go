package factory

import (
	"context"
	"fmt"

	"github.com/mikey/phishguard/internal/adapters/bedrock"
	"github.com/mikey/phishguard/internal/adapters/gemini"
	"github.com/mikey/phishguard/internal/adapters/ollama"
	"github.com/mikey/phishguard/internal/adapters/openai"
	"github.com/mikey/phishguard/internal/config"
	"github.com/mikey/phishguard/internal/core"
	"go.uber.org/zap"
)

// GeneratorFactory creates narrative text generators
type GeneratorFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewGeneratorFactory creates a new generator factory
func NewGeneratorFactory(cfg *config.Config, logger *zap.Logger) *GeneratorFactory {
	return &GeneratorFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateGenerator creates a new text generator based on narrative.provider
func (f *GeneratorFactory) CreateGenerator(ctx context.Context) (core.TextGenerator, error) {
	provider := f.cfg.GetNarrative().Provider
	logger := f.logger.With(zap.String("provider", provider))

	switch provider {
	case "ollama":
		return ollama.NewFactory(f.cfg, logger).CreateGenerator()
	case "openai":
		return openai.NewFactory(f.cfg, logger).CreateGenerator()
	case "gemini":
		return gemini.NewFactory(f.cfg, logger).CreateGenerator(ctx)
	case "bedrock":
		return bedrock.NewFactory(f.cfg, logger).CreateGenerator(ctx)
	default:
		return nil, fmt.Errorf("unsupported narrative provider: %s", provider)
	}
}
