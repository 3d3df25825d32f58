package ollama

import (
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

// CreateGenerator creates a new Generator from the ollama section
func (f *Factory) CreateGenerator() (*Generator, error) {
	ollamaCfg, err := f.cfg.GetOllama()
	if err != nil {
		return nil, err
	}
	return NewGenerator(ollamaCfg.BaseURL, ollamaCfg.Model, ollamaCfg.Timeout, f.logger)
}
