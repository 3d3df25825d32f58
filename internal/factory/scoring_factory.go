package factory

import (
	"github.com/mikey/phishguard/internal/adapters/scoring"
	"github.com/mikey/phishguard/internal/config"
	"go.uber.org/zap"
)

// ScoringFactory creates scoring service clients
type ScoringFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewScoringFactory creates a new scoring factory
func NewScoringFactory(cfg *config.Config, logger *zap.Logger) *ScoringFactory {
	return &ScoringFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateClient creates a scoring client from the scoring section
func (f *ScoringFactory) CreateClient() (*scoring.Client, error) {
	scoringCfg, err := f.cfg.GetScoring()
	if err != nil {
		return nil, err
	}
	return scoring.NewClient(scoringCfg.BaseURL, scoringCfg.Timeout, f.logger)
}
