package di

import (
	"context"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/phishguard/internal/adapters/scoring"
	"github.com/mikey/phishguard/internal/config"
	"github.com/mikey/phishguard/internal/core"
	"github.com/mikey/phishguard/internal/factory"
	"github.com/mikey/phishguard/internal/logging"
	"github.com/mikey/phishguard/internal/metrics"
	"github.com/mikey/phishguard/internal/ports"
	"github.com/mikey/phishguard/internal/utils"
)

// BuildContainer creates and configures a dependency injection container for the
// daemon. An empty configFile searches the default locations.
func BuildContainer(configFile string) (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(func() (*config.Config, error) {
		return config.Load(configFile)
	}); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	if err := provideAnalysis(container); err != nil {
		return nil, err
	}

	return container, nil
}

// provideAnalysis registers everything downstream of configuration and logger
func provideAnalysis(container *dig.Container) error {
	// Register factories
	if err := container.Provide(factory.NewTextProcessorFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewScoringFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewGeneratorFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewFrontendFactory); err != nil {
		return err
	}

	// Register text processor
	if err := container.Provide(func(f *factory.TextProcessorFactory) *utils.TextProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return err
	}

	// Register remote clients
	if err := container.Provide(func(f *factory.ScoringFactory) (*scoring.Client, error) {
		return f.CreateClient()
	}); err != nil {
		return err
	}
	if err := container.Provide(func(f *factory.GeneratorFactory) (core.TextGenerator, error) {
		return f.CreateGenerator(context.Background())
	}); err != nil {
		return err
	}

	// Register metrics, nil when disabled
	if err := container.Provide(func(cfg *config.Config) *metrics.Recorder {
		if !cfg.GetBool("metrics.enabled") {
			return nil
		}
		return metrics.NewRecorder(cfg.GetString("metrics.namespace"))
	}); err != nil {
		return err
	}
	if err := container.Provide(func(recorder *metrics.Recorder) core.MetricsRecorder {
		if recorder == nil {
			return core.NoopRecorder()
		}
		return recorder
	}); err != nil {
		return err
	}

	// Register analysis services
	if err := container.Provide(func(
		cfg *config.Config,
		generator core.TextGenerator,
		textProcessor *utils.TextProcessor,
		logger *zap.Logger,
	) *core.NarrativeClient {
		return core.NewNarrativeClient(generator, textProcessor, cfg.GetNarrative().MaxBodySize, logger)
	}); err != nil {
		return err
	}
	if err := container.Provide(func(
		scorer *scoring.Client,
		narrator *core.NarrativeClient,
		recorder core.MetricsRecorder,
		logger *zap.Logger,
	) *core.AnalysisService {
		return core.NewAnalysisService(scorer, narrator, recorder, logger)
	}); err != nil {
		return err
	}
	if err := container.Provide(func(service *core.AnalysisService, logger *zap.Logger) *core.Session {
		return core.NewSession(service, logger)
	}); err != nil {
		return err
	}

	// Register frontend
	return container.Provide(func(f *factory.FrontendFactory) (ports.Frontend, error) {
		return f.CreateFrontend()
	})
}
