package factory

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/mikey/phishguard/internal/adapters/frontend"
	"github.com/mikey/phishguard/internal/adapters/scoring"
	"github.com/mikey/phishguard/internal/config"
	"github.com/mikey/phishguard/internal/core"
	"github.com/mikey/phishguard/internal/metrics"
	"github.com/mikey/phishguard/internal/ports"
	"github.com/mikey/phishguard/internal/whitelist"
	"go.uber.org/zap"
)

// FrontendFactory creates frontends based on configuration
type FrontendFactory struct {
	cfg       *config.Config
	logger    *zap.Logger
	service   *core.AnalysisService
	session   *core.Session
	scorer    *scoring.Client
	generator core.TextGenerator
	recorder  *metrics.Recorder
	out       io.Writer
}

// NewFrontendFactory creates a new frontend factory. recorder may be nil when
// metrics are disabled.
func NewFrontendFactory(
	cfg *config.Config,
	logger *zap.Logger,
	service *core.AnalysisService,
	session *core.Session,
	scorer *scoring.Client,
	generator core.TextGenerator,
	recorder *metrics.Recorder,
) *FrontendFactory {
	return &FrontendFactory{
		cfg:       cfg,
		logger:    logger,
		service:   service,
		session:   session,
		scorer:    scorer,
		generator: generator,
		recorder:  recorder,
		out:       os.Stdout,
	}
}

// CreateFrontend creates a frontend based on server.frontend
func (f *FrontendFactory) CreateFrontend() (ports.Frontend, error) {
	frontendType := f.cfg.GetString("server.frontend")

	switch frontendType {
	case "http":
		shutdownTimeout, err := f.cfg.GetDuration("server.shutdown_timeout")
		if err != nil {
			return nil, err
		}
		var metricsHandler http.Handler
		if f.recorder != nil {
			metricsHandler = f.recorder.Handler()
		}
		return frontend.NewHTTPFrontend(
			f.session,
			f.scorer,
			f.generator,
			metricsHandler,
			f.logger,
			f.cfg.GetString("server.listen_address"),
			shutdownTimeout,
		), nil
	case "postfix":
		postfixCfg, err := f.cfg.GetPostfix()
		if err != nil {
			return nil, err
		}
		return frontend.NewPostfixFrontend(
			f.service,
			whitelist.NewChecker(postfixCfg.TrustedDomains, f.logger),
			f.logger,
			postfixCfg,
		), nil
	case "cli":
		return frontend.NewCliFrontend(
			f.service,
			f.logger,
			f.out,
			f.cfg.GetBool("cli.verbose"),
			f.cfg.GetBool("cli.json_output"),
		), nil
	default:
		return nil, fmt.Errorf("unsupported frontend type: %s", frontendType)
	}
}
