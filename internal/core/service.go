package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AnalysisService is the core service sequencing scoring, narrative and classification
type AnalysisService struct {
	scorer   ScoringClient
	narrator *NarrativeClient
	metrics  MetricsRecorder
	logger   *zap.Logger
	now      func() time.Time
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(
	scorer ScoringClient,
	narrator *NarrativeClient,
	metrics MetricsRecorder,
	logger *zap.Logger,
) *AnalysisService {
	if metrics == nil {
		metrics = NoopRecorder()
	}
	return &AnalysisService{
		scorer:   scorer,
		narrator: narrator,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// Analyze runs the workflow for one email. Progress lines are delivered to sink
// in order. Only a scoring failure makes the run fail.
func (s *AnalysisService) Analyze(ctx context.Context, email *EmailData, sink LogSink) (*AnalysisResult, error) {
	runID := uuid.NewString()
	logger := s.logger.With(zap.String("run_id", runID), zap.String("sender", email.Sender))

	progress := func(format string, args ...any) {
		msg := fmt.Sprintf(format, args...)
		logger.Debug(msg)
		if sink != nil {
			sink(LogEntry{Time: s.now(), Message: msg})
		}
	}

	progress("Starting analysis workflow...")
	progress("Target: %s", email.Sender)

	progress("Step 1: Quantitative Analysis (XGBoost)")
	progress("POST %s", s.scorer.Endpoint())
	started := time.Now()
	score, err := s.scorer.Score(ctx, email)
	s.metrics.ObserveScoring(time.Since(started), err)
	if err != nil {
		progress("Error fetching score: %v", err)
		logger.Error("Failed to fetch phishing score",
			zap.String("operation", "score"),
			zap.String("endpoint", s.scorer.Endpoint()),
			zap.Error(err))
		s.metrics.ObserveRun("", err)
		return nil, fmt.Errorf("score email: %w", err)
	}
	progress("Received score: %v", score)

	progress("Step 2: Qualitative Analysis (GenAI)")
	aiText, fallback := s.narrator.Explain(ctx, email, score, progress)
	s.metrics.ObserveNarrative(fallback)

	progress("Step 3: Risk Classification")
	level := ClassifyRisk(score)

	progress("Result: %s (Score: %.4f)", level, score)
	progress("Analysis complete.")

	logger.Info("Email analyzed",
		zap.Float64("score", score),
		zap.String("risk_level", string(level)),
		zap.Bool("narrative_fallback", fallback))
	s.metrics.ObserveRun(level, nil)

	return &AnalysisResult{
		XGBoostScore: score,
		RiskLevel:    level,
		AIAnalysis:   aiText,
		Timestamp:    s.now(),
		RunID:        runID,
		Model:        s.narrator.ModelName(),
	}, nil
}
