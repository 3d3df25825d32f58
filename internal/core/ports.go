package core

import (
	"context"
	"time"
)

// ScoringClient defines the interface for the phishing scoring service
type ScoringClient interface {
	// Score returns the phishing probability of an email (0.0 - 1.0)
	Score(ctx context.Context, email *EmailData) (float64, error)

	// Endpoint returns the URL requests are sent to
	Endpoint() string
}

// TextGenerator defines the interface for text-generation backends
type TextGenerator interface {
	// Generate returns the free-text completion for a prompt
	Generate(ctx context.Context, prompt string) (string, error)

	// Endpoint returns a description of where requests are sent
	Endpoint() string

	// ModelName returns the model used for generation
	ModelName() string
}

// Analyzer runs one analysis of an email, streaming progress to sink
type Analyzer interface {
	Analyze(ctx context.Context, email *EmailData, sink LogSink) (*AnalysisResult, error)
}

// MetricsRecorder receives observations about analysis runs
type MetricsRecorder interface {
	ObserveScoring(duration time.Duration, err error)
	ObserveNarrative(fallback bool)
	ObserveRun(level RiskLevel, err error)
}

type noopRecorder struct{}

func (noopRecorder) ObserveScoring(time.Duration, error) {}
func (noopRecorder) ObserveNarrative(bool)               {}
func (noopRecorder) ObserveRun(RiskLevel, error)         {}

// NoopRecorder returns a MetricsRecorder that discards everything
func NoopRecorder() MetricsRecorder {
	return noopRecorder{}
}
