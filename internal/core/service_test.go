package core

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mikey/phishguard/internal/utils"
)

func newTestService(scorer ScoringClient, generator TextGenerator, recorder MetricsRecorder) *AnalysisService {
	logger := zap.NewNop()
	narrator := NewNarrativeClient(generator, utils.NewTextProcessor(logger), 4096, logger)
	return NewAnalysisService(scorer, narrator, recorder, logger)
}

func collect(entries *[]LogEntry) LogSink {
	return func(entry LogEntry) {
		*entries = append(*entries, entry)
	}
}

func messages(entries []LogEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Message
	}
	return out
}

var testEmail = &EmailData{Sender: "a@b.com", Subject: "Test", Content: "Hello"}

func TestAnalyze_DangerousWithNarrative(t *testing.T) {
	generator := &fakeGenerator{text: "Looks risky"}
	svc := newTestService(&fakeScorer{score: 0.9}, generator, nil)

	var entries []LogEntry
	result, err := svc.Analyze(context.Background(), testEmail, collect(&entries))
	require.NoError(t, err)

	assert.Equal(t, 0.9, result.XGBoostScore)
	assert.Equal(t, RiskDangerous, result.RiskLevel)
	assert.Equal(t, "Looks risky", result.AIAnalysis)
	assert.Equal(t, "smollm2", result.Model)
	assert.NotEmpty(t, result.RunID)
	assert.False(t, result.Timestamp.IsZero())

	assert.Equal(t, []string{
		"Starting analysis workflow...",
		"Target: a@b.com",
		"Step 1: Quantitative Analysis (XGBoost)",
		"POST http://scoring.test/predict",
		"Received score: 0.9",
		"Step 2: Qualitative Analysis (GenAI)",
		"Preparing LLM prompt...",
		"POST http://llm.test/api/generate (model: smollm2)",
		"LLM Response received (11 chars)",
		"Step 3: Risk Classification",
		"Result: Dangerous (Score: 0.9000)",
		"Analysis complete.",
	}, messages(entries))

	require.Len(t, generator.prompts, 1)
	prompt := generator.prompts[0]
	assert.Contains(t, prompt, "Phishing Score: 0.90")
	assert.Contains(t, prompt, "From: a@b.com")
	assert.Contains(t, prompt, "Subject: Test")
	assert.Contains(t, prompt, "Body: Hello")
	assert.Contains(t, prompt, "Do not use markdown formatting.")
}

func TestAnalyze_NarrativeStatusFailureFallsBack(t *testing.T) {
	generator := &fakeGenerator{err: &ServiceError{Service: "ollama", StatusCode: 500, Status: "500 Internal Server Error"}}
	recorder := &fakeRecorder{}
	svc := newTestService(&fakeScorer{score: 0.2}, generator, recorder)

	var entries []LogEntry
	result, err := svc.Analyze(context.Background(), testEmail, collect(&entries))
	require.NoError(t, err)

	assert.Equal(t, 0.2, result.XGBoostScore)
	assert.Equal(t, RiskSafe, result.RiskLevel)
	assert.Equal(t, FallbackAnalysis, result.AIAnalysis)
	assert.True(t, strings.HasPrefix(result.AIAnalysis, "AI analysis unavailable"))
	assert.Contains(t, messages(entries), "AI Service unavailable: 500")
	assert.Equal(t, "Analysis complete.", entries[len(entries)-1].Message)
	assert.Equal(t, 1, recorder.fallbacks)
}

func TestAnalyze_NarrativeTransportFailureFallsBack(t *testing.T) {
	generator := &fakeGenerator{err: errors.New("connection refused")}
	svc := newTestService(&fakeScorer{score: 0.5}, generator, nil)

	var entries []LogEntry
	result, err := svc.Analyze(context.Background(), testEmail, collect(&entries))
	require.NoError(t, err)

	assert.Equal(t, RiskSuspicious, result.RiskLevel)
	assert.Equal(t, FallbackAnalysis, result.AIAnalysis)
	assert.Contains(t, messages(entries), "AI Analysis failed: connection refused")
}

func TestAnalyze_ScoringFailureAborts(t *testing.T) {
	scoreErr := &ServiceError{Service: "scoring", StatusCode: 503, Status: "503 Service Unavailable"}
	generator := &fakeGenerator{text: "unused"}
	recorder := &fakeRecorder{}
	svc := newTestService(&fakeScorer{err: scoreErr}, generator, recorder)

	var entries []LogEntry
	result, err := svc.Analyze(context.Background(), testEmail, collect(&entries))
	require.Error(t, err)
	assert.Nil(t, result)

	var statusErr *ServiceError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, 503, statusErr.StatusCode)

	assert.Empty(t, generator.prompts, "narrative must not run after a scoring failure")
	last := entries[len(entries)-1].Message
	assert.Equal(t, "Error fetching score: scoring error: 503 Service Unavailable", last)

	require.Len(t, recorder.runs, 1)
	assert.Error(t, recorder.runs[0].err)
}

func TestAnalyze_LogsFailureContext(t *testing.T) {
	obsCore, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(obsCore)
	narrator := NewNarrativeClient(&fakeGenerator{}, utils.NewTextProcessor(logger), 0, logger)
	svc := NewAnalysisService(&fakeScorer{err: errors.New("dial tcp: refused")}, narrator, nil, logger)

	_, err := svc.Analyze(context.Background(), testEmail, nil)
	require.Error(t, err)

	failures := logs.FilterMessage("Failed to fetch phishing score").All()
	require.Len(t, failures, 1)
	fields := failures[0].ContextMap()
	assert.Equal(t, "score", fields["operation"])
	assert.Equal(t, "dial tcp: refused", fields["error"])
	assert.Equal(t, "a@b.com", fields["sender"])
}

func TestAnalyze_Idempotent(t *testing.T) {
	svc := newTestService(&fakeScorer{score: 0.6}, &fakeGenerator{text: "Be careful"}, nil)

	first, err := svc.Analyze(context.Background(), testEmail, nil)
	require.NoError(t, err)
	second, err := svc.Analyze(context.Background(), testEmail, nil)
	require.NoError(t, err)

	assert.Equal(t, first.XGBoostScore, second.XGBoostScore)
	assert.Equal(t, first.RiskLevel, second.RiskLevel)
	assert.Equal(t, first.AIAnalysis, second.AIAnalysis)
	assert.Equal(t, first.Model, second.Model)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestAnalyze_LogCountMonotonic(t *testing.T) {
	svc := newTestService(&fakeScorer{score: 0.1}, &fakeGenerator{text: "ok"}, nil)

	var counts []int
	var entries []LogEntry
	sink := func(entry LogEntry) {
		entries = append(entries, entry)
		counts = append(counts, len(entries))
	}
	_, err := svc.Analyze(context.Background(), testEmail, sink)
	require.NoError(t, err)

	for i := 1; i < len(counts); i++ {
		assert.Greater(t, counts[i], counts[i-1])
		assert.False(t, entries[i].Time.Before(entries[i-1].Time))
	}
}

func TestAnalyze_TruncatesLongBody(t *testing.T) {
	generator := &fakeGenerator{text: "ok"}
	logger := zap.NewNop()
	narrator := NewNarrativeClient(generator, utils.NewTextProcessor(logger), 10, logger)
	svc := NewAnalysisService(&fakeScorer{score: 0.1}, narrator, nil, logger)

	email := &EmailData{Sender: "a@b.com", Subject: "Long", Content: strings.Repeat("x", 100)}
	_, err := svc.Analyze(context.Background(), email, nil)
	require.NoError(t, err)

	require.Len(t, generator.prompts, 1)
	assert.NotContains(t, generator.prompts[0], strings.Repeat("x", 11))
	assert.Contains(t, generator.prompts[0], "Content truncated")
}
