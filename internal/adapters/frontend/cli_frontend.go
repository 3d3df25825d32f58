package frontend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/mikey/phishguard/internal/core"
	"go.uber.org/zap"
)

const previewLength = 500

// CliFrontend runs a single analysis and prints progress and verdict to out
type CliFrontend struct {
	analyzer   core.Analyzer
	logger     *zap.Logger
	out        io.Writer
	verbose    bool
	jsonOutput bool
}

// NewCliFrontend creates a new CLI frontend
func NewCliFrontend(analyzer core.Analyzer, logger *zap.Logger, out io.Writer, verbose, jsonOutput bool) *CliFrontend {
	return &CliFrontend{
		analyzer:   analyzer,
		logger:     logger,
		out:        out,
		verbose:    verbose,
		jsonOutput: jsonOutput,
	}
}

// ProcessEmail analyzes an email and displays the results
func (f *CliFrontend) ProcessEmail(ctx context.Context, email *core.EmailData) (*core.AnalysisResult, error) {
	if err := email.Validate(); err != nil {
		return nil, err
	}
	f.logger.Debug("Processing email", zap.String("sender", email.Sender))

	if f.jsonOutput {
		return f.processJSON(ctx, email)
	}

	fmt.Fprintf(f.out, "\n=== Email Summary ===\n")
	fmt.Fprintf(f.out, "From: %s\n", email.Sender)
	fmt.Fprintf(f.out, "Subject: %s\n", email.Subject)
	fmt.Fprintf(f.out, "Body length: %d bytes\n", len(email.Content))

	if f.verbose {
		preview := []rune(email.Content)
		if len(preview) > previewLength {
			preview = append(preview[:previewLength], []rune("...")...)
		}
		fmt.Fprintf(f.out, "\nBody preview:\n%s\n", string(preview))
	}

	fmt.Fprintf(f.out, "\n=== Analysis ===\n")
	startTime := time.Now()
	result, err := f.analyzer.Analyze(ctx, email, func(entry core.LogEntry) {
		fmt.Fprintln(f.out, entry.String())
	})
	if err != nil {
		f.logger.Error("Failed to analyze email", zap.Error(err))
		fmt.Fprintf(f.out, "[%s] [ERROR] %v\n", time.Now().Format("15:04:05"), err)
		return nil, err
	}
	duration := time.Since(startTime)

	gauge := core.GaugeFor(result.XGBoostScore)
	fmt.Fprintf(f.out, "\n=== Results ===\n")
	fmt.Fprintf(f.out, "Risk level: %s\n", result.RiskLevel)
	fmt.Fprintf(f.out, "Phishing score: %.4f (%d%% %s)\n", result.XGBoostScore, gauge.Percentage, gauge.Label)
	fmt.Fprintf(f.out, "Model used: %s\n", result.Model)
	fmt.Fprintf(f.out, "Run ID: %s\n", result.RunID)
	fmt.Fprintf(f.out, "Processing time: %v\n", duration.Round(time.Millisecond))
	fmt.Fprintf(f.out, "\nAI analysis:\n%s\n", result.AIAnalysis)

	return result, nil
}

func (f *CliFrontend) processJSON(ctx context.Context, email *core.EmailData) (*core.AnalysisResult, error) {
	logs := []string{}
	result, err := f.analyzer.Analyze(ctx, email, func(entry core.LogEntry) {
		logs = append(logs, entry.String())
	})

	resp := analyzeResponse{Result: result, Logs: logs}
	if err != nil {
		resp.Error = err.Error()
	} else {
		gauge := core.GaugeFor(result.XGBoostScore)
		resp.Gauge = &gauge
	}

	enc := json.NewEncoder(f.out)
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(resp); encErr != nil {
		return nil, fmt.Errorf("failed to write result: %w", encErr)
	}
	return result, err
}

// Start is a no-op for the CLI frontend
func (f *CliFrontend) Start() error {
	return nil
}

// Stop is a no-op for the CLI frontend
func (f *CliFrontend) Stop() error {
	return nil
}
