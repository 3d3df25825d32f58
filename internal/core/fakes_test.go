package core

import (
	"context"
	"sync"
	"time"
)

type fakeScorer struct {
	score float64
	err   error
	calls int
}

func (f *fakeScorer) Score(ctx context.Context, email *EmailData) (float64, error) {
	f.calls++
	return f.score, f.err
}

func (f *fakeScorer) Endpoint() string { return "http://scoring.test/predict" }

type fakeGenerator struct {
	text    string
	err     error
	prompts []string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.text, f.err
}

func (f *fakeGenerator) Endpoint() string  { return "http://llm.test/api/generate" }
func (f *fakeGenerator) ModelName() string { return "smollm2" }

type recordedRun struct {
	level RiskLevel
	err   error
}

type fakeRecorder struct {
	mu        sync.Mutex
	scorings  int
	fallbacks int
	runs      []recordedRun
}

func (r *fakeRecorder) ObserveScoring(time.Duration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scorings++
}

func (r *fakeRecorder) ObserveNarrative(fallback bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if fallback {
		r.fallbacks++
	}
}

func (r *fakeRecorder) ObserveRun(level RiskLevel, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, recordedRun{level: level, err: err})
}
