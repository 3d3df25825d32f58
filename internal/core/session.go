package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SessionSnapshot is a consistent view of a session
type SessionSnapshot struct {
	Status AnalysisStatus
	Result *AnalysisResult
	Logs   []LogEntry
}

// Session owns the presentation state of one user: status, last result and logs.
//
// Transitions are IDLE -> ANALYZING -> COMPLETED | ERROR, and COMPLETED | ERROR ->
// ANALYZING on a new submission. Submitting while ANALYZING is rejected.
type Session struct {
	analyzer Analyzer
	logger   *zap.Logger
	now      func() time.Time

	mu     sync.RWMutex
	status AnalysisStatus
	result *AnalysisResult
	logs   []LogEntry
}

// NewSession creates an idle session
func NewSession(analyzer Analyzer, logger *zap.Logger) *Session {
	return &Session{
		analyzer: analyzer,
		logger:   logger,
		now:      time.Now,
		status:   StatusIdle,
	}
}

// Submit validates the email and runs an analysis, blocking until it finishes
func (s *Session) Submit(ctx context.Context, email *EmailData) (*AnalysisResult, error) {
	snap, err := s.Run(ctx, email)
	if err != nil {
		return nil, err
	}
	return snap.Result, nil
}

// Run is Submit returning the snapshot taken by the final transition, so the
// logs always belong to this run even if another submission follows at once.
// A panicking analyzer ends the run in ERROR instead of leaving it ANALYZING.
func (s *Session) Run(ctx context.Context, email *EmailData) (snap SessionSnapshot, err error) {
	if err := email.Validate(); err != nil {
		return SessionSnapshot{}, err
	}
	if err := s.begin(); err != nil {
		return SessionSnapshot{}, err
	}

	var result *AnalysisResult
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Analysis panicked", zap.Any("panic", r), zap.Stack("stack"))
			result, err = nil, fmt.Errorf("analysis panicked: %v", r)
		}
		if err == nil && result == nil {
			err = errors.New("analysis returned no result")
		}
		snap = s.finish(email, result, err)
	}()

	result, err = s.analyzer.Analyze(ctx, email, s.appendLog)
	return SessionSnapshot{}, err
}

func (s *Session) finish(email *EmailData, result *AnalysisResult, err error) SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.status = StatusError
		s.result = nil
		s.logs = append(s.logs, LogEntry{Time: s.now(), Message: fmt.Sprintf("[ERROR] %v", err)})
		s.logger.Error("Analysis failed", zap.String("sender", email.Sender), zap.Error(err))
	} else {
		s.result = result
		s.status = StatusCompleted
	}
	return s.snapshotLocked()
}

func (s *Session) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusAnalyzing {
		return ErrAnalysisInProgress
	}
	s.status = StatusAnalyzing
	s.result = nil
	s.logs = nil
	return nil
}

func (s *Session) appendLog(entry LogEntry) {
	s.mu.Lock()
	s.logs = append(s.logs, entry)
	s.mu.Unlock()
}

// Status returns the current status
func (s *Session) Status() AnalysisStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Result returns the last result, which is only valid while the status is COMPLETED
func (s *Session) Result() (*AnalysisResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.status != StatusCompleted || s.result == nil {
		return nil, false
	}
	return s.result, true
}

// Logs returns a copy of the log entries of the current run
func (s *Session) Logs() []LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]LogEntry(nil), s.logs...)
}

// Snapshot returns status, result and logs read under one lock
func (s *Session) Snapshot() SessionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() SessionSnapshot {
	snap := SessionSnapshot{
		Status: s.status,
		Logs:   append([]LogEntry(nil), s.logs...),
	}
	if s.status == StatusCompleted {
		snap.Result = s.result
	}
	return snap
}
