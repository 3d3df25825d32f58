package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrInvalidEmail is returned when submitted email data is missing required fields
	ErrInvalidEmail = errors.New("invalid email data")
	// ErrAnalysisInProgress is returned when a run is submitted while another is still analyzing
	ErrAnalysisInProgress = errors.New("analysis already in progress")
)

// EmailData represents the email metadata entered by the user
type EmailData struct {
	Sender  string `json:"sender"`
	Subject string `json:"subject"`
	Content string `json:"content"`
}

// Validate checks that the fields required for an analysis are present
func (e *EmailData) Validate() error {
	if e == nil {
		return fmt.Errorf("%w: no email data", ErrInvalidEmail)
	}
	if strings.TrimSpace(e.Sender) == "" {
		return fmt.Errorf("%w: sender is required", ErrInvalidEmail)
	}
	if strings.TrimSpace(e.Content) == "" {
		return fmt.Errorf("%w: content is required", ErrInvalidEmail)
	}
	return nil
}

// RiskLevel is the verdict derived from the phishing score
type RiskLevel string

const (
	RiskSafe       RiskLevel = "Safe"
	RiskSuspicious RiskLevel = "Suspicious"
	RiskDangerous  RiskLevel = "Dangerous"
)

// AnalysisResult represents the combined verdict of one analysis run
type AnalysisResult struct {
	XGBoostScore float64   `json:"xgboostScore"`
	RiskLevel    RiskLevel `json:"riskLevel"`
	AIAnalysis   string    `json:"aiAnalysis"`
	Timestamp    time.Time `json:"timestamp"`
	RunID        string    `json:"runId"`
	Model        string    `json:"model"`
}

// AnalysisStatus is the state of a presentation session
type AnalysisStatus string

const (
	StatusIdle      AnalysisStatus = "IDLE"
	StatusAnalyzing AnalysisStatus = "ANALYZING"
	StatusCompleted AnalysisStatus = "COMPLETED"
	StatusError     AnalysisStatus = "ERROR"
)

// LogEntry is a single timestamped progress line
type LogEntry struct {
	Time    time.Time
	Message string
}

// String renders the entry the way it is shown to the user
func (e LogEntry) String() string {
	return fmt.Sprintf("[%s] %s", e.Time.Format("15:04:05"), e.Message)
}

// LogSink receives progress entries as an analysis runs
type LogSink func(entry LogEntry)

// ServiceError is returned by remote clients when a service answers with a non-success status
type ServiceError struct {
	Service    string
	StatusCode int
	Status     string
}

func (e *ServiceError) Error() string {
	status := e.Status
	if status == "" {
		status = fmt.Sprintf("%d", e.StatusCode)
	}
	return fmt.Sprintf("%s error: %s", e.Service, status)
}
