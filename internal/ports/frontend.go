package ports

import (
	"context"

	"github.com/mikey/phishguard/internal/core"
)

// Frontend defines the interface for the surfaces emails are submitted through
type Frontend interface {
	// ProcessEmail analyzes an email and returns the result
	ProcessEmail(ctx context.Context, email *core.EmailData) (*core.AnalysisResult, error)

	// Start starts the frontend service
	Start() error

	// Stop stops the frontend service
	Stop() error
}
