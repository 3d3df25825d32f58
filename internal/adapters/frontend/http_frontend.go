package frontend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/mikey/phishguard/internal/core"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	maxRequestBytes = 1 << 20
	readyTimeout    = 5 * time.Second
)

// HealthChecker is implemented by remote clients that can check their service
type HealthChecker interface {
	Health(ctx context.Context) error
}

// HTTPFrontend serves the analysis session over a JSON API
type HTTPFrontend struct {
	session         *core.Session
	scoring         HealthChecker
	generator       core.TextGenerator
	metrics         http.Handler
	logger          *zap.Logger
	listenAddr      string
	shutdownTimeout time.Duration

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// NewHTTPFrontend creates a new HTTP frontend. metrics may be nil.
func NewHTTPFrontend(
	session *core.Session,
	scoring HealthChecker,
	generator core.TextGenerator,
	metrics http.Handler,
	logger *zap.Logger,
	listenAddr string,
	shutdownTimeout time.Duration,
) *HTTPFrontend {
	return &HTTPFrontend{
		session:         session,
		scoring:         scoring,
		generator:       generator,
		metrics:         metrics,
		logger:          logger,
		listenAddr:      listenAddr,
		shutdownTimeout: shutdownTimeout,
	}
}

// analyzeResponse is the body of POST /api/analyze
type analyzeResponse struct {
	Result *core.AnalysisResult `json:"result,omitempty"`
	Gauge  *core.Gauge          `json:"gauge,omitempty"`
	Error  string               `json:"error,omitempty"`
	Logs   []string             `json:"logs"`
}

// sessionResponse is the body of GET /api/session
type sessionResponse struct {
	Status core.AnalysisStatus  `json:"status"`
	Result *core.AnalysisResult `json:"result,omitempty"`
	Gauge  *core.Gauge          `json:"gauge,omitempty"`
	Logs   []string             `json:"logs"`
}

// Handler returns the routes of the frontend
func (f *HTTPFrontend) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/analyze", f.handleAnalyze)
	mux.HandleFunc("GET /api/session", f.handleSession)
	mux.HandleFunc("GET /healthz", f.handleHealth)
	mux.HandleFunc("GET /readyz", f.handleReady)
	if f.metrics != nil {
		mux.Handle("GET /metrics", f.metrics)
	}
	return mux
}

// Start listens on the configured address and serves in the background
func (f *HTTPFrontend) Start() error {
	ln, err := net.Listen("tcp", f.listenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", f.listenAddr, err)
	}

	server := &http.Server{
		Handler:           f.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	f.mu.Lock()
	f.server = server
	f.listener = ln
	f.mu.Unlock()

	f.logger.Info("HTTP frontend starting", zap.String("address", ln.Addr().String()))

	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			f.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Addr returns the bound address once started
func (f *HTTPFrontend) Addr() net.Addr {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listener == nil {
		return nil
	}
	return f.listener.Addr()
}

// Stop gracefully shuts the server down
func (f *HTTPFrontend) Stop() error {
	f.mu.Lock()
	server := f.server
	f.mu.Unlock()
	if server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), f.shutdownTimeout)
	defer cancel()
	return server.Shutdown(ctx)
}

// ProcessEmail submits an email to the session
func (f *HTTPFrontend) ProcessEmail(ctx context.Context, email *core.EmailData) (*core.AnalysisResult, error) {
	return f.session.Submit(ctx, email)
}

func (f *HTTPFrontend) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var email core.EmailData
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := dec.Decode(&email); err != nil {
		writeJSON(w, http.StatusBadRequest, analyzeResponse{Error: fmt.Sprintf("invalid request body: %v", err), Logs: []string{}})
		return
	}

	// The run outlives a disconnected client so the session still ends COMPLETED or ERROR
	snap, err := f.session.Run(context.WithoutCancel(r.Context()), &email)
	if err != nil {
		status := http.StatusBadGateway
		switch {
		case errors.Is(err, core.ErrInvalidEmail):
			status = http.StatusBadRequest
		case errors.Is(err, core.ErrAnalysisInProgress):
			status = http.StatusConflict
		}
		writeJSON(w, status, analyzeResponse{Error: err.Error(), Logs: formatLogs(snap.Logs)})
		return
	}

	gauge := core.GaugeFor(snap.Result.XGBoostScore)
	writeJSON(w, http.StatusOK, analyzeResponse{
		Result: snap.Result,
		Gauge:  &gauge,
		Logs:   formatLogs(snap.Logs),
	})
}

func (f *HTTPFrontend) handleSession(w http.ResponseWriter, r *http.Request) {
	snap := f.session.Snapshot()
	resp := sessionResponse{
		Status: snap.Status,
		Result: snap.Result,
		Logs:   formatLogs(snap.Logs),
	}
	if snap.Result != nil {
		gauge := core.GaugeFor(snap.Result.XGBoostScore)
		resp.Gauge = &gauge
	}
	writeJSON(w, http.StatusOK, resp)
}

func (f *HTTPFrontend) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady checks the remote services in parallel. Only the scoring service is
// required; the narrative service degrades to the fallback text when it is down.
func (f *HTTPFrontend) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	var scoringErr, narrativeErr error
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		scoringErr = f.scoring.Health(gctx)
		return nil
	})
	checker, checkNarrative := f.generator.(HealthChecker)
	if checkNarrative {
		g.Go(func() error {
			narrativeErr = checker.Health(gctx)
			return nil
		})
	}
	_ = g.Wait()

	checks := map[string]string{
		"scoring":   checkStatus(scoringErr),
		"narrative": "unchecked",
	}
	if checkNarrative {
		checks["narrative"] = checkStatus(narrativeErr)
	}

	status := http.StatusOK
	if scoringErr != nil {
		status = http.StatusServiceUnavailable
		f.logger.Warn("Readiness check failed", zap.String("operation", "health"), zap.Error(scoringErr))
	}
	if narrativeErr != nil {
		f.logger.Warn("Narrative service unavailable", zap.String("operation", "health"), zap.Error(narrativeErr))
	}
	writeJSON(w, status, checks)
}

func checkStatus(err error) string {
	if err != nil {
		return "unavailable: " + err.Error()
	}
	return "ok"
}

func formatLogs(entries []core.LogEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.String()
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
