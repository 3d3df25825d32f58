package frontend

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/phishguard/internal/adapters/ollama"
	"github.com/mikey/phishguard/internal/adapters/scoring"
	"github.com/mikey/phishguard/internal/core"
	"github.com/mikey/phishguard/internal/utils"
)

// stubServices runs fake scoring and Ollama services
type stubServices struct {
	scoring *httptest.Server
	llm     *httptest.Server
}

// newStubServices answers /predict with score and /api/generate with narrative,
// or with llmStatus when it is not 200
func newStubServices(t *testing.T, score float64, narrative string, llmStatus int) *stubServices {
	t.Helper()
	return newStubServicesWith(t, score, func(w http.ResponseWriter, r *http.Request) {
		if llmStatus != http.StatusOK {
			w.WriteHeader(llmStatus)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"model": "smollm2", "response": narrative, "done": true})
	})
}

// newStubServicesWithBody answers /api/generate with 200 and the raw body
func newStubServicesWithBody(t *testing.T, score float64, body string) *stubServices {
	t.Helper()
	return newStubServicesWith(t, score, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	})
}

func newStubServicesWith(t *testing.T, score float64, generate http.HandlerFunc) *stubServices {
	t.Helper()

	scoringMux := http.NewServeMux()
	scoringMux.HandleFunc("POST /predict", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]float64{"score": score})
	})
	scoringMux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	llmMux := http.NewServeMux()
	llmMux.HandleFunc("POST /api/generate", generate)
	llmMux.HandleFunc("GET /api/tags", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"models":[{"name":"smollm2:latest"}]}`))
	})

	s := &stubServices{
		scoring: httptest.NewServer(scoringMux),
		llm:     httptest.NewServer(llmMux),
	}
	t.Cleanup(s.scoring.Close)
	t.Cleanup(s.llm.Close)
	return s
}

// pipeline builds the real clients and service against the stubs
func (s *stubServices) pipeline(t *testing.T) (*scoring.Client, *ollama.Generator, *core.AnalysisService) {
	t.Helper()
	logger := zap.NewNop()

	scorer, err := scoring.NewClient(s.scoring.URL, 5*time.Second, logger)
	require.NoError(t, err)
	generator, err := ollama.NewGenerator(s.llm.URL, "smollm2", 5*time.Second, logger)
	require.NoError(t, err)

	narrator := core.NewNarrativeClient(generator, utils.NewTextProcessor(logger), 4096, logger)
	return scorer, generator, core.NewAnalysisService(scorer, narrator, nil, logger)
}
