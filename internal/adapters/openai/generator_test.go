package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	goopenai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/phishguard/internal/config"
	"github.com/mikey/phishguard/internal/core"
)

func TestGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)

		var req goopenai.ChatCompletionRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		if assert.Len(t, req.Messages, 2) {
			assert.Equal(t, "explain", req.Messages[1].Content)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(goopenai.ChatCompletionResponse{
			ID: "chatcmpl-1",
			Choices: []goopenai.ChatCompletionChoice{
				{Message: goopenai.ChatCompletionMessage{Role: "assistant", Content: "Looks risky"}},
			},
		})
	}))
	defer server.Close()

	g := NewGenerator("key", server.URL, "gpt-4o-mini", 100, 0.2, 0.9, zap.NewNop())
	text, err := g.Generate(context.Background(), "explain")
	require.NoError(t, err)
	assert.Equal(t, "Looks risky", text)
	assert.Equal(t, server.URL+"/chat/completions", g.Endpoint())
}

func TestGenerate_ServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"requests"}}`))
	}))
	defer server.Close()

	g := NewGenerator("key", server.URL, "gpt-4o-mini", 100, 0.2, 0.9, zap.NewNop())
	_, err := g.Generate(context.Background(), "explain")

	var statusErr *core.ServiceError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
}

func TestFactory_RequiresKey(t *testing.T) {
	cfg := config.NewFromViper(config.NewEmptyViper())
	_, err := NewFactory(cfg, zap.NewNop()).CreateGenerator()
	assert.Error(t, err)
}
