package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/phishguard/internal/core"
)

var email = &core.EmailData{Sender: "a@b.com", Subject: "Test", Content: "Hello"}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL, 5*time.Second, zap.NewNop())
	require.NoError(t, err)
	return client
}

func TestScore_Success(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/predict", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req predictRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, predictRequest{Sender: "a@b.com", Subject: "Test", Content: "Hello"}, req)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"score": 0.9}`))
	})

	score, err := client.Score(context.Background(), email)
	require.NoError(t, err)
	assert.Equal(t, 0.9, score)
}

func TestScore_NonSuccessStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	})

	_, err := client.Score(context.Background(), email)
	require.Error(t, err)

	var statusErr *core.ServiceError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.Equal(t, "Backend error: 503 Service Unavailable", err.Error())
}

func TestScore_BadPayloads(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: "<html>"},
		{name: "missing score", body: `{"probability": 0.3}`},
		{name: "score above one", body: `{"score": 1.5}`},
		{name: "negative score", body: `{"score": -0.1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := client.Score(context.Background(), email)
			assert.Error(t, err)
		})
	}
}

func TestScore_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client, err := NewClient(url, time.Second, zap.NewNop())
	require.NoError(t, err)

	_, err = client.Score(context.Background(), email)
	assert.ErrorContains(t, err, "call scoring service")
}

func TestHealth(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":"ok","model_loaded":true}`))
	})
	assert.NoError(t, client.Health(context.Background()))
}

func TestNewClient_InvalidURL(t *testing.T) {
	_, err := NewClient("localhost:8000", time.Second, zap.NewNop())
	assert.Error(t, err)
}

func TestEndpoint(t *testing.T) {
	client, err := NewClient("http://localhost:8000", time.Second, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000/predict", client.Endpoint())
}
