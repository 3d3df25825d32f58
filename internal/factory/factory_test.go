package factory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/phishguard/internal/adapters/frontend"
	"github.com/mikey/phishguard/internal/config"
	"github.com/mikey/phishguard/internal/core"
	"github.com/mikey/phishguard/internal/metrics"
)

func TestGeneratorFactory(t *testing.T) {
	tests := []struct {
		name      string
		settings  map[string]any
		wantModel string
		wantErr   bool
	}{
		{
			name:      "ollama default",
			wantModel: "smollm2",
		},
		{
			name:      "openai",
			settings:  map[string]any{"narrative.provider": "openai", "openai.api_key": "sk-test"},
			wantModel: "gpt-4o-mini",
		},
		{
			name:     "openai without key",
			settings: map[string]any{"narrative.provider": "openai"},
			wantErr:  true,
		},
		{
			name:     "gemini without key",
			settings: map[string]any{"narrative.provider": "gemini"},
			wantErr:  true,
		},
		{
			name:     "unknown",
			settings: map[string]any{"narrative.provider": "carrier-pigeon"},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := config.NewEmptyViper()
			for k, val := range tt.settings {
				v.Set(k, val)
			}

			generator, err := NewGeneratorFactory(config.NewFromViper(v), zap.NewNop()).CreateGenerator(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantModel, generator.ModelName())
		})
	}
}

func TestScoringFactory(t *testing.T) {
	client, err := NewScoringFactory(config.NewFromViper(config.NewEmptyViper()), zap.NewNop()).CreateClient()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000/predict", client.Endpoint())
}

func TestFrontendFactory(t *testing.T) {
	tests := []struct {
		frontend string
		check    func(t *testing.T, f any)
		wantErr  bool
	}{
		{frontend: "http", check: func(t *testing.T, f any) { assert.IsType(t, &frontend.HTTPFrontend{}, f) }},
		{frontend: "postfix", check: func(t *testing.T, f any) { assert.IsType(t, &frontend.PostfixFrontend{}, f) }},
		{frontend: "cli", check: func(t *testing.T, f any) { assert.IsType(t, &frontend.CliFrontend{}, f) }},
		{frontend: "milter", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.frontend, func(t *testing.T) {
			v := config.NewEmptyViper()
			v.Set("server.frontend", tt.frontend)
			cfg := config.NewFromViper(v)

			service := core.NewAnalysisService(nil, nil, nil, zap.NewNop())
			session := core.NewSession(service, zap.NewNop())
			ff := NewFrontendFactory(cfg, zap.NewNop(), service, session, nil, nil, metrics.NewRecorder("test"))

			f, err := ff.CreateFrontend()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, f)
		})
	}
}
