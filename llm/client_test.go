package llm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid config",
			cfg:  Config{Endpoint: "https://api.openai.com/v1", Model: "gpt-4o-mini"},
		},
		{
			name:    "missing endpoint",
			cfg:     Config{Model: "gpt-4o-mini"},
			wantErr: true,
		},
		{
			name:    "missing model",
			cfg:     Config{Endpoint: "https://api.openai.com/v1"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(&tt.cfg, zap.NewNop())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, client)
		})
	}
}

func TestNewClientClampsSettings(t *testing.T) {
	client, err := NewClient(&Config{
		Endpoint:   "http://localhost:8080/v1/",
		Model:      "local-model",
		Timeout:    -5 * time.Second,
		MaxRetries: -3,
	}, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, client.timeout)
	assert.Equal(t, 0, client.maxRetries, "negative retry config must still allow one attempt")
}
