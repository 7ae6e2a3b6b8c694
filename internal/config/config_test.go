package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ModeOffline, cfg.Mode)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.True(t, cfg.LogRedaction)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, RemediationRetrieval, cfg.Remediation.Mode)
	assert.Equal(t, 4, cfg.Remediation.MaxBlocks)
	assert.Equal(t, 20*time.Second, cfg.Remediation.GenerationTimeout)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:3010", "http://localhost:3020"}, cfg.CORSOrigins())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("MODE", "online")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("REMEDIATION_MODE", "synthesis")
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("LLM_API_KEY", "sk-test")
	t.Setenv("GENERATION_TIMEOUT", "5s")
	t.Setenv("LOG_REDACTION_ENABLED", "false")
	t.Setenv("CORS_ORIGINS_ONLINE", "https://a.example, https://b.example")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ModeOnline, cfg.Mode)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, RemediationSynthesis, cfg.Remediation.Mode)
	assert.Equal(t, 5*time.Second, cfg.Remediation.GenerationTimeout)
	assert.False(t, cfg.LogRedaction)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins())
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http_addr: ":9090"
remediation:
  mode: synthesis
  max_blocks: 3
llm:
  provider: mock
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, RemediationSynthesis, cfg.Remediation.Mode)
	assert.Equal(t, 3, cfg.Remediation.MaxBlocks)
	assert.Equal(t, "mock", cfg.LLM.Provider)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown driver", env: map[string]string{"DB_DRIVER": "oracle"}},
		{name: "unknown remediation mode", env: map[string]string{"REMEDIATION_MODE": "magic"}},
		{name: "synthesis without key", env: map[string]string{"REMEDIATION_MODE": "synthesis", "LLM_PROVIDER": "anthropic"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}
