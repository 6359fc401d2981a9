package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "config.json", `{
		"basic_config": {"env": "production", "server_address": ":8080", "db_type": "sqlite"},
		"databases": {"sqlite3": {"dsn": "data/app.db"}},
		"gateway": {"provider": "OpenAI", "timeout": 12},
		"providers": {"openai": {"api_key": "sk-test"}},
		"auth": {"token_ttl": 60, "csrf": true}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.BasicConfig.ServerAddress)
	assert.Equal(t, "sqlite3", cfg.Driver())
	assert.Equal(t, filepath.Join(filepath.Dir(path), "data/app.db"), cfg.Databases["sqlite3"].DSN)
	assert.Equal(t, 12*time.Second, cfg.GatewayTimeout())
	assert.Equal(t, time.Hour, cfg.TokenTTL())
	assert.True(t, cfg.Auth.CSRF)
	assert.False(t, cfg.IsDevelopment())

	name, prov := cfg.ActiveProvider()
	assert.Equal(t, "openai", name)
	assert.Equal(t, "sk-test", prov.APIKey)
	assert.Equal(t, "gpt-4o-mini", prov.Model)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
basic_config:
  server_address: ":9000"
databases:
  sqlite3:
    dsn: ":memory:"
gateway:
  provider: claude
  max_attempts: 4
cors:
  allowed_origins: ["https://app.example.com"]
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.BasicConfig.ServerAddress)
	assert.Equal(t, ":memory:", cfg.Databases["sqlite3"].DSN)
	assert.Equal(t, 4, cfg.Gateway.MaxAttempts)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.CORS.AllowedOrigins)
	name, prov := cfg.ActiveProvider()
	assert.Equal(t, "claude", name)
	assert.Equal(t, "claude-3-5-haiku-latest", prov.Model)
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.BasicConfig.Env)
	assert.Equal(t, ":3000", cfg.BasicConfig.ServerAddress)
	assert.Equal(t, "sqlite3", cfg.Driver())
	assert.Equal(t, 30*time.Second, cfg.GatewayTimeout())
	assert.Equal(t, 2, cfg.Gateway.MaxAttempts)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL())
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout())
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORS.AllowedOrigins)
	assert.True(t, filepath.IsAbs(cfg.Databases["sqlite3"].DSN))
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeFile(t, "config.json", `{"databases": {"sqlite3": {"dsn": ":memory:"}}}`)
	t.Setenv("INTERVIEW_ADDR", ":7000")
	t.Setenv("INTERVIEW_LLM_PROVIDER", "gemini")
	t.Setenv("INTERVIEW_LLM_MODEL", "gemini-2.0-flash")
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("REDIS_ADDR", "cache.local:6380")
	t.Setenv("INTERVIEW_CSRF", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.BasicConfig.ServerAddress)
	name, prov := cfg.ActiveProvider()
	assert.Equal(t, "gemini", name)
	assert.Equal(t, "g-key", prov.APIKey)
	assert.Equal(t, "gemini-2.0-flash", prov.Model)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "cache.local", cfg.Redis.Host)
	assert.Equal(t, 6380, cfg.Redis.Port)
	assert.True(t, cfg.Auth.CSRF)
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"unknown driver", `{"basic_config": {"db_type": "oracle"}}`},
		{"missing driver config", `{"basic_config": {"db_type": "mysql"}}`},
		{"unknown provider", `{"databases": {"sqlite3": {"dsn": ":memory:"}}, "gateway": {"provider": "cohere"}}`},
		{"bad redis port", `{"databases": {"sqlite3": {"dsn": ":memory:"}}, "redis": {"enabled": true, "port": 70000}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeFile(t, "config.json", tc.body))
			require.Error(t, err)
		})
	}
}
