package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"LLM_PROVIDER", "LLM_MODEL", "LLM_BASE_URL", "GOOGLE_API_KEY", "OPENAI_API_KEY",
		"DATABASE_URL", "GITHUB_TOKEN", "GITHUB_API_URL", "ON_GENERATION_ERROR", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}
	t.Chdir(t.TempDir())
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig("missing.yaml")

	require.NoError(t, err)
	assert.Equal(t, ProviderGemini, cfg.LLM.Provider)
	assert.Equal(t, "gemini-1.5-pro", cfg.LLM.Model)
	assert.Equal(t, "https://api.github.com", cfg.GitHub.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.GitHub.Timeout)
	assert.Equal(t, 8000, cfg.RAG.ChunkSize)
	assert.Equal(t, PolicySkipChunk, cfg.RAG.OnGenerationError)
	assert.Equal(t, BackendPostgres, cfg.Store.Backend)
	assert.Equal(t, ":8000", cfg.Server.Addr)
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level: debug
llm:
  provider: openai
  model: gpt-4o
github:
  base_url: http://localhost:9999/
rag:
  on_generation_error: abort
store:
  backend: chromem
  path: /tmp/qa
`), 0o600))
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("GITHUB_TOKEN", "ghp_test")

	cfg, err := LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.Equal(t, "sk-test", cfg.LLM.Key)
	assert.Equal(t, "http://localhost:9999", cfg.GitHub.BaseURL)
	assert.Equal(t, "ghp_test", cfg.GitHub.Token)
	assert.Equal(t, PolicyAbort, cfg.RAG.OnGenerationError)
	assert.Equal(t, BackendChromem, cfg.Store.Backend)
	assert.NoError(t, cfg.Validate(true))
}

func TestLoadConfig_DotEnv(t *testing.T) {
	clearEnv(t)
	require.NoError(t, os.WriteFile(".env", []byte("GOOGLE_API_KEY=from-dotenv\nDATABASE_URL=postgres://localhost/qa\n"), 0o600))
	// godotenv never overrides variables that are already set, even when empty.
	require.NoError(t, os.Unsetenv("GOOGLE_API_KEY"))
	require.NoError(t, os.Unsetenv("DATABASE_URL"))
	t.Cleanup(func() {
		os.Unsetenv("GOOGLE_API_KEY")
		os.Unsetenv("DATABASE_URL")
	})

	cfg, err := LoadConfig("")

	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.LLM.Key)
	assert.Equal(t, "postgres://localhost/qa", cfg.Database.URL)
	assert.NoError(t, cfg.Validate(true))
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm: [unclosed"), 0o600))

	_, err := LoadConfig(path)

	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{
			LLM:      LLMConfig{Provider: ProviderGemini, Key: "k"},
			Database: DatabaseConfig{URL: "postgres://localhost/qa"},
		}
		cfg.applyDefaults()
		return cfg
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, valid().Validate(true))
	})

	t.Run("missing model key fails fast", func(t *testing.T) {
		cfg := valid()
		cfg.LLM.Key = ""
		assert.ErrorContains(t, cfg.Validate(false), "api key is required")
	})

	t.Run("ollama needs no key", func(t *testing.T) {
		cfg := valid()
		cfg.LLM = LLMConfig{Provider: ProviderOllama}
		assert.NoError(t, cfg.Validate(false))
	})

	t.Run("missing database url only matters when storing", func(t *testing.T) {
		cfg := valid()
		cfg.Database.URL = ""
		assert.NoError(t, cfg.Validate(false))
		assert.ErrorContains(t, cfg.Validate(true), "DATABASE_URL")
	})

	t.Run("store disabled", func(t *testing.T) {
		cfg := valid()
		cfg.Database.URL = ""
		cfg.Store.Backend = BackendNone
		assert.NoError(t, cfg.Validate(true))
	})

	t.Run("unknown values", func(t *testing.T) {
		cfg := valid()
		cfg.RAG.OnGenerationError = "retry"
		assert.Error(t, cfg.Validate(false))

		cfg = valid()
		cfg.Store.Backend = "mongodb"
		assert.Error(t, cfg.Validate(false))

		cfg = valid()
		cfg.LLM.Provider = "bard"
		assert.Error(t, cfg.Validate(false))
	})
}
