package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"

	BackendPostgres = "postgres"
	BackendChromem  = "chromem"
	BackendNone     = "none"

	PolicySkipChunk = "skip_chunk"
	PolicyAbort     = "abort"
)

type Config struct {
	LogLevel string         `yaml:"log_level"`
	Server   ServerConfig   `yaml:"server"`
	GitHub   GitHubConfig   `yaml:"github"`
	LLM      LLMConfig      `yaml:"llm"`
	EmbedLLM LLMConfig      `yaml:"embed_llm"`
	RAG      RAGConfig      `yaml:"rag"`
	Store    StoreConfig    `yaml:"store"`
	Database DatabaseConfig `yaml:"database"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type GitHubConfig struct {
	BaseURL string        `yaml:"base_url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

type LLMConfig struct {
	Provider string `yaml:"provider"`
	BaseURL  string `yaml:"base_url"`
	Key      string `yaml:"key"`
	Model    string `yaml:"model"`
}

type RAGConfig struct {
	ChunkSize         int    `yaml:"chunk_size"`
	OnGenerationError string `yaml:"on_generation_error"`
}

// StoreConfig selects where question/answer records are written.
type StoreConfig struct {
	Backend    string `yaml:"backend"`
	Path       string `yaml:"path"`
	Collection string `yaml:"collection"`
}

type DatabaseConfig struct {
	URL    string `yaml:"url"`
	Driver string `yaml:"driver"`
	Debug  bool   `yaml:"debug"`
}

// LoadConfig reads .env and the YAML file at path (both optional), applies
// environment overrides and fills defaults.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse %s: %w", path, err)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}

	provider := c.LLM.Provider
	if provider == "" {
		provider = ProviderGemini
	}
	switch provider {
	case ProviderGemini:
		if v := os.Getenv("GOOGLE_API_KEY"); v != "" {
			c.LLM.Key = v
		}
	case ProviderOpenAI:
		if v := os.Getenv("OPENAI_API_KEY"); v != "" {
			c.LLM.Key = v
		}
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv("GITHUB_TOKEN"); v != "" {
		c.GitHub.Token = v
	}
	if v := os.Getenv("GITHUB_API_URL"); v != "" {
		c.GitHub.BaseURL = v
	}
	if v := os.Getenv("ON_GENERATION_ERROR"); v != "" {
		c.RAG.OnGenerationError = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8000"
	}
	if c.GitHub.BaseURL == "" {
		c.GitHub.BaseURL = "https://api.github.com"
	}
	c.GitHub.BaseURL = strings.TrimRight(c.GitHub.BaseURL, "/")
	if c.GitHub.Timeout == 0 {
		c.GitHub.Timeout = 30 * time.Second
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = ProviderGemini
	}
	if c.LLM.Model == "" {
		switch c.LLM.Provider {
		case ProviderGemini:
			c.LLM.Model = "gemini-1.5-pro"
		case ProviderOpenAI:
			c.LLM.Model = "gpt-4o-mini"
		case ProviderOllama:
			c.LLM.Model = "llama3.1"
		}
	}
	if c.EmbedLLM.Provider == "" {
		c.EmbedLLM.Provider = ProviderOllama
	}
	if c.EmbedLLM.Model == "" {
		c.EmbedLLM.Model = "nomic-embed-text"
	}
	if c.RAG.ChunkSize <= 0 {
		c.RAG.ChunkSize = 8000
	}
	if c.RAG.OnGenerationError == "" {
		c.RAG.OnGenerationError = PolicySkipChunk
	}
	if c.Store.Backend == "" {
		c.Store.Backend = BackendPostgres
	}
	if c.Store.Path == "" {
		c.Store.Path = "./chromemdb"
	}
	if c.Store.Collection == "" {
		c.Store.Collection = "qa_records"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "pgdriver"
	}
}

// Validate fails fast on missing secrets. requireStore is set by front-ends
// that persist interactions.
func (c *Config) Validate(requireStore bool) error {
	switch c.LLM.Provider {
	case ProviderGemini, ProviderOpenAI:
		if c.LLM.Key == "" {
			return fmt.Errorf("llm api key is required for provider %q", c.LLM.Provider)
		}
	case ProviderOllama:
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}

	switch c.RAG.OnGenerationError {
	case PolicySkipChunk, PolicyAbort:
	default:
		return fmt.Errorf("unknown on_generation_error policy %q", c.RAG.OnGenerationError)
	}

	switch c.Store.Backend {
	case BackendPostgres:
		if requireStore && c.Database.URL == "" {
			return errors.New("database url is required (set DATABASE_URL)")
		}
		switch c.Database.Driver {
		case "pgdriver", "pq":
		default:
			return fmt.Errorf("unknown database driver %q", c.Database.Driver)
		}
	case BackendChromem:
		if requireStore && c.Store.Path == "" {
			return errors.New("store path is required for the chromem backend")
		}
	case BackendNone:
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	return nil
}
