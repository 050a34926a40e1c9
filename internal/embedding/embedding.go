package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"profile-qa/internal/config"
)

// NewEmbedder creates an embedder for the configured provider (ollama or openai).
func NewEmbedder(llmConfig *config.LLMConfig) (*embeddings.EmbedderImpl, error) {
	log.Debug().Interface("config", map[string]string{
		"provider":        llmConfig.Provider,
		"base_url":        llmConfig.BaseURL,
		"embedding_model": llmConfig.Model,
	}).Msg("Creating embedder")

	var client embeddings.EmbedderClient
	switch llmConfig.Provider {
	case config.ProviderOllama:
		opts := []ollama.Option{ollama.WithModel(llmConfig.Model)}
		if llmConfig.BaseURL != "" {
			opts = append(opts, ollama.WithServerURL(llmConfig.BaseURL))
		}
		llm, err := ollama.New(opts...)
		if err != nil {
			return nil, err
		}
		client = llm
	case config.ProviderOpenAI:
		opts := []openai.Option{openai.WithEmbeddingModel(llmConfig.Model)}
		// without a key langchaingo falls back to OPENAI_API_KEY
		if llmConfig.Key != "" {
			opts = append(opts, openai.WithToken(strings.TrimPrefix(llmConfig.Key, "Bearer ")))
		}
		if llmConfig.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(llmConfig.BaseURL))
		}
		llm, err := openai.New(opts...)
		if err != nil {
			return nil, err
		}
		client = llm
	default:
		return nil, fmt.Errorf("unsupported embedding provider %q", llmConfig.Provider)
	}

	return embeddings.NewEmbedder(client)
}

// EmbeddingFunc adapts a langchaingo embedder to chromem.
func EmbeddingFunc(embedder embeddings.Embedder) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return embedder.EmbedQuery(ctx, text)
	}
}
