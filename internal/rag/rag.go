package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"profile-qa/internal/config"
	"profile-qa/internal/llmservice"
	"profile-qa/internal/models"
)

// ChunkFetcher loads the context chunks for a user.
type ChunkFetcher interface {
	FetchChunks(ctx context.Context, username string) ([]string, error)
}

type Outcome string

const (
	OutcomeAccepted Outcome = "accepted"
	OutcomeRefused  Outcome = "refused"
	OutcomeFailed   Outcome = "failed"
)

// ChunkResult is the evaluation of one generation call. Index is 1-based.
type ChunkResult struct {
	Index   int
	Outcome Outcome
	Text    string
	Err     error
}

// GenerationError aborts a scan when the abort policy is configured.
type GenerationError struct {
	Chunk int
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed on chunk %d: %v", e.Chunk, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

type RAG struct {
	fetcher   ChunkFetcher
	generator llmservice.Generator
	policy    string
}

func NewRAG(fetcher ChunkFetcher, generator llmservice.Generator, cfg *config.RAGConfig) *RAG {
	policy := config.PolicySkipChunk
	if cfg != nil && cfg.OnGenerationError != "" {
		policy = cfg.OnGenerationError
	}
	return &RAG{fetcher: fetcher, generator: generator, policy: policy}
}

// Query fetches the user's profile, chunks it and answers the question.
func (r *RAG) Query(ctx context.Context, username, question string) (models.PromptResponse, error) {
	log.Debug().Str("username", username).Msg("Fetching profile")
	chunks, err := r.fetcher.FetchChunks(ctx, username)
	if err != nil {
		return models.PromptResponse{}, err
	}

	answer, err := r.Ask(ctx, chunks, question)
	if err != nil {
		return models.PromptResponse{}, err
	}

	return models.PromptResponse{
		Username: username,
		Query:    question,
		Content:  answer.Text,
		State:    answer.State,
	}, nil
}

// Ask submits the question with each chunk in order and returns the first
// answer that is not a refusal. Later chunks are never submitted.
func (r *RAG) Ask(ctx context.Context, chunks []string, question string) (models.Answer, error) {
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return models.Answer{}, err
		}

		res := r.evaluate(ctx, i+1, chunk, question)
		log.Debug().Int("chunk", res.Index).Int("chunks", len(chunks)).Str("outcome", string(res.Outcome)).Msg("Chunk scanned")

		switch res.Outcome {
		case OutcomeAccepted:
			return models.Answer{Text: res.Text, Chunk: res.Index, Scanned: res.Index, State: models.StateAnswered}, nil
		case OutcomeFailed:
			if r.policy == config.PolicyAbort {
				return models.Answer{}, &GenerationError{Chunk: res.Index, Err: res.Err}
			}
			log.Warn().Err(res.Err).Int("chunk", res.Index).Msg("Skipping chunk after generation error")
		}
	}

	return models.Answer{Text: models.FallbackAnswer, Scanned: len(chunks), State: models.StateExhausted}, nil
}

func (r *RAG) evaluate(ctx context.Context, index int, chunk, question string) ChunkResult {
	text, err := r.generator.Generate(ctx, BuildPrompt(chunk, question))
	if err != nil {
		return ChunkResult{Index: index, Outcome: OutcomeFailed, Err: err}
	}
	if !Acceptable(text) {
		return ChunkResult{Index: index, Outcome: OutcomeRefused, Text: text}
	}
	return ChunkResult{Index: index, Outcome: OutcomeAccepted, Text: text}
}

func BuildPrompt(chunk, question string) string {
	return fmt.Sprintf(models.PromptTemplate, chunk, question)
}

// Acceptable reports whether text is a usable answer: non-empty and not
// starting with a known refusal phrase.
func Acceptable(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	lower := strings.ToLower(text)
	for _, prefix := range models.RefusalPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return false
		}
	}
	return true
}
