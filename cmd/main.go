package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"profile-qa/internal/config"
	"profile-qa/internal/github"
	"profile-qa/internal/llmservice"
	"profile-qa/internal/rag"
)

const configFilePath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Caller().Logger()

	var cfgPath string
	root := &cobra.Command{
		Use:           "profile-qa",
		Short:         "Answer questions about a GitHub user from their public profile",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", configFilePath, "config file")
	root.AddCommand(serveCMD(&cfgPath), chatCMD(&cfgPath))

	if err := root.Execute(); err != nil {
		log.Fatal().Err(err).Msg("Command failed")
	}
}

// loadConfig loads and validates config, then applies the log level.
func loadConfig(path string, requireStore bool) (*config.Config, error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if err := cfg.Validate(requireStore); err != nil {
		return nil, err
	}
	log.Debug().Str("provider", cfg.LLM.Provider).Str("model", cfg.LLM.Model).Str("store", cfg.Store.Backend).Msg("Loaded config")
	return cfg, nil
}

func newPipeline(ctx context.Context, cfg *config.Config) (*github.Client, *rag.RAG, error) {
	generator, err := llmservice.NewGenerator(ctx, &cfg.LLM)
	if err != nil {
		return nil, nil, err
	}
	gh := github.NewClient(&cfg.GitHub, cfg.RAG.ChunkSize)
	return gh, rag.NewRAG(gh, generator, &cfg.RAG), nil
}
