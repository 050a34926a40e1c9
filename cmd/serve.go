package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"profile-qa/internal/chromemdb"
	"profile-qa/internal/config"
	"profile-qa/internal/db"
	"profile-qa/internal/embedding"
	"profile-qa/internal/server"
)

func serveCMD(cfgPath *string) *cobra.Command {
	var addr string
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*cfgPath, true)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			return runServer(cmd.Context(), cfg)
		},
	}
	serve.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8000)")
	return serve
}

func runServer(ctx context.Context, cfg *config.Config) error {
	_, pipeline, err := newPipeline(ctx, cfg)
	if err != nil {
		return err
	}

	recorder, closeRecorder, err := newRecorder(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRecorder()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	srv := server.New(pipeline, recorder, reg)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(cfg.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-stop:
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newRecorder opens the configured record store. The returned func closes it.
func newRecorder(ctx context.Context, cfg *config.Config) (server.Recorder, func(), error) {
	switch cfg.Store.Backend {
	case config.BackendPostgres:
		sqldb, err := db.ConnectDB(&cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("connect database: %w", err)
		}
		bunDB := db.NewDB(sqldb, cfg.Database.Debug)
		if err := db.InitDB(ctx, bunDB); err != nil {
			_ = bunDB.Close()
			return nil, nil, fmt.Errorf("init database: %w", err)
		}
		store := db.NewStore(bunDB)
		return store, func() {
			if err := store.Close(); err != nil {
				log.Warn().Err(err).Msg("Error closing database")
			}
		}, nil
	case config.BackendChromem:
		embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
		if err != nil {
			return nil, nil, fmt.Errorf("create embedder: %w", err)
		}
		store, err := chromemdb.NewRecordStore(cfg.Store.Path, cfg.Store.Collection, embedding.EmbeddingFunc(embedder))
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	default:
		log.Warn().Msg("Persistence disabled")
		return nil, func() {}, nil
	}
}
