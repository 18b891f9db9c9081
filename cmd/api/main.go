//	@title			Media API
//	@version		1.0
//	@description	Image upload, thumbnail and retrieval service backed by object storage.
//
//	@host		localhost:3000
//	@BasePath	/
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT Bearer token, required when AUTH_REQUIRED=true. Format: **Bearer {token}**

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

	"github.com/radif/media/internal/config"
	"github.com/radif/media/internal/logging"
	"github.com/radif/media/internal/media"
	"github.com/radif/media/internal/metrics"
	"github.com/radif/media/internal/storage"
	"github.com/radif/media/internal/thumbnail"

	_ "github.com/radif/media/docs/swagger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.AppEnv, cfg.LogLevel)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	backend, err := newStorage(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("object storage init failed")
	}
	store := storage.NewInstrumented(backend, m)

	startCtx, cancelStart := context.WithTimeout(logger.WithContext(context.Background()), 30*time.Second)
	if err := store.EnsureBucket(startCtx, cfg.StorageBucket); err != nil {
		cancelStart()
		logger.Fatal().Err(err).Str("bucket", cfg.StorageBucket).Msg("bucket init failed")
	}
	cancelStart()

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		logger.Fatal().Err(err).Str("dir", cfg.UploadDir).Msg("upload dir init failed")
	}

	// Wire dependencies: storage → service → handler
	mediaSvc := media.NewService(store, thumbnail.New(), cfg, m)
	mediaHandler := media.NewHandler(mediaSvc, cfg)

	r := newRouter(cfg, logger, reg, m, mediaSvc, mediaHandler)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine; wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.AppEnv).
			Str("storage", cfg.StorageDriver).
			Str("bucket", cfg.StorageBucket).
			Msg("server listening")
		logger.Info().Msgf("swagger UI at http://localhost:%s/swagger/", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	<-quit
	logger.Info().Msg("shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("forced shutdown")
	}

	logger.Info().Msg("server stopped")
}

func newStorage(cfg *config.Config) (storage.Gateway, error) {
	switch cfg.StorageDriver {
	case "memory":
		return storage.NewMemoryStorage(), nil
	case "minio":
		store, err := storage.NewMinioStorage(
			cfg.StorageAddr(),
			cfg.StorageAccessKey,
			cfg.StorageSecretKey,
			cfg.StorageUseSSL,
		)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
