package main

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"

	"clipforge/config"
	"clipforge/dispatch"
	"clipforge/failures"
	"clipforge/logger"
	"clipforge/pipeline"
	"clipforge/routes"
	"clipforge/storage"
	"clipforge/task"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.FromEnv()
	logger.SetLevel(cfg.LogLevel)
	logger.Info("starting clipforge")

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDSN}); err != nil {
			logger.Fatalf("sentry init failed: %v", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	if err := failures.Init(filepath.Join(cfg.DataDir, "failures.db")); err != nil {
		logger.Fatalf("failed to initialize failure store: %v", err)
	}
	defer failures.Close()

	resolver := storage.NewResolver(cfg.Storage)
	executor := task.NewExecutor(resolver, cfg.FFmpegBin)
	dispatcher := dispatch.NewClient(cfg.Worker)
	orchestrator := pipeline.NewOrchestrator(cfg, resolver, executor, dispatcher)
	prober := pipeline.NewProber(cfg.Storage, resolver)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go cleanupRoutine(ctx)

	handler := routes.NewHandler(cfg, executor, orchestrator, prober)
	router := routes.NewRouter(handler)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logger.Infof("clipforge listening on %s", addr)
	if err := http.ListenAndServe(addr, router); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}

// cleanupRoutine prunes failure records older than 30 days, once a day.
func cleanupRoutine(ctx context.Context) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := failures.CleanupOldRecords(30 * 24 * time.Hour); err != nil {
				logger.Errorf("failure store cleanup: %v", err)
			}
		}
	}
}
