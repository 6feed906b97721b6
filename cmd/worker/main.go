package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/pixeldrift/resizer/internal/config"
	"github.com/pixeldrift/resizer/internal/resize"
	"github.com/pixeldrift/resizer/internal/store"
	"github.com/pixeldrift/resizer/internal/telemetry"
	"github.com/pixeldrift/resizer/internal/webhook"
	"github.com/pixeldrift/resizer/internal/worker"
)

func main() {
	cfg := config.Load()
	logger := log.New(os.Stdout, "[worker] ", log.LstdFlags|log.Lmsgprefix)

	shutdownTracing, err := telemetry.SetupTracing(context.Background(), telemetry.TraceConfig{
		ServiceName:  "resizer-worker",
		Exporter:     cfg.Trace.Exporter,
		OTLPEndpoint: cfg.Trace.OTLPEndpoint,
		OTLPInsecure: cfg.Trace.OTLPInsecure,
	}, logger)
	if err != nil {
		logger.Fatalf("tracing setup failed: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.Printf("tracing shutdown failed: %v", err)
		}
	}()

	if err := resize.Startup(); err != nil {
		logger.Fatalf("image runtime startup failed: %v", err)
	}
	defer resize.Shutdown()

	jobStore, closeStore := buildJobStore(logger, cfg)
	defer closeStore()

	webhookClient := webhook.NewClient(webhook.Config{
		SigningSecret:  cfg.Webhook.SigningSecret,
		Timeout:        cfg.Webhook.Timeout,
		MaxAttempts:    cfg.Webhook.MaxAttempts,
		InitialBackoff: cfg.Webhook.InitialBackoff,
		MaxBackoff:     cfg.Webhook.MaxBackoff,
	})

	srv, err := worker.NewServer(logger, cfg.Queue, cfg.Worker, webhookClient, jobStore, nil)
	if err != nil {
		logger.Fatalf("worker init failed: %v", err)
	}

	go func() {
		logger.Printf("worker metrics listening on %s", cfg.Worker.MetricsAddr)
		mux := http.NewServeMux()
		mux.Handle("GET /metrics", srv.MetricsHandler())
		if err := http.ListenAndServe(cfg.Worker.MetricsAddr, mux); err != nil {
			logger.Printf("metrics server failed: %v", err)
		}
	}()

	logger.Printf(
		"starting worker concurrency=%d max_active_jobs=%d queue=%s redis=%s",
		cfg.Worker.Concurrency,
		cfg.Worker.MaxActiveJobs,
		cfg.Queue.Name,
		cfg.Queue.RedisAddr,
	)

	if err := srv.Run(); err != nil {
		logger.Fatalf("worker failed: %v", err)
	}
}

func buildJobStore(logger *log.Logger, cfg config.Config) (store.JobStore, func()) {
	if cfg.Database.DSN == "" {
		logger.Printf("using in-memory job store")
		return store.NewMemoryJobStore(), func() {}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pgStore, err := store.NewPostgresJobStore(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatalf("postgres job store init failed: %v", err)
	}
	return pgStore, func() {
		if err := pgStore.Close(); err != nil {
			logger.Printf("job store close error: %v", err)
		}
	}
}
