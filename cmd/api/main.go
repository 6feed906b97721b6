package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pixeldrift/resizer/internal/api"
	"github.com/pixeldrift/resizer/internal/config"
	"github.com/pixeldrift/resizer/internal/queue"
	"github.com/pixeldrift/resizer/internal/ratelimit"
	"github.com/pixeldrift/resizer/internal/resize"
	"github.com/pixeldrift/resizer/internal/store"
	"github.com/pixeldrift/resizer/internal/telemetry"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.Load()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.Lmsgprefix)

	shutdownTracing, err := telemetry.SetupTracing(context.Background(), telemetry.TraceConfig{
		ServiceName:  "resizer-api",
		Exporter:     cfg.Trace.Exporter,
		OTLPEndpoint: cfg.Trace.OTLPEndpoint,
		OTLPInsecure: cfg.Trace.OTLPInsecure,
	}, logger)
	if err != nil {
		logger.Fatalf("tracing setup failed: %v", err)
	}

	if err := resize.Startup(); err != nil {
		logger.Fatalf("image runtime startup failed: %v", err)
	}
	defer resize.Shutdown()

	pipeline, err := resize.New()
	if err != nil {
		logger.Fatalf("resize pipeline init failed: %v", err)
	}

	queueClient := queue.NewClient(cfg.Queue.RedisClientOpt(), cfg.Queue.Name)
	defer func() {
		if err := queueClient.Close(); err != nil {
			logger.Printf("queue client close error: %v", err)
		}
	}()

	jobStore, closeStore := buildJobStore(logger, cfg)
	defer closeStore()

	var rateLimiter api.RateLimiter
	if cfg.RateLimit.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Queue.RedisAddr,
			Password: cfg.Queue.RedisPassword,
			DB:       cfg.Queue.RedisDB,
		})
		limiter, err := ratelimit.NewRedisTokenBucket(redisClient, cfg.RateLimit.Capacity, cfg.RateLimit.Window, "")
		if err != nil {
			logger.Fatalf("rate limiter init failed: %v", err)
		}
		rateLimiter = limiter
	}

	app := api.NewServer(logger, pipeline, queueClient, jobStore, rateLimiter, api.Config{
		MaxBodyBytes:          cfg.API.MaxBodyBytes,
		RateLimitUserIDHeader: cfg.RateLimit.UserIDHeader,
	})

	httpServer := &http.Server{
		Addr:         cfg.API.Addr,
		Handler:      app.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Printf("listening on %s", cfg.API.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Println("shutting down")
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	}
	if err := shutdownTracing(ctx); err != nil {
		logger.Printf("tracing shutdown failed: %v", err)
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
