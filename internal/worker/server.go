package worker

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/pixeldrift/resizer/internal/config"
	"github.com/pixeldrift/resizer/internal/domain"
	"github.com/pixeldrift/resizer/internal/queue"
	"github.com/pixeldrift/resizer/internal/resize"
	"github.com/pixeldrift/resizer/internal/store"
	"github.com/pixeldrift/resizer/internal/webhook"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Server consumes deferred resize tasks. The image rides inside the task
// payload; outputs leave only through the webhook, so nothing is ever
// written to disk or the database beyond job metadata.
type Server struct {
	logger        *log.Logger
	server        *asynq.Server
	sem           chan struct{}
	pipeline      *resize.Pipeline
	webhookClient webhookSender
	jobStore      store.JobStore
	usageStore    store.UsageStore
	metrics       *metrics
	tracer        trace.Tracer
}

type webhookSender interface {
	Send(ctx context.Context, endpoint, event string, payload any) error
}

func NewServer(
	logger *log.Logger,
	queueCfg config.QueueConfig,
	workerCfg config.WorkerConfig,
	webhookClient *webhook.Client,
	jobStore store.JobStore,
	usageStore store.UsageStore,
) (*Server, error) {
	pipeline, err := resize.New()
	if err != nil {
		return nil, fmt.Errorf("initialize resize pipeline: %w", err)
	}

	if usageStore == nil {
		if jobAndUsageStore, ok := jobStore.(store.UsageStore); ok {
			usageStore = jobAndUsageStore
		}
	}

	s := &Server{
		logger: logger,
		server: asynq.NewServer(
			queueCfg.RedisClientOpt(),
			asynq.Config{
				Concurrency: workerCfg.Concurrency,
				Queues: map[string]int{
					queueCfg.Name: 1,
				},
				LogLevel: asynq.InfoLevel,
				ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
					retried, _ := asynq.GetRetryCount(ctx)
					maxRetry, _ := asynq.GetMaxRetry(ctx)
					logger.Printf("task failed type=%s retry=%d/%d err=%v", task.Type(), retried, maxRetry, err)
				}),
			},
		),
		sem:           make(chan struct{}, max(1, workerCfg.MaxActiveJobs)),
		pipeline:      pipeline,
		webhookClient: webhookClient,
		jobStore:      jobStore,
		usageStore:    usageStore,
		metrics:       newMetrics(),
		tracer:        otel.Tracer("resizer/worker"),
	}
	return s, nil
}

func (s *Server) Run() error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TypeResizeImage, s.handleResizeImage)
	return s.server.Run(mux)
}

func (s *Server) MetricsHandler() http.Handler {
	return s.metrics.Handler()
}

func (s *Server) handleResizeImage(ctx context.Context, task *asynq.Task) error {
	startedAt := time.Now()
	outcome := domain.JobStatusFailed

	payload, err := queue.ParseResizeImagePayload(task)
	if err != nil {
		return fmt.Errorf("parse payload: %v: %w", err, asynq.SkipRetry)
	}

	ctx, span := s.tracer.Start(ctx, "worker.resize_image", trace.WithSpanKind(trace.SpanKindConsumer))
	span.SetAttributes(
		attribute.String("job.id", payload.JobID),
		attribute.Int("job.desired_width", payload.DesiredWidth),
		attribute.Int("job.desired_height", payload.DesiredHeight),
	)
	defer span.End()
	defer func() {
		s.metrics.jobDuration.WithLabelValues(outcome).Observe(time.Since(startedAt).Seconds())
		s.metrics.jobsTotal.WithLabelValues(outcome).Inc()
	}()

	s.sem <- struct{}{}
	s.metrics.activeJobs.Inc()
	defer func() {
		<-s.sem
		s.metrics.activeJobs.Dec()
	}()

	s.logger.Printf(
		"Working... job_id=%s target=%dx%d input_b64_len=%d",
		payload.JobID,
		payload.DesiredWidth,
		payload.DesiredHeight,
		len(payload.InputJPEG),
	)

	s.updateJobStatus(ctx, payload.JobID, domain.JobStatusProcessing)

	output, err := s.pipeline.Resize(ctx, payload.InputJPEG, payload.DesiredWidth, payload.DesiredHeight)
	if err != nil {
		s.finishJob(ctx, payload.JobID, domain.JobStatusFailed, 0, err.Error())
		span.RecordError(err)
		span.SetStatus(codes.Error, "resize failed")
		s.dispatchWebhook(ctx, payload, "job.failed", map[string]any{
			"job_id":       payload.JobID,
			"status":       domain.JobStatusFailed,
			"requested_at": payload.RequestedAt,
			"failed_at":    time.Now().UTC(),
			"error":        err.Error(),
		})
		if resize.IsClientError(err) {
			// The payload itself is broken; retrying cannot fix it.
			return fmt.Errorf("resize rejected: %v: %w", err, asynq.SkipRetry)
		}
		return fmt.Errorf("run resize pipeline: %w", err)
	}

	outputBytes := decodedSize(output)
	s.logger.Printf("Processed job_id=%s output_bytes=%d", payload.JobID, outputBytes)
	s.finishJob(ctx, payload.JobID, domain.JobStatusSucceeded, outputBytes, "")
	s.recordUsage(ctx, payload, outputBytes, time.Since(startedAt))

	if err := s.dispatchWebhook(ctx, payload, "job.completed", map[string]any{
		"job_id":       payload.JobID,
		"status":       domain.JobStatusSucceeded,
		"requested_at": payload.RequestedAt,
		"completed_at": time.Now().UTC(),
		"output_jpeg":  output,
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "webhook dispatch failed")
		return err
	}

	outcome = domain.JobStatusSucceeded
	span.SetStatus(codes.Ok, "processed")
	return nil
}

func (s *Server) updateJobStatus(ctx context.Context, jobID, status string) {
	if s.jobStore == nil {
		return
	}
	if _, err := s.jobStore.UpdateStatus(ctx, jobID, status); err != nil {
		s.logger.Printf("job status update failed job_id=%s status=%s err=%v", jobID, status, err)
	}
}

func (s *Server) finishJob(ctx context.Context, jobID, status string, outputBytes int64, failure string) {
	if s.jobStore == nil {
		return
	}
	if _, err := s.jobStore.Finish(ctx, jobID, status, outputBytes, failure); err != nil {
		s.logger.Printf("job finish failed job_id=%s status=%s err=%v", jobID, status, err)
	}
}

func (s *Server) dispatchWebhook(ctx context.Context, payload queue.ResizeImagePayload, event string, body map[string]any) error {
	if payload.WebhookURL == "" || s.webhookClient == nil {
		return nil
	}

	if err := s.webhookClient.Send(ctx, payload.WebhookURL, event, body); err != nil {
		s.logger.Printf("webhook delivery failed job_id=%s event=%s err=%v", payload.JobID, event, err)
		return fmt.Errorf("dispatch webhook: %w", err)
	}

	return nil
}

func (s *Server) recordUsage(ctx context.Context, payload queue.ResizeImagePayload, outputBytes int64, computeDuration time.Duration) {
	if s.usageStore == nil {
		return
	}

	pixelsProcessed := int64(payload.DesiredWidth) * int64(payload.DesiredHeight)
	inputBytes := decodedSize(payload.InputJPEG)

	computeTimeMS := computeDuration.Milliseconds()
	if computeTimeMS < 1 {
		computeTimeMS = 1
	}

	usage := domain.UsageLog{
		JobID:           payload.JobID,
		PixelsProcessed: pixelsProcessed,
		InputBytes:      inputBytes,
		OutputBytes:     outputBytes,
		ComputeTimeMS:   computeTimeMS,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.usageStore.CreateUsageLog(ctx, usage); err != nil {
		s.logger.Printf("usage log write failed job_id=%s err=%v", payload.JobID, err)
		return
	}

	s.metrics.pixelsProcessedTotal.Add(float64(pixelsProcessed))
	s.metrics.inputBytesTotal.Add(float64(inputBytes))
	s.metrics.outputBytesTotal.Add(float64(outputBytes))
	s.metrics.computeTimeMSTotal.Add(float64(computeTimeMS))
}

// decodedSize computes the byte length a base64 blob decodes to without
// decoding it.
func decodedSize(blob string) int64 {
	n := int64(len(blob))
	if n == 0 {
		return 0
	}
	var padding int64
	if strings.HasSuffix(blob, "==") {
		padding = 2
	} else if strings.HasSuffix(blob, "=") {
		padding = 1
	}
	return n/4*3 - padding
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
