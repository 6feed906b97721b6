package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/hibiken/asynq"
	"github.com/pixeldrift/resizer/internal/domain"
	"github.com/pixeldrift/resizer/internal/id"
	"github.com/pixeldrift/resizer/internal/queue"
	"github.com/pixeldrift/resizer/internal/resize"
	"github.com/pixeldrift/resizer/internal/store"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const defaultMaxBodyBytes = 64 << 20

type Server struct {
	logger                *log.Logger
	pipeline              *resize.Pipeline
	queueClient           queueEnqueuer
	jobStore              store.JobStore
	rateLimiter           RateLimiter
	rateLimitUserIDHeader string
	maxBodyBytes          int64
	metrics               *metrics
	tracer                trace.Tracer
	mux                   *http.ServeMux
}

type queueEnqueuer interface {
	EnqueueResizeImage(ctx context.Context, payload queue.ResizeImagePayload) (*asynq.TaskInfo, error)
}

// Config carries the adapter knobs that are not collaborators.
type Config struct {
	MaxBodyBytes          int64
	RateLimitUserIDHeader string
}

func NewServer(logger *log.Logger, pipeline *resize.Pipeline, queueClient queueEnqueuer, jobStore store.JobStore, rateLimiter RateLimiter, cfg Config) *Server {
	maxBodyBytes := cfg.MaxBodyBytes
	if maxBodyBytes <= 0 {
		maxBodyBytes = defaultMaxBodyBytes
	}
	userIDHeader := cfg.RateLimitUserIDHeader
	if userIDHeader == "" {
		userIDHeader = "X-User-ID"
	}
	if queueClient == nil {
		queueClient = unavailableQueue{}
	}

	s := &Server{
		logger:                logger,
		pipeline:              pipeline,
		queueClient:           queueClient,
		jobStore:              jobStore,
		rateLimiter:           rateLimiter,
		rateLimitUserIDHeader: userIDHeader,
		maxBodyBytes:          maxBodyBytes,
		metrics:               newMetrics(),
		tracer:                otel.Tracer("resizer/api"),
		mux:                   http.NewServeMux(),
	}
	s.routes()
	return s
}

type unavailableQueue struct{}

func (unavailableQueue) EnqueueResizeImage(context.Context, queue.ResizeImagePayload) (*asynq.TaskInfo, error) {
	return nil, errors.New("job queue is unavailable")
}

func (s *Server) Handler() http.Handler {
	return s.withTracing(s.withHTTPMetrics(s.withRateLimit(s.mux)))
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	s.mux.Handle("GET /metrics", s.metrics.metricsHandler())
	s.mux.HandleFunc("POST /resize_image", s.handleResizeImage)
	s.mux.HandleFunc("POST /v1/resize_jobs", s.handleCreateResizeJob)
	s.mux.HandleFunc("GET /v1/resize_jobs/{id}", s.handleGetResizeJob)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleResizeImage is the synchronous endpoint. Its wire format predates
// the v1 API and is kept as-is: the success code is the string "200" while
// error codes are numbers.
func (s *Server) handleResizeImage(w http.ResponseWriter, r *http.Request) {
	var req domain.ResizeRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.metrics.resizesTotal.WithLabelValues("sync", "rejected").Inc()
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"code":    http.StatusBadRequest,
			"message": "Invalid input: " + err.Error(),
		})
		return
	}

	output, err := s.pipeline.Resize(r.Context(), req.InputJPEG, req.DesiredWidth, req.DesiredHeight)
	if err != nil {
		if resize.IsClientError(err) {
			s.metrics.resizesTotal.WithLabelValues("sync", "rejected").Inc()
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"code":    http.StatusBadRequest,
				"message": "Invalid input: " + err.Error(),
			})
			return
		}
		s.metrics.resizesTotal.WithLabelValues("sync", "failed").Inc()
		s.logger.Printf("resize failed width=%d height=%d err=%v", req.DesiredWidth, req.DesiredHeight, err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"code":    http.StatusInternalServerError,
			"message": "Internal server error: " + err.Error(),
		})
		return
	}

	s.metrics.resizesTotal.WithLabelValues("sync", "succeeded").Inc()
	writeJSON(w, http.StatusOK, map[string]any{
		"code":        "200",
		"message":     "success",
		"output_jpeg": output,
	})
}

func (s *Server) handleCreateResizeJob(w http.ResponseWriter, r *http.Request) {
	if s.jobStore == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "deferred jobs are not configured"})
		return
	}

	var req domain.CreateResizeJobRequest
	if err := s.decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	// Fail fast on anything the worker would reject anyway, so broken
	// requests never reach the queue.
	if err := resize.ValidateDimensions(req.DesiredWidth, req.DesiredHeight); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	raw, err := resize.DecodeBlob(req.InputJPEG)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if len(raw) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "input_jpeg decodes to an empty payload"})
		return
	}

	now := time.Now().UTC()
	job := domain.ResizeJob{
		ID:            id.New(),
		Status:        domain.JobStatusCreated,
		DesiredWidth:  req.DesiredWidth,
		DesiredHeight: req.DesiredHeight,
		WebhookURL:    req.WebhookURL,
		InputBytes:    int64(len(raw)),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.jobStore.Create(r.Context(), job); err != nil {
		s.logger.Printf("create job failed job_id=%s err=%v", job.ID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create job"})
		return
	}

	payload := queue.ResizeImagePayload{
		JobID:         job.ID,
		InputJPEG:     req.InputJPEG,
		DesiredWidth:  req.DesiredWidth,
		DesiredHeight: req.DesiredHeight,
		WebhookURL:    req.WebhookURL,
		RequestedAt:   now,
	}

	taskInfo, err := s.queueClient.EnqueueResizeImage(r.Context(), payload)
	if err != nil {
		s.logger.Printf("enqueue failed job_id=%s err=%v", job.ID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to enqueue job"})
		return
	}

	if _, err := s.jobStore.UpdateStatus(r.Context(), job.ID, domain.JobStatusQueued); err != nil {
		s.logger.Printf("update status failed job_id=%s err=%v", job.ID, err)
	}
	s.metrics.queueEnqueued.WithLabelValues(taskInfo.Queue).Inc()

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":  job.ID,
		"status":  domain.JobStatusQueued,
		"queue":   taskInfo.Queue,
		"task_id": taskInfo.ID,
	})
}

func (s *Server) handleGetResizeJob(w http.ResponseWriter, r *http.Request) {
	if s.jobStore == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "deferred jobs are not configured"})
		return
	}

	jobID := r.PathValue("id")
	job, ok, err := s.jobStore.Get(r.Context(), jobID)
	if err != nil {
		s.logger.Printf("fetch job failed job_id=%s err=%v", jobID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load job"})
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "job not found"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"job_id":         job.ID,
		"status":         job.Status,
		"desired_width":  job.DesiredWidth,
		"desired_height": job.DesiredHeight,
		"input_bytes":    job.InputBytes,
		"output_bytes":   job.OutputBytes,
		"failure":        job.Failure,
		"created_at":     job.CreatedAt,
		"updated_at":     job.UpdatedAt,
	})
}

func (s *Server) decodeJSON(r *http.Request, into any) error {
	limited := io.LimitReader(r.Body, s.maxBodyBytes)
	decoder := json.NewDecoder(limited)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(into); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return errors.New("invalid JSON body: multiple JSON values are not allowed")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
