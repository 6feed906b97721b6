package worker

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/jpeg"
	"io"
	"log"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/pixeldrift/resizer/internal/domain"
	"github.com/pixeldrift/resizer/internal/queue"
	"github.com/pixeldrift/resizer/internal/resize"
	"github.com/pixeldrift/resizer/internal/store"
	"go.opentelemetry.io/otel"
)

func TestHandleResizeImageSuccess(t *testing.T) {
	jobStore := store.NewMemoryJobStore()
	seedJob(t, jobStore, "job-1", 32, 24)

	sender := &captureSender{}
	usage := &captureUsageStore{}
	s := newTestWorker(t, jobStore, usage, sender)

	task := buildTask(t, queue.ResizeImagePayload{
		JobID:         "job-1",
		InputJPEG:     testJPEGBase64(t, 64, 48),
		DesiredWidth:  32,
		DesiredHeight: 24,
		WebhookURL:    "https://example.com/hooks/resize",
		RequestedAt:   time.Now().UTC(),
	})

	if err := s.handleResizeImage(context.Background(), task); err != nil {
		t.Fatalf("handle task returned error: %v", err)
	}

	job, ok, err := jobStore.Get(context.Background(), "job-1")
	if err != nil || !ok {
		t.Fatalf("load job: ok=%v err=%v", ok, err)
	}
	if job.Status != domain.JobStatusSucceeded {
		t.Fatalf("expected succeeded status, got %s", job.Status)
	}
	if job.OutputBytes <= 0 {
		t.Fatalf("expected positive output_bytes, got %d", job.OutputBytes)
	}

	if sender.event != "job.completed" {
		t.Fatalf("expected job.completed webhook, got %q", sender.event)
	}
	output, _ := sender.body["output_jpeg"].(string)
	if output == "" {
		t.Fatal("expected webhook body to carry output_jpeg")
	}
	raw, err := resize.DecodeBlob(output)
	if err != nil {
		t.Fatalf("decode webhook output: %v", err)
	}
	img, err := jpeg.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("decode webhook jpeg: %v", err)
	}
	if img.Bounds().Dx() != 32 || img.Bounds().Dy() != 24 {
		t.Fatalf("expected 32x24 output, got %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	}

	if !usage.called {
		t.Fatal("expected usage log to be written")
	}
	if usage.log.PixelsProcessed != 32*24 {
		t.Fatalf("expected pixels_processed=%d, got %d", 32*24, usage.log.PixelsProcessed)
	}
	if usage.log.ComputeTimeMS < 1 {
		t.Fatalf("expected compute_time_ms to be at least 1, got %d", usage.log.ComputeTimeMS)
	}
}

func TestHandleResizeImageClientErrorSkipsRetry(t *testing.T) {
	jobStore := store.NewMemoryJobStore()
	seedJob(t, jobStore, "job-2", 0, 0)

	sender := &captureSender{}
	s := newTestWorker(t, jobStore, &captureUsageStore{}, sender)

	task := buildTask(t, queue.ResizeImagePayload{
		JobID:         "job-2",
		InputJPEG:     testJPEGBase64(t, 10, 10),
		DesiredWidth:  0,
		DesiredHeight: 0,
		WebhookURL:    "https://example.com/hooks/resize",
		RequestedAt:   time.Now().UTC(),
	})

	err := s.handleResizeImage(context.Background(), task)
	if err == nil {
		t.Fatal("expected error for invalid dimensions")
	}
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry for client error, got %v", err)
	}

	job, _, _ := jobStore.Get(context.Background(), "job-2")
	if job.Status != domain.JobStatusFailed {
		t.Fatalf("expected failed status, got %s", job.Status)
	}
	if job.Failure == "" {
		t.Fatal("expected failure reason to be recorded")
	}
	if sender.event != "job.failed" {
		t.Fatalf("expected job.failed webhook, got %q", sender.event)
	}
}

func TestDecodedSize(t *testing.T) {
	cases := []struct {
		blob string
		want int64
	}{
		{"", 0},
		{"aGVsbG8=", 5},
		{"aGVsbG8sIQ==", 7},
		{"aGVsbG8sIDE=", 8},
		{"aGVsbG8sIDEy", 9},
	}
	for _, tc := range cases {
		if got := decodedSize(tc.blob); got != tc.want {
			t.Fatalf("decodedSize(%q) = %d, want %d", tc.blob, got, tc.want)
		}
	}
}

type captureSender struct {
	event string
	body  map[string]any
}

func (c *captureSender) Send(_ context.Context, _, event string, payload any) error {
	c.event = event
	if body, ok := payload.(map[string]any); ok {
		c.body = body
	}
	return nil
}

type captureUsageStore struct {
	called bool
	log    domain.UsageLog
}

func (s *captureUsageStore) CreateUsageLog(_ context.Context, usage domain.UsageLog) error {
	s.called = true
	s.log = usage
	return nil
}

func newTestWorker(t *testing.T, jobStore store.JobStore, usageStore store.UsageStore, sender webhookSender) *Server {
	t.Helper()

	pipeline, err := resize.New()
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	return &Server{
		logger:        log.New(io.Discard, "", 0),
		sem:           make(chan struct{}, 1),
		pipeline:      pipeline,
		webhookClient: sender,
		jobStore:      jobStore,
		usageStore:    usageStore,
		metrics:       newMetrics(),
		tracer:        otel.Tracer("resizer/worker-test"),
	}
}

func seedJob(t *testing.T, jobStore store.JobStore, id string, w, h int) {
	t.Helper()

	now := time.Now().UTC()
	if err := jobStore.Create(context.Background(), domain.ResizeJob{
		ID:            id,
		Status:        domain.JobStatusQueued,
		DesiredWidth:  w,
		DesiredHeight: h,
		WebhookURL:    "https://example.com/hooks/resize",
		CreatedAt:     now,
		UpdatedAt:     now,
	}); err != nil {
		t.Fatalf("seed job: %v", err)
	}
}

func buildTask(t *testing.T, payload queue.ResizeImagePayload) *asynq.Task {
	t.Helper()

	task, err := queue.NewResizeImageTask(payload)
	if err != nil {
		t.Fatalf("build task: %v", err)
	}
	return task
}

func testJPEGBase64(t *testing.T, w, h int) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		t.Fatalf("encode test jpeg: %v", err)
	}
	return resize.EncodeBlob(buf.Bytes())
}
