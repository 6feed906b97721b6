package queue

import (
	"testing"
	"time"
)

func TestResizeImageTaskRoundTrip(t *testing.T) {
	payload := ResizeImagePayload{
		JobID:         "job-123",
		InputJPEG:     "aGVsbG8=",
		DesiredWidth:  640,
		DesiredHeight: 480,
		WebhookURL:    "https://example.com/hooks/resize",
		RequestedAt:   time.Now().UTC(),
	}

	task, err := NewResizeImageTask(payload)
	if err != nil {
		t.Fatalf("NewResizeImageTask returned error: %v", err)
	}

	parsed, err := ParseResizeImagePayload(task)
	if err != nil {
		t.Fatalf("ParseResizeImagePayload returned error: %v", err)
	}

	if parsed.JobID != payload.JobID {
		t.Fatalf("expected job_id %q, got %q", payload.JobID, parsed.JobID)
	}
	if parsed.InputJPEG != payload.InputJPEG {
		t.Fatalf("expected input payload to survive the round trip")
	}
	if parsed.DesiredWidth != 640 || parsed.DesiredHeight != 480 {
		t.Fatalf("expected 640x480, got %dx%d", parsed.DesiredWidth, parsed.DesiredHeight)
	}
}
