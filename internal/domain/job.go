package domain

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	JobStatusCreated    = "created"
	JobStatusQueued     = "queued"
	JobStatusProcessing = "processing"
	JobStatusSucceeded  = "succeeded"
	JobStatusFailed     = "failed"
)

// ResizeRequest is the synchronous /resize_image body. Dimension range and
// payload checks live in the resize core; this only guards field presence.
type ResizeRequest struct {
	InputJPEG     string `json:"input_jpeg"`
	DesiredWidth  int    `json:"desired_width"`
	DesiredHeight int    `json:"desired_height"`
}

func (r ResizeRequest) Validate() error {
	if strings.TrimSpace(r.InputJPEG) == "" {
		return errors.New("input_jpeg is required")
	}
	return nil
}

// CreateResizeJobRequest is the deferred-job variant. Results are delivered
// by webhook only; the service never stores the image itself.
type CreateResizeJobRequest struct {
	ResizeRequest
	WebhookURL string `json:"webhook_url"`
}

func (r CreateResizeJobRequest) Validate() error {
	if err := r.ResizeRequest.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(r.WebhookURL) == "" {
		return errors.New("webhook_url is required for deferred jobs")
	}
	u, err := url.Parse(r.WebhookURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("webhook_url must be an absolute http(s) URL: %s", r.WebhookURL)
	}
	return nil
}

// ResizeJob is the stored record of a deferred resize. It carries metadata
// only, never image bytes.
type ResizeJob struct {
	ID            string
	Status        string
	DesiredWidth  int
	DesiredHeight int
	WebhookURL    string
	InputBytes    int64
	OutputBytes   int64
	Failure       string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// UsageLog aggregates per-job accounting written after a job finishes.
type UsageLog struct {
	JobID           string
	PixelsProcessed int64
	InputBytes      int64
	OutputBytes     int64
	ComputeTimeMS   int64
	CreatedAt       time.Time
}
