package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const TypeResizeImage = "image:resize"

// ResizeImagePayload carries a deferred resize through Redis. The image
// travels inside the task and is never written anywhere else; once the task
// completes only job metadata remains.
type ResizeImagePayload struct {
	JobID         string    `json:"job_id"`
	InputJPEG     string    `json:"input_jpeg"`
	DesiredWidth  int       `json:"desired_width"`
	DesiredHeight int       `json:"desired_height"`
	WebhookURL    string    `json:"webhook_url"`
	RequestedAt   time.Time `json:"requested_at"`
}

func NewResizeImageTask(payload ResizeImagePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal resize payload: %w", err)
	}
	return asynq.NewTask(TypeResizeImage, body), nil
}

func ParseResizeImagePayload(task *asynq.Task) (ResizeImagePayload, error) {
	var payload ResizeImagePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return ResizeImagePayload{}, fmt.Errorf("unmarshal resize payload: %w", err)
	}
	return payload, nil
}
