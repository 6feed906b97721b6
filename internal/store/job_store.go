package store

import (
	"context"

	"github.com/pixeldrift/resizer/internal/domain"
)

type JobStore interface {
	Create(ctx context.Context, job domain.ResizeJob) error
	Get(ctx context.Context, id string) (domain.ResizeJob, bool, error)
	UpdateStatus(ctx context.Context, id, status string) (domain.ResizeJob, error)
	// Finish records the terminal status along with the output size on
	// success or the failure reason on error.
	Finish(ctx context.Context, id, status string, outputBytes int64, failure string) (domain.ResizeJob, error)
}

type UsageStore interface {
	CreateUsageLog(ctx context.Context, usage domain.UsageLog) error
}
