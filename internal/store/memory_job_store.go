package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/pixeldrift/resizer/internal/domain"
)

var ErrJobNotFound = errors.New("resize job not found")

type MemoryJobStore struct {
	mu    sync.RWMutex
	jobs  map[string]domain.ResizeJob
	usage []domain.UsageLog
}

func NewMemoryJobStore() *MemoryJobStore {
	return &MemoryJobStore{
		jobs: make(map[string]domain.ResizeJob),
	}
}

func (s *MemoryJobStore) Create(_ context.Context, job domain.ResizeJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
	return nil
}

func (s *MemoryJobStore) Get(_ context.Context, id string) (domain.ResizeJob, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	return job, ok, nil
}

func (s *MemoryJobStore) UpdateStatus(_ context.Context, id, status string) (domain.ResizeJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return domain.ResizeJob{}, ErrJobNotFound
	}

	job.Status = status
	job.UpdatedAt = time.Now().UTC()
	s.jobs[id] = job
	return job, nil
}

func (s *MemoryJobStore) Finish(_ context.Context, id, status string, outputBytes int64, failure string) (domain.ResizeJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return domain.ResizeJob{}, ErrJobNotFound
	}

	job.Status = status
	job.OutputBytes = outputBytes
	job.Failure = failure
	job.UpdatedAt = time.Now().UTC()
	s.jobs[id] = job
	return job, nil
}

func (s *MemoryJobStore) CreateUsageLog(_ context.Context, usage domain.UsageLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usage = append(s.usage, usage)
	return nil
}
