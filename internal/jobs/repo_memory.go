package jobs

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of JobsRepo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Job
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Job)}
}

func (r *MemoryRepo) Create(ctx context.Context, job Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[job.ID] = cloneJob(job)
	return nil
}

func (r *MemoryRepo) Get(ctx context.Context, jobID string) (Job, error) {
	if err := ctx.Err(); err != nil {
		return Job{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.data[jobID]
	if !ok {
		return Job{}, ErrNotFound
	}
	return cloneJob(job), nil
}

func (r *MemoryRepo) GetForOwner(ctx context.Context, ownerID, jobID string) (Job, error) {
	job, err := r.Get(ctx, jobID)
	if err != nil {
		return Job{}, err
	}
	if job.OwnerID != ownerID {
		return Job{}, ErrNotFound
	}
	return job, nil
}

func (r *MemoryRepo) MarkRunning(ctx context.Context, jobID string, at time.Time) error {
	return r.transition(ctx, jobID, func(job *Job) error {
		if job.Status != StatusPending {
			return ErrInvalidTransition
		}
		job.Status = StatusRunning
		job.StartedAt = &at
		return nil
	})
}

func (r *MemoryRepo) MarkFinished(ctx context.Context, jobID, status string, message *string, at time.Time) error {
	if status != StatusSuccess && status != StatusFailed {
		return ErrInvalidTransition
	}
	return r.transition(ctx, jobID, func(job *Job) error {
		if job.Terminal() {
			return ErrInvalidTransition
		}
		job.Status = status
		if message != nil {
			m := *message
			job.Message = &m
		}
		job.FinishedAt = &at
		return nil
	})
}

func (r *MemoryRepo) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]Job, error) {
	return r.list(ctx, func(job Job) bool { return job.OwnerID == ownerID }, limit, offset)
}

func (r *MemoryRepo) ListAll(ctx context.Context, limit, offset int) ([]Job, error) {
	return r.list(ctx, func(Job) bool { return true }, limit, offset)
}

func (r *MemoryRepo) DeleteByDocument(ctx context.Context, documentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, job := range r.data {
		if job.DocumentID == documentID {
			delete(r.data, id)
		}
	}
	return nil
}

func (r *MemoryRepo) transition(ctx context.Context, jobID string, apply func(*Job) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.data[jobID]
	if !ok {
		return ErrNotFound
	}
	if err := apply(&job); err != nil {
		return err
	}
	r.data[jobID] = job
	return nil
}

func (r *MemoryRepo) list(ctx context.Context, keep func(Job) bool, limit, offset int) ([]Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []Job{}
	for _, job := range r.data {
		if keep(job) {
			out = append(out, cloneJob(job))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if offset >= len(out) {
		return []Job{}, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func cloneJob(job Job) Job {
	if job.Message != nil {
		m := *job.Message
		job.Message = &m
	}
	if job.StartedAt != nil {
		t := *job.StartedAt
		job.StartedAt = &t
	}
	if job.FinishedAt != nil {
		t := *job.FinishedAt
		job.FinishedAt = &t
	}
	return job
}
