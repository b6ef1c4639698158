package jobs

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound          = errors.New("job not found")
	ErrInvalidTransition = errors.New("invalid job status transition")
)

// JobsRepo persists processing jobs.
type JobsRepo interface {
	Create(ctx context.Context, job Job) error
	Get(ctx context.Context, jobID string) (Job, error)
	GetForOwner(ctx context.Context, ownerID, jobID string) (Job, error)
	// MarkRunning moves a PENDING job to RUNNING.
	MarkRunning(ctx context.Context, jobID string, at time.Time) error
	// MarkFinished moves a PENDING or RUNNING job to status, which must be terminal.
	MarkFinished(ctx context.Context, jobID, status string, message *string, at time.Time) error
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]Job, error)
	ListAll(ctx context.Context, limit, offset int) ([]Job, error)
	DeleteByDocument(ctx context.Context, documentID string) error
}
