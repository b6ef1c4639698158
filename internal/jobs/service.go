package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultListLimit = 100
	MaxListLimit     = 200
)

// Service records and dispatches processing jobs.
type Service struct {
	Repo       JobsRepo
	Dispatcher Dispatcher
	Now        func() time.Time
}

// NewService constructs a Service.
func NewService(repo JobsRepo, dispatcher Dispatcher) *Service {
	return &Service{
		Repo:       repo,
		Dispatcher: dispatcher,
		Now:        func() time.Time { return time.Now().UTC() },
	}
}

// Submit stores a PENDING OCR job for the version and dispatches it.
func (s *Service) Submit(ctx context.Context, ownerID, documentID, versionID string) error {
	if documentID == "" || versionID == "" {
		return errors.New("document and version are required")
	}
	job := Job{
		ID:         uuid.NewString(),
		DocumentID: documentID,
		VersionID:  versionID,
		OwnerID:    ownerID,
		Status:     StatusPending,
		TaskType:   TaskOCR,
		CreatedAt:  s.now(),
	}
	if err := s.Repo.Create(ctx, job); err != nil {
		return err
	}
	if s.Dispatcher != nil {
		s.Dispatcher.Dispatch(ctx, job)
	}
	return nil
}

// PurgeDocument removes all jobs of a document.
func (s *Service) PurgeDocument(ctx context.Context, documentID string) error {
	return s.Repo.DeleteByDocument(ctx, documentID)
}

// Get returns a job whose document belongs to ownerID.
func (s *Service) Get(ctx context.Context, ownerID, jobID string) (Job, error) {
	if _, err := uuid.Parse(jobID); err != nil {
		return Job{}, ErrNotFound
	}
	return s.Repo.GetForOwner(ctx, ownerID, jobID)
}

// List returns the owner's jobs, newest first.
func (s *Service) List(ctx context.Context, ownerID string, limit, offset int) ([]Job, error) {
	limit, offset = clampPage(limit, offset)
	return s.Repo.ListByOwner(ctx, ownerID, limit, offset)
}

// ListAll returns every job, newest first.
func (s *Service) ListAll(ctx context.Context, limit, offset int) ([]Job, error) {
	limit, offset = clampPage(limit, offset)
	return s.Repo.ListAll(ctx, limit, offset)
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
