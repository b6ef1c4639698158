package jobs

import (
	"context"
	"fmt"
	"time"

	"receipt-backend/internal/categorize"
	"receipt-backend/internal/documents"
	"receipt-backend/internal/extract"
	"receipt-backend/internal/shared/metrics"
	"receipt-backend/internal/shared/telemetry"
)

// DocumentSource is the slice of document persistence a job touches.
type DocumentSource interface {
	Get(ctx context.Context, documentID string) (documents.Document, error)
	GetVersion(ctx context.Context, versionID string) (documents.Version, error)
	RecordExtraction(ctx context.Context, versionID, text string, meta map[string]any, at time.Time) error
	SetCategory(ctx context.Context, documentID, category string, at time.Time) error
}

// Runner executes OCR jobs: extract the version's text, then categorize
// the document. Every failure ends the job as FAILED with the error text.
type Runner struct {
	Repo        JobsRepo
	Docs        DocumentSource
	Extractor   extract.Extractor
	Categorizer *categorize.Categorizer
	Now         func() time.Time
}

// Run drives the job to a terminal status. It does not retry and does not
// undo state committed before a failure.
func (r *Runner) Run(ctx context.Context, jobID string) {
	job, err := r.Repo.Get(ctx, jobID)
	if err != nil {
		telemetry.Error("job.lookup_failed", map[string]any{
			"job_id": jobID,
			"error":  err,
		})
		return
	}

	startedAt := r.now()
	defer func() {
		if rec := recover(); rec != nil {
			r.fail(ctx, job, StatusRunning, fmt.Errorf("panic: %v", rec), startedAt)
		}
	}()

	if err := r.Repo.MarkRunning(ctx, job.ID, startedAt); err != nil {
		r.fail(ctx, job, StatusPending, fmt.Errorf("set running: %w", err), startedAt)
		return
	}
	metrics.IncJobStarted()
	logStatus(job, StatusRunning, StatusPending+"->"+StatusRunning, nil)

	if err := r.process(ctx, job); err != nil {
		r.fail(ctx, job, StatusRunning, err, startedAt)
		return
	}

	finishedAt := r.now()
	if err := r.Repo.MarkFinished(ctx, job.ID, StatusSuccess, nil, finishedAt); err != nil {
		r.fail(ctx, job, StatusRunning, fmt.Errorf("set success: %w", err), startedAt)
		return
	}
	durationMs := millisBetween(startedAt, finishedAt)
	metrics.IncJobSucceeded()
	metrics.ObserveJobDurationMs(durationMs)
	logStatus(job, StatusSuccess, StatusRunning+"->"+StatusSuccess, map[string]any{"duration_ms": durationMs})
}

func (r *Runner) process(ctx context.Context, job Job) error {
	version, err := r.Docs.GetVersion(ctx, job.VersionID)
	if err != nil {
		return fmt.Errorf("load version %s: %w", job.VersionID, err)
	}
	doc, err := r.Docs.Get(ctx, job.DocumentID)
	if err != nil {
		return fmt.Errorf("load document %s: %w", job.DocumentID, err)
	}

	result, err := r.Extractor.Extract(ctx, version.StorageKey, doc.MimeType)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}
	if err := r.Docs.RecordExtraction(ctx, version.ID, result.Text, result.Metadata, r.now()); err != nil {
		return fmt.Errorf("record extraction: %w", err)
	}

	categorizer := r.Categorizer
	if categorizer == nil {
		categorizer = categorize.New(categorize.DefaultRules)
	}
	category := categorizer.Categorize(doc.Title, result.Text)
	if err := r.Docs.SetCategory(ctx, doc.ID, category, r.now()); err != nil {
		return fmt.Errorf("set category: %w", err)
	}
	return nil
}

func (r *Runner) fail(ctx context.Context, job Job, from string, cause error, startedAt time.Time) {
	finishedAt := r.now()
	msg := cause.Error()
	// A finished job keeps its first outcome.
	if err := r.Repo.MarkFinished(context.WithoutCancel(ctx), job.ID, StatusFailed, &msg, finishedAt); err != nil {
		telemetry.Error("job.fail_update_failed", map[string]any{
			"job_id": job.ID,
			"error":  err,
			"cause":  msg,
		})
	}
	durationMs := millisBetween(startedAt, finishedAt)
	metrics.IncJobFailed()
	metrics.ObserveJobDurationMs(durationMs)
	logStatus(job, StatusFailed, from+"->"+StatusFailed, map[string]any{
		"duration_ms": durationMs,
		"error":       msg,
	})
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now().UTC()
}

func logStatus(job Job, status, transition string, extra map[string]any) {
	fields := map[string]any{
		"job_id":            job.ID,
		"user_id":           job.OwnerID,
		"document_id":       job.DocumentID,
		"version_id":        job.VersionID,
		"status":            status,
		"status_transition": transition,
	}
	for k, v := range extra {
		fields[k] = v
	}
	if status == StatusFailed {
		telemetry.Warn("job.status", fields)
		return
	}
	telemetry.Info("job.status", fields)
}

func millisBetween(start, end time.Time) float64 {
	return float64(end.Sub(start).Microseconds()) / 1000.0
}
