package jobs

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// PGRepo implements JobsRepo using Postgres. Owners come from the parent
// document row.
type PGRepo struct {
	DB *sql.DB
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var jobColumns = []string{
	"j.id",
	"j.document_id",
	"j.version_id",
	"d.owner_id",
	"j.status",
	"j.task_type",
	"j.message",
	"j.created_at",
	"j.started_at",
	"j.finished_at",
}

func (r *PGRepo) Create(ctx context.Context, job Job) error {
	const query = `
INSERT INTO processing_jobs (id, document_id, version_id, status, task_type, message, created_at, started_at, finished_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.DB.ExecContext(ctx, query,
		job.ID,
		job.DocumentID,
		job.VersionID,
		job.Status,
		job.TaskType,
		job.Message,
		job.CreatedAt,
		job.StartedAt,
		job.FinishedAt,
	)
	return err
}

func (r *PGRepo) Get(ctx context.Context, jobID string) (Job, error) {
	return r.getWhere(ctx, sq.Eq{"j.id": jobID})
}

func (r *PGRepo) GetForOwner(ctx context.Context, ownerID, jobID string) (Job, error) {
	return r.getWhere(ctx, sq.Eq{"j.id": jobID, "d.owner_id": ownerID})
}

func (r *PGRepo) MarkRunning(ctx context.Context, jobID string, at time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE processing_jobs SET status = $2, started_at = $3 WHERE id = $1 AND status = $4`,
		jobID, StatusRunning, at, StatusPending,
	)
	return r.checkTransition(ctx, jobID, res, err)
}

func (r *PGRepo) MarkFinished(ctx context.Context, jobID, status string, message *string, at time.Time) error {
	if status != StatusSuccess && status != StatusFailed {
		return ErrInvalidTransition
	}
	res, err := r.DB.ExecContext(ctx,
		`UPDATE processing_jobs SET status = $2, message = COALESCE($3, message), finished_at = $4 WHERE id = $1 AND status IN ($5, $6)`,
		jobID, status, message, at, StatusPending, StatusRunning,
	)
	return r.checkTransition(ctx, jobID, res, err)
}

func (r *PGRepo) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]Job, error) {
	return r.list(ctx, r.selectJobs().Where(sq.Eq{"d.owner_id": ownerID}), limit, offset)
}

func (r *PGRepo) ListAll(ctx context.Context, limit, offset int) ([]Job, error) {
	return r.list(ctx, r.selectJobs(), limit, offset)
}

func (r *PGRepo) DeleteByDocument(ctx context.Context, documentID string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM processing_jobs WHERE document_id = $1`, documentID)
	return err
}

func (r *PGRepo) selectJobs() sq.SelectBuilder {
	return psql.Select(jobColumns...).
		From("processing_jobs j").
		Join("documents d ON d.id = j.document_id")
}

func (r *PGRepo) getWhere(ctx context.Context, pred sq.Eq) (Job, error) {
	query, args, err := r.selectJobs().Where(pred).ToSql()
	if err != nil {
		return Job{}, err
	}
	job, err := scanJob(r.DB.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return Job{}, ErrNotFound
	}
	return job, err
}

func (r *PGRepo) list(ctx context.Context, builder sq.SelectBuilder, limit, offset int) ([]Job, error) {
	builder = builder.OrderBy("j.created_at DESC", "j.id DESC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}
	if offset > 0 {
		builder = builder.Offset(uint64(offset))
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Job{}
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

func (r *PGRepo) checkTransition(ctx context.Context, jobID string, res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil || n > 0 {
		return err
	}
	var exists bool
	if err := r.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM processing_jobs WHERE id = $1)`, jobID,
	).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrInvalidTransition
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(row scanner) (Job, error) {
	var job Job
	var message sql.NullString
	var startedAt, finishedAt sql.NullTime
	if err := row.Scan(
		&job.ID,
		&job.DocumentID,
		&job.VersionID,
		&job.OwnerID,
		&job.Status,
		&job.TaskType,
		&message,
		&job.CreatedAt,
		&startedAt,
		&finishedAt,
	); err != nil {
		return Job{}, err
	}
	if message.Valid {
		job.Message = &message.String
	}
	if startedAt.Valid {
		job.StartedAt = &startedAt.Time
	}
	if finishedAt.Valid {
		job.FinishedAt = &finishedAt.Time
	}
	return job, nil
}
