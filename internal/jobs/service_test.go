package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDispatcher struct {
	jobs []Job
}

func (d *recordingDispatcher) Dispatch(_ context.Context, job Job) {
	d.jobs = append(d.jobs, job)
}

func TestSubmitStoresPendingJobAndDispatches(t *testing.T) {
	repo := NewMemoryRepo()
	dispatcher := &recordingDispatcher{}
	svc := NewService(repo, dispatcher)
	ctx := context.Background()

	require.NoError(t, svc.Submit(ctx, "owner-1", "doc-1", "ver-1"))
	require.Len(t, dispatcher.jobs, 1)

	job := dispatcher.jobs[0]
	assert.Equal(t, StatusPending, job.Status)
	assert.Equal(t, TaskOCR, job.TaskType)
	assert.Nil(t, job.StartedAt)

	stored, err := svc.Get(ctx, "owner-1", job.ID)
	require.NoError(t, err)
	assert.Equal(t, "ver-1", stored.VersionID)

	_, err = svc.Get(ctx, "owner-2", job.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Get(ctx, "owner-1", "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Error(t, svc.Submit(ctx, "owner-1", "", "ver-1"))
}

func TestListScopesAndPurges(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo, nil)
	base := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	svc.Now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	ctx := context.Background()

	require.NoError(t, svc.Submit(ctx, "owner-1", "doc-1", "v1"))
	require.NoError(t, svc.Submit(ctx, "owner-1", "doc-2", "v2"))
	require.NoError(t, svc.Submit(ctx, "owner-2", "doc-3", "v3"))

	mine, err := svc.List(ctx, "owner-1", 0, 0)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "doc-2", mine[0].DocumentID)

	all, err := svc.ListAll(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "doc-3", all[0].DocumentID)

	require.NoError(t, svc.PurgeDocument(ctx, "doc-1"))
	mine, err = svc.List(ctx, "owner-1", 0, 0)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "doc-2", mine[0].DocumentID)
}

func TestMemoryRepoTransitions(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	at := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, Job{ID: "j1", Status: StatusPending, CreatedAt: at}))

	assert.ErrorIs(t, repo.MarkFinished(ctx, "j1", StatusRunning, nil, at), ErrInvalidTransition)
	require.NoError(t, repo.MarkRunning(ctx, "j1", at))
	assert.ErrorIs(t, repo.MarkRunning(ctx, "j1", at), ErrInvalidTransition)

	msg := "done"
	require.NoError(t, repo.MarkFinished(ctx, "j1", StatusSuccess, &msg, at.Add(time.Second)))
	assert.ErrorIs(t, repo.MarkFinished(ctx, "j1", StatusFailed, nil, at), ErrInvalidTransition)
	assert.ErrorIs(t, repo.MarkRunning(ctx, "missing", at), ErrNotFound)

	job, err := repo.Get(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, job.Status)
	assert.True(t, job.Terminal())
	assert.Equal(t, "done", *job.Message)
}
