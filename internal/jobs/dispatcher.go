package jobs

import "context"

// Dispatcher hands a stored PENDING job to whatever executes it.
type Dispatcher interface {
	Dispatch(ctx context.Context, job Job)
}

// InlineDispatcher runs the job on the caller's goroutine, so the job is
// terminal when Dispatch returns.
type InlineDispatcher struct {
	Runner *Runner
}

func (d InlineDispatcher) Dispatch(ctx context.Context, job Job) {
	d.Runner.Run(ctx, job.ID)
}
