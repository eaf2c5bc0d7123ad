package engine

import (
	"context"

	"github.com/c360/flowkit/workflow"
)

// Run is a workflow started by Launch
type Run struct {
	w    *workflow.Workflow
	done chan struct{}
	err  error
}

// Workflow returns the running workflow
func (r *Run) Workflow() *workflow.Workflow { return r.w }

// Done is closed when the run finishes
func (r *Run) Done() <-chan struct{} { return r.done }

// Wait blocks until the run finishes and returns its error, or until ctx is
// done. Giving up on ctx does not stop the run.
func (r *Run) Wait(ctx context.Context) error {
	select {
	case <-r.done:
		return r.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop asks every stage to abandon its buffer
func (r *Run) Stop() error { return r.w.Stop() }

// Pause asks every stage to block at its next checkpoint
func (r *Run) Pause() error { return r.w.Pause() }

// Resume releases every paused stage
func (r *Run) Resume() error { return r.w.Resume() }
