package stack

import (
	"context"

	"github.com/scarter4work/bayesianastro/domain/entities"
)

// Request bundles the inputs of one pipeline invocation for the async
// wrapper.
type Request struct {
	Files        entities.FileManifest
	OutputDir    string
	OutputPrefix string
	Config       entities.ProcessingConfig
}

// Job is one pipeline invocation running in the background. Progress is
// delivered on a channel instead of a direct callback; the blocking core
// contract underneath is unchanged. Cancelling the context abandons event
// delivery and Wait, but cannot interrupt the foreign run: there is no
// interrupt path into the runtime, and the invocation holds the engine's
// invocation slot until it returns.
type Job struct {
	events chan entities.ProgressEvent
	done   chan struct{}
	result entities.ProcessingResult
}

// Run starts a pipeline invocation in the background.
func (s *Service) Run(ctx context.Context, req Request) *Job {
	j := &Job{
		events: make(chan entities.ProgressEvent, 16),
		done:   make(chan struct{}),
	}

	sink := func(ev entities.ProgressEvent) {
		select {
		case j.events <- ev:
		case <-ctx.Done():
		default:
			// A slow consumer loses intermediate events, never the result.
		}
	}

	go func() {
		defer close(j.done)
		j.result = s.ProcessStack(ctx, req.Files, req.OutputDir, req.OutputPrefix, req.Config, sink)
		close(j.events)
	}()

	return j
}

// Events returns the progress stream. It is closed when the invocation
// finishes.
func (j *Job) Events() <-chan entities.ProgressEvent {
	return j.events
}

// Done returns a channel closed when the invocation finishes.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Wait blocks until the invocation finishes or the context is cancelled.
func (j *Job) Wait(ctx context.Context) (entities.ProcessingResult, error) {
	select {
	case <-j.done:
		return j.result, nil
	case <-ctx.Done():
		return entities.ProcessingResult{}, ctx.Err()
	}
}
