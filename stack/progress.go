package stack

import (
	"github.com/scarter4work/bayesianastro/domain/entities"
	"github.com/scarter4work/bayesianastro/domain/ports"
)

// newMonotonicSink wraps a caller-supplied sink so that, over the lifetime
// of one invocation, percent values are clamped to [0,100] and never
// decrease. The guest's intermediate reports are best-effort; the wrapper
// keeps them well-formed for the host UI. A nil sink yields a no-op.
func newMonotonicSink(next ports.ProgressSink) ports.ProgressSink {
	if next == nil {
		return func(entities.ProgressEvent) {}
	}
	last := 0
	return func(ev entities.ProgressEvent) {
		if ev.Percent < 0 {
			ev.Percent = 0
		}
		if ev.Percent > 100 {
			ev.Percent = 100
		}
		if ev.Percent < last {
			ev.Percent = last
		}
		last = ev.Percent
		next(ev)
	}
}
