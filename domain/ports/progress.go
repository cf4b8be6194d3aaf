package ports

import "github.com/scarter4work/bayesianastro/domain/entities"

// ProgressSink receives progress notifications during one invocation.
// It is invoked synchronously on the calling goroutine and must be fast and
// non-blocking; the pipeline stalls while it runs.
type ProgressSink func(entities.ProgressEvent)
