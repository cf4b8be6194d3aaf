package hostfuncs

import (
	"context"

	"github.com/scarter4work/bayesianastro/domain/entities"
	"github.com/scarter4work/bayesianastro/domain/ports"
	"github.com/scarter4work/bayesianastro/wireformat"
)

// FuncReportProgress is the exported name of the progress host function.
const FuncReportProgress = "report_progress"

type progressSinkKey struct{}

// WithProgressSink attaches the per-invocation progress sink to the context
// the blocking call is made with. The report_progress handler resolves the
// sink from there; a call without a sink is silently acknowledged.
func WithProgressSink(ctx context.Context, sink ports.ProgressSink) context.Context {
	return context.WithValue(ctx, progressSinkKey{}, sink)
}

// ProgressSinkFrom resolves the invocation's progress sink, if any.
func ProgressSinkFrom(ctx context.Context) (ports.ProgressSink, bool) {
	sink, ok := ctx.Value(progressSinkKey{}).(ports.ProgressSink)
	return sink, ok && sink != nil
}

// progressAck is the response to a report_progress call.
type progressAck struct {
	OK bool `json:"ok"`
}

// ProgressHandler returns the report_progress handler. It forwards guest
// progress to the sink carried in the invocation context, synchronously on
// the calling goroutine.
func ProgressHandler() ByteHandler {
	return NewJSONHandler(func(ctx context.Context, report wireformat.ProgressReport) progressAck {
		if sink, ok := ProgressSinkFrom(ctx); ok {
			sink(entities.ProgressEvent{Percent: report.Percent, Status: report.Status})
		}
		return progressAck{OK: true}
	})
}
