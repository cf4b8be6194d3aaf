package hostfuncs

import "github.com/rs/zerolog"

// DefaultRegistry builds the registry every production runtime gets:
// report_progress and log_message behind panic recovery and debug tracing.
func DefaultRegistry(log zerolog.Logger) (*HandlerRegistry, error) {
	return NewRegistry(
		WithMiddleware(PanicRecoveryMiddleware(), LoggingMiddleware(log)),
		WithByteHandler(FuncReportProgress, ProgressHandler()),
		WithByteHandler(FuncLogMessage, LogHandler(log)),
	)
}
