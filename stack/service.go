// Package stack implements the pipeline invocation service: building the
// encoded request, issuing the blocking process_stack call, streaming
// progress back to the caller, and translating foreign outcomes into
// native results. Foreign faults never escape as Go errors from here.
package stack

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/scarter4work/bayesianastro/domain/entities"
	"github.com/scarter4work/bayesianastro/domain/errors"
	"github.com/scarter4work/bayesianastro/domain/ports"
	"github.com/scarter4work/bayesianastro/engine"
	"github.com/scarter4work/bayesianastro/foreignval"
	"github.com/scarter4work/bayesianastro/hostfuncs"
	"github.com/scarter4work/bayesianastro/wireformat"
)

// Service issues pipeline invocations against a ready engine.
type Service struct {
	eng *engine.Engine
	log zerolog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the service logger. Defaults to a nop logger.
func WithLogger(log zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.log = log
	}
}

// NewService creates a Service over the given engine.
func NewService(eng *engine.Engine, opts ...ServiceOption) *Service {
	s := &Service{eng: eng, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Engine returns the underlying engine.
func (s *Service) Engine() *engine.Engine {
	return s.eng
}

// ProcessStack runs the fusion pipeline over the given frames, blocking
// until the foreign side returns or fails. Preconditions are checked before
// any foreign call; a violation yields a failure result with a reason and
// no progress callbacks. onProgress is invoked at least at 0% and, on
// success, at 100%; intermediate events are forwarded from the guest
// best-effort.
func (s *Service) ProcessStack(
	ctx context.Context,
	files entities.FileManifest,
	outputDir, outputPrefix string,
	cfg entities.ProcessingConfig,
	onProgress ports.ProgressSink,
) entities.ProcessingResult {
	if !s.eng.Ready() {
		return precondition("runtime not initialized")
	}
	if files.IsEmpty() {
		return precondition("no input files specified")
	}
	if outputDir == "" {
		return precondition("no output directory specified")
	}
	if outputPrefix == "" {
		return precondition("no output prefix specified")
	}
	if err := cfg.Validate(); err != nil {
		return precondition(err.Error())
	}

	// Marshal before touching the foreign layer; unsafe input is a local
	// error, not a foreign call.
	request := wireformat.ProcessRequestValue(files, OutputStem(outputDir, outputPrefix), cfg)
	payload, err := foreignval.Encode(request)
	if err != nil {
		s.log.Error().Err(err).Msg("request marshaling rejected")
		return entities.ResultFailure(err.Error())
	}

	if err := s.eng.Acquire(); err != nil {
		return entities.ResultFailure(err.Error())
	}
	defer s.eng.Release()

	sink := newMonotonicSink(onProgress)
	sink(entities.ProgressEvent{Percent: 0, Status: "Loading frames..."})

	ctx = hostfuncs.WithProgressSink(ctx, sink)
	s.log.Info().Int("frames", len(files)).Str("strategy", cfg.FusionStrategy.String()).Msg("invoking pipeline")

	respBytes, err := s.eng.Backend().Call(ctx, wireformat.EntryProcessStack, payload)
	if err != nil {
		// The trap is consumed here; the module instance stays usable.
		ferr := &errors.ForeignError{Entry: wireformat.EntryProcessStack, Detail: errors.ToErrorDetail(err)}
		s.log.Error().Err(ferr).Msg("pipeline invocation faulted")
		return entities.ResultFailure(ferr.Error())
	}

	var resp wireformat.ProcessResponse
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		s.log.Error().Err(err).Msg("malformed pipeline response")
		return entities.ResultFailuref("malformed pipeline response: %v", err)
	}

	if !resp.OK {
		msg := "processing failed"
		if resp.Error != nil && resp.Error.Message != "" {
			msg = resp.Error.Message
		}
		s.log.Error().Str("reason", msg).Msg("pipeline reported failure")
		return entities.ResultFailure(msg)
	}

	// Artifact paths are derived natively from the naming contract, never
	// re-queried from the foreign side.
	result := entities.ProcessingResult{
		Success:        true,
		FusedImagePath: FusedImagePath(outputDir, outputPrefix),
		Stats:          resp.Stats,
	}
	if cfg.GenerateConfidenceMap {
		result.ConfidenceMapPath = ConfidenceMapPath(outputDir, outputPrefix)
	}

	sink(entities.ProgressEvent{Percent: 100, Status: "Complete"})
	return result
}

func precondition(reason string) entities.ProcessingResult {
	err := &errors.PreconditionError{Reason: reason}
	return entities.ResultFailure(err.Error())
}
