// Package process is the host-facing adapter: it owns the mutable parameter
// state a UI bridge wraps (configuration fields, file list, output
// location), checks the execute preconditions, and drives the invocation
// service with a status sink. Instances are not safe for concurrent use;
// the host serializes access, and the engine rejects overlapping runs.
package process

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/scarter4work/bayesianastro/domain/entities"
	"github.com/scarter4work/bayesianastro/stack"
)

// DefaultOutputPrefix matches the parameter default the host UI shows.
const DefaultOutputPrefix = "bayesian"

// StatusSink receives progress for the host's status/console facilities.
type StatusSink func(percent int, message string)

// Instance holds one process's parameter state.
type Instance struct {
	svc          *stack.Service
	status       StatusSink
	outputDir    string
	outputPrefix string
	files        entities.FileManifest
	log          zerolog.Logger
	config       entities.ProcessingConfig
}

// InstanceOption configures an Instance.
type InstanceOption func(*Instance)

// WithLogger sets the instance logger. Defaults to a nop logger.
func WithLogger(log zerolog.Logger) InstanceOption {
	return func(i *Instance) {
		i.log = log
	}
}

// WithStatusSink sets the host status sink Execute reports through.
func WithStatusSink(sink StatusSink) InstanceOption {
	return func(i *Instance) {
		i.status = sink
	}
}

// NewInstance creates an Instance with default parameters.
func NewInstance(svc *stack.Service, opts ...InstanceOption) *Instance {
	i := &Instance{
		svc:          svc,
		config:       entities.DefaultConfig(),
		outputPrefix: DefaultOutputPrefix,
		log:          zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Config returns a snapshot of the current configuration.
func (i *Instance) Config() entities.ProcessingConfig { return i.config }

// SetConfig replaces the whole configuration.
func (i *Instance) SetConfig(cfg entities.ProcessingConfig) { i.config = cfg }

// SetFusionStrategy sets the fusion strategy parameter.
func (i *Instance) SetFusionStrategy(s entities.FusionStrategy) { i.config.FusionStrategy = s }

// SetOutlierSigma sets the outlier rejection sigma parameter.
func (i *Instance) SetOutlierSigma(sigma float64) { i.config.OutlierSigma = sigma }

// SetConfidenceThreshold sets the confidence threshold parameter.
func (i *Instance) SetConfidenceThreshold(th float64) { i.config.ConfidenceThreshold = th }

// SetTileSize sets the processing tile dimensions.
func (i *Instance) SetTileSize(width, height int) {
	i.config.TileWidth = width
	i.config.TileHeight = height
}

// SetUseGPU toggles GPU acceleration.
func (i *Instance) SetUseGPU(enabled bool) { i.config.UseGPU = enabled }

// SetGenerateConfidenceMap toggles the confidence map artifact.
func (i *Instance) SetGenerateConfidenceMap(enabled bool) { i.config.GenerateConfidenceMap = enabled }

// Files returns a snapshot of the input file list in stacking order.
func (i *Instance) Files() entities.FileManifest { return i.files.Clone() }

// AddFiles appends frames to the input list, preserving order.
func (i *Instance) AddFiles(paths ...string) { i.files = append(i.files, paths...) }

// ClearFiles empties the input list.
func (i *Instance) ClearFiles() { i.files = nil }

// OutputDirectory returns the output directory parameter.
func (i *Instance) OutputDirectory() string { return i.outputDir }

// SetOutputDirectory sets the output directory parameter.
func (i *Instance) SetOutputDirectory(dir string) { i.outputDir = dir }

// OutputPrefix returns the output prefix parameter.
func (i *Instance) OutputPrefix() string { return i.outputPrefix }

// SetOutputPrefix sets the output prefix parameter.
func (i *Instance) SetOutputPrefix(prefix string) { i.outputPrefix = prefix }

// CanExecute checks the execute preconditions without touching the foreign
// layer. When execution is not possible it returns false and the reason.
func (i *Instance) CanExecute() (bool, string) {
	if i.files.IsEmpty() {
		return false, "No input files specified."
	}
	if i.outputDir == "" {
		return false, "No output directory specified."
	}
	if !i.svc.Engine().Ready() {
		return false, "Runtime not initialized."
	}
	return true, ""
}

// Execute runs the pipeline over the current parameter state, blocking
// until it finishes. A runtime that failed to initialize earlier is retried
// here before the precondition check; initialization failure stays
// non-fatal to the host.
func (i *Instance) Execute(ctx context.Context) entities.ProcessingResult {
	if !i.svc.Engine().Ready() {
		if err := i.svc.Engine().Initialize(ctx); err != nil {
			i.log.Error().Err(err).Msg("runtime initialization failed")
			return entities.ResultFailure(err.Error())
		}
	}

	if ok, reason := i.CanExecute(); !ok {
		return entities.ResultFailure(reason)
	}

	i.log.Info().Int("frames", len(i.files)).Msg("processing stack")

	sink := func(ev entities.ProgressEvent) {
		if i.status != nil {
			i.status(ev.Percent, ev.Status)
		}
	}

	result := i.svc.ProcessStack(ctx, i.files.Clone(), i.outputDir, i.outputPrefix, i.config, sink)
	if !result.Success {
		i.log.Error().Str("reason", result.ErrorMessage).Msg("processing failed")
		return result
	}

	log := i.log.Info().Str("fused", result.FusedImagePath)
	if result.ConfidenceMapPath != "" {
		log = log.Str("confidence_map", result.ConfidenceMapPath)
	}
	if result.Stats != nil {
		log = log.Float64("mean_confidence", result.Stats.MeanConfidence)
	}
	log.Msg("processing complete")
	return result
}
