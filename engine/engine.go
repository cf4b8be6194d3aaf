// Package engine owns the single foreign runtime instance of the process:
// locating the pipeline module, verifying its manifest, loading it into the
// backend, and tearing it down exactly once. One Engine per process; all
// lifecycle transitions serialize on an internal mutex.
package engine

import (
	"context"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/scarter4work/bayesianastro/domain/entities"
	"github.com/scarter4work/bayesianastro/domain/errors"
	"github.com/scarter4work/bayesianastro/domain/ports"
)

// Engine manages the lifecycle of the embedded pipeline module.
type Engine struct {
	backend     ports.ForeignModule
	cond        *sync.Cond
	manifest    *entities.ModuleManifest
	modulePath  string
	runtimeHome string
	searchPaths []string
	log         zerolog.Logger
	mu          sync.Mutex
	state       State
	inflight    bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithRuntimeHome sets the runtime home directory, searched for the module
// before the configured search paths.
func WithRuntimeHome(dir string) Option {
	return func(e *Engine) {
		e.runtimeHome = dir
	}
}

// WithSearchPaths sets the directories searched for the module binary, in
// order. The first directory containing it wins.
func WithSearchPaths(paths ...string) Option {
	return func(e *Engine) {
		e.searchPaths = paths
	}
}

// WithLogger sets the engine's logger. Defaults to a nop logger.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// New creates an Engine over the given backend. The backend is owned by the
// engine from here on: the engine loads it on Initialize and closes it on
// Shutdown or failed initialization.
func New(backend ports.ForeignModule, opts ...Option) *Engine {
	e := &Engine{
		backend: backend,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.cond = sync.NewCond(&e.mu)
	return e
}

// Initialize brings the runtime to Ready. It is idempotent: when already
// Ready it returns immediately without reloading the module. On failure at
// any stage the backend is closed, the engine transitions to Terminated,
// and a typed error is returned; the process is never left half-initialized.
// A Terminated engine may retry on a later call.
func (e *Engine) Initialize(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case StateReady:
		return nil
	case StateInitializing, StateShuttingDown:
		return &errors.PreconditionError{Reason: "runtime is " + e.state.String()}
	}

	e.state = StateInitializing

	fail := func(stage string, err error) error {
		// Release partial resources; a failed init must not leak the backend.
		_ = e.backend.Close(ctx)
		e.state = StateTerminated
		ierr := &errors.InitializationError{Stage: stage, Err: err}
		e.log.Error().Err(ierr).Msg("runtime initialization failed")
		return ierr
	}

	path, err := e.locateModule()
	if err != nil {
		return fail("locate", err)
	}

	manifest, err := loadManifest(path)
	if err != nil {
		return fail("manifest", err)
	}

	binary, err := os.ReadFile(path)
	if err != nil {
		return fail("read", err)
	}

	if err := e.backend.Load(ctx, binary); err != nil {
		return fail("load", err)
	}

	e.modulePath = path
	e.manifest = manifest
	e.state = StateReady
	e.log.Info().Str("module", path).Msg("runtime ready")
	return nil
}

// Shutdown tears the runtime down exactly once. It is a no-op when never
// initialized and idempotent after the first call. It blocks until any
// in-flight invocation returns.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for e.inflight {
		e.cond.Wait()
	}

	if e.state != StateReady {
		// Never initialized, already terminated, or failed init (which
		// closed the backend itself).
		return nil
	}

	e.state = StateShuttingDown
	err := e.backend.Close(ctx)
	e.state = StateTerminated
	e.cond.Broadcast()
	if err != nil {
		e.log.Warn().Err(err).Msg("runtime teardown reported an error")
		return err
	}
	e.log.Info().Msg("runtime terminated")
	return nil
}

// Ready reports whether the runtime is loaded and invocable.
func (e *Engine) Ready() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state == StateReady
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Manifest returns the verified module manifest, or nil when the module
// ships without one or the engine is not Ready.
func (e *Engine) Manifest() *entities.ModuleManifest {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.manifest
}

// ModulePath returns the resolved path of the loaded module binary.
func (e *Engine) ModulePath() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.modulePath
}

// Acquire marks an invocation in flight. At most one invocation runs at a
// time; an overlapping attempt is rejected rather than queued. Shutdown
// waits for Release.
func (e *Engine) Acquire() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateReady {
		return &errors.PreconditionError{Reason: "runtime not initialized"}
	}
	if e.inflight {
		return &errors.PreconditionError{Reason: "an invocation is already in flight"}
	}
	e.inflight = true
	return nil
}

// Release marks the in-flight invocation finished.
func (e *Engine) Release() {
	e.mu.Lock()
	e.inflight = false
	e.cond.Broadcast()
	e.mu.Unlock()
}

// Backend exposes the loaded module for the invocation service. Callers
// must hold the invocation slot via Acquire for stateful entry points.
func (e *Engine) Backend() ports.ForeignModule {
	return e.backend
}
