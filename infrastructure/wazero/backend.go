// Package wazero adapts the wazero runtime to the ports.ForeignModule
// backend the engine drives: compiling the pipeline module, exposing the
// host function registry to the guest, and invoking exported entry points
// over the packed i64 ptr/len ABI.
package wazero

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/scarter4work/bayesianastro/hostfuncs"
)

// DefaultHostModuleName is the import namespace the guest binds host
// functions from.
const DefaultHostModuleName = "bayesianastro_host"

// DefaultMaxRequestSize limits guest-to-host request payloads (1 MiB).
const DefaultMaxRequestSize uint32 = 1 << 20

type mount struct {
	dir       string
	guestPath string
	readOnly  bool
}

type backendConfig struct {
	hostModuleName string
	mounts         []mount
	maxRequestSize uint32
}

// BackendOption configures a Backend.
type BackendOption func(*Backend)

// WithHostModuleName overrides the host import namespace.
func WithHostModuleName(name string) BackendOption {
	return func(b *Backend) {
		b.cfg.hostModuleName = name
	}
}

// WithMaxRequestSize limits the size of guest-to-host request payloads.
func WithMaxRequestSize(size uint32) BackendOption {
	return func(b *Backend) {
		b.cfg.maxRequestSize = size
	}
}

// WithReadOnlyDirMount preopens a host directory read-only for the guest,
// used for frame directories.
func WithReadOnlyDirMount(dir, guestPath string) BackendOption {
	return func(b *Backend) {
		b.cfg.mounts = append(b.cfg.mounts, mount{dir: dir, guestPath: guestPath, readOnly: true})
	}
}

// WithDirMount preopens a host directory read-write for the guest, used for
// the output directory.
func WithDirMount(dir, guestPath string) BackendOption {
	return func(b *Backend) {
		b.cfg.mounts = append(b.cfg.mounts, mount{dir: dir, guestPath: guestPath})
	}
}

// WithLogger sets the backend logger. Defaults to a nop logger.
func WithLogger(log zerolog.Logger) BackendOption {
	return func(b *Backend) {
		b.log = log
	}
}

// Backend implements ports.ForeignModule over wazero.
type Backend struct {
	registry *hostfuncs.HandlerRegistry
	runtime  wazero.Runtime
	module   api.Module
	log      zerolog.Logger
	cfg      backendConfig
}

// New creates a Backend exposing the given host function registry to the
// guest. Nothing is instantiated until Load.
func New(registry *hostfuncs.HandlerRegistry, opts ...BackendOption) *Backend {
	b := &Backend{
		registry: registry,
		log:      zerolog.Nop(),
		cfg: backendConfig{
			hostModuleName: DefaultHostModuleName,
			maxRequestSize: DefaultMaxRequestSize,
		},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Load implements ports.ForeignModule.
func (b *Backend) Load(ctx context.Context, binary []byte) error {
	if b.runtime != nil {
		return fmt.Errorf("wazero: module already loaded")
	}

	rt := wazero.NewRuntime(ctx)
	fail := func(err error) error {
		_ = rt.Close(ctx)
		return err
	}

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		return fail(fmt.Errorf("wazero: instantiating WASI: %w", err))
	}
	if err := b.registerHostModule(ctx, rt); err != nil {
		return fail(fmt.Errorf("wazero: registering host functions: %w", err))
	}

	compiled, err := rt.CompileModule(ctx, binary)
	if err != nil {
		return fail(fmt.Errorf("wazero: compiling module: %w", err))
	}

	fsCfg := wazero.NewFSConfig()
	for _, m := range b.cfg.mounts {
		if m.readOnly {
			fsCfg = fsCfg.WithReadOnlyDirMount(m.dir, m.guestPath)
		} else {
			fsCfg = fsCfg.WithDirMount(m.dir, m.guestPath)
		}
	}

	mod, err := rt.InstantiateModule(ctx, compiled,
		wazero.NewModuleConfig().WithFSConfig(fsCfg).WithStartFunctions("_initialize"))
	if err != nil {
		return fail(fmt.Errorf("wazero: instantiating module: %w", err))
	}

	if mod.ExportedFunction("allocate") == nil {
		return fail(fmt.Errorf("wazero: guest does not export 'allocate'"))
	}

	b.runtime = rt
	b.module = mod
	return nil
}

// Call implements ports.ForeignModule. The request payload is written into
// guest memory through the guest's allocate export and passed as a packed
// ptr/len i64; the response comes back the same way and is copied out of
// guest memory before returning.
func (b *Backend) Call(ctx context.Context, entry string, payload []byte) ([]byte, error) {
	if b.module == nil {
		return nil, fmt.Errorf("wazero: call %q before load", entry)
	}

	fn := b.module.ExportedFunction(entry)
	if fn == nil {
		return nil, fmt.Errorf("wazero: export %q not found", entry)
	}

	var results []uint64
	var err error
	if len(payload) == 0 {
		results, err = fn.Call(ctx)
	} else {
		ptr, werr := b.writeGuestMemory(ctx, payload)
		if werr != nil {
			return nil, werr
		}
		results, err = fn.Call(ctx, packPtrLen(ptr, uint32(len(payload))))
	}
	if err != nil {
		return nil, fmt.Errorf("wazero: calling %q: %w", entry, err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	ptr, length := unpackPtrLen(results[0])
	if ptr == 0 || length == 0 {
		return nil, fmt.Errorf("wazero: %q returned a null response", entry)
	}
	data, ok := b.module.Memory().Read(ptr, length)
	if !ok {
		return nil, fmt.Errorf("wazero: reading %q response from guest memory", entry)
	}

	// Copy out: guest memory may move on the next allocation.
	out := make([]byte, length)
	copy(out, data)
	return out, nil
}

// Close implements ports.ForeignModule.
func (b *Backend) Close(ctx context.Context) error {
	if b.runtime == nil {
		return nil
	}
	err := b.runtime.Close(ctx)
	b.runtime = nil
	b.module = nil
	return err
}

// registerHostModule exports every handler from the registry under the
// configured namespace using the packed i64 ptr/len convention.
func (b *Backend) registerHostModule(ctx context.Context, rt wazero.Runtime) error {
	builder := rt.NewHostModuleBuilder(b.cfg.hostModuleName)

	for _, name := range b.registry.Names() {
		funcName := name // capture for closure
		builder.NewFunctionBuilder().
			WithGoModuleFunction(api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
				b.handleHostCall(ctx, mod, stack, funcName)
			}), []api.ValueType{api.ValueTypeI64}, []api.ValueType{api.ValueTypeI64}).
			Export(funcName)
	}

	_, err := builder.Instantiate(ctx)
	return err
}

// handleHostCall reads the request from guest memory, invokes the handler,
// and writes the response back.
func (b *Backend) handleHostCall(ctx context.Context, mod api.Module, stack []uint64, name string) {
	ptr, length := unpackPtrLen(stack[0])

	if length > b.cfg.maxRequestSize {
		errMsg := fmt.Sprintf("request size %d exceeds maximum %d bytes", length, b.cfg.maxRequestSize)
		b.log.Error().Str("function", name).Msg(errMsg)
		stack[0] = b.writeErrorResponse(ctx, mod, hostfuncs.NewValidationError(errMsg))
		return
	}

	requestBytes, ok := mod.Memory().Read(ptr, length)
	if !ok {
		errMsg := "failed to read request from guest memory"
		b.log.Error().Str("function", name).Msg(errMsg)
		stack[0] = b.writeErrorResponse(ctx, mod, hostfuncs.NewInternalError(errMsg))
		return
	}

	responseBytes, err := b.registry.Invoke(ctx, name, requestBytes)
	if err != nil {
		b.log.Error().Str("function", name).Err(err).Msg("host function invocation failed")
		stack[0] = b.writeErrorResponse(ctx, mod, hostfuncs.NewInternalError(err.Error()))
		return
	}

	stack[0] = b.writeResponse(ctx, mod, responseBytes)
}

func (b *Backend) writeGuestMemory(ctx context.Context, data []byte) (uint32, error) {
	allocate := b.module.ExportedFunction("allocate")
	if allocate == nil {
		return 0, fmt.Errorf("wazero: guest does not export 'allocate'")
	}
	results, err := allocate.Call(ctx, uint64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("wazero: guest allocate failed: %w", err)
	}
	if len(results) == 0 {
		return 0, fmt.Errorf("wazero: guest allocate returned no results")
	}
	ptr := uint32(results[0]) //nolint:gosec // G115: WASM32 pointers are always 32-bit
	if !b.module.Memory().Write(ptr, data) {
		return 0, fmt.Errorf("wazero: writing to guest memory")
	}
	return ptr, nil
}

// writeResponse allocates memory in the guest and writes response bytes.
// Returns packed ptr+len or 0 on failure.
func (b *Backend) writeResponse(ctx context.Context, mod api.Module, data []byte) uint64 {
	allocate := mod.ExportedFunction("allocate")
	if allocate == nil {
		b.log.Error().Msg("guest module missing 'allocate' export")
		return 0
	}
	results, err := allocate.Call(ctx, uint64(len(data)))
	if err != nil {
		b.log.Error().Err(err).Msg("guest allocate failed")
		return 0
	}
	ptr := uint32(results[0]) //nolint:gosec // G115: WASM32 pointers are always 32-bit
	if !mod.Memory().Write(ptr, data) {
		b.log.Error().Msg("writing response to guest memory failed")
		return 0
	}
	return packPtrLen(ptr, uint32(len(data))) //nolint:gosec // G115: length bounded by maxRequestSize
}

func (b *Backend) writeErrorResponse(ctx context.Context, mod api.Module, errResp hostfuncs.ErrorResponse) uint64 {
	return b.writeResponse(ctx, mod, errResp.ToJSON())
}

// packPtrLen packs a pointer and length into a single i64.
// Upper 32 bits: pointer, lower 32 bits: length.
func packPtrLen(ptr, length uint32) uint64 {
	return (uint64(ptr) << 32) | uint64(length)
}

// unpackPtrLen unpacks a pointer and length from a packed i64.
func unpackPtrLen(packed uint64) (ptr, length uint32) {
	ptr = uint32(packed >> 32)           //nolint:gosec // G115: packed format stores 32-bit values
	length = uint32(packed & 0xFFFFFFFF) //nolint:gosec // G115: packed format stores 32-bit values
	return ptr, length
}
