package ports

import "context"

// ForeignModule is the backend that hosts the foreign pipeline module.
// The production implementation embeds a wasm module through wazero; tests
// substitute a fake. Implementations are not safe for concurrent use - the
// engine serializes access.
type ForeignModule interface {
	// Load compiles and instantiates the module from its binary form.
	// A failed Load must leave the backend closeable but not callable.
	Load(ctx context.Context, binary []byte) error

	// Call invokes an exported entry point by name with an encoded request
	// payload and returns the encoded response payload. Calling an entry
	// point that does not exist, or calling before a successful Load, is an
	// error.
	Call(ctx context.Context, entry string, payload []byte) ([]byte, error)

	// Close releases the module and its runtime. Safe to call more than
	// once and after a failed Load.
	Close(ctx context.Context) error
}
