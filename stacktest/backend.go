// Package stacktest provides a fake foreign backend for testing the bridge
// without a wasm runtime. The fake counts lifecycle calls, scripts entry
// point responses, and can emit progress through the invocation context the
// way the real guest does.
package stacktest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/scarter4work/bayesianastro/domain/entities"
	"github.com/scarter4work/bayesianastro/foreignval"
	"github.com/scarter4work/bayesianastro/hostfuncs"
	"github.com/scarter4work/bayesianastro/wireformat"
)

// Handler scripts the response of one entry point.
type Handler func(ctx context.Context, payload []byte) ([]byte, error)

// Backend is a scriptable ports.ForeignModule.
type Backend struct {
	Handlers map[string]Handler

	// LoadErr makes Load fail; CallErr makes every Call fail.
	LoadErr error
	CallErr error

	// Calls records entry point names in invocation order.
	Calls []string

	// Payloads records the raw request bytes per call, parallel to Calls.
	Payloads [][]byte

	LoadCount  int
	CloseCount int

	loaded bool
}

// New creates an empty fake backend.
func New() *Backend {
	return &Backend{Handlers: make(map[string]Handler)}
}

// Load implements ports.ForeignModule.
func (b *Backend) Load(ctx context.Context, binary []byte) error {
	b.LoadCount++
	if b.LoadErr != nil {
		return b.LoadErr
	}
	b.loaded = true
	return nil
}

// Call implements ports.ForeignModule.
func (b *Backend) Call(ctx context.Context, entry string, payload []byte) ([]byte, error) {
	b.Calls = append(b.Calls, entry)
	b.Payloads = append(b.Payloads, payload)

	if !b.loaded {
		return nil, fmt.Errorf("stacktest: call %q before load", entry)
	}
	if b.CallErr != nil {
		return nil, b.CallErr
	}
	h, ok := b.Handlers[entry]
	if !ok {
		return nil, fmt.Errorf("stacktest: no handler scripted for %q", entry)
	}
	return h(ctx, payload)
}

// Close implements ports.ForeignModule.
func (b *Backend) Close(ctx context.Context) error {
	b.CloseCount++
	b.loaded = false
	return nil
}

// Handle scripts an entry point with a raw handler.
func (b *Backend) Handle(entry string, h Handler) *Backend {
	b.Handlers[entry] = h
	return b
}

// HandleValue scripts an entry point to return an encoded value tree.
func (b *Backend) HandleValue(entry string, v foreignval.Value) *Backend {
	return b.Handle(entry, func(ctx context.Context, payload []byte) ([]byte, error) {
		return foreignval.Encode(v)
	})
}

// HandleProcess scripts process_stack to emit the given progress events
// through the invocation's sink, then answer with resp.
func (b *Backend) HandleProcess(resp wireformat.ProcessResponse, events ...entities.ProgressEvent) *Backend {
	return b.Handle(wireformat.EntryProcessStack, func(ctx context.Context, payload []byte) ([]byte, error) {
		if sink, ok := hostfuncs.ProgressSinkFrom(ctx); ok {
			for _, ev := range events {
				sink(ev)
			}
		}
		return json.Marshal(resp)
	})
}

// HandleProcessFailure scripts process_stack to answer with a foreign error
// detail, the way a guest reports a caught pipeline exception.
func (b *Backend) HandleProcessFailure(message string) *Backend {
	return b.HandleProcess(wireformat.ProcessResponse{
		OK:    false,
		Error: entities.NewErrorDetail("foreign", message),
	})
}

// FailCall scripts an entry point to fail like a wasm trap.
func (b *Backend) FailCall(entry string, err error) *Backend {
	return b.Handle(entry, func(ctx context.Context, payload []byte) ([]byte, error) {
		return nil, err
	})
}
