package wazero

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scarter4work/bayesianastro/hostfuncs"
)

func newTestRegistry(t *testing.T) *hostfuncs.HandlerRegistry {
	t.Helper()
	registry, err := hostfuncs.NewRegistry()
	require.NoError(t, err)
	return registry
}

func TestNewDefaults(t *testing.T) {
	b := New(newTestRegistry(t))

	assert.Equal(t, DefaultHostModuleName, b.cfg.hostModuleName)
	assert.Equal(t, DefaultMaxRequestSize, b.cfg.maxRequestSize)
	assert.Empty(t, b.cfg.mounts)
}

func TestBackendOptions(t *testing.T) {
	b := New(newTestRegistry(t),
		WithHostModuleName("custom_host"),
		WithMaxRequestSize(2048),
		WithReadOnlyDirMount("/data/frames", "/frames"),
		WithDirMount("/data/out", "/out"),
	)

	assert.Equal(t, "custom_host", b.cfg.hostModuleName)
	assert.Equal(t, uint32(2048), b.cfg.maxRequestSize)
	require.Len(t, b.cfg.mounts, 2)
	assert.True(t, b.cfg.mounts[0].readOnly)
	assert.Equal(t, "/data/frames", b.cfg.mounts[0].dir)
	assert.False(t, b.cfg.mounts[1].readOnly)
	assert.Equal(t, "/out", b.cfg.mounts[1].guestPath)
}

func TestPackUnpackPtrLen(t *testing.T) {
	tests := []struct {
		ptr    uint32
		length uint32
	}{
		{0, 0},
		{1, 1},
		{0xFFFFFFFF, 0xFFFFFFFF},
		{0x12345678, 0x9ABCDEF0},
		{100, 50},
	}

	for _, tt := range tests {
		packed := packPtrLen(tt.ptr, tt.length)
		gotPtr, gotLen := unpackPtrLen(packed)

		assert.Equal(t, tt.ptr, gotPtr)
		assert.Equal(t, tt.length, gotLen)
	}
}

func TestCallBeforeLoad(t *testing.T) {
	b := New(newTestRegistry(t))

	_, err := b.Call(context.Background(), "process_stack", []byte("{}"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "before load")
}

func TestCloseBeforeLoad(t *testing.T) {
	b := New(newTestRegistry(t))
	assert.NoError(t, b.Close(context.Background()))
	assert.NoError(t, b.Close(context.Background()))
}

func TestLoadRejectsInvalidBinary(t *testing.T) {
	b := New(newTestRegistry(t))
	defer b.Close(context.Background()) //nolint:errcheck

	err := b.Load(context.Background(), []byte("not a wasm binary"))
	require.Error(t, err)

	// A failed load leaves the backend reusable.
	assert.NoError(t, b.Close(context.Background()))
}
