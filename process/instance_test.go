package process

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scarter4work/bayesianastro/domain/entities"
	"github.com/scarter4work/bayesianastro/engine"
	"github.com/scarter4work/bayesianastro/stack"
	"github.com/scarter4work/bayesianastro/stacktest"
	"github.com/scarter4work/bayesianastro/wireformat"
)

func newService(t *testing.T, backend *stacktest.Backend) *stack.Service {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "BayesianAstro.wasm"), []byte("\x00asm"), 0o644))
	return stack.NewService(engine.New(backend, engine.WithSearchPaths(dir)))
}

func TestInstance_Defaults(t *testing.T) {
	inst := NewInstance(newService(t, stacktest.New()))

	assert.Equal(t, entities.DefaultConfig(), inst.Config())
	assert.Empty(t, inst.Files())
	assert.Empty(t, inst.OutputDirectory())
	assert.Equal(t, "bayesian", inst.OutputPrefix())
}

func TestInstance_ParameterSurface(t *testing.T) {
	inst := NewInstance(newService(t, stacktest.New()))

	inst.SetFusionStrategy(entities.StrategyLucky)
	inst.SetOutlierSigma(2.5)
	inst.SetConfidenceThreshold(0.4)
	inst.SetTileSize(512, 256)
	inst.SetUseGPU(false)
	inst.SetGenerateConfidenceMap(false)

	cfg := inst.Config()
	assert.Equal(t, entities.StrategyLucky, cfg.FusionStrategy)
	assert.Equal(t, 2.5, cfg.OutlierSigma)
	assert.Equal(t, 0.4, cfg.ConfidenceThreshold)
	assert.Equal(t, 512, cfg.TileWidth)
	assert.Equal(t, 256, cfg.TileHeight)
	assert.False(t, cfg.UseGPU)
	assert.False(t, cfg.GenerateConfidenceMap)

	inst.AddFiles("/frames/a.fits", "/frames/b.fits")
	inst.AddFiles("/frames/c.fits")
	assert.Equal(t, entities.FileManifest{"/frames/a.fits", "/frames/b.fits", "/frames/c.fits"}, inst.Files())

	// The snapshot is a copy, not a live view.
	files := inst.Files()
	files[0] = "/elsewhere.fits"
	assert.Equal(t, "/frames/a.fits", inst.Files()[0])

	inst.ClearFiles()
	assert.Empty(t, inst.Files())
}

func TestInstance_CanExecute(t *testing.T) {
	svc := newService(t, stacktest.New())
	inst := NewInstance(svc)

	// The empty manifest is rejected here, before the core is invoked.
	ok, reason := inst.CanExecute()
	assert.False(t, ok)
	assert.Equal(t, "No input files specified.", reason)

	inst.AddFiles("/frames/a.fits")
	ok, reason = inst.CanExecute()
	assert.False(t, ok)
	assert.Equal(t, "No output directory specified.", reason)

	inst.SetOutputDirectory("/tmp/x")
	ok, reason = inst.CanExecute()
	assert.False(t, ok)
	assert.Equal(t, "Runtime not initialized.", reason)

	require.NoError(t, svc.Engine().Initialize(context.Background()))
	ok, reason = inst.CanExecute()
	assert.True(t, ok)
	assert.Empty(t, reason)
}

func TestInstance_Execute(t *testing.T) {
	backend := stacktest.New().HandleProcess(wireformat.ProcessResponse{
		OK:    true,
		Stats: &entities.StackStats{TotalPixels: 100, MeanConfidence: 0.9},
	})
	svc := newService(t, backend)

	var percents []int
	inst := NewInstance(svc, WithStatusSink(func(percent int, message string) {
		percents = append(percents, percent)
	}))
	inst.AddFiles("/frames/a.fits", "/frames/b.fits")
	inst.SetOutputDirectory("/tmp/x")
	inst.SetOutputPrefix("run1")

	res := inst.Execute(context.Background())
	require.True(t, res.Success, res.ErrorMessage)
	assert.Equal(t, "/tmp/x/run1_fused.fits", res.FusedImagePath)
	assert.Equal(t, "/tmp/x/run1_confidence.fits", res.ConfidenceMapPath)

	// Execute initialized the runtime lazily exactly once.
	assert.Equal(t, 1, backend.LoadCount)
	assert.True(t, svc.Engine().Ready())

	require.NotEmpty(t, percents)
	assert.Equal(t, 0, percents[0])
	assert.Equal(t, 100, percents[len(percents)-1])
}

func TestInstance_Execute_EmptyManifest(t *testing.T) {
	backend := stacktest.New()
	inst := NewInstance(newService(t, backend))
	inst.SetOutputDirectory("/tmp/x")

	res := inst.Execute(context.Background())
	assert.False(t, res.Success)
	assert.Equal(t, "No input files specified.", res.ErrorMessage)
	assert.Empty(t, backend.Calls, "precondition failures never reach the core")
}

func TestInstance_Execute_InitFailureIsNonFatal(t *testing.T) {
	backend := stacktest.New().HandleProcess(wireformat.ProcessResponse{OK: true})
	backend.LoadErr = errors.New("corrupt module")
	svc := newService(t, backend)

	inst := NewInstance(svc)
	inst.AddFiles("/frames/a.fits")
	inst.SetOutputDirectory("/tmp/x")

	res := inst.Execute(context.Background())
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.ErrorMessage)

	// Retried lazily on the next attempt once the cause clears.
	backend.LoadErr = nil
	res = inst.Execute(context.Background())
	assert.True(t, res.Success, res.ErrorMessage)
}
