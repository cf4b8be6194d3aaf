package stack

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scarter4work/bayesianastro/domain/entities"
	"github.com/scarter4work/bayesianastro/stacktest"
	"github.com/scarter4work/bayesianastro/wireformat"
)

func TestJob_Success(t *testing.T) {
	backend := stacktest.New().HandleProcess(
		wireformat.ProcessResponse{OK: true},
		entities.ProgressEvent{Percent: 50, Status: "Fusing tiles"},
	)
	svc := newReadyService(t, backend)

	job := svc.Run(context.Background(), Request{
		Files:        testFiles,
		OutputDir:    "/tmp/x",
		OutputPrefix: "run1",
		Config:       entities.DefaultConfig(),
	})

	var events []entities.ProgressEvent
	for ev := range job.Events() {
		events = append(events, ev)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, err := job.Wait(ctx)
	require.NoError(t, err)
	require.True(t, res.Success, res.ErrorMessage)
	assert.Equal(t, "/tmp/x/run1_fused.fits", res.FusedImagePath)

	require.NotEmpty(t, events)
	assert.Equal(t, 0, events[0].Percent)
	assert.Equal(t, 100, events[len(events)-1].Percent)
}

func TestJob_Failure(t *testing.T) {
	backend := stacktest.New().HandleProcessFailure("frame 2 unreadable")
	svc := newReadyService(t, backend)

	job := svc.Run(context.Background(), Request{
		Files:        testFiles,
		OutputDir:    "/tmp/x",
		OutputPrefix: "run1",
		Config:       entities.DefaultConfig(),
	})

	<-job.Done()
	res, err := job.Wait(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.ErrorMessage, "frame 2 unreadable")
}

func TestJob_WaitCancellation(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	backend := stacktest.New().Handle(wireformat.EntryProcessStack,
		func(ctx context.Context, payload []byte) ([]byte, error) {
			close(started)
			<-release
			return []byte(`{"ok":true}`), nil
		})
	svc := newReadyService(t, backend)

	job := svc.Run(context.Background(), Request{
		Files:        testFiles,
		OutputDir:    "/tmp/x",
		OutputPrefix: "run1",
		Config:       entities.DefaultConfig(),
	})
	<-started

	// Cancellation abandons Wait; the foreign run itself is not
	// interruptible and completes on its own.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := job.Wait(ctx)
	require.ErrorIs(t, err, context.Canceled)

	close(release)
	res, err := job.Wait(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Success)
}
