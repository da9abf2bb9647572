package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_InvalidSchedule(t *testing.T) {
	_, err := New("every now and then", func(context.Context) error { return nil }, false, zap.NewNop())
	assert.Error(t, err)
}

func TestScheduler_RunOnStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	s, err := New("@daily", func(context.Context) error {
		calls.Add(1)
		cancel()
		return nil
	}, true, zap.NewNop())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop after the context was cancelled")
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestScheduler_RunsOnSchedule(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	core, logs := observer.New(zapcore.DebugLevel)
	var calls atomic.Int32
	s, err := New("@every 1s", func(context.Context) error {
		calls.Add(1)
		return errors.New("remote unavailable")
	}, false, zap.New(core))
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	assert.Eventually(t, func() bool { return calls.Load() >= 1 }, 5*time.Second, 50*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	// Failures are logged and do not stop the scheduler.
	assert.NotZero(t, logs.FilterMessage("Scheduled run failed").Len())
}
