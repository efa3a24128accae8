package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestQueueProcessesAndDrainsOnStop(t *testing.T) {
	var mu sync.Mutex
	var seen []int
	q := New("test", func(_ context.Context, n int) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, n)
		return nil
	}, Config{Workers: 2, BufferSize: 100})

	q.Start(context.Background())
	for i := 0; i < 50; i++ {
		require.NoError(t, q.Enqueue(i))
	}
	q.Stop()

	assert.Len(t, seen, 50)
	assert.ErrorIs(t, q.Enqueue(99), ErrNotRunning)
}

func TestQueueRejectsBeforeStart(t *testing.T) {
	q := New("idle", func(context.Context, string) error { return nil }, Config{})
	assert.ErrorIs(t, q.Enqueue("x"), ErrNotRunning)
	q.Stop()
	q.Start(context.Background())
	assert.ErrorIs(t, q.Enqueue("x"), ErrNotRunning)
}

func TestQueueFull(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	q := New("slow", func(context.Context, int) error {
		started <- struct{}{}
		<-release
		return nil
	}, Config{Workers: 1, BufferSize: 1})
	q.Start(context.Background())

	require.NoError(t, q.Enqueue(1))
	<-started
	require.NoError(t, q.Enqueue(2))
	assert.ErrorIs(t, q.Enqueue(3), ErrQueueFull)

	close(release)
	q.Stop()
}

func TestQueueRetriesThenGivesUp(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	var calls atomic.Int32
	q := New("flaky", func(context.Context, int) error {
		calls.Add(1)
		return errors.New("insert failed")
	}, Config{MaxAttempts: 3, RetryDelay: time.Millisecond, Logger: zap.New(core)})

	q.Start(context.Background())
	require.NoError(t, q.Enqueue(1))
	q.Stop()

	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, 2, logs.FilterMessage("job failed, retrying").Len())
	assert.Equal(t, 1, logs.FilterMessage("job exceeded retries").Len())
}

func TestQueueRetrySucceeds(t *testing.T) {
	var calls atomic.Int32
	q := New("recovering", func(context.Context, int) error {
		if calls.Add(1) < 2 {
			return errors.New("transient")
		}
		return nil
	}, Config{RetryDelay: time.Millisecond})

	q.Start(context.Background())
	require.NoError(t, q.Enqueue(1))
	q.Stop()

	assert.Equal(t, int32(2), calls.Load())
}
