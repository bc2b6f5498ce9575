package worker_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EgehanKilicarslan/sellerhub/backend-go/internal/testutil"
	"github.com/EgehanKilicarslan/sellerhub/backend-go/internal/worker"
)

func TestNewPool(t *testing.T) {
	pool := worker.NewPool(testutil.TestLogger())

	require.NotNil(t, pool)
	assert.NotNil(t, pool.Context())
}

func TestPoolSubmit(t *testing.T) {
	pool := worker.NewPool(testutil.TestLogger())

	var counter int32
	for i := 0; i < 10; i++ {
		pool.Submit("count", func(ctx context.Context) {
			atomic.AddInt32(&counter, 1)
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, pool.Wait(ctx))

	assert.Equal(t, int32(10), atomic.LoadInt32(&counter))
}

func TestPoolSubmitWithTimeout(t *testing.T) {
	pool := worker.NewPool(testutil.TestLogger())

	timedOut := make(chan bool, 1)
	pool.SubmitWithTimeout("slow", 50*time.Millisecond, func(ctx context.Context) {
		select {
		case <-ctx.Done():
			timedOut <- true
		case <-time.After(5 * time.Second):
			timedOut <- false
		}
	})

	select {
	case got := <-timedOut:
		assert.True(t, got)
	case <-time.After(2 * time.Second):
		t.Fatal("task did not observe its deadline")
	}
}

func TestPoolRecoversPanics(t *testing.T) {
	pool := worker.NewPool(testutil.TestLogger())

	var ran int32
	pool.Submit("panics", func(ctx context.Context) {
		panic("boom")
	})
	pool.Submit("after", func(ctx context.Context) {
		atomic.AddInt32(&ran, 1)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, pool.Wait(ctx))
	assert.Equal(t, int32(1), atomic.LoadInt32(&ran))
}

func TestPoolShutdownCancelsTasks(t *testing.T) {
	pool := worker.NewPool(testutil.TestLogger())

	started := make(chan struct{})
	pool.Submit("long", func(ctx context.Context) {
		close(started)
		<-ctx.Done()
	})
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, pool.Shutdown(ctx))

	assert.Error(t, pool.Context().Err())
}

func TestPoolShutdownDeadline(t *testing.T) {
	pool := worker.NewPool(testutil.TestLogger())

	release := make(chan struct{})
	defer close(release)
	pool.Submit("stubborn", func(ctx context.Context) {
		<-release
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, pool.Shutdown(ctx), context.DeadlineExceeded)
}

func TestPoolDropsTasksAfterShutdown(t *testing.T) {
	pool := worker.NewPool(testutil.TestLogger())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, pool.Shutdown(ctx))

	var ran int32
	pool.Submit("late", func(ctx context.Context) {
		atomic.AddInt32(&ran, 1)
	})

	require.NoError(t, pool.Wait(ctx))
	assert.Equal(t, int32(0), atomic.LoadInt32(&ran))
}
