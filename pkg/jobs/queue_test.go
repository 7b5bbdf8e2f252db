package jobs

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingHandler struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (h *countingHandler) handle(ctx context.Context, job Job) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls++
	return h.err
}

func (h *countingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.calls
}

func TestQueueProcessesJobs(t *testing.T) {
	h := &countingHandler{}
	q := NewQueue("test", h.handle, QueueConfig{Workers: 1})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)

	require.NoError(t, q.Enqueue(Job{ID: "j1", Type: "write"}))
	require.NoError(t, q.Enqueue(Job{ID: "j2", Type: "write"}))

	assert.Eventually(t, func() bool { return h.count() == 2 }, time.Second, 5*time.Millisecond)
	q.Stop()
}

func TestQueueFailingJobRunsExactlyOnce(t *testing.T) {
	h := &countingHandler{err: assert.AnError}
	q := NewQueue("test", h.handle, QueueConfig{Workers: 1, RetryDelay: time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)

	require.NoError(t, q.Enqueue(Job{ID: "j1", Type: "write"}))

	assert.Eventually(t, func() bool { return h.count() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	q.Stop()

	assert.Equal(t, 1, h.count())
}

func TestQueueRetriesOnlyWhenConfigured(t *testing.T) {
	h := &countingHandler{err: assert.AnError}
	q := NewQueue("test", h.handle, QueueConfig{Workers: 1, MaxRetries: 2, RetryDelay: time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)

	require.NoError(t, q.Enqueue(Job{ID: "j1", Type: "write"}))

	assert.Eventually(t, func() bool { return h.count() == 3 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	q.Stop()

	assert.Equal(t, 3, h.count())
}

func TestQueueEnqueueBeforeStart(t *testing.T) {
	q := NewQueue("test", (&countingHandler{}).handle, QueueConfig{})
	require.Error(t, q.Enqueue(Job{ID: "j1"}))
}
