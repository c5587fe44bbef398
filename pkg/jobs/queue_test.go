package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueDispatchCollectsResults(t *testing.T) {
	var calls int32
	handler := func(ctx context.Context, job Job) error {
		atomic.AddInt32(&calls, 1)
		if job.ID == "bad" {
			return errors.New("boom")
		}
		return nil
	}
	q := NewQueue("test", handler, QueueConfig{Workers: 2, MaxRetries: 1, RetryDelay: 5 * time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	results, err := q.Dispatch(context.Background(), []Job{{ID: "ok-1"}, {ID: "bad"}, {ID: "ok-2"}})
	require.NoError(t, err)
	require.Len(t, results, 3)

	outcomes := map[string]error{}
	for _, res := range results {
		outcomes[res.Job.ID] = res.Err
	}
	assert.NoError(t, outcomes["ok-1"])
	assert.NoError(t, outcomes["ok-2"])
	assert.EqualError(t, outcomes["bad"], "boom")
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls))
}

func TestQueueRetrySucceeds(t *testing.T) {
	var attempts int32
	handler := func(ctx context.Context, job Job) error {
		if atomic.AddInt32(&attempts, 1) < 3 {
			return errors.New("transient")
		}
		return nil
	}
	q := NewQueue("retry", handler, QueueConfig{MaxRetries: 3, RetryDelay: time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	results, err := q.Dispatch(context.Background(), []Job{{ID: "job"}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.NoError(t, results[0].Err)
	assert.Equal(t, 2, results[0].Job.Attempt)
}

func TestQueueEnqueueBeforeStart(t *testing.T) {
	q := NewQueue("idle", func(context.Context, Job) error { return nil }, QueueConfig{})
	assert.Error(t, q.Enqueue(Job{ID: "x"}))

	results, err := q.Dispatch(context.Background(), []Job{{ID: "x"}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Error(t, results[0].Err)
}

func TestQueueRestartAfterStop(t *testing.T) {
	q := NewQueue("restart", func(context.Context, Job) error { return nil }, QueueConfig{})
	q.Start(context.Background())
	q.Stop()
	q.Start(context.Background())
	defer q.Stop()

	results, err := q.Dispatch(context.Background(), []Job{{ID: "again"}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.NoError(t, results[0].Err)
}
