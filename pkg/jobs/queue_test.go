package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueProcessesPublishedJob(t *testing.T) {
	done := make(chan Job, 1)
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		done <- job
		return nil
	}, QueueConfig{Workers: 1})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Publish(context.Background(), Job{ID: "job-1", Type: "RegistrationMail", Payload: json.RawMessage(`{"a":1}`)}))

	select {
	case job := <-done:
		assert.Equal(t, "job-1", job.ID)
		assert.False(t, job.Enqueued.IsZero())
		assert.JSONEq(t, `{"a":1}`, string(job.Payload))
	case <-time.After(2 * time.Second):
		t.Fatal("job was not processed")
	}
}

func TestQueueRetriesFailedJob(t *testing.T) {
	var calls int32
	done := make(chan struct{})
	q := NewQueue("retry", func(ctx context.Context, job Job) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("transient")
		}
		close(done)
		return nil
	}, QueueConfig{Workers: 1, MaxRetries: 3, RetryDelay: 10 * time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Publish(context.Background(), Job{ID: "job-2"}))

	select {
	case <-done:
		assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	case <-time.After(2 * time.Second):
		t.Fatal("job was not retried")
	}
}

func TestQueuePublishBeforeStartFails(t *testing.T) {
	q := NewQueue("idle", func(ctx context.Context, job Job) error { return nil }, QueueConfig{})
	err := q.Publish(context.Background(), Job{ID: "job-3"})
	assert.Error(t, err)
}

func TestQueuePublishFailsFastWhenFull(t *testing.T) {
	picked := make(chan struct{}, 1)
	release := make(chan struct{})
	q := NewQueue("busy", func(ctx context.Context, job Job) error {
		picked <- struct{}{}
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 1})
	q.Start(context.Background())
	defer q.Stop()
	defer close(release)

	require.NoError(t, q.Publish(context.Background(), Job{ID: "job-5"}))
	select {
	case <-picked:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not pick up the first job")
	}
	require.NoError(t, q.Publish(context.Background(), Job{ID: "job-6"}))

	result := make(chan error, 1)
	go func() { result <- q.Publish(context.Background(), Job{ID: "job-7"}) }()
	select {
	case err := <-result:
		assert.ErrorIs(t, err, ErrQueueFull)
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full buffer")
	}
}

func TestJobEncodingRoundTrip(t *testing.T) {
	enqueued := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)
	raw, err := encodeJob(Job{ID: "job-4", Type: "RegistrationMail", Payload: json.RawMessage(`{"price":"300.00"}`), Attempt: 2, Enqueued: enqueued})
	require.NoError(t, err)

	job, err := decodeJob(raw)
	require.NoError(t, err)
	assert.Equal(t, "job-4", job.ID)
	assert.Equal(t, 2, job.Attempt)
	assert.True(t, enqueued.Equal(job.Enqueued))
	assert.JSONEq(t, `{"price":"300.00"}`, string(job.Payload))

	_, err = decodeJob("RegistrationMail|broken")
	assert.Error(t, err)
}
