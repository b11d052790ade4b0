package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultRedisKey = "gym:jobs"

// RedisQueue implements a Redis list-backed queue using LPUSH/BRPOP semantics.
// Publishing and consuming usually happen in different processes.
type RedisQueue struct {
	client     *redis.Client
	key        string
	maxRetries int
	retryDelay time.Duration
	pollWait   time.Duration
	logger     *zap.Logger
}

// NewRedisQueue builds a queue stored under key.
func NewRedisQueue(client *redis.Client, key string, cfg QueueConfig) *RedisQueue {
	cfg = cfg.withDefaults()
	if key == "" {
		key = defaultRedisKey
	}
	return &RedisQueue{
		client:     client,
		key:        key,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		pollWait:   5 * time.Second,
		logger:     cfg.Logger,
	}
}

// Publish enqueues a job.
func (q *RedisQueue) Publish(ctx context.Context, job Job) error {
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}
	raw, err := encodeJob(job)
	if err != nil {
		return err
	}
	if err := q.client.LPush(ctx, q.key, raw).Err(); err != nil {
		return fmt.Errorf("redis lpush %s: %w", q.key, err)
	}
	return nil
}

// Consume blocks, feeding jobs to handler until ctx is cancelled. Failed jobs are
// pushed back after the retry delay until they exceed the retry budget.
func (q *RedisQueue) Consume(ctx context.Context, handler Handler) error {
	q.logger.Sugar().Infow("redis queue consuming", "key", q.key)
	for {
		res, err := q.client.BRPop(ctx, q.pollWait, q.key).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, redis.Nil) {
				continue
			}
			q.logger.Sugar().Warnw("redis brpop failed", "key", q.key, "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(q.retryDelay):
			}
			continue
		}
		if len(res) != 2 {
			continue
		}

		job, err := decodeJob(res[1])
		if err != nil {
			q.logger.Sugar().Errorw("dropping malformed job", "key", q.key, "error", err)
			continue
		}
		if err := handler(ctx, job); err != nil {
			q.retry(ctx, job, err)
		}
	}
}

func (q *RedisQueue) retry(ctx context.Context, job Job, cause error) {
	job.Attempt++
	if job.Attempt > q.maxRetries {
		q.logger.Sugar().Errorw("job exceeded retries", "key", q.key, "job_id", job.ID, "type", job.Type, "error", cause)
		return
	}
	q.logger.Sugar().Warnw("job failed, retrying", "key", q.key, "job_id", job.ID, "type", job.Type, "attempt", job.Attempt, "error", cause)

	select {
	case <-ctx.Done():
		return
	case <-time.After(q.retryDelay):
	}
	if err := q.Publish(ctx, job); err != nil {
		q.logger.Sugar().Errorw("failed to requeue job", "key", q.key, "job_id", job.ID, "error", err)
	}
}

func encodeJob(job Job) (string, error) {
	raw, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("marshal job %s: %w", job.ID, err)
	}
	return string(raw), nil
}

func decodeJob(raw string) (Job, error) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return Job{}, fmt.Errorf("unmarshal job: %w", err)
	}
	return job, nil
}
