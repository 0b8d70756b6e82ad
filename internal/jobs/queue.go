// Package jobs runs delayed background work off a Redis sorted set.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"inkwell/internal/observability"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DelayedKey is the sorted set holding pending jobs scored by run-at unix milliseconds.
const DelayedKey = "jobs:delayed"

var errNoRedis = errors.New("job queue: redis unavailable")

// Job is one queued unit of work.
type Job struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Args       json.RawMessage `json:"args"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
	RunAt      time.Time       `json:"run_at"`
}

// Decode unmarshals the job arguments into dest.
func (j Job) Decode(dest any) error {
	if err := json.Unmarshal(j.Args, dest); err != nil {
		return fmt.Errorf("decode %s args: %w", j.Name, err)
	}
	return nil
}

// Enqueuer schedules a named job to run after delay.
type Enqueuer interface {
	Enqueue(ctx context.Context, name string, args any, delay time.Duration) (string, error)
}

// Queue is a delayed job queue. Several workers may poll the same queue; each
// job is handed to exactly one of them.
type Queue struct {
	rdb *redis.Client
	key string
	now func() time.Time
}

// QueueOption configures a Queue.
type QueueOption func(*Queue)

// WithClock overrides the queue's time source.
func WithClock(now func() time.Time) QueueOption {
	return func(q *Queue) { q.now = now }
}

// WithKey stores jobs under a sorted set other than DelayedKey.
func WithKey(key string) QueueOption {
	return func(q *Queue) { q.key = key }
}

// NewQueue returns a queue on rdb, which may be nil; a queue without Redis
// rejects every Enqueue.
func NewQueue(rdb *redis.Client, opts ...QueueOption) *Queue {
	q := &Queue{rdb: rdb, key: DelayedKey, now: time.Now}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue stores a job due after delay and returns its id.
func (q *Queue) Enqueue(ctx context.Context, name string, args any, delay time.Duration) (string, error) {
	if q == nil || q.rdb == nil {
		return "", errNoRedis
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("encode %s args: %w", name, err)
	}

	now := q.now().UTC()
	job := Job{
		ID:         uuid.NewString(),
		Name:       name,
		Args:       raw,
		EnqueuedAt: now,
		RunAt:      now.Add(delay),
	}
	member, err := json.Marshal(job)
	if err != nil {
		return "", err
	}

	err = q.rdb.ZAdd(ctx, q.key, redis.Z{
		Score:  float64(job.RunAt.UnixMilli()),
		Member: member,
	}).Err()
	if err != nil {
		return "", fmt.Errorf("enqueue %s: %w", name, err)
	}
	observability.JobsEnqueued.WithLabelValues(name).Inc()
	return job.ID, nil
}

// Claim removes and returns up to limit jobs that are due. A member removed
// by another worker first is skipped.
func (q *Queue) Claim(ctx context.Context, limit int) ([]Job, error) {
	if q == nil || q.rdb == nil {
		return nil, errNoRedis
	}
	members, err := q.rdb.ZRangeByScore(ctx, q.key, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(q.now().UnixMilli(), 10),
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("list due jobs: %w", err)
	}

	jobs := make([]Job, 0, len(members))
	for _, member := range members {
		removed, err := q.rdb.ZRem(ctx, q.key, member).Result()
		if err != nil {
			return jobs, fmt.Errorf("claim job: %w", err)
		}
		if removed == 0 {
			continue
		}
		var job Job
		if err := json.Unmarshal([]byte(member), &job); err != nil {
			// unparseable members are dropped rather than retried forever
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// Requeue puts claimed jobs back at their original run-at time.
func (q *Queue) Requeue(ctx context.Context, jobs ...Job) error {
	if q == nil || q.rdb == nil {
		return errNoRedis
	}
	if len(jobs) == 0 {
		return nil
	}
	members := make([]redis.Z, 0, len(jobs))
	for _, job := range jobs {
		member, err := json.Marshal(job)
		if err != nil {
			return fmt.Errorf("encode %s: %w", job.Name, err)
		}
		members = append(members, redis.Z{Score: float64(job.RunAt.UnixMilli()), Member: member})
	}
	if err := q.rdb.ZAdd(ctx, q.key, members...).Err(); err != nil {
		return fmt.Errorf("requeue jobs: %w", err)
	}
	return nil
}

// Len returns the number of pending jobs.
func (q *Queue) Len(ctx context.Context) (int64, error) {
	if q == nil || q.rdb == nil {
		return 0, errNoRedis
	}
	return q.rdb.ZCard(ctx, q.key).Result()
}
