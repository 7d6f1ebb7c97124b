package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/harsh-s15/iitj-coder/internal/common/cache"
	"github.com/harsh-s15/iitj-coder/internal/judge/model"
	appErr "github.com/harsh-s15/iitj-coder/pkg/errors"
)

const (
	// DefaultKey is the Redis list shared by producers and consumers.
	DefaultKey = "submission_queue"

	// defaultPollTimeout bounds each blocking pop so consumers can notice
	// shutdown between polls.
	defaultPollTimeout = 1 * time.Second
)

// Queue is a Redis-list backed job queue. Jobs are pushed at the head and
// popped from the tail, so delivery is FIFO. A popped job is gone even if
// the consumer crashes; delivery is at most once.
type Queue struct {
	cache       cache.Cache
	key         string
	pollTimeout time.Duration
}

// Option customizes a Queue.
type Option func(*Queue)

// WithKey overrides the Redis list key.
func WithKey(key string) Option {
	return func(q *Queue) { q.key = key }
}

// WithPollTimeout overrides the blocking pop timeout.
func WithPollTimeout(d time.Duration) Option {
	return func(q *Queue) { q.pollTimeout = d }
}

// New creates a queue over the given cache connection.
func New(c cache.Cache, opts ...Option) *Queue {
	q := &Queue{
		cache:       c,
		key:         DefaultKey,
		pollTimeout: defaultPollTimeout,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue pushes a job for asynchronous evaluation.
func (q *Queue) Enqueue(ctx context.Context, job *model.Job) error {
	if job == nil || job.SubmissionID == "" {
		return appErr.Newf(appErr.InvalidParams, "job requires a submission id")
	}
	raw, err := json.Marshal(job)
	if err != nil {
		return appErr.Wrapf(err, appErr.InternalServerError, "encode job")
	}
	if err := q.cache.LPush(ctx, q.key, string(raw)); err != nil {
		return appErr.Wrapf(err, appErr.CacheError, "enqueue job")
	}
	return nil
}

// Dequeue blocks up to the poll timeout for the next job. It returns
// (nil, nil) when the timeout elapses with an empty queue, so callers can
// loop and re-check their context.
func (q *Queue) Dequeue(ctx context.Context) (*model.Job, error) {
	raw, err := q.cache.BRPop(ctx, q.pollTimeout, q.key)
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.CacheError, "dequeue job")
	}
	if raw == "" {
		return nil, nil
	}
	var job model.Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return nil, appErr.Wrapf(err, appErr.InvalidParams, "decode job")
	}
	return &job, nil
}

// Len reports the number of queued jobs.
func (q *Queue) Len(ctx context.Context) (int64, error) {
	n, err := q.cache.LLen(ctx, q.key)
	if err != nil {
		return 0, appErr.Wrapf(err, appErr.CacheError, "queue length")
	}
	return n, nil
}
