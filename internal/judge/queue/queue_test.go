package queue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/harsh-s15/iitj-coder/internal/common/cache"
	"github.com/harsh-s15/iitj-coder/internal/judge/model"
	appErr "github.com/harsh-s15/iitj-coder/pkg/errors"
)

func newTestQueue(t *testing.T, opts ...Option) *Queue {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	c, err := cache.NewRedisCacheWithClient(client)
	if err != nil {
		t.Fatalf("NewRedisCacheWithClient: %v", err)
	}
	return New(c, opts...)
}

func TestQueueFIFO(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	jobs := []*model.Job{
		{SubmissionID: "s1", QuestionID: "q1", JobType: "SUBMIT"},
		{SubmissionID: "s2", QuestionID: "q1", JobType: "RUN_CUSTOM"},
		{SubmissionID: "s3", QuestionID: "q2", JobType: "RUN_VISIBLE"},
	}
	for _, j := range jobs {
		if err := q.Enqueue(ctx, j); err != nil {
			t.Fatalf("Enqueue(%s): %v", j.SubmissionID, err)
		}
	}

	n, err := q.Len(ctx)
	if err != nil {
		t.Fatalf("Len: %v", err)
	}
	if n != 3 {
		t.Fatalf("queue length = %d, want 3", n)
	}

	for _, want := range jobs {
		got, err := q.Dequeue(ctx)
		if err != nil {
			t.Fatalf("Dequeue: %v", err)
		}
		if got == nil {
			t.Fatal("Dequeue returned nil job")
		}
		if got.SubmissionID != want.SubmissionID {
			t.Fatalf("got %s, want %s", got.SubmissionID, want.SubmissionID)
		}
		if got.Type() != want.Type() {
			t.Fatalf("job type = %v, want %v", got.Type(), want.Type())
		}
	}
}

func TestQueueDequeueEmpty(t *testing.T) {
	q := newTestQueue(t, WithPollTimeout(50*time.Millisecond))

	start := time.Now()
	job, err := q.Dequeue(context.Background())
	if err != nil {
		t.Fatalf("Dequeue: %v", err)
	}
	if job != nil {
		t.Fatalf("expected nil job, got %+v", job)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("poll took %v, timeout not honored", elapsed)
	}
}

func TestQueueEnqueueValidation(t *testing.T) {
	q := newTestQueue(t)

	err := q.Enqueue(context.Background(), &model.Job{})
	if err == nil {
		t.Fatal("expected error for job without submission id")
	}
	if appErr.GetCode(err) != appErr.InvalidParams {
		t.Fatalf("code = %v, want InvalidParams", appErr.GetCode(err))
	}
}

func TestQueueDequeueMalformed(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	c, err := cache.NewRedisCacheWithClient(client)
	if err != nil {
		t.Fatalf("NewRedisCacheWithClient: %v", err)
	}
	q := New(c)

	if _, err := mr.Lpush(DefaultKey, "{not json"); err != nil {
		t.Fatalf("lpush: %v", err)
	}
	if _, err := q.Dequeue(context.Background()); err == nil {
		t.Fatal("expected decode error")
	}
}
