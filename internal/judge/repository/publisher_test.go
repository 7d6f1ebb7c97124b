package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/harsh-s15/iitj-coder/internal/common/cache"
	"github.com/harsh-s15/iitj-coder/internal/judge/model"
)

func newTestCache(t *testing.T) (cache.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	c, err := cache.NewRedisCacheWithClient(client)
	if err != nil {
		t.Fatalf("NewRedisCacheWithClient: %v", err)
	}
	return c, mr
}

func TestRedisNotifierPublishesEvent(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	sub, err := c.Subscribe(ctx, UpdatesChannel)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub.Close()

	notifier := NewRedisNotifier(c)
	submittedAt := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	err = notifier.NotifyStatus(ctx, &model.Submission{
		ID:             "sub-1",
		QuestionID:     "q-1",
		Status:         model.StatusAccepted,
		ResultMetadata: `{"total":3,"results":[]}`,
		SubmittedAt:    submittedAt,
	})
	if err != nil {
		t.Fatalf("NotifyStatus: %v", err)
	}

	select {
	case raw := <-sub.Messages():
		var event model.StatusUpdate
		if err := json.Unmarshal([]byte(raw), &event); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		if event.ID != "sub-1" || event.QuestionID != "q-1" {
			t.Fatalf("unexpected event identity: %+v", event)
		}
		if event.Status != model.StatusAccepted {
			t.Fatalf("status = %s", event.Status)
		}
		if event.Type != "SUBMISSION_UPDATE" {
			t.Fatalf("type = %s", event.Type)
		}
		if event.SubmittedAt != "2026-03-14T09:30:00Z" {
			t.Fatalf("submittedAt = %s", event.SubmittedAt)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}
}

func TestRedisNotifierOmitsZeroSubmittedAt(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	sub, err := c.Subscribe(ctx, UpdatesChannel)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub.Close()

	notifier := NewRedisNotifier(c)
	if err := notifier.NotifyStatus(ctx, &model.Submission{
		ID:         "sub-2",
		QuestionID: "q-1",
		Status:     model.StatusProcessing,
	}); err != nil {
		t.Fatalf("NotifyStatus: %v", err)
	}

	select {
	case raw := <-sub.Messages():
		var fields map[string]any
		if err := json.Unmarshal([]byte(raw), &fields); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		if _, present := fields["submittedAt"]; present {
			t.Fatal("submittedAt should be omitted when unset")
		}
		if _, present := fields["resultMetadata"]; present {
			t.Fatal("resultMetadata should be omitted when empty")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}
}
