package repository

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/harsh-s15/iitj-coder/internal/common/cache"
	"github.com/harsh-s15/iitj-coder/internal/judge/model"
	appErr "github.com/harsh-s15/iitj-coder/pkg/errors"
	"github.com/harsh-s15/iitj-coder/pkg/utils/logger"
)

const (
	// UpdatesChannel carries status events to the relay.
	UpdatesChannel = "submission_updates"

	// updateEventType tags every event so clients can multiplex one socket.
	updateEventType = "SUBMISSION_UPDATE"
)

// StatusNotifier broadcasts a submission status change to subscribers.
type StatusNotifier interface {
	NotifyStatus(ctx context.Context, sub *model.Submission) error
}

// RedisNotifier publishes status events on a Redis pub/sub channel.
// Delivery is fire-and-forget; clients that miss an event re-fetch the
// submission over the status endpoint.
type RedisNotifier struct {
	cache   cache.Cache
	channel string
}

func NewRedisNotifier(c cache.Cache) *RedisNotifier {
	return &RedisNotifier{cache: c, channel: UpdatesChannel}
}

func (n *RedisNotifier) NotifyStatus(ctx context.Context, sub *model.Submission) error {
	event := model.StatusUpdate{
		ID:             sub.ID,
		QuestionID:     sub.QuestionID,
		Status:         sub.Status,
		ResultMetadata: sub.ResultMetadata,
		Type:           updateEventType,
	}
	if !sub.SubmittedAt.IsZero() {
		event.SubmittedAt = sub.SubmittedAt.UTC().Format(time.RFC3339)
	}
	raw, err := json.Marshal(event)
	if err != nil {
		return appErr.Wrapf(err, appErr.InternalServerError, "encode status event")
	}
	if err := n.cache.Publish(ctx, n.channel, string(raw)); err != nil {
		return appErr.Wrapf(err, appErr.CacheError, "publish status event")
	}
	return nil
}

// ResultPublisher couples persistence with notification: the database row
// is the source of truth, the pub/sub event is best effort.
type ResultPublisher struct {
	subs     *SubmissionRepository
	notifier StatusNotifier
}

func NewResultPublisher(subs *SubmissionRepository, notifier StatusNotifier) *ResultPublisher {
	return &ResultPublisher{subs: subs, notifier: notifier}
}

// Publish records the transition and broadcasts it. A failed broadcast is
// logged but never fails the evaluation.
func (p *ResultPublisher) Publish(ctx context.Context, sub *model.Submission) error {
	if err := p.subs.UpdateResult(ctx, sub.ID, sub.Status, sub.ResultMetadata); err != nil {
		return err
	}
	if err := p.notifier.NotifyStatus(ctx, sub); err != nil {
		logger.Warn(ctx, "status broadcast failed",
			zap.String("submission_id", sub.ID),
			zap.String("status", string(sub.Status)),
			zap.Error(err))
	}
	return nil
}

var _ StatusNotifier = (*RedisNotifier)(nil)
