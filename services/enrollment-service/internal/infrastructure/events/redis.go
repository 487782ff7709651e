package events

import (
	"context"
	"encoding/json"

	"courseplatform/services/enrollment-service/internal/domain"
	"courseplatform/services/enrollment-service/internal/infrastructure/logger"

	"github.com/redis/go-redis/v9"
)

// Bus публикует CourseCompleted в redis и раздаёт подписчикам.
// Доставка at-most-once: нотификации не критичны для состояния записи.
type Bus struct {
	client *redis.Client
	log    *logger.Logger
}

func NewBus(client *redis.Client, log *logger.Logger) *Bus {
	return &Bus{client: client, log: log.With("component", "EventBus")}
}

func (b *Bus) PublishCourseCompleted(ctx context.Context, ev domain.CourseCompleted) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, domain.CourseCompletedTopic, data).Err()
}

// SubscribeCourseCompleted blocks until ctx is done, calling handle for
// every event. Undecodable messages are logged and skipped.
func (b *Bus) SubscribeCourseCompleted(ctx context.Context, handle func(context.Context, domain.CourseCompleted)) error {
	sub := b.client.Subscribe(ctx, domain.CourseCompletedTopic)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var ev domain.CourseCompleted
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				b.log.Warn("skip malformed event", "channel", msg.Channel, "error", err)
				continue
			}
			handle(ctx, ev)
		}
	}
}
