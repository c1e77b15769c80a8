package mq

import (
	"context"

	"github.com/weiawesome/thumbnail-service/internal/event"
	"github.com/weiawesome/thumbnail-service/internal/processor"
)

// NotificationHandler is the business-logic callback injected into the consumer.
type NotificationHandler interface {
	HandleNotification(ctx context.Context, n *event.Notification) ([]*processor.Result, error)
}

// NotificationConsumer abstracts the Kafka consumer for bucket notifications.
type NotificationConsumer interface {
	Start(ctx context.Context) error
	Close() error
}
