package notify

import (
	"context"
	"fmt"

	"github.com/weiawesome/thumbnail-service/internal/domain"
	"github.com/weiawesome/thumbnail-service/pkg/pubsub"
)

// PubSub announces thumbnails on the per-bucket event bus channel.
type PubSub struct {
	publisher pubsub.Publisher
}

// NewPubSub wraps a publisher.
func NewPubSub(p pubsub.Publisher) *PubSub {
	return &PubSub{publisher: p}
}

func (n *PubSub) Notify(ctx context.Context, ev *domain.ThumbnailCreated) error {
	e, err := pubsub.NewEvent(pubsub.EventThumbnailCreated, ev.Source.Bucket, ev)
	if err != nil {
		return fmt.Errorf("failed to build event: %w", err)
	}
	return n.publisher.Publish(ctx, pubsub.ThumbnailCreatedChannel(ev.Source.Bucket), e)
}
