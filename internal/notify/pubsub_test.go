package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weiawesome/thumbnail-service/internal/domain"
	"github.com/weiawesome/thumbnail-service/pkg/pubsub"
)

type capturePublisher struct {
	channel string
	event   *pubsub.Event
}

func (c *capturePublisher) Publish(_ context.Context, channel string, e *pubsub.Event) error {
	c.channel, c.event = channel, e
	return nil
}

func (c *capturePublisher) Close() error { return nil }

func TestPubSubPublishesOnBucketChannel(t *testing.T) {
	pub := &capturePublisher{}
	require.NoError(t, NewPubSub(pub).Notify(context.Background(), sampleEvent()))

	assert.Equal(t, "thumbnails:bucket:photos:created", pub.channel)
	require.NotNil(t, pub.event)
	assert.Equal(t, pubsub.EventThumbnailCreated, pub.event.Type)

	var got domain.ThumbnailCreated
	require.NoError(t, pub.event.UnmarshalPayload(&got))
	assert.Equal(t, "456", got.FileID)
	assert.Equal(t, "123/thumbs/abc-456.jpg", got.Thumbnail.Key)
}
