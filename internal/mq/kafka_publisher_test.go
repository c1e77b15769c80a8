package mq

import (
	"encoding/json"
	"testing"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/thumbnail-service/internal/domain"
)

func TestThumbnailMessage(t *testing.T) {
	ev := &domain.ThumbnailCreated{
		Source:    domain.ObjectRef{Bucket: "photos", Key: "123/abc-456.jpg"},
		Thumbnail: domain.DerivedImage{Bucket: "photos", Key: "123/thumbs/abc-456.jpg", Width: 100, Height: 50},
		FileID:    "456",
		Timestamp: 1700000000,
	}

	msg, err := thumbnailMessage("thumbnails", ev)
	require.NoError(t, err)

	require.NotNil(t, msg.TopicPartition.Topic)
	assert.Equal(t, "thumbnails", *msg.TopicPartition.Topic)
	assert.Equal(t, kafka.PartitionAny, msg.TopicPartition.Partition)
	assert.Equal(t, []byte("456"), msg.Key)
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, EventTypeHeader, msg.Headers[0].Key)
	assert.Equal(t, EventThumbnailCreated, string(msg.Headers[0].Value))

	var got domain.ThumbnailCreated
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, *ev, got)
}
