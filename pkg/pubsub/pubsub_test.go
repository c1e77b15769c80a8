package pubsub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEventRoundTripsPayload(t *testing.T) {
	type payload struct {
		Key string `json:"key"`
	}
	ev, err := NewEvent(EventThumbnailCreated, "photos", payload{Key: "1/thumbs/a-2.png"})
	require.NoError(t, err)
	assert.Equal(t, "thumbnail.created", ev.Type)
	assert.Equal(t, "photos", ev.Subject)
	assert.False(t, ev.Timestamp.IsZero())

	var got payload
	require.NoError(t, ev.UnmarshalPayload(&got))
	assert.Equal(t, "1/thumbs/a-2.png", got.Key)
}

func TestThumbnailCreatedChannel(t *testing.T) {
	assert.Equal(t, "thumbnails:bucket:photos:created", ThumbnailCreatedChannel("photos"))
}

func TestNewEventRejectsUnmarshalable(t *testing.T) {
	_, err := NewEvent(EventThumbnailCreated, "photos", make(chan int))
	assert.Error(t, err)
}
