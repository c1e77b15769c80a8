package pubsub

import "fmt"

// Channel naming conventions for thumbnail announcements.
const (
	ChannelThumbnailCreated = "thumbnails:bucket:%s:created"
)

// Event types.
const (
	EventThumbnailCreated = "thumbnail.created"
)

// ThumbnailCreatedChannel returns the channel thumbnails of bucket are announced on.
func ThumbnailCreatedChannel(bucket string) string {
	return fmt.Sprintf(ChannelThumbnailCreated, bucket)
}
