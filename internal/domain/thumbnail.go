package domain

// ObjectRef identifies a stored object by its bucket and key.
type ObjectRef struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}

// DerivedImage describes a generated thumbnail as it was stored.
type DerivedImage struct {
	Name        string `json:"name"` // percent-encoded leaf of the original key
	Bucket      string `json:"bucket"`
	Key         string `json:"key"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
}

// ThumbnailCreated is announced to downstream systems after a thumbnail is
// stored. FileID correlates the copy with the original's external record.
type ThumbnailCreated struct {
	Source    ObjectRef    `json:"source"`
	Thumbnail DerivedImage `json:"thumbnail"`
	FileID    string       `json:"file_id"`
	Timestamp int64        `json:"timestamp"`
}
