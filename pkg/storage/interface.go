package storage

import (
	"context"
	"errors"
	"io"
	"mime"
	"path"
	"strings"
)

var (
	// ErrNotFound is returned by Read when the object does not exist.
	ErrNotFound = errors.New("object not found")
	// ErrAccessDenied is returned when the backend refuses the credentials.
	ErrAccessDenied = errors.New("access denied")
)

// Object is an open object body together with its metadata.
type Object struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64 // -1 if unknown
}

// Storage is a bucket-addressed object store.
type Storage interface {
	// Read retrieves the object at bucket/key.
	// The caller is responsible for closing the returned Body.
	Read(ctx context.Context, bucket, key string) (*Object, error)

	// Write stores content from the reader at bucket/key.
	// The size parameter is the expected content size (-1 if unknown).
	Write(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string) error
}

// ContentTypeByKey guesses a MIME type from the key's extension.
func ContentTypeByKey(key string) string {
	ext := strings.ToLower(path.Ext(key))
	switch ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case "":
		return "application/octet-stream"
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
