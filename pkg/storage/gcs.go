package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GCSStorage implements Storage on Google Cloud Storage.
type GCSStorage struct {
	client *gcs.Client
}

// GCSConfig holds configuration for GCS storage.
type GCSConfig struct {
	CredentialsFile string `mapstructure:"credentials_file"` // empty uses application default credentials
	Endpoint        string `mapstructure:"endpoint"`
}

// NewGCSStorage creates a new GCSStorage instance.
func NewGCSStorage(ctx context.Context, cfg GCSConfig) (*GCSStorage, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gcs client: %w", err)
	}
	return &GCSStorage{client: client}, nil
}

// Write uploads content to bucket/key. The object is committed on Close.
func (s *GCSStorage) Write(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string) error {
	w := s.client.Bucket(bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return fmt.Errorf("failed to upload to gcs: %w", classifyGCSError(err))
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize gcs upload: %w", classifyGCSError(err))
	}
	return nil
}

// Read fetches bucket/key.
func (s *GCSStorage) Read(ctx context.Context, bucket, key string) (*Object, error) {
	rd, err := s.client.Bucket(bucket).Object(key).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get object from gcs: %w", classifyGCSError(err))
	}
	return &Object{Body: rd, ContentType: rd.Attrs.ContentType, Size: rd.Attrs.Size}, nil
}

// Close releases the underlying client.
func (s *GCSStorage) Close() error {
	return s.client.Close()
}

func classifyGCSError(err error) error {
	if errors.Is(err, gcs.ErrObjectNotExist) || errors.Is(err, gcs.ErrBucketNotExist) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %w", ErrNotFound, err)
		case http.StatusForbidden, http.StatusUnauthorized:
			return fmt.Errorf("%w: %w", ErrAccessDenied, err)
		}
	}
	return err
}
