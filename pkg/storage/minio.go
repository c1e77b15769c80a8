package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOStorage implements Storage with the native MinIO client.
type MinIOStorage struct {
	cl *minio.Client
}

// MinIOConfig holds configuration for MinIO storage.
type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint"` // host:port, no scheme
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	PathStyle bool   `mapstructure:"path_style"`
}

// NewMinIOStorage creates a new MinIOStorage instance.
func NewMinIOStorage(cfg MinIOConfig) (*MinIOStorage, error) {
	opts := &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	}
	if cfg.PathStyle {
		opts.BucketLookup = minio.BucketLookupPath
	}
	cl, err := minio.New(cfg.Endpoint, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return &MinIOStorage{cl: cl}, nil
}

// Write uploads content to bucket/key.
func (s *MinIOStorage) Write(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string) error {
	_, err := s.cl.PutObject(ctx, bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("failed to upload to minio: %w", classifyMinIOError(err))
	}
	return nil
}

// Read fetches bucket/key. minio-go defers the request until the first read,
// so Stat is called up front to surface missing objects here.
func (s *MinIOStorage) Read(ctx context.Context, bucket, key string) (*Object, error) {
	obj, err := s.cl.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object from minio: %w", classifyMinIOError(err))
	}
	info, err := obj.Stat()
	if err != nil {
		obj.Close()
		return nil, fmt.Errorf("failed to stat object in minio: %w", classifyMinIOError(err))
	}
	return &Object{Body: obj, ContentType: info.ContentType, Size: info.Size}, nil
}

func classifyMinIOError(err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case "AccessDenied":
		return fmt.Errorf("%w: %w", ErrAccessDenied, err)
	}
	return err
}
