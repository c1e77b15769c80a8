package storage

import (
	"context"
	"fmt"
)

// Backend names accepted in Config.Type.
const (
	TypeS3    = "s3"
	TypeMinIO = "minio"
	TypeGCS   = "gcs"
	TypeLocal = "local"
)

// Config selects and configures a storage backend.
type Config struct {
	Type  string      `mapstructure:"type"`
	S3    S3Config    `mapstructure:"s3"`
	MinIO MinIOConfig `mapstructure:"minio"`
	GCS   GCSConfig   `mapstructure:"gcs"`
	Local LocalConfig `mapstructure:"local"`
}

// New constructs the backend named by cfg.Type.
func New(ctx context.Context, cfg Config) (Storage, error) {
	switch cfg.Type {
	case TypeS3:
		return NewS3Storage(ctx, cfg.S3)
	case TypeMinIO:
		return NewMinIOStorage(cfg.MinIO)
	case TypeGCS:
		return NewGCSStorage(ctx, cfg.GCS)
	case TypeLocal:
		return NewLocalStorage(cfg.Local)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}
