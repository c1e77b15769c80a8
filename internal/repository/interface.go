package repository

import (
	"context"

	"github.com/weiawesome/thumbnail-service/internal/domain"
)

// ThumbnailRepository records and looks up stored thumbnails.
type ThumbnailRepository interface {
	Notify(ctx context.Context, ev *domain.ThumbnailCreated) error
	ListByFileID(ctx context.Context, fileID string) ([]*domain.ThumbnailCreated, error)
}
