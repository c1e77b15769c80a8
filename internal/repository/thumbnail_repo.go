package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/weiawesome/thumbnail-service/internal/domain"
)

// ThumbnailModel is one stored thumbnail. Reprocessing an original
// overwrites its row, matching the overwrite in the bucket.
type ThumbnailModel struct {
	ID          uint   `gorm:"primaryKey"`
	Bucket      string `gorm:"size:255;not null;uniqueIndex:idx_thumb_bucket_key"`
	ObjectKey   string `gorm:"size:1024;not null;uniqueIndex:idx_thumb_bucket_key"`
	Name        string `gorm:"size:1024"`
	SourceKey   string `gorm:"size:1024;not null"`
	FileID      string `gorm:"size:255;index"`
	ContentType string `gorm:"size:255"`
	Size        int64
	Width       int
	Height      int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (ThumbnailModel) TableName() string {
	return "thumbnails"
}

func (m *ThumbnailModel) ToDomain() *domain.ThumbnailCreated {
	return &domain.ThumbnailCreated{
		Source: domain.ObjectRef{Bucket: m.Bucket, Key: m.SourceKey},
		Thumbnail: domain.DerivedImage{
			Name:        m.Name,
			Bucket:      m.Bucket,
			Key:         m.ObjectKey,
			ContentType: m.ContentType,
			Size:        m.Size,
			Width:       m.Width,
			Height:      m.Height,
		},
		FileID:    m.FileID,
		Timestamp: m.UpdatedAt.Unix(),
	}
}

// GormThumbnailRepository records stored thumbnails using GORM.
type GormThumbnailRepository struct {
	db *gorm.DB
}

// NewGormThumbnailRepository creates a new GORM-based thumbnail repository.
func NewGormThumbnailRepository(db *gorm.DB) *GormThumbnailRepository {
	return &GormThumbnailRepository{db: db}
}

// Notify upserts the thumbnail keyed by (bucket, key).
func (r *GormThumbnailRepository) Notify(ctx context.Context, ev *domain.ThumbnailCreated) error {
	model := &ThumbnailModel{
		Bucket:      ev.Thumbnail.Bucket,
		ObjectKey:   ev.Thumbnail.Key,
		Name:        ev.Thumbnail.Name,
		SourceKey:   ev.Source.Key,
		FileID:      ev.FileID,
		ContentType: ev.Thumbnail.ContentType,
		Size:        ev.Thumbnail.Size,
		Width:       ev.Thumbnail.Width,
		Height:      ev.Thumbnail.Height,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "bucket"}, {Name: "object_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "source_key", "file_id", "content_type", "size", "width", "height", "updated_at"}),
	}).Create(model).Error
}

// ListByFileID returns every thumbnail recorded for fileID, newest first.
func (r *GormThumbnailRepository) ListByFileID(ctx context.Context, fileID string) ([]*domain.ThumbnailCreated, error) {
	var models []ThumbnailModel
	if err := r.db.WithContext(ctx).Where("file_id = ?", fileID).Order("updated_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]*domain.ThumbnailCreated, 0, len(models))
	for i := range models {
		out = append(out, models[i].ToDomain())
	}
	return out, nil
}
