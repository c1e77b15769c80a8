package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/thumbnail-service/internal/domain"
	"github.com/weiawesome/thumbnail-service/pkg/database"
)

func newRepo(t *testing.T) *GormThumbnailRepository {
	t.Helper()
	db, err := database.New(&database.Config{
		Driver:       "sqlite",
		FilePath:     filepath.Join(t.TempDir(), "thumbs.db"),
		MaxOpenConns: 1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })
	require.NoError(t, database.AutoMigrate(db, &ThumbnailModel{}))
	return NewGormThumbnailRepository(db)
}

func created(width, height int) *domain.ThumbnailCreated {
	return &domain.ThumbnailCreated{
		Source: domain.ObjectRef{Bucket: "photos", Key: "123/abc-456.jpg"},
		Thumbnail: domain.DerivedImage{
			Name:        "abc-456.jpg",
			Bucket:      "photos",
			Key:         "123/thumbs/abc-456.jpg",
			ContentType: "image/jpeg",
			Size:        2048,
			Width:       width,
			Height:      height,
		},
		FileID: "456",
	}
}

func TestNotifyRecordsThumbnail(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Notify(ctx, created(100, 50)))

	list, err := repo.ListByFileID(ctx, "456")
	require.NoError(t, err)
	require.Len(t, list, 1)
	got := list[0]
	assert.Equal(t, "123/abc-456.jpg", got.Source.Key)
	assert.Equal(t, "456", got.FileID)
	assert.Equal(t, "abc-456.jpg", got.Thumbnail.Name)
	assert.Equal(t, "123/thumbs/abc-456.jpg", got.Thumbnail.Key)
	assert.Equal(t, "image/jpeg", got.Thumbnail.ContentType)
	assert.Equal(t, int64(2048), got.Thumbnail.Size)
	assert.Equal(t, 100, got.Thumbnail.Width)
}

func TestNotifyOverwritesOnReprocess(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Notify(ctx, created(100, 50)))
	require.NoError(t, repo.Notify(ctx, created(50, 100)))

	list, err := repo.ListByFileID(ctx, "456")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 50, list[0].Thumbnail.Width)
	assert.Equal(t, 100, list[0].Thumbnail.Height)
}

func TestListByFileIDUnknown(t *testing.T) {
	repo := newRepo(t)
	list, err := repo.ListByFileID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, list)
}
