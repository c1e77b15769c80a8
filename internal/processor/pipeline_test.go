package processor_test

import (
	"bytes"
	"context"
	"image/color"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/thumbnail-service/internal/event"
	"github.com/weiawesome/thumbnail-service/internal/notify"
	"github.com/weiawesome/thumbnail-service/internal/processor"
	"github.com/weiawesome/thumbnail-service/pkg/storage"
)

func TestPipelineLocalStorageAndCallback(t *testing.T) {
	forms := make(chan url.Values, 1)
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		forms <- r.PostForm
	}))
	defer api.Close()

	store, err := storage.NewLocalStorage(storage.LocalConfig{BasePath: t.TempDir()})
	require.NoError(t, err)

	var src bytes.Buffer
	require.NoError(t, imaging.Encode(&src, imaging.New(400, 200, color.White), imaging.JPEG))
	require.NoError(t, store.Write(context.Background(), "photos", "123/abc-456.jpg", bytes.NewReader(src.Bytes()), int64(src.Len()), "image/jpeg"))

	cb := notify.NewCallback(map[string]notify.Route{
		"photos": {Host: api.URL, Bucket: "photos-id", Secret: "s3cr3t"},
	}, "/api/filecopy/add", time.Second)

	p, err := processor.NewThumbnailProcessor(store, cb, processor.Config{
		Box:          processor.Box{Width: 100, Height: 100},
		ThumbDir:     "thumbs",
		AllowedTypes: []string{"png", "jpg", "jpeg", "gif"},
		JpegQuality:  85,
	})
	require.NoError(t, err)

	n, err := event.Parse([]byte(`{"Records":[{"eventName":"s3:ObjectCreated:Put",
		"s3":{"bucket":{"name":"photos"},"object":{"key":"123/abc-456.jpg"}}}]}`))
	require.NoError(t, err)

	results, err := p.HandleNotification(context.Background(), n)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, processor.StatusProcessed, results[0].Status)

	obj, err := store.Read(context.Background(), "photos", "123/thumbs/abc-456.jpg")
	require.NoError(t, err)
	img, err := imaging.Decode(obj.Body)
	obj.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 50, img.Bounds().Dy())

	select {
	case form := <-forms:
		assert.Equal(t, "photos-id", form.Get("bucket"))
		assert.Equal(t, "456", form.Get("fileId"))
		assert.Equal(t, "123/thumbs/abc-456.jpg", form.Get("key"))
		assert.Equal(t, "image/jpeg", form.Get("file[contentType]"))
		assert.NotEqual(t, "0", form.Get("file[size]"))
	default:
		t.Fatal("callback was not called")
	}

	// Writing the thumbnail would trigger another event; it must be a no-op.
	res, err := p.Process(context.Background(), "photos", "123/thumbs/abc-456.jpg")
	require.NoError(t, err)
	assert.Equal(t, processor.StatusSkipped, res.Status)
}
