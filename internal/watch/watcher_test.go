package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/thumbnail-service/internal/event"
	"github.com/weiawesome/thumbnail-service/internal/processor"
)

type recordingHandler struct {
	mu      sync.Mutex
	records []event.Record
}

func (h *recordingHandler) HandleNotification(_ context.Context, n *event.Notification) ([]*processor.Result, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, n.Records...)
	return nil, nil
}

func (h *recordingHandler) keys() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.records))
	for _, r := range h.records {
		out = append(out, r.Bucket+"|"+r.Key)
	}
	return out
}

func TestDirWatcherReportsSettledFiles(t *testing.T) {
	base := t.TempDir()
	h := &recordingHandler{}
	w, err := NewDirWatcher(base, []string{"photos"}, 20*time.Millisecond, h)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	dir := filepath.Join(base, "photos", "123")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "abc-456.png"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".tmp-1"), []byte("x"), 0o644))

	assert.Eventually(t, func() bool {
		keys := h.keys()
		return len(keys) == 1 && keys[0] == "photos|123/abc-456.png"
	}, 3*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	h.mu.Lock()
	defer h.mu.Unlock()
	assert.Equal(t, EventName, h.records[0].EventName)
}

func TestObjectFor(t *testing.T) {
	w := &DirWatcher{basePath: filepath.FromSlash("/data")}

	bucket, key, ok := w.objectFor(filepath.FromSlash("/data/photos/123/abc-456.png"))
	require.True(t, ok)
	assert.Equal(t, "photos", bucket)
	assert.Equal(t, "123/abc-456.png", key)

	_, _, ok = w.objectFor(filepath.FromSlash("/data/photos"))
	assert.False(t, ok)
	_, _, ok = w.objectFor(filepath.FromSlash("/elsewhere/photos/a.png"))
	assert.False(t, ok)
}

func TestNewDirWatcherRequiresBuckets(t *testing.T) {
	_, err := NewDirWatcher(t.TempDir(), nil, 0, &recordingHandler{})
	assert.Error(t, err)
}

func TestDirWatcherCloseWithoutRun(t *testing.T) {
	w, err := NewDirWatcher(t.TempDir(), []string{"photos"}, 0, &recordingHandler{})
	require.NoError(t, err)
	assert.NoError(t, w.Close())
}
