package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/weiawesome/thumbnail-service/internal/event"
	"github.com/weiawesome/thumbnail-service/internal/processor"
	"github.com/weiawesome/thumbnail-service/pkg/log"
)

// EventName is the event name attached to records raised by the watcher.
const EventName = "ObjectCreated:Put"

const defaultSettle = 250 * time.Millisecond

// NotificationHandler processes decoded bucket notifications.
type NotificationHandler interface {
	HandleNotification(ctx context.Context, n *event.Notification) ([]*processor.Result, error)
}

// DirWatcher turns files appearing under <basePath>/<bucket>/ into
// object-created records. A file is reported once it has seen no writes for
// the settle period.
type DirWatcher struct {
	basePath string
	buckets  []string
	handler  NotificationHandler
	settle   time.Duration

	watcher *fsnotify.Watcher
	mu      sync.Mutex
	pending map[string]time.Time // absolute path -> last event
}

// NewDirWatcher creates a watcher for the given buckets below basePath.
func NewDirWatcher(basePath string, buckets []string, settle time.Duration, h NotificationHandler) (*DirWatcher, error) {
	if len(buckets) == 0 {
		return nil, errors.New("watch: at least one bucket is required")
	}
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}
	if settle <= 0 {
		settle = defaultSettle
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	w := &DirWatcher{
		basePath: abs,
		buckets:  buckets,
		handler:  h,
		settle:   settle,
		watcher:  watcher,
		pending:  make(map[string]time.Time),
	}
	for _, b := range buckets {
		dir := filepath.Join(abs, b)
		if err := os.MkdirAll(dir, 0755); err != nil {
			watcher.Close()
			return nil, fmt.Errorf("failed to create bucket directory: %w", err)
		}
		if err := w.addTree(dir, false); err != nil {
			watcher.Close()
			return nil, err
		}
	}
	return w, nil
}

// Run dispatches settled files until ctx is done, then closes the watcher.
func (w *DirWatcher) Run(ctx context.Context) error {
	l := log.L()
	defer w.watcher.Close()

	ticker := time.NewTicker(w.settle / 2)
	defer ticker.Stop()

	l.Info().Str("path", w.basePath).Strs("buckets", w.buckets).Msg("watching local storage")
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			l.Warn().Err(err).Msg("watcher error")
		case now := <-ticker.C:
			for _, path := range w.settled(now) {
				w.dispatch(ctx, path)
			}
		}
	}
}

// Close releases the watcher without running it.
func (w *DirWatcher) Close() error {
	return w.watcher.Close()
}

func (w *DirWatcher) handleEvent(ev fsnotify.Event) {
	if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}
	info, err := os.Stat(ev.Name)
	if err != nil {
		return
	}
	if info.IsDir() {
		// Files may land in a new directory before it is watched.
		if err := w.addTree(ev.Name, true); err != nil {
			l := log.L()
			l.Warn().Err(err).Str("path", ev.Name).Msg("failed to watch directory")
		}
		return
	}
	w.touch(ev.Name)
}

// addTree watches dir and every directory below it. With markFiles, files
// already present are queued as well.
func (w *DirWatcher) addTree(dir string, markFiles bool) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if err := w.watcher.Add(path); err != nil {
				return fmt.Errorf("failed to watch %s: %w", path, err)
			}
			return nil
		}
		if markFiles {
			w.touch(path)
		}
		return nil
	})
}

func (w *DirWatcher) touch(path string) {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return
	}
	w.mu.Lock()
	w.pending[path] = time.Now()
	w.mu.Unlock()
}

// settled removes and returns paths quiet for at least the settle period.
func (w *DirWatcher) settled(now time.Time) []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	var out []string
	for path, last := range w.pending {
		if now.Sub(last) >= w.settle {
			out = append(out, path)
			delete(w.pending, path)
		}
	}
	return out
}

func (w *DirWatcher) dispatch(ctx context.Context, path string) {
	bucket, key, ok := w.objectFor(path)
	if !ok {
		return
	}
	n := &event.Notification{Records: []event.Record{{
		EventName: EventName,
		EventTime: time.Now().UTC(),
		Bucket:    bucket,
		Key:       key,
	}}}

	ctx, l := log.WithObject(ctx, bucket, key)
	if _, err := w.handler.HandleNotification(ctx, n); err != nil {
		l.Error().Err(err).Msg("failed to process watched file")
	}
}

// objectFor maps an absolute path to its bucket and slash-separated key.
func (w *DirWatcher) objectFor(path string) (bucket, key string, ok bool) {
	rel, err := filepath.Rel(w.basePath, path)
	if err != nil {
		return "", "", false
	}
	parts := strings.SplitN(filepath.ToSlash(rel), "/", 2)
	if len(parts) != 2 || parts[0] == ".." || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
