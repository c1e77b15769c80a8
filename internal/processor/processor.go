package processor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/weiawesome/thumbnail-service/internal/domain"
	"github.com/weiawesome/thumbnail-service/internal/event"
	pkglog "github.com/weiawesome/thumbnail-service/pkg/log"
	"github.com/weiawesome/thumbnail-service/pkg/storage"
)

// Status is the outcome of one record.
type Status string

const (
	StatusProcessed Status = "processed"
	StatusSkipped   Status = "skipped"
	StatusRejected  Status = "rejected"
	StatusFailed    Status = "failed"
)

// Stage names the pipeline step a failure happened in.
type Stage string

const (
	StageFetch  Stage = "fetch"
	StageResize Stage = "resize"
	StageStore  Stage = "store"
)

// PipelineError is a fetch, resize or store failure. It is the only kind of
// error that fails an invocation.
type PipelineError struct {
	Stage     Stage
	SrcBucket string
	SrcKey    string
	DstBucket string
	DstKey    string
	Err       error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("unable to resize %s/%s and upload to %s/%s: %s: %v",
		e.SrcBucket, e.SrcKey, e.DstBucket, e.DstKey, e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }

// Result describes what happened to one record.
type Result struct {
	Status    Status               `json:"status"`
	Reason    string               `json:"reason,omitempty"`
	Bucket    string               `json:"bucket"`
	Key       string               `json:"key"`
	FileID    string               `json:"file_id,omitempty"`
	Thumbnail *domain.DerivedImage `json:"thumbnail,omitempty"`
}

// Config holds the processor settings.
type Config struct {
	Box          Box
	ThumbDir     string
	AllowedTypes []string
	JpegQuality  int
	Filter       event.Filter
}

// ThumbnailProcessor turns original images into bounded thumbnails stored
// next to them and announces each one.
type ThumbnailProcessor struct {
	store      storage.Storage
	notifier   Notifier // nil disables notification
	observer   Observer
	classifier *Classifier
	resizer    *Resizer
	filter     event.Filter
	now        func() time.Time
}

// Option customises a ThumbnailProcessor.
type Option func(*ThumbnailProcessor)

// WithObserver sets the telemetry sink.
func WithObserver(o Observer) Option {
	return func(p *ThumbnailProcessor) {
		if o != nil {
			p.observer = o
		}
	}
}

// WithClock overrides the timestamp source for announced events.
func WithClock(now func() time.Time) Option {
	return func(p *ThumbnailProcessor) { p.now = now }
}

// NewThumbnailProcessor constructs a ThumbnailProcessor.
func NewThumbnailProcessor(store storage.Storage, notifier Notifier, cfg Config, opts ...Option) (*ThumbnailProcessor, error) {
	if cfg.Box.Width <= 0 || cfg.Box.Height <= 0 {
		return nil, fmt.Errorf("invalid thumbnail box %dx%d", cfg.Box.Width, cfg.Box.Height)
	}
	classifier, err := NewClassifier(cfg.ThumbDir, cfg.AllowedTypes)
	if err != nil {
		return nil, err
	}

	p := &ThumbnailProcessor{
		store:      store,
		notifier:   notifier,
		observer:   nopObserver{},
		classifier: classifier,
		resizer:    NewResizer(cfg.Box, cfg.JpegQuality),
		filter:     cfg.Filter,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// HandleNotification processes every record of n in order. Records rejected
// by the event filter are reported as skipped. Pipeline failures do not stop
// later records; they are joined into the returned error.
func (p *ThumbnailProcessor) HandleNotification(ctx context.Context, n *event.Notification) ([]*Result, error) {
	results := make([]*Result, 0, len(n.Records))
	var errs []error

	for _, rec := range n.Records {
		if !p.filter.Accept(rec) {
			l := pkglog.Ctx(ctx)
			l.Debug().
				Str(pkglog.FieldEventName, rec.EventName).
				Str(pkglog.FieldBucket, rec.Bucket).
				Str(pkglog.FieldKey, rec.Key).
				Msg("event filtered")
			results = append(results, &Result{Status: StatusSkipped, Reason: "event filtered", Bucket: rec.Bucket, Key: rec.Key})
			continue
		}

		res, err := p.Process(ctx, rec.Bucket, rec.Key)
		results = append(results, res)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return results, errors.Join(errs...)
}

// Process runs the pipeline for one object: classify, fetch, resize, store,
// notify. The returned error is non-nil only for a *PipelineError; the
// Result is always non-nil.
func (p *ThumbnailProcessor) Process(ctx context.Context, bucket, key string) (*Result, error) {
	start := time.Now()
	ctx, l := pkglog.WithObject(ctx, bucket, key)

	res, err := p.process(ctx, l, bucket, key)
	p.observer.ObserveRecord(res.Status, time.Since(start))
	return res, err
}

func (p *ThumbnailProcessor) process(ctx context.Context, l zerolog.Logger, bucket, key string) (*Result, error) {
	res := &Result{Bucket: bucket, Key: key}

	src, err := p.classifier.Classify(bucket, key)
	switch {
	case err == nil:
	case IsSkip(err):
		l.Info().Err(err).Msg("skipping object")
		res.Status, res.Reason = StatusSkipped, err.Error()
		return res, nil
	default:
		// ErrNoExtension: nothing can be inferred, retrying would not help.
		l.Error().Err(err).Msg("rejecting object")
		res.Status, res.Reason = StatusRejected, err.Error()
		return res, nil
	}
	res.FileID = src.FileID
	l = l.With().Str(pkglog.FieldDstKey, src.DstKey).Logger()

	thumb, err := p.render(ctx, src)
	if err != nil {
		l.Error().Err(err).Str(pkglog.FieldStage, string(stageOf(err))).Msg("thumbnail pipeline failed")
		res.Status, res.Reason = StatusFailed, err.Error()
		return res, err
	}
	res.Status = StatusProcessed
	res.Thumbnail = thumb

	l.Info().
		Int64(pkglog.FieldSize, thumb.Size).
		Int("width", thumb.Width).
		Int("height", thumb.Height).
		Msg("thumbnail stored")

	p.notify(ctx, l, src, thumb)
	return res, nil
}

// render fetches, resizes and stores. Any failure is a *PipelineError.
func (p *ThumbnailProcessor) render(ctx context.Context, src *Source) (*domain.DerivedImage, error) {
	fail := func(stage Stage, err error) error {
		return &PipelineError{
			Stage:     stage,
			SrcBucket: src.Bucket,
			SrcKey:    src.Key,
			DstBucket: src.Bucket,
			DstKey:    src.DstKey,
			Err:       err,
		}
	}

	// 1. Fetch the original.
	obj, err := p.store.Read(ctx, src.Bucket, src.Key)
	if err != nil {
		return nil, fail(StageFetch, err)
	}
	data, err := io.ReadAll(obj.Body)
	obj.Body.Close()
	if err != nil {
		return nil, fail(StageFetch, fmt.Errorf("read body: %w", err))
	}
	contentType := obj.ContentType
	if contentType == "" {
		contentType = storage.ContentTypeByKey(src.Key)
	}

	// 2. Resize into the extension's format.
	rendered, err := p.resizer.Resize(data, src.Format)
	if err != nil {
		return nil, fail(StageResize, err)
	}

	// 3. Measure.
	size := int64(len(rendered.Data))

	// 4. Store beside the original with the original's content type.
	if err := p.store.Write(ctx, src.Bucket, src.DstKey, bytes.NewReader(rendered.Data), size, contentType); err != nil {
		return nil, fail(StageStore, err)
	}

	return &domain.DerivedImage{
		Name:        EncodeURIComponent(src.Leaf),
		Bucket:      src.Bucket,
		Key:         src.DstKey,
		ContentType: contentType,
		Size:        size,
		Width:       rendered.Width,
		Height:      rendered.Height,
	}, nil
}

func (p *ThumbnailProcessor) notify(ctx context.Context, l zerolog.Logger, src *Source, thumb *domain.DerivedImage) {
	if p.notifier == nil {
		return
	}
	if src.FileID == "" {
		l.Info().Msg("no file id in key, skipping notification")
		return
	}

	ev := &domain.ThumbnailCreated{
		Source:    domain.ObjectRef{Bucket: src.Bucket, Key: src.Key},
		Thumbnail: *thumb,
		FileID:    src.FileID,
		Timestamp: p.now().Unix(),
	}
	if err := p.notifier.Notify(ctx, ev); err != nil {
		p.observer.ObserveNotifyError()
		l.Warn().Err(err).Str(pkglog.FieldFileID, src.FileID).Msg("could not notify thumbnail")
		return
	}
	l.Info().Str(pkglog.FieldFileID, src.FileID).Msg("thumbnail announced")
}

func stageOf(err error) Stage {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Stage
	}
	return ""
}
