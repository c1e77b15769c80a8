package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/weiawesome/thumbnail-service/internal/config"
	"github.com/weiawesome/thumbnail-service/internal/event"
	"github.com/weiawesome/thumbnail-service/internal/metrics"
	"github.com/weiawesome/thumbnail-service/internal/mq"
	"github.com/weiawesome/thumbnail-service/internal/notify"
	"github.com/weiawesome/thumbnail-service/internal/processor"
	"github.com/weiawesome/thumbnail-service/internal/repository"
	"github.com/weiawesome/thumbnail-service/pkg/database"
	pkglog "github.com/weiawesome/thumbnail-service/pkg/log"
	"github.com/weiawesome/thumbnail-service/pkg/pubsub"
	"github.com/weiawesome/thumbnail-service/pkg/storage"
)

// app holds the wired components shared by every command.
type app struct {
	cfg       *config.Config
	processor *processor.ThumbnailProcessor
	registry  *prometheus.Registry
	thumbs    repository.ThumbnailRepository // nil without a database
	closers   []func() error
}

func loadConfig(file string) (*config.Config, error) {
	cfg, err := config.Load(file)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	pkglog.Init(pkglog.Config{
		Level:       cfg.Log.Level,
		Pretty:      cfg.Log.Level == "debug",
		ServiceName: "thumbnail-service",
	})
	return cfg, nil
}

// newApp wires storage, notifiers, metrics and the processor.
// withPublisher enables the Kafka thumbnail.created publisher when configured.
func newApp(ctx context.Context, cfg *config.Config, withPublisher bool) (*app, error) {
	l := pkglog.L()
	a := &app{cfg: cfg, registry: prometheus.NewRegistry()}

	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	if c, ok := store.(interface{ Close() error }); ok {
		a.closers = append(a.closers, c.Close)
	}
	l.Info().Str("type", cfg.Storage.Type).Msg("storage initialised")

	routes := make(map[string]notify.Route, len(cfg.Routes))
	for bucket, r := range cfg.Routes {
		routes[bucket] = notify.Route{Host: r.Host, Bucket: r.Bucket, Secret: r.Secret}
	}
	notifiers := notify.Multi{notify.NewCallback(routes, cfg.Notify.Path, cfg.Notify.Timeout)}
	if len(routes) == 0 {
		l.Warn().Msg("no callback routes configured, every notification will fail")
	}

	if withPublisher && cfg.Kafka.Enabled && cfg.Kafka.ProducerTopic != "" {
		publisher, err := mq.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.ProducerTopic)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("init kafka publisher: %w", err)
		}
		a.closers = append(a.closers, publisher.Close)
		notifiers = append(notifiers, publisher)
		l.Info().Str("topic", cfg.Kafka.ProducerTopic).Msg("thumbnail event publisher initialised")
	}

	if cfg.Redis.Enabled {
		publisher, err := pubsub.NewRedisPublisher(ctx, cfg.Redis)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("init redis publisher: %w", err)
		}
		a.closers = append(a.closers, publisher.Close)
		notifiers = append(notifiers, notify.NewPubSub(publisher))
		l.Info().Str("address", cfg.Redis.Address).Msg("redis publisher initialised")
	}

	if cfg.Database.Enabled() {
		db, err := database.New(&cfg.Database)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("init database: %w", err)
		}
		a.closers = append(a.closers, func() error { return database.Close(db) })
		if err := database.AutoMigrate(db, &repository.ThumbnailModel{}); err != nil {
			a.Close()
			return nil, fmt.Errorf("migrate database: %w", err)
		}
		a.thumbs = repository.NewGormThumbnailRepository(db)
		notifiers = append(notifiers, a.thumbs)
		l.Info().Str("driver", cfg.Database.Driver).Msg("thumbnail repository initialised")
	}

	observer, err := metrics.NewPrometheusObserver("thumbnailer", a.registry)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.processor, err = processor.NewThumbnailProcessor(store, notifiers, processor.Config{
		Box:          processor.Box{Width: cfg.Thumbnail.MaxWidth, Height: cfg.Thumbnail.MaxHeight},
		ThumbDir:     cfg.Thumbnail.Dir,
		AllowedTypes: cfg.Thumbnail.AllowedTypes,
		JpegQuality:  cfg.Thumbnail.JpegQuality,
		Filter: event.Filter{
			EventNamePrefixes: cfg.Processor.EventNamePrefixes,
			Buckets:           cfg.Processor.Buckets,
		},
	}, processor.WithObserver(observer))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init processor: %w", err)
	}

	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	l := pkglog.L()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			l.Warn().Err(err).Msg("failed to close resource")
		}
	}
}
