package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/weiawesome/thumbnail-service/internal/config"
	"github.com/weiawesome/thumbnail-service/internal/handler"
	"github.com/weiawesome/thumbnail-service/internal/mq"
	"github.com/weiawesome/thumbnail-service/internal/server"
	"github.com/weiawesome/thumbnail-service/internal/watch"
	"github.com/weiawesome/thumbnail-service/pkg/jwt"
	pkglog "github.com/weiawesome/thumbnail-service/pkg/log"
	"github.com/weiawesome/thumbnail-service/pkg/middleware"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Consume bucket notifications from Kafka, the webhook and/or a watched directory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), *configFile)
		},
	}
}

func runServe(parent context.Context, configFile string) error {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return err
	}
	l := pkglog.L()
	l.Info().Msg("thumbnail-service starting")

	if !cfg.Server.Enabled && !cfg.Kafka.Enabled && !cfg.Watch.Enabled {
		return errors.New("nothing to serve: enable server, kafka and/or watch")
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := serve(ctx, cfg, a); err != nil {
		return err
	}
	l.Info().Msg("shutdown complete")
	return nil
}

// serve runs every enabled trigger until ctx is done or one of them fails.
// A failing trigger stops the others.
func serve(ctx context.Context, cfg *config.Config, a *app) error {
	l := pkglog.L()

	var consumer mq.NotificationConsumer
	if cfg.Kafka.Enabled {
		kc, err := mq.NewKafkaConsumer(cfg.Kafka.Brokers, cfg.Kafka.ConsumerTopic, cfg.Kafka.ConsumerGroupID, a.processor)
		if err != nil {
			return err
		}
		consumer = kc
	}

	var srv *server.Server
	if cfg.Server.Enabled {
		router, err := newRouter(cfg, a)
		if err != nil {
			closeConsumer(consumer)
			return err
		}
		srv = server.New(cfg.Server.Addr(), router)
	}

	var watcher *watch.DirWatcher
	if cfg.Watch.Enabled {
		w, err := watch.NewDirWatcher(cfg.Storage.Local.BasePath, cfg.Watch.Buckets, cfg.Watch.Settle, a.processor)
		if err != nil {
			closeConsumer(consumer)
			return err
		}
		watcher = w
	}

	g, gCtx := errgroup.WithContext(ctx)

	if consumer != nil {
		if err := consumer.Start(gCtx); err != nil {
			closeConsumer(consumer)
			if watcher != nil {
				watcher.Close()
			}
			return err
		}
		g.Go(func() error {
			<-gCtx.Done()
			l.Info().Msg("shutting down: waiting for in-flight processing to complete")
			closeConsumer(consumer)
			return nil
		})
	}
	if srv != nil {
		g.Go(func() error {
			return srv.Run(gCtx, shutdownTimeout)
		})
	}
	if watcher != nil {
		g.Go(func() error {
			return watcher.Run(gCtx)
		})
	}

	return g.Wait()
}

// closeConsumer closes c, giving up after shutdownTimeout. c may be nil.
func closeConsumer(c mq.NotificationConsumer) {
	if c == nil {
		return
	}
	l := pkglog.L()
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := c.Close(); err != nil {
			l.Warn().Err(err).Msg("failed to close consumer")
		}
	}()
	select {
	case <-done:
	case <-time.After(shutdownTimeout):
		l.Warn().Dur("timeout", shutdownTimeout).Msg("consumer shutdown timed out")
	}
}

func newRouter(cfg *config.Config, a *app) (*gin.Engine, error) {
	l := pkglog.L()
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	var auth []gin.HandlerFunc
	if cfg.Server.Auth.Secret != "" {
		manager, err := jwt.NewManager(cfg.Server.Auth.Secret, cfg.Server.Auth.Issuer)
		if err != nil {
			return nil, err
		}
		auth = append(auth, middleware.NewAuthMiddleware(manager).RequireAuth())
		l.Info().Msg("webhook bearer auth enabled")
	}

	var opts []handler.Option
	if a.thumbs != nil {
		opts = append(opts, handler.WithThumbnailLookup(a.thumbs))
	}
	return server.NewRouter(l, handler.NewHandler(a.processor, opts...), a.registry, auth...), nil
}
