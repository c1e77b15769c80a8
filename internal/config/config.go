package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	pkgconfig "github.com/weiawesome/thumbnail-service/pkg/config"
	"github.com/weiawesome/thumbnail-service/pkg/database"
	"github.com/weiawesome/thumbnail-service/pkg/pubsub"
	"github.com/weiawesome/thumbnail-service/pkg/storage"
)

type Config struct {
	Log       LogConfig              `mapstructure:"log"`
	Server    ServerConfig           `mapstructure:"server"`
	Kafka     KafkaConfig            `mapstructure:"kafka"`
	Watch     WatchConfig            `mapstructure:"watch"`
	Redis     pubsub.RedisConfig     `mapstructure:"redis"`
	Storage   storage.Config         `mapstructure:"storage"`
	Database  database.Config        `mapstructure:"database"`
	Thumbnail ThumbnailConfig        `mapstructure:"thumbnail"`
	Processor ProcessorConfig        `mapstructure:"processor"`
	Notify    NotifyConfig           `mapstructure:"notify"`
	Routes    map[string]RouteConfig `mapstructure:"routes"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type ServerConfig struct {
	Enabled bool       `mapstructure:"enabled"`
	Host    string     `mapstructure:"host"`
	Port    int        `mapstructure:"port"`
	Auth    AuthConfig `mapstructure:"auth"`
}

// AuthConfig enables bearer JWT checks on the webhook when Secret is set.
type AuthConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type KafkaConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Brokers         string `mapstructure:"brokers"`
	ConsumerTopic   string `mapstructure:"consumer_topic"`
	ConsumerGroupID string `mapstructure:"consumer_group_id"`
	ProducerTopic   string `mapstructure:"producer_topic"` // empty disables the thumbnail.created event
}

// WatchConfig drives the filesystem trigger for the local storage backend.
type WatchConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Buckets []string      `mapstructure:"buckets"`
	Settle  time.Duration `mapstructure:"settle"`
}

type ThumbnailConfig struct {
	MaxWidth     int      `mapstructure:"max_width"`
	MaxHeight    int      `mapstructure:"max_height"`
	Dir          string   `mapstructure:"dir"`
	AllowedTypes []string `mapstructure:"allowed_types"`
	JpegQuality  int      `mapstructure:"jpeg_quality"`
}

type ProcessorConfig struct {
	EventNamePrefixes []string `mapstructure:"event_name_prefixes"`
	Buckets           []string `mapstructure:"buckets"` // empty accepts every bucket
}

type NotifyConfig struct {
	Path    string        `mapstructure:"path"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// RouteConfig addresses the callback for one source bucket.
type RouteConfig struct {
	Host   string `mapstructure:"host"`
	Bucket string `mapstructure:"bucket"`
	Secret string `mapstructure:"secret"`
}

// Load reads config from file (or ./config/config.yaml when file is empty),
// applies defaults and environment overrides, and validates the result.
func Load(file string) (*Config, error) {
	v, err := pkgconfig.Load(file, "./config", "config")
	if err != nil {
		return nil, err
	}

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("server.enabled", true)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.auth.secret", "")
	v.SetDefault("server.auth.issuer", "thumbnail-service")
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", "localhost:9092")
	v.SetDefault("kafka.consumer_topic", "minio-events")
	v.SetDefault("kafka.consumer_group_id", "thumbnail-service")
	v.SetDefault("kafka.producer_topic", "")
	v.SetDefault("watch.enabled", false)
	v.SetDefault("watch.settle", 250*time.Millisecond)
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.read_timeout", 3*time.Second)
	v.SetDefault("redis.write_timeout", 3*time.Second)
	v.SetDefault("database.driver", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.dbname", "thumbnail_service")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.file_path", "./data/thumbnails.db")
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.conn_max_lifetime", 60)
	v.SetDefault("storage.type", storage.TypeS3)
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.use_path_style", true)
	v.SetDefault("storage.minio.region", "us-east-1")
	v.SetDefault("storage.minio.path_style", true)
	v.SetDefault("storage.local.base_path", "./data/storage")
	v.SetDefault("thumbnail.max_width", 100)
	v.SetDefault("thumbnail.max_height", 100)
	v.SetDefault("thumbnail.dir", "thumbs")
	v.SetDefault("thumbnail.allowed_types", []string{"png", "jpg", "jpeg", "gif"})
	v.SetDefault("thumbnail.jpeg_quality", 85)
	v.SetDefault("processor.event_name_prefixes", []string{"s3:ObjectCreated:", "ObjectCreated:"})
	v.SetDefault("notify.path", "/api/filecopy/add")
	v.SetDefault("notify.timeout", 10*time.Second)

	// Env bindings
	v.BindEnv("log.level", "LOG_LEVEL")
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.auth.secret", "WEBHOOK_AUTH_SECRET")
	v.BindEnv("kafka.enabled", "KAFKA_ENABLED")
	v.BindEnv("kafka.brokers", "KAFKA_BROKERS")
	v.BindEnv("kafka.consumer_topic", "KAFKA_CONSUMER_TOPIC")
	v.BindEnv("kafka.consumer_group_id", "KAFKA_CONSUMER_GROUP_ID")
	v.BindEnv("kafka.producer_topic", "KAFKA_PRODUCER_TOPIC")
	v.BindEnv("redis.enabled", "REDIS_ENABLED")
	v.BindEnv("redis.address", "REDIS_ADDRESS")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("database.driver", "DB_DRIVER")
	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.port", "DB_PORT")
	v.BindEnv("database.user", "DB_USER")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("database.dbname", "DB_NAME")
	v.BindEnv("storage.type", "STORAGE_TYPE")
	v.BindEnv("storage.s3.endpoint", "S3_ENDPOINT")
	v.BindEnv("storage.s3.region", "S3_REGION")
	v.BindEnv("storage.s3.access_key_id", "S3_ACCESS_KEY_ID")
	v.BindEnv("storage.s3.secret_access_key", "S3_SECRET_ACCESS_KEY")
	v.BindEnv("storage.minio.endpoint", "MINIO_ENDPOINT")
	v.BindEnv("storage.minio.access_key", "MINIO_ACCESS_KEY")
	v.BindEnv("storage.minio.secret_key", "MINIO_SECRET_KEY")
	v.BindEnv("storage.gcs.credentials_file", "GOOGLE_APPLICATION_CREDENTIALS")
	v.BindEnv("thumbnail.max_width", "THUMBNAIL_MAX_WIDTH")
	v.BindEnv("thumbnail.max_height", "THUMBNAIL_MAX_HEIGHT")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the invariants the processor relies on.
func (c *Config) Validate() error {
	var errs []error
	if c.Thumbnail.MaxWidth <= 0 || c.Thumbnail.MaxHeight <= 0 {
		errs = append(errs, fmt.Errorf("thumbnail box must be positive, got %dx%d", c.Thumbnail.MaxWidth, c.Thumbnail.MaxHeight))
	}
	if c.Thumbnail.Dir == "" || strings.Contains(c.Thumbnail.Dir, "/") {
		errs = append(errs, fmt.Errorf("thumbnail.dir must be a single path segment, got %q", c.Thumbnail.Dir))
	}
	if len(c.Thumbnail.AllowedTypes) == 0 {
		errs = append(errs, errors.New("thumbnail.allowed_types must not be empty"))
	}
	if c.Thumbnail.JpegQuality < 1 || c.Thumbnail.JpegQuality > 100 {
		errs = append(errs, fmt.Errorf("thumbnail.jpeg_quality must be in [1,100], got %d", c.Thumbnail.JpegQuality))
	}
	switch c.Storage.Type {
	case storage.TypeS3, storage.TypeMinIO, storage.TypeGCS, storage.TypeLocal:
	default:
		errs = append(errs, fmt.Errorf("unknown storage type %q", c.Storage.Type))
	}
	if c.Watch.Enabled {
		if c.Storage.Type != storage.TypeLocal {
			errs = append(errs, fmt.Errorf("watch requires storage.type %q, got %q", storage.TypeLocal, c.Storage.Type))
		}
		if len(c.Watch.Buckets) == 0 {
			errs = append(errs, errors.New("watch.buckets must not be empty"))
		}
	}
	switch c.Database.Driver {
	case "", "postgres", "mysql", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("unknown database driver %q", c.Database.Driver))
	}
	if c.Redis.Enabled && c.Redis.Address == "" {
		errs = append(errs, errors.New("redis.address is required when redis is enabled"))
	}
	for bucket, r := range c.Routes {
		if r.Host == "" {
			errs = append(errs, fmt.Errorf("route %q has no host", bucket))
		}
	}
	return errors.Join(errs...)
}
