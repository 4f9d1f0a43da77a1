package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-cms/pkg/simplecms"
	fsstore "github.com/tendant/simple-cms/pkg/simplecms/store/fs"
	memorystore "github.com/tendant/simple-cms/pkg/simplecms/store/memory"
	pgstore "github.com/tendant/simple-cms/pkg/simplecms/store/postgres"
	redisstore "github.com/tendant/simple-cms/pkg/simplecms/store/redis"
	s3store "github.com/tendant/simple-cms/pkg/simplecms/store/s3"
	sqlitestore "github.com/tendant/simple-cms/pkg/simplecms/store/sqlite"
)

// Store types accepted in ServerConfig.StoreType
const (
	StoreMemory   = "memory"
	StoreFS       = "fs"
	StoreS3       = "s3"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
	StoreSQLite   = "sqlite"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:               "8080",
		Environment:        "development",
		StoreType:          StoreMemory,
		DBSchema:           "cms",
		RedisPrefix:        "cms:",
		S3Region:           "us-east-1",
		EnableEventLogging: true,
		LogLevel:           "info",
		LogFormat:          "text",
	}
}

// ServerConfig represents server configuration for the content admin
type ServerConfig struct {
	Port        string
	Environment string // development, production, testing

	// Snapshot store
	StoreType string // memory, fs, s3, postgres, redis, sqlite
	StoreURL  string // connection string for postgres, redis, sqlite
	FSBaseDir string
	DBSchema  string // Postgres schema to use (default: cms)

	RedisPrefix string

	S3Bucket                 string
	S3Region                 string
	S3Endpoint               string
	S3AccessKeyID            string
	S3SecretAccessKey        string
	S3KeyPrefix              string
	S3UsePathStyle           bool
	S3CreateBucketIfNotExist bool

	// Service options
	StrictCategories   bool
	EnableEventLogging bool

	LogLevel  string // debug, info, warn, error
	LogFormat string // text, json
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	switch c.StoreType {
	case StoreMemory:
	case StoreFS:
		if c.FSBaseDir == "" {
			return errors.New("fs base directory is required when using fs store")
		}
	case StoreS3:
		if c.S3Bucket == "" {
			return errors.New("s3 bucket is required when using s3 store")
		}
	case StorePostgres, StoreRedis, StoreSQLite:
		if c.StoreURL == "" {
			return fmt.Errorf("store_url is required when using %s store", c.StoreType)
		}
	default:
		return fmt.Errorf("unsupported store type: %s", c.StoreType)
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("log format must be 'text' or 'json', got %q", c.LogFormat)
	}

	return nil
}

// BuildStore creates the snapshot store named by the configuration
func (c *ServerConfig) BuildStore(ctx context.Context) (simplecms.SnapshotStore, error) {
	switch c.StoreType {
	case StoreMemory:
		return memorystore.New(), nil

	case StoreFS:
		return fsstore.New(fsstore.Config{BaseDir: c.FSBaseDir})

	case StoreS3:
		return s3store.New(s3store.Config{
			Region:                 c.S3Region,
			Bucket:                 c.S3Bucket,
			AccessKeyID:            c.S3AccessKeyID,
			SecretAccessKey:        c.S3SecretAccessKey,
			Endpoint:               c.S3Endpoint,
			UsePathStyle:           c.S3UsePathStyle,
			KeyPrefix:              c.S3KeyPrefix,
			CreateBucketIfNotExist: c.S3CreateBucketIfNotExist,
		})

	case StorePostgres:
		pool, err := newPool(ctx, c.StoreURL, c.DBSchema)
		if err != nil {
			return nil, err
		}
		if c.DBSchema != "" {
			if _, err := pool.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+pgx.Identifier{c.DBSchema}.Sanitize()); err != nil {
				pool.Close()
				return nil, fmt.Errorf("failed to create schema %s: %w", c.DBSchema, err)
			}
		}
		store := pgstore.NewWithPool(pool)
		if err := store.Migrate(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return store, nil

	case StoreRedis:
		return redisstore.NewFromURL(ctx, c.StoreURL, redisstore.Config{KeyPrefix: c.RedisPrefix})

	case StoreSQLite:
		return sqlitestore.Open(ctx, strings.TrimPrefix(c.StoreURL, "sqlite:"))

	default:
		return nil, fmt.Errorf("unsupported store type: %s", c.StoreType)
	}
}

// BuildService creates a Service instance from the server configuration
func (c *ServerConfig) BuildService(ctx context.Context, logger *slog.Logger) (simplecms.Service, error) {
	store, err := c.BuildStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s store: %w", c.StoreType, err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	options := []simplecms.Option{
		simplecms.WithStore(store),
		simplecms.WithLogger(logger),
		simplecms.WithStrictCategories(c.StrictCategories),
	}
	if c.EnableEventLogging {
		options = append(options, simplecms.WithEventSink(simplecms.NewLogEventSink(logger)))
	}

	return simplecms.New(options...)
}

func newPool(ctx context.Context, databaseURL, schema string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse STORE_URL: %w", err)
	}
	if schema != "" {
		cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			_, err := conn.Exec(ctx, fmt.Sprintf("SET search_path TO %s", pgx.Identifier{schema}.Sanitize()))
			return err
		}
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	return pool, nil
}

// PingPostgres verifies connectivity to Postgres, setting search_path to
// schema when one is given.
func PingPostgres(databaseURL, schema string) error {
	if databaseURL == "" {
		return errors.New("database url is required")
	}
	pool, err := newPool(context.Background(), databaseURL, schema)
	if err != nil {
		return err
	}
	defer pool.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}
