package config

import (
	"fmt"
)

// WithPort sets the server port
func WithPort(port string) Option {
	return func(c *ServerConfig) error {
		if port == "" {
			return fmt.Errorf("port cannot be empty")
		}
		c.Port = port
		return nil
	}
}

// WithEnvironment sets the environment (development, production, testing)
func WithEnvironment(env string) Option {
	return func(c *ServerConfig) error {
		if env == "" {
			return fmt.Errorf("environment cannot be empty")
		}
		c.Environment = env
		return nil
	}
}

// WithStoreURL selects the store from a URL in the STORE_URL format
func WithStoreURL(storeURL string) Option {
	return func(c *ServerConfig) error {
		return applyStoreURL(storeURL, c)
	}
}

// WithMemoryStore keeps snapshots in process memory
func WithMemoryStore() Option {
	return func(c *ServerConfig) error {
		c.StoreType = StoreMemory
		c.StoreURL = ""
		return nil
	}
}

// WithFilesystemStore writes one JSON file per snapshot under baseDir
func WithFilesystemStore(baseDir string) Option {
	return func(c *ServerConfig) error {
		if baseDir == "" {
			return fmt.Errorf("filesystem base directory cannot be empty")
		}
		c.StoreType = StoreFS
		c.FSBaseDir = baseDir
		return nil
	}
}

// WithPostgresStore keeps snapshots in a Postgres table inside schema
func WithPostgresStore(url, schema string) Option {
	return func(c *ServerConfig) error {
		if url == "" {
			return fmt.Errorf("database URL is required for postgres")
		}
		c.StoreType = StorePostgres
		c.StoreURL = url
		c.DBSchema = schema
		return nil
	}
}

// WithRedisStore keeps snapshots as Redis strings under keyPrefix
func WithRedisStore(url, keyPrefix string) Option {
	return func(c *ServerConfig) error {
		if url == "" {
			return fmt.Errorf("redis URL is required")
		}
		c.StoreType = StoreRedis
		c.StoreURL = url
		if keyPrefix != "" {
			c.RedisPrefix = keyPrefix
		}
		return nil
	}
}

// WithSQLiteStore keeps snapshots in a local SQLite file or a Turso database
func WithSQLiteStore(url string) Option {
	return func(c *ServerConfig) error {
		if url == "" {
			return fmt.Errorf("sqlite URL is required")
		}
		c.StoreType = StoreSQLite
		c.StoreURL = url
		return nil
	}
}

// WithS3Store keeps snapshots as objects in bucket
func WithS3Store(bucket, region, keyPrefix string) Option {
	return func(c *ServerConfig) error {
		if bucket == "" {
			return fmt.Errorf("S3 bucket cannot be empty")
		}
		c.StoreType = StoreS3
		c.S3Bucket = bucket
		if region != "" {
			c.S3Region = region
		}
		c.S3KeyPrefix = keyPrefix
		return nil
	}
}

// WithS3Endpoint points the S3 store at an S3-compatible service such as MinIO
func WithS3Endpoint(endpoint string, createBucket bool) Option {
	return func(c *ServerConfig) error {
		c.S3Endpoint = endpoint
		c.S3UsePathStyle = endpoint != ""
		c.S3CreateBucketIfNotExist = createBucket
		return nil
	}
}

// WithStrictCategories rejects category ids that do not exist
func WithStrictCategories(strict bool) Option {
	return func(c *ServerConfig) error {
		c.StrictCategories = strict
		return nil
	}
}

// WithEventLogging enables or disables the logging event sink
func WithEventLogging(enabled bool) Option {
	return func(c *ServerConfig) error {
		c.EnableEventLogging = enabled
		return nil
	}
}

// WithLogging sets the slog level and output format
func WithLogging(level, format string) Option {
	return func(c *ServerConfig) error {
		if level != "" {
			c.LogLevel = level
		}
		if format != "" {
			c.LogFormat = format
		}
		return nil
	}
}
