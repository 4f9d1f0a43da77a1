package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
)

// WithEnv applies environment variable overrides using the provided prefix.
//
// Server:
//
//	PORT - Server port (default: "8080")
//	ENVIRONMENT - Runtime environment (default: "development")
//	LOG_LEVEL, LOG_FORMAT - slog level and "text" or "json"
//
// Store:
//
//	STORE_URL - Snapshot store connection string (one of):
//	            - "memory://" - In-memory store (default)
//	            - "file:///path/to/data" - One JSON file per snapshot
//	            - "s3://bucket?region=us-east-1&endpoint=http://localhost:9000&prefix=cms/"
//	            - "postgres://..." or "postgresql://..." - cms_snapshots table
//	            - "redis://host:6379/0" - one key per snapshot
//	            - "sqlite:/path/cms.db", "libsql://db.turso.io?authToken=..." - cms_snapshots table
//	DB_SCHEMA - Postgres search_path (default: "cms")
//	REDIS_PREFIX - Redis key prefix (default: "cms:")
//
// Service:
//
//	STRICT_CATEGORIES - reject category ids that do not exist
//	ENABLE_EVENT_LOGGING - log snapshot and membership events
func WithEnv(prefix string) Option {
	return func(c *ServerConfig) error {
		if v, ok := lookupEnv(prefix, "PORT"); ok && v != "" {
			c.Port = v
		}
		if v, ok := lookupEnv(prefix, "ENVIRONMENT"); ok && v != "" {
			c.Environment = v
		}
		if v, ok := lookupEnv(prefix, "LOG_LEVEL"); ok && v != "" {
			c.LogLevel = v
		}
		if v, ok := lookupEnv(prefix, "LOG_FORMAT"); ok && v != "" {
			c.LogFormat = v
		}
		if v, ok := lookupEnv(prefix, "DB_SCHEMA"); ok {
			c.DBSchema = v
		}
		if v, ok := lookupEnv(prefix, "REDIS_PREFIX"); ok && v != "" {
			c.RedisPrefix = v
		}

		if err := applyStoreEnv(prefix, c); err != nil {
			return err
		}

		if v, ok, err := parseBoolEnv(prefix, "STRICT_CATEGORIES"); err != nil {
			return err
		} else if ok {
			c.StrictCategories = v
		}
		if v, ok, err := parseBoolEnv(prefix, "ENABLE_EVENT_LOGGING"); err != nil {
			return err
		} else if ok {
			c.EnableEventLogging = v
		}

		return nil
	}
}

// applyStoreEnv picks the snapshot store from STORE_URL
func applyStoreEnv(prefix string, c *ServerConfig) error {
	storeURL, _ := lookupEnv(prefix, "STORE_URL")
	return applyStoreURL(storeURL, c)
}

// applyStoreURL maps a store URL onto the store fields of c. An empty URL
// selects the memory store.
func applyStoreURL(storeURL string, c *ServerConfig) error {
	switch {
	case storeURL == "" || storeURL == "memory" || storeURL == "memory://":
		c.StoreType = StoreMemory
		c.StoreURL = ""
	case strings.HasPrefix(storeURL, "file://"):
		path := strings.TrimPrefix(storeURL, "file://")
		if path == "" {
			return fmt.Errorf("filesystem path cannot be empty in STORE_URL")
		}
		c.StoreType = StoreFS
		c.FSBaseDir = path
	case strings.HasPrefix(storeURL, "s3://"):
		return applyS3Store(storeURL, c)
	case strings.HasPrefix(storeURL, "postgres://"), strings.HasPrefix(storeURL, "postgresql://"):
		c.StoreType = StorePostgres
		c.StoreURL = storeURL
	case strings.HasPrefix(storeURL, "redis://"), strings.HasPrefix(storeURL, "rediss://"):
		c.StoreType = StoreRedis
		c.StoreURL = storeURL
	case strings.HasPrefix(storeURL, "sqlite:"), strings.HasPrefix(storeURL, "libsql://"):
		c.StoreType = StoreSQLite
		c.StoreURL = storeURL
	default:
		return fmt.Errorf("unsupported STORE_URL format: %s (use 'memory://', 'file://...', 's3://...', 'postgres://...', 'redis://...' or 'sqlite:...')", storeURL)
	}
	return nil
}

// applyS3Store configures the S3 store from URL
// Format: s3://bucket?region=us-east-1&endpoint=http://localhost:9000&prefix=cms/
func applyS3Store(raw string, c *ServerConfig) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid STORE_URL: %w", err)
	}
	if u.Host == "" {
		return fmt.Errorf("S3 bucket name cannot be empty in STORE_URL")
	}

	c.StoreType = StoreS3
	c.S3Bucket = u.Host

	q := u.Query()
	if v := q.Get("region"); v != "" {
		c.S3Region = v
	}
	if v := q.Get("endpoint"); v != "" {
		c.S3Endpoint = v
		c.S3UsePathStyle = true
	}
	if v := q.Get("prefix"); v != "" {
		c.S3KeyPrefix = v
	}
	if v := q.Get("create_bucket"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid boolean for create_bucket: %w", err)
		}
		c.S3CreateBucketIfNotExist = b
	}

	// AWS credentials come from the standard AWS variables
	if v, ok := os.LookupEnv("AWS_ACCESS_KEY_ID"); ok && v != "" {
		c.S3AccessKeyID = v
	}
	if v, ok := os.LookupEnv("AWS_SECRET_ACCESS_KEY"); ok && v != "" {
		c.S3SecretAccessKey = v
	}
	if v, ok := os.LookupEnv("AWS_REGION"); ok && v != "" && q.Get("region") == "" {
		c.S3Region = v
	}
	return nil
}

func lookupEnv(prefix, key string) (string, bool) {
	return os.LookupEnv(prefix + key)
}

func parseBoolEnv(prefix, key string) (bool, bool, error) {
	raw, ok := lookupEnv(prefix, key)
	if !ok || raw == "" {
		return false, false, nil
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false, fmt.Errorf("invalid boolean for %s%s: %w", prefix, key, err)
	}
	return parsed, true, nil
}
