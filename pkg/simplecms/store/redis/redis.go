package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/tendant/simple-cms/pkg/simplecms"
)

const scanBatch = 100

// Config options for the Redis backend
type Config struct {
	KeyPrefix string       // Prefix prepended to every key (default "cms:")
	Logger    *slog.Logger // Optional logger
}

// Store implements simplecms.SnapshotStore with one Redis string per name
type Store struct {
	redis  *redis.Client
	prefix string
	logger *slog.Logger
}

// New creates a new Redis snapshot store
func New(client *redis.Client, config Config) *Store {
	if config.KeyPrefix == "" {
		config.KeyPrefix = "cms:"
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Store{redis: client, prefix: config.KeyPrefix, logger: config.Logger}
}

// NewFromURL parses a redis:// URL and creates the store
func NewFromURL(ctx context.Context, url string, config Config) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return New(client, config), nil
}

// Client returns the underlying redis.Client
func (s *Store) Client() *redis.Client {
	return s.redis
}

func (s *Store) key(name string) string {
	return s.prefix + name
}

func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	val, err := s.redis.Get(ctx, s.key(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, simplecms.ErrSnapshotNotFound
	}
	if err != nil {
		s.logger.Error("redis GET failed", "key", s.key(name), "error", err)
		return nil, fmt.Errorf("failed to get key %s: %w", s.key(name), err)
	}
	s.logger.Debug("redis GET", "key", s.key(name))
	return val, nil
}

func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	if err := s.redis.Set(ctx, s.key(name), data, 0).Err(); err != nil {
		s.logger.Error("redis SET failed", "key", s.key(name), "error", err)
		return fmt.Errorf("failed to set key %s: %w", s.key(name), err)
	}
	s.logger.Debug("redis SET", "key", s.key(name), "size", len(data))
	return nil
}

func (s *Store) Delete(ctx context.Context, name string) error {
	if err := s.redis.Del(ctx, s.key(name)).Err(); err != nil {
		s.logger.Error("redis DEL failed", "key", s.key(name), "error", err)
		return fmt.Errorf("failed to delete key %s: %w", s.key(name), err)
	}
	return nil
}

// List walks the keyspace with SCAN; KEYS would block the server.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	match := escapeGlob(s.prefix+prefix) + "*"
	iter := s.redis.Scan(ctx, 0, match, scanBatch).Iterator()

	seen := make(map[string]struct{})
	for iter.Next(ctx) {
		seen[strings.TrimPrefix(iter.Val(), s.prefix)] = struct{}{}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan keys: %w", err)
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func escapeGlob(s string) string {
	r := strings.NewReplacer(`\`, `\\`, "*", `\*`, "?", `\?`, "[", `\[`, "]", `\]`)
	return r.Replace(s)
}
