package configcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bhatinags-creator/au-api-banking-sub001/pkg/observability/logger"
)

// RedisConfig configures a RedisStore.
type RedisConfig struct {
	URL              string
	Prefix           string
	MaxConns         int
	OperationTimeout time.Duration
}

// RedisStore shares entries between processes. Entries are JSON encoded and expire
// EvictAfter after they are set.
type RedisStore[T any] struct {
	client  *redis.Client
	prefix  string
	timeout time.Duration
	log     logger.Logger
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore[T any](cfg RedisConfig, log logger.Logger) (*RedisStore[T], error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("redis URL is required")
	}
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.MaxConns > 0 {
		opts.PoolSize = cfg.MaxConns
	}
	opts.DialTimeout = 5 * time.Second
	if cfg.OperationTimeout > 0 {
		opts.ReadTimeout = cfg.OperationTimeout
		opts.WriteTimeout = cfg.OperationTimeout
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	log = logger.OrNop(log)
	log.Info("redis cache store connected", "max_conns", opts.PoolSize, "prefix", cfg.Prefix)
	return NewRedisStoreFromClient[T](client, cfg.Prefix, cfg.OperationTimeout, log), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient[T any](client *redis.Client, prefix string, operationTimeout time.Duration, log logger.Logger) *RedisStore[T] {
	if prefix != "" {
		prefix += ":"
	}
	if operationTimeout <= 0 {
		operationTimeout = 2 * time.Second
	}
	return &RedisStore[T]{
		client:  client,
		prefix:  prefix,
		timeout: operationTimeout,
		log:     logger.OrNop(log),
	}
}

func (s *RedisStore[T]) Get(ctx context.Context, key string) (Entry[T], bool, error) {
	var entry Entry[T]
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return entry, false, nil
	}
	if err != nil {
		return entry, false, fmt.Errorf("failed to get key %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, &entry); err != nil {
		return entry, false, fmt.Errorf("failed to decode entry %s: %w", key, err)
	}
	return entry, true, nil
}

func (s *RedisStore[T]) Set(ctx context.Context, key string, entry Entry[T]) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode entry %s: %w", key, err)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.client.Set(ctx, s.prefix+key, raw, entry.EvictAfter).Err(); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore[T]) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}

// DeletePrefix scans the keyspace for prefix and deletes every match.
func (s *RedisStore[T]) DeletePrefix(ctx context.Context, prefix string) error {
	iter := s.client.Scan(ctx, 0, s.prefix+prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan prefix %s: %w", prefix, err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete prefix %s: %w", prefix, err)
	}
	s.log.Debug("redis cache prefix deleted", "prefix", prefix, "keys", len(keys))
	return nil
}

// HealthCheck pings Redis.
func (s *RedisStore[T]) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}

// Close closes the client.
func (s *RedisStore[T]) Close() error {
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("failed to close redis connection: %w", err)
	}
	return nil
}
