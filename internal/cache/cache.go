/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package cache provides a Redis-based caching layer for checksums and
// serialized program descriptions.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/friendsincode/romcatalog/internal/description"
)

// Default TTL values for different cache types
const (
	DefaultCrcTTL         = 7 * 24 * time.Hour
	DefaultDescriptionTTL = 10 * time.Minute
)

// Key prefixes for Redis cache
const (
	KeyCrc         = "romcatalog:cache:crc:"         // + path:size:mtime
	KeyDescription = "romcatalog:cache:description:" // + crc
)

// Config contains cache configuration.
type Config struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// TTL overrides
	CrcTTL         time.Duration
	DescriptionTTL time.Duration

	// Fallback behavior
	DisableOnError bool // If true, disable caching on Redis errors
}

// DefaultConfig returns default cache configuration.
func DefaultConfig() Config {
	return Config{
		RedisAddr:      "localhost:6379",
		CrcTTL:         DefaultCrcTTL,
		DescriptionTTL: DefaultDescriptionTTL,
		DisableOnError: true,
	}
}

// Client is the subset of the Redis client the cache uses.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
	Close() error
}

// Cache provides Redis-backed caching with graceful fallback.
type Cache struct {
	client Client
	logger zerolog.Logger
	config Config

	mu       sync.RWMutex
	disabled bool // Circuit breaker state
}

// New creates a new cache instance. An unreachable server yields a disabled
// cache, not an error.
func New(cfg Config, logger zerolog.Logger) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Msg("Redis cache unavailable, running without caching")
		_ = client.Close()
		return Disabled(logger), nil
	}

	logger.Info().Str("addr", cfg.RedisAddr).Msg("Redis cache initialized")

	return NewWithClient(client, cfg, logger), nil
}

// NewWithClient builds an available cache on an already connected client.
func NewWithClient(client Client, cfg Config, logger zerolog.Logger) *Cache {
	return &Cache{
		client: client,
		logger: logger.With().Str("component", "cache").Logger(),
		config: cfg,
	}
}

// Disabled returns a cache that never stores anything.
func Disabled(logger zerolog.Logger) *Cache {
	return &Cache{
		logger:   logger.With().Str("component", "cache").Logger(),
		config:   DefaultConfig(),
		disabled: true,
	}
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// IsAvailable returns true if the cache is operational.
func (c *Cache) IsAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.disabled && c.client != nil
}

// handleError handles Redis errors with circuit breaker logic.
func (c *Cache) handleError(err error, operation string) {
	if err == nil || errors.Is(err, redis.Nil) {
		return
	}

	c.logger.Debug().Err(err).Str("operation", operation).Msg("cache operation failed")

	if c.config.DisableOnError {
		c.mu.Lock()
		c.disabled = true
		c.mu.Unlock()
		c.logger.Warn().Msg("disabling cache due to Redis error")
	}
}

// get retrieves a value from cache and unmarshals it.
func (c *Cache) get(ctx context.Context, key string, dest any) (bool, error) {
	if !c.IsAvailable() {
		return false, nil
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		c.handleError(err, "get")
		return false, err
	}

	if err := json.Unmarshal(data, dest); err != nil {
		c.logger.Debug().Err(err).Str("key", key).Msg("failed to unmarshal cached value")
		return false, nil
	}

	return true, nil
}

// set stores a value in cache with TTL.
func (c *Cache) set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if !c.IsAvailable() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		c.handleError(err, "set")
		return err
	}

	return nil
}

// delete removes a key from cache.
func (c *Cache) delete(ctx context.Context, key string) error {
	if !c.IsAvailable() {
		return nil
	}

	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.handleError(err, "delete")
		return err
	}
	return nil
}

// deletePattern deletes all keys matching a pattern.
func (c *Cache) deletePattern(ctx context.Context, pattern string) error {
	if !c.IsAvailable() {
		return nil
	}

	// SCAN rather than KEYS so large keyspaces do not block the server
	var cursor uint64
	for {
		keys, nextCursor, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			c.handleError(err, "scan")
			return err
		}

		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				c.handleError(err, "delete_batch")
				return err
			}
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	return nil
}

// Checksum caching methods

func crcKey(path string, size int64, modTime time.Time) string {
	return fmt.Sprintf("%s%s:%d:%d", KeyCrc, path, size, modTime.UnixNano())
}

// GetCrc returns the cached checksum of a file version.
func (c *Cache) GetCrc(ctx context.Context, path string, size int64, modTime time.Time) (uint32, bool) {
	var crc uint32
	found, err := c.get(ctx, crcKey(path, size, modTime), &crc)
	if err != nil || !found {
		return 0, false
	}
	c.logger.Debug().Str("path", path).Msg("crc cache hit")
	return crc, true
}

// SetCrc caches the checksum of a file version.
func (c *Cache) SetCrc(ctx context.Context, path string, size int64, modTime time.Time, crc uint32) error {
	return c.set(ctx, crcKey(path, size, modTime), crc, c.config.CrcTTL)
}

// InvalidateCrcs drops the cached checksums of every file below prefix. An
// empty prefix drops them all.
func (c *Cache) InvalidateCrcs(ctx context.Context, prefix string) error {
	c.logger.Debug().Str("prefix", prefix).Msg("invalidating crc cache")
	return c.deletePattern(ctx, KeyCrc+globEscaper.Replace(prefix)+"*")
}

var globEscaper = strings.NewReplacer(`\`, `\\`, "*", `\*`, "?", `\?`, "[", `\[`, "]", `\]`)

// Description caching methods

// GetDescription retrieves a cached description record by CRC.
func (c *Cache) GetDescription(ctx context.Context, crc uint32) (*description.Record, bool) {
	var rec description.Record
	found, err := c.get(ctx, KeyDescription+description.FormatCrc(crc), &rec)
	if err != nil || !found {
		return nil, false
	}
	c.logger.Debug().Str("crc", rec.Crc).Msg("description cache hit")
	return &rec, true
}

// SetDescription caches a description record.
func (c *Cache) SetDescription(ctx context.Context, crc uint32, rec description.Record) error {
	return c.set(ctx, KeyDescription+description.FormatCrc(crc), rec, c.config.DescriptionTTL)
}

// InvalidateDescription removes a description from cache.
func (c *Cache) InvalidateDescription(ctx context.Context, crc uint32) error {
	c.logger.Debug().Str("crc", description.FormatCrc(crc)).Msg("invalidating description cache")
	return c.delete(ctx, KeyDescription+description.FormatCrc(crc))
}
