// Package cache memoizes score cards keyed by the analyzed text.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	stderrors "errors"
	"time"

	"resumefit/internal/analysis"
	"resumefit/internal/config"
	"resumefit/internal/errors"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
)

const (
	defaultTTL    = time.Hour
	defaultPrefix = "resumefit:card:"
	pingTimeout   = 5 * time.Second
)

// Cache stores score cards. Lookups and writes never fail the caller.
type Cache interface {
	Get(ctx context.Context, key string) (analysis.ScoreCard, bool)
	Set(ctx context.Context, key string, card analysis.ScoreCard)
	Ping(ctx context.Context) error
	Close() error
}

// Key derives a cache key from the scoring version and the analyzed texts
func Key(version, resumeText, jobText string) string {
	h := sha256.New()
	for _, part := range []string{version, resumeText, jobText} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// New returns a Redis cache when enabled, otherwise a Noop cache.
func New(ctx context.Context, cfg config.CacheConfig, logger *errors.Logger) (Cache, error) {
	if !cfg.Enabled {
		return Noop{}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := redisotel.InstrumentTracing(client); err != nil {
		client.Close()
		return nil, errors.NewConfigError(errors.ErrCodeCacheFailed, "Failed to instrument Redis client", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, errors.NewNetworkError(errors.ErrCodeCacheFailed, "Failed to connect to Redis", err).
			WithContext("addr", cfg.Addr)
	}

	logger.Info("Score card cache ready", "addr", cfg.Addr, "db", cfg.DB, "ttl", cfg.TTL)
	return newRedisCache(client, cfg, logger), nil
}

// Redis keeps score cards as JSON values with a TTL.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
	logger *errors.Logger
}

func newRedisCache(client *redis.Client, cfg config.CacheConfig, logger *errors.Logger) *Redis {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Redis{client: client, ttl: ttl, prefix: prefix, logger: logger}
}

// Get returns the cached card for key.
func (c *Redis) Get(ctx context.Context, key string) (analysis.ScoreCard, bool) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if !stderrors.Is(err, redis.Nil) {
			c.logger.LogError(errors.NewNetworkError(errors.ErrCodeCacheFailed, "Cache lookup failed", err), "Cache lookup failed", "key", key)
		}
		return analysis.ScoreCard{}, false
	}

	var card analysis.ScoreCard
	if err := json.Unmarshal(data, &card); err != nil {
		c.logger.LogError(errors.NewStorageError(errors.ErrCodeParseFailure, "Malformed cached score card", err), "Ignoring cached entry", "key", key)
		return analysis.ScoreCard{}, false
	}
	card.Normalize()
	return card, true
}

// Set stores card under key with the configured TTL.
func (c *Redis) Set(ctx context.Context, key string, card analysis.ScoreCard) {
	data, err := json.Marshal(card)
	if err != nil {
		c.logger.LogError(err, "Failed to encode score card for cache", "key", key)
		return
	}
	if err := c.client.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		c.logger.LogError(errors.NewNetworkError(errors.ErrCodeCacheFailed, "Cache write failed", err), "Cache write failed", "key", key)
	}
}

// Ping checks the Redis connection.
func (c *Redis) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the Redis client.
func (c *Redis) Close() error {
	return c.client.Close()
}

// Noop never stores anything.
type Noop struct{}

func (Noop) Get(context.Context, string) (analysis.ScoreCard, bool) { return analysis.ScoreCard{}, false }
func (Noop) Set(context.Context, string, analysis.ScoreCard)        {}
func (Noop) Ping(context.Context) error                             { return nil }
func (Noop) Close() error                                           { return nil }
