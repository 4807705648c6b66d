package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"statsnbet/internal/config"
)

// PageCache is a short-TTL Redis cache for rendered history pages. It is
// best-effort: every failure degrades to a recompute, never to an error.
type PageCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// New returns nil when the cache is disabled; callers treat a nil cache as a
// permanent miss.
func New(cfg config.RedisConfig, logger *zap.Logger) *PageCache {
	if !cfg.Enabled {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ttl := cfg.PageTTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &PageCache{client: client, ttl: ttl, logger: logger}
}

// RequestKey derives a stable cache key from the request identity.
func RequestKey(scope, rawQuery string) string {
	sum := sha256.Sum256([]byte(rawQuery))
	return "statsnbet:page:" + scope + ":" + hex.EncodeToString(sum[:16])
}

func (p *PageCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if p == nil || p.client == nil {
		return nil, false
	}
	raw, err := p.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil && p.logger != nil {
			p.logger.Debug("page cache get failed", zap.Error(err))
		}
		return nil, false
	}
	return raw, true
}

func (p *PageCache) Set(ctx context.Context, key string, val []byte) {
	if p == nil || p.client == nil {
		return
	}
	if err := p.client.Set(ctx, key, val, p.ttl).Err(); err != nil && p.logger != nil {
		p.logger.Debug("page cache set failed", zap.Error(err))
	}
}

func (p *PageCache) Close() error {
	if p == nil || p.client == nil {
		return nil
	}
	return p.client.Close()
}
