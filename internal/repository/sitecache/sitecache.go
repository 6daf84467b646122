// Package sitecache fronts the site registry with a Redis existence cache
// so the tenant check on every analyzer call does not hit Postgres.
package sitecache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Couks/projeto-tfc-sub000/internal/domain"
	"github.com/Couks/projeto-tfc-sub000/internal/repository"
)

const keyPrefix = "site:exists:"

// CachedSiteRepository wraps a SiteRepository with a Redis cache. Cache
// failures fall through to the backing repository.
type CachedSiteRepository struct {
	backing repository.SiteRepository
	rdb     *redis.Client
	ttl     time.Duration
	log     *zap.Logger
}

// New creates a cached site repository.
func New(backing repository.SiteRepository, rdb *redis.Client, ttl time.Duration, log *zap.Logger) *CachedSiteRepository {
	return &CachedSiteRepository{backing: backing, rdb: rdb, ttl: ttl, log: log}
}

// FindByKey always goes to the backing store; only existence is cached.
func (c *CachedSiteRepository) FindByKey(ctx context.Context, key string) (*domain.Site, error) {
	return c.backing.FindByKey(ctx, key)
}

// Exists answers from Redis when possible, otherwise asks the backing store
// and caches the answer.
func (c *CachedSiteRepository) Exists(ctx context.Context, key string) (bool, error) {
	cached, err := c.rdb.Get(ctx, keyPrefix+key).Result()
	if err == nil {
		return cached == "1", nil
	}
	if !errors.Is(err, redis.Nil) {
		c.log.Warn("Site cache read failed, falling back to registry",
			zap.String("site_key", key),
			zap.Error(err))
	}

	exists, err := c.backing.Exists(ctx, key)
	if err != nil {
		return false, fmt.Errorf("failed to check site existence: %w", err)
	}

	value := "0"
	if exists {
		value = "1"
	}
	if err := c.rdb.Set(ctx, keyPrefix+key, value, c.ttl).Err(); err != nil {
		c.log.Warn("Site cache write failed",
			zap.String("site_key", key),
			zap.Error(err))
	}

	return exists, nil
}
