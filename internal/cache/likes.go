package cache

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// LikesCachePrefix is the key prefix for per-viewer liked-listing sets
	LikesCachePrefix = "likes:user:"

	// LikesCacheTTL is the TTL for a viewer's liked set (7 days)
	LikesCacheTTL = 7 * 24 * time.Hour
)

// LikesCache caches the set of listing ids a viewer has liked, so feed
// refreshes can re-annotate items without a database round trip per
// page. The database stays the source of truth; the cache is warmed on
// miss and written through on like/unlike.
type LikesCache interface {
	// Add records a liked listing in the viewer's set.
	Add(ctx context.Context, userID, productID int64) error

	// Remove drops a listing from the viewer's set.
	Remove(ctx context.Context, userID, productID int64) error

	// Members returns all liked listing ids for the viewer.
	Members(ctx context.Context, userID int64) ([]int64, error)

	// Warm bulk-inserts liked ids, replacing the existing set.
	Warm(ctx context.Context, userID int64, productIDs []int64) error

	// Exists reports whether the viewer has a cached set at all.
	// False means new session or TTL expiry; callers should warm.
	Exists(ctx context.Context, userID int64) (bool, error)
}

// RedisLikesCache implements LikesCache using Redis Sets.
type RedisLikesCache struct {
	client *redis.Client
}

// NewLikesCache creates a LikesCache backed by Redis.
func NewLikesCache(client *redis.Client) LikesCache {
	return &RedisLikesCache{client: client}
}

func likesKey(userID int64) string {
	return fmt.Sprintf("%s%d", LikesCachePrefix, userID)
}

// Add records a like. Pipeline: SADD + EXPIRE (refresh TTL).
func (c *RedisLikesCache) Add(ctx context.Context, userID, productID int64) error {
	key := likesKey(userID)

	pipe := c.client.Pipeline()
	pipe.SAdd(ctx, key, strconv.FormatInt(productID, 10))
	pipe.Expire(ctx, key, LikesCacheTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[LikesCache] Add FAILED: user=%d product=%d err=%v", userID, productID, err)
		return fmt.Errorf("add like to cache: %w", err)
	}

	return nil
}

func (c *RedisLikesCache) Remove(ctx context.Context, userID, productID int64) error {
	key := likesKey(userID)

	if err := c.client.SRem(ctx, key, strconv.FormatInt(productID, 10)).Err(); err != nil {
		log.Printf("[LikesCache] Remove FAILED: user=%d product=%d err=%v", userID, productID, err)
		return fmt.Errorf("remove like from cache: %w", err)
	}

	return nil
}

func (c *RedisLikesCache) Members(ctx context.Context, userID int64) ([]int64, error) {
	key := likesKey(userID)

	members, err := c.client.SMembers(ctx, key).Result()
	if err != nil {
		log.Printf("[LikesCache] Members FAILED: user=%d err=%v", userID, err)
		return nil, fmt.Errorf("get liked set: %w", err)
	}

	// Refresh TTL on access
	c.client.Expire(ctx, key, LikesCacheTTL)

	ids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse liked id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, nil
}

// Warm replaces the viewer's cached set with the given ids.
// Pipeline: DEL + SADD + EXPIRE.
func (c *RedisLikesCache) Warm(ctx context.Context, userID int64, productIDs []int64) error {
	key := likesKey(userID)

	pipe := c.client.Pipeline()
	pipe.Del(ctx, key)
	if len(productIDs) > 0 {
		members := make([]interface{}, len(productIDs))
		for i, id := range productIDs {
			members[i] = strconv.FormatInt(id, 10)
		}
		pipe.SAdd(ctx, key, members...)
	}
	pipe.Expire(ctx, key, LikesCacheTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[LikesCache] Warm FAILED: user=%d likes=%d err=%v", userID, len(productIDs), err)
		return fmt.Errorf("warm likes cache: %w", err)
	}

	log.Printf("[LikesCache] Warm OK: user=%d likes=%d", userID, len(productIDs))
	return nil
}

func (c *RedisLikesCache) Exists(ctx context.Context, userID int64) (bool, error) {
	exists, err := c.client.Exists(ctx, likesKey(userID)).Result()
	if err != nil {
		log.Printf("[LikesCache] Exists FAILED: user=%d err=%v", userID, err)
		return false, fmt.Errorf("check likes cache exists: %w", err)
	}
	return exists > 0, nil
}
