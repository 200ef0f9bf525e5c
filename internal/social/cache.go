package social

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	listCacheKey   = "looptalk:posts:all"
	listVersionKey = "looptalk:posts:version"
	listCacheTTL   = 30 * time.Second
)

var errStaleList = errors.New("post list changed while reading")

// listCache holds the rendered public post list in Redis. Clients refetch
// the whole list after every mutation, so this is the hot read. A nil client
// disables caching.
type listCache struct {
	rdb *redis.Client
}

func (c listCache) get(ctx context.Context) ([]Post, bool) {
	if c.rdb == nil {
		return nil, false
	}
	data, err := c.rdb.Get(ctx, listCacheKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("[SOCIAL] cache read failed: %v", err)
		}
		return nil, false
	}
	var posts []Post
	if err := json.Unmarshal(data, &posts); err != nil {
		return nil, false
	}
	return posts, true
}

// version reads the mutation counter. ok is false when nothing may be
// cached, either because caching is off or Redis failed.
func (c listCache) version(ctx context.Context) (int64, bool) {
	if c.rdb == nil {
		return 0, false
	}
	v, err := c.rdb.Get(ctx, listVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, true
	}
	if err != nil {
		log.Printf("[SOCIAL] cache version read failed: %v", err)
		return 0, false
	}
	return v, true
}

// set stores posts only while the counter still equals version, the value
// read before the posts were queried. A list read that overlaps a mutation
// is dropped instead of outliving that mutation's invalidate.
func (c listCache) set(ctx context.Context, version int64, posts []Post) {
	if c.rdb == nil {
		return
	}
	data, err := json.Marshal(posts)
	if err != nil {
		return
	}
	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, listVersionKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != version {
			return errStaleList
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, listCacheKey, data, listCacheTTL)
			return nil
		})
		return err
	}, listVersionKey)
	switch {
	case err == nil, errors.Is(err, errStaleList), errors.Is(err, redis.TxFailedErr):
	default:
		log.Printf("[SOCIAL] cache write failed: %v", err)
	}
}

// invalidate bumps the counter and drops the list in one transaction.
func (c listCache) invalidate(ctx context.Context) {
	if c.rdb == nil {
		return
	}
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, listVersionKey)
		pipe.Del(ctx, listCacheKey)
		return nil
	})
	if err != nil {
		log.Printf("[SOCIAL] cache invalidate failed: %v", err)
	}
}
