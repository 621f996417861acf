package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/blueox/schedule/internal/models"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// CacheKey is the Redis key holding the cached task list.
const CacheKey = "ox:tasks"

// GenKey counts evictions. A list read from the backing store is cached only
// if no eviction happened while it was being read.
const GenKey = "ox:tasks:gen"

var errStaleList = errors.New("store: list read before a write")

// Cache serves List from Redis and evicts the entry after every successful
// mutation. Redis failures fall through to the backing store.
type Cache struct {
	base  TaskStore
	redis *redis.Client
	ttl   time.Duration
}

// NewCache wraps base. A nil client or zero ttl disables caching.
func NewCache(base TaskStore, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("store.NewCache: base store is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{base: base, redis: client, ttl: ttl}
}

// NewRedisClient parses a redis:// URL into a client.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opts), nil
}

func (c *Cache) List(ctx context.Context) ([]models.Task, error) {
	if tasks, ok := c.load(ctx); ok {
		return tasks, nil
	}
	gen, genOK := c.generation(ctx)
	tasks, err := c.base.List(ctx)
	if err != nil {
		return nil, err
	}
	if genOK {
		c.save(ctx, gen, tasks)
	}
	return tasks, nil
}

func (c *Cache) Insert(ctx context.Context, in TaskInput) error {
	if err := c.base.Insert(ctx, in); err != nil {
		return err
	}
	c.evict(ctx)
	return nil
}

func (c *Cache) Update(ctx context.Context, id uint, in TaskInput) error {
	if err := c.base.Update(ctx, id, in); err != nil {
		return err
	}
	c.evict(ctx)
	return nil
}

func (c *Cache) Delete(ctx context.Context, id uint) error {
	if err := c.base.Delete(ctx, id); err != nil {
		return err
	}
	c.evict(ctx)
	return nil
}

func (c *Cache) load(ctx context.Context) ([]models.Task, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, CacheKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.WithError(err).Warn("store: task cache read failed")
		}
		return nil, false
	}
	var tasks []models.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		log.WithError(err).Warn("store: discarding corrupt task cache entry")
		_ = c.redis.Del(ctx, CacheKey).Err()
		return nil, false
	}
	return tasks, true
}

// generation reads GenKey; a missing key is generation zero.
func (c *Cache) generation(ctx context.Context) (int64, bool) {
	if c.redis == nil || c.ttl == 0 {
		return 0, false
	}
	gen, err := c.redis.Get(ctx, GenKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, true
	}
	if err != nil {
		log.WithError(err).Warn("store: task cache generation read failed")
		return 0, false
	}
	return gen, true
}

// save stores tasks unless GenKey moved past gen. WATCH makes the check and
// the write atomic against a concurrent evict.
func (c *Cache) save(ctx context.Context, gen int64, tasks []models.Task) {
	data, err := json.Marshal(tasks)
	if err != nil {
		return
	}
	err = c.redis.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, GenKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != gen {
			return errStaleList
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, CacheKey, data, c.ttl)
			return nil
		})
		return err
	}, GenKey)
	switch {
	case err == nil:
	case errors.Is(err, errStaleList), errors.Is(err, redis.TxFailedErr):
		log.Debug("store: skipped caching a list that predates a write")
	default:
		log.WithError(err).Warn("store: task cache write failed")
	}
}

func (c *Cache) evict(ctx context.Context) {
	if c.redis == nil {
		return
	}
	_, err := c.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, GenKey)
		pipe.Del(ctx, CacheKey)
		return nil
	})
	if err != nil {
		log.WithError(err).WithField("key", CacheKey).Warn("store: task cache evict failed")
	}
}
