package storage

import (
	"context"
	"errors"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"github.com/alexalex89/task-management/domain"
)

type backend interface {
	ListTasks(ctx context.Context, category domain.Category) ([]domain.TaskRow, error)
	CreateTask(ctx context.Context, in domain.TaskInput) (domain.TaskRow, error)
	UpdateTask(ctx context.Context, id int64, in domain.TaskInput) (domain.TaskRow, error)
	ToggleTask(ctx context.Context, id int64) (domain.TaskRow, error)
	DeleteTask(ctx context.Context, id int64) error
	ReorderTasks(ctx context.Context, category domain.Category, ids []int64) error
	Stats(ctx context.Context) ([]domain.CategoryStats, error)
}

// Cache wraps the task repository with Redis-backed caching for list and
// stats reads. Every successful write evicts all cached views.
type Cache struct {
	base  backend
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a caching wrapper using the provided Redis client and TTL.
// A nil client or zero TTL disables caching.
func NewCache(base backend, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("storage.NewCache: base repository is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{base: base, redis: client, ttl: ttl}
}

func (c *Cache) ListTasks(ctx context.Context, category domain.Category) ([]domain.TaskRow, error) {
	key := tasksCacheKey(category)
	var rows []domain.TaskRow
	if c.load(ctx, key, &rows) {
		return rows, nil
	}
	rows, err := c.base.ListTasks(ctx, category)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, rows)
	return rows, nil
}

func (c *Cache) Stats(ctx context.Context) ([]domain.CategoryStats, error) {
	var stats []domain.CategoryStats
	if c.load(ctx, statsCacheKey, &stats) {
		return stats, nil
	}
	stats, err := c.base.Stats(ctx)
	if err != nil {
		return nil, err
	}
	c.store(ctx, statsCacheKey, stats)
	return stats, nil
}

func (c *Cache) CreateTask(ctx context.Context, in domain.TaskInput) (domain.TaskRow, error) {
	row, err := c.base.CreateTask(ctx, in)
	if err == nil {
		c.evict(ctx)
	}
	return row, err
}

func (c *Cache) UpdateTask(ctx context.Context, id int64, in domain.TaskInput) (domain.TaskRow, error) {
	row, err := c.base.UpdateTask(ctx, id, in)
	if err == nil {
		c.evict(ctx)
	}
	return row, err
}

func (c *Cache) ToggleTask(ctx context.Context, id int64) (domain.TaskRow, error) {
	row, err := c.base.ToggleTask(ctx, id)
	if err == nil {
		c.evict(ctx)
	}
	return row, err
}

func (c *Cache) DeleteTask(ctx context.Context, id int64) error {
	err := c.base.DeleteTask(ctx, id)
	if err == nil {
		c.evict(ctx)
	}
	return err
}

func (c *Cache) ReorderTasks(ctx context.Context, category domain.Category, ids []int64) error {
	err := c.base.ReorderTasks(ctx, category, ids)
	if err == nil {
		c.evict(ctx)
	}
	return err
}

func (c *Cache) load(ctx context.Context, key string, v any) bool {
	if c.redis == nil {
		return false
	}
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			// On redis errors fall back to the repository without failing.
			_ = c.redis.Del(ctx, key).Err()
		}
		return false
	}
	if err := sonic.ConfigStd.Unmarshal(data, v); err != nil {
		_ = c.redis.Del(ctx, key).Err()
		return false
	}
	return true
}

func (c *Cache) store(ctx context.Context, key string, v any) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := sonic.ConfigStd.Marshal(v)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.ttl).Err()
}

func (c *Cache) evict(ctx context.Context) {
	if c.redis == nil {
		return
	}
	keys := make([]string, 0, len(domain.Categories)+2)
	keys = append(keys, tasksCacheKey(""), statsCacheKey)
	for _, cat := range domain.Categories {
		keys = append(keys, tasksCacheKey(cat))
	}
	_, _ = c.redis.Del(ctx, keys...).Result()
}

const statsCacheKey = "gtd:stats"

func tasksCacheKey(category domain.Category) string {
	if category == "" {
		return "gtd:tasks:all"
	}
	return "gtd:tasks:" + string(category)
}
