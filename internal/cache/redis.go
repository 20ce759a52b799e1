package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/agenthands/lineage/internal/config"
	"github.com/agenthands/lineage/internal/core/model"
)

const keyPrefix = "lineage"

// RedisTreeCache stores trees as JSON. Invalidation bumps a version counter
// that is part of every key, so stale entries simply age out through the TTL.
type RedisTreeCache struct {
	rdb *goredis.Client
	ttl time.Duration
}

func NewRedisTreeCache(ctx context.Context, cfg config.RedisConfig) (*RedisTreeCache, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	ttl := time.Duration(cfg.TTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisTreeCache{rdb: rdb, ttl: ttl}, nil
}

func versionKey() string { return keyPrefix + ":tree:version" }

func (c *RedisTreeCache) version(ctx context.Context) (int64, error) {
	v, err := c.rdb.Get(ctx, versionKey()).Int64()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	return v, err
}

func (c *RedisTreeCache) Get(ctx context.Context, rootID string, depth int) (*model.TreeNode, bool, error) {
	v, err := c.version(ctx)
	if err != nil {
		return nil, false, err
	}
	raw, err := c.rdb.Get(ctx, treeKey(keyPrefix, v, rootID, depth)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var tree model.TreeNode
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, false, fmt.Errorf("decode cached tree: %w", err)
	}
	return &tree, true, nil
}

func (c *RedisTreeCache) Set(ctx context.Context, rootID string, depth int, tree *model.TreeNode) error {
	v, err := c.version(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(tree)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, treeKey(keyPrefix, v, rootID, depth), raw, c.ttl).Err()
}

func (c *RedisTreeCache) Invalidate(ctx context.Context) error {
	return c.rdb.Incr(ctx, versionKey()).Err()
}

func (c *RedisTreeCache) Close() error {
	return c.rdb.Close()
}
