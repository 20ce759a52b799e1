//go:build integration

package integration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/lineage/internal/cache"
	"github.com/agenthands/lineage/internal/core/model"
)

func TestRedisTreeCache(t *testing.T) {
	cfg := loadConfig(t)
	cfg.Redis.Addr = requireEnv(t, "REDIS_ADDR")
	ctx := context.Background()

	c, err := cache.NewRedisTreeCache(ctx, cfg.Redis)
	require.NoError(t, err)
	defer c.Close()

	tree := &model.TreeNode{Member: &model.Member{ID: "root", Name: "Root"}}
	require.NoError(t, c.Set(ctx, "root", 3, tree))

	got, ok, err := c.Get(ctx, "root", 3)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Root", got.Name)

	require.NoError(t, c.Invalidate(ctx))
	_, ok, err = c.Get(ctx, "root", 3)
	require.NoError(t, err)
	assert.False(t, ok)
}
