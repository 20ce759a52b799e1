package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/lineage/internal/core/model"
)

func TestTreeKey(t *testing.T) {
	assert.Equal(t, "lineage:tree:v3:root-1:5", treeKey("lineage", 3, "root-1", 5))
}

func TestMemoryTreeCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryTreeCache()
	tree := &model.TreeNode{Member: &model.Member{ID: "r"}}

	_, ok, err := c.Get(ctx, "r", 3)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "r", 3, tree))
	got, ok, err := c.Get(ctx, "r", 3)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Same(t, tree, got)

	_, ok, _ = c.Get(ctx, "r", 4)
	assert.False(t, ok, "depth is part of the key")

	require.NoError(t, c.Invalidate(ctx))
	_, ok, _ = c.Get(ctx, "r", 3)
	assert.False(t, ok)
}

func TestNopTreeCache(t *testing.T) {
	var c TreeCache = NopTreeCache{}
	require.NoError(t, c.Set(context.Background(), "r", 1, &model.TreeNode{}))
	_, ok, err := c.Get(context.Background(), "r", 1)
	require.NoError(t, err)
	assert.False(t, ok)
}
