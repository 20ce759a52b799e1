// Package cache keeps built lineage trees keyed by root and depth. Any
// registry mutation invalidates every entry at once.
package cache

import (
	"context"
	"fmt"
	"sync"

	"github.com/agenthands/lineage/internal/core/model"
)

type TreeCache interface {
	Get(ctx context.Context, rootID string, depth int) (*model.TreeNode, bool, error)
	Set(ctx context.Context, rootID string, depth int, tree *model.TreeNode) error
	Invalidate(ctx context.Context) error
}

func treeKey(prefix string, version int64, rootID string, depth int) string {
	return fmt.Sprintf("%s:tree:v%d:%s:%d", prefix, version, rootID, depth)
}

// MemoryTreeCache is a process-local cache. Stored trees are shared, so
// callers must treat them as read-only.
type MemoryTreeCache struct {
	mu    sync.RWMutex
	trees map[string]*model.TreeNode
}

func NewMemoryTreeCache() *MemoryTreeCache {
	return &MemoryTreeCache{trees: make(map[string]*model.TreeNode)}
}

func (c *MemoryTreeCache) Get(_ context.Context, rootID string, depth int) (*model.TreeNode, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.trees[treeKey("mem", 0, rootID, depth)]
	return t, ok, nil
}

func (c *MemoryTreeCache) Set(_ context.Context, rootID string, depth int, tree *model.TreeNode) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.trees[treeKey("mem", 0, rootID, depth)] = tree
	return nil
}

func (c *MemoryTreeCache) Invalidate(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.trees = make(map[string]*model.TreeNode)
	return nil
}

// NopTreeCache never stores anything.
type NopTreeCache struct{}

func (NopTreeCache) Get(context.Context, string, int) (*model.TreeNode, bool, error) {
	return nil, false, nil
}
func (NopTreeCache) Set(context.Context, string, int, *model.TreeNode) error { return nil }
func (NopTreeCache) Invalidate(context.Context) error                      { return nil }
