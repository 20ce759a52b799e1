package graph

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/agenthands/lineage/internal/core/model"
	"github.com/agenthands/lineage/internal/store"
)

type direction int

const (
	up direction = iota
	down
)

// AncestorPath walks father/mother edges up to maxDepth levels. The result
// runs from the farthest ancestor to id itself (depth 0, last).
func (g *Graph) AncestorPath(ctx context.Context, id string, maxDepth int) ([]model.Lineal, error) {
	found, err := g.walk(ctx, id, maxDepth, up, true)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(found, func(i, j int) bool {
		if found[i].Depth != found[j].Depth {
			return found[i].Depth > found[j].Depth
		}
		return lessMember(found[i].Member, found[j].Member)
	})
	return found, nil
}

// DescendantSubtree walks child edges breadth-first up to maxDepth levels.
// The result starts with id itself at depth 0.
func (g *Graph) DescendantSubtree(ctx context.Context, id string, maxDepth int) ([]model.Lineal, error) {
	return g.descendants(ctx, id, maxDepth, true)
}

// StoreSubtree is DescendantSubtree read from the store even when a lineage
// source is attached. Writes that depend on the subtree use it.
func (g *Graph) StoreSubtree(ctx context.Context, id string, maxDepth int) ([]model.Lineal, error) {
	return g.descendants(ctx, id, maxDepth, false)
}

func (g *Graph) descendants(ctx context.Context, id string, maxDepth int, useMirror bool) ([]model.Lineal, error) {
	found, err := g.walk(ctx, id, maxDepth, down, useMirror)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(found, func(i, j int) bool {
		if found[i].Depth != found[j].Depth {
			return found[i].Depth < found[j].Depth
		}
		return lessMember(found[i].Member, found[j].Member)
	})
	return found, nil
}

func lessMember(a, b *model.Member) bool {
	if a.Order != b.Order {
		return a.Order < b.Order
	}
	return a.ID < b.ID
}

func (g *Graph) walk(ctx context.Context, id string, maxDepth int, dir direction, useMirror bool) ([]model.Lineal, error) {
	if maxDepth < 0 {
		return nil, fmt.Errorf("max depth must not be negative: %d", maxDepth)
	}
	root, err := g.store.GetMember(ctx, id)
	if err != nil {
		return nil, err
	}

	var depths map[string]int
	if q, ok := g.store.(store.LineageQuerier); ok {
		depths, err = query(ctx, q, id, maxDepth, dir)
	} else {
		if useMirror && g.mirror != nil {
			depths, err = query(ctx, g.mirror, id, maxDepth, dir)
		}
		if depths == nil || err != nil {
			depths, err = g.bfs(ctx, id, maxDepth, dir)
		}
	}
	if err != nil {
		return nil, err
	}

	result := []model.Lineal{{Member: root, Depth: 0}}
	for otherID, depth := range depths {
		m, err := g.store.GetMember(ctx, otherID)
		if errors.Is(err, model.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		result = append(result, model.Lineal{Member: m, Depth: depth})
	}
	return result, nil
}

func query(ctx context.Context, q store.LineageQuerier, id string, maxDepth int, dir direction) (map[string]int, error) {
	if dir == up {
		return q.AncestorIDs(ctx, id, maxDepth)
	}
	return q.DescendantIDs(ctx, id, maxDepth)
}

// bfs maps every member reachable within maxDepth steps to its shortest
// distance. The visited set guarantees termination on a cyclic edge set.
func (g *Graph) bfs(ctx context.Context, id string, maxDepth int, dir direction) (map[string]int, error) {
	depths := make(map[string]int)
	visited := map[string]bool{id: true}
	frontier := []string{id}

	for depth := 1; depth <= maxDepth && len(frontier) > 0; depth++ {
		var next []string
		for _, cur := range frontier {
			neighbours, err := g.step(ctx, cur, dir)
			if err != nil {
				return nil, err
			}
			for _, n := range neighbours {
				if visited[n] {
					continue
				}
				visited[n] = true
				depths[n] = depth
				next = append(next, n)
			}
		}
		frontier = next
	}
	return depths, nil
}

// step lists the one-hop neighbours of id in the given direction.
func (g *Graph) step(ctx context.Context, id string, dir direction) ([]string, error) {
	links, err := g.store.LinksFrom(ctx, id)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, l := range links {
		if (dir == up && l.Role.IsParent()) || (dir == down && l.Role.IsChild()) {
			ids = append(ids, l.TargetID)
		}
	}
	return ids, nil
}

// isAncestor reports whether candidate is reachable from id by walking
// parent edges, with no depth bound. Used to reject cycles.
func (g *Graph) isAncestor(ctx context.Context, candidate, id string) (bool, error) {
	if candidate == id {
		return true, nil
	}
	visited := map[string]bool{id: true}
	queue := []string{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		parents, err := g.parentIDs(ctx, cur)
		if err != nil {
			return false, err
		}
		for _, p := range parents {
			if p == candidate {
				return true, nil
			}
			if !visited[p] {
				visited[p] = true
				queue = append(queue, p)
			}
		}
	}
	return false, nil
}

// parentIDs reads parent edges out of id and child edges into id.
func (g *Graph) parentIDs(ctx context.Context, id string) ([]string, error) {
	out, err := g.store.LinksFrom(ctx, id)
	if err != nil {
		return nil, err
	}
	in, err := g.store.LinksTo(ctx, id)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, l := range out {
		if l.Role.IsParent() {
			ids = append(ids, l.TargetID)
		}
	}
	for _, l := range in {
		if l.Role.IsChild() {
			ids = append(ids, l.SourceID)
		}
	}
	return ids, nil
}
