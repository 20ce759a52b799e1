package core

import (
	"context"
	"fmt"

	"github.com/agenthands/lineage/internal/core/biography"
	"github.com/agenthands/lineage/internal/core/branches"
	"github.com/agenthands/lineage/internal/core/model"
	"github.com/agenthands/lineage/internal/core/tree"
)

func (r *Registry) snapshot(ctx context.Context) (tree.Snapshot, error) {
	members, err := r.Store.ListMembers(ctx, model.MemberFilter{})
	if err != nil {
		return tree.Snapshot{}, err
	}
	links, err := r.Store.AllLinks(ctx)
	if err != nil {
		return tree.Snapshot{}, err
	}
	spouses, err := r.Store.AllSpouses(ctx)
	if err != nil {
		return tree.Snapshot{}, err
	}
	return tree.Snapshot{Members: members, Links: links, Spouses: spouses}, nil
}

// Tree builds the lineage tree under rootID, serving repeats from the cache.
func (r *Registry) Tree(ctx context.Context, rootID string, maxDepth int) (*model.TreeNode, error) {
	depth, err := r.queryDepth(maxDepth, r.Limits.DefaultTreeDepth)
	if err != nil {
		return nil, err
	}

	if cached, ok, err := r.Trees.Get(ctx, rootID, depth); err != nil {
		r.log.Warn("tree cache read failed", "root_id", rootID, "error", err)
	} else if ok {
		return cached, nil
	}

	snap, err := r.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	node := tree.Build(snap, rootID, depth)
	if node == nil {
		return nil, fmt.Errorf("tree root %s: %w", rootID, model.ErrNotFound)
	}

	if err := r.Trees.Set(ctx, rootID, depth, node); err != nil {
		r.log.Warn("tree cache write failed", "root_id", rootID, "error", err)
	}
	return node, nil
}

// ShiftGeneration moves a member and all of its descendants by delta
// generations. Nothing changes if any result would drop below 1 or reach the
// generation of a parent outside the shifted subtree.
func (r *Registry) ShiftGeneration(ctx context.Context, memberID string, delta int) ([]string, error) {
	if delta == 0 {
		return []string{}, nil
	}
	all, err := r.Store.ListMembers(ctx, model.MemberFilter{})
	if err != nil {
		return nil, err
	}
	// A simple path can never be longer than the member count.
	subtree, err := r.Graph.StoreSubtree(ctx, memberID, len(all))
	if err != nil {
		return nil, err
	}

	inSubtree := make(map[string]bool, len(subtree))
	for _, l := range subtree {
		inSubtree[l.Member.ID] = true
	}
	res := model.NewValidationResult()
	for _, l := range subtree {
		next := l.Member.Generation + delta
		if next < 1 {
			res.Add(model.FailureInvalidGeneration,
				fmt.Sprintf("shifting %s by %d gives generation %d", l.Member.Name, delta, next))
			continue
		}
		parents, err := r.Graph.ParentsOf(ctx, l.Member.ID)
		if err != nil {
			return nil, err
		}
		for _, p := range parents {
			if inSubtree[p.Member.ID] || next > p.Member.Generation {
				continue
			}
			res.Add(model.FailureGenerationConflict,
				fmt.Sprintf("shifting %s to generation %d puts it at or above parent %s (generation %d)",
					l.Member.Name, next, p.Member.Name, p.Member.Generation))
		}
	}
	if err := res.Err(); err != nil {
		return nil, err
	}

	shifted := make([]string, 0, len(subtree))
	updated := make([]*model.Member, 0, len(subtree))
	for _, l := range subtree {
		m, err := r.Store.UpdateMember(ctx, l.Member.ID, func(m *model.Member) error {
			m.Generation += delta
			return nil
		})
		if err != nil {
			return shifted, err
		}
		shifted = append(shifted, m.ID)
		updated = append(updated, m)
	}

	r.changed(ctx)
	r.Projector.SaveMembers(ctx, updated...)
	r.log.Info("generation shifted", "member_id", memberID, "delta", delta, "members", len(shifted))
	return shifted, nil
}

// FloatingBranches lists the groups of members not connected to anchorID.
func (r *Registry) FloatingBranches(ctx context.Context, anchorID string) ([]branches.Branch, error) {
	if _, err := r.Store.GetMember(ctx, anchorID); err != nil {
		return nil, err
	}
	snap, err := r.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	out := branches.Floating(snap.Members, snap.Links, anchorID)
	if out == nil {
		out = []branches.Branch{}
	}
	return out, nil
}

// ReconcileFloating sets isFloating on every member according to whether it
// is connected to anchorID, and returns the ids whose flag changed.
func (r *Registry) ReconcileFloating(ctx context.Context, anchorID string) ([]string, error) {
	if _, err := r.Store.GetMember(ctx, anchorID); err != nil {
		return nil, err
	}
	snap, err := r.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	floating := branches.FloatingIDs(snap.Members, snap.Links, anchorID)

	changed := []string{}
	var updated []*model.Member
	for _, m := range snap.Members {
		want := floating[m.ID]
		if m.IsFloating == want {
			continue
		}
		u, err := r.Store.UpdateMember(ctx, m.ID, func(m *model.Member) error {
			m.IsFloating = want
			return nil
		})
		if err != nil {
			return changed, err
		}
		changed = append(changed, u.ID)
		updated = append(updated, u)
	}
	if len(changed) > 0 {
		r.changed(ctx)
		r.Projector.SaveMembers(ctx, updated...)
	}
	return changed, nil
}

// DraftBiography asks the configured LLM for a short biography. The draft
// is returned, not saved.
func (r *Registry) DraftBiography(ctx context.Context, id string) (string, error) {
	if r.Biographer == nil {
		return "", biography.ErrDisabled
	}
	m, err := r.Store.GetMember(ctx, id)
	if err != nil {
		return "", err
	}
	facts := biography.Facts{Member: m}

	parents, err := r.Graph.ParentsOf(ctx, id)
	if err != nil {
		return "", err
	}
	for _, p := range parents {
		facts.Parents = append(facts.Parents, p.Member)
	}
	children, err := r.Graph.ChildrenOf(ctx, id)
	if err != nil {
		return "", err
	}
	for _, c := range children {
		facts.Children = append(facts.Children, c.Member)
	}
	if facts.Spouses, err = r.Graph.SpousesOf(ctx, id); err != nil {
		return "", err
	}

	return r.Biographer.Draft(ctx, facts)
}
