// Package graph maintains the directed family-link set and answers adjacency
// and lineage queries over it.
package graph

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/agenthands/lineage/internal/core/lineage"
	"github.com/agenthands/lineage/internal/core/model"
	"github.com/agenthands/lineage/internal/store"
)

type Graph struct {
	store     store.Store
	validator *lineage.Validator
	newID     func() string
	// mirror answers lineage reads when the store cannot walk natively.
	mirror store.LineageQuerier
}

type Option func(*Graph)

// WithIDGenerator overrides uuid-based link ids.
func WithIDGenerator(fn func() string) Option {
	return func(g *Graph) { g.newID = fn }
}

// SetLineageSource routes ancestor and descendant reads through q when the
// store has no native lineage query. A failing source falls back to the
// breadth-first walk. Pass nil to detach.
func (g *Graph) SetLineageSource(q store.LineageQuerier) {
	g.mirror = q
}

func New(s store.Store, v *lineage.Validator, opts ...Option) *Graph {
	g := &Graph{
		store:     s,
		validator: v,
		newID:     func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// AddEdge inserts source -[role]-> target. Parent and child roles also get
// the complementary edge back from target in the same write; an already
// present complement is left untouched.
func (g *Graph) AddEdge(ctx context.Context, sourceID, targetID string, rel model.Relationship, role model.Role) (*model.FamilyLink, error) {
	source, err := g.store.GetMember(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	target, err := g.store.GetMember(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if _, err := g.store.FindLink(ctx, sourceID, targetID, role); err == nil {
		return nil, fmt.Errorf("link %s-%s->%s: %w", sourceID, role, targetID, model.ErrDuplicateEdge)
	} else if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}

	res := g.validator.ValidateLink(source, target, rel, role)
	if res.Valid && (role.IsParent() || role.IsChild()) {
		parentID, childID := targetID, sourceID
		if role.IsChild() {
			parentID, childID = sourceID, targetID
		}
		cyclic, err := g.isAncestor(ctx, childID, parentID)
		if err != nil {
			return nil, err
		}
		if cyclic {
			res.Add(model.FailureLineageCycle,
				fmt.Sprintf("%s is already an ancestor of %s", childID, parentID))
		}
	}
	if err := res.Err(); err != nil {
		return nil, err
	}

	forward := &model.FamilyLink{
		ID:           g.newID(),
		SourceID:     sourceID,
		TargetID:     targetID,
		Relationship: rel,
		Role:         role,
		IsPrimary:    true,
	}
	batch := []*model.FamilyLink{forward}

	if reciprocal := reciprocalRole(source, role); reciprocal != "" {
		_, err := g.store.FindLink(ctx, targetID, sourceID, reciprocal)
		switch {
		case errors.Is(err, model.ErrNotFound):
			batch = append(batch, &model.FamilyLink{
				ID:           g.newID(),
				SourceID:     targetID,
				TargetID:     sourceID,
				Relationship: rel,
				Role:         reciprocal,
			})
		case err != nil:
			return nil, err
		}
	}

	if err := g.store.InsertLinks(ctx, batch...); err != nil {
		return nil, err
	}
	return forward, nil
}

// reciprocalRole is the role target records back towards source.
func reciprocalRole(source *model.Member, role model.Role) model.Role {
	switch {
	case role.IsParent():
		return model.ChildRole(source.Gender)
	case role.IsChild():
		return model.ParentRole(source.Gender)
	}
	return ""
}

// RemoveEdge deletes exactly one edge. Its reciprocal, if any, stays.
func (g *Graph) RemoveEdge(ctx context.Context, edgeID string) error {
	return g.store.DeleteLinks(ctx, edgeID)
}

// RemoveEdgeCascade deletes the edge together with its reciprocal.
func (g *Graph) RemoveEdgeCascade(ctx context.Context, edgeID string) ([]string, error) {
	link, err := g.store.GetLink(ctx, edgeID)
	if err != nil {
		return nil, err
	}
	ids := []string{link.ID}
	back, err := g.store.LinksFrom(ctx, link.TargetID)
	if err != nil {
		return nil, err
	}
	for _, b := range back {
		if b.TargetID == link.SourceID && isReciprocal(link.Role, b.Role) {
			ids = append(ids, b.ID)
		}
	}
	if err := g.store.DeleteLinks(ctx, ids...); err != nil {
		return nil, err
	}
	return ids, nil
}

func isReciprocal(a, b model.Role) bool {
	return (a.IsParent() && b.IsChild()) || (a.IsChild() && b.IsParent()) ||
		(a == model.RoleSpouse && b == model.RoleSpouse)
}

// ParentsOf returns the members recorded as id's father or mother, reading
// both the child's parent edges and the parents' child edges.
func (g *Graph) ParentsOf(ctx context.Context, id string) ([]model.Relative, error) {
	return g.relatives(ctx, id, model.Role.IsParent, model.Role.IsChild)
}

// ChildrenOf returns the members recorded as id's sons or daughters.
func (g *Graph) ChildrenOf(ctx context.Context, id string) ([]model.Relative, error) {
	return g.relatives(ctx, id, model.Role.IsChild, model.Role.IsParent)
}

func (g *Graph) relatives(ctx context.Context, id string, outgoing, incoming func(model.Role) bool) ([]model.Relative, error) {
	if _, err := g.store.GetMember(ctx, id); err != nil {
		return nil, err
	}
	out, err := g.store.LinksFrom(ctx, id)
	if err != nil {
		return nil, err
	}
	in, err := g.store.LinksTo(ctx, id)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	result := make([]model.Relative, 0)
	add := func(otherID string, link *model.FamilyLink) error {
		if seen[otherID] {
			return nil
		}
		m, err := g.store.GetMember(ctx, otherID)
		if errors.Is(err, model.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		seen[otherID] = true
		result = append(result, model.Relative{Member: m, Link: link})
		return nil
	}

	for _, l := range out {
		if outgoing(l.Role) {
			if err := add(l.TargetID, l); err != nil {
				return nil, err
			}
		}
	}
	for _, l := range in {
		if incoming(l.Role) {
			if err := add(l.SourceID, l); err != nil {
				return nil, err
			}
		}
	}
	sortRelatives(result)
	return result, nil
}

func sortRelatives(rs []model.Relative) {
	sort.SliceStable(rs, func(i, j int) bool {
		a, b := rs[i].Member, rs[j].Member
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		return a.ID < b.ID
	})
}

// SpousesOf merges spouse edges in either direction with inline spouse
// records. Member spouses come first.
func (g *Graph) SpousesOf(ctx context.Context, id string) ([]model.SpouseRef, error) {
	if _, err := g.store.GetMember(ctx, id); err != nil {
		return nil, err
	}
	out, err := g.store.LinksFrom(ctx, id)
	if err != nil {
		return nil, err
	}
	in, err := g.store.LinksTo(ctx, id)
	if err != nil {
		return nil, err
	}

	refs := make([]model.SpouseRef, 0)
	seen := make(map[string]bool)
	collect := func(otherID string, link *model.FamilyLink) error {
		if seen[otherID] || otherID == id {
			return nil
		}
		m, err := g.store.GetMember(ctx, otherID)
		if errors.Is(err, model.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		seen[otherID] = true
		refs = append(refs, model.MemberSpouseRef(m, link))
		return nil
	}
	for _, l := range out {
		if l.Role == model.RoleSpouse {
			if err := collect(l.TargetID, l); err != nil {
				return nil, err
			}
		}
	}
	for _, l := range in {
		if l.Role == model.RoleSpouse {
			if err := collect(l.SourceID, l); err != nil {
				return nil, err
			}
		}
	}

	inline, err := g.store.ListSpouses(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, s := range inline {
		refs = append(refs, model.InlineSpouseRef(s))
	}
	return refs, nil
}
