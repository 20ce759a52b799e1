// Package core wires the store, relationship graph, validator, merge engine
// and optional collaborators into a single registry facade.
package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/agenthands/lineage/internal/cache"
	"github.com/agenthands/lineage/internal/config"
	"github.com/agenthands/lineage/internal/core/biography"
	"github.com/agenthands/lineage/internal/core/graph"
	"github.com/agenthands/lineage/internal/core/lineage"
	"github.com/agenthands/lineage/internal/core/merge"
	"github.com/agenthands/lineage/internal/core/model"
	"github.com/agenthands/lineage/internal/logger"
	"github.com/agenthands/lineage/internal/store"
)

type Registry struct {
	Store     store.Store
	Graph     *graph.Graph
	Validator *lineage.Validator
	Merge     *merge.Engine
	Limits    config.LineageConfig

	// Optional collaborators. Nil Projector and Biographer are valid.
	Projector  *Projector
	Trees      cache.TreeCache
	Biographer *biography.Biographer

	UUIDGenerator func() string

	log *logger.Logger
}

func NewRegistry(s store.Store, limits config.LineageConfig, log *logger.Logger) *Registry {
	if log == nil {
		log = logger.Nop()
	}
	r := &Registry{
		Store:         s,
		Validator:     lineage.NewValidator(limits.MinParentAgeGapYears),
		Limits:        limits,
		Trees:         cache.NopTreeCache{},
		UUIDGenerator: func() string { return uuid.New().String() },
		log:           log.With("component", "registry"),
	}
	// Late-bound so tests can swap UUIDGenerator after construction.
	newID := func() string { return r.UUIDGenerator() }
	r.Graph = graph.New(s, r.Validator, graph.WithIDGenerator(newID))
	r.Merge = merge.NewEngine(s, r.Validator, newID)
	return r
}

// AttachMirror starts projecting mutations into p. When the store cannot walk
// lineage natively, ancestor and descendant queries are answered by the
// mirror as well.
func (r *Registry) AttachMirror(p *Projector) {
	r.Projector = p
	if _, native := r.Store.(store.LineageQuerier); native || !p.enabled() {
		r.Graph.SetLineageSource(nil)
		return
	}
	r.Graph.SetLineageSource(p)
}

// changed drops cached trees after any mutation.
func (r *Registry) changed(ctx context.Context) {
	if err := r.Trees.Invalidate(ctx); err != nil {
		r.log.Warn("failed to invalidate tree cache", "error", err)
	}
}

func (r *Registry) GetMember(ctx context.Context, id string) (*model.Member, error) {
	return r.Store.GetMember(ctx, id)
}

func (r *Registry) ListMembers(ctx context.Context, filter model.MemberFilter) ([]*model.Member, error) {
	return r.Store.ListMembers(ctx, filter)
}

// Validate runs the new-member checks without writing anything.
func (r *Registry) Validate(ctx context.Context, candidate *model.Member, parentID string) (*model.ValidationResult, error) {
	return r.Validator.ValidateWithLookup(ctx, r.Store, candidate, parentID)
}

// CreateMember validates and stores candidate. With a parentID the member
// is linked to that parent (generation defaults to the parent's + 1); without
// one a member below generation 1 is marked floating.
func (r *Registry) CreateMember(ctx context.Context, candidate *model.Member, parentID string) (*model.Member, error) {
	m := candidate.Clone()
	m.Name = strings.TrimSpace(m.Name)

	var parent *model.Member
	if parentID != "" {
		p, err := r.Store.GetMember(ctx, parentID)
		if err != nil {
			return nil, err
		}
		parent = p
		if m.Generation == 0 {
			m.Generation = parent.Generation + 1
		}
	}

	if err := r.Validator.ValidateNewMember(m, parent).Err(); err != nil {
		return nil, err
	}

	m.ApplyDefaults()
	if m.ID == "" {
		m.ID = r.UUIDGenerator()
	}
	m.VisitCount = 0
	m.LastVisitedAt = nil
	switch {
	case parent != nil:
		m.IsFloating = parent.IsFloating
	case m.Generation > 1:
		m.IsFloating = true
	}

	if err := r.Store.CreateMember(ctx, m); err != nil {
		return nil, err
	}

	if parent != nil {
		if _, err := r.Graph.AddEdge(ctx, m.ID, parent.ID, model.RelationshipBiological, model.ParentRole(parent.Gender)); err != nil {
			if delErr := r.Store.DeleteMember(ctx, m.ID); delErr != nil {
				r.log.Error("failed to roll back member after link failure", "member_id", m.ID, "error", delErr)
			}
			return nil, err
		}
	}

	r.changed(ctx)
	r.Projector.SaveMembers(ctx, m)
	if parent != nil {
		r.projectLinksBetween(ctx, m.ID, parent.ID)
	}
	r.log.Info("member created", "member_id", m.ID, "generation", m.Generation, "parent_id", parentID)
	return r.Store.GetMember(ctx, m.ID)
}

// UpdateMember applies a whitelisted update. Marking a member alive fails
// while a cemetery record or tribute log exists, and the gender is fixed
// while parent or child links refer to the member.
func (r *Registry) UpdateMember(ctx context.Context, id string, upd model.MemberUpdate) (*model.Member, error) {
	current, err := r.Store.GetMember(ctx, id)
	if err != nil {
		return nil, err
	}
	next := current.Clone()
	upd.Apply(next)
	next.Name = strings.TrimSpace(next.Name)
	if err := r.Validator.CheckUpdate(ctx, r.Store, current, next); err != nil {
		return nil, err
	}

	updated, err := r.Store.UpdateMember(ctx, id, func(m *model.Member) error {
		upd.Apply(m)
		m.Name = strings.TrimSpace(m.Name)
		return r.Validator.ValidateNewMember(m, nil).Err()
	})
	if err != nil {
		return nil, err
	}

	r.changed(ctx)
	r.Projector.SaveMembers(ctx, updated)
	return updated, nil
}

// DeleteMember removes the member with every link, spouse record, cemetery
// record and tribute attached to it.
func (r *Registry) DeleteMember(ctx context.Context, id string) error {
	if err := r.Store.DeleteMember(ctx, id); err != nil {
		return err
	}
	r.changed(ctx)
	r.Projector.DeleteMember(ctx, id)
	r.log.Info("member deleted", "member_id", id)
	return nil
}

// AddChild creates child under parentID.
func (r *Registry) AddChild(ctx context.Context, parentID string, child *model.Member) (*model.Member, error) {
	return r.CreateMember(ctx, child, parentID)
}

// AddSibling creates sibling as a child of memberID's first lineal parent.
// A member without recorded parents gets a sibling on the same generation
// with no parent link.
func (r *Registry) AddSibling(ctx context.Context, memberID string, sibling *model.Member) (*model.Member, error) {
	member, err := r.Store.GetMember(ctx, memberID)
	if err != nil {
		return nil, err
	}
	parents, err := r.Graph.ParentsOf(ctx, memberID)
	if err != nil {
		return nil, err
	}

	s := sibling.Clone()
	if s.Generation == 0 {
		s.Generation = member.Generation
	}
	if s.BranchName == "" {
		s.BranchName = member.BranchName
	}
	for _, p := range parents {
		if p.Link.Relationship.Lineal() {
			return r.CreateMember(ctx, s, p.Member.ID)
		}
	}
	return r.CreateMember(ctx, s, "")
}

// AddSpouse records an inline spouse for a partner who is not a full member.
func (r *Registry) AddSpouse(ctx context.Context, memberID string, spouse *model.Spouse) (*model.Spouse, error) {
	sp := *spouse
	sp.Name = strings.TrimSpace(sp.Name)
	sp.MemberID = memberID
	if sp.Name == "" {
		res := model.NewValidationResult()
		res.Add(model.FailureMissingName, "spouse name is required")
		return nil, res.Err()
	}
	if sp.ID == "" {
		sp.ID = r.UUIDGenerator()
	}
	if err := r.Store.AddSpouse(ctx, &sp); err != nil {
		return nil, err
	}
	r.changed(ctx)
	return &sp, nil
}

func (r *Registry) Parents(ctx context.Context, id string) ([]model.Relative, error) {
	return r.Graph.ParentsOf(ctx, id)
}

func (r *Registry) Children(ctx context.Context, id string) ([]model.Relative, error) {
	return r.Graph.ChildrenOf(ctx, id)
}

func (r *Registry) Spouses(ctx context.Context, id string) ([]model.SpouseRef, error) {
	return r.Graph.SpousesOf(ctx, id)
}

// AddRelationship links two existing members, maintaining the reciprocal edge.
func (r *Registry) AddRelationship(ctx context.Context, sourceID, targetID string, rel model.Relationship, role model.Role) (*model.FamilyLink, error) {
	link, err := r.Graph.AddEdge(ctx, sourceID, targetID, rel, role)
	if err != nil {
		return nil, err
	}
	r.changed(ctx)
	r.projectLinksBetween(ctx, sourceID, targetID)
	r.log.Info("relationship added", "link_id", link.ID, "source_id", sourceID, "target_id", targetID, "role", role)
	return link, nil
}

// RemoveRelationship deletes a link. With cascade its reciprocal goes too;
// otherwise the reciprocal is left for the caller to remove.
func (r *Registry) RemoveRelationship(ctx context.Context, linkID string, cascade bool) ([]string, error) {
	var removed []string
	if cascade {
		ids, err := r.Graph.RemoveEdgeCascade(ctx, linkID)
		if err != nil {
			return nil, err
		}
		removed = ids
	} else {
		if err := r.Graph.RemoveEdge(ctx, linkID); err != nil {
			return nil, err
		}
		removed = []string{linkID}
	}
	r.changed(ctx)
	r.Projector.DeleteLinks(ctx, removed...)
	return removed, nil
}

func (r *Registry) projectLinksBetween(ctx context.Context, a, b string) {
	if !r.Projector.enabled() {
		return
	}
	var links []*model.FamilyLink
	for _, pair := range [][2]string{{a, b}, {b, a}} {
		out, err := r.Store.LinksFrom(ctx, pair[0])
		if err != nil {
			r.log.Warn("failed to load links for projection", "member_id", pair[0], "error", err)
			continue
		}
		for _, l := range out {
			if l.TargetID == pair[1] {
				links = append(links, l)
			}
		}
	}
	r.Projector.SaveLinks(ctx, links...)
}

// queryDepth resolves a caller depth: 0 picks the default and anything above
// the configured maximum is clamped.
func (r *Registry) queryDepth(depth, fallback int) (int, error) {
	if depth < 0 {
		return 0, fmt.Errorf("max depth must not be negative: %d: %w", depth, model.ErrValidationFailed)
	}
	if depth == 0 {
		depth = fallback
	}
	if r.Limits.MaxQueryDepth > 0 && depth > r.Limits.MaxQueryDepth {
		depth = r.Limits.MaxQueryDepth
	}
	return depth, nil
}

func (r *Registry) Ancestors(ctx context.Context, id string, maxDepth int) ([]model.Lineal, error) {
	depth, err := r.queryDepth(maxDepth, r.Limits.DefaultQueryDepth)
	if err != nil {
		return nil, err
	}
	return r.Graph.AncestorPath(ctx, id, depth)
}

func (r *Registry) Descendants(ctx context.Context, id string, maxDepth int) ([]model.Lineal, error) {
	depth, err := r.queryDepth(maxDepth, r.Limits.DefaultQueryDepth)
	if err != nil {
		return nil, err
	}
	return r.Graph.DescendantSubtree(ctx, id, depth)
}
