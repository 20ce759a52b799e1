package graph

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/lineage/internal/core/lineage"
	"github.com/agenthands/lineage/internal/core/model"
	"github.com/agenthands/lineage/internal/store"
)

func newTestGraph(t *testing.T, members ...*model.Member) (*Graph, *store.MemoryStore) {
	t.Helper()
	s := store.NewMemoryStore()
	for _, m := range members {
		require.NoError(t, s.CreateMember(context.Background(), m))
	}
	n := 0
	g := New(s, lineage.NewValidator(10), WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("link-%d", n)
	}))
	return g, s
}

func person(id string, gender model.Gender, gen int) *model.Member {
	return &model.Member{ID: id, Name: id, Gender: gender, Generation: gen, IsAlive: true}
}

func TestAddEdge_CreatesReciprocal(t *testing.T) {
	ctx := context.Background()
	g, s := newTestGraph(t, person("dad", model.GenderMale, 1), person("girl", model.GenderFemale, 2))

	link, err := g.AddEdge(ctx, "girl", "dad", model.RelationshipBiological, model.RoleFather)
	require.NoError(t, err)
	assert.Equal(t, "link-1", link.ID)

	back, err := s.FindLink(ctx, "dad", "girl", model.RoleDaughter)
	require.NoError(t, err)
	assert.Equal(t, model.RelationshipBiological, back.Relationship)

	all, err := s.AllLinks(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestAddEdge_ReciprocalIsIdempotent(t *testing.T) {
	ctx := context.Background()
	g, s := newTestGraph(t, person("dad", model.GenderMale, 1), person("boy", model.GenderMale, 2))
	require.NoError(t, s.InsertLinks(ctx, &model.FamilyLink{
		ID: "pre", SourceID: "dad", TargetID: "boy", Relationship: model.RelationshipBiological, Role: model.RoleSon,
	}))

	_, err := g.AddEdge(ctx, "boy", "dad", model.RelationshipBiological, model.RoleFather)
	require.NoError(t, err)

	all, err := s.AllLinks(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestAddEdge_Errors(t *testing.T) {
	ctx := context.Background()
	g, _ := newTestGraph(t,
		person("dad", model.GenderMale, 1),
		person("boy", model.GenderMale, 2),
		person("grandson", model.GenderMale, 3),
	)

	_, err := g.AddEdge(ctx, "boy", "ghost", model.RelationshipBiological, model.RoleFather)
	assert.True(t, errors.Is(err, model.ErrNotFound))

	_, err = g.AddEdge(ctx, "boy", "dad", model.RelationshipBiological, model.RoleFather)
	require.NoError(t, err)
	_, err = g.AddEdge(ctx, "boy", "dad", model.RelationshipBiological, model.RoleFather)
	assert.True(t, errors.Is(err, model.ErrDuplicateEdge))

	_, err = g.AddEdge(ctx, "dad", "boy", model.RelationshipBiological, model.RoleFather)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrValidationFailed))
}

func TestAddEdge_RejectsCycleWithoutGenerations(t *testing.T) {
	ctx := context.Background()
	g, _ := newTestGraph(t,
		person("a", model.GenderMale, 0),
		person("b", model.GenderMale, 0),
		person("c", model.GenderMale, 0),
	)
	_, err := g.AddEdge(ctx, "b", "a", model.RelationshipBiological, model.RoleFather)
	require.NoError(t, err)
	_, err = g.AddEdge(ctx, "c", "b", model.RelationshipBiological, model.RoleFather)
	require.NoError(t, err)

	_, err = g.AddEdge(ctx, "a", "c", model.RelationshipBiological, model.RoleFather)
	var verr *model.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, model.FailureLineageCycle, verr.Failures[0].Kind)
}

func TestAddEdge_ParentGenerationInvariantHolds(t *testing.T) {
	ctx := context.Background()
	g, s := newTestGraph(t,
		person("f", model.GenderMale, 1),
		person("m", model.GenderFemale, 1),
		person("c1", model.GenderMale, 2),
		person("c2", model.GenderFemale, 2),
	)
	for _, c := range []string{"c1", "c2"} {
		_, err := g.AddEdge(ctx, c, "f", model.RelationshipBiological, model.RoleFather)
		require.NoError(t, err)
		_, err = g.AddEdge(ctx, c, "m", model.RelationshipAdopted, model.RoleMother)
		require.NoError(t, err)
	}

	links, err := s.AllLinks(ctx)
	require.NoError(t, err)
	for _, l := range links {
		if !l.Role.IsParent() {
			continue
		}
		child, _ := s.GetMember(ctx, l.SourceID)
		parent, _ := s.GetMember(ctx, l.TargetID)
		assert.Greater(t, child.Generation, parent.Generation)

		back, err := s.FindLink(ctx, l.TargetID, l.SourceID, model.ChildRole(child.Gender))
		require.NoError(t, err, "reciprocal of %s", l.ID)
		assert.Equal(t, l.Relationship, back.Relationship)
	}
}

func TestRemoveEdge_KeepsReciprocal(t *testing.T) {
	ctx := context.Background()
	g, s := newTestGraph(t, person("dad", model.GenderMale, 1), person("boy", model.GenderMale, 2))
	link, err := g.AddEdge(ctx, "boy", "dad", model.RelationshipBiological, model.RoleFather)
	require.NoError(t, err)

	require.NoError(t, g.RemoveEdge(ctx, link.ID))
	all, err := s.AllLinks(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, model.RoleSon, all[0].Role)

	assert.True(t, errors.Is(g.RemoveEdge(ctx, link.ID), model.ErrNotFound))
}

func TestRemoveEdgeCascade(t *testing.T) {
	ctx := context.Background()
	g, s := newTestGraph(t, person("dad", model.GenderMale, 1), person("boy", model.GenderMale, 2))
	link, err := g.AddEdge(ctx, "boy", "dad", model.RelationshipBiological, model.RoleFather)
	require.NoError(t, err)

	removed, err := g.RemoveEdgeCascade(ctx, link.ID)
	require.NoError(t, err)
	assert.Len(t, removed, 2)

	all, err := s.AllLinks(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestParentsAndChildren_IgnoreSpouseEdges(t *testing.T) {
	ctx := context.Background()
	g, _ := newTestGraph(t,
		person("dad", model.GenderMale, 1),
		person("mom", model.GenderFemale, 1),
		person("boy", model.GenderMale, 2),
	)
	_, err := g.AddEdge(ctx, "boy", "dad", model.RelationshipBiological, model.RoleFather)
	require.NoError(t, err)
	_, err = g.AddEdge(ctx, "boy", "mom", model.RelationshipBiological, model.RoleMother)
	require.NoError(t, err)
	_, err = g.AddEdge(ctx, "dad", "mom", model.RelationshipMarriedIn, model.RoleSpouse)
	require.NoError(t, err)

	parents, err := g.ParentsOf(ctx, "boy")
	require.NoError(t, err)
	require.Len(t, parents, 2)

	children, err := g.ChildrenOf(ctx, "dad")
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "boy", children[0].Member.ID)

	dadParents, err := g.ParentsOf(ctx, "dad")
	require.NoError(t, err)
	assert.Empty(t, dadParents)
}

func TestSpousesOf_MergesBothRepresentations(t *testing.T) {
	ctx := context.Background()
	g, s := newTestGraph(t, person("dad", model.GenderMale, 1), person("mom", model.GenderFemale, 1))
	_, err := g.AddEdge(ctx, "mom", "dad", model.RelationshipMarriedIn, model.RoleSpouse)
	require.NoError(t, err)
	require.NoError(t, s.AddSpouse(ctx, &model.Spouse{ID: "sp1", MemberID: "dad", Name: "Second Wife", MarriedDate: "1990"}))

	refs, err := g.SpousesOf(ctx, "dad")
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, model.SpouseKindMember, refs[0].Kind)
	assert.Equal(t, "mom", refs[0].ID)
	assert.Equal(t, model.SpouseKindInline, refs[1].Kind)
	assert.Equal(t, "Second Wife", refs[1].Name)
}

func chain(t *testing.T) (*Graph, *store.MemoryStore) {
	t.Helper()
	g, s := newTestGraph(t,
		person("g1", model.GenderMale, 1),
		person("g2", model.GenderMale, 2),
		person("g3", model.GenderMale, 3),
		person("g4", model.GenderMale, 4),
	)
	ctx := context.Background()
	for _, pair := range [][2]string{{"g2", "g1"}, {"g3", "g2"}, {"g4", "g3"}} {
		_, err := g.AddEdge(ctx, pair[0], pair[1], model.RelationshipBiological, model.RoleFather)
		require.NoError(t, err)
	}
	return g, s
}

func ids(ls []model.Lineal) []string {
	out := make([]string, 0, len(ls))
	for _, l := range ls {
		out = append(out, l.Member.ID)
	}
	return out
}

func TestAncestorPath_FarthestFirst(t *testing.T) {
	g, _ := chain(t)
	path, err := g.AncestorPath(context.Background(), "g4", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"g1", "g2", "g3", "g4"}, ids(path))
	assert.Equal(t, 0, path[len(path)-1].Depth)

	bounded, err := g.AncestorPath(context.Background(), "g4", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"g2", "g3", "g4"}, ids(bounded))
}

func TestDescendantSubtree_BreadthFirst(t *testing.T) {
	g, _ := chain(t)
	sub, err := g.DescendantSubtree(context.Background(), "g1", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"g1", "g2", "g3"}, ids(sub))

	_, err = g.DescendantSubtree(context.Background(), "g1", -1)
	assert.Error(t, err)
}

func TestDescendantSubtree_TerminatesOnMalformedCycle(t *testing.T) {
	ctx := context.Background()
	g, s := newTestGraph(t, person("a", model.GenderMale, 1), person("b", model.GenderMale, 2))
	// written straight to the store, bypassing cycle validation
	require.NoError(t, s.InsertLinks(ctx,
		&model.FamilyLink{ID: "x", SourceID: "a", TargetID: "b", Relationship: model.RelationshipBiological, Role: model.RoleSon},
		&model.FamilyLink{ID: "y", SourceID: "b", TargetID: "a", Relationship: model.RelationshipBiological, Role: model.RoleSon},
	))

	sub, err := g.DescendantSubtree(ctx, "a", 100)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(sub))
}

type fixedSource struct {
	depths map[string]int
	err    error
	calls  int
}

func (f *fixedSource) AncestorIDs(ctx context.Context, id string, maxDepth int) (map[string]int, error) {
	f.calls++
	return f.depths, f.err
}

func (f *fixedSource) DescendantIDs(ctx context.Context, id string, maxDepth int) (map[string]int, error) {
	f.calls++
	return f.depths, f.err
}

func TestLineageSource(t *testing.T) {
	ctx := context.Background()
	g, _ := chain(t)
	src := &fixedSource{depths: map[string]int{"g3": 1, "gone": 2}}
	g.SetLineageSource(src)

	path, err := g.AncestorPath(ctx, "g4", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"g3", "g4"}, ids(path))
	assert.Equal(t, 1, src.calls)

	sub, err := g.StoreSubtree(ctx, "g1", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"g1", "g2", "g3", "g4"}, ids(sub))
	assert.Equal(t, 1, src.calls)

	src.err = errors.New("mirror offline")
	sub, err = g.DescendantSubtree(ctx, "g1", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"g1", "g2", "g3", "g4"}, ids(sub))
	assert.Equal(t, 2, src.calls)

	g.SetLineageSource(nil)
	path, err = g.AncestorPath(ctx, "g4", 10)
	require.NoError(t, err)
	assert.Len(t, path, 4)
	assert.Equal(t, 2, src.calls)
}
