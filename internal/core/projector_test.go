package core

import (
	"context"
	"errors"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/lineage/internal/core/model"
	"github.com/agenthands/lineage/internal/driver"
)

func TestProjector_NilIsNoop(t *testing.T) {
	var p *Projector
	ctx := context.Background()
	p.SaveMembers(ctx, &model.Member{ID: "a"})
	p.DeleteLinks(ctx, "l1")
	assert.NoError(t, p.Rebuild(ctx, nil, nil))

	_, err := p.AncestorIDs(ctx, "a", 3)
	assert.Error(t, err)
}

func TestRegistry_ProjectsMutations(t *testing.T) {
	r := newTestRegistry(t)
	d := &MockDriver{}
	r.Projector = NewProjector(d, nil)
	ctx := context.Background()

	root := mustCreate(t, r, &model.Member{Name: "Root"}, "")
	child := mustCreate(t, r, &model.Member{Name: "Child"}, root.ID)

	queries := d.Queries()
	assert.Equal(t, []string{
		driver.SaveMemberQuery,
		driver.SaveMemberQuery,
		driver.SaveLinkQuery,
		driver.SaveLinkQuery,
	}, queries)
	assert.Equal(t, root.ID, d.Executed[0].Params["id"])

	require.NoError(t, r.DeleteMember(ctx, child.ID))
	assert.Equal(t, driver.DeleteMemberQuery, d.Queries()[len(d.Queries())-1])
}

func TestRegistry_MirrorFailureDoesNotFailMutation(t *testing.T) {
	r := newTestRegistry(t)
	r.Projector = NewProjector(&MockDriver{Err: errors.New("connection refused")}, nil)

	m, err := r.CreateMember(context.Background(), &model.Member{Name: "Resilient"}, "")
	require.NoError(t, err)
	assert.Equal(t, "Resilient", m.Name)
}

func TestRebuildMirror(t *testing.T) {
	r := newTestRegistry(t)
	root := mustCreate(t, r, &model.Member{Name: "Root"}, "")
	mustCreate(t, r, &model.Member{Name: "Child"}, root.ID)

	d := &MockDriver{}
	r.Projector = NewProjector(d, nil)
	require.NoError(t, r.RebuildMirror(context.Background()))

	queries := d.Queries()
	require.Len(t, queries, 5)
	assert.Equal(t, driver.ClearGraphQuery, queries[0])
	assert.Equal(t, driver.SaveLinkQuery, queries[4])

	d.Err = errors.New("down")
	assert.Error(t, r.RebuildMirror(context.Background()))
}

func TestProjector_Lineage(t *testing.T) {
	d := &MockDriver{MockResult: neo4j.EagerResult{
		Keys: []string{"id", "depth"},
		Records: []*neo4j.Record{
			{Keys: []string{"id", "depth"}, Values: []any{"father", int64(1)}},
			{Keys: []string{"id", "depth"}, Values: []any{"grandfather", int64(2)}},
			{Keys: []string{"id", "depth"}, Values: []any{nil, int64(3)}},
		},
	}}
	p := NewProjector(d, nil)

	got, err := p.AncestorIDs(context.Background(), "me", 4)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"father": 1, "grandfather": 2}, got)
	assert.Equal(t, driver.LineageQuery(4), d.Executed[0].Query)
	assert.Equal(t, driver.AncestorRoles, d.Executed[0].Params["roles"])

	got, err = p.DescendantIDs(context.Background(), "me", 0)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Len(t, d.Executed, 1)
}

func TestAttachMirror_AnswersLineage(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()
	root := mustCreate(t, r, &model.Member{Name: "Root"}, "")
	child := mustCreate(t, r, &model.Member{Name: "Child"}, root.ID)

	d := &MockDriver{MockResult: neo4j.EagerResult{
		Keys: []string{"id", "depth"},
		Records: []*neo4j.Record{
			{Keys: []string{"id", "depth"}, Values: []any{root.ID, int64(1)}},
		},
	}}
	r.AttachMirror(NewProjector(d, nil))

	up, err := r.Ancestors(ctx, child.ID, 3)
	require.NoError(t, err)
	require.Len(t, up, 2)
	assert.Equal(t, root.ID, up[0].Member.ID)
	assert.Equal(t, driver.LineageQuery(3), d.Queries()[len(d.Queries())-1])

	d.Err = errors.New("mirror offline")
	up, err = r.Ancestors(ctx, child.ID, 3)
	require.NoError(t, err)
	assert.Len(t, up, 2)

	shifted, err := r.ShiftGeneration(ctx, root.ID, 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{root.ID, child.ID}, shifted)

	r.AttachMirror(nil)
	assert.Nil(t, r.Projector)
}
