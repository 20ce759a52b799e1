package merge

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

type failingStore struct {
	*store.MemoryStore
	failOn string
}

func (f *failingStore) UpdateMember(ctx context.Context, id string, mutate store.MemberMutator) (*model.Member, error) {
	if id == f.failOn {
		return nil, errors.New("disk full")
	}
	return f.MemoryStore.UpdateMember(ctx, id, mutate)
}

func setup(t *testing.T, existing ...*model.Member) (*Engine, *store.MemoryStore) {
	t.Helper()
	s := store.NewMemoryStore()
	for _, m := range existing {
		require.NoError(t, s.CreateMember(context.Background(), m))
	}
	n := 0
	return NewEngine(s, lineage.NewValidator(0), func() string { n++; return fmt.Sprintf("new-%d", n) }), s
}

func zhang() *model.Member {
	return &model.Member{ID: "e1", Name: "Zhang Wei", Generation: 3, Gender: model.GenderMale, BranchName: "Main", Bio: "old"}
}

func TestDetectConflicts(t *testing.T) {
	e, _ := setup(t, zhang())
	incoming := []*model.Member{
		{ID: "i1", Name: "Zhang Wei", Generation: 3, Gender: model.GenderMale},
		{ID: "i2", Name: "Zhang Li", Generation: 3, Gender: model.GenderMale},
		{ID: "i3", Name: "Zhang Wei", Generation: 4, Gender: model.GenderMale},
	}

	report, err := e.DetectConflicts(context.Background(), incoming)
	require.NoError(t, err)
	require.Len(t, report.Conflicts, 1)
	assert.Equal(t, model.ConflictDuplicate, report.Conflicts[0].Type)
	assert.Equal(t, "i1", report.Conflicts[0].Incoming.ID)
	assert.Equal(t, "e1", report.Conflicts[0].Existing.ID)
	assert.NotEmpty(t, report.Conflicts[0].Description)

	require.Len(t, report.NewMembers, 2)
	assert.Equal(t, "i2", report.NewMembers[0].ID)
	assert.Equal(t, "i3", report.NewMembers[1].ID)
}

func TestMergeBranch_Replace(t *testing.T) {
	e, s := setup(t, zhang())
	incoming := []*model.Member{{ID: "i1", Name: "Zhang Wei", Generation: 3, Gender: model.GenderMale, Bio: "new"}}

	summary, err := e.MergeBranch(context.Background(), incoming, []model.Resolution{
		{ExistingID: "e1", IncomingID: "i1", Action: model.ActionReplace},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Added)
	require.Len(t, summary.Resolutions, 1)
	assert.Equal(t, "e1", summary.Resolutions[0].MemberID)

	got, err := s.GetMember(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, "new", got.Bio)
	assert.Equal(t, 3, got.Generation)

	all, _ := s.ListMembers(context.Background(), model.MemberFilter{})
	assert.Len(t, all, 1)
}

func TestMergeBranch_KeepBoth(t *testing.T) {
	e, s := setup(t, zhang())
	incoming := []*model.Member{{ID: "i1", Name: "Zhang Wei", Generation: 3, Gender: model.GenderMale}}

	summary, err := e.MergeBranch(context.Background(), incoming, []model.Resolution{
		{ExistingID: "e1", IncomingID: "i1", Action: model.ActionKeepBoth},
	})
	require.NoError(t, err)
	assert.Equal(t, "new-1", summary.Resolutions[0].MemberID)

	all, _ := s.ListMembers(context.Background(), model.MemberFilter{})
	assert.Len(t, all, 2)
}

func TestMergeBranch_SkipExcludesNewMember(t *testing.T) {
	e, s := setup(t, zhang())
	incoming := []*model.Member{
		{ID: "i1", Name: "Zhang Wei", Generation: 3, Gender: model.GenderMale},
		{ID: "i2", Name: "Li Na", Generation: 3, Gender: model.GenderFemale},
		{ID: "i3", Name: "Wang Fang", Generation: 2},
	}

	summary, err := e.MergeBranch(context.Background(), incoming, []model.Resolution{
		{ExistingID: "e1", IncomingID: "i1", Action: model.ActionSkip},
		{IncomingID: "i2", Action: model.ActionSkip},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Added)
	assert.Equal(t, []string{"i3"}, summary.AddedIDs)
	assert.Len(t, summary.Resolutions, 2)

	added, err := s.GetMember(context.Background(), "i3")
	require.NoError(t, err)
	assert.Equal(t, model.GenderMale, added.Gender)
	assert.Equal(t, model.DefaultBranch, added.BranchName)
}

func TestMergeBranch_UnresolvedConflictWritesNothing(t *testing.T) {
	e, s := setup(t, zhang())
	incoming := []*model.Member{
		{ID: "i1", Name: "Zhang Wei", Generation: 3, Gender: model.GenderMale},
		{ID: "i2", Name: "Li Na", Generation: 3, Gender: model.GenderFemale},
	}

	_, err := e.MergeBranch(context.Background(), incoming, nil)
	var conflict *model.MergeConflictError
	require.True(t, errors.As(err, &conflict))
	assert.True(t, errors.Is(err, model.ErrMergeConflict))
	assert.Len(t, conflict.Conflicts, 1)

	all, _ := s.ListMembers(context.Background(), model.MemberFilter{})
	assert.Len(t, all, 1)
}

func TestMergeBranch_UnknownAction(t *testing.T) {
	e, _ := setup(t)
	_, err := e.MergeBranch(context.Background(), nil, []model.Resolution{{Action: "merge"}})
	assert.True(t, errors.Is(err, model.ErrValidationFailed))
}

func TestMergeBranch_PartialFailureReportsProgress(t *testing.T) {
	mem := store.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, mem.CreateMember(ctx, zhang()))
	require.NoError(t, mem.CreateMember(ctx, &model.Member{ID: "e2", Name: "Zhang Min", Generation: 3, Gender: model.GenderFemale}))
	e := NewEngine(&failingStore{MemoryStore: mem, failOn: "e2"}, nil, nil)

	incoming := []*model.Member{
		{ID: "i1", Name: "Zhang Wei", Generation: 3, Gender: model.GenderMale, Bio: "updated"},
		{ID: "i2", Name: "Zhang Min", Generation: 3, Gender: model.GenderFemale},
		{ID: "i3", Name: "Brand New", Generation: 4},
	}
	summary, err := e.MergeBranch(ctx, incoming, []model.Resolution{
		{ExistingID: "e1", IncomingID: "i1", Action: model.ActionReplace},
		{ExistingID: "e2", IncomingID: "i2", Action: model.ActionReplace},
	})

	var partial *model.PartialMergeError
	require.True(t, errors.As(err, &partial))
	assert.True(t, errors.Is(err, model.ErrPartialMerge))
	assert.Equal(t, 1, partial.FailedIndex)
	assert.Equal(t, 1, summary.Added)
	require.Len(t, summary.Resolutions, 1)

	got, _ := mem.GetMember(ctx, "e1")
	assert.Equal(t, "updated", got.Bio)
}

func strPtr(s string) *string { return &s }

func hasFailure(err error, kind model.FailureKind) bool {
	var verr *model.ValidationError
	if !errors.As(err, &verr) {
		return false
	}
	for _, f := range verr.Failures {
		if f.Kind == kind {
			return true
		}
	}
	return false
}

func TestMergeBranch_ReplaceAppliesOnlySuppliedFields(t *testing.T) {
	existing := zhang()
	existing.BirthDate = "1950-02-01"
	existing.Tags = []string{"elder"}
	e, s := setup(t, existing)
	ctx := context.Background()

	_, err := e.MergeBranch(ctx, []*model.Member{{ID: "i1", Name: "Zhang Wei", Generation: 3, Gender: model.GenderMale}},
		[]model.Resolution{{ExistingID: "e1", IncomingID: "i1", Action: model.ActionReplace,
			IncomingData: &model.MemberUpdate{Bio: strPtr("rewritten")}}})
	require.NoError(t, err)

	got, err := s.GetMember(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "rewritten", got.Bio)
	assert.Equal(t, "Zhang Wei", got.Name)
	assert.Equal(t, "1950-02-01", got.BirthDate)
	assert.Equal(t, []string{"elder"}, got.Tags)
	assert.Equal(t, "Main", got.BranchName)
}

func TestMergeBranch_ReplaceCannotReviveBuriedMember(t *testing.T) {
	e, s := setup(t, zhang())
	ctx := context.Background()
	require.NoError(t, s.PutCemetery(ctx, &model.Cemetery{MemberID: "e1", Address: "Hill 3"}))

	alive := true
	summary, err := e.MergeBranch(ctx, []*model.Member{{ID: "i1", Name: "Zhang Wei", Generation: 3, Gender: model.GenderMale}},
		[]model.Resolution{{ExistingID: "e1", IncomingID: "i1", Action: model.ActionReplace,
			IncomingData: &model.MemberUpdate{IsAlive: &alive, Bio: strPtr("alive again")}}})

	var partial *model.PartialMergeError
	require.True(t, errors.As(err, &partial))
	assert.Equal(t, 0, partial.FailedIndex)
	assert.True(t, hasFailure(err, model.FailureAliveWithMemorial))
	assert.Empty(t, summary.Resolutions)

	got, _ := s.GetMember(ctx, "e1")
	assert.False(t, got.IsAlive)
	assert.Equal(t, "old", got.Bio)
}

func TestMergeBranch_ReplaceRejectsEmptyName(t *testing.T) {
	e, s := setup(t, zhang())
	ctx := context.Background()

	_, err := e.MergeBranch(ctx, []*model.Member{{ID: "i1", Name: "Zhang Wei", Generation: 3, Gender: model.GenderMale}},
		[]model.Resolution{{ExistingID: "e1", IncomingID: "i1", Action: model.ActionReplace,
			IncomingData: &model.MemberUpdate{Name: strPtr("  ")}}})
	assert.True(t, errors.Is(err, model.ErrPartialMerge))
	assert.True(t, errors.Is(err, model.ErrValidationFailed))

	got, _ := s.GetMember(ctx, "e1")
	assert.Equal(t, "Zhang Wei", got.Name)
}

func TestMergeBranch_InvalidNewMemberWritesNothing(t *testing.T) {
	e, s := setup(t, zhang())
	ctx := context.Background()

	_, err := e.MergeBranch(ctx, []*model.Member{
		{ID: "i2", Name: "Li Na", Generation: 3, Gender: model.GenderFemale},
		{ID: "i3", Name: "", Generation: 4},
	}, nil)
	assert.True(t, hasFailure(err, model.FailureMissingName))
	assert.False(t, errors.Is(err, model.ErrPartialMerge))

	all, _ := s.ListMembers(ctx, model.MemberFilter{})
	assert.Len(t, all, 1)
}

func TestMergeBranch_KeepBothFromExistingRecord(t *testing.T) {
	e, s := setup(t, zhang())
	ctx := context.Background()

	summary, err := e.MergeBranch(ctx, []*model.Member{{Name: "Zhang Wei", Generation: 3, Gender: model.GenderMale}},
		[]model.Resolution{{ExistingID: "e1", Action: model.ActionKeepBoth,
			IncomingData: &model.MemberUpdate{Nickname: strPtr("the younger")}}})
	require.NoError(t, err)

	dup, err := s.GetMember(ctx, summary.Resolutions[0].MemberID)
	require.NoError(t, err)
	assert.Equal(t, "new-1", dup.ID)
	assert.Equal(t, "Zhang Wei", dup.Name)
	assert.Equal(t, "the younger", dup.Nickname)
	assert.Equal(t, "old", dup.Bio)

	orig, _ := s.GetMember(ctx, "e1")
	assert.Empty(t, orig.Nickname)
}

func TestMergeBranch_KeepBothRejectsInvalidRecord(t *testing.T) {
	e, s := setup(t, zhang())
	ctx := context.Background()

	_, err := e.MergeBranch(ctx, []*model.Member{{ID: "i1", Name: "Zhang Wei", Generation: 3, Gender: model.GenderMale}},
		[]model.Resolution{{ExistingID: "e1", IncomingID: "i1", Action: model.ActionKeepBoth,
			IncomingData: &model.MemberUpdate{BirthDate: strPtr("1990-01-01"), DeathDate: strPtr("1980-01-01")}}})
	assert.True(t, errors.Is(err, model.ErrPartialMerge))
	assert.True(t, errors.Is(err, model.ErrValidationFailed))

	all, _ := s.ListMembers(ctx, model.MemberFilter{})
	assert.Len(t, all, 1)
}
