// Package merge reconciles an incoming set of members against the registry.
package merge

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/agenthands/lineage/internal/core/lineage"
	"github.com/agenthands/lineage/internal/core/model"
	"github.com/agenthands/lineage/internal/store"
)

type Engine struct {
	store     store.Store
	validator *lineage.Validator
	newID     func() string
}

// NewEngine builds an engine whose writes pass the same checks as direct
// member creates and updates. A nil validator uses the default rules.
func NewEngine(s store.Store, v *lineage.Validator, newID func() string) *Engine {
	if v == nil {
		v = lineage.NewValidator(0)
	}
	if newID == nil {
		newID = func() string { return uuid.New().String() }
	}
	return &Engine{store: s, validator: v, newID: newID}
}

type dupKey struct {
	name       string
	generation int
	gender     model.Gender
}

func keyOf(m *model.Member) dupKey {
	return dupKey{name: m.Name, generation: m.Generation, gender: m.Gender}
}

// Detect splits incoming into duplicates of existing and new members. Two
// members are duplicates when name, generation and gender match exactly; the
// first existing match wins.
func Detect(incoming, existing []*model.Member) *model.ConflictReport {
	byKey := make(map[dupKey]*model.Member, len(existing))
	for _, e := range existing {
		if _, taken := byKey[keyOf(e)]; !taken {
			byKey[keyOf(e)] = e
		}
	}

	report := &model.ConflictReport{
		Conflicts:  []model.Conflict{},
		NewMembers: []*model.Member{},
	}
	for _, in := range incoming {
		match, ok := byKey[keyOf(in)]
		if !ok {
			report.NewMembers = append(report.NewMembers, in)
			continue
		}
		report.Conflicts = append(report.Conflicts, model.Conflict{
			Type:     model.ConflictDuplicate,
			Incoming: in,
			Existing: match,
			Description: fmt.Sprintf("%s (generation %d, %s) already exists as %s",
				in.Name, in.Generation, in.Gender, match.ID),
		})
	}
	return report
}

// DetectConflicts runs Detect against every member currently stored.
func (e *Engine) DetectConflicts(ctx context.Context, incoming []*model.Member) (*model.ConflictReport, error) {
	existing, err := e.store.ListMembers(ctx, model.MemberFilter{})
	if err != nil {
		return nil, err
	}
	return Detect(incoming, existing), nil
}

// MergeBranch adds the non-duplicate incoming members, then applies the
// resolutions in order. Every duplicate needs a resolution or nothing is
// written. Steps already applied are not rolled back when a later one fails.
func (e *Engine) MergeBranch(ctx context.Context, incoming []*model.Member, resolutions []model.Resolution) (*model.MergeSummary, error) {
	for i, r := range resolutions {
		if !r.Action.Valid() {
			return nil, fmt.Errorf("resolution %d: unknown action %q: %w", i, r.Action, model.ErrValidationFailed)
		}
	}

	report, err := e.DetectConflicts(ctx, incoming)
	if err != nil {
		return nil, err
	}
	if unresolved := unresolvedConflicts(report.Conflicts, resolutions); len(unresolved) > 0 {
		return nil, &model.MergeConflictError{Conflicts: unresolved}
	}

	skipped := make(map[string]bool)
	for _, r := range resolutions {
		if r.Action == model.ActionSkip && r.IncomingID != "" {
			skipped[r.IncomingID] = true
		}
	}

	var toAdd []*model.Member
	res := model.NewValidationResult()
	for _, m := range report.NewMembers {
		if m.ID != "" && skipped[m.ID] {
			continue
		}
		c := m.Clone()
		c.ApplyDefaults()
		res.Merge(e.validator.ValidateNewMember(c, nil))
		toAdd = append(toAdd, c)
	}
	if err := res.Err(); err != nil {
		return nil, err
	}

	summary := &model.MergeSummary{AddedIDs: []string{}, Resolutions: []model.AppliedResolution{}}
	for _, m := range toAdd {
		id, err := e.insert(ctx, m)
		if err != nil {
			return summary, &model.PartialMergeError{Summary: summary, FailedIndex: -1, Err: err}
		}
		summary.Added++
		summary.AddedIDs = append(summary.AddedIDs, id)
	}

	byID := make(map[string]*model.Member, len(incoming))
	for _, m := range incoming {
		if m.ID != "" {
			byID[m.ID] = m
		}
	}

	for i, r := range resolutions {
		applied, err := e.apply(ctx, r, byID)
		if err != nil {
			return summary, &model.PartialMergeError{Summary: summary, FailedIndex: i, Err: err}
		}
		summary.Resolutions = append(summary.Resolutions, applied)
	}
	return summary, nil
}

func unresolvedConflicts(conflicts []model.Conflict, resolutions []model.Resolution) []model.Conflict {
	var out []model.Conflict
	for _, c := range conflicts {
		if !resolved(c, resolutions) {
			out = append(out, c)
		}
	}
	return out
}

func resolved(c model.Conflict, resolutions []model.Resolution) bool {
	for _, r := range resolutions {
		if c.Incoming.ID != "" && r.IncomingID == c.Incoming.ID {
			return true
		}
		if c.Incoming.ID == "" && r.ExistingID == c.Existing.ID {
			return true
		}
	}
	return false
}

func (e *Engine) apply(ctx context.Context, r model.Resolution, byID map[string]*model.Member) (model.AppliedResolution, error) {
	applied := model.AppliedResolution{Resolution: r}
	switch r.Action {
	case model.ActionReplace:
		update, err := replacement(r, byID)
		if err != nil {
			return applied, err
		}
		m, err := e.update(ctx, r.ExistingID, update)
		if err != nil {
			return applied, err
		}
		applied.MemberID = m.ID
	case model.ActionKeepBoth:
		dup, err := e.keepBothRecord(ctx, r, byID)
		if err != nil {
			return applied, err
		}
		if err := e.validator.ValidateNewMember(dup, nil).Err(); err != nil {
			return applied, err
		}
		id, err := e.insert(ctx, dup)
		if err != nil {
			return applied, err
		}
		applied.MemberID = id
	}
	return applied, nil
}

// replacement is the explicit IncomingData, or the whole incoming record
// when the resolution names one without data.
func replacement(r model.Resolution, byID map[string]*model.Member) (model.MemberUpdate, error) {
	if r.IncomingData != nil {
		return *r.IncomingData, nil
	}
	if in := byID[r.IncomingID]; in != nil {
		full := in.Clone()
		full.ApplyDefaults()
		return model.UpdateFromMember(full), nil
	}
	return model.MemberUpdate{}, fmt.Errorf("resolution for %s carries no incoming data: %w", r.IncomingID, model.ErrNotFound)
}

func (e *Engine) keepBothRecord(ctx context.Context, r model.Resolution, byID map[string]*model.Member) (*model.Member, error) {
	var dup *model.Member
	if in := byID[r.IncomingID]; in != nil {
		dup = in.Clone()
	} else if r.IncomingData != nil {
		existing, err := e.store.GetMember(ctx, r.ExistingID)
		if err != nil {
			return nil, err
		}
		dup = existing.Clone()
		dup.VisitCount = 0
		dup.LastVisitedAt = nil
	} else {
		return nil, fmt.Errorf("resolution for %s carries no incoming data: %w", r.IncomingID, model.ErrNotFound)
	}
	if r.IncomingData != nil {
		r.IncomingData.Apply(dup)
	}
	dup.ID = e.newID()
	dup.ApplyDefaults()
	return dup, nil
}

// update applies upd to an existing member after checking the result the
// same way a direct member update is checked.
func (e *Engine) update(ctx context.Context, id string, upd model.MemberUpdate) (*model.Member, error) {
	current, err := e.store.GetMember(ctx, id)
	if err != nil {
		return nil, err
	}
	next := current.Clone()
	upd.Apply(next)
	if err := e.validator.CheckUpdate(ctx, e.store, current, next); err != nil {
		return nil, err
	}
	return e.store.UpdateMember(ctx, id, func(m *model.Member) error {
		upd.Apply(m)
		return e.validator.ValidateNewMember(m, nil).Err()
	})
}

// insert stores a copy of m, minting an id when m has none or its id is taken.
func (e *Engine) insert(ctx context.Context, m *model.Member) (string, error) {
	c := m.Clone()
	c.ApplyDefaults()
	if c.ID == "" {
		c.ID = e.newID()
	} else if _, err := e.store.GetMember(ctx, c.ID); err == nil {
		c.ID = e.newID()
	}
	if err := e.store.CreateMember(ctx, c); err != nil {
		return "", err
	}
	return c.ID, nil
}
